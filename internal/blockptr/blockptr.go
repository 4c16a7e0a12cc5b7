// Package blockptr identifies a block of the chain an answer is computed at.
package blockptr

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// NumberMax is the sentinel block number meaning "no particular block".
// Answers at this number are never cached.
const NumberMax uint64 = math.MaxInt32

// Hash is a 32 byte block hash.
type Hash [32]byte

// ParseHash decodes a hex encoded hash with or without the 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("invalid block hash %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("invalid block hash %q: expected %d bytes, got %d", s, len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// Ptr names a block by number and hash.
type Ptr struct {
	Number uint64
	Hash   Hash
}

func (p Ptr) String() string { return fmt.Sprintf("#%d (%s)", p.Number, p.Hash) }

// IsSentinel reports whether p carries the NumberMax sentinel.
func (p Ptr) IsSentinel() bool { return p.Number == NumberMax }
