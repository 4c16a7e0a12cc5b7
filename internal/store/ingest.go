package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hanpama/blockql/internal/blockptr"
)

// BlockFile is the document read by Ingest. JSON documents are accepted as
// well since they are valid YAML.
//
//	blocks:
//	  - number: 1
//	    hash: "0x..."
//	    entities:
//	      - {entity: Token, id: "1", data: {symbol: ABC}}
//	      - {entity: Token, id: "2", remove: true}
type BlockFile struct {
	Blocks []BlockEntry `yaml:"blocks"`
}

type BlockEntry struct {
	Number uint64 `yaml:"number"`
	// Hash defaults to a hash derived from Number.
	Hash     string        `yaml:"hash"`
	Entities []ChangeEntry `yaml:"entities"`
}

type ChangeEntry struct {
	Entity string         `yaml:"entity"`
	ID     string         `yaml:"id"`
	Data   map[string]any `yaml:"data"`
	Remove bool           `yaml:"remove"`
}

// Ingest appends every block of the document in r, in order. It returns the
// last block appended.
func Ingest(ctx context.Context, s *Store, r io.Reader) (blockptr.Ptr, error) {
	var (
		file BlockFile
		last blockptr.Ptr
	)
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return last, fmt.Errorf("decode blocks: %w", err)
	}
	for _, b := range file.Blocks {
		ptr, err := b.ptr()
		if err != nil {
			return last, err
		}
		changes := make([]Change, len(b.Entities))
		for i, e := range b.Entities {
			changes[i] = Change{Entity: e.Entity, ID: e.ID, Data: e.Data, Remove: e.Remove}
		}
		if err := s.AppendBlock(ctx, ptr, changes); err != nil {
			return last, err
		}
		last = ptr
	}
	return last, nil
}

func (b BlockEntry) ptr() (blockptr.Ptr, error) {
	ptr := blockptr.Ptr{Number: b.Number}
	if b.Hash == "" {
		ptr.Hash = DerivedHash(b.Number)
		return ptr, nil
	}
	h, err := blockptr.ParseHash(b.Hash)
	if err != nil {
		return ptr, fmt.Errorf("block %d: %w", b.Number, err)
	}
	ptr.Hash = h
	return ptr, nil
}

// DerivedHash is the hash given to blocks ingested without one.
func DerivedHash(number uint64) blockptr.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], number)
	return sha256.Sum256(buf[:])
}
