package executor

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"sort"

	"github.com/hanpama/blockql/internal/blockptr"
	language "github.com/hanpama/blockql/internal/language"
	"github.com/hanpama/blockql/internal/querycache"
	"github.com/hanpama/blockql/internal/value"
)

// CacheKey fingerprints a root selection set of q at block. It covers the
// schema id, the coerced variables, every fragment definition, the
// selection set and the block. Equal inputs always give equal keys; the
// rendering used is not stable across releases, so keys must not be stored.
func CacheKey(q *Query, selectionSet language.SelectionSet, block blockptr.Ptr) querycache.Key {
	h := &sequenceHasher{h: sha256.New()}

	h.child(0).write([]byte(q.Schema.ID))

	vars := h.child(1)
	for i, name := range sortedKeys(q.Variables) {
		entry := vars.child(uint64(i))
		entry.child(0).write([]byte(name))
		entry.child(1).write([]byte(value.Render(q.Variables[name])))
	}

	fragments := h.child(2)
	names := make([]string, 0, len(q.Fragments))
	for name := range q.Fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		entry := fragments.child(uint64(i))
		entry.child(0).write([]byte(name))
		entry.child(1).write([]byte(language.FormatFragment(q.Fragments[name])))
	}

	h.child(3).write([]byte(language.FormatSelectionSet(selectionSet)))

	blk := h.child(4)
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], block.Number)
	blk.child(0).write(num[:])
	blk.child(1).write(block.Hash[:])

	var key querycache.Key
	copy(key[:], h.h.Sum(nil))
	return key
}

// sequenceHasher frames every write with its position in the component
// tree and its length, so that no two different inputs share a byte stream.
type sequenceHasher struct {
	h    hash.Hash
	path []uint64
}

func (s *sequenceHasher) child(n uint64) *sequenceHasher {
	path := make([]uint64, len(s.path)+1)
	copy(path, s.path)
	path[len(s.path)] = n
	// Empty components still contribute their position.
	s.frame(path, nil)
	return &sequenceHasher{h: s.h, path: path}
}

func (s *sequenceHasher) write(data []byte) {
	s.frame(s.path, data)
}

func (s *sequenceHasher) frame(path []uint64, data []byte) {
	var buf [binary.MaxVarintLen64]byte
	s.h.Write(buf[:binary.PutUvarint(buf[:], uint64(len(path)))])
	for _, p := range path {
		s.h.Write(buf[:binary.PutUvarint(buf[:], p)])
	}
	s.h.Write(buf[:binary.PutUvarint(buf[:], uint64(len(data)))])
	s.h.Write(data)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
