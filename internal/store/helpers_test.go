package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/blockql/internal/blockptr"
	"github.com/hanpama/blockql/internal/value"
)

func openStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "store.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(n uint64) blockptr.Ptr {
	return blockptr.Ptr{Number: n, Hash: DerivedHash(n)}
}

func appendBlock(t *testing.T, s *Store, n uint64, changes ...Change) {
	t.Helper()
	require.NoError(t, s.AppendBlock(context.Background(), ptr(n), changes))
}

func write(entity, id string, kv ...any) Change {
	data := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		data[kv[i].(string)] = kv[i+1]
	}
	return Change{Entity: entity, ID: id, Data: data}
}

func remove(entity, id string) Change {
	return Change{Entity: entity, ID: id, Remove: true}
}

func ids(rows []*value.Object) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		id, _ := row.Get("id")
		out[i], _ = id.(string)
	}
	return out
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// seedTokens writes three tokens at block 1, updates one at block 2 and
// removes one at block 3.
func seedTokens(t *testing.T, s *Store) {
	t.Helper()
	appendBlock(t, s, 1,
		write("Account", "a1", "name", "alice"),
		write("Token", "t1", "symbol", "ABC", "decimals", 18, "kind", "NATIVE", "owner", "a1", "active", true),
		write("Token", "t2", "symbol", "XYZ", "decimals", 6, "kind", "WRAPPED", "owner", "a1", "active", false),
		write("Token", "t3", "symbol", "ABD", "decimals", 8, "kind", "NATIVE", "active", true),
	)
	appendBlock(t, s, 2, write("Token", "t2", "symbol", "XYZ2", "decimals", 6, "kind", "WRAPPED", "owner", "a1", "active", true))
	appendBlock(t, s, 3, remove("Token", "t3"))
}

func limit(n int) *int { return &n }
