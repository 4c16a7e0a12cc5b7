package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("yaml", func(t *testing.T) {
		s := openStore(t)
		doc := `
blocks:
  - number: 1
    entities:
      - {entity: Token, id: t1, data: {symbol: ABC, decimals: 18}}
      - {entity: Token, id: t2, data: {symbol: XYZ}}
  - number: 2
    hash: "0x` + strings.Repeat("ab", 32) + `"
    entities:
      - {entity: Token, id: t2, remove: true}
`
		last, err := Ingest(ctx, s, strings.NewReader(doc))
		require.NoError(t, err)
		require.Equal(t, uint64(2), last.Number)
		require.Equal(t, "0x"+strings.Repeat("ab", 32), last.Hash.String())

		got, ok, err := s.BlockByNumber(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, DerivedHash(1), got.Hash)

		rows, err := s.Find(ctx, Query{Entities: []string{"Token"}, Block: 2})
		require.NoError(t, err)
		require.Equal(t, []string{"t1"}, ids(rows))
		require.JSONEq(t, `{"__typename":"Token","decimals":18,"id":"t1","symbol":"ABC"}`, toJSON(t, rows[0]))
	})

	t.Run("json", func(t *testing.T) {
		s := openStore(t)
		doc := `{"blocks": [{"number": 7, "entities": [{"entity": "Account", "id": "a1", "data": {"name": "alice"}}]}]}`
		last, err := Ingest(ctx, s, strings.NewReader(doc))
		require.NoError(t, err)
		require.Equal(t, ptr(7), last)
	})

	t.Run("stops at the first bad block", func(t *testing.T) {
		s := openStore(t)
		doc := `
blocks:
  - number: 2
  - number: 1
  - number: 3
`
		last, err := Ingest(ctx, s, strings.NewReader(doc))
		require.ErrorIs(t, err, ErrBlockOrder)
		require.Equal(t, ptr(2), last)
		head, _, err := s.ChainHead(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(2), head.Number)
	})

	t.Run("bad hash", func(t *testing.T) {
		s := openStore(t)
		_, err := Ingest(ctx, s, strings.NewReader("blocks: [{number: 1, hash: nope}]"))
		require.Error(t, err)
	})
}
