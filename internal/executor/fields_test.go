package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/blockql/internal/language"
	"github.com/hanpama/blockql/internal/value"
)

func responseKeys(cf *CollectedFields) []string {
	var keys []string
	for _, g := range cf.Ordered() {
		keys = append(keys, g.ResponseKey)
	}
	return keys
}

func TestCollectFields(t *testing.T) {
	sch := mustSchema(t)

	collect := func(t *testing.T, typeName, source string, vars map[string]any) *CollectedFields {
		t.Helper()
		q := mustQuery(t, sch, source, vars)
		ectx := NewExecutionContext(context.Background(), q, NewMockResolver(nil))
		return CollectFields(ectx, sch.Types[typeName], []language.SelectionSet{q.Operation.SelectionSet})
	}

	t.Run("skip and include", func(t *testing.T) {
		got := collect(t, "Query", `query ($s: Boolean!, $i: Boolean!) {
			a: label @skip(if: $s)
			b: label @include(if: $i)
			c: label @skip(if: false) @include(if: true)
			d: label @skip(if: true) @include(if: true)
		}`, map[string]any{"s": true, "i": false})
		if diff := cmp.Diff([]string{"c"}, responseKeys(got)); diff != "" {
			t.Errorf("response keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("groups fields by response key in first-seen order", func(t *testing.T) {
		got := collect(t, "Query", `{ count label count x: label }`, nil)
		if diff := cmp.Diff([]string{"count", "label", "x"}, responseKeys(got)); diff != "" {
			t.Errorf("response keys mismatch (-want +got):\n%s", diff)
		}
		require.Len(t, got.Get("count"), 2)
		require.Nil(t, got.Get("missing"))
	})

	t.Run("fragments expand once across merged selection sets", func(t *testing.T) {
		q := mustQuery(t, sch, `
			query { token(id: "1") { ...F } token(id: "1") { ...F } }
			fragment F on Token { symbol }
		`, nil)
		ectx := NewExecutionContext(context.Background(), q, NewMockResolver(nil))
		var sets []language.SelectionSet
		for _, f := range CollectFields(ectx, sch.GetQueryType(), []language.SelectionSet{q.Operation.SelectionSet}).Get("token") {
			sets = append(sets, f.SelectionSet)
		}
		require.Len(t, sets, 2)
		got := CollectFields(ectx, sch.Types["Token"], sets)
		require.Len(t, got.Get("symbol"), 1)
	})

	t.Run("fragment cycles terminate", func(t *testing.T) {
		got := collect(t, "Query", `
			query { ...A }
			fragment A on Query { label ...B }
			fragment B on Query { count ...A }
		`, nil)
		if diff := cmp.Diff([]string{"label", "count"}, responseKeys(got)); diff != "" {
			t.Errorf("response keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("sibling branches expand the same fragment", func(t *testing.T) {
		got := collect(t, "Query", `
			query {
				... on Query { ...F }
				... on Query { ...F }
			}
			fragment F on Query { label }
		`, nil)
		require.Equal(t, []string{"label"}, responseKeys(got))
		require.Len(t, got.Get("label"), 2)
	})

	t.Run("type conditions", func(t *testing.T) {
		got := collect(t, "Token", `{
			... on Node { id }
			... on Account { name }
			... on Thing { symbol }
			... on Token { decimals }
			... on Kind { kind }
			... on Missing { tags }
			...AccountFields
		}
		fragment AccountFields on Account { owner { id } }
		`, nil)
		if diff := cmp.Diff([]string{"id", "symbol", "decimals"}, responseKeys(got)); diff != "" {
			t.Errorf("response keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown fragments are ignored", func(t *testing.T) {
		got := collect(t, "Query", `{ label ...Nowhere }`, nil)
		require.Equal(t, []string{"label"}, responseKeys(got))
	})
}

func TestCoerceArgumentValues(t *testing.T) {
	sch := mustSchema(t)

	coerce := func(t *testing.T, source string, vars map[string]any) (map[string]any, []error) {
		t.Helper()
		q := mustQuery(t, sch, source, vars)
		ectx := NewExecutionContext(context.Background(), q, NewMockResolver(nil))
		field := q.Operation.SelectionSet[0].(*language.Field)
		return CoerceArgumentValues(ectx, sch.GetQueryType(), field)
	}

	t.Run("defaults fill absent arguments", func(t *testing.T) {
		got, errs := coerce(t, `{ tokens { id } }`, nil)
		require.Empty(t, errs)
		if diff := cmp.Diff(map[string]any{"first": 100}, got); diff != "" {
			t.Errorf("arguments mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("literal and variable values", func(t *testing.T) {
		got, errs := coerce(t, `query ($k: Kind, $n: Int) {
			tokens(first: $n, skip: 5, where: {kind: $k, symbol: "ABC"}, kinds: NFT) { id }
		}`, map[string]any{"k": "NFT", "n": 10})
		require.Empty(t, errs)
		want := map[string]any{
			"first": 10,
			"skip":  5,
			"where": map[string]any{"kind": "NFT", "symbol": "ABC"},
			"kinds": []any{"NFT"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("arguments mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unbound variables fall back to defaults", func(t *testing.T) {
		got, errs := coerce(t, `query ($n: Int) { tokens(first: $n) { id } }`, nil)
		require.Empty(t, errs)
		require.Equal(t, map[string]any{"first": 100}, got)
	})

	t.Run("text arguments are keyed by field name", func(t *testing.T) {
		got, errs := coerce(t, `{ search(text: "abc") { id } }`, nil)
		require.Empty(t, errs)
		wrapped, ok := got["text"].(*value.Object)
		require.True(t, ok)
		require.True(t, wrapped.Equal(value.ObjectOf("search", "abc")))
	})

	t.Run("missing required argument", func(t *testing.T) {
		_, errs := coerce(t, `{ token { id } }`, nil)
		require.Len(t, errs, 1)
		var argErr *ArgumentError
		require.ErrorAs(t, errs[0], &argErr)
		require.Equal(t, "id", argErr.Argument)
	})

	t.Run("every invalid argument is reported", func(t *testing.T) {
		_, errs := coerce(t, `{ tokens(first: "x", skip: true, kinds: [OTHER]) { id } }`, nil)
		require.Len(t, errs, 3)
	})

	t.Run("unknown input object fields", func(t *testing.T) {
		_, errs := coerce(t, `{ tokens(where: {name: "x"}) { id } }`, nil)
		require.Len(t, errs, 1)
		require.Contains(t, errs[0].Error(), "name")
	})

	t.Run("argument errors fail the field", func(t *testing.T) {
		res := execute(t, sch, NewMockResolver(nil), `{ tokens(first: "x") { id } }`, nil)
		require.Nil(t, res.Data)
		require.Len(t, res.Errors, 1)
		require.IsType(t, &ArgumentError{}, res.Errors[0])
	})
}

func TestNewQuery(t *testing.T) {
	sch := mustSchema(t)

	t.Run("selects the named operation", func(t *testing.T) {
		doc := mustParseQuery(t, `query A { label } query B { count }`)
		q, err := NewQuery(sch, doc, "B", nil)
		require.NoError(t, err)
		require.Equal(t, "B", q.Operation.Name)

		_, err = NewQuery(sch, doc, "", nil)
		require.Error(t, err)
		_, err = NewQuery(sch, doc, "C", nil)
		require.Error(t, err)
	})

	t.Run("rejects duplicate fragments", func(t *testing.T) {
		doc := mustParseQuery(t, `{ ...F } fragment F on Query { label } fragment F on Query { count }`)
		_, err := NewQuery(sch, doc, "", nil)
		require.Error(t, err)
	})

	t.Run("coerces variables", func(t *testing.T) {
		doc := mustParseQuery(t, `query ($id: ID!, $n: Int = 3, $opt: String) { token(id: $id) { id } }`)
		q, err := NewQuery(sch, doc, "", map[string]any{"id": 7})
		require.NoError(t, err)
		if diff := cmp.Diff(map[string]any{"id": "7", "n": 3}, q.Variables); diff != "" {
			t.Errorf("variables mismatch (-want +got):\n%s", diff)
		}

		_, err = NewQuery(sch, doc, "", nil)
		require.Error(t, err)
		_, err = NewQuery(sch, doc, "", map[string]any{"id": true})
		require.Error(t, err)
	})
}
