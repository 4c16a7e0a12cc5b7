package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/blockql/internal/language"
	"github.com/hanpama/blockql/internal/value"
)

func TestExecuteRootSelectionSet(t *testing.T) {
	sch := mustSchema(t)

	t.Run("resolves prefetched fields", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("token", token("1", "ABC")))
		res := execute(t, sch, resolver, `{ token(id: "1") { id symbol } }`, nil)
		require.Empty(t, res.Errors)
		require.JSONEq(t, `{"token":{"id":"1","symbol":"ABC"}}`, toJSON(t, res.Data))
	})

	t.Run("prefers prefetch entries keyed by response key", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf(
			"prefetch:a", token("1", "ABC"),
			"prefetch:b", token("2", "DEF"),
		))
		res := execute(t, sch, resolver, `{ a: token(id: "1") { symbol } b: token(id: "2") { symbol } }`, nil)
		require.Empty(t, res.Errors)
		require.JSONEq(t, `{"a":{"symbol":"ABC"},"b":{"symbol":"DEF"}}`, toJSON(t, res.Data))
	})

	t.Run("aliases of one field share its value", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("count", 3))
		res := execute(t, sch, resolver, `{ a: count b: count }`, nil)
		require.Empty(t, res.Errors)
		require.Equal(t, []string{"a", "b"}, res.Data.Keys())
		require.JSONEq(t, `{"a":3,"b":3}`, toJSON(t, res.Data))
	})

	t.Run("answers __typename", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("token", token("1", "ABC")))
		res := execute(t, sch, resolver, `{ __typename token(id: "1") { __typename } }`, nil)
		require.Empty(t, res.Errors)
		require.JSONEq(t, `{"__typename":"Query","token":{"__typename":"Token"}}`, toJSON(t, res.Data))
	})

	t.Run("completes scalar and enum lists", func(t *testing.T) {
		tok := token("1", "ABC")
		tok.Set("tags", []string{"a", "b"})
		tok.Set("kinds", []any{"NFT", value.Enum("FUNGIBLE")})
		resolver := NewMockResolver(value.ObjectOf("token", tok))
		res := execute(t, sch, resolver, `{ token(id: "1") { tags kinds } }`, nil)
		require.Empty(t, res.Errors)
		require.JSONEq(t, `{"token":{"tags":["a","b"],"kinds":["NFT","FUNGIBLE"]}}`, toJSON(t, res.Data))
	})

	t.Run("null for a nullable field", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("label", nil))
		res := execute(t, sch, resolver, `{ label }`, nil)
		require.Empty(t, res.Errors)
		require.JSONEq(t, `{"label":null}`, toJSON(t, res.Data))
	})

	t.Run("null for a non-null field fails only that field", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("label", "x", "count", nil))
		res := execute(t, sch, resolver, `{ label count }`, nil)
		require.Nil(t, res.Data)
		require.Len(t, res.Errors, 1)
		var nonNull *NonNullError
		require.ErrorAs(t, res.Errors[0], &nonNull)
		require.Equal(t, "count", nonNull.Field)
		require.Equal(t, "Null value resolved for non-null field `count`", nonNull.Error())
		require.NotNil(t, nonNull.Location())
	})

	t.Run("unknown field", func(t *testing.T) {
		resolver := NewMockResolver(value.NewObject())
		res := execute(t, sch, resolver, `{ label nope }`, nil)
		require.Len(t, res.Errors, 1)
		require.Equal(t, "Type `Query` has no field `nope`", res.Errors[0].Error())
	})

	t.Run("skipped fields are neither executed nor checked", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("label", "x"))
		res := execute(t, sch, resolver, `{ label nope @skip(if: true) other: nope @include(if: false) }`, nil)
		require.Empty(t, res.Errors)
		require.JSONEq(t, `{"label":"x"}`, toJSON(t, res.Data))
	})

	t.Run("non-list value for a list field", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("tokens", "nope"))
		res := execute(t, sch, resolver, `{ tokens { id } }`, nil)
		require.Len(t, res.Errors, 1)
		var listErr *ListValueError
		require.ErrorAs(t, res.Errors[0], &listErr)
		require.Equal(t, "tokens", listErr.Field)
	})

	t.Run("scalar coercion failure", func(t *testing.T) {
		tok := token("1", "ABC")
		tok.Set("decimals", "eighteen")
		resolver := NewMockResolver(value.ObjectOf("token", tok))
		res := execute(t, sch, resolver, `{ token(id: "1") { decimals } }`, nil)
		require.Len(t, res.Errors, 1)
		var scalarErr *ScalarCoercionError
		require.ErrorAs(t, res.Errors[0], &scalarErr)
		require.Equal(t, "Int", scalarErr.Type)
	})

	t.Run("enum coercion failure lists the legal values", func(t *testing.T) {
		tok := token("1", "ABC")
		tok.Set("kind", "OTHER")
		resolver := NewMockResolver(value.ObjectOf("token", tok))
		res := execute(t, sch, resolver, `{ token(id: "1") { kind } }`, nil)
		require.Len(t, res.Errors, 1)
		var enumErr *EnumCoercionError
		require.ErrorAs(t, res.Errors[0], &enumErr)
		if diff := cmp.Diff([]string{"FUNGIBLE", "NFT"}, enumErr.Values); diff != "" {
			t.Errorf("enum values mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("interface values resolve by concrete type", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("node", account("a", "alice")))
		res := execute(t, sch, resolver, `{
			node(id: "a") {
				id
				... on Account { name }
				... on Token { symbol }
			}
		}`, nil)
		require.Empty(t, res.Errors)
		require.JSONEq(t, `{"node":{"id":"a","name":"alice"}}`, toJSON(t, res.Data))
	})

	t.Run("interface value without a known type", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("node", value.ObjectOf("id", "a")))
		res := execute(t, sch, resolver, `{ node(id: "a") { id } }`, nil)
		require.Len(t, res.Errors, 1)
		var abstractErr *AbstractTypeError
		require.ErrorAs(t, res.Errors[0], &abstractErr)
		require.Equal(t, "Node", abstractErr.Name)
	})

	t.Run("interface value of a type outside the interface", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("node", value.ObjectOf("__typename", "Query")))
		res := execute(t, sch, resolver, `{ node(id: "a") { id } }`, nil)
		require.Len(t, res.Errors, 1)
		require.IsType(t, &AbstractTypeError{}, res.Errors[0])
	})

	t.Run("unions are not implemented", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("thing", token("1", "ABC")))
		res := execute(t, sch, resolver, `{ thing { __typename } }`, nil)
		require.Len(t, res.Errors, 1)
		require.Equal(t, "Feature `unions` is not implemented", res.Errors[0].Error())
	})

	t.Run("nested lists are not implemented", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("matrix", []any{[]any{1}}))
		res := execute(t, sch, resolver, `{ matrix }`, nil)
		require.Len(t, res.Errors, 1)
		require.IsType(t, &UnimplementedError{}, res.Errors[0])
	})

	t.Run("object with nothing selected", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("token", token("1", "ABC")))
		res := execute(t, sch, resolver, `{ token(id: "1") { id @skip(if: true) } }`, nil)
		require.Len(t, res.Errors, 1)
		if diff := cmp.Diff(error(&EmptySelectionSetError{Type: "Token"}), res.Errors[0]); diff != "" {
			t.Errorf("error mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("resolver errors carry the field", func(t *testing.T) {
		boom := errors.New("boom")
		resolver := NewMockResolver(value.ObjectOf("label", "x"))
		resolver.SetField("label", func(ctx context.Context, fieldValue any, args map[string]any) (any, error) {
			return nil, boom
		})
		res := execute(t, sch, resolver, `{ label }`, nil)
		require.Len(t, res.Errors, 1)
		require.ErrorIs(t, res.Errors[0], boom)
		var resolverErr *ResolverError
		require.ErrorAs(t, res.Errors[0], &resolverErr)
		require.Equal(t, "label", resolverErr.Field)
	})

	t.Run("prefetch failure", func(t *testing.T) {
		boom := errors.New("store unavailable")
		resolver := NewMockResolver(nil)
		resolver.PrefetchErr = Errors{boom, errors.New("second")}
		res := execute(t, sch, resolver, `{ label }`, nil)
		require.Len(t, res.Errors, 2)
		require.ErrorIs(t, res.Errors[0], boom)
	})

	t.Run("deadline stops execution", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("label", "x", "count", 1))
		q := mustQuery(t, sch, `{ label count }`, nil)
		ectx := NewExecutionContext(context.Background(), q, resolver)
		ectx.Deadline = time.Now().Add(-time.Second)
		res := ExecuteRootSelectionSetUncached(ectx, q.Operation.SelectionSet, sch.GetQueryType())
		if diff := cmp.Diff([]error{ErrTimeout}, res.Errors, cmp.Comparer(func(a, b error) bool { return errors.Is(a, b) })); diff != "" {
			t.Errorf("errors mismatch (-want +got):\n%s", diff)
		}
		for _, c := range resolver.GetCalls() {
			require.Equal(t, CallKindPrefetch, c.Kind)
		}
	})

	t.Run("cancelled context does not stop execution", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("label", "x"))
		q := mustQuery(t, sch, `{ label }`, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ectx := NewExecutionContext(ctx, q, resolver)
		require.NoError(t, ectx.Context().Err())
		res := ExecuteRootSelectionSetUncached(ectx, q.Operation.SelectionSet, sch.GetQueryType())
		require.Empty(t, res.Errors)
		require.JSONEq(t, `{"label":"x"}`, toJSON(t, res.Data))
	})

	t.Run("marks the context as executed", func(t *testing.T) {
		resolver := NewMockResolver(value.ObjectOf("label", "x"))
		q := mustQuery(t, sch, `{ label }`, nil)
		ectx := NewExecutionContext(context.Background(), q, resolver)
		require.True(t, ectx.Cached())
		ExecuteRootSelectionSetUncached(ectx, q.Operation.SelectionSet, sch.GetQueryType())
		require.False(t, ectx.Cached())
	})
}

func TestExecuteSelectionSetConsumesPrefetched(t *testing.T) {
	sch := mustSchema(t)
	q := mustQuery(t, sch, `{ a: symbol b: symbol id }`, nil)
	ectx := NewExecutionContext(context.Background(), q, NewMockResolver(nil))

	source := token("1", "ABC")
	source.Set("decimals", 18)
	got, errs := ExecuteSelectionSet(ectx, []language.SelectionSet{q.Operation.SelectionSet}, sch.Types["Token"], source)
	require.Empty(t, errs)
	require.JSONEq(t, `{"a":"ABC","b":"ABC","id":"1"}`, toJSON(t, got))

	// Shared names stay, single-use names are consumed.
	require.Equal(t, []string{"__typename", "symbol", "decimals"}, source.Keys())
}
