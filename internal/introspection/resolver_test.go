package introspection

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/blockql/internal/executor"
	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

const testSDL = `
"Anything with an id"
interface Node { id: ID! }

type Token implements Node {
  id: ID!
  symbol: String!
  name: String @deprecated(reason: "use symbol")
  holders: [Account!]!
}

type Account implements Node {
  id: ID!
}

enum OrderDirection { asc desc }

input TokenFilter {
  symbol: String
  symbol_in: [String!]
}

type Query {
  label: String
  tokens(first: Int = 100, orderDirection: OrderDirection = asc, where: TokenFilter): [Token!]!
}
`

func run(t *testing.T, query string) map[string]any {
	t.Helper()
	sch, err := schema.BuildFromSDL("tokens", testSDL)
	require.NoError(t, err)
	e := executor.NewExecutor(sch, executor.WithIntrospection(New(sch)))
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)

	data := executor.NewMockResolver(value.ObjectOf("label", "hello"))
	out := e.ExecuteRequest(context.Background(), data, doc, "", nil, nil)
	res := out.Result.Value()
	require.Empty(t, res.Errors)

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestSchemaIntrospection(t *testing.T) {
	t.Run("root types", func(t *testing.T) {
		got := run(t, `{ __schema { queryType { name kind } mutationType { name } subscriptionType { name } } }`)
		require.JSONEq(t, `{"__schema":{
			"queryType":{"name":"Query","kind":"OBJECT"},
			"mutationType":null,
			"subscriptionType":null
		}}`, jsonOf(t, got))
	})

	t.Run("types include builtins and meta types", func(t *testing.T) {
		got := run(t, `{ __schema { types { name } } }`)
		var names []string
		for _, ty := range got["__schema"].(map[string]any)["types"].([]any) {
			names = append(names, ty.(map[string]any)["name"].(string))
		}
		for _, want := range []string{"Account", "Boolean", "ID", "Node", "Query", "String", "Token", "__Schema", "__Type", "__TypeKind"} {
			require.Contains(t, names, want)
		}
		require.IsIncreasing(t, names)
	})

	t.Run("directives", func(t *testing.T) {
		got := run(t, `{ __schema { directives { name args { name type { kind ofType { name } } } } } }`)
		directives := got["__schema"].(map[string]any)["directives"].([]any)
		byName := map[string]any{}
		for _, d := range directives {
			byName[d.(map[string]any)["name"].(string)] = d
		}
		require.JSONEq(t, `{"name":"skip","args":[{"name":"if","type":{"kind":"NON_NULL","ofType":{"name":"Boolean"}}}]}`, jsonOf(t, byName["skip"]))
		require.Contains(t, byName, "include")
		require.JSONEq(t, `{"name":"deprecated","args":[{"name":"reason","type":{"kind":"SCALAR","ofType":null}}]}`, jsonOf(t, byName["deprecated"]))
	})
}

func TestTypeIntrospection(t *testing.T) {
	t.Run("object fields and wrapped types", func(t *testing.T) {
		got := run(t, `{
			__type(name: "Token") {
				kind name
				interfaces { name }
				possibleTypes { name }
				fields { name type { kind name ofType { kind name ofType { kind ofType { name } } } } }
			}
		}`)
		require.JSONEq(t, `{"__type":{
			"kind":"OBJECT","name":"Token",
			"interfaces":[{"name":"Node"}],
			"possibleTypes":null,
			"fields":[
				{"name":"id","type":{"kind":"NON_NULL","name":null,"ofType":{"kind":"SCALAR","name":"ID","ofType":null}}},
				{"name":"symbol","type":{"kind":"NON_NULL","name":null,"ofType":{"kind":"SCALAR","name":"String","ofType":null}}},
				{"name":"holders","type":{"kind":"NON_NULL","name":null,"ofType":{"kind":"LIST","name":null,"ofType":{"kind":"NON_NULL","ofType":{"name":"Account"}}}}}
			]
		}}`, jsonOf(t, got))
	})

	t.Run("deprecated fields on request", func(t *testing.T) {
		got := run(t, `{
			__type(name: "Token") {
				fields(includeDeprecated: true) { name isDeprecated deprecationReason }
			}
		}`)
		require.JSONEq(t, `{"__type":{"fields":[
			{"name":"id","isDeprecated":false,"deprecationReason":null},
			{"name":"symbol","isDeprecated":false,"deprecationReason":null},
			{"name":"name","isDeprecated":true,"deprecationReason":"use symbol"},
			{"name":"holders","isDeprecated":false,"deprecationReason":null}
		]}}`, jsonOf(t, got))
	})

	t.Run("interfaces list their implementations", func(t *testing.T) {
		got := run(t, `{ __type(name: "Node") { kind description possibleTypes { name } fields { name } } }`)
		require.JSONEq(t, `{"__type":{
			"kind":"INTERFACE",
			"description":"Anything with an id",
			"possibleTypes":[{"name":"Account"},{"name":"Token"}],
			"fields":[{"name":"id"}]
		}}`, jsonOf(t, got))
	})

	t.Run("enum values", func(t *testing.T) {
		got := run(t, `{ __type(name: "OrderDirection") { kind enumValues { name } fields { name } } }`)
		require.JSONEq(t, `{"__type":{"kind":"ENUM","enumValues":[{"name":"asc"},{"name":"desc"}],"fields":null}}`, jsonOf(t, got))
	})

	t.Run("arguments and default values", func(t *testing.T) {
		got := run(t, `{ __type(name: "Query") { fields { name args { name defaultValue } } } }`)
		require.JSONEq(t, `{"__type":{"fields":[
			{"name":"label","args":[]},
			{"name":"tokens","args":[
				{"name":"first","defaultValue":"100"},
				{"name":"orderDirection","defaultValue":"asc"},
				{"name":"where","defaultValue":null}
			]}
		]}}`, jsonOf(t, got))
	})

	t.Run("input objects", func(t *testing.T) {
		got := run(t, `{ __type(name: "TokenFilter") { kind isOneOf inputFields { name type { kind } } } }`)
		require.JSONEq(t, `{"__type":{"kind":"INPUT_OBJECT","isOneOf":false,"inputFields":[
			{"name":"symbol","type":{"kind":"SCALAR"}},
			{"name":"symbol_in","type":{"kind":"LIST"}}
		]}}`, jsonOf(t, got))
	})

	t.Run("meta types", func(t *testing.T) {
		got := run(t, `{ __type(name: "__TypeKind") { kind enumValues { name } } }`)
		kinds := got["__type"].(map[string]any)["enumValues"].([]any)
		require.Len(t, kinds, 8)
	})

	t.Run("unknown type", func(t *testing.T) {
		got := run(t, `{ __type(name: "Nope") { name } }`)
		require.JSONEq(t, `{"__type":null}`, jsonOf(t, got))
	})

	t.Run("alongside data fields", func(t *testing.T) {
		got := run(t, `{ label __typename __type(name: "Account") { name } }`)
		require.JSONEq(t, `{"label":"hello","__typename":"Query","__type":{"name":"Account"}}`, jsonOf(t, got))
	})
}
