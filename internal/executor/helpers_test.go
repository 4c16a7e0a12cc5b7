package executor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

const tokenSDL = `
interface Node { id: ID! }

type Account implements Node {
  id: ID!
  name: String
}

type Token implements Node {
  id: ID!
  symbol: String!
  decimals: Int
  kind: Kind
  kinds: [Kind!]
  owner: Account
  tags: [String!]
}

enum Kind { FUNGIBLE NFT }

union Thing = Token | Account

input TokenFilter {
  symbol: String
  kind: Kind
}

type Query {
  token(id: ID!): Token
  tokens(first: Int = 100, skip: Int, where: TokenFilter, kinds: [Kind!]): [Token!]!
  node(id: ID!): Node
  nodes: [Node!]!
  thing: Thing
  search(text: String!): [Token!]!
  count: Int!
  label: String
  matrix: [[Int]]
}
`

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL("tokens", tokenSDL)
	require.NoError(t, err)
	return sch
}

func mustParseQuery(t *testing.T, source string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(source)
	require.NoError(t, err)
	return doc
}

func mustQuery(t *testing.T, sch *schema.Schema, source string, vars map[string]any) *Query {
	t.Helper()
	q, err := NewQuery(sch, mustParseQuery(t, source), "", vars)
	require.NoError(t, err)
	return q
}

func execute(t *testing.T, sch *schema.Schema, resolver Resolver, source string, vars map[string]any) *ExecutionResult {
	t.Helper()
	q := mustQuery(t, sch, source, vars)
	ectx := NewExecutionContext(context.Background(), q, resolver)
	return ExecuteRootSelectionSetUncached(ectx, q.Operation.SelectionSet, sch.GetQueryType())
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func token(id, symbol string) *value.Object {
	return value.ObjectOf("__typename", "Token", "id", id, "symbol", symbol)
}

func account(id, name string) *value.Object {
	return value.ObjectOf("__typename", "Account", "id", id, "name", name)
}
