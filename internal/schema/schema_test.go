package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const tokenSDL = `
schema { query: Query }

interface Node { id: ID! }

type Token implements Node {
  id: ID!
  symbol: String!
  decimals: Int @deprecated(reason: "use precision")
  owner: Account
  kind: TokenKind!
}

type Account implements Node {
  id: ID!
  tokens(first: Int = 100, orderDirection: OrderDirection = asc): [Token!]!
}

enum TokenKind { FUNGIBLE LEGACY @deprecated }
enum OrderDirection { asc desc }

union SearchResult = Token | Account

input TokenFilter {
  symbol: String
  kind_in: [TokenKind!]
}

type Query {
  token(id: ID!): Token
  tokens(first: Int = 100, skip: Int = 0, where: TokenFilter): [Token!]!
  node(id: ID!): Node
  search(text: String!): [SearchResult!]!
}

extend type Token { totalSupply: BigInt }
scalar BigInt
`

func TestBuildFromSDL(t *testing.T) {
	s, err := BuildFromSDL("QmToken", tokenSDL)
	require.NoError(t, err)

	t.Run("identity and roots", func(t *testing.T) {
		require.Equal(t, "QmToken", s.ID)
		require.Equal(t, "Query", s.GetQueryType().Name)
		require.Nil(t, s.GetMutationType())
	})

	t.Run("fields keep declaration order and extensions append", func(t *testing.T) {
		var names []string
		for _, f := range s.Types["Token"].Fields {
			names = append(names, f.Name)
		}
		want := []string{"id", "symbol", "decimals", "owner", "kind", "totalSupply"}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Fatalf("fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("deprecation", func(t *testing.T) {
		f := s.Types["Token"].Field("decimals")
		require.True(t, f.IsDeprecated)
		require.Equal(t, "use precision", f.DeprecationReason)
		legacy := s.Types["TokenKind"].EnumValues[1]
		require.True(t, legacy.IsDeprecated)
		require.Equal(t, "No longer supported", legacy.DeprecationReason)
	})

	t.Run("argument defaults", func(t *testing.T) {
		first := s.GetQueryType().Field("tokens").Argument("first")
		require.True(t, first.HasDefault)
		require.Equal(t, 100, first.DefaultValue)
		where := s.GetQueryType().Field("tokens").Argument("where")
		require.False(t, where.HasDefault)
		require.Equal(t, "TokenFilter", where.Type.String())
	})

	t.Run("possible types", func(t *testing.T) {
		require.Equal(t, []string{"Account", "Token"}, s.Types["Node"].PossibleTypes)
		require.Equal(t, []string{"Token", "Account"}, s.Types["SearchResult"].PossibleTypes)
		require.True(t, s.IsPossibleType(s.Types["Node"], s.Types["Token"]))
		require.True(t, s.IsPossibleType(s.Types["SearchResult"], s.Types["Account"]))
		require.False(t, s.IsPossibleType(s.Types["Node"], s.Types["TokenKind"]))
	})

	t.Run("builtins", func(t *testing.T) {
		for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
			require.NotNil(t, s.Types[name], name)
		}
		for _, name := range []string{"skip", "include", "deprecated"} {
			require.NotNil(t, s.Directives[name], name)
		}
		require.Equal(t, "String", s.Directives["deprecated"].Arguments[0].Type.GetNamedType())
	})
}

func TestBuildFromSDLErrors(t *testing.T) {
	t.Run("parse error", func(t *testing.T) {
		_, err := BuildFromSDL("bad", "type {")
		require.Error(t, err)
		require.Contains(t, err.Error(), "parse schema bad")
	})
	t.Run("no query type", func(t *testing.T) {
		_, err := BuildFromSDL("noquery", "type Foo { a: Int }")
		require.Error(t, err)
		require.Contains(t, err.Error(), "has no query type")
	})
	t.Run("duplicate field", func(t *testing.T) {
		_, err := BuildFromSDL("dup", "type Query { a: Int }\nextend type Query { a: Int }")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Query.a is defined more than once")
	})
	t.Run("extension of unknown type", func(t *testing.T) {
		_, err := BuildFromSDL("ext", "type Query { a: Int }\nextend type Nope { a: Int }")
		require.Error(t, err)
	})
}

func TestTypeRefString(t *testing.T) {
	ref := NonNullType(ListType(NonNullType(NamedType("Int"))))
	require.Equal(t, "[Int!]!", ref.String())
	require.Equal(t, "Int", ref.GetNamedType())
	require.True(t, ref.IsList())
}

func TestRenderRoundTrip(t *testing.T) {
	s, err := BuildFromSDL("QmToken", tokenSDL)
	require.NoError(t, err)

	rendered := Render(s)
	require.Contains(t, rendered, "type Token implements Node {")
	require.Contains(t, rendered, `decimals: Int @deprecated(reason: "use precision")`)
	require.Contains(t, rendered, "tokens(first: Int = 100, orderDirection: OrderDirection = asc): [Token!]!")
	require.Contains(t, rendered, "union SearchResult = Token | Account")
	require.NotContains(t, rendered, "scalar String")
	require.NotContains(t, rendered, "directive @")

	again, err := BuildFromSDL("QmToken", rendered)
	require.NoError(t, err)
	if diff := cmp.Diff(rendered, Render(again)); diff != "" {
		t.Fatalf("render is not stable (-want +got):\n%s", diff)
	}
}
