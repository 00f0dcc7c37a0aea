package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testSDL = `
directive @async on FIELD_DEFINITION

scalar UUID

enum Tier { LOW HIGH @deprecated(reason: "use LOW") }

input NewThing {
  name: String!
  tier: Tier = LOW
}

type Thing {
  id: UUID!
  name: String
  owner: Thing @async
  children(first: Int = 10): [Thing!]! @async
}

type Query {
  things: [Thing] @async
}

type Mutation {
  createThing(input: NewThing!): Thing @async
}
`

func TestBuildFromSDL(t *testing.T) {
	s, err := BuildFromSDL(testSDL)
	require.NoError(t, err)

	require.Equal(t, "Query", s.QueryType)
	require.Equal(t, "Mutation", s.MutationType)
	require.Empty(t, s.SubscriptionType)
	require.Equal(t, TypeKindScalar, s.Types["ID"].Kind)

	thing := s.Types["Thing"]
	require.NotNil(t, thing)

	var got []string
	for _, f := range thing.Fields {
		if f.Async {
			got = append(got, f.Name)
		}
	}
	if diff := cmp.Diff([]string{"owner", "children"}, got); diff != "" {
		t.Fatalf("async fields mismatch (-want +got):\n%s", diff)
	}

	children := thing.FieldByName("children")
	require.NotNil(t, children)
	require.True(t, IsNonNull(children.Type))
	require.True(t, IsList(children.Type))
	require.Equal(t, "Thing", GetNamedType(children.Type))
	require.Len(t, children.Arguments, 1)
	require.EqualValues(t, 10, children.Arguments[0].DefaultValue)

	tier := s.Types["Tier"]
	require.Equal(t, TypeKindEnum, tier.Kind)
	require.True(t, tier.HasEnumValue("HIGH"))
	require.Equal(t, []string{"LOW", "HIGH"}, tier.EnumValues)
	require.Equal(t, "[Thing!]!", children.Type.String())

	input := s.Types["NewThing"]
	require.Equal(t, TypeKindInputObject, input.Kind)
	require.Equal(t, "LOW", input.InputFieldByName("tier").DefaultValue)
}

func TestBuildFromSDLSchemaDefinition(t *testing.T) {
	s, err := BuildFromSDL(`
schema { query: RootQueryType }
type RootQueryType { ok: Boolean }
`)
	require.NoError(t, err)
	require.Equal(t, "RootQueryType", s.QueryType)
	require.NotNil(t, s.GetQueryType())
}

func TestBuildFromSDLErrors(t *testing.T) {
	cases := map[string]string{
		"missing query":  `type Foo { a: String }`,
		"unknown type":   `type Query { a: Missing }`,
		"duplicate type": `type Query { a: String } type Query { b: String }`,
		"syntax":         `type Query {`,
	}
	for name, sdl := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BuildFromSDL(sdl)
			require.Error(t, err)
		})
	}
}
