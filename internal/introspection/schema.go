package introspection

import (
	"maps"
	"slices"
	"strings"

	schema "github.com/hanpama/usergraph/internal/schema"
)

const metaSDL = `
type __Schema {
  description: String
  types: [__Type!]!
  queryType: __Type!
  mutationType: __Type
  subscriptionType: __Type
  directives: [__Directive!]!
}

type __Type {
  kind: __TypeKind!
  name: String
  description: String
  specifiedByURL: String
  fields(includeDeprecated: Boolean = false): [__Field!]
  interfaces: [__Type!]
  possibleTypes: [__Type!]
  enumValues(includeDeprecated: Boolean = false): [__EnumValue!]
  inputFields(includeDeprecated: Boolean = false): [__InputValue!]
  ofType: __Type
  isOneOf: Boolean
}

type __Field {
  name: String!
  description: String
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  type: __Type!
  isDeprecated: Boolean!
  deprecationReason: String
}

type __InputValue {
  name: String!
  description: String
  type: __Type!
  defaultValue: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __EnumValue {
  name: String!
  description: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __Directive {
  name: String!
  description: String
  isRepeatable: Boolean!
  locations: [__DirectiveLocation!]!
  args(includeDeprecated: Boolean = false): [__InputValue!]!
}

enum __TypeKind { SCALAR OBJECT INTERFACE UNION ENUM INPUT_OBJECT LIST NON_NULL }

enum __DirectiveLocation {
  QUERY MUTATION SUBSCRIPTION FIELD FRAGMENT_DEFINITION FRAGMENT_SPREAD INLINE_FRAGMENT
  VARIABLE_DEFINITION SCHEMA SCALAR OBJECT FIELD_DEFINITION ARGUMENT_DEFINITION INTERFACE
  UNION ENUM ENUM_VALUE INPUT_OBJECT INPUT_FIELD_DEFINITION
}

type Query {
  __schema: __Schema!
  __type(name: String!): __Type
}
`

var meta = func() *schema.Schema {
	s, err := schema.BuildFromSDL(metaSDL)
	if err != nil {
		panic("introspection: " + err.Error())
	}
	return s
}()

// directive describes one of the directives the executor understands.
type directive struct {
	name      string
	locations []string
	args      []*schema.InputValue
}

var directives = []*directive{
	{
		name:      "include",
		locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		args:      []*schema.InputValue{{Name: "if", Type: schema.NonNullType(schema.NamedType("Boolean"))}},
	},
	{
		name:      "skip",
		locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		args:      []*schema.InputValue{{Name: "if", Type: schema.NonNullType(schema.NamedType("Boolean"))}},
	},
}

// extend returns a copy of sch with the meta types added and __schema and
// __type appended to a copy of its query type. sch is not modified.
func extend(sch *schema.Schema) *schema.Schema {
	out := &schema.Schema{
		QueryType:        sch.QueryType,
		MutationType:     sch.MutationType,
		SubscriptionType: sch.SubscriptionType,
		Types:            maps.Clone(sch.Types),
	}
	for name, t := range meta.Types {
		if strings.HasPrefix(name, "__") {
			out.Types[name] = t
		}
	}
	if q := sch.GetQueryType(); q != nil {
		cp := *q
		cp.Fields = append(slices.Clone(q.Fields), meta.GetQueryType().Fields...)
		out.Types[cp.Name] = &cp
	}
	return out
}
