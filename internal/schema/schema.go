// Package schema holds the executable form of a GraphQL schema: the types,
// fields and arguments the executor needs, plus which fields resolve through
// the async batch path. Descriptions and deprecations are not kept.
package schema

import "slices"

type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	// Types holds every named type, built-in scalars included.
	Types map[string]*Type
}

func (s *Schema) GetQueryType() *Type        { return s.Types[s.QueryType] }
func (s *Schema) GetMutationType() *Type     { return s.Types[s.MutationType] }
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// builtinScalars are present in every schema.
var builtinScalars = []string{"String", "Int", "Float", "Boolean", "ID"}

type Type struct {
	Name string
	Kind TypeKind
	// Fields of an object or interface.
	Fields []*Field
	// Interfaces an object implements.
	Interfaces []string
	// PossibleTypes of a union.
	PossibleTypes []string
	EnumValues    []string
	InputFields   []*InputValue
	// OneOf marks an input object that takes exactly one field.
	OneOf bool
}

type Field struct {
	Name      string
	Type      *TypeRef
	Arguments []*InputValue
	// Async fields are resolved by Runtime.BatchResolveAsync.
	Async bool
}

type InputValue struct {
	Name         string
	Type         *TypeRef
	DefaultValue any
}

// FieldByName returns the field definition with the given name, or nil.
func (t *Type) FieldByName(name string) *Field {
	i := slices.IndexFunc(t.Fields, func(f *Field) bool { return f.Name == name })
	if i < 0 {
		return nil
	}
	return t.Fields[i]
}

// InputFieldByName returns the input field with the given name, or nil.
func (t *Type) InputFieldByName(name string) *InputValue {
	i := slices.IndexFunc(t.InputFields, func(f *InputValue) bool { return f.Name == name })
	if i < 0 {
		return nil
	}
	return t.InputFields[i]
}

func (t *Type) HasEnumValue(name string) bool { return slices.Contains(t.EnumValues, name) }

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// TypeRef is a possibly wrapped reference to a named type. OfType is set for
// List and NonNull, Named for the innermost reference.
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef
	Named  string
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

func (t *TypeRef) IsNonNull() bool { return t != nil && t.Kind == TypeRefKindNonNull }

// IsList reports whether t is a list, nullable or not.
func (t *TypeRef) IsList() bool {
	if t.IsNonNull() {
		t = t.OfType
	}
	return t != nil && t.Kind == TypeRefKindList
}

// Unwrap removes one List or NonNull layer.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNamed {
		return t
	}
	return t.OfType
}

func (t *TypeRef) GetNamedType() string {
	for ; t != nil; t = t.OfType {
		if t.Kind == TypeRefKindNamed {
			return t.Named
		}
	}
	return ""
}

// String renders t in SDL notation, e.g. [Post!]!.
func (t *TypeRef) String() string {
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	}
	return t.Named
}

func IsNonNull(t *TypeRef) bool      { return t.IsNonNull() }
func IsList(t *TypeRef) bool         { return t != nil && t.IsList() }
func Unwrap(t *TypeRef) *TypeRef     { return t.Unwrap() }
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
