package schema

import (
	"fmt"

	language "github.com/hanpama/usergraph/internal/language"
)

// AsyncDirective marks a field definition as resolved by the async batch path.
// It is consumed by the builder and never appears in the built schema.
const AsyncDirective = "async"

// BuildFromSDL parses SDL and returns the corresponding executable Schema.
//
// Root operation types come from the schema definition when present and
// otherwise default to Query, Mutation and Subscription. Fields annotated with
// @async are marked Async; all other fields are resolved synchronously.
func BuildFromSDL(sdl string) (*Schema, error) {
	doc, err := language.ParseSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}

	s := &Schema{Types: map[string]*Type{}}
	for _, name := range builtinScalars {
		s.Types[name] = &Type{Name: name, Kind: TypeKindScalar}
	}

	for _, def := range doc.Definitions {
		if _, exists := s.Types[def.Name]; exists {
			return nil, fmt.Errorf("type %s defined more than once", def.Name)
		}
		t, err := buildDefinition(def)
		if err != nil {
			return nil, err
		}
		s.Types[t.Name] = t
	}
	for _, ext := range doc.Extensions {
		t := s.Types[ext.Name]
		if t == nil {
			return nil, fmt.Errorf("cannot extend undefined type %s", ext.Name)
		}
		extended, err := buildDefinition(ext)
		if err != nil {
			return nil, err
		}
		t.Fields = append(t.Fields, extended.Fields...)
		t.InputFields = append(t.InputFields, extended.InputFields...)
		t.EnumValues = append(t.EnumValues, extended.EnumValues...)
	}
	for _, sd := range doc.Schema {
		for _, op := range sd.OperationTypes {
			switch op.Operation {
			case language.Query:
				s.QueryType = op.Type
			case language.Mutation:
				s.MutationType = op.Type
			case language.Subscription:
				s.SubscriptionType = op.Type
			}
		}
	}
	if s.QueryType == "" {
		s.QueryType = "Query"
	}
	if s.MutationType == "" && s.Types["Mutation"] != nil {
		s.MutationType = "Mutation"
	}
	if s.SubscriptionType == "" && s.Types["Subscription"] != nil {
		s.SubscriptionType = "Subscription"
	}
	if s.GetQueryType() == nil {
		return nil, fmt.Errorf("query root type %s is not defined", s.QueryType)
	}
	if err := s.checkReferences(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildDefinition(def *language.Definition) (*Type, error) {
	t := &Type{Name: def.Name}
	switch def.Kind {
	case language.Object, language.Interface:
		t.Kind = TypeKindObject
		if def.Kind == language.Interface {
			t.Kind = TypeKindInterface
		}
		t.Interfaces = append(t.Interfaces, def.Interfaces...)
		for _, fd := range def.Fields {
			t.Fields = append(t.Fields, buildField(fd))
		}
	case language.Union:
		t.Kind = TypeKindUnion
		t.PossibleTypes = append(t.PossibleTypes, def.Types...)
	case language.Enum:
		t.Kind = TypeKindEnum
		for _, ev := range def.EnumValues {
			t.EnumValues = append(t.EnumValues, ev.Name)
		}
	case language.InputObject:
		t.Kind = TypeKindInputObject
		t.OneOf = def.Directives.ForName("oneOf") != nil
		for _, fd := range def.Fields {
			iv := &InputValue{Name: fd.Name, Type: typeRefFromAST(fd.Type)}
			if fd.DefaultValue != nil {
				v, err := fd.DefaultValue.Value(nil)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: invalid default value: %w", def.Name, fd.Name, err)
				}
				iv.DefaultValue = v
			}
			t.InputFields = append(t.InputFields, iv)
		}
	case language.Scalar:
		t.Kind = TypeKindScalar
	default:
		return nil, fmt.Errorf("unsupported definition kind %s for %s", def.Kind, def.Name)
	}
	return t, nil
}

func buildField(fd *language.FieldDefinition) *Field {
	f := &Field{
		Name:  fd.Name,
		Type:  typeRefFromAST(fd.Type),
		Async: fd.Directives.ForName(AsyncDirective) != nil,
	}
	for _, arg := range fd.Arguments {
		f.Arguments = append(f.Arguments, buildArgument(arg))
	}
	return f
}

func buildArgument(arg *language.ArgumentDefinition) *InputValue {
	iv := &InputValue{Name: arg.Name, Type: typeRefFromAST(arg.Type)}
	if arg.DefaultValue != nil {
		if v, err := arg.DefaultValue.Value(nil); err == nil {
			iv.DefaultValue = v
		}
	}
	return iv
}

func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var inner *TypeRef
	if t.Elem != nil {
		inner = ListType(typeRefFromAST(t.Elem))
	} else {
		inner = NamedType(t.NamedType)
	}
	if t.NonNull {
		return NonNullType(inner)
	}
	return inner
}

// checkReferences reports the first field, argument or input field whose
// named type is not part of the schema.
func (s *Schema) checkReferences() error {
	for _, t := range s.Types {
		for _, f := range t.Fields {
			if s.Types[f.Type.GetNamedType()] == nil {
				return fmt.Errorf("%s.%s: unknown type %s", t.Name, f.Name, f.Type.GetNamedType())
			}
			for _, a := range f.Arguments {
				if s.Types[a.Type.GetNamedType()] == nil {
					return fmt.Errorf("%s.%s(%s): unknown type %s", t.Name, f.Name, a.Name, a.Type.GetNamedType())
				}
			}
		}
		for _, iv := range t.InputFields {
			if s.Types[iv.Type.GetNamedType()] == nil {
				return fmt.Errorf("%s.%s: unknown type %s", t.Name, iv.Name, iv.Type.GetNamedType())
			}
		}
	}
	return nil
}
