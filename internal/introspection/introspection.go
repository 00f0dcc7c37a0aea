// Package introspection answers the __schema and __type root fields by
// wrapping another executor.Runtime. Every other field goes to the wrapped
// runtime unchanged.
//
// Values of __Type are *schema.TypeRef: named references for the schema's
// types and List or NonNull wrappers for field and argument types.
// Descriptions and deprecations are not kept by the schema package, so they
// are always null and false.
package introspection

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	executor "github.com/hanpama/usergraph/internal/executor"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// Runtime is an executor.Runtime that resolves introspection fields itself.
type Runtime struct {
	base executor.Runtime
	// served is the schema the executor runs against. original is the one
	// being described; its query type has no __schema or __type.
	served   *schema.Schema
	original *schema.Schema
}

var (
	_ executor.RequestScoper = (*Runtime)(nil)
	_ executor.LeafParser    = (*Runtime)(nil)
)

// Wrap returns a runtime answering introspection on top of base, and the
// schema to execute with it. sch itself is left untouched.
func Wrap(base executor.Runtime, sch *schema.Schema) (*Runtime, *schema.Schema) {
	served := extend(sch)
	return &Runtime{base: base, served: served, original: sch}, served
}

func (r *Runtime) BeginRequest(ctx context.Context) context.Context {
	if s, ok := r.base.(executor.RequestScoper); ok {
		return s.BeginRequest(ctx)
	}
	return ctx
}

func (r *Runtime) ParseLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if p, ok := r.base.(executor.LeafParser); ok {
		return p.ParseLeafValue(ctx, typeName, value)
	}
	return value, nil
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if strings.HasPrefix(typeName, "__") {
		return value, nil
	}
	return r.base.SerializeLeafValue(ctx, typeName, value)
}

func (r *Runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	if objectType == r.served.QueryType {
		switch field {
		case "__schema":
			return r.original, nil
		case "__type":
			name, _ := args["name"].(string)
			return r.named(name), nil
		}
	}
	if !strings.HasPrefix(objectType, "__") {
		return r.base.ResolveSync(ctx, objectType, field, source, args)
	}

	switch src := source.(type) {
	case *schema.Schema:
		return r.schemaField(field), nil
	case *schema.TypeRef:
		return r.typeField(src, field)
	case *schema.Field:
		return fieldField(src, field), nil
	case *schema.InputValue:
		return r.inputValueField(src, field), nil
	case enumValue:
		return enumValueField(src, field), nil
	case *directive:
		return directiveField(src, field), nil
	}
	return nil, fmt.Errorf("no field %s.%s on %T", objectType, field, source)
}

// enumValue is the source of an __EnumValue.
type enumValue string

// lookup finds a named type, preferring the described schema so the query
// type is listed without the introspection fields.
func (r *Runtime) lookup(name string) *schema.Type {
	if t := r.original.Types[name]; t != nil {
		return t
	}
	return r.served.Types[name]
}

// named returns a reference to the type called name, or nil when there is
// none.
func (r *Runtime) named(name string) any {
	if name == "" || r.lookup(name) == nil {
		return nil
	}
	return schema.NamedType(name)
}

func (r *Runtime) refs(names []string) []*schema.TypeRef {
	out := make([]*schema.TypeRef, 0, len(names))
	for _, name := range names {
		if r.lookup(name) != nil {
			out = append(out, schema.NamedType(name))
		}
	}
	return out
}

func (r *Runtime) schemaField(field string) any {
	switch field {
	case "types":
		return r.refs(slices.Sorted(maps.Keys(r.served.Types)))
	case "queryType":
		return r.named(r.original.QueryType)
	case "mutationType":
		return r.named(r.original.MutationType)
	case "subscriptionType":
		return r.named(r.original.SubscriptionType)
	case "directives":
		return directives
	}
	return nil
}

func (r *Runtime) typeField(ref *schema.TypeRef, field string) (any, error) {
	if ref.Kind != schema.TypeRefKindNamed {
		switch field {
		case "kind":
			return string(ref.Kind), nil
		case "ofType":
			return ref.OfType, nil
		}
		return nil, nil
	}

	t := r.lookup(ref.Named)
	if t == nil {
		return nil, fmt.Errorf("unknown type %s", ref.Named)
	}
	switch field {
	case "kind":
		return string(t.Kind), nil
	case "name":
		return t.Name, nil
	case "fields":
		if t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface {
			return nonNil(t.Fields), nil
		}
	case "interfaces":
		if t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface {
			return r.refs(t.Interfaces), nil
		}
	case "possibleTypes":
		switch t.Kind {
		case schema.TypeKindUnion:
			return r.refs(t.PossibleTypes), nil
		case schema.TypeKindInterface:
			return r.refs(r.implementations(t.Name)), nil
		}
	case "enumValues":
		if t.Kind == schema.TypeKindEnum {
			out := make([]enumValue, len(t.EnumValues))
			for i, v := range t.EnumValues {
				out[i] = enumValue(v)
			}
			return out, nil
		}
	case "inputFields":
		if t.Kind == schema.TypeKindInputObject {
			return nonNil(t.InputFields), nil
		}
	case "isOneOf":
		if t.Kind == schema.TypeKindInputObject {
			return t.OneOf, nil
		}
	}
	return nil, nil
}

// implementations lists the object types implementing iface, by name.
func (r *Runtime) implementations(iface string) []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(r.served.Types)) {
		t := r.served.Types[name]
		if t.Kind == schema.TypeKindObject && slices.Contains(t.Interfaces, iface) {
			out = append(out, name)
		}
	}
	return out
}

func fieldField(f *schema.Field, field string) any {
	switch field {
	case "name":
		return f.Name
	case "args":
		return nonNil(f.Arguments)
	case "type":
		return f.Type
	case "isDeprecated":
		return false
	}
	return nil
}

func (r *Runtime) inputValueField(v *schema.InputValue, field string) any {
	switch field {
	case "name":
		return v.Name
	case "type":
		return v.Type
	case "defaultValue":
		if v.DefaultValue == nil {
			return nil
		}
		return r.printValue(v.Type, v.DefaultValue)
	case "isDeprecated":
		return false
	}
	return nil
}

func enumValueField(v enumValue, field string) any {
	switch field {
	case "name":
		return string(v)
	case "isDeprecated":
		return false
	}
	return nil
}

func directiveField(d *directive, field string) any {
	switch field {
	case "name":
		return d.name
	case "isRepeatable":
		return false
	case "locations":
		return d.locations
	case "args":
		return d.args
	}
	return nil
}

// printValue renders a default value as a GraphQL literal of type t.
func (r *Runtime) printValue(t *schema.TypeRef, v any) string {
	if t.IsNonNull() {
		t = t.OfType
	}
	if v == nil {
		return "null"
	}
	if t.Kind == schema.TypeRefKindList {
		items, ok := v.([]any)
		if !ok {
			return r.printValue(t.OfType, v)
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = r.printValue(t.OfType, item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}

	def := r.lookup(t.GetNamedType())
	switch x := v.(type) {
	case string:
		if def != nil && def.Kind == schema.TypeKindEnum {
			return x
		}
		return strconv.Quote(x)
	case map[string]any:
		if def == nil {
			break
		}
		var parts []string
		for _, f := range def.InputFields {
			if fv, ok := x[f.Name]; ok {
				parts = append(parts, f.Name+": "+r.printValue(f.Type, fv))
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}

// nonNil keeps empty lists from completing as null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
