package executor

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// inputCoercer coerces variable and argument values to their declared input
// types. Custom scalars go through the runtime when it implements LeafParser
// and pass through unchanged otherwise.
type inputCoercer struct {
	ctx    context.Context
	schema *schema.Schema
	parser LeafParser
}

func newInputCoercer(ctx context.Context, sch *schema.Schema, rt Runtime) *inputCoercer {
	c := &inputCoercer{ctx: ctx, schema: sch}
	c.parser, _ = rt.(LeafParser)
	return c
}

// lookupVariable finds name in vars with or without its leading $.
func lookupVariable(vars map[string]any, name string) (any, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	v, ok := vars[strings.TrimPrefix(name, "$")]
	return v, ok
}

// coerceVariableValues returns the operation's variables coerced to their
// declared types. Any failure rejects the whole operation.
func (c *inputCoercer) coerceVariableValues(op *language.OperationDefinition, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		name, typ := def.Variable, def.Type
		val, ok := lookupVariable(raw, name)
		switch {
		case ok:
		case def.DefaultValue != nil:
			val = valueFromAST(def.DefaultValue, nil)
		case typ.NonNull:
			return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, typ)
		default:
			continue
		}
		if val == nil && typ.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, typ)
		}
		cv, err := c.coerceValue(val, typeRefFromAST(typ))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, typ, err)
		}
		out[name] = cv
	}
	return out, nil
}

// coerceArgumentValues coerces the arguments of one field. Failures are
// recorded at path and reported through ok; the field must then not run.
func (c *inputCoercer) coerceArgumentValues(
	def *schema.Field,
	args language.ArgumentList,
	vars map[string]any,
	state *executionState,
	path Path,
) (out map[string]any, ok bool) {
	out = make(map[string]any, len(def.Arguments))
	ok = true
	fail := func(format string, a ...any) {
		state.addError(fmt.Sprintf(format, a...), path)
		ok = false
	}

	for _, argDef := range def.Arguments {
		var (
			val any
			err error
		)
		if arg := args.ForName(argDef.Name); arg != nil {
			if val, err = c.coerceValue(valueFromAST(arg.Value, vars), argDef.Type); err != nil {
				fail("argument '%s' cannot be coerced: %v", argDef.Name, err)
				continue
			}
		} else if argDef.DefaultValue != nil {
			if val, err = c.coerceValue(argDef.DefaultValue, argDef.Type); err != nil {
				fail("argument '%s' has an invalid default: %v", argDef.Name, err)
				continue
			}
		} else {
			if schema.IsNonNull(argDef.Type) {
				fail("argument '%s' of required type was not provided", argDef.Name)
			}
			continue
		}
		out[argDef.Name] = val
	}
	return out, ok
}

// valueFromAST converts a literal to its Go form. Variables are looked up in
// vars; an unset variable is null.
func valueFromAST(v *language.Value, vars map[string]any) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.Variable:
		val, _ := lookupVariable(vars, v.Raw)
		return val
	case language.IntValue:
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return int(i)
		}
		// Too large for int64. Float accepts it; Int rejects it on coercion.
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return f
	case language.FloatValue:
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return f
	case language.StringValue, language.BlockValue, language.EnumValue:
		return v.Raw
	case language.BooleanValue:
		return v.Raw == "true"
	case language.ListValue:
		out := make([]any, len(v.Children))
		for i, child := range v.Children {
			out[i] = valueFromAST(child.Value, vars)
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, child := range v.Children {
			out[child.Name] = valueFromAST(child.Value, vars)
		}
		return out
	}
	return nil
}

func (c *inputCoercer) coerceValue(value any, typ *schema.TypeRef) (any, error) {
	if schema.IsNonNull(typ) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return c.coerceValue(value, schema.Unwrap(typ))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(typ) {
		return c.coerceList(value, schema.Unwrap(typ))
	}

	name := schema.GetNamedType(typ)
	if slices.Contains([]string{"Int", "Float", "String", "Boolean", "ID"}, name) {
		return coerceBuiltin(name, value)
	}
	t := c.schema.Types[name]
	if t == nil {
		return value, nil
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		s, ok := value.(string)
		if !ok || !t.HasEnumValue(s) {
			return nil, fmt.Errorf("value %v is not a valid %s", value, t.Name)
		}
		return s, nil
	case schema.TypeKindInputObject:
		return c.coerceInputObject(value, t)
	case schema.TypeKindScalar:
		if c.parser == nil {
			return value, nil
		}
		return c.parser.ParseLeafValue(c.ctx, t.Name, value)
	}
	return nil, fmt.Errorf("%s is not an input type", t.Name)
}

// coerceList coerces each item. A single value is promoted to a list of one.
func (c *inputCoercer) coerceList(value any, itemType *schema.TypeRef) (any, error) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := c.coerceValue(item, itemType)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *inputCoercer) coerceInputObject(value any, t *schema.Type) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object for %s, got %T", t.Name, value)
	}
	for name := range fields {
		if t.InputFieldByName(name) == nil {
			return nil, fmt.Errorf("field '%s' is not defined by type %s", name, t.Name)
		}
	}

	out := make(map[string]any, len(t.InputFields))
	for _, def := range t.InputFields {
		raw, present := fields[def.Name]
		switch {
		case present:
		case def.DefaultValue != nil:
			raw = def.DefaultValue
		case schema.IsNonNull(def.Type):
			return nil, fmt.Errorf("required field '%s' of %s was not provided", def.Name, t.Name)
		default:
			continue
		}
		v, err := c.coerceValue(raw, def.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, def.Name, err)
		}
		out[def.Name] = v
	}
	if t.OneOf && len(out) != 1 {
		return nil, fmt.Errorf("exactly one field of %s must be provided", t.Name)
	}
	return out, nil
}

// coerceBuiltin accepts the Go forms JSON decoding and literals produce for
// the built-in scalars. Whole floats are accepted as Int and ID. Int is
// signed 32-bit.
func coerceBuiltin(name string, value any) (any, error) {
	switch name {
	case "Int":
		switch v := value.(type) {
		case int:
			return int32Value(float64(v), value)
		case int32:
			return int(v), nil
		case int64:
			return int32Value(float64(v), value)
		case float64:
			if v == math.Trunc(v) {
				return int32Value(v, value)
			}
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case "String":
		if v, ok := value.(string); ok {
			return v, nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			if v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
				return strconv.FormatInt(int64(v), 10), nil
			}
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to %s", value, value, name)
}

func int32Value(n float64, value any) (any, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
	}
	return int(n), nil
}
