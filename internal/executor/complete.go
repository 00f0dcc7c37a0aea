package executor

import (
	"fmt"
	"reflect"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// executeSelectionSet resolves the sync fields of one object and queues its
// async fields. It returns nil when a non-null child below the root came
// back null. nullable is the nearest enclosing position that may hold null.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path, nullable Path) map[string]any {
	out := make(map[string]any)
	for _, cf := range state.collector.collect(objectType, selectionSet) {
		name := cf.Fields[0].Name
		fieldPath := path.Append(cf.ResponseName)

		if name == "__typename" {
			out[cf.ResponseName] = objectType.Name
			continue
		}
		def := objectType.FieldByName(name)
		if def == nil {
			state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", name, objectType.Name), fieldPath)
			continue
		}

		v := executeField(state, objectType, def, objectValue, cf.Fields, fieldPath, nullable)
		if isNullish(v) {
			if schema.IsNonNull(def.Type) && len(path) > 0 {
				return nil
			}
			v = nil
		}
		out[cf.ResponseName] = v
	}
	return out
}

// executeField resolves a sync field in place, or queues an async one and
// returns asyncPending.
func executeField(state *executionState, objectType *schema.Type, def *schema.Field, objectValue any, fields []*language.Field, path, nullable Path) any {
	args, ok := state.coercer.coerceArgumentValues(def, fields[0].Arguments, state.variables, state, path)
	if !ok {
		// Non-null propagation still applies to a field that never ran.
		return completeValue(state, def.Type, fields, nil, path, nullable)
	}

	if !def.Async {
		v, err := state.runtime.ResolveSync(state.context, objectType.Name, def.Name, objectValue, args)
		if err != nil {
			state.addError(err.Error(), path)
			v = nil
		}
		return completeValue(state, def.Type, fields, v, path, nullable)
	}

	at := asyncTask{
		Task: AsyncResolveTask{
			ObjectType: objectType.Name,
			Field:      def.Name,
			Source:     objectValue,
			Args:       args,
			Info: &ResolveInfo{
				FieldName:  def.Name,
				Fields:     fields,
				ReturnType: def.Type,
				Path:       path,
				Schema:     state.schema,
				document:   state.document,
				variables:  state.variables,
			},
		},
		Path:      path,
		Nullable:  nullable,
		FieldType: def.Type,
		Fields:    fields,
	}
	state.pending = append(state.pending, at)
	return asyncPending{}
}

// completeAsyncField writes the outcome of one async task into data. A null
// in a non-null position replaces the nearest nullable ancestor, or the
// top-level field when there is none.
func completeAsyncField(state *executionState, at asyncTask, res AsyncResolveResult, data map[string]any) {
	if state.isNulled(at.Path) {
		return
	}

	var v any
	if res.Error != nil {
		state.addError(res.Error.Error(), at.Path)
	} else {
		v = completeValue(state, at.FieldType, at.Fields, res.Value, at.Path, at.Nullable)
	}

	if !isNullish(v) {
		setResponseValue(data, at.Path, v)
		return
	}
	if schema.IsNonNull(at.FieldType) {
		target := at.Nullable
		if len(target) == 0 {
			target = at.Path.Root()
		}
		setResponseValue(data, target, nil)
		state.markNulled(target)
		return
	}
	setResponseValue(data, at.Path, nil)
}

// completeValue completes result for a position of fieldType at path.
// nullable is the nearest nullable position above path.
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path, nullable Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAt(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path), path)
			}
			return nil
		}
		return completeNonNull(state, schema.Unwrap(fieldType), fields, result, path, nullable)
	}
	if isNullish(result) {
		return nil
	}
	v := completeNonNull(state, fieldType, fields, result, path, path)
	if isNullish(v) {
		// Async fields queued below this position are dropped.
		state.markNulled(path)
	}
	return v
}

// completeNonNull completes a non-null result for a type with the NonNull
// wrapper already removed.
func completeNonNull(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path, nullable Path) any {
	if schema.IsList(fieldType) {
		return completeList(state, schema.Unwrap(fieldType), fields, result, path, nullable)
	}

	name := schema.GetNamedType(fieldType)
	typ := state.schema.Types[name]
	if typ == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", name), path)
		return nil
	}
	switch typ.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		out, err := state.runtime.SerializeLeafValue(state.context, name, result)
		if err != nil {
			state.addError(err.Error(), path)
			return nil
		}
		return out
	case schema.TypeKindObject:
		return executeSelectionSet(state, typ, mergeSelectionSets(fields), result, path, nullable)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		typeName, err := state.runtime.ResolveType(state.context, name, result)
		if err != nil {
			state.addError(err.Error(), path)
			return nil
		}
		concrete := state.schema.Types[typeName]
		if concrete == nil || concrete.Kind != schema.TypeKindObject {
			state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", name, typeName), path)
			return nil
		}
		return executeSelectionSet(state, concrete, mergeSelectionSets(fields), result, path, nullable)
	}
	state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typ.Kind), path)
	return nil
}

// completeList completes every item of result. A null item of a non-null
// item type nulls the list.
func completeList(state *executionState, itemType *schema.TypeRef, fields []*language.Field, result any, path, nullable Path) any {
	items, ok := result.([]any)
	if !ok {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	out := make([]any, len(items))
	for i, item := range items {
		v := completeValue(state, itemType, fields, item, path.Append(i), nullable)
		if isNullish(v) && schema.IsNonNull(itemType) {
			return nil
		}
		out[i] = v
	}
	return out
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish reports whether v is nil or a typed nil.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
