package executor

import (
	"context"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// Runtime defines the host integration surface for field resolution, batching,
// abstract type resolution, and leaf-value serialization used by the Executor.
//
// General contract
//   - The Executor performs a breadth-first execution. At each depth it drains all
//     synchronous fields first via ResolveSync, then calls BatchResolveAsync ONCE
//     with all async tasks collected at that depth. The next depth does not begin
//     until BatchResolveAsync returns and those results are completed.
//   - For mutation operations the root depth is executed serially: each root
//     field is passed to BatchResolveAsync on its own, in document order.
//   - The Executor guarantees that ResolveSync is never invoked for fields marked
//     async, and BatchResolveAsync is only invoked when there is at least one
//     async field at the current depth.
//   - Errors returned from any method are converted into located GraphQL errors.
//     A null in a Non-Null position nulls the nearest nullable ancestor.
//   - Implementations must not mutate source or args values.
//
// Partial success and determinism
//   - BatchResolveAsync must return one AsyncResolveResult per task, in task
//     order. Each result is independent; failures in one do not affect others.
type Runtime interface {
	// ResolveSync resolves a synchronous field value immediately.
	// Return (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	//
	// The call boundary is the end of a scheduling turn: every async field
	// reachable at this depth is known before the call is made, so an
	// implementation can coalesce their lookups before returning.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType determines the concrete object type name for a value of an
	// abstract GraphQL type (interface or union).
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value. For enums, return the symbolic name as string.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// RequestScoper is implemented by runtimes that keep per-operation state.
// BeginRequest is called once at the start of every ExecuteRequest and the
// returned context is used for the whole operation.
type RequestScoper interface {
	BeginRequest(ctx context.Context) context.Context
}

// LeafParser is implemented by runtimes that parse custom scalar input.
// ParseLeafValue is called during argument and variable coercion for every
// scalar that is not one of the built-in scalars.
type LeafParser interface {
	ParseLeafValue(ctx context.Context, scalarTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
	// Info describes where the field sits in the operation.
	Info *ResolveInfo
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element; other elements in the
	// same batch are unaffected.
	Error error
}

// ResolveInfo exposes the parts of the operation a resolver may inspect
// without executing them, such as the selection set below the field.
type ResolveInfo struct {
	FieldName  string
	Fields     []*language.Field
	ReturnType *schema.TypeRef
	Path       Path
	Schema     *schema.Schema

	document  *language.QueryDocument
	variables map[string]any
}

// CollectSubfields returns the merged sub-selection of the field for the
// given concrete object type, after applying fragments, @skip and @include.
// Keys are response names in document order.
func (info *ResolveInfo) CollectSubfields(objectType *schema.Type) []CollectedField {
	c := &fieldCollector{schema: info.Schema, document: info.document, variables: info.variables}
	return c.collect(objectType, mergeSelectionSets(info.Fields))
}

// CollectedField groups the field nodes sharing one response name.
type CollectedField struct {
	ResponseName string
	Fields       []*language.Field
}

// SubfieldInfo derives the ResolveInfo for a collected child field.
func (info *ResolveInfo) SubfieldInfo(parent *schema.Type, cf CollectedField) *ResolveInfo {
	def := parent.FieldByName(cf.Fields[0].Name)
	if def == nil {
		return nil
	}
	return &ResolveInfo{
		FieldName:  def.Name,
		Fields:     cf.Fields,
		ReturnType: def.Type,
		Path:       info.Path.Append(cf.ResponseName),
		Schema:     info.Schema,
		document:   info.document,
		variables:  info.variables,
	}
}
