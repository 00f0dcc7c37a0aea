package executor

import (
	"context"
	"fmt"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// executionState is the mutable state of one ExecuteRequest call. It is only
// touched by the goroutine running the operation.
type executionState struct {
	runtime   Runtime
	schema    *schema.Schema
	document  *language.QueryDocument
	variables map[string]any
	context   context.Context
	coercer   *inputCoercer
	collector *fieldCollector

	// pending holds the async fields found while completing the current depth.
	pending []asyncTask
	errors  []GraphQLError
	// nulled holds the keys of response paths already replaced by null.
	// Tasks below them are dropped.
	nulled map[string]struct{}
	// serial is set while the root fields of a mutation are pending.
	serial bool
}

// asyncTask is an async field waiting for the runtime.
type asyncTask struct {
	Task      AsyncResolveTask
	Path      Path
	// Nullable is the nearest nullable position above Path. It is empty
	// when every ancestor up to the root field is non-null.
	Nullable  Path
	FieldType *schema.TypeRef
	Fields    []*language.Field
}

// asyncPending marks a response position filled in by a later depth.
type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

func requestError(format string, args ...any) *ExecutionResult {
	return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf(format, args...)}}}
}

// ExecuteRequest runs one operation of document. Failures that happen before
// any field runs (unknown operation, bad variables) return no data.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := document.Operations.ForName(operationName)
	if operation == nil {
		return requestError("operation not found")
	}

	if scoper, ok := e.runtime.(RequestScoper); ok {
		ctx = scoper.BeginRequest(ctx)
	}

	coercer := newInputCoercer(ctx, e.schema, e.runtime)
	variables, err := coercer.coerceVariableValues(operation, variableValues)
	if err != nil {
		return requestError("%s", err.Error())
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	default:
		return requestError("unsupported operation type: %s", operation.Operation)
	}
	if rootType == nil {
		return requestError("root type not found for %s operation", operation.Operation)
	}

	state := &executionState{
		runtime:   e.runtime,
		schema:    e.schema,
		document:  document,
		variables: variables,
		context:   ctx,
		coercer:   coercer,
		collector: &fieldCollector{schema: e.schema, document: document, variables: variables},
		errors:    []GraphQLError{},
		nulled:    make(map[string]struct{}),
		serial:    operation.Operation == language.Mutation,
	}

	data := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{}, Path{})
	for len(state.pending) > 0 {
		state.runDepth(data)
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// runDepth resolves the pending tasks and completes their results into
// data. Completion queues the tasks of the next depth.
func (s *executionState) runDepth(data map[string]any) {
	tasks := make([]asyncTask, 0, len(s.pending))
	for _, at := range s.pending {
		if !s.isNulled(at.Path) {
			tasks = append(tasks, at)
		}
	}
	s.pending = nil
	defer func() { s.serial = false }()
	if len(tasks) == 0 {
		return
	}

	if err := s.context.Err(); err != nil {
		s.failAll(tasks, fmt.Errorf("execution aborted: %w", err), data)
		return
	}

	results := s.resolve(tasks)
	if len(results) != len(tasks) {
		s.failAll(tasks, fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks)), data)
		return
	}
	for i, r := range results {
		completeAsyncField(s, tasks[i], r, data)
	}
}

func (s *executionState) failAll(tasks []asyncTask, err error, data map[string]any) {
	for _, at := range tasks {
		completeAsyncField(s, at, AsyncResolveResult{Error: err}, data)
	}
}

// resolve hands tasks to the runtime: all at once, or one call per task in
// document order while the root of a mutation runs.
func (s *executionState) resolve(tasks []asyncTask) []AsyncResolveResult {
	raw := make([]AsyncResolveTask, len(tasks))
	for i, at := range tasks {
		raw[i] = at.Task
	}
	if !s.serial {
		return s.runtime.BatchResolveAsync(s.context, raw)
	}
	results := make([]AsyncResolveResult, len(raw))
	for i := range raw {
		res := s.runtime.BatchResolveAsync(s.context, raw[i:i+1])
		if len(res) != 1 {
			results[i] = AsyncResolveResult{Error: fmt.Errorf("runtime returned %d results for 1 task", len(res))}
			continue
		}
		results[i] = res[0]
	}
	return results
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	switch {
	case t == nil:
		return nil
	case t.NonNull:
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	case t.NamedType != "":
		return schema.NamedType(t.NamedType)
	case t.Elem != nil:
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
