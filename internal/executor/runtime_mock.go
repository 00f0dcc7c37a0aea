package executor

import (
	"context"
	"fmt"
	"sync"
)

// MockResolver resolves a single field instance for MockRuntime.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// CallKind identifies whether a call was from ResolveSync or BatchResolveAsync.
const (
	CallKindSync  = "sync"
	CallKindAsync = "async"
)

// NewMockValueResolver returns a MockResolver that always returns the provided value.
func NewMockValueResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// NewMockErrorResolver returns a MockResolver that always returns the provided error.
func NewMockErrorResolver(err error) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// Call is one task-level invocation record. Async calls made by the same
// BatchResolveAsync share a BatchID; sync calls have BatchID 0.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Args       map[string]any
	BatchID    int
}

// MockRuntime implements Runtime over a map of resolvers keyed "Type.field".
// Fields without a resolver resolve to the source map's entry of the same
// name, or to nil.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call
	batchSeq  int

	// Scope, when set, is applied by BeginRequest.
	Scope func(ctx context.Context) context.Context
	// Parse, when set, is used by ParseLeafValue.
	Parse func(typeName string, value any) (any, error)
}

// NewMockRuntime creates a MockRuntime with the provided resolvers.
func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{resolvers: make(map[string]MockResolver)}
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	return m
}

// SetResolver registers or replaces the resolver for objectType.field.
func (m *MockRuntime) SetResolver(objectType, field string, resolver MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = resolver
}

func (m *MockRuntime) resolve(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	m.mu.Lock()
	r := m.resolvers[objectType+"."+field]
	m.mu.Unlock()
	if r != nil {
		return r(ctx, source, args)
	}
	if src, ok := source.(map[string]any); ok {
		return src[field], nil
	}
	return nil, nil
}

func (m *MockRuntime) record(c Call) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

func (m *MockRuntime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	m.record(Call{Kind: CallKindSync, ObjectType: objectType, Field: field, Args: args})
	return m.resolve(ctx, objectType, field, source, args)
}

// BatchResolveAsync resolves tasks one by one in order, under a fresh BatchID.
func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	m.mu.Lock()
	m.batchSeq++
	batchID := m.batchSeq
	m.mu.Unlock()

	results := make([]AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		m.record(Call{Kind: CallKindAsync, ObjectType: t.ObjectType, Field: t.Field, Args: t.Args, BatchID: batchID})
		v, err := m.resolve(ctx, t.ObjectType, t.Field, t.Source, t.Args)
		results[i] = AsyncResolveResult{Value: v, Error: err}
	}
	return results
}

// ResolveType reads the "__typename" entry of map values.
func (m *MockRuntime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if v, ok := value.(map[string]any); ok {
		if name, ok := v["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve concrete type of %s", abstractType)
}

func (m *MockRuntime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	return value, nil
}

func (m *MockRuntime) BeginRequest(ctx context.Context) context.Context {
	if m.Scope == nil {
		return ctx
	}
	return m.Scope(ctx)
}

func (m *MockRuntime) ParseLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if m.Parse == nil {
		return value, nil
	}
	return m.Parse(typeName, value)
}

// GetCalls returns a copy of the recorded calls in order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls and the batch counter.
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.batchSeq = 0
}
