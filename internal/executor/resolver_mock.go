package executor

import (
	"context"
	"sync"

	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

// MockFieldFunc overrides how a field value is resolved in tests.
type MockFieldFunc func(ctx context.Context, fieldValue any, args map[string]any) (any, error)

// Call kinds recorded by MockResolver.
const (
	CallKindPrefetch = "prefetch"
	CallKindObject   = "object"
	CallKindObjects  = "objects"
	CallKindEnum     = "enum"
	CallKindEnums    = "enums"
	CallKindScalar   = "scalar"
	CallKindScalars  = "scalars"
)

// Call represents a single resolver invocation.
type Call struct {
	Kind  string
	Field string
	Value any
	Args  map[string]any
}

// MockResolver implements Resolver by passing field values through, with
// optional per-field overrides keyed by field name. It records every call.
type MockResolver struct {
	mu       sync.Mutex
	prefetch *value.Object
	fields   map[string]MockFieldFunc
	calls    []Call

	PrefetchErr error
}

// NewMockResolver returns a resolver whose Prefetch yields a copy of prefetched.
func NewMockResolver(prefetched *value.Object) *MockResolver {
	return &MockResolver{
		prefetch: prefetched,
		fields:   make(map[string]MockFieldFunc),
	}
}

// SetField overrides resolution of every field named name.
func (m *MockResolver) SetField(name string, f MockFieldFunc) *MockResolver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[name] = f
	return m
}

// GetCalls returns a copy of the call log.
func (m *MockResolver) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears the call log.
func (m *MockResolver) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *MockResolver) record(ctx context.Context, kind string, field *language.Field, fieldValue any, args map[string]any) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Kind: kind, Field: field.Name, Value: fieldValue, Args: args})
	f := m.fields[field.Name]
	m.mu.Unlock()
	if f != nil {
		return f(ctx, fieldValue, args)
	}
	return fieldValue, nil
}

func (m *MockResolver) Prefetch(ectx *ExecutionContext, selectionSet language.SelectionSet) (*value.Object, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Kind: CallKindPrefetch})
	m.mu.Unlock()
	if m.PrefetchErr != nil {
		return nil, m.PrefetchErr
	}
	return m.prefetch.Clone(), nil
}

func (m *MockResolver) ResolveObject(ctx context.Context, fieldValue any, field *language.Field, fieldDef *schema.Field, objectType *schema.Type, args map[string]any) (any, error) {
	return m.record(ctx, CallKindObject, field, fieldValue, args)
}

func (m *MockResolver) ResolveObjects(ctx context.Context, fieldValue any, field *language.Field, fieldDef *schema.Field, objectType *schema.Type, args map[string]any) (any, error) {
	return m.record(ctx, CallKindObjects, field, fieldValue, args)
}

func (m *MockResolver) ResolveEnumValue(ctx context.Context, field *language.Field, enumType *schema.Type, fieldValue any) (any, error) {
	return m.record(ctx, CallKindEnum, field, fieldValue, nil)
}

func (m *MockResolver) ResolveEnumValues(ctx context.Context, field *language.Field, enumType *schema.Type, fieldValue any) (any, error) {
	return m.record(ctx, CallKindEnums, field, fieldValue, nil)
}

func (m *MockResolver) ResolveScalarValue(ctx context.Context, parentType *schema.Type, field *language.Field, scalarType *schema.Type, fieldValue any, args map[string]any) (any, error) {
	return m.record(ctx, CallKindScalar, field, fieldValue, args)
}

func (m *MockResolver) ResolveScalarValues(ctx context.Context, field *language.Field, scalarType *schema.Type, fieldValue any) (any, error) {
	return m.record(ctx, CallKindScalars, field, fieldValue, nil)
}

// ResolveAbstractType reads the object type name from the value's
// __typename entry.
func (m *MockResolver) ResolveAbstractType(sch *schema.Schema, abstractType *schema.Type, fieldValue any) *schema.Type {
	obj, ok := fieldValue.(*value.Object)
	if !ok {
		return nil
	}
	name, _ := obj.Get("__typename")
	s, _ := name.(string)
	return sch.Types[s]
}
