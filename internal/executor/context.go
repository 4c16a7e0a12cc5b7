package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	language "github.com/hanpama/blockql/internal/language"
	"github.com/hanpama/blockql/internal/querycache"
	schema "github.com/hanpama/blockql/internal/schema"
)

// Query is a parsed request bound to a schema: the selected operation, its
// coerced variables and the document's fragments by name.
type Query struct {
	Schema    *schema.Schema
	Document  *language.QueryDocument
	Operation *language.OperationDefinition
	Variables map[string]any
	Fragments map[string]*language.FragmentDefinition
}

// NewQuery selects the operation named operationName (or the only one when
// the name is empty) and coerces rawVariables against its definitions.
func NewQuery(sch *schema.Schema, document *language.QueryDocument, operationName string, rawVariables map[string]any) (*Query, error) {
	operation := getOperation(document, operationName)
	if operation == nil {
		if operationName == "" {
			return nil, fmt.Errorf("operation name is required when the document has %d operations", len(document.Operations))
		}
		return nil, fmt.Errorf("operation %q not found", operationName)
	}
	fragments := make(map[string]*language.FragmentDefinition, len(document.Fragments))
	for _, f := range document.Fragments {
		if _, dup := fragments[f.Name]; dup {
			return nil, fmt.Errorf("fragment %q is defined more than once", f.Name)
		}
		fragments[f.Name] = f
	}
	variables, err := coerceVariableValues(sch, operation, rawVariables)
	if err != nil {
		return nil, err
	}
	return &Query{
		Schema:    sch,
		Document:  document,
		Operation: operation,
		Variables: variables,
		Fragments: fragments,
	}, nil
}

// AsIntrospectionQuery returns a copy of q bound to the introspection schema.
func (q *Query) AsIntrospectionQuery(meta *schema.Schema) *Query {
	c := *q
	c.Schema = meta
	return &c
}

// Introspection binds the schema and resolver that answer __schema and
// __type root fields.
type Introspection struct {
	Schema   *schema.Schema
	Resolver Resolver
}

// ExecutionContext carries everything the execution of one query needs.
type ExecutionContext struct {
	ctx context.Context

	Logger   *slog.Logger
	Query    *Query
	Resolver Resolver
	// Deadline is checked between field groups. Zero means no deadline.
	Deadline time.Time
	// MaxFirst bounds list sizes a resolver may be asked for.
	MaxFirst uint32
	// Cache is the result cache consulted for root selection sets. Nil
	// executes every query directly.
	Cache         *querycache.Cache[*ExecutionResult]
	Introspection *Introspection

	cached atomic.Bool
}

// NewExecutionContext builds an execution context. The cached flag starts
// set and is cleared when the query is actually executed.
//
// Execution keeps the values of ctx but not its cancellation: an answer may
// be shared with other callers, so only Deadline stops it.
func NewExecutionContext(ctx context.Context, q *Query, resolver Resolver) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	ectx := &ExecutionContext{
		ctx:      context.WithoutCancel(ctx),
		Logger:   slog.Default(),
		Query:    q,
		Resolver: resolver,
		MaxFirst: math.MaxUint32,
	}
	ectx.cached.Store(true)
	return ectx
}

// Context returns the request context passed to resolvers.
func (e *ExecutionContext) Context() context.Context { return e.ctx }

// Cached reports whether the answer was served without executing the query.
func (e *ExecutionContext) Cached() bool { return e.cached.Load() }

// AsIntrospectionContext derives the context used for introspection root
// fields: the introspection schema and resolver, no list size limit, and a
// cached flag that stays set. It returns nil when no introspection is bound.
func (e *ExecutionContext) AsIntrospectionContext() *ExecutionContext {
	if e.Introspection == nil {
		return nil
	}
	ictx := &ExecutionContext{
		ctx:           e.ctx,
		Logger:        e.Logger,
		Query:         e.Query.AsIntrospectionQuery(e.Introspection.Schema),
		Resolver:      e.Introspection.Resolver,
		Deadline:      e.Deadline,
		MaxFirst:      math.MaxUint32,
		Introspection: e.Introspection,
	}
	ictx.cached.Store(true)
	return ictx
}

func (e *ExecutionContext) timedOut() bool {
	return !e.Deadline.IsZero() && !time.Now().Before(e.Deadline)
}

func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}
