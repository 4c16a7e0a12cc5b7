package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hanpama/blockql/internal/blockptr"
	language "github.com/hanpama/blockql/internal/language"
	"github.com/hanpama/blockql/internal/querycache"
	schema "github.com/hanpama/blockql/internal/schema"
)

// Executor answers queries against one schema.
type Executor struct {
	schema        *schema.Schema
	cache         *querycache.Cache[*ExecutionResult]
	introspection *Introspection
	logger        *slog.Logger
	maxFirst      uint32
	timeout       time.Duration
}

type Option func(*Executor)

// WithCache routes root selection sets through the result cache.
func WithCache(c *querycache.Cache[*ExecutionResult]) Option {
	return func(e *Executor) { e.cache = c }
}

// WithIntrospection enables __schema and __type.
func WithIntrospection(i *Introspection) Option {
	return func(e *Executor) { e.introspection = i }
}

func WithLogger(l *slog.Logger) Option { return func(e *Executor) { e.logger = l } }

// WithMaxFirst bounds the list size resolvers may be asked for.
func WithMaxFirst(n uint32) Option { return func(e *Executor) { e.maxFirst = n } }

// WithTimeout bounds the execution time of a query. Zero disables it.
func WithTimeout(d time.Duration) Option { return func(e *Executor) { e.timeout = d } }

func NewExecutor(sch *schema.Schema, opts ...Option) *Executor {
	e := &Executor{schema: sch, logger: slog.Default(), maxFirst: math.MaxUint32}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Schema() *schema.Schema { return e.schema }

// Outcome is the answer to a request together with how it was produced.
type Outcome struct {
	Result querycache.MaybeCached[*ExecutionResult]
	// Cached is set when the answer was served without executing the query.
	Cached bool
}

// ExecuteRequest binds a parsed document to the schema, coerces
// variables and executes the selected query operation at block.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	resolver Resolver,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	block *blockptr.Ptr,
) Outcome {
	q, err := NewQuery(e.schema, document, operationName, variableValues)
	if err != nil {
		return failed(err)
	}
	return e.Execute(ctx, q, resolver, block)
}

// Execute runs a prepared query at block.
func (e *Executor) Execute(ctx context.Context, q *Query, resolver Resolver, block *blockptr.Ptr) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	if q.Operation.Operation != language.Query {
		return failed(&UnimplementedError{Feature: fmt.Sprintf("%s operations", q.Operation.Operation)})
	}
	rootType := e.schema.GetQueryType()
	if rootType == nil {
		return failed(fmt.Errorf("schema %s has no query type", e.schema.ID))
	}

	ectx := NewExecutionContext(ctx, q, resolver)
	ectx.Logger = e.logger
	ectx.MaxFirst = e.maxFirst
	ectx.Cache = e.cache
	ectx.Introspection = e.introspection
	if e.timeout > 0 {
		ectx.Deadline = time.Now().Add(e.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (ectx.Deadline.IsZero() || d.Before(ectx.Deadline)) {
		ectx.Deadline = d
	}

	start := time.Now()
	res := ExecuteRootSelectionSet(ectx, q.Operation.SelectionSet, rootType, block)
	attrs := []any{
		"schema", e.schema.ID,
		"operation", q.Operation.Name,
		"cached", ectx.Cached(),
		"errors", len(res.Value().Errors),
		"duration", time.Since(start),
	}
	if block != nil {
		attrs = append(attrs, "block", block.Number)
	}
	e.logger.Debug("query served", attrs...)
	return Outcome{Result: res, Cached: ectx.Cached()}
}

func failed(err error) Outcome {
	return Outcome{Result: querycache.NotCached(&ExecutionResult{Errors: flatten(err)})}
}
