package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/blockql/internal/blockptr"
	eventbus "github.com/hanpama/blockql/internal/eventbus"
	events "github.com/hanpama/blockql/internal/events"
	executor "github.com/hanpama/blockql/internal/executor"
	language "github.com/hanpama/blockql/internal/language"
	reqid "github.com/hanpama/blockql/internal/reqid"
)

// RequestIDHeader carries the request id. A client supplied value is kept.
const RequestIDHeader = "X-Request-Id"

// CacheHeader reports whether a single query was answered from the cache:
// "hit" or "miss".
const CacheHeader = "X-Cache"

// Chain finds the blocks queries are answered at.
type Chain interface {
	ChainHead(ctx context.Context) (blockptr.Ptr, bool, error)
	BlockByNumber(ctx context.Context, number uint64) (blockptr.Ptr, bool, error)
	BlockByHash(ctx context.Context, hash blockptr.Hash) (blockptr.Ptr, bool, error)
}

// ResolverFunc returns the resolver answering queries at block.
type ResolverFunc func(block blockptr.Ptr) executor.Resolver

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, picks the block, runs the executor, and writes
// GraphQL JSON responses.
type Handler struct {
	exec      *executor.Executor
	chain     Chain
	resolvers ResolverFunc
	opt       Options
	metrics   *metrics
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	Logger   *slog.Logger
	Bus      *eventbus.Bus
	Registry prometheus.Registerer
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithLogger(l *slog.Logger) Option            { return func(o *Options) { o.Logger = l } }
func WithEventBus(b *eventbus.Bus) Option         { return func(o *Options) { o.Bus = b } }
func WithRegistry(r prometheus.Registerer) Option { return func(o *Options) { o.Registry = r } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

type metrics struct {
	requests *prometheus.HistogramVec
	queries  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blockql_http_request_duration_seconds",
			Help:    "GraphQL HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blockql_queries_total",
			Help: "Queries answered, by cache outcome",
		}, []string{"cache"}),
	}
}

// New creates a GraphQL HTTP handler. Each query is answered at the block
// named in the request, or at the chain head, by the resolver resolvers
// returns for that block.
func New(exec *executor.Executor, chain Chain, resolvers ResolverFunc, opts ...Option) (*Handler, error) {
	if exec == nil || chain == nil || resolvers == nil {
		return nil, fmt.Errorf("server: executor, chain and resolvers are required")
	}
	op := Options{Timeout: 10 * time.Second, Logger: slog.Default()}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{exec: exec, chain: chain, resolvers: resolvers, opt: op, metrics: newMetrics(op.Registry)}, nil
}

// Mux routes /graphql to h and /metrics to the gatherer's metrics.
func Mux(h *Handler, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	rid := r.Header.Get(RequestIDHeader)
	if rid == "" {
		ctx, rid = reqid.NewContext(ctx)
	} else {
		ctx = reqid.WithID(ctx, rid)
	}
	w.Header().Set(RequestIDHeader, rid)

	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, h.opt.Bus, events.HTTPStart{Request: r})
	defer func() {
		d := time.Since(start)
		h.metrics.requests.WithLabelValues(strconv.Itoa(status)).Observe(d.Seconds())
		eventbus.Publish(ctx, h.opt.Bus, events.HTTPFinish{Request: r, Status: status, Duration: d})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(errors.New("method not allowed")), h.opt.Pretty)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if errors.Is(berr, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		op := make([]response, len(batch))
		for i := range batch {
			op[i], _ = h.executeOne(ctx, rid, batch[i])
		}
		writeJSON(w, status, op, h.opt.Pretty)
		return
	}

	res, cached := h.executeOne(ctx, rid, req)
	if cached {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	writeJSON(w, status, res, h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, rid string, req GraphQLRequest) (response, bool) {
	// Parse query (syntax validation)
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return errorResponse(err), false
	}
	block, err := h.block(ctx, req.Block)
	if err != nil {
		return errorResponse(err), false
	}

	schemaID := h.exec.Schema().ID
	start := time.Now()
	eventbus.Publish(ctx, h.opt.Bus, events.QueryStart{SchemaID: schemaID, OperationName: req.OperationName, Block: &block})
	outcome := h.exec.ExecuteRequest(ctx, h.resolvers(block), doc, req.OperationName, req.Variables, &block)
	result := outcome.Result.Value()
	d := time.Since(start)
	eventbus.Publish(ctx, h.opt.Bus, events.QueryFinish{
		SchemaID:      schemaID,
		OperationName: req.OperationName,
		Block:         &block,
		Cached:        outcome.Cached,
		Errors:        len(result.Errors),
		Duration:      d,
	})

	cache := "miss"
	if outcome.Cached {
		cache = "hit"
	}
	h.metrics.queries.WithLabelValues(cache).Inc()
	h.opt.Logger.Info("query",
		"request_id", rid,
		"operation", req.OperationName,
		"block", block.Number,
		"cache", cache,
		"errors", len(result.Errors),
		"duration", d,
	)
	return toResponse(result), outcome.Cached
}

// block resolves the requested block; the chain head when sel is nil. An
// empty chain answers at the sentinel block, which is never cached.
func (h *Handler) block(ctx context.Context, sel *BlockSelector) (blockptr.Ptr, error) {
	var (
		ptr blockptr.Ptr
		ok  bool
		err error
	)
	switch {
	case sel == nil:
		ptr, ok, err = h.chain.ChainHead(ctx)
		if err == nil && !ok {
			return blockptr.Ptr{Number: blockptr.NumberMax}, nil
		}
	case sel.Hash != "":
		hash, perr := blockptr.ParseHash(sel.Hash)
		if perr != nil {
			return ptr, perr
		}
		ptr, ok, err = h.chain.BlockByHash(ctx, hash)
	case sel.Number != nil:
		ptr, ok, err = h.chain.BlockByNumber(ctx, *sel.Number)
	default:
		return ptr, errors.New("block must have a number or a hash")
	}
	if err != nil {
		return ptr, err
	}
	if !ok {
		return ptr, fmt.Errorf("block %s not found", sel)
	}
	return ptr, nil
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
	Block         *BlockSelector `json:"block,omitempty"`
}

// BlockSelector names the block a query is answered at.
type BlockSelector struct {
	Number *uint64 `json:"number,omitempty"`
	Hash   string  `json:"hash,omitempty"`
}

func (b *BlockSelector) String() string {
	if b.Hash != "" {
		return b.Hash
	}
	if b.Number != nil {
		return "#" + strconv.FormatUint(*b.Number, 10)
	}
	return "?"
}

var errBodyTooLarge = errors.New("body too large")

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, errors.New("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, errors.New("invalid 'variables' JSON")
			}
		}
		req := GraphQLRequest{Query: q, Variables: vars, OperationName: r.URL.Query().Get("operationName")}
		if v := r.URL.Query().Get("block"); v != "" {
			req.Block = &BlockSelector{}
			if err := json.Unmarshal([]byte(v), req.Block); err != nil {
				return GraphQLRequest{}, nil, errors.New("invalid 'block' JSON")
			}
		}
		return req, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return GraphQLRequest{}, nil, errors.New("unsupported Content-Type")
	}
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return GraphQLRequest{}, nil, errors.New("failed to read body")
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return GraphQLRequest{}, nil, errBodyTooLarge
	}

	// Try array (batch)
	if len(body) > 0 && body[0] == '[' {
		var arr []GraphQLRequest
		if err := json.Unmarshal(body, &arr); err != nil {
			return GraphQLRequest{}, nil, errors.New("invalid JSON")
		}
		if len(arr) == 0 {
			return GraphQLRequest{}, nil, errors.New("empty batch")
		}
		return GraphQLRequest{}, arr, nil
	}
	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return GraphQLRequest{}, nil, errors.New("invalid JSON")
	}
	if req.Query == "" {
		return GraphQLRequest{}, nil, errors.New("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil, nil
}

// ------------------ Response formatting ------------------

type responseLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type responseError struct {
	Message   string             `json:"message"`
	Locations []responseLocation `json:"locations,omitempty"`
}

type response struct {
	Data   any             `json:"data"`
	Errors []responseError `json:"errors,omitempty"`
}

func errorResponse(err error) response {
	return response{Errors: responseErrors([]error{err})}
}

func toResponse(res *executor.ExecutionResult) response {
	if len(res.Errors) > 0 {
		return response{Errors: responseErrors(res.Errors)}
	}
	return response{Data: res.Data}
}

func responseErrors(errs []error) []responseError {
	out := make([]responseError, 0, len(errs))
	for _, err := range errs {
		var list gqlerror.List
		if errors.As(err, &list) {
			for _, ge := range list {
				out = append(out, gqlResponseError(ge))
			}
			continue
		}
		var ge *gqlerror.Error
		if errors.As(err, &ge) {
			out = append(out, gqlResponseError(ge))
			continue
		}
		se := responseError{Message: err.Error()}
		var loc executor.Located
		if errors.As(err, &loc) {
			if pos := loc.Location(); pos != nil {
				se.Locations = []responseLocation{{Line: pos.Line, Column: pos.Column}}
			}
		}
		out = append(out, se)
	}
	return out
}

func gqlResponseError(ge *gqlerror.Error) responseError {
	se := responseError{Message: ge.Message}
	for _, l := range ge.Locations {
		se.Locations = append(se.Locations, responseLocation{Line: l.Line, Column: l.Column})
	}
	return se
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	if !slices.Contains(opts.AllowedOrigins, "*") && !slices.Contains(opts.AllowedOrigins, origin) {
		return
	}
	if slices.Contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}
