// Package otel turns event bus events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hanpama/blockql/internal/eventbus"
	"github.com/hanpama/blockql/internal/events"
	"github.com/hanpama/blockql/internal/reqid"
)

// Setup exports spans to the OTLP collector at endpoint and subscribes to
// bus. With an empty endpoint nothing is configured.
func Setup(ctx context.Context, bus *eventbus.Bus, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Subscribe(bus, tp.Tracer("blockql"))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscribe records spans for requests, queries and store reads published
// on bus. Spans are correlated by request id.
func Subscribe(bus *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register(bus)
}

type subscriber struct {
	tracer     trace.Tracer
	httpSpans  sync.Map // request id -> trace.Span
	querySpans sync.Map // request id -> trace.Span
}

func (s *subscriber) parent(ctx context.Context, rid string, spans ...*sync.Map) context.Context {
	for _, m := range spans {
		if v, ok := m.Load(rid); ok {
			return trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	return ctx
}

func (s *subscriber) register(bus *eventbus.Bus) func() {
	unsubs := []func(){
		eventbus.Subscribe(bus, func(ctx context.Context, e events.HTTPStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "http.request")
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
				attribute.String("request.id", rid),
			)
			s.httpSpans.Store(rid, span)
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.HTTPFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.httpSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
			span.End()
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.QueryStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, rid, &s.httpSpans), "graphql.query")
			span.SetAttributes(
				attribute.String("graphql.schema", e.SchemaID),
				attribute.String("graphql.operation.name", e.OperationName),
			)
			if e.Block != nil {
				span.SetAttributes(attribute.Int64("block.number", int64(e.Block.Number)))
			}
			s.querySpans.Store(rid, span)
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.QueryFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.querySpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.Bool("graphql.cached", e.Cached),
				attribute.Int("graphql.error_count", e.Errors),
			)
			if e.Errors > 0 {
				span.SetStatus(codes.Error, "query failed")
			}
			span.End()
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.StoreQuery) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, rid, &s.querySpans, &s.httpSpans), "store.query",
				trace.WithTimestamp(e.Start))
			span.SetAttributes(
				attribute.String("store.entity", e.Entity),
				attribute.Int64("block.number", int64(e.Block)),
				attribute.Int("store.rows", e.Rows),
			)
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End(trace.WithTimestamp(e.Start.Add(e.Duration)))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
