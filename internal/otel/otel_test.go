package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hanpama/blockql/internal/blockptr"
	"github.com/hanpama/blockql/internal/eventbus"
	"github.com/hanpama/blockql/internal/events"
	"github.com/hanpama/blockql/internal/reqid"
)

func TestSubscribe(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	bus := eventbus.New()
	unsubscribe := Subscribe(bus, tp.Tracer("test"))
	defer unsubscribe()

	ctx, _ := reqid.NewContext(context.Background())
	req := httptest.NewRequest("POST", "/graphql", nil)
	block := &blockptr.Ptr{Number: 7}

	eventbus.Publish(ctx, bus, events.HTTPStart{Request: req})
	eventbus.Publish(ctx, bus, events.QueryStart{SchemaID: "tokens", Block: block})
	eventbus.Publish(ctx, bus, events.StoreQuery{Entity: "Token", Block: 7, Rows: 2, Start: time.Now(), Duration: time.Millisecond})
	eventbus.Publish(ctx, bus, events.StoreQuery{Entity: "Account", Block: 7, Err: errors.New("boom"), Start: time.Now()})
	eventbus.Publish(ctx, bus, events.QueryFinish{SchemaID: "tokens", Block: block, Cached: false})
	eventbus.Publish(ctx, bus, events.HTTPFinish{Request: req, Status: 200})

	spans := recorder.Ended()
	require.Len(t, spans, 4)
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name()
	}
	require.Equal(t, []string{"store.query", "store.query", "graphql.query", "http.request"}, names)

	httpSpan, querySpan := spans[3], spans[2]
	require.Equal(t, httpSpan.SpanContext().SpanID(), querySpan.Parent().SpanID())
	require.Equal(t, querySpan.SpanContext().SpanID(), spans[0].Parent().SpanID())
	require.Len(t, spans[1].Events(), 1)
}

func TestSubscribeWithoutRequestSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	bus := eventbus.New()
	Subscribe(bus, tp.Tracer("test"))()

	eventbus.Publish(context.Background(), bus, events.QueryFinish{})
	require.Empty(t, recorder.Ended())
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), eventbus.New(), "", "blockql")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
