package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
	"github.com/hanpama/usergraph/internal/reqid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup("", "usergraph")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSubscribe_SpanTree(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	unsubscribe := Subscribe(tp.Tracer("test"))
	defer unsubscribe()

	ctx, _ := reqid.NewContext(context.Background())
	req := httptest.NewRequest("POST", "/graphql", nil)
	eventbus.Publish(ctx, events.HTTPStart{Request: req})
	eventbus.Publish(ctx, events.GraphQLStart{OperationName: "Q", OperationType: "query"})
	eventbus.Publish(ctx, events.LoaderBatch{Loader: "user", Keys: 2, Duration: 5 * time.Millisecond})
	eventbus.Publish(ctx, events.StoreQuery{Backend: "postgres", Operation: "find_users", Err: errors.New("timeout")})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationName: "Q", OperationType: "query"})
	eventbus.Publish(ctx, events.HTTPFinish{Request: req, Status: 200})

	spans := rec.Ended()
	require.Len(t, spans, 4)
	byName := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		byName[s.Name()] = s
	}

	httpSpan := byName["http.request"]
	gqlSpan := byName["graphql.operation"]
	batch := byName["loader.batch"]
	query := byName["store.query"]
	require.NotNil(t, httpSpan)
	require.NotNil(t, gqlSpan)
	require.NotNil(t, batch)
	require.NotNil(t, query)

	require.Equal(t, httpSpan.SpanContext().SpanID(), gqlSpan.Parent().SpanID())
	require.Equal(t, gqlSpan.SpanContext().SpanID(), batch.Parent().SpanID())
	require.Equal(t, gqlSpan.SpanContext().SpanID(), query.Parent().SpanID())
	require.Equal(t, 5*time.Millisecond, batch.EndTime().Sub(batch.StartTime()))
	require.Equal(t, codes.Error, query.Status().Code)
}
