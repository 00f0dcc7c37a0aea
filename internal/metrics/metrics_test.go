package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	m := New(prometheus.NewRegistry())
	unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	eventbus.Publish(ctx, events.LoaderBatch{Loader: "user", Keys: 4, Duration: time.Millisecond})
	eventbus.Publish(ctx, events.LoaderBatch{Loader: "user", Keys: 1, Err: errors.New("down")})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query"})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query", Errors: []error{errors.New("x")}})
	eventbus.Publish(ctx, events.HTTPFinish{Request: httptest.NewRequest("GET", "/", nil), Status: 200})
	eventbus.Publish(ctx, events.StoreQuery{Backend: "memory", Operation: "list_users"})

	require.Equal(t, 1.0, testutil.ToFloat64(m.LoaderBatches.WithLabelValues("user", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.LoaderBatches.WithLabelValues("user", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GraphQLOperations.WithLabelValues("query", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StoreQueries.WithLabelValues("memory", "list_users", "success")))
	require.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
	require.Equal(t, 1, testutil.CollectAndCount(m.LoaderBatchKeys))
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.GraphQLOperations.WithLabelValues("mutation", "success").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `usergraph_graphql_operations_total{outcome="success",type="mutation"} 1`)
}
