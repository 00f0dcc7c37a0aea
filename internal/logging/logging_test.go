package logging

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
	"github.com/hanpama/usergraph/internal/reqid"
	"github.com/hanpama/usergraph/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		level, format string
		want          zapcore.Level
	}{
		{"", "json", zapcore.InfoLevel},
		{"debug", "console", zapcore.DebugLevel},
		{"warn", "json", zapcore.WarnLevel},
	} {
		logger, err := New(tc.level, tc.format)
		require.NoError(t, err)
		require.True(t, logger.Core().Enabled(tc.want))
		require.False(t, logger.Core().Enabled(tc.want-1))
	}

	_, err := New("loud", "json")
	require.Error(t, err)
}

func TestSubscribe(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	core, logs := observer.New(zapcore.DebugLevel)
	unsubscribe := Subscribe(zap.New(core))
	defer unsubscribe()

	ctx, rid := reqid.WithID(context.Background(), "rid-1")
	req := httptest.NewRequest("POST", "/graphql", nil)
	eventbus.Publish(ctx, events.HTTPFinish{Request: req, Status: 200, Operations: 2, Duration: time.Millisecond})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationName: "Q", OperationType: "query"})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationName: "M", OperationType: "mutation", Errors: []error{errors.New("bad")}})
	eventbus.Publish(ctx, events.LoaderBatch{Loader: "user", Keys: 3})
	eventbus.Publish(ctx, events.StoreQuery{Backend: "postgres", Operation: "find_user", Err: store.ErrNotFound})
	eventbus.Publish(ctx, events.StoreQuery{Backend: "postgres", Operation: "list_users", Err: errors.New("conn reset")})

	entries := logs.AllUntimed()
	require.Len(t, entries, 5)

	require.Equal(t, "http request", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, rid, fields["request_id"])
	require.EqualValues(t, 2, fields["operations"])
	require.Equal(t, "/graphql", fields["path"])
	require.EqualValues(t, 200, fields["status"])

	require.Equal(t, zapcore.InfoLevel, entries[1].Level)
	require.Equal(t, zapcore.WarnLevel, entries[2].Level)
	require.EqualValues(t, 1, entries[2].ContextMap()["errors"])

	require.Equal(t, zapcore.DebugLevel, entries[3].Level)
	require.Equal(t, "user", entries[3].ContextMap()["loader"])

	require.Equal(t, "store query failed", entries[4].Message)
	require.Equal(t, "list_users", entries[4].ContextMap()["operation"])

	unsubscribe()
	eventbus.Publish(ctx, events.LoaderBatch{Loader: "user", Keys: 1})
	require.Equal(t, 5, logs.Len())
}
