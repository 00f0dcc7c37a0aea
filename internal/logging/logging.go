// Package logging builds the process logger and turns request lifecycle
// events into log lines.
package logging

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
	"github.com/hanpama/usergraph/internal/reqid"
	"github.com/hanpama/usergraph/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. format "json" selects the production encoder;
// anything else the development one.
func New(level, format string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Subscribe logs HTTP requests, GraphQL operations, loader batches and
// storage statements published on the global event bus. The returned func
// removes the subscriptions.
func Subscribe(logger *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			logger.Info("http request",
				requestID(ctx),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Int("operations", e.Operations),
				zap.Duration("duration", e.Duration),
			)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			fields := []zap.Field{
				requestID(ctx),
				zap.String("operation", e.OperationName),
				zap.String("type", e.OperationType),
				zap.Duration("duration", e.Duration),
			}
			if len(e.Errors) == 0 {
				logger.Info("graphql operation", fields...)
				return
			}
			fields = append(fields, zap.Int("errors", len(e.Errors)), zap.Errors("error_list", e.Errors))
			logger.Warn("graphql operation", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.LoaderBatch) {
			if ce := logger.Check(zapcore.DebugLevel, "loader batch"); ce != nil {
				ce.Write(
					requestID(ctx),
					zap.String("loader", e.Loader),
					zap.Int("keys", e.Keys),
					zap.Duration("duration", e.Duration),
					zap.Error(e.Err),
				)
			}
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.StoreQuery) {
			if e.Err != nil && !errors.Is(e.Err, store.ErrNotFound) {
				logger.Warn("store query failed",
					requestID(ctx),
					zap.String("backend", e.Backend),
					zap.String("operation", e.Operation),
					zap.Error(e.Err),
				)
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func requestID(ctx context.Context) zap.Field {
	id, ok := reqid.FromContext(ctx)
	if !ok {
		return zap.Skip()
	}
	return zap.String("request_id", id)
}
