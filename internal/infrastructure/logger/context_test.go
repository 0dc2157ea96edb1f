package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestWithContext_FromContext(t *testing.T) {
	t.Run("round trips logger through context", func(t *testing.T) {
		logger := zap.NewNop()
		ctx := WithContext(context.Background(), logger)

		got := FromContext(ctx)
		assert.Same(t, logger, got)
	})

	t.Run("returns nop logger when absent", func(t *testing.T) {
		got := FromContext(context.Background())
		assert.NotNil(t, got)
	})
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))

	enriched.Info("hello")
	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestWithUserID(t *testing.T) {
	ctx, _ := WithUserID(context.Background(), zap.NewNop(), "user-42")
	assert.Equal(t, "user-42", GetUserID(ctx))
}

func TestContextLogger(t *testing.T) {
	t.Run("injects request and user ids into entries", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		logger := zap.New(core)

		ctx := WithContext(context.Background(), logger)
		ctx = context.WithValue(ctx, RequestIDKey, "req-9")
		ctx = context.WithValue(ctx, UserIDKey, "user-7")

		L(ctx).Info("did something", zap.String("extra", "value"))

		entries := logs.All()
		assert.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-9", fields["request_id"])
		assert.Equal(t, "user-7", fields["user_id"])
		assert.Equal(t, "value", fields["extra"])
	})

	t.Run("WithLogger uses provided logger", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		logger := zap.New(core)

		WithLogger(context.Background(), logger).Warn("careful")

		entries := logs.All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "careful", entries[0].Message)
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		cl := &ContextLogger{ctx: context.Background()}
		assert.NotPanics(t, func() {
			cl.Info("no-op")
		})
	})
}
