package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_FieldsAreStructured(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Info("cart item added", Fields{"product_id": "p1", "quantity": 2})
	l.Error("ledger unavailable", Fields{"error": errors.New("connection refused")})

	require.Equal(t, 2, logs.Len())

	first := logs.All()[0]
	assert.Equal(t, "cart item added", first.Message)
	assert.Equal(t, "p1", first.ContextMap()["product_id"])
	assert.EqualValues(t, 2, first.ContextMap()["quantity"])

	second := logs.All()[1]
	assert.Equal(t, zapcore.ErrorLevel, second.Level)
	assert.Equal(t, "connection refused", second.ContextMap()["error"])
}

func TestLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := FromZap(zap.New(core)).With(Fields{"request_id": "req-1"})

	l.Debug("dropped")
	l.Info("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-1", logs.All()[0].ContextMap()["request_id"])
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing", Fields{"a": 1})
	l.Warn("still nothing")
}
