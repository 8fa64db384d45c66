package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		assert.Zero(t, buf.Len())
	})

	t.Run("json entry", func(t *testing.T) {
		buf.Reset()
		logger.WithField("hook", "on_success").Warn("Failed to call hook, none registered")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "warning", entry["level"])
		assert.Equal(t, "Failed to call hook, none registered", entry["message"])
		assert.Equal(t, "on_success", entry["hook"])
		assert.NotEmpty(t, entry["time"])
	})
}

func TestNewLogger_NilOutput(t *testing.T) {
	logger := NewLogger("debug", nil)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewLogger_AppliesEveryLogrusLevel(t *testing.T) {
	for _, level := range logrus.AllLevels {
		t.Run(level.String(), func(t *testing.T) {
			assert.Equal(t, level, NewLogger(level.String(), &bytes.Buffer{}).GetLevel())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"DEBUG", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"trace", logrus.TraceLevel},
		{"fatal", logrus.FatalLevel},
		{"panic", logrus.PanicLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestTraceFields(t *testing.T) {
	t.Run("no span", func(t *testing.T) {
		assert.Nil(t, TraceFields(context.Background()))
	})

	t.Run("recording span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer tp.Shutdown(context.Background())

		ctx, span := tp.Tracer("test").Start(context.Background(), "callback")
		defer span.End()

		fields := TraceFields(ctx)
		require.NotNil(t, fields)
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	})
}

func TestInitTracing_Disabled(t *testing.T) {
	logger := NewLogger("info", &bytes.Buffer{})

	tp, err := InitTracing(context.Background(), OTelConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.Nil(t, tp)
	assert.NoError(t, ShutdownTracing(context.Background(), tp))
}
