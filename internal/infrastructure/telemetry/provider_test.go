package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, Settings{ServiceName: "mestresdocafe-backend"}, nil)
	require.NoError(t, err)

	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.False(t, p.LogsEnabled())
	assert.NotNil(t, p.Meter("test"))
	assert.False(t, p.ZapCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, p.Shutdown(ctx))

	var none *Providers
	assert.False(t, none.MetricsEnabled())
	assert.NoError(t, none.Shutdown(ctx))
}

func TestSetup_MetricsOnly(t *testing.T) {
	ctx := context.Background()
	original := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(original) })

	// The gRPC exporter dials lazily, so no collector is needed
	p, err := Setup(ctx, Settings{
		ServiceName:       "mestresdocafe-backend",
		CollectorEndpoint: "127.0.0.1:4317",
		Insecure:          true,
		Metrics:           true,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, p.MetricsEnabled())
	assert.False(t, p.TracingEnabled())
	counter, err := NewCounter(p.Meter("test"), "mdc_test_total", "test", "{n}")
	require.NoError(t, err)
	counter.Inc(ctx)

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = p.Shutdown(shutdownCtx)
	assert.False(t, p.MetricsEnabled())
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "tax"))

	logger.Info("Order taxes calculated")
	logger.Warn("Order tax compliance below threshold")
	logger.Error("Failed to save calculations")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Order tax compliance below threshold", logs.All()[0].Message)
	assert.Equal(t, "tax", logs.All()[0].ContextMap()["component"])
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", samplerFor(1).Description())
	assert.Equal(t, "AlwaysOffSampler", samplerFor(0).Description())
	assert.Equal(t, "TraceIDRatioBased{0.25}", samplerFor(0.25).Description())
}
