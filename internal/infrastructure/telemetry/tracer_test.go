package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "ledgersync-test",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_EnabledWithoutCollector(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping exporter setup in short mode")
	}
	ctx := context.Background()
	cfg := telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.5,
		ServiceName:       "ledgersync-test",
		Insecure:          true,
	}

	// The gRPC exporter connects lazily, so setup succeeds without a collector.
	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = tp.Shutdown(shutdownCtx)
}
