package telemetry

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitSlog(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	InitSlog(false)
	require.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	require.True(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))

	InitSlog(true)
	require.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestSetupFromEnvWithoutConfig(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	require.NoError(t, SetupFromEnv(context.Background(), "test:telemetry"))
	require.NoError(t, Shutdown(context.Background()))
}

func TestInstrumentPerfStatsStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	InstrumentPerfStats(ctx, time.Millisecond)
	time.Sleep(time.Millisecond * 10)
	cancel()
}

func TestSetupWithoutEndpoints(t *testing.T) {
	require.NoError(t, Setup(context.Background(), "test:telemetry", Config{}))
	require.Nil(t, current.TracerProvider)
	require.Nil(t, current.MeterProvider)
	require.NoError(t, Shutdown(context.Background()))
}
