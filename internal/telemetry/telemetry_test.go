package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitLoggerWritesJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, closer, err := InitLogger(dir, true)
	require.NoError(t, err)

	logger.Debug("debug line", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "studychat.log"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"msg":"debug line"`))
	require.True(t, strings.Contains(string(data), `"service":"studychat"`))
}

func TestInitTelemetryInstallsProviders(t *testing.T) {
	dir := t.TempDir()
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	tracer, meter, cleanup, err := InitTelemetry(context.Background(), dir)
	require.NoError(t, err)

	_, span := tracer.Start(context.Background(), "lookup")
	span.End()
	counter, err := meter.Int64Counter("lookups")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	cleanup()

	traces, err := os.ReadFile(filepath.Join(dir, "studychat_traces.log"))
	require.NoError(t, err)
	require.Contains(t, string(traces), `"Name": "lookup"`)

	metrics, err := os.ReadFile(filepath.Join(dir, "studychat_metrics.log"))
	require.NoError(t, err)
	require.Contains(t, string(metrics), `"Name": "lookups"`)
}

func TestShutdownerRunsNewestFirst(t *testing.T) {
	var order []string
	var sh shutdowner
	for _, name := range []string{"file", "provider"} {
		name := name
		sh.add(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	sh.add("failing", func(context.Context) error { return errors.New("boom") })

	sh.run()
	require.Equal(t, []string{"provider", "file"}, order)
	require.Empty(t, sh.steps)
}
