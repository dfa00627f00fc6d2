package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "studychat"

func rotatingFile(logDir, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, name),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// InitLogger initializes structured logging with rotation. The returned
// closer flushes and closes the log file.
func InitLogger(logDir string, debug bool) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile := rotatingFile(logDir, "studychat.log")

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// Log only to file; stdout belongs to the conversation
	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With("service", serviceName)
	slog.SetDefault(logger)

	return logger, logFile, nil
}

// metricInterval is how often the periodic reader flushes to the metrics file
const metricInterval = 10 * time.Second

// InitTelemetry installs global tracer and meter providers that export to
// {logDir}/studychat_traces.log and {logDir}/studychat_metrics.log. The
// returned func flushes both providers and closes their files.
func InitTelemetry(ctx context.Context, logDir string) (trace.Tracer, metric.Meter, func(), error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(Version),
	))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sh shutdowner
	tp, err := newTracerProvider(logDir, res, &sh)
	if err != nil {
		sh.run()
		return nil, nil, nil, err
	}
	mp, err := newMeterProvider(logDir, res, &sh)
	if err != nil {
		sh.run()
		return nil, nil, nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	return tp.Tracer(serviceName), mp.Meter(serviceName), sh.run, nil
}

func newTracerProvider(logDir string, res *resource.Resource, sh *shutdowner) (*sdktrace.TracerProvider, error) {
	file := rotatingFile(logDir, "studychat_traces.log")
	sh.add("trace file", func(context.Context) error { return file.Close() })

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	sh.add("tracer provider", tp.Shutdown)
	return tp, nil
}

func newMeterProvider(logDir string, res *resource.Resource, sh *shutdowner) (*sdkmetric.MeterProvider, error) {
	file := rotatingFile(logDir, "studychat_metrics.log")
	sh.add("metrics file", func(context.Context) error { return file.Close() })

	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(file), stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricInterval))),
		sdkmetric.WithResource(res),
	)
	sh.add("meter provider", mp.Shutdown)
	return mp, nil
}

// shutdowner runs registered teardown steps newest first, so providers flush
// before the files they write to are closed.
type shutdowner struct {
	steps []shutdownStep
}

type shutdownStep struct {
	name string
	fn   func(context.Context) error
}

func (s *shutdowner) add(name string, fn func(context.Context) error) {
	s.steps = append(s.steps, shutdownStep{name: name, fn: fn})
}

func (s *shutdowner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(s.steps) - 1; i >= 0; i-- {
		if err := s.steps[i].fn(ctx); err != nil {
			slog.Error("telemetry shutdown failed", "step", s.steps[i].name, "error", err)
		}
	}
	s.steps = nil
}
