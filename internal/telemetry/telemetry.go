// Package telemetry installs the process-wide slog logger. Depending on
// configuration, records are also appended to an Azure blob and exported with
// the OpenTelemetry log bridge next to an OTLP tracer provider.
package telemetry

import (
	"basket/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ParseLevel accepts debug, info, warn and error in any case. Anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup sets the default logger and returns a shutdown func that flushes the
// exporters. Shutdown is a no-op when nothing is exported.
func Setup(ctx context.Context, cfg config.LogConfig) (func(context.Context) error, error) {
	return setup(ctx, cfg, os.Stderr)
}

func setup(ctx context.Context, cfg config.LogConfig, w io.Writer) (func(context.Context) error, error) {
	level := ParseLevel(cfg.Level)
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	handlers := []slog.Handler{text}
	var closers []func(context.Context) error

	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (func(context.Context) error, error) {
		return nil, errors.Join(err, shutdown(ctx))
	}

	if cfg.BlobAccount != "" {
		name := blobName(cfg.BlobName, time.Now())
		ab, err := newAppendBlob(ctx, cfg.BlobAccount, cfg.BlobKey, cfg.BlobContainer, name)
		if err != nil {
			return fail(err)
		}
		sink := newBlobWriter(ab, defaultFlushEvery, slog.New(text))
		closers = append(closers, func(context.Context) error { return sink.Close() })
		handlers = append(handlers, slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: level}))
	}

	if cfg.OTLPEndpoint != "" {
		res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

		logExporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(cfg.OTLPEndpoint))
		if err != nil {
			return fail(fmt.Errorf("create otlp log exporter: %w", err))
		}
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		)
		global.SetLoggerProvider(lp)
		closers = append(closers, lp.Shutdown)

		traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
		if err != nil {
			return fail(fmt.Errorf("create otlp trace exporter: %w", err))
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(traceExporter),
		)
		otel.SetTracerProvider(tp)
		closers = append(closers, tp.Shutdown)

		handlers = append(handlers, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp)))
	}

	if len(handlers) == 1 {
		slog.SetDefault(slog.New(text))
	} else {
		slog.SetDefault(slog.New(newFanout(level, handlers...)))
	}
	slog.DebugContext(ctx, "logging configured", "level", level, "otlp", cfg.OTLPEndpoint != "", "blob", cfg.BlobAccount != "")
	return shutdown, nil
}

// fanout sends every record at or above level to all handlers.
type fanout struct {
	level    slog.Leveler
	handlers []slog.Handler
}

func newFanout(level slog.Leveler, handlers ...slog.Handler) *fanout {
	return &fanout{level: level, handlers: handlers}
}

func (f *fanout) Enabled(ctx context.Context, l slog.Level) bool {
	if l < f.level.Level() {
		return false
	}
	for _, h := range f.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < f.level.Level() {
		return nil
	}
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{level: f.level, handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{level: f.level, handlers: next}
}
