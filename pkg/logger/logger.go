package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global zerolog logger.
func Setup(isLocalDev bool) {
	// Use Unix timestamps for performance and consistency
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if isLocalDev {
		// Pretty printing for local development
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		// Default to JSON output for production
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// zerolog.Ctx falls back to the global logger for contexts without one.
	zerolog.DefaultContextLogger = &log.Logger
}

// EnrichContextWithLogger adds a zerolog logger to the context with trace information.
func EnrichContextWithLogger(ctx context.Context) context.Context {
	return EnrichContextWithFields(ctx, nil)
}

// EnrichContextWithFields is EnrichContextWithLogger plus extra string fields,
// such as the request id of an HTTP call.
func EnrichContextWithFields(ctx context.Context, fields map[string]string) context.Context {
	l := log.With()
	for k, v := range fields {
		l = l.Str(k, v)
	}
	span := trace.SpanFromContext(ctx)
	sCtx := span.SpanContext()
	if span.IsRecording() && sCtx.HasTraceID() {
		l = l.Str("trace_id", sCtx.TraceID().String()).
			Str("span_id", sCtx.SpanID().String())
	} else if len(fields) == 0 {
		return ctx
	}

	logger := l.Logger()
	return logger.WithContext(ctx)
}
