// Package logger provides the zerolog logger shared by every component. Loggers
// obtained through FromContext carry the request id and, when a span is
// active, the OpenTelemetry trace and span ids.
package logger

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init replaces the base logger. Unknown levels fall back to info.
func Init(service, level string, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if out == nil {
		out = os.Stdout
	}

	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(out).Level(lvl).With().Timestamp().Str("service", service).Logger()
}

func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

func FromContext(ctx context.Context) *zerolog.Logger {
	lc := L().With()
	if id := RequestID(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}
	l := lc.Logger()
	return &l
}
