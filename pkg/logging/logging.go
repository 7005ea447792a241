// Package logging configures the service's slog-based structured logging.
// Every log line carries the request id when one is in the context, and
// debug logging can be sampled down on high-volume dispatch paths.
package logging

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
)

type contextKey struct{}

// requestIDKey carries the request id set by the HTTP middleware.
var requestIDKey contextKey

// Config controls level, encoding and destination.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Format is "json" (the default in production) or "text".
	Format string

	// Output is "stdout", "stderr" or a file path.
	Output string

	// AddSource records the file:line of each call site.
	AddSource bool

	// SampleRate keeps this fraction of debug records. 1.0 keeps all;
	// levels above debug are never sampled.
	SampleRate float64
}

// Logger embeds *slog.Logger so call sites use the slog API directly.
type Logger struct {
	*slog.Logger
}

// New builds a logger from cfg, writing to the configured destination.
func New(cfg Config) *Logger {
	return NewWithWriter(cfg, openOutput(cfg.Output))
}

// NewWithWriter builds a logger writing to w. Tests use it to capture
// output.
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var inner slog.Handler
	if cfg.Format == "text" {
		inner = slog.NewTextHandler(w, opts)
	} else {
		inner = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(&requestHandler{
		Handler:    inner,
		sampleRate: cfg.SampleRate,
	})}
}

// SetDefault installs this logger as the process-wide slog default.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

// WithRequestID returns a context whose log records carry the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestHandler decorates records with the context's request id and
// samples debug records.
type requestHandler struct {
	slog.Handler
	sampleRate float64
}

func (h *requestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level == slog.LevelDebug && h.sampleRate > 0 && h.sampleRate < 1.0 {
		if rand.Float64() > h.sampleRate {
			return false
		}
	}
	return h.Handler.Enabled(ctx, level)
}

func (h *requestHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *requestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &requestHandler{Handler: h.Handler.WithAttrs(attrs), sampleRate: h.sampleRate}
}

func (h *requestHandler) WithGroup(name string) slog.Handler {
	return &requestHandler{Handler: h.Handler.WithGroup(name), sampleRate: h.sampleRate}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func openOutput(output string) io.Writer {
	switch output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return os.Stdout
		}
		return f
	}
}
