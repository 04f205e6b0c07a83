package log

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"
)

type loggerKey struct{}
type traceKey struct{}

// CloudLoggingHandler is a slog.Handler that writes logs in Google Cloud
// structured format, one JSON object per line.
type CloudLoggingHandler struct {
	out   io.Writer
	attrs []slog.Attr
}

func NewCloudLoggingHandler() *CloudLoggingHandler {
	return &CloudLoggingHandler{out: os.Stdout}
}

// NewCloudLoggingHandlerTo writes to w instead of stdout.
func NewCloudLoggingHandlerTo(w io.Writer) *CloudLoggingHandler {
	return &CloudLoggingHandler{out: w}
}

func (h *CloudLoggingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := map[string]any{
		"severity": r.Level.String(),
		"time":     time.Now().Format(time.RFC3339),
		"message":  r.Message,
	}

	if traceID := TraceFromContext(ctx); traceID != "" {
		entry["logging.googleapis.com/trace"] = traceID
	}

	for _, attr := range h.attrs {
		entry[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		entry[attr.Key] = attr.Value.Any()
		return true
	})

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := h.out.Write(append(jsonData, '\n')); err != nil {
		return err
	}
	return nil
}

// Enabled always returns true, so all log levels are handled.
func (h *CloudLoggingHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *CloudLoggingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &CloudLoggingHandler{out: h.out, attrs: newAttrs}
}

// WithGroup returns the same handler, as grouping is not implemented.
func (h *CloudLoggingHandler) WithGroup(_ string) slog.Handler {
	return h
}

// WithTrace attaches a request trace id to the context; every record written
// through a context-carried logger includes it.
func WithTrace(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func TraceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(traceKey{}).(string)
	return traceID
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(NewCloudLoggingHandler())
}
