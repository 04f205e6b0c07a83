package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandlerWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCloudLoggingHandlerTo(&buf)).With(slog.String("userID", "u1"))

	ctx := WithTrace(context.Background(), "trace-123")
	logger.InfoContext(ctx, "message sent", slog.String("conversationID", "conversation_abc"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}

	if entry["severity"] != "INFO" {
		t.Errorf("severity = %v; want INFO", entry["severity"])
	}
	if entry["message"] != "message sent" {
		t.Errorf("message = %v; want %q", entry["message"], "message sent")
	}
	if entry["userID"] != "u1" {
		t.Errorf("userID = %v; want u1", entry["userID"])
	}
	if entry["conversationID"] != "conversation_abc" {
		t.Errorf("conversationID = %v; want conversation_abc", entry["conversationID"])
	}
	if entry["logging.googleapis.com/trace"] != "trace-123" {
		t.Errorf("trace = %v; want trace-123", entry["logging.googleapis.com/trace"])
	}
}

func TestLoggerFromContextFallback(t *testing.T) {
	if LoggerFromContext(context.Background()) == nil {
		t.Fatal("LoggerFromContext returned nil for empty context")
	}
}

func TestTraceFromContextEmpty(t *testing.T) {
	if got := TraceFromContext(context.Background()); got != "" {
		t.Errorf("TraceFromContext = %q; want empty", got)
	}
}
