package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestLoggerWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("marketplace", &buf)

	l.Info("order_created", "req-1", "order created", slog.Int("order_id", 7))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "marketplace" || entry["action"] != "order_created" || entry["request_id"] != "req-1" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["order_id"] != float64(7) {
		t.Fatalf("expected order_id attr, got %v", entry["order_id"])
	}
}

func TestLoggerErrorGroup(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("marketplace", &buf)

	l.Error("dispatch_failed", "", "dispatch failed", errors.New("boom"))

	var entry struct {
		Level string `json:"level"`
		Error struct {
			Msg string `json:"msg"`
		} `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry.Level != "ERROR" || entry.Error.Msg != "boom" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if got := RequestID(ctx); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
