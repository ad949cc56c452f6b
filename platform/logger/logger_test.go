package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestProductionLoggerWritesJSONWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, LeadIDKey, "994501112233")
	log.WithContext(ctx).Info("lead became hot", "score", 85)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" {
		t.Fatalf("expected request_id, got %v", entry["request_id"])
	}
	if entry["lead_id"] != "994501112233" {
		t.Fatalf("expected lead_id, got %v", entry["lead_id"])
	}
}

func TestDevelopmentLoggerEmitsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", &buf)
	log.Debug("weights loaded")

	if !strings.Contains(buf.String(), "weights loaded") {
		t.Fatalf("expected debug line in development, got %q", buf.String())
	}
}
