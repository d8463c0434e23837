package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Str("key", "watchlist").Msg("write failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["level"] != "warn" || entry["key"] != "watchlist" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("expected timestamp in entry: %v", entry)
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "loud", Output: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestComponentAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	l := FromContext(ctx, logger.Component("lists"))
	l.Info().Msg("added")

	out := buf.String()
	if !strings.Contains(out, `"component":"lists"`) || !strings.Contains(out, `"request_id":"req-1"`) {
		t.Fatalf("expected component and request id, got %q", out)
	}
	if RequestID(ctx) != "req-1" {
		t.Fatalf("expected request id req-1, got %q", RequestID(ctx))
	}
	if RequestID(context.Background()) != "" {
		t.Fatalf("expected empty request id for bare context")
	}
}

func TestCloseWithoutFile(t *testing.T) {
	if err := Nop().Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
