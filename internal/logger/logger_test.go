package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Format: "json", Out: &buf})

	log.Info("hidden")
	log.Warn("upload retry", "attempt", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "upload retry" || rec["attempt"] != float64(2) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_TextFormatWithoutColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: "text", Out: &buf})
	log.Info("session opened", "backend", "local")

	out := buf.String()
	if !strings.Contains(out, "session opened") || !strings.Contains(out, "backend=local") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no ANSI colors when not writing to a terminal")
	}
}

func TestNew_DefaultsToJSONOffTerminal(t *testing.T) {
	t.Setenv("APP_ENV", "")
	var buf bytes.Buffer
	New(Options{Out: &buf}).Info("hello")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected json output, got %q", buf.String())
	}
}
