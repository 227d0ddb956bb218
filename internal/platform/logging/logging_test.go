package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want zapcore.Level
	}{
		{raw: "", want: zapcore.InfoLevel},
		{raw: "debug", want: zapcore.DebugLevel},
		{raw: " WARN ", want: zapcore.WarnLevel},
		{raw: "error", want: zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.raw)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected unknown level error")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestNewWritesJSONEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.json")
	logger, err := New(Config{Level: "debug", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("turn committed")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(raw))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if entry["msg"] != "turn committed" {
		t.Fatalf("msg = %v, want %q", entry["msg"], "turn committed")
	}
	if entry["level"] != "DEBUG" {
		t.Fatalf("level = %v, want DEBUG", entry["level"])
	}
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	if OrNop(nil) == nil {
		t.Fatal("expected no-op logger")
	}
}
