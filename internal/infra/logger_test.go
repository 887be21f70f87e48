package infra

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for name, want := range tests {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", name, want, got)
		}
	}
}

func TestNewLogger_WritesRotatingFile(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "warn"
	cfg.Logging.Dir = filepath.Join(t.TempDir(), "logs")

	logger := NewLogger(cfg)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected info to be disabled at warn level")
	}
	logger.Warn("listing rejected", slog.String("op", "sell"))

	data, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, "market.log"))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected log file to contain the warning")
	}
}
