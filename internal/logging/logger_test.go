package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", cfg.Level)
	}
	if !cfg.Console {
		t.Error("Expected console output enabled")
	}
	if cfg.FilePath != "" {
		t.Errorf("Expected no file path, got %s", cfg.FilePath)
	}
}

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(Config{
		Level:      slog.LevelInfo,
		FilePath:   logFile,
		MaxSize:    1,
		MaxBackups: 1,
		Console:    false,
	})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("analysis started", "domain", "example.com")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("Log output is not JSON: %v (%s)", err, data)
	}

	if entry["msg"] != "analysis started" {
		t.Errorf("Unexpected message: %v", entry["msg"])
	}
	if entry["domain"] != "example.com" {
		t.Errorf("Unexpected domain attribute: %v", entry["domain"])
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewLogger(Config{
		Level:    slog.LevelWarn,
		FilePath: logFile,
		MaxSize:  1,
		Console:  false,
	})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("should be filtered")
	logger.Warn("should be written")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if string(data) == "" {
		t.Fatal("Expected warn output")
	}
	if countLines(string(data)) != 1 {
		t.Errorf("Expected 1 log line, got %d:\n%s", countLines(string(data)), data)
	}
}

func TestNewLoggerCreatesDirectory(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "dir", "test.log")

	if _, err := NewLogger(Config{FilePath: logFile, MaxSize: 1, Console: false}); err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if _, err := os.Stat(filepath.Dir(logFile)); err != nil {
		t.Errorf("Log directory not created: %v", err)
	}
}

func countLines(s string) int {
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}
