package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var out bytes.Buffer
	log := NewLogger(&out, LogLevelWarn, "test")

	log.Debug("dropped %d", 1)
	log.Info("dropped too")
	log.Warn("kept: %s", "warning")
	log.Error("kept: %s", "error")

	got := out.String()
	if strings.Contains(got, "dropped") {
		t.Errorf("output contains filtered levels: %q", got)
	}
	if !strings.Contains(got, "[WARN] test: kept: warning") {
		t.Errorf("output = %q, want warn line with prefix", got)
	}
	if !strings.Contains(got, "[ERROR] test: kept: error") {
		t.Errorf("output = %q, want error line", got)
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var out bytes.Buffer
	log := NewLogger(&out, LogLevelError, "")

	log.Info("before")
	log.SetLevel(LogLevelDebug)
	log.Info("after")

	got := out.String()
	if strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("output = %q, want only the post-SetLevel line", got)
	}
}

func TestNullLoggerIsSilent(t *testing.T) {
	// Must not panic with a nil writer.
	NullLogger.Error("into the void %d", 42)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogLevelString(t *testing.T) {
	if LogLevelDebug.String() != "DEBUG" || LogLevelError.String() != "ERROR" {
		t.Error("level names wrong")
	}
	if LogLevel(99).String() != "UNKNOWN" {
		t.Error("out-of-range level should be UNKNOWN")
	}
}
