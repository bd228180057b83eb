package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"orgdata/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestQueryTraceLevel(t *testing.T) {
	cases := []struct {
		in   zerolog.Level
		want tracelog.LogLevel
	}{
		{zerolog.TraceLevel, tracelog.LogLevelTrace},
		{zerolog.DebugLevel, tracelog.LogLevelDebug},
		{zerolog.InfoLevel, tracelog.LogLevelError},
		{zerolog.WarnLevel, tracelog.LogLevelError},
	}
	for _, tc := range cases {
		if got := queryTraceLevel(tc.in); got != tc.want {
			t.Errorf("queryTraceLevel(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNewLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.LogConfig{Level: "debug"}, "orgdata", "local", &buf)

	if log.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}

	log.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "orgdata" {
		t.Errorf("expected service field orgdata, got %v", entry["service"])
	}
	if entry["env"] != "local" {
		t.Errorf("expected env field local, got %v", entry["env"])
	}
	if entry["message"] != "hello" {
		t.Errorf("expected message hello, got %v", entry["message"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestNewLoggerCreatesFileDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "orgdata.log")

	var buf bytes.Buffer
	log := newLogger(config.LogConfig{Level: "info", File: file, FileMaxSizeMB: 1}, "orgdata", "local", &buf)
	log.Info().Msg("rotate me")

	if _, err := os.Stat(filepath.Dir(file)); err != nil {
		t.Fatalf("expected log directory to exist: %v", err)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("rotate me")) {
		t.Error("expected primary writer to receive the entry as well")
	}
}

func TestNewQueryTracer(t *testing.T) {
	log := newLogger(config.LogConfig{Level: "debug"}, "orgdata", "local", &bytes.Buffer{})

	tracer := NewQueryTracer(log)
	if tracer.Logger == nil {
		t.Fatal("expected tracer logger to be set")
	}
	if tracer.LogLevel != tracelog.LogLevelDebug {
		t.Errorf("expected debug trace level, got %d", tracer.LogLevel)
	}
}
