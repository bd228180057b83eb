// Package logger builds the process-wide zerolog logger and the pgx
// query tracer derived from it. Loggers are constructed and passed
// down explicitly; nothing in this package mutates global state.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"orgdata/internal/config"
)

// New assembles a logger from LogConfig. Output goes to stdout, as
// JSON by default or through a ConsoleWriter when cfg.Console is set.
// When cfg.File is non-empty a size-rotated JSON copy is written there
// as well.
func New(cfg config.LogConfig, service, environment string) zerolog.Logger {
	return newLogger(cfg, service, environment, os.Stdout)
}

func newLogger(cfg config.LogConfig, service, environment string, out io.Writer) zerolog.Logger {
	var writer io.Writer = out
	if cfg.Console {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	if cfg.File != "" {
		if err := ensureLogDir(cfg.File); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.FileMaxSizeMB,
				MaxBackups: cfg.FileMaxBackups,
				MaxAge:     cfg.FileMaxAgeDays,
				Compress:   cfg.FileCompress,
			}
			writer = zerolog.MultiLevelWriter(writer, fileWriter)
		}
		// On failure the console writer alone is kept; the first log
		// lines will still land somewhere visible.
	}

	return zerolog.New(writer).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", service).
		Str("env", environment).
		Logger()
}

// NewQueryTracer adapts the application logger into a pgx tracer. The
// tracer's verbosity follows the logger's level: full statement logging
// only at debug and below, errors always.
func NewQueryTracer(log zerolog.Logger) *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger:   pgxzero.NewLogger(log),
		LogLevel: queryTraceLevel(log.GetLevel()),
	}
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// queryTraceLevel maps a zerolog level onto the tracelog threshold.
// Statement-level tracing is noisy, so it is gated behind debug.
func queryTraceLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	default:
		return tracelog.LogLevelError
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
