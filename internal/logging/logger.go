// Package logging writes the human-readable log. The terminal belongs to
// the UI, so everything goes to a dated file under the data directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is nil until Init or SetOutput; helpers are no-ops until then.
	Logger *log.Logger

	logFile *os.File
)

// Init opens <dir>/logs/tatami-YYYY-MM-DD.log at the given level
// ("debug", "info", "warn", "error"; empty means info).
func Init(dir, level string) error {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}

	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("tatami-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	SetOutput(f, lvl)
	return nil
}

// SetOutput points the package logger at w. Tests use it with a buffer.
func SetOutput(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
}

// Close flushes and closes the log file.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	Logger = nil
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// WithPrefix returns a prefixed child logger, or nil before Init.
func WithPrefix(prefix string) *log.Logger {
	if Logger != nil {
		return Logger.WithPrefix(prefix)
	}
	return nil
}
