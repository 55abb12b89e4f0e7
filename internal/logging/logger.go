// Package logging provides the file-backed logger shared by the TUI and the
// maintenance CLI. The TUI owns the terminal, so nothing here may write to
// stdout or stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger instance. Nil until Init succeeds; the
	// package-level helpers tolerate that so early startup code can log freely.
	Logger *log.Logger

	logFile *os.File
)

// Init opens ~/.paperwave/logs/paperwave-DATE.log and installs the global
// logger. level accepts the charmbracelet/log level names ("debug", "info",
// "warn", "error"); unknown values fall back to info.
func Init(level string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("logging: resolve home directory: %w", err)
	}

	logDir := filepath.Join(homeDir, ".paperwave", "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("logging: create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("paperwave-%s.log", time.Now().Format("2006-01-02")))
	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("logging: open log file: %w", err)
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	Logger = log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	})

	Logger.Info("paperwave started", "version", Version)
	return nil
}

// Version is stamped into the startup log line.
const Version = "1.0.0"

// Close flushes the shutdown line and releases the log file.
func Close() {
	if Logger != nil {
		Logger.Info("paperwave shutting down")
	}
	if logFile != nil {
		logFile.Close()
	}
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// WithPrefix returns a subsystem logger, or nil before Init.
func WithPrefix(prefix string) *log.Logger {
	if Logger != nil {
		return Logger.WithPrefix(prefix)
	}
	return nil
}
