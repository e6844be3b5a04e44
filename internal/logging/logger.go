package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	debugLogger *log.Logger
	logFile     io.WriteCloser
	minLevel    = LevelInfo
)

// ParseLevel maps a config level name to a Level, defaulting to info
func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// InitLogger initializes the logger to write to a rotating file inside dir.
// The terminal belongs to the UI, so nothing is ever written to stdout.
func InitLogger(dir string, level Level) error {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "research-terminal.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	minLevel = level

	debugLogger = log.New(logFile, "", log.LstdFlags|log.Lmicroseconds)
	debugLogger.Printf("=== Research Terminal Log Started ===")

	return nil
}

// InitWriter sends log output to w; used by the proxy command and tests.
func InitWriter(w io.Writer, level Level) {
	logFile = nil
	minLevel = level
	debugLogger = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

func logf(level Level, prefix, format string, v ...interface{}) {
	if debugLogger != nil && level >= minLevel {
		debugLogger.Printf(prefix+format, v...)
	}
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	logf(LevelDebug, "[DEBUG] ", format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	logf(LevelInfo, "[INFO] ", format, v...)
}

// Warn logs a warning
func Warn(format string, v ...interface{}) {
	logf(LevelWarn, "[WARN] ", format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	logf(LevelError, "[ERROR] ", format, v...)
}

// Close closes the log file
func Close() {
	if logFile != nil {
		debugLogger.Printf("=== Research Terminal Log Ended ===")
		logFile.Close()
		logFile = nil
	}
}
