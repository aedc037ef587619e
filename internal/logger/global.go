package logger

import (
	"os"
	"strings"
	"sync/atomic"
)

var global atomic.Pointer[Logger]

func init() {
	l := NewDefault()
	configureFromEnv(l)
	global.Store(l)
}

func configureFromEnv(l *Logger) {
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if level, ok := ParseLevel(s); ok {
			l.SetLevel(level)
		}
	}
	if s := os.Getenv("LOG_FORMAT"); s != "" {
		if format, ok := ParseFormat(s); ok {
			l.SetFormat(format)
		}
	}
}

// ParseLevel parses a case-insensitive level name
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "FATAL":
		return FATAL, true
	default:
		return INFO, false
	}
}

// ParseFormat parses "json" or "text"
func ParseFormat(format string) (LogFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONFormat, true
	case "text":
		return TextFormat, true
	default:
		return TextFormat, false
	}
}

// Global returns the process-wide logger
func Global() *Logger {
	return global.Load()
}

// SetGlobal replaces the process-wide logger
func SetGlobal(l *Logger) {
	global.Store(l)
}

// Component returns a child of the global logger for the named component
func Component(name string) *Logger {
	return Global().WithComponent(name)
}

func Debug(message string, fields ...Fields) {
	Global().log(2, DEBUG, message, first(fields), nil)
}

func Info(message string, fields ...Fields) {
	Global().log(2, INFO, message, first(fields), nil)
}

func Warn(message string, fields ...Fields) {
	Global().log(2, WARN, message, first(fields), nil)
}

func Error(message string, err error, fields ...Fields) {
	Global().log(2, ERROR, message, first(fields), err)
}

func Fatal(message string, err error, fields ...Fields) {
	Global().log(2, FATAL, message, first(fields), err)
}
