package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"kafji.net/hidstate/console"
)

var level = new(slog.LevelVar)

func init() {
	h := slog.NewTextHandler(console.Writer, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// SetLogLevel changes the level of every logger. Unknown names fall back to
// info.
func SetLogLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

type Logger struct {
	namespace string
}

func NewLogger(namespace string) *Logger {
	return &Logger{namespace: namespace}
}

func (l *Logger) transform(msg string) string {
	return fmt.Sprintf("%s: %s", l.namespace, msg)
}

func (l *Logger) Enabled(lvl slog.Level) bool {
	return lvl >= level.Level()
}

func (l *Logger) Debug(msg string, args ...any) {
	slog.Debug(l.transform(msg), args...)
}

func (l *Logger) Info(msg string, args ...any) {
	slog.Info(l.transform(msg), args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	slog.Warn(l.transform(msg), args...)
}

func (l *Logger) Error(msg string, args ...any) {
	slog.Error(l.transform(msg), args...)
}
