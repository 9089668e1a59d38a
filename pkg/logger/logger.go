package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Leveled logger used by every service binary.
// - JSON lines on stdout via log/slog
// - printf-style helpers (Debugf/Infof/Warnf/Errorf/Fatalf) plus With(...) for fields

var (
	mu    sync.RWMutex
	out   io.Writer = os.Stdout
	level           = new(slog.LevelVar)
	base            = newLogger(out)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Init sets the global log level (case-insensitive: debug, info, warn, error).
// Unknown values fall back to info. Call early during startup.
func Init(l string) {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error", "fatal":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	mu.RLock()
	l2 := base
	mu.RUnlock()
	slog.SetDefault(l2)
}

// SetOutput redirects log output; used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	base = newLogger(w)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// With returns a structured logger carrying the given key/value pairs.
func With(args ...any) *slog.Logger { return current().With(args...) }

func logf(lvl slog.Level, format string, v ...any) {
	l := current()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...any) { logf(slog.LevelDebug, format, v...) }
func Infof(format string, v ...any)  { logf(slog.LevelInfo, format, v...) }
func Warnf(format string, v ...any)  { logf(slog.LevelWarn, format, v...) }
func Errorf(format string, v ...any) { logf(slog.LevelError, format, v...) }

func Fatalf(format string, v ...any) {
	current().Error(fmt.Sprintf(format, v...), "fatal", true)
	os.Exit(1)
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	switch level.Level() {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	}
	return "info"
}
