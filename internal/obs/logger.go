package obs

import (
	"context"
	"fmt"
	"log"
	"log/slog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the logging context handed to long-lived components. There is
// no package level logger; a component with a nil Logger stays silent.
type Logger interface {
	Logf(level Level, format string, args ...any)
}

// NopLogger discards all logs.
type NopLogger struct{}

func (NopLogger) Logf(level Level, format string, args ...any) {}

// StdLogger adapts the standard library logger.
type StdLogger struct {
	L    *log.Logger
	Min  Level
	Pref string // optional prefix per log line
}

func (s StdLogger) Logf(level Level, format string, args ...any) {
	if s.L == nil || level < s.Min {
		return
	}
	if s.Pref != "" {
		s.L.Printf("%s[%s] "+format, append([]any{s.Pref, level.String()}, args...)...)
	} else {
		s.L.Printf("[%s] "+format, append([]any{level.String()}, args...)...)
	}
}

// SlogLogger forwards to a structured slog.Logger. The formatted message
// becomes the record message; Attrs are attached to every record.
type SlogLogger struct {
	L     *slog.Logger
	Attrs []slog.Attr
}

func (s SlogLogger) Logf(level Level, format string, args ...any) {
	l := s.L
	if l == nil {
		l = slog.Default()
	}
	lvl := slogLevel(level)
	ctx := context.Background()
	if !l.Enabled(ctx, lvl) {
		return
	}
	l.LogAttrs(ctx, lvl, fmt.Sprintf(format, args...), s.Attrs...)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
