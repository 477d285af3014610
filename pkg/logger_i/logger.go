package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/akolanti/GoPDFChat/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger resolves the process handler on every call, so loggers built before
// Init still honour its level and sinks.
type Logger struct {
	attrs []any
}

// Init installs the process wide slog handler. A rotated file sink is added
// when a log file is configured.
func Init(settings config.LogSettings) io.Closer {
	options := &slog.HandlerOptions{
		Level: settings.Level,
	}

	var out io.Writer = os.Stdout
	var rotator *lumberjack.Logger
	if settings.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   settings.File,
			MaxSize:    config.LogFileMaxSizeMB,
			MaxBackups: config.LogFileMaxBackups,
			MaxAge:     config.LogFileMaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
	}

	var handler slog.Handler
	if settings.IsProd {
		if options.Level.Level() < config.LOG_LEVEL_PROD {
			options.Level = config.LOG_LEVEL_PROD
		}
		handler = slog.NewJSONHandler(out, options)
	} else {
		handler = slog.NewTextHandler(out, options)
	}
	slog.SetDefault(slog.New(handler))

	if rotator == nil {
		return nopCloser{}
	}
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func NewLogger(section string) *Logger {
	return &Logger{
		attrs: []any{"component", section},
	}
}

// FromContext scopes a logger to the trace id carried by ctx, if any.
func (l *Logger) FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok && trace != "" {
		return l.With("traceId", trace)
	}
	return l
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	inner := slog.Default()
	if !inner.Enabled(context.Background(), level) {
		return
	}
	inner.With(l.attrs...).Log(context.Background(), level, msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	return &Logger{
		attrs: append(attrs, args...),
	}
}
