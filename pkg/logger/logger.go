package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	LevelCritical = slog.Level(12)

	FormatJSON = "json"
	FormatText = "text"

	serviceName = "family-registry"
)

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Critical(message string, args ...any)
	BusinessError(message string, err error, args ...any)
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
	Named(component string) Logger
	FromContext(ctx context.Context) Logger
	Handler() slog.Handler
}

type Options struct {
	Level     slog.Level
	Format    string
	AddSource bool
	// Service is attached to every record; empty omits it.
	Service string
}

type slogLogger struct {
	base *slog.Logger
}

// NewFromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_SOURCE. ENV=development
// lowers the default level to debug.
func NewFromEnv() Logger {
	env := normalize(os.Getenv("ENV"))
	addSource, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("LOG_SOURCE")))
	return New(os.Stdout, Options{
		Level:     levelFor(os.Getenv("LOG_LEVEL"), env),
		Format:    formatFor(os.Getenv("LOG_FORMAT")),
		AddSource: addSource,
		Service:   serviceName,
	})
}

func New(output io.Writer, opts Options) Logger {
	handlerOptions := &slog.HandlerOptions{
		Level:       opts.Level,
		AddSource:   opts.AddSource,
		ReplaceAttr: renameCritical,
	}

	var handler slog.Handler
	if normalize(opts.Format) == FormatText {
		handler = slog.NewTextHandler(output, handlerOptions)
	} else {
		handler = slog.NewJSONHandler(output, handlerOptions)
	}

	base := slog.New(handler)
	if opts.Service != "" {
		base = base.With("service", opts.Service)
	}
	return &slogLogger{base: base}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &slogLogger{base: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelCritical + 1}))}
}

func (l *slogLogger) Debug(message string, args ...any) {
	l.base.Debug(message, args...)
}

func (l *slogLogger) Info(message string, args ...any) {
	l.base.Info(message, args...)
}

func (l *slogLogger) Warn(message string, args ...any) {
	l.base.Warn(message, args...)
}

func (l *slogLogger) Error(message string, args ...any) {
	l.base.Error(message, args...)
}

func (l *slogLogger) Critical(message string, args ...any) {
	l.base.Log(context.Background(), LevelCritical, message, args...)
}

// BusinessError logs expected domain failures (not found, forbidden,
// conflicts) at warn. Nil errors are ignored.
func (l *slogLogger) BusinessError(message string, err error, args ...any) {
	l.logErr(slog.LevelWarn, message, err, args)
}

// InternalError logs unexpected failures at error. Nil errors are ignored.
func (l *slogLogger) InternalError(message string, err error, args ...any) {
	l.logErr(slog.LevelError, message, err, args)
}

func (l *slogLogger) logErr(level slog.Level, message string, err error, args []any) {
	if err == nil {
		return
	}
	l.base.Log(context.Background(), level, message, append([]any{"err", err}, args...)...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{base: l.base.With(args...)}
}

// Named tags records with the subsystem that wrote them, e.g. "audit" or
// "integrity".
func (l *slogLogger) Named(component string) Logger {
	return l.With("component", component)
}

// FromContext tags the logger with the request id chi assigned to ctx, if any.
func (l *slogLogger) FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	if requestID := chimw.GetReqID(ctx); requestID != "" {
		return l.With("request_id", requestID)
	}
	return l
}

func (l *slogLogger) Handler() slog.Handler {
	return l.base.Handler()
}

func levelFor(value, env string) slog.Level {
	switch normalize(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	case "info":
		return slog.LevelInfo
	}
	if env == "development" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func formatFor(value string) string {
	if normalize(value) == FormatText {
		return FormatText
	}
	return FormatJSON
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func renameCritical(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}
	if level, ok := attr.Value.Any().(slog.Level); ok && level == LevelCritical {
		attr.Value = slog.StringValue("CRITICAL")
	}
	return attr
}
