package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Config настройки логгера
type Config struct {
	Level  slog.Level
	Format string // text | json
	Output io.Writer
}

type contextKey string

const (
	ContextKeyUserID    contextKey = "user_id"
	ContextKeyReportID  contextKey = "report_id"
	ContextKeyOperation contextKey = "operation"
)

// Logger обёртка над slog.Logger
type Logger struct {
	*slog.Logger
}

// New создаёт логгер: tint для текстового вывода, JSON для машинного
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}

	if config.Format == "json" {
		opts := &slog.HandlerOptions{
			Level: config.Level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String(a.Key, a.Value.Time().Format(time.RFC3339))
				}
				return a
			},
		}
		return &Logger{Logger: slog.New(slog.NewJSONHandler(out, opts))}
	}

	return &Logger{Logger: slog.New(tint.NewHandler(out, &tint.Options{
		Level:      config.Level,
		TimeFormat: time.Kitchen,
	}))}
}

// FromConfig переводит строковые настройки в Config
func FromConfig(level, format string) Config {
	config := Config{Level: slog.LevelInfo, Format: "text"}

	switch level {
	case "debug":
		config.Level = slog.LevelDebug
	case "warn":
		config.Level = slog.LevelWarn
	case "error":
		config.Level = slog.LevelError
	}
	if format == "json" {
		config.Format = "json"
	}
	return config
}

// Nop логгер, который ничего не пишет; удобен в тестах
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithUserID кладёт ID пользователя в контекст
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// WithReportID кладёт ID отчёта в контекст
func WithReportID(ctx context.Context, reportID string) context.Context {
	return context.WithValue(ctx, ContextKeyReportID, reportID)
}

// WithContext добавляет к логгеру поля из контекста
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger
	if v, ok := ctx.Value(ContextKeyUserID).(int64); ok {
		logger = logger.With(slog.Int64(string(ContextKeyUserID), v))
	}
	if v, ok := ctx.Value(ContextKeyReportID).(string); ok && v != "" {
		logger = logger.With(slog.String(string(ContextKeyReportID), v))
	}
	if v, ok := ctx.Value(ContextKeyOperation).(string); ok && v != "" {
		logger = logger.With(slog.String(string(ContextKeyOperation), v))
	}
	return &Logger{Logger: logger}
}

// WithComponent добавляет имя компонента
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With(slog.String("component", component))}
}

// LogError пишет ошибку с контекстом
func (l *Logger) LogError(ctx context.Context, err error, msg string, args ...any) {
	allArgs := append([]any{"error", err}, args...)
	l.WithContext(ctx).Error(msg, allArgs...)
}

// LogOperation логирует начало и конец операции вместе с длительностью
func (l *Logger) LogOperation(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	logger := l.WithContext(ctx).With(slog.String("operation", operation))

	logger.Info("operation started")
	err := fn()
	duration := time.Since(start)

	if err != nil {
		logger.Error("operation failed", slog.Duration("duration", duration), slog.String("error", err.Error()))
	} else {
		logger.Info("operation completed", slog.Duration("duration", duration))
	}
	return err
}
