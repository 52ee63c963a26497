package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger and tags every record with a component.
type Logger struct {
	*slog.Logger
	root      *slog.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

// New builds a logger writing text records to cfg.Output, or through
// cfg.Handler when one is given.
func New(cfg Config) *Logger {
	handler := cfg.Handler
	if handler == nil {
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	}
	if cfg.Component == "" {
		cfg.Component = ComponentApp
	}
	return newLogger(slog.New(handler), cfg.Component)
}

// Wrap adapts a plain slog.Logger. A nil logger wraps slog.Default.
func Wrap(l *slog.Logger, component string) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return newLogger(l, component)
}

func newLogger(root *slog.Logger, component string) *Logger {
	return &Logger{
		Logger:    root.With(FieldComponent, component),
		root:      root,
		component: component,
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		root:      l.root.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger tagged with a different component. Other
// attributes added with With are kept.
func (l *Logger) WithComponent(component string) *Logger {
	return newLogger(l.root, component)
}

// WithFields attaches a prepared set of fields.
func (l *Logger) WithFields(f LogFields) *Logger {
	return l.With(f.ToSlice()...)
}

func (l *Logger) Component() string {
	return l.component
}

// Slog returns the underlying slog.Logger for libraries that expect one.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or one wrapping
// slog.Default when there is none.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return Wrap(slog.Default(), "unknown")
}
