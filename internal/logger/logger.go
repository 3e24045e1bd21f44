package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(io.Discard)

type ctxKey struct{}

// Init configures the global logger. Output goes to stderr so that
// stdout stays free for command results and the MCP stdio transport.
func Init(env, level string) {
	InitWriter(os.Stderr, env, level)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, env, level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	output := w
	if env == "development" || env == "dev" || env == "" {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log = zerolog.New(output).With().Timestamp().Logger()
}

// Get returns the global logger.
func Get() *zerolog.Logger {
	return &log
}

// WithContext returns the logger stored in ctx, or the global one.
func WithContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &log
}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
