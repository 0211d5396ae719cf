package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger es un alias fino sobre zerolog para no regar el import por todo el repo.
type Logger = zerolog.Logger

type Options struct {
	App    string
	Level  string // debug|info|warn|error (default info)
	Format string // json|console (default json)
	Output io.Writer
}

// New arma el logger estructurado del servicio.
// Formato console solo para dev; en prod siempre json.
func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl := parseLevel(opts.Level)

	ctx := zerolog.New(out).With().Timestamp()
	if strings.TrimSpace(opts.App) != "" {
		ctx = ctx.Str("app", strings.TrimSpace(opts.App))
	}
	return ctx.Logger().Level(lvl)
}

// NewFromEnv crea logger desde env:
// - LOG_LEVEL=debug|info|warn|error (default info)
// - LOG_FORMAT=json|console (default json)
// - APP_NAME (opcional)
func NewFromEnv() Logger {
	return New(Options{
		App:    os.Getenv("APP_NAME"),
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

// Nop devuelve un logger que descarta todo (tests).
func Nop() Logger {
	return zerolog.Nop()
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(s); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}
