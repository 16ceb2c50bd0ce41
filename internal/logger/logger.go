// Package logger builds the slog logger for the client and the server
package logger

import (
	"io"
	"log/slog"
	"strings"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New returns a text logger for local runs and a JSON logger for dev and
// prod. An empty or unknown level falls back to debug for local and dev and
// to info for prod.
func New(env, level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(env, level)}

	switch env {
	case EnvDev, EnvProd:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

func parseLevel(env, level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err == nil && level != "" {
		return l
	}
	if env == EnvProd {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
