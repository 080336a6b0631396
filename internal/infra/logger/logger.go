package logger

import (
	"io"
	"log/slog"
	"os"
)

// New is the service logger: JSON on stdout, debug level in dev.
func New(env string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level(env)})).
		With("service", "portal-bot")
}

// NewConsole writes human-readable lines to w, for one-shot commands whose
// stdout carries results.
func NewConsole(w io.Writer, verbose bool) *slog.Logger {
	lvl := slog.LevelWarn
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func level(env string) slog.Level {
	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
