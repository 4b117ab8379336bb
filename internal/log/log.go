// Package log configures the default slog logger and allows to pass
// a logger around via context.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Debug enables debug logging and debug artifacts (screenshots, html dumps)
// across the application.
var Debug bool

type ctxKey struct{}

// LoggerCtxKey is the context key under which a logger can be stored.
var LoggerCtxKey = ctxKey{}

func GetLogLevel() slog.Level {
	if Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func InitializeDefaultLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: GetLogLevel()}))
	slog.SetDefault(logger)
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerCtxKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
