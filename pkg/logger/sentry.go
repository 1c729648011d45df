package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	// MinLevel determines which log levels are shipped to Sentry
	// (e.g., slog.LevelWarn for warnings and errors).
	MinLevel slog.Level
}

// NewWithSentry creates a logger that writes to both stdout and Sentry.
// An empty DSN or a failed Sentry init falls back to stdout only, so the
// same code path works locally and in production. For a cache-backed
// service this matters twice over: degraded-tier warnings are exactly the
// signals worth shipping, and logging must never become its own outage.
func NewWithSentry(cfg SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	stdoutHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	if cfg.DSN == "" {
		return slog.New(NewContextHandler(stdoutHandler, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(stdoutHandler).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewContextHandler(stdoutHandler, extractors...))
	}

	// Errors create Issues; lower levels are stored as logs for context.
	eventLevel := []slog.Level{slog.LevelError}
	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel == slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	sentryHandler := sentryslog.Option{
		EventLevel: eventLevel,
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	combined := newFanoutHandler(stdoutHandler, sentryHandler)

	return slog.New(NewContextHandler(combined, extractors...))
}
