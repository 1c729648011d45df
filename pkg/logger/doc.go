// Package logger provides structured logging with context extraction and
// Sentry integration, built on the standard library's log/slog.
//
// # Usage
//
// Create a logger with context extractors that inject request-scoped values
// on every log call:
//
//	requestID := func(ctx context.Context) (slog.Attr, bool) {
//		if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
//			return slog.String("request_id", id), true
//		}
//		return slog.Attr{}, false
//	}
//
//	log := logger.New(requestID)
//	log.InfoContext(ctx, "request processed", slog.Int("status", 200))
//
// # Sentry
//
// [NewWithSentry] additionally ships warnings and errors to Sentry. An empty
// DSN falls back to stdout-only logging, so development and production share
// one code path:
//
//	log := logger.NewWithSentry(logger.SentryConfig{
//		DSN:      os.Getenv("SENTRY_DSN"),
//		MinLevel: slog.LevelWarn,
//	})
//
// [NewNope] returns a discard-everything logger for components where logging
// was not configured.
package logger
