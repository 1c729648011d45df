package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanoutHandler duplicates each record to every target, so one logger can
// feed stdout and an error tracker at the same time.
type fanoutHandler struct {
	targets []slog.Handler
}

func newFanoutHandler(targets ...slog.Handler) slog.Handler {
	return &fanoutHandler{targets: targets}
}

// Enabled reports true when at least one target would accept the level.
func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, target := range h.targets {
		if target.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every interested target. Each target gets
// its own clone, and a failing target does not starve the others.
func (h *fanoutHandler) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, target := range h.targets {
		if !target.Enabled(ctx, rec.Level) {
			continue
		}
		if err := target.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, target := range h.targets {
		targets[i] = target.WithAttrs(attrs)
	}
	return &fanoutHandler{targets: targets}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	targets := make([]slog.Handler, len(h.targets))
	for i, target := range h.targets {
		targets[i] = target.WithGroup(name)
	}
	return &fanoutHandler{targets: targets}
}
