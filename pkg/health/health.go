package health

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultTimeout = 5 * time.Second

	// StatusHealthy indicates all gating checks passed.
	StatusHealthy = "healthy"
	// StatusUnhealthy indicates one or more gating checks failed.
	StatusUnhealthy = "unhealthy"
	// StatusDegraded indicates gating checks passed but an informational
	// check failed. The service keeps accepting traffic.
	StatusDegraded = "degraded"
)

// CheckFunc is the standard health check function signature, matching the
// healthcheck closures in the redis and cache packages.
type CheckFunc func(ctx context.Context) error

// Checks is a map of named health check functions.
type Checks map[string]CheckFunc

// Response represents a health check response.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check represents the status of a single health check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type config struct {
	logger        *slog.Logger
	timeout       time.Duration
	informational Checks
}

// Option configures health check behavior.
type Option func(*config)

// WithTimeout sets the timeout for all checks.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed-check logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInformational adds non-gating checks. Their failures surface in the
// response body and flip the status to degraded, but never return 503: a
// cache tier outage is an operator's concern, not a reason to pull the
// instance out of rotation while it can still serve from its local tier.
func WithInformational(checks Checks) Option {
	return func(c *config) {
		c.informational = checks
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// runChecks executes gating and informational checks in parallel and
// aggregates the result.
func runChecks(ctx context.Context, checks Checks, cfg *config) *Response {
	total := len(checks) + len(cfg.informational)
	if total == 0 {
		return &Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		results     = make(map[string]Check, total)
		gatingError bool
		infoError   bool
	)

	run := func(name string, check CheckFunc, gating bool) {
		defer wg.Done()

		result := Check{Status: StatusHealthy}
		if err := check(ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Error = err.Error()
			cfg.logger.WarnContext(ctx, "health check failed",
				slog.String("check", name),
				slog.Bool("gating", gating),
				slog.String("error", err.Error()),
			)
			mu.Lock()
			if gating {
				gatingError = true
			} else {
				infoError = true
			}
			mu.Unlock()
		}

		mu.Lock()
		results[name] = result
		mu.Unlock()
	}

	for name, check := range checks {
		wg.Add(1)
		go run(name, check, true)
	}
	for name, check := range cfg.informational {
		wg.Add(1)
		go run(name, check, false)
	}

	wg.Wait()

	status := StatusHealthy
	switch {
	case gatingError:
		status = StatusUnhealthy
	case infoError:
		status = StatusDegraded
	}

	return &Response{
		Status: status,
		Checks: results,
	}
}
