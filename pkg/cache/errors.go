package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNotFound is returned when a key does not exist in a tier or has expired.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrClosed is returned when an operation is attempted on a closed cache.
	ErrClosed = errors.New("cache: closed")

	// ErrUnavailable is returned by the remote tier while it is unreachable or
	// cooling down after a failure. The manager never surfaces it to callers.
	ErrUnavailable = errors.New("cache: remote tier unavailable")

	// ErrInvalidPolicy is returned when a namespace policy fails validation.
	// Policy errors are startup-fatal: they are reported at registration,
	// before the process accepts traffic.
	ErrInvalidPolicy = errors.New("cache: invalid namespace policy")

	// ErrDuplicateNamespace is returned when a namespace is registered twice.
	ErrDuplicateNamespace = errors.New("cache: namespace already registered")
)
