package cache

import "context"

// Get is the typed read-through entry point for call sites. It wraps
// [Manager.Get] and asserts the result to V.
//
// A nil loader result yields the zero value with a nil error: "no data" is
// a miss, never a cached entry. If the cached value's type does not match V
// (e.g. an incompatible deployment wrote a different shape into the shared
// store), the entry is evicted and loaded fresh: a type mismatch is a miss
// on that tier, not a caller-visible error.
func Get[V any](ctx context.Context, m *Manager, ns, key string, loader func(ctx context.Context) (V, error)) (V, error) {
	var zero V

	wrapped := func(ctx context.Context) (any, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		v, err := m.Get(ctx, ns, key, wrapped)
		if err != nil {
			return zero, err
		}
		if v == nil {
			return zero, nil
		}
		if typed, ok := v.(V); ok {
			return typed, nil
		}

		// Stale shape from another deployment: drop it and load fresh.
		if err := m.Evict(ctx, ns, key); err != nil {
			return zero, err
		}
	}

	// Second pass went through the loader, so V is guaranteed unless the
	// loader itself misbehaves; fail with the zero value either way.
	return zero, nil
}

// Refresh is the typed variant of [Manager.Refresh], used by warming jobs.
func Refresh[V any](ctx context.Context, m *Manager, ns, key string, loader func(ctx context.Context) (V, error)) (V, error) {
	var zero V

	v, err := m.Refresh(ctx, ns, key, func(ctx context.Context) (any, error) {
		val, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}

	typed, _ := v.(V)
	return typed, nil
}
