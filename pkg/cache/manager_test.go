package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/eshopkit/tiercache/pkg/cache"
	"github.com/eshopkit/tiercache/pkg/cachecodec"
)

// testRegistry declares a namespace with short TTLs so expiry is observable.
// The local TTL stays comfortably above the test client's failure latency, so
// an entry written right before an induced outage is still alive when the
// failed distributed read falls back to it.
func testRegistry(t *testing.T) *cache.Registry {
	t.Helper()

	r := cache.NewRegistry()
	require.NoError(t, r.Register("products", cache.Policy{
		LocalTTL:       300 * time.Millisecond,
		LocalAccessTTL: 600 * time.Millisecond,
		RemoteTTL:      time.Minute,
		MaxEntries:     100,
		Remote:         true,
	}))
	return r
}

func newTestManager(t *testing.T, opts ...cache.Option) (*cache.Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	// Fail fast: no retries and tight timeouts, so an induced outage costs
	// milliseconds instead of the client's default backoff schedule.
	client := goredis.NewClient(&goredis.Options{
		Addr:         mr.Addr(),
		MaxRetries:   -1,
		DialTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	remote := cache.NewRemote(client, cachecodec.NewRegistry())
	base := []cache.Option{
		cache.WithRemote(remote),
		cache.WithSweepInterval(time.Second),
	}
	m := cache.New(testRegistry(t), append(base, opts...)...)
	t.Cleanup(func() { _ = m.Close() })

	return m, mr
}

func staticLoader(v any) cache.Loader {
	return func(ctx context.Context) (any, error) { return v, nil }
}

func countingLoader(v any, calls *atomic.Int64) cache.Loader {
	return func(ctx context.Context) (any, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestManager_ReadThrough(t *testing.T) {
	t.Parallel()

	t.Run("miss loads once then serves from cache", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		ctx := context.Background()

		var calls atomic.Int64
		loader := countingLoader("widget", &calls)

		v, err := m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, "widget", v)

		v, err = m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, "widget", v)

		require.Equal(t, int64(1), calls.Load())
	})

	t.Run("shared entry wins over the loader", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		codec := cachecodec.NewRegistry()
		data, err := codec.Encode("written-by-another-instance")
		require.NoError(t, err)
		require.NoError(t, mr.Set("products:1", string(data)))

		v, err := m.Get(ctx, "products", "1", func(ctx context.Context) (any, error) {
			t.Fatal("loader must not run when the shared tier has the entry")
			return nil, nil
		})
		require.NoError(t, err)
		require.Equal(t, "written-by-another-instance", v)

		require.Equal(t, uint64(1), m.Stats()["products"].RemoteHits)
	})

	t.Run("local entry expires by write TTL and reloads", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		var calls atomic.Int64
		loader := countingLoader("v1", &calls)

		_, err := m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)

		// Expire both tiers: local by waiting out the TTL, shared by flushing.
		time.Sleep(350 * time.Millisecond)
		mr.FlushAll()

		_, err = m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("load repopulates the shared tier off the hot path", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		_, err := m.Get(ctx, "products", "1", staticLoader("widget"))
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return mr.Exists("products:1")
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("loader errors propagate and are never cached", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		ctx := context.Background()

		boom := errors.New("database down")
		var calls atomic.Int64

		loader := func(ctx context.Context) (any, error) {
			calls.Add(1)
			return nil, boom
		}

		_, err := m.Get(ctx, "products", "1", loader)
		require.ErrorIs(t, err, boom)

		_, err = m.Get(ctx, "products", "1", loader)
		require.ErrorIs(t, err, boom)
		require.Equal(t, int64(2), calls.Load(), "a failed load must not be cached")
	})

	t.Run("nil loader result is returned but never stored", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		var calls atomic.Int64
		loader := func(ctx context.Context) (any, error) {
			calls.Add(1)
			return nil, nil
		}

		v, err := m.Get(ctx, "products", "absent", loader)
		require.NoError(t, err)
		require.Nil(t, v)

		v, err = m.Get(ctx, "products", "absent", loader)
		require.NoError(t, err)
		require.Nil(t, v)

		require.Equal(t, int64(2), calls.Load(), "absence must not be cached")
		require.False(t, mr.Exists("products:absent"))
	})

	t.Run("typed nil pointer counts as no data", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		ctx := context.Background()

		var calls atomic.Int64
		loader := func(ctx context.Context) (any, error) {
			calls.Add(1)
			var p *string
			return p, nil
		}

		_, err := m.Get(ctx, "products", "absent", loader)
		require.NoError(t, err)
		_, err = m.Get(ctx, "products", "absent", loader)
		require.NoError(t, err)
		require.Equal(t, int64(2), calls.Load())
	})
}

func TestManager_SingleFlight(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	var calls atomic.Int64
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(30 * time.Millisecond) // let the herd pile up
		return "expensive", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 50)
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get(ctx, "products", "hot", loader)
			require.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), calls.Load(), "concurrent misses must share one load")
	for _, v := range results {
		require.Equal(t, "expensive", v)
	}
}

func TestManager_RemoteFallback(t *testing.T) {
	t.Parallel()

	t.Run("shared tier outage falls back to the local tier", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		var calls atomic.Int64
		loader := countingLoader("widget", &calls)

		_, err := m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)

		mr.Close()

		v, err := m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, "widget", v)
		require.Equal(t, int64(1), calls.Load(), "local tier must serve during the outage")
		require.Equal(t, cache.RemoteDegraded, m.RemoteState())
	})

	t.Run("full outage degrades to loader, not to an error", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		mr.Close()

		var calls atomic.Int64
		loader := countingLoader("fresh", &calls)

		v, err := m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, "fresh", v)

		// Within the local TTL the value is served from the local tier; the
		// outage costs one loader call, not one per request.
		v, err = m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, "fresh", v)
		require.Equal(t, int64(1), calls.Load())
	})

	t.Run("undecodable shared entry counts as a miss", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		require.NoError(t, mr.Set("products:1", "garbage"))

		v, err := m.Get(ctx, "products", "1", staticLoader("fallback"))
		require.NoError(t, err)
		require.Equal(t, "fallback", v)
		require.Equal(t, cache.RemoteHealthy, m.RemoteState())

		// The poisoned entry is dropped on first contact, so later reads
		// miss cleanly instead of re-fetching and re-logging it.
		stored, err := mr.Get("products:1")
		require.True(t, err != nil || stored != "garbage")
	})

	t.Run("abandoned request does not degrade the tier", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// The read still completes: the loader runs detached from the
		// caller's context so waiters sharing the flight get a result.
		v, err := m.Get(ctx, "products", "1", staticLoader("widget"))
		require.NoError(t, err)
		require.Equal(t, "widget", v)

		require.Equal(t, cache.RemoteHealthy, m.RemoteState(),
			"one client disconnect must not hide the shared tier from everyone")
	})

	t.Run("local-only manager works without a remote", func(t *testing.T) {
		t.Parallel()

		m := cache.New(testRegistry(t))
		defer m.Close()

		ctx := context.Background()
		v, err := m.Get(ctx, "products", "1", staticLoader("widget"))
		require.NoError(t, err)
		require.Equal(t, "widget", v)
		require.Equal(t, cache.RemoteDisabled, m.RemoteState())
		require.NoError(t, m.Healthcheck()(ctx))
	})
}

func TestManager_Eviction(t *testing.T) {
	t.Parallel()

	t.Run("evict clears both tiers", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		var calls atomic.Int64
		loader := countingLoader("widget", &calls)

		_, err := m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return mr.Exists("products:1")
		}, time.Second, 10*time.Millisecond)

		require.NoError(t, m.Evict(ctx, "products", "1"))
		require.False(t, mr.Exists("products:1"))

		_, err = m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("queued repopulation cannot resurrect an evicted entry", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		_, err := m.Get(ctx, "products", "1", staticLoader("stale"))
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return mr.Exists("products:1")
		}, time.Second, 10*time.Millisecond)
		mr.FlushAll()

		// A local hit against an empty shared tier queues an async repair.
		v, err := m.Get(ctx, "products", "1", staticLoader("unused"))
		require.NoError(t, err)
		require.Equal(t, "stale", v)

		require.NoError(t, m.Evict(ctx, "products", "1"))

		require.Never(t, func() bool {
			return mr.Exists("products:1")
		}, 300*time.Millisecond, 20*time.Millisecond,
			"the in-flight repair must not undo the eviction")
	})

	t.Run("evict succeeds while the shared tier is down", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		_, err := m.Get(ctx, "products", "1", staticLoader("widget"))
		require.NoError(t, err)

		mr.Close()

		require.NoError(t, m.Evict(ctx, "products", "1"))
	})

	t.Run("evict all clears one namespace", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		var calls atomic.Int64
		loader := countingLoader("v", &calls)

		_, err := m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		_, err = m.Get(ctx, "products", "2", loader)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return mr.Exists("products:1") && mr.Exists("products:2")
		}, time.Second, 10*time.Millisecond)

		require.NoError(t, m.EvictAll(ctx, "products"))
		require.False(t, mr.Exists("products:1"))
		require.False(t, mr.Exists("products:2"))

		_, err = m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, int64(3), calls.Load())
	})

	t.Run("reset clears every namespace", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		ctx := context.Background()

		var calls atomic.Int64
		loader := countingLoader("v", &calls)

		_, err := m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)

		require.NoError(t, m.Reset(ctx))

		_, err = m.Get(ctx, "products", "1", loader)
		require.NoError(t, err)
		require.Equal(t, int64(2), calls.Load())
	})
}

func TestManager_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("writes through both tiers without reading", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		_, err := m.Refresh(ctx, "products", "featured", staticLoader("v1"))
		require.NoError(t, err)
		require.True(t, mr.Exists("products:featured"))

		// A refresh replaces the entry even though the old one is still fresh.
		_, err = m.Refresh(ctx, "products", "featured", staticLoader("v2"))
		require.NoError(t, err)

		v, err := m.Get(ctx, "products", "featured", func(ctx context.Context) (any, error) {
			t.Fatal("refreshed entry must be served from cache")
			return nil, nil
		})
		require.NoError(t, err)
		require.Equal(t, "v2", v)
	})

	t.Run("nil refresh result evicts the key", func(t *testing.T) {
		t.Parallel()

		m, mr := newTestManager(t)
		ctx := context.Background()

		_, err := m.Refresh(ctx, "products", "featured", staticLoader("v1"))
		require.NoError(t, err)

		_, err = m.Refresh(ctx, "products", "featured", staticLoader(nil))
		require.NoError(t, err)
		require.False(t, mr.Exists("products:featured"))
	})
}

func TestManager_UnknownNamespace(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	// Never registered: served with the conservative default, not rejected.
	v, err := m.Get(ctx, "experimental", "1", staticLoader("data"))
	require.NoError(t, err)
	require.Equal(t, "data", v)

	_, ok := m.Stats()["experimental"]
	require.True(t, ok)
}

func TestManager_Stats(t *testing.T) {
	t.Parallel()

	m, mr := newTestManager(t)
	ctx := context.Background()

	var calls atomic.Int64
	loader := countingLoader("widget", &calls)

	_, err := m.Get(ctx, "products", "1", loader) // load
	require.NoError(t, err)

	// Let the async repopulation land, then force the next read onto the
	// local tier.
	require.Eventually(t, func() bool {
		return mr.Exists("products:1")
	}, time.Second, 10*time.Millisecond)
	mr.FlushAll()

	_, err = m.Get(ctx, "products", "1", loader) // local hit
	require.NoError(t, err)

	s := m.Stats()["products"]
	require.Equal(t, uint64(1), s.Loads)
	require.GreaterOrEqual(t, s.Local.Hits, uint64(1))
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close is idempotent")

	_, err := m.Get(context.Background(), "products", "1", staticLoader("v"))
	require.ErrorIs(t, err, cache.ErrClosed)
	require.ErrorIs(t, m.Evict(context.Background(), "products", "1"), cache.ErrClosed)
}

func TestTypedGet(t *testing.T) {
	t.Parallel()

	t.Run("returns the loader's type", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		ctx := context.Background()

		v, err := cache.Get(ctx, m, "products", "1", func(ctx context.Context) (string, error) {
			return "widget", nil
		})
		require.NoError(t, err)
		require.Equal(t, "widget", v)
	})

	t.Run("nil result yields the zero value", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		ctx := context.Background()

		v, err := cache.Get(ctx, m, "products", "absent", func(ctx context.Context) (*string, error) {
			return nil, nil
		})
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("shape mismatch evicts and reloads", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		ctx := context.Background()

		// Another call site cached an int under the same key.
		_, err := m.Refresh(ctx, "products", "1", staticLoader(int64(42)))
		require.NoError(t, err)

		var calls atomic.Int64
		v, err := cache.Get(ctx, m, "products", "1", func(ctx context.Context) (string, error) {
			calls.Add(1)
			return "widget", nil
		})
		require.NoError(t, err)
		require.Equal(t, "widget", v)
		require.Equal(t, int64(1), calls.Load(), "mismatch must fall through to the loader")
	})
}
