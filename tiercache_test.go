package tiercache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	tiercache "github.com/eshopkit/tiercache"
	"github.com/eshopkit/tiercache/pkg/cache"
	"github.com/eshopkit/tiercache/pkg/redis"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("local-only by default", func(t *testing.T) {
		t.Parallel()

		mgr, err := tiercache.New(context.Background())
		require.NoError(t, err)
		defer mgr.Close()

		require.Equal(t, cache.RemoteDisabled, mgr.RemoteState())

		v, err := mgr.Get(context.Background(), "products", "k",
			func(ctx context.Context) (any, error) { return "v", nil })
		require.NoError(t, err)
		require.Equal(t, "v", v)
	})

	t.Run("wires the distributed tier from a URL", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)

		mgr, err := tiercache.New(context.Background(),
			tiercache.WithRedisURL(fmt.Sprintf("redis://%s/0", mr.Addr())),
			tiercache.WithKeyPrefix("shop"),
		)
		require.NoError(t, err)
		defer mgr.Close()

		require.Equal(t, cache.RemoteHealthy, mgr.RemoteState())
	})

	t.Run("unreachable redis falls back to local-only", func(t *testing.T) {
		t.Parallel()

		mgr, err := tiercache.New(context.Background(),
			tiercache.WithRedisURL("redis://127.0.0.1:1/0",
				redis.WithRetry(1, 10*time.Millisecond),
				redis.WithDialTimeout(50*time.Millisecond),
			),
		)
		require.NoError(t, err)
		defer mgr.Close()

		require.Equal(t, cache.RemoteDisabled, mgr.RemoteState())
	})

	t.Run("required remote fails startup when unreachable", func(t *testing.T) {
		t.Parallel()

		_, err := tiercache.New(context.Background(),
			tiercache.WithRedisURL("redis://127.0.0.1:1/0",
				redis.WithRetry(1, 10*time.Millisecond),
				redis.WithDialTimeout(50*time.Millisecond),
			),
			tiercache.WithRequireRemote(),
		)
		require.ErrorIs(t, err, redis.ErrConnectionFailed)
	})
}
