package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a redis container and returns a store connected to it
func setupRedis(t *testing.T) *RedisStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	store, err := NewRedisStore(ctx, endpoint, "", 0)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store := setupRedis(t)
	ctx := context.Background()

	t.Run("miss is not an error", func(t *testing.T) {
		_, ok, err := store.Get(ctx, PortfolioKey("none"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, PortfolioKey("p1"), []byte(`{"total":"2550"}`), time.Minute))
		v, ok, err := store.Get(ctx, PortfolioKey("p1"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"total":"2550"}`, string(v))
	})

	t.Run("invalidate removes both key families", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, PortfolioListKey("u1"), []byte(`[]`), time.Minute))
		require.NoError(t, store.Invalidate(ctx, PortfolioKey("p1"), PortfolioListKey("u1")))

		_, ok, err := store.Get(ctx, PortfolioKey("p1"))
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = store.Get(ctx, PortfolioListKey("u1"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ttl is applied", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, PortfolioKey("ttl"), []byte("x"), 15*time.Second))
		ttl, err := store.client.TTL(ctx, PortfolioKey("ttl")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 10*time.Second)
		assert.LessOrEqual(t, ttl, 15*time.Second)
	})

	t.Run("unreachable server surfaces an error", func(t *testing.T) {
		unreachable := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
		_, _, err := unreachable.Get(ctx, "k")
		assert.Error(t, err)
	})
}
