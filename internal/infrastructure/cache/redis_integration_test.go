//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisIdempotencyStore(t *testing.T) {
	client := startRedis(t)
	store := NewRedisIdempotencyStoreWithClient(client, "test:debounce:")
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "product:1", time.Second)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "product:1", time.Second)
	require.NoError(t, err)
	assert.False(t, isNew)

	processed, err := store.IsProcessed(ctx, "product:1")
	require.NoError(t, err)
	assert.True(t, processed)

	require.Eventually(t, func() bool {
		processed, err := store.IsProcessed(ctx, "product:1")
		return err == nil && !processed
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRedisSubscriptionCache(t *testing.T) {
	client := startRedis(t)
	c := NewRedisSubscriptionCacheWithClient(client, "test:subscription:")
	ctx := context.Background()

	got, err := c.Get(ctx, "shop@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, "Shop@example.com", integration.SubscriptionStatus{Valid: true, LastChecked: checked}, time.Hour))

	got, err = c.Get(ctx, "shop@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Valid)
	assert.True(t, got.LastChecked.Equal(checked))

	ttl, err := client.TTL(ctx, "test:subscription:shop@example.com").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}
