//go:build integration

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

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisStepTracker_Integration(t *testing.T) {
	ctx := context.Background()
	tracker, err := NewRedisStepTracker(ctx, &redis.Options{Addr: startRedis(t)})
	require.NoError(t, err)
	defer tracker.Close()

	done, err := tracker.IsCompleted(ctx, "plan-1:update:a")
	require.NoError(t, err)
	assert.False(t, done)

	first, err := tracker.MarkCompleted(ctx, "plan-1:update:a", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := tracker.MarkCompleted(ctx, "plan-1:update:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, again, "second writer loses")

	done, err = tracker.IsCompleted(ctx, "plan-1:update:a")
	require.NoError(t, err)
	assert.True(t, done)

	_, err = tracker.MarkCompleted(ctx, "plan-1:short", time.Second)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		ok, err := tracker.IsCompleted(ctx, "plan-1:short")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}
