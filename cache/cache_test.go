package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-api/models"
)

func testRedisAddr() string {
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// setupTestCache requires a Redis server and skips otherwise.
func setupTestCache(t *testing.T, ttl time.Duration) *TaskListCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr()})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr(), err)
	}

	c := New(client, "task-api-test:", ttl)
	require.NoError(t, c.DeleteTaskList(ctx))
	t.Cleanup(func() {
		_ = c.DeleteTaskList(context.Background())
		client.Close()
	})
	return c
}

func TestTaskListCache_RoundTrip(t *testing.T) {
	c := setupTestCache(t, time.Minute)
	ctx := context.Background()

	_, hit, err := c.GetTaskList(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	want := []models.Task{
		{ID: 1, Title: "Buy milk", Description: "2%", Status: models.StatusPending, CreatedAt: time.Now().UTC().Truncate(time.Second)},
	}
	require.NoError(t, c.SetTaskList(ctx, want))

	got, hit, err := c.GetTaskList(ctx)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want, got)

	require.NoError(t, c.DeleteTaskList(ctx))
	_, hit, err = c.GetTaskList(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestTaskListCache_EmptyListIsAHit(t *testing.T) {
	c := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetTaskList(ctx, []models.Task{}))

	got, hit, err := c.GetTaskList(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, got)
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, "127.0.0.1:1", time.Minute)
	assert.Error(t, err)
}
