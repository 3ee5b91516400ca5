// Package cache keeps the task list in Redis between writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"task-api/models"
)

const listKey = "tasks:list"

// TaskListCache stores the full task list under a single key.
type TaskListCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a cache on top of an existing client.
func New(client *redis.Client, prefix string, ttl time.Duration) *TaskListCache {
	return &TaskListCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Connect dials addr and verifies the server answers.
func Connect(ctx context.Context, addr string, ttl time.Duration) (*TaskListCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return New(client, "task-api:", ttl), nil
}

// GetTaskList returns the cached list. A miss returns (nil, false, nil).
func (c *TaskListCache) GetTaskList(ctx context.Context) ([]models.Task, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+listKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return tasks, true, nil
}

func (c *TaskListCache) SetTaskList(ctx context.Context, tasks []models.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+listKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *TaskListCache) DeleteTaskList(ctx context.Context) error {
	if err := c.client.Del(ctx, c.prefix+listKey).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (c *TaskListCache) Close() error {
	return c.client.Close()
}
