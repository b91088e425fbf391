package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "tiktask/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyListPrefix = "task:list:"
	keyAll        = "task:all"
)

// TaskCache caches per-user task lists and the admin listing in Redis.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func listKey(userID int64) string {
	return keyListPrefix + strconv.FormatInt(userID, 10)
}

// GetList returns the cached list for a user, or nil if miss.
func (c *TaskCache) GetList(ctx context.Context, userID int64) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, listKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores a user's list in cache.
func (c *TaskCache) SetList(ctx context.Context, userID int64, list []dom.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(userID), b, c.ttl).Err()
}

// GetAll returns the cached admin listing, or nil if miss.
func (c *TaskCache) GetAll(ctx context.Context) ([]dom.TaskWithOwner, error) {
	b, err := c.rdb.Get(ctx, keyAll).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.TaskWithOwner
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetAll stores the admin listing in cache.
func (c *TaskCache) SetAll(ctx context.Context, list []dom.TaskWithOwner) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyAll, b, c.ttl).Err()
}

// Invalidate removes the user's list and the admin listing
// (cache invalidation on write).
func (c *TaskCache) Invalidate(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, listKey(userID), keyAll).Err()
}
