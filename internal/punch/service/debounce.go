package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Debouncer rejects a second punch of the same employee inside a short
// window, which is what a double tap on the fingerprint gate produces
type Debouncer interface {
	// Acquire reports whether the window for key was free and claims it
	Acquire(ctx context.Context, key string) (bool, error)
	// Release frees the window, used when the claimed punch was refused
	Release(ctx context.Context, key string) error
}

// RedisDebouncer claims windows with SET NX PX. A nil client disables it.
type RedisDebouncer struct {
	client *redis.Client
	window time.Duration
}

// NewRedisDebouncer creates a debouncer over client
func NewRedisDebouncer(client *redis.Client, window time.Duration) *RedisDebouncer {
	return &RedisDebouncer{client: client, window: window}
}

// Acquire claims key for the window
func (d *RedisDebouncer) Acquire(ctx context.Context, key string) (bool, error) {
	if d.client == nil || d.window <= 0 {
		return true, nil
	}
	ok, err := d.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), d.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim punch window: %w", err)
	}
	return ok, nil
}

// Release drops key
func (d *RedisDebouncer) Release(ctx context.Context, key string) error {
	if d.client == nil || d.window <= 0 {
		return nil
	}
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release punch window: %w", err)
	}
	return nil
}

func debounceKey(companyID int64, employeeID string) string {
	return fmt.Sprintf("samtime:punch:%d:%s", companyID, employeeID)
}
