package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tempwatch:sent:"

// Redis is a Store backed by a Redis instance, so debounce bookkeeping
// survives container restarts.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: 3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("state: connect to redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

// LastSent implements Store.
func (r *Redis) LastSent(ctx context.Context, key string) (time.Time, bool, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("state: redis get: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		// Corrupt record — treat as absent rather than blocking delivery.
		return time.Time{}, false, nil
	}
	return at, true, nil
}

// MarkSent implements Store.
func (r *Redis) MarkSent(ctx context.Context, key string, at time.Time) error {
	val := at.UTC().Format(time.RFC3339Nano)
	if err := r.client.Set(ctx, redisKeyPrefix+key, val, r.ttl).Err(); err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
