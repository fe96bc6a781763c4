package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var Client *redis.Client

// InitRedis initializes Redis connection
func InitRedis(addr, password string, db int) error {
	Client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx := context.Background()
	if err := Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✓ Redis connected successfully")
	return nil
}

// Close closes the Redis connection
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}

// AcquireLock takes a best-effort distributed lock via SETNX. Returns false
// when another holder owns the lock.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if Client == nil {
		// No Redis configured: behave as if the lock was acquired so a
		// single-instance deployment keeps working.
		return true, nil
	}
	return Client.SetNX(ctx, key, 1, ttl).Result()
}

// ReleaseLock releases a lock taken with AcquireLock
func ReleaseLock(ctx context.Context, key string) error {
	if Client == nil {
		return nil
	}
	return Client.Del(ctx, key).Err()
}
