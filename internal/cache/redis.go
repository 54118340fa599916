package cache

import (
	"context"
	"fmt"
	"time"

	"example.com/backstage/services/farm/config"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when a key is absent, or when caching is disabled
var ErrCacheMiss = redis.Nil

// CacheClient is an interface for cache operations
type CacheClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Enabled() bool
	Close() error
}

// redisClient implements the CacheClient interface
type redisClient struct {
	client  *redis.Client
	enabled bool
}

// NewRedisClient creates a new Redis client. With caching disabled in the
// configuration every operation is a pass-through no-op and reads report a
// miss.
func NewRedisClient(cfg config.RedisConfig) (CacheClient, error) {
	if !cfg.Enabled {
		return &redisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisClient{client: client, enabled: true}, nil
}

// Prefix keys to avoid collisions
func DeviceStatusKey(deviceUID string) string {
	return fmt.Sprintf("device_status:%s", deviceUID)
}

func CropProfileKey(cropType string) string {
	return fmt.Sprintf("crop_profile:%s", cropType)
}

// Get retrieves a value from the cache
func (r *redisClient) Get(ctx context.Context, key string) (string, error) {
	if !r.enabled {
		return "", ErrCacheMiss
	}
	return r.client.Get(ctx, key).Result()
}

// Set stores a value in the cache with expiration
func (r *redisClient) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	if !r.enabled {
		return nil
	}
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Delete removes a key from the cache
func (r *redisClient) Delete(ctx context.Context, key string) error {
	if !r.enabled {
		return nil
	}
	return r.client.Del(ctx, key).Err()
}

// Ping checks connectivity for health reporting
func (r *redisClient) Ping(ctx context.Context) error {
	if !r.enabled {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Enabled reports whether a Redis backend is actually connected
func (r *redisClient) Enabled() bool {
	return r.enabled
}

// Close closes the Redis connection
func (r *redisClient) Close() error {
	if !r.enabled || r.client == nil {
		return nil
	}
	return r.client.Close()
}
