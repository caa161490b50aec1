package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/odoyewu/odoyewu/internal/config"
	apperrors "github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// ErrCacheMiss is returned when a key is absent or its entry has expired
var ErrCacheMiss = errors.New("cache miss")

// DefaultTTL applies when a caller passes a zero TTL
const DefaultTTL = time.Hour

const (
	cachePrefix  = "cache:"
	entryVersion = "1.0"
)

// RedisClientInterface is the subset of the Redis client the service uses
type RedisClientInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisService stores JSON values in Redis
type RedisService struct {
	client RedisClientInterface
}

// CacheEntry wraps cached data with the time it was written
type CacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	TTL       int             `json:"ttl"`
	Version   string          `json:"version"`
}

// NewRedisService connects to Redis and verifies the connection with a ping.
// When instrumented is set the client gets the OpenTelemetry tracing hook.
func NewRedisService(ctx context.Context, cfg config.RedisConfig, instrumented bool) (*RedisService, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"operation":    "redis_connection",
		"service":      "cache",
		"host":         cfg.Host,
		"port":         cfg.Port,
		"db":           cfg.DB,
		"pool_size":    cfg.PoolSize,
		"instrumented": instrumented,
	})

	logger.Info("Establishing Redis connection")

	client := redis.NewClient(&redis.Options{
		Addr:       net.JoinHostPort(cfg.Host, cfg.Port),
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: 3,
	})
	if instrumented {
		telemetry.InstrumentRedisClient(client)
		logger.Debug("OpenTelemetry tracing hook added to Redis client")
	}

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connected successfully")
	return NewRedisServiceWithClient(client), nil
}

// NewRedisServiceWithClient wraps an existing client
func NewRedisServiceWithClient(client RedisClientInterface) *RedisService {
	return &RedisService{client: client}
}

// Set stores value as JSON. A zero ttl means DefaultTTL.
func (r *RedisService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"operation":   "redis_set",
		"key":         key,
		"ttl_seconds": ttl.Seconds(),
		"service":     "cache",
	})

	data, err := json.Marshal(value)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal value for cache")
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.WithError(err).Error("Failed to set cache value")
		return apperrors.NewCacheError("set", err).WithMetadata("key", key)
	}
	logger.Debug("Cache value set successfully")
	return nil
}

// Get decodes the JSON value stored at key into dest
func (r *RedisService) Get(ctx context.Context, key string, dest interface{}) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"operation": "redis_get",
		"key":       key,
		"service":   "cache",
	})

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logger.Debug("Cache miss - key not found")
			return ErrCacheMiss
		}
		logger.WithError(err).Error("Failed to get cache value")
		return apperrors.NewCacheError("get", err).WithMetadata("key", key)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		logger.WithError(err).Error("Failed to unmarshal cache value")
		return apperrors.NewCacheError("decode", err).WithMetadata("key", key)
	}
	return nil
}

// Delete removes a key
func (r *RedisService) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
			"operation": "redis_delete",
			"key":       key,
			"service":   "cache",
		}).WithError(err).Error("Failed to delete cache key")
		return apperrors.NewCacheError("delete", err).WithMetadata("key", key)
	}
	return nil
}

// SetCache stores data in a timestamped envelope under the cache namespace
func (r *RedisService) SetCache(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entry := CacheEntry{
		Data:      raw,
		Timestamp: time.Now(),
		TTL:       int(ttl.Seconds()),
		Version:   entryVersion,
	}
	return r.Set(ctx, cachePrefix+key, entry, ttl)
}

// GetCache loads data written by SetCache. Entries older than their TTL are
// treated as misses even if Redis has not evicted them yet. Entries of another
// version or that no longer decode into dest are removed and reported as
// misses.
func (r *RedisService) GetCache(ctx context.Context, key string, dest interface{}) error {
	var entry CacheEntry
	if err := r.Get(ctx, cachePrefix+key, &entry); err != nil {
		if isDecodeError(err) {
			return r.evict(ctx, key)
		}
		return err
	}
	if time.Since(entry.Timestamp) > time.Duration(entry.TTL)*time.Second {
		return ErrCacheMiss
	}
	if entry.Version != entryVersion {
		return r.evict(ctx, key)
	}
	if err := json.Unmarshal(entry.Data, dest); err != nil {
		return r.evict(ctx, key)
	}
	return nil
}

func isDecodeError(err error) bool {
	appErr, ok := apperrors.As(err)
	return ok && appErr.Type == apperrors.ErrorTypeCache && appErr.Metadata["operation"] == "decode"
}

func (r *RedisService) evict(ctx context.Context, key string) error {
	telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"operation": "redis_evict",
		"key":       key,
		"service":   "cache",
	}).Warn("Dropping unreadable cache entry")
	if err := r.DeleteCache(ctx, key); err != nil {
		return err
	}
	return ErrCacheMiss
}

// DeleteCache removes data written by SetCache
func (r *RedisService) DeleteCache(ctx context.Context, key string) error {
	return r.Delete(ctx, cachePrefix+key)
}

// DeletePattern removes keys matching a glob pattern
func (r *RedisService) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, apperrors.NewCacheError("keys", err).WithMetadata("pattern", pattern)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return r.client.Del(ctx, keys...).Result()
}

// InvalidateAll removes every entry in the cache namespace
func (r *RedisService) InvalidateAll(ctx context.Context) error {
	_, err := r.DeletePattern(ctx, cachePrefix+"*")
	return err
}

// HealthCheck pings Redis
func (r *RedisService) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisService) Close() error {
	return r.client.Close()
}
