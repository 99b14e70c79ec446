package resultcache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/types"
)

// RedisConfig locates the Redis backend.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
}

// RedisClient stores serialized results in Redis with a server-side TTL.
type RedisClient struct {
	redisClient *redis.Client
	logger      *logrus.Logger

	hits   int64
	misses int64
}

func NewRedisClient(config RedisConfig, logger *logrus.Logger) (*RedisClient, error) {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	}
	if config.TLS {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, // #nosec G402
		}
	}
	redisClient := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithFields(logrus.Fields{
			"host":  config.Host,
			"port":  config.Port,
			"error": err.Error(),
		}).Error("failed to connect to redis")
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host": config.Host,
		"port": config.Port,
	}).Info("redis result cache connected")

	return &RedisClient{redisClient: redisClient, logger: logger}, nil
}

// NewRedisClientWithBackend wraps an existing redis client, used by tests.
func NewRedisClientWithBackend(redisClient *redis.Client, logger *logrus.Logger) *RedisClient {
	return &RedisClient{redisClient: redisClient, logger: logger}
}

func (c *RedisClient) Get(ctx context.Context, text string, direction types.Direction) (*types.SecurityResult, error) {
	raw, err := c.redisClient.Get(ctx, Key(text, direction)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddInt64(&c.misses, 1)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("result cache get failed: %w", err)
	}

	result := new(types.SecurityResult)
	if err := json.Unmarshal([]byte(raw), result); err != nil {
		return nil, fmt.Errorf("corrupt cached result: %w", err)
	}
	// Cached payloads are untrusted, re-derive is_safe.
	result.Normalize()

	atomic.AddInt64(&c.hits, 1)
	return result, nil
}

func (c *RedisClient) Set(ctx context.Context, text string, direction types.Direction, result *types.SecurityResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal scan result: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redisClient.Set(ctx, Key(text, direction), string(payload), ttl).Err(); err != nil {
		return fmt.Errorf("result cache set failed: %w", err)
	}
	return nil
}

func (c *RedisClient) ClearAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.redisClient.Scan(ctx, cursor, "scan:*", 100).Result()
		if err != nil {
			return fmt.Errorf("error scanning result cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.redisClient.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("error deleting result cache keys: %w", err)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (c *RedisClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("result cache unreachable: %w", err)
	}
	return nil
}

func (c *RedisClient) Statistics(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"backend": "redis",
		"hits":    atomic.LoadInt64(&c.hits),
		"misses":  atomic.LoadInt64(&c.misses),
	}
	if size, err := c.redisClient.DBSize(ctx).Result(); err == nil {
		stats["entries"] = size
	}
	return stats
}
