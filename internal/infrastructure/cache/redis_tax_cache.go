package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultScanBatchSize = 100

// RedisTaxCache implements TaxDefinitionCache using Redis
type RedisTaxCache struct {
	client     *redis.Client
	ownsClient bool
	logger     *zap.Logger
}

// RedisConfig holds the connection settings of the Redis cache
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTaxCache connects to Redis and verifies the connection
func NewRedisTaxCache(cfg RedisConfig, logger *zap.Logger) (*RedisTaxCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTaxCache{client: client, ownsClient: true, logger: logger}, nil
}

// NewRedisTaxCacheWithClient wraps an existing client; the caller keeps ownership
func NewRedisTaxCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisTaxCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTaxCache{client: client, logger: logger}
}

// Get retrieves a definition from Redis
func (c *RedisTaxCache) Get(ctx context.Context, key string) (*tax.Definition, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tax definition from cache: %w", err)
	}

	var def tax.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		c.logger.Warn("Dropping corrupted tax cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key)
		return nil, nil
	}
	return &def, nil
}

// Set stores a definition in Redis
func (c *RedisTaxCache) Set(ctx context.Context, key string, def *tax.Definition, ttl time.Duration) error {
	if def == nil {
		return nil
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal tax definition: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set tax definition in cache: %w", err)
	}
	return nil
}

// InvalidateTenant scans and deletes the tenant's keys
func (c *RedisTaxCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, tenantPrefix(tenantID)+"*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan tax cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete tax cache keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.logger.Debug("Invalidated tax cache", zap.String("tenant_id", tenantID.String()), zap.Int("keys", deleted))
	return nil
}

// Close closes the client when this cache created it
func (c *RedisTaxCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ TaxDefinitionCache = (*RedisTaxCache)(nil)
