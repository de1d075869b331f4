package cache

import (
	"fmt"

	"github.com/erp/perception/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewTaxCache builds the cache selected by configuration. A redis backend that
// cannot be reached falls back to memory unless fallback is disabled.
func NewTaxCache(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, logger *zap.Logger, allowFallback bool) (TaxDefinitionCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheCfg.Backend != "redis" {
		logger.Info("using in-memory tax cache")
		return NewInMemoryTaxCache(logger), nil
	}

	store, err := NewRedisTaxCache(RedisConfig{
		Host:     redisCfg.Host,
		Port:     redisCfg.Port,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}, logger)
	if err == nil {
		logger.Info("using Redis tax cache", zap.String("addr", redisCfg.Addr()))
		return store, nil
	}
	if !allowFallback {
		return nil, fmt.Errorf("redis tax cache unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory tax cache", zap.Error(err))
	return NewInMemoryTaxCache(logger), nil
}
