package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryTaxCache implements TaxDefinitionCache in process memory.
// It does not share state between instances.
type InMemoryTaxCache struct {
	entries sync.Map // map[string]*cacheEntry
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type cacheEntry struct {
	value     tax.Definition
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewInMemoryTaxCache creates the cache and starts its cleanup loop
func NewInMemoryTaxCache(logger *zap.Logger) *InMemoryTaxCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &InMemoryTaxCache{
		logger: logger,
		stopCh: make(chan struct{}),
	}
	go c.cleanupExpired()
	return c
}

// Get returns a copy of the cached definition
func (c *InMemoryTaxCache) Get(ctx context.Context, key string) (*tax.Definition, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired(time.Now()) {
			atomic.AddInt64(&c.hits, 1)
			def := entry.value
			return &def, nil
		}
		c.entries.Delete(key)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, nil
}

// Set stores a copy of the definition. A zero ttl never expires.
func (c *InMemoryTaxCache) Set(ctx context.Context, key string, def *tax.Definition, ttl time.Duration) error {
	if def == nil {
		return nil
	}
	entry := &cacheEntry{value: *def}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries.Store(key, entry)
	return nil
}

// InvalidateTenant drops every entry of the tenant
func (c *InMemoryTaxCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	prefix := tenantPrefix(tenantID)
	c.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Delete(key)
		}
		return true
	})
	return nil
}

// Close stops the cleanup loop
func (c *InMemoryTaxCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns hit and miss counters
func (c *InMemoryTaxCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of stored entries, expired ones included
func (c *InMemoryTaxCache) Count() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *InMemoryTaxCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup(time.Now())
		}
	}
}

func (c *InMemoryTaxCache) doCleanup(now time.Time) {
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry).isExpired(now) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up expired tax cache entries", zap.Int("removed", removed))
	}
}

var _ TaxDefinitionCache = (*InMemoryTaxCache)(nil)
