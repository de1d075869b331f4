// Package cache keeps resolved tax definitions close to the perception engine.
// Redis is used when configured and reachable; an in-memory cache otherwise.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxDefinitionCache stores tax definitions by key. Get returns (nil, nil) on a miss.
type TaxDefinitionCache interface {
	Get(ctx context.Context, key string) (*tax.Definition, error)
	Set(ctx context.Context, key string, def *tax.Definition, ttl time.Duration) error
	// InvalidateTenant drops every entry of the tenant
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
	Close() error
}

func tenantPrefix(tenantID uuid.UUID) string {
	return fmt.Sprintf("tax:%s:", tenantID)
}

// DefinitionKey is the key of a definition by ID
func DefinitionKey(tenantID, id uuid.UUID) string {
	return tenantPrefix(tenantID) + "id:" + id.String()
}

// PerceptionKey is the key of the perception tax resolved for (rate, direction)
func PerceptionKey(tenantID uuid.UUID, rate decimal.Decimal, direction tax.Direction) string {
	return fmt.Sprintf("%sperception:%s:%s", tenantPrefix(tenantID), direction, rate.String())
}
