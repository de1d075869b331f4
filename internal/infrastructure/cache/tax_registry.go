package cache

import (
	"context"
	"errors"
	"time"

	"github.com/erp/perception/internal/domain/perception"
	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TaxRegistry resolves tax definitions through the cache, reading the
// repository on a miss. Cache failures degrade to repository reads.
type TaxRegistry struct {
	repo   tax.Repository
	cache  TaxDefinitionCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewTaxRegistry creates a cached registry over repo
func NewTaxRegistry(repo tax.Repository, cache TaxDefinitionCache, ttl time.Duration, logger *zap.Logger) *TaxRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxRegistry{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// FindPerceptionTax returns the perception tax for (rate, direction) or shared.ErrNotFound.
// Misses are not cached so a tax created later is picked up.
func (r *TaxRegistry) FindPerceptionTax(ctx context.Context, tenantID uuid.UUID, rate decimal.Decimal, direction tax.Direction) (*tax.Definition, error) {
	key := PerceptionKey(tenantID, rate, direction)
	if def := r.cached(ctx, key); def != nil {
		return def, nil
	}

	def, err := r.repo.FindPerception(ctx, tenantID, rate, direction)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, shared.ErrNotFound
	}
	r.store(ctx, key, def)
	r.store(ctx, DefinitionKey(tenantID, def.ID), def)
	return def, nil
}

// FindByIDs returns the known definitions among ids, in no particular order
func (r *TaxRegistry) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]tax.Definition, error) {
	defs := make([]tax.Definition, 0, len(ids))
	missing := make([]uuid.UUID, 0)
	for _, id := range ids {
		if def := r.cached(ctx, DefinitionKey(tenantID, id)); def != nil {
			defs = append(defs, *def)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return defs, nil
	}

	loaded, err := r.repo.FindByIDs(ctx, tenantID, missing)
	if err != nil {
		return nil, err
	}
	for i := range loaded {
		r.store(ctx, DefinitionKey(tenantID, loaded[i].ID), &loaded[i])
		defs = append(defs, loaded[i])
	}
	return defs, nil
}

// FindByName reads through to the repository
func (r *TaxRegistry) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*tax.Definition, error) {
	return r.repo.FindByName(ctx, tenantID, name)
}

// FindPerceptionWithoutAccount reads through to the repository
func (r *TaxRegistry) FindPerceptionWithoutAccount(ctx context.Context, tenantID uuid.UUID) ([]tax.Definition, error) {
	return r.repo.FindPerceptionWithoutAccount(ctx, tenantID)
}

// Save persists the definition and invalidates the tenant's cache
func (r *TaxRegistry) Save(ctx context.Context, def *tax.Definition) error {
	if err := r.repo.Save(ctx, def); err != nil {
		return err
	}
	if err := r.cache.InvalidateTenant(ctx, def.TenantID); err != nil {
		r.logger.Warn("tax cache invalidation failed", zap.String("tenant_id", def.TenantID.String()), zap.Error(err))
	}
	return nil
}

func (r *TaxRegistry) cached(ctx context.Context, key string) *tax.Definition {
	def, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("tax cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return def
}

func (r *TaxRegistry) store(ctx context.Context, key string, def *tax.Definition) {
	if err := r.cache.Set(ctx, key, def, r.ttl); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("tax cache write failed", zap.String("key", key), zap.Error(err))
	}
}

var _ perception.TaxRegistry = (*TaxRegistry)(nil)
