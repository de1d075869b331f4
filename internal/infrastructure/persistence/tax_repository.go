package persistence

import (
	"context"

	"github.com/erp/perception/internal/domain/tax"
	"github.com/erp/perception/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTaxRepository implements tax.Repository using GORM
type GormTaxRepository struct {
	db *gorm.DB
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB) *GormTaxRepository {
	return &GormTaxRepository{db: db}
}

// FindByID finds a tax definition by its ID
func (r *GormTaxRepository) FindByID(ctx context.Context, id uuid.UUID) (*tax.Definition, error) {
	var model models.TaxDefinitionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given definitions of a tenant. Unknown IDs are skipped.
func (r *GormTaxRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]tax.Definition, error) {
	if len(ids) == 0 {
		return []tax.Definition{}, nil
	}
	var rows []models.TaxDefinitionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDefinitions(rows), nil
}

// FindByName finds a definition by exact name within a tenant
func (r *GormTaxRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*tax.Definition, error) {
	var model models.TaxDefinitionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindPerception returns the oldest active perception tax for (rate, direction)
func (r *GormTaxRepository) FindPerception(ctx context.Context, tenantID uuid.UUID, rate decimal.Decimal, direction tax.Direction) (*tax.Definition, error) {
	var model models.TaxDefinitionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_perception = ? AND active = ? AND direction = ? AND rate = ?",
			tenantID, true, true, direction, rate).
		Order("created_at").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindPerceptionWithoutAccount lists perception taxes that have no ledger account
func (r *GormTaxRepository) FindPerceptionWithoutAccount(ctx context.Context, tenantID uuid.UUID) ([]tax.Definition, error) {
	var rows []models.TaxDefinitionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_perception = ? AND (account_code IS NULL OR account_code = '')", tenantID, true).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDefinitions(rows), nil
}

// Save creates or updates a tax definition
func (r *GormTaxRepository) Save(ctx context.Context, def *tax.Definition) error {
	return r.db.WithContext(ctx).Save(models.TaxDefinitionModelFromDomain(def)).Error
}

func toDefinitions(rows []models.TaxDefinitionModel) []tax.Definition {
	defs := make([]tax.Definition, len(rows))
	for i := range rows {
		defs[i] = *rows[i].ToDomain()
	}
	return defs
}

var _ tax.Repository = (*GormTaxRepository)(nil)
