package persistence

import (
	"context"

	"github.com/erp/perception/internal/domain/catalog"
	"github.com/erp/perception/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product with its variants
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Preload("Variants").First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByVariantID finds the product owning the variant
func (r *GormProductRepository) FindByVariantID(ctx context.Context, variantID uuid.UUID) (*catalog.Product, error) {
	var variant models.ProductVariantModel
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, notFound(err)
	}
	return r.FindByID(ctx, variant.ProductID)
}

// Save creates or updates a product and replaces its variants
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Variants").Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariantModel{}).Error; err != nil {
			return err
		}
		if len(model.Variants) == 0 {
			return nil
		}
		return tx.Create(&model.Variants).Error
	})
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
