package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository persists products and their variants
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByVariantID returns the template owning the variant
	FindByVariantID(ctx context.Context, variantID uuid.UUID) (*Product, error)
	Save(ctx context.Context, product *Product) error
}
