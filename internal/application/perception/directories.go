package perception

import (
	"context"
	"errors"

	"github.com/erp/perception/internal/domain/catalog"
	"github.com/erp/perception/internal/domain/partner"
	"github.com/erp/perception/internal/domain/perception"
	"github.com/erp/perception/internal/domain/shared"
	"github.com/google/uuid"
)

// PartyDirectory answers the engine's party questions from the repository
type PartyDirectory struct {
	parties   partner.PartyRepository
	localized bool
}

// NewPartyDirectory creates a PartyDirectory. When localized is false the
// company carries no fiscal data and every classification lookup fails with
// partner.ErrClassificationUnavailable.
func NewPartyDirectory(parties partner.PartyRepository, localized bool) *PartyDirectory {
	return &PartyDirectory{parties: parties, localized: localized}
}

// FiscalClassification implements perception.PartyLookup
func (d *PartyDirectory) FiscalClassification(ctx context.Context, partyID uuid.UUID) (*string, error) {
	if !d.localized {
		return nil, partner.ErrClassificationUnavailable
	}
	party, err := d.parties.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}
	return party.FiscalClassificationCode, nil
}

// IsExempt implements perception.PartyLookup
func (d *PartyDirectory) IsExempt(ctx context.Context, partyID uuid.UUID) (bool, error) {
	party, err := d.parties.FindByID(ctx, partyID)
	if err != nil {
		return false, err
	}
	return party.PerceptionExempt, nil
}

// ProductDirectory resolves the perception flag through the variant's template
type ProductDirectory struct {
	products catalog.ProductRepository
}

// NewProductDirectory creates a ProductDirectory
func NewProductDirectory(products catalog.ProductRepository) *ProductDirectory {
	return &ProductDirectory{products: products}
}

// IsSubjectToPerception implements perception.ProductLookup. Unknown
// variants are not subject to perception.
func (d *ProductDirectory) IsSubjectToPerception(ctx context.Context, productID uuid.UUID) (bool, error) {
	product, err := d.products.FindByVariantID(ctx, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return product.SubjectToPerception, nil
}

var (
	_ perception.PartyLookup   = (*PartyDirectory)(nil)
	_ perception.ProductLookup = (*ProductDirectory)(nil)
)
