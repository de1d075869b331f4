package perception

import (
	"context"

	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartyLookup exposes the fiscal data of a customer or vendor.
// FiscalClassification returns nil when the party has no code and
// partner.ErrClassificationUnavailable when the company has no fiscal
// localization data at all.
type PartyLookup interface {
	FiscalClassification(ctx context.Context, partyID uuid.UUID) (*string, error)
	IsExempt(ctx context.Context, partyID uuid.UUID) (bool, error)
}

// ProductLookup resolves the perception flag of a product variant
type ProductLookup interface {
	IsSubjectToPerception(ctx context.Context, productID uuid.UUID) (bool, error)
}

// TaxRegistry is the single place tax definitions are resolved from.
// FindPerceptionTax returns shared.ErrNotFound when no active perception
// tax exists for (rate, direction).
type TaxRegistry interface {
	FindPerceptionTax(ctx context.Context, tenantID uuid.UUID, rate decimal.Decimal, direction tax.Direction) (*tax.Definition, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]tax.Definition, error)
}

// TaxCollection is the mutable set of taxes assigned to a line
type TaxCollection interface {
	HasTax(taxID uuid.UUID) bool
	AddTax(taxID uuid.UUID) bool
	RemoveTax(taxID uuid.UUID) bool
}
