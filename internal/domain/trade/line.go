package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product row of a document
type Line struct {
	ID          uuid.UUID
	Sequence    int
	ProductID   uuid.UUID // product variant
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal // untaxed
	TaxIDs      []uuid.UUID
}

// HasTax reports whether the tax is assigned to the line
func (l *Line) HasTax(taxID uuid.UUID) bool {
	for _, id := range l.TaxIDs {
		if id == taxID {
			return true
		}
	}
	return false
}

// AddTax assigns a tax; it returns false when it was already assigned
func (l *Line) AddTax(taxID uuid.UUID) bool {
	if l.HasTax(taxID) {
		return false
	}
	l.TaxIDs = append(l.TaxIDs, taxID)
	return true
}

// RemoveTax unassigns a tax; it returns false when it was not assigned
func (l *Line) RemoveTax(taxID uuid.UUID) bool {
	for i, id := range l.TaxIDs {
		if id == taxID {
			l.TaxIDs = append(l.TaxIDs[:i], l.TaxIDs[i+1:]...)
			return true
		}
	}
	return false
}

// GrossAmount is quantity times unit price, before rounding
func (l *Line) GrossAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

func (l *Line) recomputeSubtotal() {
	l.Subtotal = l.GrossAmount().Round(2)
}

func (l Line) clone() Line {
	c := l
	c.TaxIDs = append([]uuid.UUID(nil), l.TaxIDs...)
	return c
}
