package tax

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Split is the result of applying one tax to a priced quantity
type Split struct {
	TotalExcluded decimal.Decimal
	TotalIncluded decimal.Decimal
}

// TaxAmount returns the portion of the split that is tax
func (s Split) TaxAmount() decimal.Decimal {
	return s.TotalIncluded.Sub(s.TotalExcluded)
}

// Splitter computes tax-exclusive and tax-inclusive totals for a line
type Splitter interface {
	Split(def Definition, unitPrice, quantity decimal.Decimal, productID, partyID uuid.UUID) Split
}

// PercentSplitter handles plain percent taxes. Product and party are accepted
// for fiscal-position aware implementations and ignored here.
type PercentSplitter struct{}

// NewPercentSplitter creates a PercentSplitter
func NewPercentSplitter() PercentSplitter {
	return PercentSplitter{}
}

// Split implements Splitter
func (PercentSplitter) Split(def Definition, unitPrice, quantity decimal.Decimal, _, _ uuid.UUID) Split {
	gross := unitPrice.Mul(quantity)
	if def.PriceIncluded {
		excluded := gross.Div(decimal.NewFromInt(1).Add(def.Rate.Div(hundred))).Round(2)
		return Split{TotalExcluded: excluded, TotalIncluded: gross.Round(2)}
	}
	excluded := gross.Round(2)
	return Split{TotalExcluded: excluded, TotalIncluded: excluded.Add(def.Amount(excluded))}
}
