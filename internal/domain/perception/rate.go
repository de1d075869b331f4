package perception

import (
	"github.com/erp/perception/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// SelectRate maps the VAT rate observed on a line to the perception rate.
// 21 maps to 3 and 10.5 to 1.5; any other value, including zero for an
// undetermined VAT rate, falls back to 3.
func SelectRate(vatRate decimal.Decimal) decimal.Decimal {
	switch {
	case vatRate.Equal(tax.VATRateGeneral):
		return tax.PerceptionRateGeneral
	case vatRate.Equal(tax.VATRateReduced):
		return tax.PerceptionRateReduced
	default:
		return tax.PerceptionRateGeneral
	}
}

// ObservedVATRate returns the rate of the first assigned ordinary tax in the
// document direction whose rate is 21 or 10.5, or zero when there is none.
func ObservedVATRate(assigned []tax.Definition, direction tax.Direction) decimal.Decimal {
	for _, def := range assigned {
		if def.IsPerception || def.Direction != direction {
			continue
		}
		if def.Rate.Equal(tax.VATRateGeneral) || def.Rate.Equal(tax.VATRateReduced) {
			return def.Rate
		}
	}
	return decimal.Zero
}
