package perception

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summary holds the header-level perception amounts
type Summary struct {
	BaseAmount  decimal.Decimal `json:"base_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ComputeSummary recomputes the summary from scratch. The base is the sum of
// flagged line subtotals for an eligible, non exempt party; the amount is only
// charged when the threshold gate is active.
func ComputeSummary(facts *Facts, gateActive bool) Summary {
	summary := Summary{BaseAmount: decimal.Zero, TotalAmount: decimal.Zero}
	if facts == nil || !facts.Party.Applies() {
		return summary
	}

	amount := decimal.Zero
	for _, lf := range facts.Lines {
		if !lf.Flagged {
			continue
		}
		summary.BaseAmount = summary.BaseAmount.Add(lf.Line.Subtotal)
		amount = amount.Add(lf.Line.Subtotal.Mul(SelectRate(lf.VATRate)).Div(hundred))
	}
	if gateActive {
		summary.TotalAmount = amount.Round(2)
	}
	return summary
}
