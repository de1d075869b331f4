package perception

import "github.com/shopspring/decimal"

// Threshold is the minimum document basis, in pesos, for the regime to apply
var Threshold = decimal.NewFromInt(100000)

// ThresholdActive reports whether basis reaches the threshold
func ThresholdActive(basis decimal.Decimal) bool {
	return basis.GreaterThanOrEqual(Threshold)
}
