package perception

import (
	"github.com/erp/perception/internal/domain/trade"
)

// ChangeSet names the document fields touched by one edit
type ChangeSet []string

// relevantFields are the fields that can alter a perception decision
var relevantFields = map[string]bool{
	trade.FieldParty:     true,
	trade.FieldLines:     true,
	trade.FieldProduct:   true,
	trade.FieldQuantity:  true,
	trade.FieldUnitPrice: true,
	trade.FieldTaxes:     true,
}

// Has reports whether field is part of the set
func (c ChangeSet) Has(field string) bool {
	for _, f := range c {
		if f == field {
			return true
		}
	}
	return false
}

// Relevant reports whether any changed field can affect perception
func (c ChangeSet) Relevant() bool {
	for _, f := range c {
		if relevantFields[f] {
			return true
		}
	}
	return false
}
