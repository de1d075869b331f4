package perception

import (
	"github.com/erp/perception/internal/domain/tax"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineFacts is what the engine resolved about one line before deciding
type LineFacts struct {
	Line     *trade.Line
	Flagged  bool
	Assigned []tax.Definition // resolved definitions of the line's taxes, in assignment order
	VATRate  decimal.Decimal
}

// PerceptionAssigned returns the perception taxes currently on the line
func (f LineFacts) PerceptionAssigned() []tax.Definition {
	out := make([]tax.Definition, 0, 1)
	for _, def := range f.Assigned {
		if def.IsPerception {
			out = append(out, def)
		}
	}
	return out
}

// Facts is the resolved view of a document for one reconciliation pass
type Facts struct {
	Document  *trade.Document
	Direction tax.Direction
	Party     PartyStatus
	Lines     []LineFacts
}

func resolveAssigned(line *trade.Line, defs map[uuid.UUID]tax.Definition) []tax.Definition {
	assigned := make([]tax.Definition, 0, len(line.TaxIDs))
	for _, id := range line.TaxIDs {
		if def, ok := defs[id]; ok {
			assigned = append(assigned, def)
		}
	}
	return assigned
}
