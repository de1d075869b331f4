package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalItem is an accounting line generated for a posted invoice
type JournalItem struct {
	ID             uuid.UUID
	Name           string
	AccountCode    string
	PartyID        uuid.UUID
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	PerceptionRate decimal.Decimal // zero for non-perception items
}

// IsPerception reports whether the item was generated for a perception
func (j JournalItem) IsPerception() bool {
	return !j.PerceptionRate.IsZero()
}

// ReplacePerceptionItems drops existing perception items and appends the given ones
func (d *Document) ReplacePerceptionItems(items []JournalItem) {
	kept := make([]JournalItem, 0, len(d.JournalItems)+len(items))
	for _, item := range d.JournalItems {
		if !item.IsPerception() {
			kept = append(kept, item)
		}
	}
	d.JournalItems = append(kept, items...)
	d.Touch()
}

// PerceptionItems returns the perception journal items
func (d *Document) PerceptionItems() []JournalItem {
	items := make([]JournalItem, 0)
	for _, item := range d.JournalItems {
		if item.IsPerception() {
			items = append(items, item)
		}
	}
	return items
}
