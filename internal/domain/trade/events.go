package trade

import (
	"github.com/erp/perception/internal/domain/shared"
)

// Event types
const (
	EventTypeDocumentChanged   = "DocumentChanged"
	EventTypeDocumentConfirmed = "DocumentConfirmed"
)

// Changed field names carried by DocumentChangedEvent
const (
	FieldParty     = "party"
	FieldLines     = "lines"
	FieldProduct   = "product"
	FieldQuantity  = "quantity"
	FieldUnitPrice = "unit_price"
	FieldTaxes     = "taxes"
)

// DocumentChangedEvent is raised when a field relevant to tax computation changes
type DocumentChangedEvent struct {
	shared.BaseDomainEvent
	Kind    Kind     `json:"kind"`
	Number  string   `json:"number"`
	Changed []string `json:"changed"`
}

// NewDocumentChangedEvent creates a DocumentChangedEvent
func NewDocumentChangedEvent(d *Document, fields ...string) *DocumentChangedEvent {
	return &DocumentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentChanged, AggregateTypeDocument, d.ID, d.TenantID),
		Kind:            d.Kind,
		Number:          d.Number,
		Changed:         append([]string(nil), fields...),
	}
}

// DocumentConfirmedEvent is raised when a document reaches its confirmed state
type DocumentConfirmedEvent struct {
	shared.BaseDomainEvent
	Kind   Kind   `json:"kind"`
	Number string `json:"number"`
	State  State  `json:"state"`
}

// NewDocumentConfirmedEvent creates a DocumentConfirmedEvent
func NewDocumentConfirmedEvent(d *Document) *DocumentConfirmedEvent {
	return &DocumentConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentConfirmed, AggregateTypeDocument, d.ID, d.TenantID),
		Kind:            d.Kind,
		Number:          d.Number,
		State:           d.State,
	}
}
