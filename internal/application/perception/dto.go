package perception

import (
	"time"

	"github.com/erp/perception/internal/domain/perception"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Requests ====================

// AddLineRequest adds a product line to a draft document
type AddLineRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"decimal_gte0"`
	TaxIDs      []uuid.UUID     `json:"tax_ids"`
}

// UpdateLineRequest edits a line. Nil fields are left unchanged.
type UpdateLineRequest struct {
	ProductID   *uuid.UUID       `json:"product_id"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Quantity    *decimal.Decimal `json:"quantity" binding:"omitempty,decimal_gt0"`
	UnitPrice   *decimal.Decimal `json:"unit_price" binding:"omitempty,decimal_gte0"`
	TaxIDs      *[]uuid.UUID     `json:"tax_ids"`
}

// ChangePartyRequest assigns a document to another customer or vendor
type ChangePartyRequest struct {
	PartyID uuid.UUID `json:"party_id" binding:"required"`
}

// PosOrderInput is the order payload sent by the point-of-sale UI
type PosOrderInput struct {
	Number  string         `json:"number" binding:"max=50"`
	PartyID uuid.UUID      `json:"party_id" binding:"required"`
	Lines   []PosLineInput `json:"lines" binding:"required,min=1,dive"`
}

// PosLineInput is one line of a POS order
type PosLineInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"decimal_gte0"`
	TaxIDs      []uuid.UUID     `json:"tax_ids"`
}

// ==================== Responses ====================

// Notification is the user-facing toast shown after a manual apply
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"` // success or danger
	Sticky  bool   `json:"sticky"`
}

// ApplyResult is returned by the manual apply action
type ApplyResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	NewTotal     decimal.Decimal `json:"new_total"`
	Notification Notification    `json:"notification"`
}

// SummaryResponse carries the perception header fields
type SummaryResponse struct {
	BaseAmount  decimal.Decimal `json:"base_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// LineResponse is a document line
type LineResponse struct {
	ID          uuid.UUID       `json:"id"`
	Sequence    int             `json:"sequence"`
	ProductID   uuid.UUID       `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxIDs      []uuid.UUID     `json:"tax_ids"`
}

// JournalItemResponse is a posted journal item
type JournalItemResponse struct {
	Name        string          `json:"name"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// DocumentResponse is a document with its totals and perception summary
type DocumentResponse struct {
	ID            uuid.UUID             `json:"id"`
	Kind          string                `json:"kind"`
	Number        string                `json:"number"`
	PartyID       uuid.UUID             `json:"party_id"`
	PartyName     string                `json:"party_name"`
	MoveType      string                `json:"move_type,omitempty"`
	State         string                `json:"state"`
	Lines         []LineResponse        `json:"lines"`
	AmountUntaxed decimal.Decimal       `json:"amount_untaxed"`
	AmountTax     decimal.Decimal       `json:"amount_tax"`
	AmountTotal   decimal.Decimal       `json:"amount_total"`
	Perception    SummaryResponse       `json:"perception"`
	JournalItems  []JournalItemResponse `json:"journal_items,omitempty"`
	ConfirmedAt   *time.Time            `json:"confirmed_at,omitempty"`
	Version       int                   `json:"version"`
}

// PosOrderResponse is the created POS order
type PosOrderResponse struct {
	DocumentResponse
	PerceptionApplied bool `json:"perception_applied"`
}

// SetupResult reports what account setup changed
type SetupResult struct {
	AccountCode    string `json:"account_code"`
	AccountCreated bool   `json:"account_created"`
	TaxesAssigned  int    `json:"taxes_assigned"`
}

// ToSummaryResponse converts an engine summary
func ToSummaryResponse(s perception.Summary) SummaryResponse {
	return SummaryResponse{BaseAmount: s.BaseAmount, TotalAmount: s.TotalAmount}
}

// ToDocumentResponse converts a document
func ToDocumentResponse(d *trade.Document) DocumentResponse {
	lines := make([]LineResponse, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = LineResponse{
			ID:          l.ID,
			Sequence:    l.Sequence,
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
			TaxIDs:      append([]uuid.UUID{}, l.TaxIDs...),
		}
	}
	items := make([]JournalItemResponse, len(d.JournalItems))
	for i, j := range d.JournalItems {
		items[i] = JournalItemResponse{Name: j.Name, AccountCode: j.AccountCode, Debit: j.Debit, Credit: j.Credit}
	}
	return DocumentResponse{
		ID:            d.ID,
		Kind:          string(d.Kind),
		Number:        d.Number,
		PartyID:       d.PartyID,
		PartyName:     d.PartyName,
		MoveType:      string(d.MoveType),
		State:         string(d.State),
		Lines:         lines,
		AmountUntaxed: d.AmountUntaxed,
		AmountTax:     d.AmountTax,
		AmountTotal:   d.AmountTotal,
		Perception:    SummaryResponse{BaseAmount: d.PerceptionBaseAmount, TotalAmount: d.PerceptionTotalAmount},
		JournalItems:  items,
		ConfirmedAt:   d.ConfirmedAt,
		Version:       d.Version,
	}
}
