package trade

import (
	"github.com/erp/perception/internal/domain/tax"
)

// Kind identifies the document type a header belongs to
type Kind string

const (
	KindSalesOrder    Kind = "sales_order"
	KindPurchaseOrder Kind = "purchase_order"
	KindPOSOrder      Kind = "pos_order"
	KindInvoice       Kind = "invoice"
)

// AllKinds lists every supported document kind
func AllKinds() []Kind {
	return []Kind{KindSalesOrder, KindPurchaseOrder, KindPOSOrder, KindInvoice}
}

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	_, ok := lifecycles[k]
	return ok
}

// String returns the string representation
func (k Kind) String() string {
	return string(k)
}

// NumberPrefix returns the sequence prefix used for document numbers
func (k Kind) NumberPrefix() string {
	switch k {
	case KindSalesOrder:
		return "S"
	case KindPurchaseOrder:
		return "P"
	case KindPOSOrder:
		return "POS"
	case KindInvoice:
		return "INV"
	default:
		return "DOC"
	}
}

// State is the lifecycle state. The vocabulary depends on the Kind.
type State string

const (
	StateDraft    State = "draft"
	StateSent     State = "sent"
	StateSale     State = "sale"
	StatePurchase State = "purchase"
	StatePaid     State = "paid"
	StateDone     State = "done"
	StatePosted   State = "posted"
	StateCancel   State = "cancel"
)

// String returns the string representation
func (s State) String() string {
	return string(s)
}

// MoveType distinguishes customer and vendor invoices and refunds
type MoveType string

const (
	MoveTypeNone       MoveType = ""
	MoveTypeOutInvoice MoveType = "out_invoice"
	MoveTypeOutRefund  MoveType = "out_refund"
	MoveTypeInInvoice  MoveType = "in_invoice"
	MoveTypeInRefund   MoveType = "in_refund"
)

// IsValid checks if the move type is a known invoice type
func (m MoveType) IsValid() bool {
	switch m {
	case MoveTypeOutInvoice, MoveTypeOutRefund, MoveTypeInInvoice, MoveTypeInRefund:
		return true
	}
	return false
}

// IsCustomer reports whether this is a customer invoice or refund
func (m MoveType) IsCustomer() bool {
	return m == MoveTypeOutInvoice || m == MoveTypeOutRefund
}

// IsRefund reports whether this is a credit note
func (m MoveType) IsRefund() bool {
	return m == MoveTypeOutRefund || m == MoveTypeInRefund
}

type lifecycle struct {
	initial     State
	editable    []State
	confirmed   State
	transitions map[State][]State
}

var lifecycles = map[Kind]lifecycle{
	KindSalesOrder: {
		initial:   StateDraft,
		editable:  []State{StateDraft, StateSent},
		confirmed: StateSale,
		transitions: map[State][]State{
			StateDraft: {StateSent, StateSale, StateCancel},
			StateSent:  {StateSale, StateCancel},
			StateSale:  {StateCancel},
		},
	},
	KindPurchaseOrder: {
		initial:   StateDraft,
		editable:  []State{StateDraft, StateSent},
		confirmed: StatePurchase,
		transitions: map[State][]State{
			StateDraft:    {StateSent, StatePurchase, StateCancel},
			StateSent:     {StatePurchase, StateCancel},
			StatePurchase: {StateCancel},
		},
	},
	KindPOSOrder: {
		initial:   StateDraft,
		editable:  []State{StateDraft},
		confirmed: StatePaid,
		transitions: map[State][]State{
			StateDraft: {StatePaid, StateCancel},
			StatePaid:  {StateDone},
		},
	},
	KindInvoice: {
		initial:   StateDraft,
		editable:  []State{StateDraft},
		confirmed: StatePosted,
		transitions: map[State][]State{
			StateDraft:  {StatePosted, StateCancel},
			StatePosted: {StateCancel},
		},
	},
}

// IsEditable reports whether lines may still change in state s
func (k Kind) IsEditable(s State) bool {
	for _, v := range lifecycles[k].editable {
		if v == s {
			return true
		}
	}
	return false
}

// ConfirmedState returns the state reached on confirmation
func (k Kind) ConfirmedState() State {
	return lifecycles[k].confirmed
}

// CanTransition checks if a transition is allowed for the kind
func (k Kind) CanTransition(from, to State) bool {
	for _, v := range lifecycles[k].transitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// DefaultDirection returns the tax direction of the kind for non-invoice documents
func (k Kind) DefaultDirection() tax.Direction {
	if k == KindPurchaseOrder {
		return tax.DirectionPurchase
	}
	return tax.DirectionSale
}
