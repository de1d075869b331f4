package trade

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeDocument is the aggregate type used in domain events
const AggregateTypeDocument = "Document"

// Document is a sales, purchase or POS order or an invoice
type Document struct {
	shared.TenantAggregateRoot
	Kind      Kind
	Number    string
	PartyID   uuid.UUID
	PartyName string
	MoveType  MoveType // invoices only
	State     State
	Lines     []Line

	AmountUntaxed decimal.Decimal
	AmountTax     decimal.Decimal
	AmountTotal   decimal.Decimal

	PerceptionBaseAmount  decimal.Decimal
	PerceptionTotalAmount decimal.Decimal

	JournalItems []JournalItem
	ConfirmedAt  *time.Time
}

// NewDocument creates a draft order of the given kind
func NewDocument(tenantID uuid.UUID, kind Kind, number string, partyID uuid.UUID, partyName string) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown document kind: %s", kind))
	}
	if kind == KindInvoice {
		return nil, shared.NewDomainError("INVALID_KIND", "Invoices must be created with NewInvoice")
	}
	return newDocument(tenantID, kind, number, partyID, partyName)
}

// NewInvoice creates a draft invoice of the given move type
func NewInvoice(tenantID uuid.UUID, number string, moveType MoveType, partyID uuid.UUID, partyName string) (*Document, error) {
	if !moveType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVE_TYPE", fmt.Sprintf("Unknown move type: %s", moveType))
	}
	doc, err := newDocument(tenantID, KindInvoice, number, partyID, partyName)
	if err != nil {
		return nil, err
	}
	doc.MoveType = moveType
	return doc, nil
}

func newDocument(tenantID uuid.UUID, kind Kind, number string, partyID uuid.UUID, partyName string) (*Document, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot be empty")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party ID cannot be empty")
	}
	return &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		Number:              number,
		PartyID:             partyID,
		PartyName:           partyName,
		State:               lifecycles[kind].initial,
		Lines:               make([]Line, 0),
		AmountUntaxed:       decimal.Zero,
		AmountTax:           decimal.Zero,
		AmountTotal:         decimal.Zero,
	}, nil
}

// Direction returns whether the document's taxes are sale or purchase taxes
func (d *Document) Direction() tax.Direction {
	if d.Kind == KindInvoice {
		if d.MoveType.IsCustomer() {
			return tax.DirectionSale
		}
		return tax.DirectionPurchase
	}
	return d.Kind.DefaultDirection()
}

// IsEditable reports whether lines and party may still change
func (d *Document) IsEditable() bool {
	return d.Kind.IsEditable(d.State)
}

// IsConfirmed reports whether the document reached its confirmed state
func (d *Document) IsConfirmed() bool {
	return d.State == d.Kind.ConfirmedState()
}

// Line returns the line with the given ID
func (d *Document) Line(lineID uuid.UUID) (*Line, bool) {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return &d.Lines[i], true
		}
	}
	return nil, false
}

// AddLine appends a line and records a change event
func (d *Document) AddLine(productID uuid.UUID, description string, quantity, unitPrice decimal.Decimal, taxIDs ...uuid.UUID) (*Line, error) {
	if err := d.ensureEditable(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if err := validateUnitPrice(unitPrice); err != nil {
		return nil, err
	}

	line := Line{
		ID:          uuid.New(),
		Sequence:    (len(d.Lines) + 1) * 10,
		ProductID:   productID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TaxIDs:      make([]uuid.UUID, 0, len(taxIDs)),
	}
	for _, id := range taxIDs {
		line.AddTax(id)
	}
	line.recomputeSubtotal()
	d.Lines = append(d.Lines, line)
	d.changed(FieldLines, FieldProduct, FieldQuantity, FieldUnitPrice)
	return &d.Lines[len(d.Lines)-1], nil
}

// RemoveLine deletes a line
func (d *Document) RemoveLine(lineID uuid.UUID) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
			d.changed(FieldLines)
			return nil
		}
	}
	return shared.ErrNotFound
}

// UpdateLineQuantity changes a line quantity
func (d *Document) UpdateLineQuantity(lineID uuid.UUID, quantity decimal.Decimal) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	return d.updateLine(lineID, func(l *Line) {
		l.Quantity = quantity
	}, FieldQuantity)
}

// UpdateLineUnitPrice changes a line unit price
func (d *Document) UpdateLineUnitPrice(lineID uuid.UUID, unitPrice decimal.Decimal) error {
	if err := validateUnitPrice(unitPrice); err != nil {
		return err
	}
	return d.updateLine(lineID, func(l *Line) {
		l.UnitPrice = unitPrice
	}, FieldUnitPrice)
}

// ChangeLineProduct points a line at another product variant
func (d *Document) ChangeLineProduct(lineID, productID uuid.UUID, description string) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return d.updateLine(lineID, func(l *Line) {
		l.ProductID = productID
		l.Description = description
	}, FieldProduct)
}

// SetLineTaxes replaces the ordinary taxes chosen by the user on a line
func (d *Document) SetLineTaxes(lineID uuid.UUID, taxIDs []uuid.UUID) error {
	return d.updateLine(lineID, func(l *Line) {
		l.TaxIDs = make([]uuid.UUID, 0, len(taxIDs))
		for _, id := range taxIDs {
			l.AddTax(id)
		}
	}, FieldTaxes)
}

// ChangeParty assigns the document to another customer or vendor
func (d *Document) ChangeParty(partyID uuid.UUID, partyName string) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	if partyID == uuid.Nil {
		return shared.NewDomainError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if partyID == d.PartyID {
		return nil
	}
	d.PartyID = partyID
	d.PartyName = partyName
	d.changed(FieldParty)
	return nil
}

// MarkSent moves a quotation to sent
func (d *Document) MarkSent() error {
	return d.transition(StateSent)
}

// Confirm moves the document to its confirmed state (sale, purchase, paid or posted)
func (d *Document) Confirm() error {
	if err := d.transition(d.Kind.ConfirmedState()); err != nil {
		return err
	}
	now := time.Now()
	d.ConfirmedAt = &now
	d.AddDomainEvent(NewDocumentConfirmedEvent(d))
	return nil
}

// Cancel cancels the document
func (d *Document) Cancel() error {
	return d.transition(StateCancel)
}

// RecomputeTotals derives untaxed, tax and total amounts from the lines.
// Taxes missing from defs are ignored.
func (d *Document) RecomputeTotals(defs map[uuid.UUID]tax.Definition) {
	untaxed := decimal.Zero
	taxAmount := decimal.Zero
	for i := range d.Lines {
		line := &d.Lines[i]
		line.recomputeSubtotal()
		untaxed = untaxed.Add(line.Subtotal)
		for _, id := range line.TaxIDs {
			if def, ok := defs[id]; ok && !def.PriceIncluded {
				taxAmount = taxAmount.Add(def.Amount(line.Subtotal))
			}
		}
	}
	d.AmountUntaxed = untaxed
	d.AmountTax = taxAmount
	d.AmountTotal = untaxed.Add(taxAmount)
	d.Touch()
}

// SetPerceptionSummary stores the header summary fields
func (d *Document) SetPerceptionSummary(base, total decimal.Decimal) {
	d.PerceptionBaseAmount = base
	d.PerceptionTotalAmount = total
}

// TaxIDs returns every tax assigned on any line, without duplicates
func (d *Document) TaxIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for _, line := range d.Lines {
		for _, id := range line.TaxIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// SortLines orders lines by sequence
func (d *Document) SortLines() {
	sort.SliceStable(d.Lines, func(i, j int) bool {
		return d.Lines[i].Sequence < d.Lines[j].Sequence
	})
}

// CloneLines returns a deep copy of the lines
func (d *Document) CloneLines() []Line {
	lines := make([]Line, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = l.clone()
	}
	return lines
}

func (d *Document) updateLine(lineID uuid.UUID, mutate func(*Line), fields ...string) error {
	if err := d.ensureEditable(); err != nil {
		return err
	}
	line, ok := d.Line(lineID)
	if !ok {
		return shared.ErrNotFound
	}
	mutate(line)
	line.recomputeSubtotal()
	d.changed(fields...)
	return nil
}

func (d *Document) transition(to State) error {
	if !d.Kind.CanTransition(d.State, to) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move %s from %s to %s", d.Kind, d.State, to))
	}
	d.State = to
	d.Touch()
	return nil
}

func (d *Document) ensureEditable() error {
	if !d.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Document %s cannot be modified in state %s", d.Number, d.State))
	}
	return nil
}

func (d *Document) changed(fields ...string) {
	d.Touch()
	d.AddDomainEvent(NewDocumentChangedEvent(d, fields...))
}

func validateQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return nil
}

func validateUnitPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return nil
}
