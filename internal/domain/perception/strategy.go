package perception

import (
	"fmt"
	"sort"
	"sync"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// DocumentStrategy adapts the engine to one document kind
type DocumentStrategy interface {
	Kind() trade.Kind
	// Applies reports whether the regime is relevant for this document at all
	Applies(doc *trade.Document) bool
	// TotalBasis is the amount compared against the threshold
	TotalBasis(facts *Facts) decimal.Decimal
	// Lines returns the lines in stored sequence
	Lines(doc *trade.Document) []*trade.Line
	// TaxCollection returns the tax set the engine mutates for a line
	TaxCollection(line *trade.Line) TaxCollection
}

// baseStrategy implements the parts shared by all kinds
type baseStrategy struct {
	kind trade.Kind
}

func (s baseStrategy) Kind() trade.Kind {
	return s.kind
}

func (s baseStrategy) Applies(*trade.Document) bool {
	return true
}

func (s baseStrategy) Lines(doc *trade.Document) []*trade.Line {
	lines := make([]*trade.Line, len(doc.Lines))
	for i := range doc.Lines {
		lines[i] = &doc.Lines[i]
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Sequence < lines[j].Sequence
	})
	return lines
}

func (s baseStrategy) TaxCollection(line *trade.Line) TaxCollection {
	return line
}

func untaxedBasis(facts *Facts) decimal.Decimal {
	total := decimal.Zero
	for _, lf := range facts.Lines {
		total = total.Add(lf.Line.Subtotal)
	}
	return total
}

// SalesOrderStrategy uses the untaxed amount
type SalesOrderStrategy struct {
	baseStrategy
}

// NewSalesOrderStrategy creates the sales order strategy
func NewSalesOrderStrategy() *SalesOrderStrategy {
	return &SalesOrderStrategy{baseStrategy{kind: trade.KindSalesOrder}}
}

// TotalBasis implements DocumentStrategy
func (s *SalesOrderStrategy) TotalBasis(facts *Facts) decimal.Decimal {
	return untaxedBasis(facts)
}

// PurchaseOrderStrategy uses the grand total with already applied perception
// backed out, so the gate never depends on its own output
type PurchaseOrderStrategy struct {
	baseStrategy
	splitter tax.Splitter
}

// NewPurchaseOrderStrategy creates the purchase order strategy
func NewPurchaseOrderStrategy(splitter tax.Splitter) *PurchaseOrderStrategy {
	return &PurchaseOrderStrategy{
		baseStrategy: baseStrategy{kind: trade.KindPurchaseOrder},
		splitter:     splitter,
	}
}

// TotalBasis implements DocumentStrategy
func (s *PurchaseOrderStrategy) TotalBasis(facts *Facts) decimal.Decimal {
	applied := decimal.Zero
	for _, lf := range facts.Lines {
		for _, def := range lf.PerceptionAssigned() {
			split := s.splitter.Split(def, lf.Line.UnitPrice, lf.Line.Quantity, lf.Line.ProductID, facts.Document.PartyID)
			applied = applied.Add(split.TaxAmount())
		}
	}
	return facts.Document.AmountTotal.Sub(applied)
}

// POSOrderStrategy only counts lines whose product is flagged
type POSOrderStrategy struct {
	baseStrategy
}

// NewPOSOrderStrategy creates the point of sale strategy
func NewPOSOrderStrategy() *POSOrderStrategy {
	return &POSOrderStrategy{baseStrategy{kind: trade.KindPOSOrder}}
}

// TotalBasis implements DocumentStrategy
func (s *POSOrderStrategy) TotalBasis(facts *Facts) decimal.Decimal {
	total := decimal.Zero
	for _, lf := range facts.Lines {
		if lf.Flagged {
			total = total.Add(lf.Line.GrossAmount())
		}
	}
	return total
}

// InvoiceStrategy handles customer invoices and refunds on the untaxed amount.
// Vendor bills are left untouched.
type InvoiceStrategy struct {
	baseStrategy
}

// NewInvoiceStrategy creates the invoice strategy
func NewInvoiceStrategy() *InvoiceStrategy {
	return &InvoiceStrategy{baseStrategy{kind: trade.KindInvoice}}
}

// Applies implements DocumentStrategy
func (s *InvoiceStrategy) Applies(doc *trade.Document) bool {
	return doc.MoveType.IsCustomer()
}

// TotalBasis implements DocumentStrategy
func (s *InvoiceStrategy) TotalBasis(facts *Facts) decimal.Decimal {
	return untaxedBasis(facts)
}

// StrategyRegistry maps document kinds to strategies
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[trade.Kind]DocumentStrategy
}

// NewStrategyRegistry creates a registry holding the built-in strategies
func NewStrategyRegistry(splitter tax.Splitter) *StrategyRegistry {
	r := &StrategyRegistry{strategies: make(map[trade.Kind]DocumentStrategy)}
	r.Register(NewSalesOrderStrategy())
	r.Register(NewPurchaseOrderStrategy(splitter))
	r.Register(NewPOSOrderStrategy())
	r.Register(NewInvoiceStrategy())
	return r
}

// Register adds or replaces the strategy for its kind
func (r *StrategyRegistry) Register(s DocumentStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Kind()] = s
}

// Get returns the strategy for a kind
func (r *StrategyRegistry) Get(kind trade.Kind) (DocumentStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no perception strategy for %s", shared.ErrNotFound, kind)
	}
	return s, nil
}
