package perception

import (
	"context"
	"fmt"

	"github.com/erp/perception/internal/domain/perception"
	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DocumentChangedHandler handles DocumentChangedEvent and recalculates the
// perception taxes of the edited document.
type DocumentChangedHandler struct {
	documents trade.DocumentRepository
	engine    *perception.Engine
	logger    *zap.Logger
}

// NewDocumentChangedHandler creates a new handler for document changed events
func NewDocumentChangedHandler(documents trade.DocumentRepository, engine *perception.Engine, logger *zap.Logger) *DocumentChangedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentChangedHandler{
		documents: documents,
		engine:    engine,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *DocumentChangedHandler) EventTypes() []string {
	return []string{trade.EventTypeDocumentChanged}
}

// Handle reloads the document, runs the recalculation for the changed fields
// and stores the result when it differs from what is stored. Edits made
// through the Service arrive already reconciled. A failed recalculation
// leaves the stored document untouched and is returned as an error.
func (h *DocumentChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changedEvent, ok := event.(*trade.DocumentChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", trade.EventTypeDocumentChanged),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeDocumentChanged, event.EventType())
	}

	changes := perception.ChangeSet(changedEvent.Changed)
	if !changes.Relevant() {
		return nil
	}

	doc, err := h.documents.FindByIDForTenant(ctx, event.TenantID(), event.AggregateID())
	if err != nil {
		return fmt.Errorf("load document %s: %w", changedEvent.Number, err)
	}

	before := snapshotTaxState(doc)
	if !h.engine.OnDocumentChanged(ctx, doc, changes) {
		return fmt.Errorf("perception recalculation failed for %s", doc.Number)
	}
	if before.matches(doc) {
		h.logger.Debug("perception already up to date",
			zap.String("document_id", doc.ID.String()),
			zap.String("document_number", doc.Number),
		)
		return nil
	}
	if err := h.documents.Save(ctx, doc); err != nil {
		return fmt.Errorf("save document %s: %w", doc.Number, err)
	}

	h.logger.Debug("perception recalculated after edit",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.Number),
		zap.Strings("changed", changes),
	)
	return nil
}

// taxState is the part of a document the recalculation writes
type taxState struct {
	lineTaxes [][]uuid.UUID
	amounts   []decimal.Decimal
}

func snapshotTaxState(doc *trade.Document) taxState {
	st := taxState{
		lineTaxes: make([][]uuid.UUID, len(doc.Lines)),
		amounts: []decimal.Decimal{
			doc.AmountUntaxed, doc.AmountTax, doc.AmountTotal,
			doc.PerceptionBaseAmount, doc.PerceptionTotalAmount,
		},
	}
	for i, line := range doc.Lines {
		st.lineTaxes[i] = append([]uuid.UUID(nil), line.TaxIDs...)
	}
	return st
}

func (st taxState) matches(doc *trade.Document) bool {
	now := snapshotTaxState(doc)
	if len(now.lineTaxes) != len(st.lineTaxes) {
		return false
	}
	for i := range st.lineTaxes {
		if len(st.lineTaxes[i]) != len(now.lineTaxes[i]) {
			return false
		}
		for j := range st.lineTaxes[i] {
			if st.lineTaxes[i][j] != now.lineTaxes[i][j] {
				return false
			}
		}
	}
	for i := range st.amounts {
		if !st.amounts[i].Equal(now.amounts[i]) {
			return false
		}
	}
	return true
}
