package perception

import (
	"context"
	"fmt"

	"github.com/erp/perception/internal/domain/tax"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Recorder receives engine outcomes for metrics
type Recorder interface {
	RecordApplied(ctx context.Context, kind trade.Kind, added, removed int)
	RecordRestored(ctx context.Context, kind trade.Kind, restored int)
	RecordFailure(ctx context.Context, kind trade.Kind, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordApplied(context.Context, trade.Kind, int, int) {}
func (nopRecorder) RecordRestored(context.Context, trade.Kind, int)     {}
func (nopRecorder) RecordFailure(context.Context, trade.Kind, string)   {}

// TotalsListener is notified every time the engine recomputes document totals.
// It is the hook for integrations that react to total recomputation; the
// service itself registers none. suppressReentry is always true: a listener
// that triggers a recalculation must pass it on so the nested call returns
// immediately. Confirmation is handled by Confirm, not by a listener.
type TotalsListener func(ctx context.Context, doc *trade.Document, suppressReentry bool)

// ConfirmFunc performs the actual state transition of a document
type ConfirmFunc func(ctx context.Context, doc *trade.Document) error

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStrategy registers an additional or replacement document strategy
func WithStrategy(s DocumentStrategy) Option {
	return func(e *Engine) {
		e.strategies.Register(s)
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithTotalsListener adds a listener called after each totals recomputation
func WithTotalsListener(l TotalsListener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l)
	}
}

// Engine decides and maintains perception tax assignments on documents
type Engine struct {
	products   ProductLookup
	registry   TaxRegistry
	evaluator  *EligibilityEvaluator
	reconciler *Reconciler
	strategies *StrategyRegistry
	recorder   Recorder
	listeners  []TotalsListener
	logger     *zap.Logger
}

// NewEngine creates an Engine with the built-in document strategies
func NewEngine(parties PartyLookup, products ProductLookup, registry TaxRegistry, splitter tax.Splitter, opts ...Option) *Engine {
	e := &Engine{
		products:   products,
		registry:   registry,
		strategies: NewStrategyRegistry(splitter),
		recorder:   nopRecorder{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.evaluator = NewEligibilityEvaluator(parties, e.logger)
	e.reconciler = NewReconciler(registry, e.logger)
	return e
}

// ApplyPerception brings the document's perception taxes and summary in line
// with the current data. It returns false only when a lookup failed, in which
// case the document is left as it was before the call.
func (e *Engine) ApplyPerception(ctx context.Context, doc *trade.Document) bool {
	return e.Recalculate(ctx, doc, nil, false)
}

// PerceptionSummary returns the stored summary fields of the document
func (e *Engine) PerceptionSummary(doc *trade.Document) Summary {
	return Summary{
		BaseAmount:  doc.PerceptionBaseAmount,
		TotalAmount: doc.PerceptionTotalAmount,
	}
}

// OnDocumentChanged reacts to an edit. Changes that cannot affect perception
// are ignored.
func (e *Engine) OnDocumentChanged(ctx context.Context, doc *trade.Document, changes ChangeSet) bool {
	if !changes.Relevant() {
		return true
	}
	return e.Recalculate(ctx, doc, changes, false)
}

// Recalculate runs one reconciliation pass. When suppressReentry is set the
// call is part of a recalculation already in progress and returns at once.
func (e *Engine) Recalculate(ctx context.Context, doc *trade.Document, changes ChangeSet, suppressReentry bool) (ok bool) {
	if suppressReentry || doc == nil {
		return true
	}
	log := e.docLogger(doc)

	cp := takeCheckpoint(doc)
	defer func() {
		if r := recover(); r != nil {
			cp.restore(doc)
			log.Error("perception recalculation panicked, document restored", zap.Any("panic", r))
			e.recorder.RecordFailure(ctx, doc.Kind, "panic")
			ok = false
		}
	}()

	strategy, err := e.strategies.Get(doc.Kind)
	if err != nil {
		log.Error("no perception strategy", zap.Error(err))
		e.recorder.RecordFailure(ctx, doc.Kind, "strategy")
		return false
	}

	if !doc.IsEditable() {
		log.Debug("document not editable, perception left unchanged", zap.String("state", doc.State.String()))
		return true
	}

	if err := e.recomputeTotals(ctx, doc); err != nil {
		return e.fail(ctx, doc, cp, "totals", err)
	}

	if !strategy.Applies(doc) {
		doc.SetPerceptionSummary(decimal.Zero, decimal.Zero)
		log.Debug("perception regime does not apply to document")
		return true
	}

	facts, err := e.collectFacts(ctx, doc, strategy)
	if err != nil {
		return e.fail(ctx, doc, cp, "lookup", err)
	}

	basis := strategy.TotalBasis(facts)
	gate := ThresholdActive(basis)

	var added, removed int
	for _, lf := range facts.Lines {
		change, err := e.reconciler.Reconcile(ctx, doc.TenantID, lf.Line.ID, strategy.TaxCollection(lf.Line), lf.Assigned, Decision{
			Flagged:    lf.Flagged,
			Exempt:     facts.Party.Exempt,
			Eligible:   facts.Party.Eligible,
			GateActive: gate,
			VATRate:    lf.VATRate,
			Direction:  facts.Direction,
		})
		if err != nil {
			return e.fail(ctx, doc, cp, "reconcile", err)
		}
		added += len(change.Added)
		removed += len(change.Removed)
	}

	if added+removed > 0 {
		if err := e.recomputeTotals(ctx, doc); err != nil {
			return e.fail(ctx, doc, cp, "totals", err)
		}
	}

	summary := ComputeSummary(facts, gate)
	doc.SetPerceptionSummary(summary.BaseAmount, summary.TotalAmount)

	log.Debug("perception applied",
		zap.Strings("changed", changes),
		zap.String("basis", basis.String()),
		zap.Bool("threshold_active", gate),
		zap.Int("added", added),
		zap.Int("removed", removed),
		zap.String("perception_total", summary.TotalAmount.String()),
	)
	e.recorder.RecordApplied(ctx, doc.Kind, added, removed)
	return true
}

// Confirm applies perception, runs confirm and re-asserts any perception tax
// that confirm stripped from a line. The restore does not re-evaluate the
// rules, it puts back exactly what was there before.
func (e *Engine) Confirm(ctx context.Context, doc *trade.Document, confirm ConfirmFunc) error {
	if !e.ApplyPerception(ctx, doc) {
		return fmt.Errorf("apply perception before confirming %s", doc.Number)
	}

	snapshot, err := e.snapshotPerception(ctx, doc)
	if err != nil {
		return fmt.Errorf("snapshot perception taxes: %w", err)
	}

	if err := confirm(ctx, doc); err != nil {
		return err
	}

	restored := 0
	for lineID, taxIDs := range snapshot {
		line, ok := doc.Line(lineID)
		if !ok {
			continue
		}
		for _, id := range taxIDs {
			if line.AddTax(id) {
				restored++
			}
		}
	}
	if restored == 0 {
		return nil
	}

	if err := e.recomputeTotals(ctx, doc); err != nil {
		return fmt.Errorf("recompute totals after restore: %w", err)
	}
	e.docLogger(doc).Info("perception taxes restored after confirmation", zap.Int("restored", restored))
	e.recorder.RecordRestored(ctx, doc.Kind, restored)
	return nil
}

// snapshotPerception records which perception taxes each line carries
func (e *Engine) snapshotPerception(ctx context.Context, doc *trade.Document) (map[uuid.UUID][]uuid.UUID, error) {
	defs, err := e.definitions(ctx, doc)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[uuid.UUID][]uuid.UUID)
	for _, line := range doc.Lines {
		for _, id := range line.TaxIDs {
			if def, ok := defs[id]; ok && def.IsPerception {
				snapshot[line.ID] = append(snapshot[line.ID], id)
			}
		}
	}
	return snapshot, nil
}

func (e *Engine) collectFacts(ctx context.Context, doc *trade.Document, strategy DocumentStrategy) (*Facts, error) {
	defs, err := e.definitions(ctx, doc)
	if err != nil {
		return nil, err
	}

	facts := &Facts{
		Document:  doc,
		Direction: doc.Direction(),
		Party:     e.evaluator.Evaluate(ctx, doc.PartyID),
	}

	flags := make(map[uuid.UUID]bool)
	for _, line := range strategy.Lines(doc) {
		flagged, seen := flags[line.ProductID]
		if !seen {
			flagged, err = e.products.IsSubjectToPerception(ctx, line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
			}
			flags[line.ProductID] = flagged
		}
		assigned := resolveAssigned(line, defs)
		facts.Lines = append(facts.Lines, LineFacts{
			Line:     line,
			Flagged:  flagged,
			Assigned: assigned,
			VATRate:  ObservedVATRate(assigned, facts.Direction),
		})
	}
	return facts, nil
}

func (e *Engine) definitions(ctx context.Context, doc *trade.Document) (map[uuid.UUID]tax.Definition, error) {
	ids := doc.TaxIDs()
	defs := make(map[uuid.UUID]tax.Definition, len(ids))
	if len(ids) == 0 {
		return defs, nil
	}
	list, err := e.registry.FindByIDs(ctx, doc.TenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("load taxes: %w", err)
	}
	for _, def := range list {
		defs[def.ID] = def
	}
	return defs, nil
}

func (e *Engine) recomputeTotals(ctx context.Context, doc *trade.Document) error {
	defs, err := e.definitions(ctx, doc)
	if err != nil {
		return err
	}
	doc.RecomputeTotals(defs)
	for _, l := range e.listeners {
		l(ctx, doc, true)
	}
	return nil
}

func (e *Engine) fail(ctx context.Context, doc *trade.Document, cp checkpoint, reason string, err error) bool {
	cp.restore(doc)
	e.docLogger(doc).Error("perception recalculation failed, document restored",
		zap.String("stage", reason),
		zap.Error(err),
	)
	e.recorder.RecordFailure(ctx, doc.Kind, reason)
	return false
}

func (e *Engine) docLogger(doc *trade.Document) *zap.Logger {
	return e.logger.With(
		zap.String("document_id", doc.ID.String()),
		zap.String("document_kind", doc.Kind.String()),
		zap.String("document_number", doc.Number),
		zap.String("party_id", doc.PartyID.String()),
	)
}

// checkpoint is the part of a document a recalculation may write
type checkpoint struct {
	lines          []trade.Line
	untaxed        decimal.Decimal
	taxAmount      decimal.Decimal
	total          decimal.Decimal
	perceptionBase decimal.Decimal
	perceptionSum  decimal.Decimal
}

func takeCheckpoint(doc *trade.Document) checkpoint {
	return checkpoint{
		lines:          doc.CloneLines(),
		untaxed:        doc.AmountUntaxed,
		taxAmount:      doc.AmountTax,
		total:          doc.AmountTotal,
		perceptionBase: doc.PerceptionBaseAmount,
		perceptionSum:  doc.PerceptionTotalAmount,
	}
}

func (c checkpoint) restore(doc *trade.Document) {
	doc.Lines = c.lines
	doc.AmountUntaxed = c.untaxed
	doc.AmountTax = c.taxAmount
	doc.AmountTotal = c.total
	doc.SetPerceptionSummary(c.perceptionBase, c.perceptionSum)
}
