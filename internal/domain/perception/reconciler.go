package perception

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Decision is everything the reconciler needs to know about one line
type Decision struct {
	Flagged    bool
	Exempt     bool
	Eligible   bool
	GateActive bool
	VATRate    decimal.Decimal
	Direction  tax.Direction
}

// Wants reports whether the line should carry a perception tax
func (d Decision) Wants() bool {
	return d.Flagged && !d.Exempt && d.Eligible && d.GateActive
}

// LineChange lists the tax IDs added to and removed from a line
type LineChange struct {
	LineID  uuid.UUID
	Added   []uuid.UUID
	Removed []uuid.UUID
}

// IsEmpty reports whether nothing was changed
func (c LineChange) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Reconciler applies the minimal set of additions and removals that makes a
// line's perception taxes match the decision
type Reconciler struct {
	registry TaxRegistry
	logger   *zap.Logger
}

// NewReconciler creates a Reconciler
func NewReconciler(registry TaxRegistry, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{registry: registry, logger: logger}
}

// Reconcile mutates taxes so that at most one perception tax, the one matching
// the decision, is assigned. assigned holds the resolved definitions currently
// on the line. A missing target definition leaves the line unchanged.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID, lineID uuid.UUID, taxes TaxCollection, assigned []tax.Definition, d Decision) (LineChange, error) {
	change := LineChange{LineID: lineID}

	current := make([]tax.Definition, 0, 1)
	for _, def := range assigned {
		if def.IsPerception {
			current = append(current, def)
		}
	}

	if !d.Wants() {
		for _, def := range current {
			if taxes.RemoveTax(def.ID) {
				change.Removed = append(change.Removed, def.ID)
			}
		}
		return change, nil
	}

	rate := SelectRate(d.VATRate)
	target, err := r.registry.FindPerceptionTax(ctx, tenantID, rate, d.Direction)
	if err == nil && target == nil {
		err = shared.ErrNotFound
	}
	if errors.Is(err, shared.ErrNotFound) {
		r.logger.Warn("no perception tax configured, line left unchanged",
			zap.String("line_id", lineID.String()),
			zap.String("rate", rate.String()),
			zap.String("direction", d.Direction.String()),
		)
		return change, nil
	}
	if err != nil {
		return change, fmt.Errorf("find perception tax %s%% %s: %w", rate, d.Direction, err)
	}

	for _, def := range current {
		if def.ID != target.ID && taxes.RemoveTax(def.ID) {
			change.Removed = append(change.Removed, def.ID)
		}
	}
	if taxes.AddTax(target.ID) {
		change.Added = append(change.Added, target.ID)
	}
	return change, nil
}
