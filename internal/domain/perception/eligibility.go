package perception

import (
	"context"
	"errors"

	"github.com/erp/perception/internal/domain/partner"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PartyStatus is the outcome of evaluating a party
type PartyStatus struct {
	Eligible bool
	Exempt   bool
}

// Applies reports whether the regime applies to the party at all
func (s PartyStatus) Applies() bool {
	return s.Eligible && !s.Exempt
}

// EligibilityEvaluator decides whether a party falls under the regime.
// Every failure path answers "not eligible".
type EligibilityEvaluator struct {
	parties PartyLookup
	logger  *zap.Logger
}

// NewEligibilityEvaluator creates an EligibilityEvaluator
func NewEligibilityEvaluator(parties PartyLookup, logger *zap.Logger) *EligibilityEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityEvaluator{parties: parties, logger: logger}
}

// IsEligible reports whether the party is a registered taxpayer
func (e *EligibilityEvaluator) IsEligible(ctx context.Context, partyID uuid.UUID) (eligible bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("fiscal classification lookup panicked",
				zap.String("party_id", partyID.String()),
				zap.Any("panic", r),
			)
			eligible = false
		}
	}()

	code, err := e.parties.FiscalClassification(ctx, partyID)
	switch {
	case errors.Is(err, partner.ErrClassificationUnavailable):
		e.logger.Warn("fiscal classification not available, party treated as not eligible",
			zap.String("party_id", partyID.String()),
		)
		return false
	case err != nil:
		e.logger.Error("fiscal classification lookup failed, party treated as not eligible",
			zap.String("party_id", partyID.String()),
			zap.Error(err),
		)
		return false
	case code == nil || *code == "":
		e.logger.Info("party has no fiscal classification, not eligible",
			zap.String("party_id", partyID.String()),
		)
		return false
	}
	return *code == partner.ResponsibilityRegistered
}

// IsExempt reports whether the party is exempt. Lookup failures count as exempt.
func (e *EligibilityEvaluator) IsExempt(ctx context.Context, partyID uuid.UUID) bool {
	exempt, err := e.parties.IsExempt(ctx, partyID)
	if err != nil {
		e.logger.Error("exemption lookup failed, party treated as exempt",
			zap.String("party_id", partyID.String()),
			zap.Error(err),
		)
		return true
	}
	return exempt
}

// Evaluate returns eligibility and exemption for the party
func (e *EligibilityEvaluator) Evaluate(ctx context.Context, partyID uuid.UUID) PartyStatus {
	status := PartyStatus{Exempt: e.IsExempt(ctx, partyID)}
	if status.Exempt {
		return status
	}
	status.Eligible = e.IsEligible(ctx, partyID)
	return status
}
