package perception

import (
	"context"
	"errors"
	"sync"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ==================== Mock Implementations ====================

// MockPartyLookup is a mock implementation of PartyLookup
type MockPartyLookup struct {
	mock.Mock
}

func (m *MockPartyLookup) FiscalClassification(ctx context.Context, partyID uuid.UUID) (*string, error) {
	args := m.Called(ctx, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

func (m *MockPartyLookup) IsExempt(ctx context.Context, partyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, partyID)
	return args.Bool(0), args.Error(1)
}

// ==================== In-memory collaborators ====================

type stubParty struct {
	code   *string
	exempt bool
	err    error
}

type memParties struct {
	parties map[uuid.UUID]stubParty
}

func newMemParties() *memParties {
	return &memParties{parties: make(map[uuid.UUID]stubParty)}
}

func (p *memParties) add(code string, exempt bool) uuid.UUID {
	id := uuid.New()
	var c *string
	if code != "" {
		c = &code
	}
	p.parties[id] = stubParty{code: c, exempt: exempt}
	return id
}

func (p *memParties) FiscalClassification(_ context.Context, partyID uuid.UUID) (*string, error) {
	party, ok := p.parties[partyID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return party.code, party.err
}

func (p *memParties) IsExempt(_ context.Context, partyID uuid.UUID) (bool, error) {
	party, ok := p.parties[partyID]
	if !ok {
		return false, shared.ErrNotFound
	}
	return party.exempt, nil
}

type memProducts struct {
	flags map[uuid.UUID]bool
	err   error
	calls int
}

func newMemProducts() *memProducts {
	return &memProducts{flags: make(map[uuid.UUID]bool)}
}

func (p *memProducts) add(flagged bool) uuid.UUID {
	id := uuid.New()
	p.flags[id] = flagged
	return id
}

func (p *memProducts) IsSubjectToPerception(_ context.Context, productID uuid.UUID) (bool, error) {
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	return p.flags[productID], nil
}

type memTaxes struct {
	mu      sync.Mutex
	defs    map[uuid.UUID]tax.Definition
	findErr error
}

func newMemTaxes() *memTaxes {
	return &memTaxes{defs: make(map[uuid.UUID]tax.Definition)}
}

func (r *memTaxes) addVAT(tenantID uuid.UUID, rate string, direction tax.Direction) tax.Definition {
	def, err := tax.NewDefinition(tenantID, "IVA "+rate+"%", decimal.RequireFromString(rate), direction)
	if err != nil {
		panic(err)
	}
	r.defs[def.ID] = *def
	return *def
}

func (r *memTaxes) addPerception(tenantID uuid.UUID, rate string, direction tax.Direction) tax.Definition {
	def, err := tax.NewPerceptionDefinition(tenantID, "Percepción IVA "+rate+"%", decimal.RequireFromString(rate), direction)
	if err != nil {
		panic(err)
	}
	r.defs[def.ID] = *def
	return *def
}

func (r *memTaxes) FindPerceptionTax(_ context.Context, tenantID uuid.UUID, rate decimal.Decimal, direction tax.Direction) (*tax.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, def := range r.defs {
		if def.TenantID == tenantID && def.IsPerception && def.Active && def.Direction == direction && def.Rate.Equal(rate) {
			d := def
			return &d, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memTaxes) FindByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]tax.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]tax.Definition, 0, len(ids))
	for _, id := range ids {
		if def, ok := r.defs[id]; ok && def.TenantID == tenantID {
			out = append(out, def)
		}
	}
	return out, nil
}

var errStorage = errors.New("connection reset by peer")
