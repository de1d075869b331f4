package tax

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository persists tax definitions
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Definition, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Definition, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*Definition, error)
	// FindPerception returns the oldest active perception tax for (rate, direction),
	// or shared.ErrNotFound
	FindPerception(ctx context.Context, tenantID uuid.UUID, rate decimal.Decimal, direction Direction) (*Definition, error)
	FindPerceptionWithoutAccount(ctx context.Context, tenantID uuid.UUID) ([]Definition, error)
	Save(ctx context.Context, def *Definition) error
}
