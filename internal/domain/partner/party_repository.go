package partner

import (
	"context"

	"github.com/google/uuid"
)

// PartyRepository persists parties
type PartyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Party, error)
	Save(ctx context.Context, party *Party) error
}
