package trade

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository persists documents with their lines and journal items
type DocumentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, kind Kind, number string) (*Document, error)
	// NextNumber returns the next free number for the kind, e.g. POS00007
	NextNumber(ctx context.Context, tenantID uuid.UUID, kind Kind) (string, error)
	// Save inserts or updates the document. Updates fail with
	// shared.ErrConcurrencyConflict when the stored version moved on.
	Save(ctx context.Context, doc *Document) error
}
