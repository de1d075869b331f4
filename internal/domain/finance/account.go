package finance

import (
	"context"
	"strings"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountType classifies a ledger account
type AccountType string

const (
	AccountTypeLiabilityCurrent AccountType = "liability_current"
	AccountTypeAssetReceivable  AccountType = "asset_receivable"
)

// IsValid checks if the account type is known
func (t AccountType) IsValid() bool {
	return t == AccountTypeLiabilityCurrent || t == AccountTypeAssetReceivable
}

// Account is a chart-of-accounts entry
type Account struct {
	shared.TenantAggregateRoot
	Code      string
	Name      string
	Type      AccountType
	Reconcile bool
}

// NewAccount creates an account
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Account code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Unknown account type")
	}
	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Type:                accountType,
	}, nil
}

// AccountRepository persists accounts
type AccountRepository interface {
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	Save(ctx context.Context, account *Account) error
}
