package models

import (
	"github.com/erp/perception/internal/domain/finance"
)

// AccountModel is the persistence model for a ledger account
type AccountModel struct {
	TenantAggregateModel
	Code      string              `gorm:"type:varchar(32);not null;index:idx_account_code"`
	Name      string              `gorm:"type:varchar(200);not null"`
	Type      finance.AccountType `gorm:"type:varchar(32);not null"`
	Reconcile bool                `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain Account
func (m *AccountModel) ToDomain() *finance.Account {
	return &finance.Account{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Type:                m.Type,
		Reconcile:           m.Reconcile,
	}
}

// AccountModelFromDomain creates a persistence model from a domain Account
func AccountModelFromDomain(a *finance.Account) *AccountModel {
	m := &AccountModel{Code: a.Code, Name: a.Name, Type: a.Type, Reconcile: a.Reconcile}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}
