package models

import (
	"github.com/erp/perception/internal/domain/partner"
)

// PartyModel is the persistence model for the Party aggregate root
type PartyModel struct {
	TenantAggregateModel
	Name                     string  `gorm:"type:varchar(200);not null"`
	VAT                      string  `gorm:"column:vat;type:varchar(11);index"`
	FiscalClassificationCode *string `gorm:"type:varchar(4)"`
	PerceptionExempt         bool    `gorm:"not null;default:false"`
	ReceivableAccountCode    string  `gorm:"type:varchar(32)"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the model to a domain Party
func (m *PartyModel) ToDomain() *partner.Party {
	return &partner.Party{
		TenantAggregateRoot:      m.ToDomainTenantAggregateRoot(),
		Name:                     m.Name,
		VAT:                      m.VAT,
		FiscalClassificationCode: m.FiscalClassificationCode,
		PerceptionExempt:         m.PerceptionExempt,
		ReceivableAccountCode:    m.ReceivableAccountCode,
	}
}

// PartyModelFromDomain creates a persistence model from a domain Party
func PartyModelFromDomain(p *partner.Party) *PartyModel {
	m := &PartyModel{
		Name:                     p.Name,
		VAT:                      p.VAT,
		FiscalClassificationCode: p.FiscalClassificationCode,
		PerceptionExempt:         p.PerceptionExempt,
		ReceivableAccountCode:    p.ReceivableAccountCode,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}
