package models

import (
	"github.com/erp/perception/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// TaxDefinitionModel is the persistence model for a tax definition
type TaxDefinitionModel struct {
	TenantAggregateModel
	Name          string          `gorm:"type:varchar(120);not null"`
	Rate          decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	Direction     tax.Direction   `gorm:"type:varchar(10);not null;index:idx_tax_perception_lookup,priority:2"`
	IsPerception  bool            `gorm:"not null;default:false;index:idx_tax_perception_lookup,priority:1"`
	PriceIncluded bool            `gorm:"not null;default:false"`
	Active        bool            `gorm:"not null"`
	AccountCode   string          `gorm:"type:varchar(32)"`
}

// TableName returns the table name for GORM
func (TaxDefinitionModel) TableName() string {
	return "tax_definitions"
}

// ToDomain converts the model to a domain Definition
func (m *TaxDefinitionModel) ToDomain() *tax.Definition {
	return &tax.Definition{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Rate:                m.Rate,
		Direction:           m.Direction,
		IsPerception:        m.IsPerception,
		PriceIncluded:       m.PriceIncluded,
		Active:              m.Active,
		AccountCode:         m.AccountCode,
	}
}

// TaxDefinitionModelFromDomain creates a persistence model from a domain Definition
func TaxDefinitionModelFromDomain(d *tax.Definition) *TaxDefinitionModel {
	m := &TaxDefinitionModel{
		Name:          d.Name,
		Rate:          d.Rate,
		Direction:     d.Direction,
		IsPerception:  d.IsPerception,
		PriceIncluded: d.PriceIncluded,
		Active:        d.Active,
		AccountCode:   d.AccountCode,
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	return m
}
