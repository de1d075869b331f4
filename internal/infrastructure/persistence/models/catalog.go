package models

import (
	"github.com/erp/perception/internal/domain/catalog"
	"github.com/google/uuid"
)

// ProductModel is the persistence model for the Product aggregate root
type ProductModel struct {
	TenantAggregateModel
	Code                string                `gorm:"type:varchar(50);not null;index:idx_product_code"`
	Name                string                `gorm:"type:varchar(200);not null"`
	SubjectToPerception bool                  `gorm:"not null;default:false"`
	Variants            []ProductVariantModel `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ProductVariantModel is the persistence model for a product variant
type ProductVariantModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU       string    `gorm:"column:sku;type:varchar(64);not null"`
	Attribute string    `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		SubjectToPerception: m.SubjectToPerception,
		Variants:            make([]catalog.Variant, len(m.Variants)),
	}
	for i, v := range m.Variants {
		p.Variants[i] = catalog.Variant{ID: v.ID, ProductID: v.ProductID, SKU: v.SKU, Attribute: v.Attribute}
	}
	return p
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Code:                p.Code,
		Name:                p.Name,
		SubjectToPerception: p.SubjectToPerception,
		Variants:            make([]ProductVariantModel, len(p.Variants)),
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	for i, v := range p.Variants {
		m.Variants[i] = ProductVariantModel{ID: v.ID, ProductID: p.ID, SKU: v.SKU, Attribute: v.Attribute}
	}
	return m
}
