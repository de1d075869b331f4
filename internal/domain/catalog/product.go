package catalog

import (
	"strings"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/google/uuid"
)

// Product is a catalog template. Sellable and purchasable items are its
// variants; a variant has no perception flag of its own.
type Product struct {
	shared.TenantAggregateRoot
	Code                string
	Name                string
	SubjectToPerception bool
	Variants            []Variant
}

// Variant is a concrete item referenced by document lines
type Variant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	SKU       string
	Attribute string // e.g. "Color: Rojo"
}

// NewProduct creates a product with a default variant
func NewProduct(tenantID uuid.UUID, code, name string) (*Product, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	p := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
	}
	p.Variants = []Variant{{ID: uuid.New(), ProductID: p.ID, SKU: code}}
	return p, nil
}

// AddVariant adds a variant. The SKU must be unique within the product.
func (p *Product) AddVariant(sku, attribute string) (*Variant, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Variant SKU cannot be empty")
	}
	for _, v := range p.Variants {
		if v.SKU == sku {
			return nil, shared.NewDomainError("DUPLICATE_SKU", "Variant SKU already exists for this product")
		}
	}
	p.Variants = append(p.Variants, Variant{
		ID:        uuid.New(),
		ProductID: p.ID,
		SKU:       sku,
		Attribute: attribute,
	})
	p.Touch()
	return &p.Variants[len(p.Variants)-1], nil
}

// DefaultVariant returns the first variant
func (p *Product) DefaultVariant() *Variant {
	if len(p.Variants) == 0 {
		return nil
	}
	return &p.Variants[0]
}

// SetSubjectToPerception sets the flag for the template and therefore every variant
func (p *Product) SetSubjectToPerception(subject bool) {
	p.SubjectToPerception = subject
	p.Touch()
}

// HasVariant reports whether the variant belongs to this product
func (p *Product) HasVariant(variantID uuid.UUID) bool {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return true
		}
	}
	return false
}
