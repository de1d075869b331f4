package tax

import (
	"strings"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction tells whether a tax is used on sales or purchases
type Direction string

const (
	DirectionSale     Direction = "sale"
	DirectionPurchase Direction = "purchase"
)

// IsValid checks if the direction is known
func (d Direction) IsValid() bool {
	return d == DirectionSale || d == DirectionPurchase
}

// String returns the string representation
func (d Direction) String() string {
	return string(d)
}

// Perception rates allowed by RG 5329, in percent
var (
	PerceptionRateGeneral = decimal.NewFromInt(3)
	PerceptionRateReduced = decimal.RequireFromString("1.5")
)

// VAT rates that determine the perception rate, in percent
var (
	VATRateGeneral = decimal.NewFromInt(21)
	VATRateReduced = decimal.RequireFromString("10.5")
)

var hundred = decimal.NewFromInt(100)

// Definition is a percent tax that can be assigned to document lines
type Definition struct {
	shared.TenantAggregateRoot
	Name          string
	Rate          decimal.Decimal // percent, e.g. 21 or 1.5
	Direction     Direction
	IsPerception  bool
	PriceIncluded bool
	Active        bool
	AccountCode   string
}

// NewDefinition creates an ordinary (non perception) tax
func NewDefinition(tenantID uuid.UUID, name string, rate decimal.Decimal, direction Direction) (*Definition, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tax name cannot be empty")
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_RATE", "Tax rate must be between 0 and 100")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Tax direction must be sale or purchase")
	}
	return &Definition{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Rate:                rate,
		Direction:           direction,
		Active:              true,
	}, nil
}

// NewPerceptionDefinition creates an RG 5329 perception tax; only 3% and 1.5% are valid
func NewPerceptionDefinition(tenantID uuid.UUID, name string, rate decimal.Decimal, direction Direction) (*Definition, error) {
	if !IsPerceptionRate(rate) {
		return nil, shared.NewDomainError("INVALID_PERCEPTION_RATE", "Perception rate must be 3 or 1.5")
	}
	def, err := NewDefinition(tenantID, name, rate, direction)
	if err != nil {
		return nil, err
	}
	def.IsPerception = true
	return def, nil
}

// IsPerceptionRate reports whether rate is one of the RG 5329 rates
func IsPerceptionRate(rate decimal.Decimal) bool {
	return rate.Equal(PerceptionRateGeneral) || rate.Equal(PerceptionRateReduced)
}

// AssignAccount sets the ledger account the tax amount is booked to
func (d *Definition) AssignAccount(code string) {
	d.AccountCode = strings.TrimSpace(code)
	d.Touch()
}

// HasAccount reports whether an account is configured
func (d *Definition) HasAccount() bool {
	return d.AccountCode != ""
}

// Deactivate hides the definition from lookups
func (d *Definition) Deactivate() {
	d.Active = false
	d.Touch()
}

// Amount computes the tax on a price-exclusive base, rounded to cents
func (d *Definition) Amount(base decimal.Decimal) decimal.Decimal {
	return base.Mul(d.Rate).Div(hundred).Round(2)
}
