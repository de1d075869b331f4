package partner

import (
	"strings"
	"unicode"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/google/uuid"
)

// ResponsibilityRegistered is the AFIP responsibility code of a VAT-registered
// taxpayer (Responsable Inscripto)
const ResponsibilityRegistered = "1"

// ErrClassificationUnavailable is returned by party lookups when the tenant has
// no fiscal localization data at all, as opposed to a party with an empty code
var ErrClassificationUnavailable = shared.NewDomainError("FISCAL_CLASSIFICATION_UNAVAILABLE", "Fiscal classification is not available for this company")

// Party is a customer or vendor as seen by the tax rules
type Party struct {
	shared.TenantAggregateRoot
	Name                     string
	VAT                      string  // CUIT, digits only
	FiscalClassificationCode *string // nil when the party has no AFIP responsibility type
	PerceptionExempt         bool
	ReceivableAccountCode    string
}

// NewParty creates a party with a required name
func NewParty(tenantID uuid.UUID, name string) (*Party, error) {
	if err := validatePartyName(name); err != nil {
		return nil, err
	}
	return &Party{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
	}, nil
}

// Rename changes the display name
func (p *Party) Rename(name string) error {
	if err := validatePartyName(name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Touch()
	return nil
}

// SetVAT stores a CUIT. Dashes and spaces are stripped; an empty value clears it.
func (p *Party) SetVAT(vat string) error {
	normalized := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, vat)
	if normalized != "" {
		if len(normalized) != 11 {
			return shared.NewDomainError("INVALID_VAT", "CUIT must have 11 digits")
		}
		for _, r := range normalized {
			if r < '0' || r > '9' {
				return shared.NewDomainError("INVALID_VAT", "CUIT must contain only digits")
			}
		}
	}
	p.VAT = normalized
	p.Touch()
	return nil
}

// SetFiscalClassification sets the AFIP responsibility code. An empty code clears it.
func (p *Party) SetFiscalClassification(code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		p.FiscalClassificationCode = nil
	} else {
		p.FiscalClassificationCode = &code
	}
	p.Touch()
}

// SetPerceptionExempt marks the party as exempt from (or subject to) the perception regime
func (p *Party) SetPerceptionExempt(exempt bool) {
	p.PerceptionExempt = exempt
	p.Touch()
}

// IsRegisteredTaxpayer reports whether the party carries the registered-taxpayer code
func (p *Party) IsRegisteredTaxpayer() bool {
	return p.FiscalClassificationCode != nil && *p.FiscalClassificationCode == ResponsibilityRegistered
}

func validatePartyName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Party name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Party name cannot exceed 200 characters")
	}
	return nil
}
