// Package seed loads the fiscal catalogue (ledger accounts and tax
// definitions) from YAML and upserts it for a tenant.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/erp/perception/internal/domain/finance"
	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML document
type Catalog struct {
	Accounts []AccountEntry `yaml:"accounts"`
	Taxes    []TaxEntry     `yaml:"taxes"`
}

// AccountEntry describes a ledger account
type AccountEntry struct {
	Code      string `yaml:"code"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Reconcile bool   `yaml:"reconcile"`
}

// TaxEntry describes a tax definition. Rate is a decimal string.
type TaxEntry struct {
	Name          string `yaml:"name"`
	Rate          string `yaml:"rate"`
	Direction     string `yaml:"direction"`
	Perception    bool   `yaml:"perception"`
	PriceIncluded bool   `yaml:"price_included"`
	Account       string `yaml:"account"`
}

// Load reads and parses a catalogue file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed catalogue: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalogue
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse seed catalogue: %w", err)
	}
	return &c, nil
}

// TaxStore is the subset of tax storage the seeder writes through
type TaxStore interface {
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*tax.Definition, error)
	Save(ctx context.Context, def *tax.Definition) error
}

// Result counts what Apply changed
type Result struct {
	AccountsCreated int
	TaxesCreated    int
	TaxesUpdated    int
}

// Seeder upserts a catalogue for a tenant. Existing records are matched by
// account code and tax name.
type Seeder struct {
	accounts finance.AccountRepository
	taxes    TaxStore
	logger   *zap.Logger
}

// NewSeeder creates a Seeder
func NewSeeder(accounts finance.AccountRepository, taxes TaxStore, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{accounts: accounts, taxes: taxes, logger: logger}
}

// Apply creates missing accounts and taxes and refreshes the mutable fields
// of existing taxes
func (s *Seeder) Apply(ctx context.Context, tenantID uuid.UUID, c *Catalog) (Result, error) {
	var res Result

	for _, entry := range c.Accounts {
		_, err := s.accounts.FindByCode(ctx, tenantID, entry.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return res, fmt.Errorf("find account %s: %w", entry.Code, err)
		}
		acc, err := finance.NewAccount(tenantID, entry.Code, entry.Name, finance.AccountType(entry.Type))
		if err != nil {
			return res, fmt.Errorf("account %s: %w", entry.Code, err)
		}
		acc.Reconcile = entry.Reconcile
		if err := s.accounts.Save(ctx, acc); err != nil {
			return res, fmt.Errorf("save account %s: %w", entry.Code, err)
		}
		res.AccountsCreated++
	}

	for _, entry := range c.Taxes {
		rate, err := decimal.NewFromString(entry.Rate)
		if err != nil {
			return res, fmt.Errorf("tax %q: invalid rate %q", entry.Name, entry.Rate)
		}
		direction := tax.Direction(entry.Direction)

		existing, err := s.taxes.FindByName(ctx, tenantID, entry.Name)
		switch {
		case err == nil:
			if !existing.Rate.Equal(rate) || existing.Direction != direction {
				return res, fmt.Errorf("tax %q: stored rate or direction differs from catalogue", entry.Name)
			}
			if existing.AccountCode == entry.Account && existing.PriceIncluded == entry.PriceIncluded {
				continue
			}
			existing.AccountCode = entry.Account
			existing.PriceIncluded = entry.PriceIncluded
			existing.Touch()
			if err := s.taxes.Save(ctx, existing); err != nil {
				return res, fmt.Errorf("save tax %q: %w", entry.Name, err)
			}
			res.TaxesUpdated++
			continue
		case !errors.Is(err, shared.ErrNotFound):
			return res, fmt.Errorf("find tax %q: %w", entry.Name, err)
		}

		var def *tax.Definition
		if entry.Perception {
			def, err = tax.NewPerceptionDefinition(tenantID, entry.Name, rate, direction)
		} else {
			def, err = tax.NewDefinition(tenantID, entry.Name, rate, direction)
		}
		if err != nil {
			return res, fmt.Errorf("tax %q: %w", entry.Name, err)
		}
		def.PriceIncluded = entry.PriceIncluded
		def.AccountCode = entry.Account
		if err := s.taxes.Save(ctx, def); err != nil {
			return res, fmt.Errorf("save tax %q: %w", entry.Name, err)
		}
		res.TaxesCreated++
	}

	s.logger.Info("seed catalogue applied",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("accounts_created", res.AccountsCreated),
		zap.Int("taxes_created", res.TaxesCreated),
		zap.Int("taxes_updated", res.TaxesUpdated),
	)
	return res, nil
}
