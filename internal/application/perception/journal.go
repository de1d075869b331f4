package perception

import (
	"context"
	"fmt"
	"sort"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// rateGroup accumulates the perception amount of one rate on an invoice
type rateGroup struct {
	rate    decimal.Decimal
	account string
	amount  decimal.Decimal
}

// perceptionJournal builds one tax/receivable item pair per perception rate
// found on the invoice lines
func (s *Service) perceptionJournal(ctx context.Context, doc *trade.Document) ([]trade.JournalItem, error) {
	defs, err := s.taxes.FindByIDs(ctx, doc.TenantID, doc.TaxIDs())
	if err != nil {
		return nil, fmt.Errorf("load invoice taxes: %w", err)
	}
	byID := make(map[uuid.UUID]tax.Definition, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}

	groups := make(map[string]*rateGroup)
	for _, line := range doc.Lines {
		for _, id := range line.TaxIDs {
			def, ok := byID[id]
			if !ok || !def.IsPerception {
				continue
			}
			if !def.HasAccount() {
				return nil, shared.NewDomainError("MISSING_ACCOUNT",
					fmt.Sprintf("Perception tax %s has no account configured", def.Name))
			}
			key := def.Rate.String()
			g, ok := groups[key]
			if !ok {
				g = &rateGroup{rate: def.Rate, account: def.AccountCode, amount: decimal.Zero}
				groups[key] = g
			}
			g.amount = g.amount.Add(line.Subtotal.Mul(def.Rate).Div(hundred))
		}
	}
	if len(groups) == 0 {
		return nil, nil
	}

	party, err := s.parties.FindByIDForTenant(ctx, doc.TenantID, doc.PartyID)
	if err != nil {
		return nil, fmt.Errorf("load invoice party: %w", err)
	}
	receivable := party.ReceivableAccountCode
	if receivable == "" {
		receivable = s.receivableAccount
	}
	vat := party.VAT
	if vat == "" {
		vat = "Sin CUIT"
	}

	ordered := make([]*rateGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].rate.GreaterThan(ordered[j].rate)
	})

	items := make([]trade.JournalItem, 0, 2*len(ordered))
	for _, g := range ordered {
		amount := g.amount.Round(2)
		if amount.IsZero() {
			continue
		}
		name := fmt.Sprintf("Percepción RG 5329 - %s - CUIT: %s - %s", rateDescription(g.rate), vat, party.Name)
		taxItem := trade.JournalItem{
			ID:             uuid.New(),
			Name:           name,
			AccountCode:    g.account,
			PartyID:        party.ID,
			Debit:          decimal.Zero,
			Credit:         amount,
			PerceptionRate: g.rate,
		}
		counterpart := trade.JournalItem{
			ID:             uuid.New(),
			Name:           name,
			AccountCode:    receivable,
			PartyID:        party.ID,
			Debit:          amount,
			Credit:         decimal.Zero,
			PerceptionRate: g.rate,
		}
		if doc.MoveType.IsRefund() {
			taxItem.Debit, taxItem.Credit = taxItem.Credit, taxItem.Debit
			counterpart.Debit, counterpart.Credit = counterpart.Credit, counterpart.Debit
		}
		items = append(items, taxItem, counterpart)
	}

	s.logger.Debug("perception journal items generated",
		zap.String("document_id", doc.ID.String()),
		zap.Int("groups", len(ordered)),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// rateDescription renders a perception rate with the VAT rate it applies to
func rateDescription(rate decimal.Decimal) string {
	if rate.Equal(tax.PerceptionRateReduced) {
		return "1,5% (IVA 10,5%)"
	}
	return "3% (IVA 21%)"
}
