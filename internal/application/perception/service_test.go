package perception

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==================== ApplyManually ====================

func TestService_ApplyManually(t *testing.T) {
	t.Run("applies perception above the threshold", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))

		result, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "RG5329 tax has been applied to order S00001. New total: $186,000.00", result.Message)
		assertAmount(t, "186000", result.NewTotal)
		assert.Equal(t, Notification{
			Title:   "RG5329 Tax Applied",
			Message: result.Message,
			Type:    NotificationSuccess,
		}, result.Notification)

		stored := f.reload(t, doc.ID)
		assert.ElementsMatch(t, []uuid.UUID{f.vat21.ID, f.perc3.ID}, lineTaxes(stored, 0))
		assertAmount(t, "150000", stored.PerceptionBaseAmount)
		assertAmount(t, "4500", stored.PerceptionTotalAmount)
	})

	t.Run("purchase orders are named as such", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindPurchaseOrder, "P00001", f.customer,
			line(f.plain, 2, "500", f.purchase21))

		result, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindPurchaseOrder, doc.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "RG5329 tax has been applied to purchase order P00001. New total: $1,210.00", result.Message)
	})

	t.Run("below the threshold keeps the base and charges nothing", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "1000", f.vat21))

		result, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)

		summary, err := f.service.Summary(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		assertAmount(t, "1000", summary.BaseAmount)
		assertAmount(t, "0", summary.TotalAmount)
		assert.Equal(t, []uuid.UUID{f.vat21.ID}, lineTaxes(f.reload(t, doc.ID), 0))
	})

	t.Run("wrong kind is not found", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer)

		_, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindPOSOrder, doc.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.ApplyManually(f.ctx, testTenant, trade.Kind("quotation"), uuid.New())
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_KIND", domainErr.Code)
	})

	t.Run("lookup failure is reported and leaves the document unchanged", func(t *testing.T) {
		f := newFixture(t)
		products := new(MockProductLookup)
		products.On("IsSubjectToPerception", mock.Anything, mock.Anything).Return(false, errors.New("catalog offline"))
		service := f.newService(f.newEngine(products))
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))

		result, err := service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.True(t, strings.HasPrefix(result.Message, "Error applying RG5329 tax: "))
		assert.Equal(t, "RG5329 Error", result.Notification.Title)
		assert.Equal(t, NotificationDanger, result.Notification.Type)
		assert.True(t, result.Notification.Sticky)

		stored := f.reload(t, doc.ID)
		assert.Equal(t, []uuid.UUID{f.vat21.ID}, lineTaxes(stored, 0))
		assert.Equal(t, doc.Version, stored.Version)
		products.AssertExpectations(t)
	})
}

// ==================== Edits ====================

func TestService_AddLine(t *testing.T) {
	f := newFixture(t)
	doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer)

	resp, err := f.service.AddLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, AddLineRequest{
		ProductID: f.flagged,
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: decimal.NewFromInt(100000),
		TaxIDs:    []uuid.UUID{f.vat105.ID},
	})
	require.NoError(t, err)
	require.Len(t, resp.Lines, 1)
	assert.ElementsMatch(t, []uuid.UUID{f.vat105.ID, f.perc15.ID}, resp.Lines[0].TaxIDs)
	assertAmount(t, "200000", resp.Perception.BaseAmount)
	assertAmount(t, "3000", resp.Perception.TotalAmount)
	assertAmount(t, "224000", resp.AmountTotal)
	assert.Equal(t, 1, f.logs.FilterMessage("perception recalculated after edit").Len())
}

func TestService_UpdateLine(t *testing.T) {
	t.Run("dropping below the threshold removes the perception tax", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 2, "60000", f.vat21))
		_, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		require.Contains(t, lineTaxes(f.reload(t, doc.ID), 0), f.perc3.ID)

		qty := decimal.NewFromInt(1)
		resp, err := f.service.UpdateLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, doc.Lines[0].ID, UpdateLineRequest{Quantity: &qty})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.vat21.ID}, resp.Lines[0].TaxIDs)
		assertAmount(t, "60000", resp.Perception.BaseAmount)
		assertAmount(t, "0", resp.Perception.TotalAmount)
	})

	t.Run("switching the VAT rate switches the perception rate", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))
		_, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)

		taxes := []uuid.UUID{f.vat105.ID}
		resp, err := f.service.UpdateLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, doc.Lines[0].ID, UpdateLineRequest{TaxIDs: &taxes})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{f.vat105.ID, f.perc15.ID}, resp.Lines[0].TaxIDs)
		assertAmount(t, "2250", resp.Perception.TotalAmount)
	})

	t.Run("changing to an unflagged product removes the perception tax", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))
		_, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)

		resp, err := f.service.UpdateLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, doc.Lines[0].ID, UpdateLineRequest{ProductID: &f.plain})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.vat21.ID}, resp.Lines[0].TaxIDs)
		assertAmount(t, "0", resp.Perception.BaseAmount)
	})

	t.Run("failed recalculation discards the edit", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))
		_, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		before := f.reload(t, doc.ID)

		products := new(MockProductLookup)
		products.On("IsSubjectToPerception", mock.Anything, mock.Anything).Return(false, errors.New("db down"))
		service := f.newService(f.newEngine(products))
		price := decimal.NewFromInt(50000)

		_, err = service.UpdateLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, doc.Lines[0].ID, UpdateLineRequest{UnitPrice: &price})
		assert.ErrorIs(t, err, ErrRecalculationFailed)

		stored := f.reload(t, doc.ID)
		assert.Equal(t, before.Version, stored.Version)
		assertAmount(t, "150000", stored.Lines[0].UnitPrice)
		assert.ElementsMatch(t, []uuid.UUID{f.vat21.ID, f.perc3.ID}, lineTaxes(stored, 0))
		assertAmount(t, "186000", stored.AmountTotal)
		assertAmount(t, "4500", stored.PerceptionTotalAmount)
		assert.Zero(t, f.logs.FilterMessage("perception recalculated after edit").Len())
		products.AssertExpectations(t)
	})

	t.Run("unknown line", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer)
		qty := decimal.NewFromInt(1)

		_, err := f.service.UpdateLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, uuid.New(), UpdateLineRequest{Quantity: &qty})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("confirmed documents cannot be edited", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "100", f.vat21))
		_, err := f.service.Confirm(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		qty := decimal.NewFromInt(3)

		_, err = f.service.UpdateLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, doc.Lines[0].ID, UpdateLineRequest{Quantity: &qty})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestService_RemoveLine(t *testing.T) {
	t.Run("dropping below the threshold removes the perception tax", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "60000", f.vat21),
			line(f.flagged, 1, "60000", f.vat21))
		_, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		require.Contains(t, lineTaxes(f.reload(t, doc.ID), 0), f.perc3.ID)

		resp, err := f.service.RemoveLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, doc.Lines[1].ID)
		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.Equal(t, []uuid.UUID{f.vat21.ID}, resp.Lines[0].TaxIDs)
		assertAmount(t, "60000", resp.Perception.BaseAmount)
		assertAmount(t, "0", resp.Perception.TotalAmount)
		assertAmount(t, "72600", resp.AmountTotal)
	})

	t.Run("unknown line", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer)

		_, err := f.service.RemoveLine(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_ChangeParty(t *testing.T) {
	f := newFixture(t)
	doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
		line(f.flagged, 1, "150000", f.vat21))
	_, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
	require.NoError(t, err)

	resp, err := f.service.ChangeParty(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, ChangePartyRequest{PartyID: f.consumer.ID})
	require.NoError(t, err)
	assert.Equal(t, f.consumer.ID, resp.PartyID)
	assert.Equal(t, "Consumidor Final", resp.PartyName)
	assert.Equal(t, []uuid.UUID{f.vat21.ID}, resp.Lines[0].TaxIDs)
	assertAmount(t, "0", resp.Perception.BaseAmount)

	t.Run("unknown party", func(t *testing.T) {
		_, err := f.service.ChangeParty(f.ctx, testTenant, trade.KindSalesOrder, doc.ID, ChangePartyRequest{PartyID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// ==================== Confirm ====================

func TestService_Confirm(t *testing.T) {
	t.Run("perception stripped during confirmation is restored", func(t *testing.T) {
		stripped := 0
		var f *fixture
		f = newFixture(t, WithConfirmHook(func(ctx context.Context, doc *trade.Document) error {
			for i := range doc.Lines {
				if doc.Lines[i].RemoveTax(f.perc3.ID) {
					stripped++
				}
			}
			return nil
		}))
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))

		resp, err := f.service.Confirm(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stripped)
		assert.Equal(t, "sale", resp.State)
		assert.NotNil(t, resp.ConfirmedAt)
		assert.ElementsMatch(t, []uuid.UUID{f.vat21.ID, f.perc3.ID}, resp.Lines[0].TaxIDs)
		assertAmount(t, "186000", resp.AmountTotal)
		assert.Equal(t, 1, f.logs.FilterMessage("perception taxes restored after confirmation").Len())

		stored := f.reload(t, doc.ID)
		assert.Equal(t, trade.StateSale, stored.State)
		assert.Contains(t, lineTaxes(stored, 0), f.perc3.ID)
	})

	t.Run("hook failure aborts the confirmation", func(t *testing.T) {
		f := newFixture(t, WithConfirmHook(func(context.Context, *trade.Document) error {
			return assert.AnError
		}))
		doc := f.order(t, trade.KindPurchaseOrder, "P00001", f.customer,
			line(f.flagged, 1, "150000", f.purchase21))

		_, err := f.service.Confirm(f.ctx, testTenant, trade.KindPurchaseOrder, doc.ID)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, trade.StateDraft, f.reload(t, doc.ID).State)
	})

	t.Run("already confirmed", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindPOSOrder, "POS00001", f.customer,
			line(f.flagged, 1, "100", f.vat21))
		_, err := f.service.Confirm(f.ctx, testTenant, trade.KindPOSOrder, doc.ID)
		require.NoError(t, err)

		_, err = f.service.Confirm(f.ctx, testTenant, trade.KindPOSOrder, doc.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

// ==================== POS ====================

func TestService_CreatePOSOrder(t *testing.T) {
	t.Run("unmapped VAT rate falls back to 3%", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.service.CreatePOSOrder(f.ctx, testTenant, PosOrderInput{
			PartyID: f.customer.ID,
			Lines: []PosLineInput{
				{ProductID: f.flagged, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(120000), TaxIDs: []uuid.UUID{f.vat15.ID}},
				{ProductID: f.plain, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5000), TaxIDs: []uuid.UUID{f.vat21.ID}},
			},
		})
		require.NoError(t, err)
		assert.True(t, resp.PerceptionApplied)
		assert.Equal(t, "POS00001", resp.Number)
		assert.Equal(t, "pos_order", resp.Kind)
		assert.ElementsMatch(t, []uuid.UUID{f.vat15.ID, f.perc3.ID}, resp.Lines[0].TaxIDs)
		assert.Equal(t, []uuid.UUID{f.vat21.ID}, resp.Lines[1].TaxIDs)
		assertAmount(t, "120000", resp.Perception.BaseAmount)
		assertAmount(t, "3600", resp.Perception.TotalAmount)

		stored := f.reload(t, resp.ID)
		assert.Contains(t, lineTaxes(stored, 0), f.perc3.ID)
	})

	t.Run("explicit number must be unique", func(t *testing.T) {
		f := newFixture(t)
		input := PosOrderInput{
			Number:  "CAJA1-0001",
			PartyID: f.customer.ID,
			Lines:   []PosLineInput{{ProductID: f.plain, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
		}
		_, err := f.service.CreatePOSOrder(f.ctx, testTenant, input)
		require.NoError(t, err)

		_, err = f.service.CreatePOSOrder(f.ctx, testTenant, input)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("stored even when perception fails", func(t *testing.T) {
		f := newFixture(t)
		products := new(MockProductLookup)
		products.On("IsSubjectToPerception", mock.Anything, mock.Anything).Return(false, errors.New("catalog offline"))
		service := f.newService(f.newEngine(products))

		resp, err := service.CreatePOSOrder(f.ctx, testTenant, PosOrderInput{
			PartyID: f.customer.ID,
			Lines:   []PosLineInput{{ProductID: f.flagged, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(150000), TaxIDs: []uuid.UUID{f.vat21.ID}}},
		})
		require.NoError(t, err)
		assert.False(t, resp.PerceptionApplied)
		assert.Equal(t, []uuid.UUID{f.vat21.ID}, resp.Lines[0].TaxIDs)
		assert.Equal(t, 1, f.logs.FilterMessage("perception not applied to POS order, storing it anyway").Len())
		f.reload(t, resp.ID)
	})

	t.Run("unknown party", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.CreatePOSOrder(f.ctx, testTenant, PosOrderInput{PartyID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// ==================== Invoices ====================

func TestService_PostInvoice(t *testing.T) {
	t.Run("customer invoice gets one item pair per rate", func(t *testing.T) {
		f := newFixture(t)
		doc := f.invoice(t, "INV00001", trade.MoveTypeOutInvoice, f.customer,
			line(f.flagged, 1, "100000", f.vat21),
			line(f.flagged, 1, "20000", f.vat105),
			line(f.plain, 1, "5000", f.vat21))

		resp, err := f.service.PostInvoice(f.ctx, testTenant, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "posted", resp.State)
		require.Len(t, resp.JournalItems, 4)

		name3 := "Percepción RG 5329 - 3% (IVA 21%) - CUIT: 30712345679 - Distribuidora Norte SA"
		name15 := "Percepción RG 5329 - 1,5% (IVA 10,5%) - CUIT: 30712345679 - Distribuidora Norte SA"
		items := resp.JournalItems
		assert.Equal(t, name3, items[0].Name)
		assert.Equal(t, PerceptionAccountCode, items[0].AccountCode)
		assertAmount(t, "3000", items[0].Credit)
		assertAmount(t, "0", items[0].Debit)
		assert.Equal(t, DefaultReceivableAccount, items[1].AccountCode)
		assertAmount(t, "3000", items[1].Debit)
		assert.Equal(t, name15, items[2].Name)
		assertAmount(t, "300", items[2].Credit)
		assertAmount(t, "300", items[3].Debit)

		t.Run("posting again regenerates without duplicates", func(t *testing.T) {
			resp, err := f.service.PostInvoice(f.ctx, testTenant, doc.ID)
			require.NoError(t, err)
			assert.Len(t, resp.JournalItems, 4)
			assert.Len(t, f.reload(t, doc.ID).PerceptionItems(), 4)
		})
	})

	t.Run("refund swaps debit and credit", func(t *testing.T) {
		f := newFixture(t)
		party := f.party(t, "Ferretería Sur SRL", "", "1")
		party.ReceivableAccountCode = "1.1.3.01.100"
		require.NoError(t, f.parties.Save(f.ctx, party))
		doc := f.invoice(t, "INV00002", trade.MoveTypeOutRefund, party,
			line(f.flagged, 1, "150000", f.vat21))

		resp, err := f.service.Confirm(f.ctx, testTenant, trade.KindInvoice, doc.ID)
		require.NoError(t, err)
		require.Len(t, resp.JournalItems, 2)
		assert.Equal(t, "Percepción RG 5329 - 3% (IVA 21%) - CUIT: Sin CUIT - Ferretería Sur SRL", resp.JournalItems[0].Name)
		assertAmount(t, "4500", resp.JournalItems[0].Debit)
		assert.Equal(t, "1.1.3.01.100", resp.JournalItems[1].AccountCode)
		assertAmount(t, "4500", resp.JournalItems[1].Credit)
	})

	t.Run("vendor bills get no perception items", func(t *testing.T) {
		f := newFixture(t)
		doc := f.invoice(t, "INV00003", trade.MoveTypeInInvoice, f.customer,
			line(f.flagged, 1, "150000", f.purchase21))

		resp, err := f.service.PostInvoice(f.ctx, testTenant, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "posted", resp.State)
		assert.Empty(t, resp.JournalItems)
		assert.Equal(t, []uuid.UUID{f.purchase21.ID}, resp.Lines[0].TaxIDs)
	})

	t.Run("perception tax without account", func(t *testing.T) {
		f := newFixture(t)
		f.perc3.AssignAccount("")
		require.NoError(t, f.registry.Save(f.ctx, f.perc3))
		doc := f.invoice(t, "INV00004", trade.MoveTypeOutInvoice, f.customer,
			line(f.flagged, 1, "150000", f.vat21))

		_, err := f.service.PostInvoice(f.ctx, testTenant, doc.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "MISSING_ACCOUNT", domainErr.Code)
		assert.Equal(t, trade.StateDraft, f.reload(t, doc.ID).State)
	})
}

// ==================== Setup ====================

func TestService_SetupAccounts(t *testing.T) {
	f := newFixture(t)
	f.perc3.AssignAccount("")
	require.NoError(t, f.registry.Save(f.ctx, f.perc3))
	f.perc15.AssignAccount("")
	require.NoError(t, f.registry.Save(f.ctx, f.perc15))

	result, err := f.service.SetupAccounts(f.ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, &SetupResult{AccountCode: PerceptionAccountCode, AccountCreated: true, TaxesAssigned: 2}, result)

	account, err := f.accounts.FindByCode(f.ctx, testTenant, PerceptionAccountCode)
	require.NoError(t, err)
	assert.Equal(t, PerceptionAccountName, account.Name)
	assert.True(t, account.Reconcile)

	defs, err := f.registry.FindByIDs(f.ctx, testTenant, []uuid.UUID{f.perc3.ID, f.perc15.ID})
	require.NoError(t, err)
	for _, def := range defs {
		assert.Equal(t, PerceptionAccountCode, def.AccountCode, def.Name)
	}

	t.Run("second run changes nothing", func(t *testing.T) {
		result, err := f.service.SetupAccounts(f.ctx, testTenant)
		require.NoError(t, err)
		assert.False(t, result.AccountCreated)
		assert.Zero(t, result.TaxesAssigned)
	})
}
