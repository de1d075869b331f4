package perception

import (
	"testing"

	"github.com/erp/perception/internal/domain/partner"
	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== DocumentChangedHandler ====================

func TestDocumentChangedHandler_EventTypes(t *testing.T) {
	h := NewDocumentChangedHandler(nil, nil, nil)
	assert.Equal(t, []string{trade.EventTypeDocumentChanged}, h.EventTypes())
}

func TestDocumentChangedHandler_Handle(t *testing.T) {
	t.Run("recalculates and stores the document", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))
		h := NewDocumentChangedHandler(f.documents, f.engine, f.logger)

		err := h.Handle(f.ctx, trade.NewDocumentChangedEvent(doc, trade.FieldQuantity))
		require.NoError(t, err)

		stored := f.reload(t, doc.ID)
		assert.Contains(t, lineTaxes(stored, 0), f.perc3.ID)
		assert.Equal(t, doc.Version+1, stored.Version)
	})

	t.Run("reconciled document is not stored again", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))
		_, err := f.service.ApplyManually(f.ctx, testTenant, trade.KindSalesOrder, doc.ID)
		require.NoError(t, err)
		applied := f.reload(t, doc.ID)
		h := NewDocumentChangedHandler(f.documents, f.engine, f.logger)

		require.NoError(t, h.Handle(f.ctx, trade.NewDocumentChangedEvent(applied, trade.FieldQuantity)))
		assert.Equal(t, applied.Version, f.reload(t, doc.ID).Version)
		assert.Equal(t, 1, f.logs.FilterMessage("perception already up to date").Len())
	})

	t.Run("irrelevant changes are ignored", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer,
			line(f.flagged, 1, "150000", f.vat21))
		h := NewDocumentChangedHandler(f.documents, f.engine, f.logger)

		require.NoError(t, h.Handle(f.ctx, trade.NewDocumentChangedEvent(doc, "note")))
		assert.Equal(t, doc.Version, f.reload(t, doc.ID).Version)
	})

	t.Run("missing document", func(t *testing.T) {
		f := newFixture(t)
		doc, err := trade.NewDocument(testTenant, trade.KindSalesOrder, "S00099", f.customer.ID, f.customer.Name)
		require.NoError(t, err)
		h := NewDocumentChangedHandler(f.documents, f.engine, f.logger)

		err = h.Handle(f.ctx, trade.NewDocumentChangedEvent(doc, trade.FieldLines))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unexpected event type", func(t *testing.T) {
		f := newFixture(t)
		doc := f.order(t, trade.KindSalesOrder, "S00001", f.customer)
		h := NewDocumentChangedHandler(f.documents, f.engine, f.logger)

		err := h.Handle(f.ctx, trade.NewDocumentConfirmedEvent(doc))
		assert.Error(t, err)
		assert.Equal(t, 1, f.logs.FilterMessage("unexpected event type").Len())
	})
}

// ==================== Directories ====================

func TestPartyDirectory(t *testing.T) {
	f := newFixture(t)

	t.Run("localized", func(t *testing.T) {
		d := NewPartyDirectory(f.parties, true)
		code, err := d.FiscalClassification(f.ctx, f.customer.ID)
		require.NoError(t, err)
		require.NotNil(t, code)
		assert.Equal(t, partner.ResponsibilityRegistered, *code)

		code, err = d.FiscalClassification(f.ctx, f.consumer.ID)
		require.NoError(t, err)
		assert.Nil(t, code)

		exempt, err := d.IsExempt(f.ctx, f.customer.ID)
		require.NoError(t, err)
		assert.False(t, exempt)

		_, err = d.IsExempt(f.ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("without fiscal localization", func(t *testing.T) {
		d := NewPartyDirectory(f.parties, false)
		_, err := d.FiscalClassification(f.ctx, f.customer.ID)
		assert.ErrorIs(t, err, partner.ErrClassificationUnavailable)
	})
}

func TestProductDirectory(t *testing.T) {
	f := newFixture(t)
	d := NewProductDirectory(f.products)

	tests := []struct {
		name     string
		variant  uuid.UUID
		expected bool
	}{
		{"flagged template", f.flagged, true},
		{"ordinary template", f.plain, false},
		{"unknown variant", uuid.New(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.IsSubjectToPerception(f.ctx, tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
