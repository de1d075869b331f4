package perception

import (
	"context"
	"testing"

	"github.com/erp/perception/internal/domain/catalog"
	"github.com/erp/perception/internal/domain/partner"
	"github.com/erp/perception/internal/domain/perception"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/erp/perception/internal/infrastructure/cache"
	"github.com/erp/perception/internal/infrastructure/config"
	"github.com/erp/perception/internal/infrastructure/event"
	"github.com/erp/perception/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testTenant = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// MockProductLookup is a mock implementation of perception.ProductLookup
type MockProductLookup struct {
	mock.Mock
}

func (m *MockProductLookup) IsSubjectToPerception(ctx context.Context, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

// fixture wires the service over an in-memory sqlite database
type fixture struct {
	ctx       context.Context
	db        *persistence.Database
	documents *persistence.GormDocumentRepository
	parties   *persistence.GormPartyRepository
	products  *persistence.GormProductRepository
	accounts  *persistence.GormAccountRepository
	registry  *cache.TaxRegistry
	bus       *event.InMemoryEventBus
	engine    *perception.Engine
	service   *Service
	logger    *zap.Logger
	logs      *observer.ObservedLogs

	customer   *partner.Party
	consumer   *partner.Party // no fiscal classification
	flagged    uuid.UUID      // variant of a product subject to perception
	plain      uuid.UUID      // variant of an ordinary product
	vat21      *tax.Definition
	vat105     *tax.Definition
	vat15      *tax.Definition
	perc3      *tax.Definition
	perc15     *tax.Definition
	purchase21 *tax.Definition
}

func newFixture(t *testing.T, opts ...ServiceOption) *fixture {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		ctx:       context.Background(),
		db:        db,
		documents: persistence.NewGormDocumentRepository(db.DB),
		parties:   persistence.NewGormPartyRepository(db.DB),
		products:  persistence.NewGormProductRepository(db.DB),
		accounts:  persistence.NewGormAccountRepository(db.DB),
		logger:    zap.New(core),
		logs:      logs,
	}
	memCache := cache.NewInMemoryTaxCache(f.logger)
	t.Cleanup(func() { _ = memCache.Close() })
	f.registry = cache.NewTaxRegistry(persistence.NewGormTaxRepository(db.DB), memCache, 0, f.logger)

	f.seed(t)

	f.bus = event.NewInMemoryEventBus(f.logger)
	f.engine = f.newEngine(NewProductDirectory(f.products))
	f.bus.Subscribe(NewDocumentChangedHandler(f.documents, f.engine, f.logger))
	f.service = f.newService(f.engine, opts...)
	return f
}

func (f *fixture) newEngine(products perception.ProductLookup) *perception.Engine {
	return perception.NewEngine(
		NewPartyDirectory(f.parties, true),
		products,
		f.registry,
		tax.NewPercentSplitter(),
		perception.WithLogger(f.logger),
	)
}

func (f *fixture) newService(engine *perception.Engine, opts ...ServiceOption) *Service {
	opts = append([]ServiceOption{WithEventPublisher(f.bus), WithLogger(f.logger)}, opts...)
	return NewService(f.documents, f.parties, f.accounts, f.registry, engine, opts...)
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()

	f.customer = f.party(t, "Distribuidora Norte SA", "30-71234567-9", partner.ResponsibilityRegistered)
	f.consumer = f.party(t, "Consumidor Final", "", "")

	f.flagged = f.product(t, "MAT-01", "Cemento Portland", true)
	f.plain = f.product(t, "SRV-01", "Flete", false)

	f.vat21 = f.tax(t, "IVA 21% (Ventas)", "21", tax.DirectionSale, false)
	f.vat105 = f.tax(t, "IVA 10,5% (Ventas)", "10.5", tax.DirectionSale, false)
	f.vat15 = f.tax(t, "IVA 15% (Ventas)", "15", tax.DirectionSale, false)
	f.perc3 = f.tax(t, "Percepción IVA RG 5329 3% (Ventas)", "3", tax.DirectionSale, true)
	f.perc15 = f.tax(t, "Percepción IVA RG 5329 1,5% (Ventas)", "1.5", tax.DirectionSale, true)
	f.purchase21 = f.tax(t, "IVA 21% (Compras)", "21", tax.DirectionPurchase, false)
	f.tax(t, "Percepción IVA RG 5329 3% (Compras)", "3", tax.DirectionPurchase, true)
}

func (f *fixture) party(t *testing.T, name, vat, classification string) *partner.Party {
	t.Helper()
	p, err := partner.NewParty(testTenant, name)
	require.NoError(t, err)
	require.NoError(t, p.SetVAT(vat))
	p.SetFiscalClassification(classification)
	require.NoError(t, f.parties.Save(f.ctx, p))
	return p
}

func (f *fixture) product(t *testing.T, code, name string, subject bool) uuid.UUID {
	t.Helper()
	p, err := catalog.NewProduct(testTenant, code, name)
	require.NoError(t, err)
	p.SetSubjectToPerception(subject)
	require.NoError(t, f.products.Save(f.ctx, p))
	return p.DefaultVariant().ID
}

func (f *fixture) tax(t *testing.T, name, rate string, direction tax.Direction, isPerception bool) *tax.Definition {
	t.Helper()
	var (
		def *tax.Definition
		err error
	)
	if isPerception {
		def, err = tax.NewPerceptionDefinition(testTenant, name, decimal.RequireFromString(rate), direction)
		require.NoError(t, err)
		def.AssignAccount(PerceptionAccountCode)
	} else {
		def, err = tax.NewDefinition(testTenant, name, decimal.RequireFromString(rate), direction)
		require.NoError(t, err)
	}
	require.NoError(t, f.registry.Save(f.ctx, def))
	return def
}

// order stores a draft document of kind with one line per entry of lines
func (f *fixture) order(t *testing.T, kind trade.Kind, number string, party *partner.Party, lines ...lineSpec) *trade.Document {
	t.Helper()
	doc, err := trade.NewDocument(testTenant, kind, number, party.ID, party.Name)
	require.NoError(t, err)
	f.addLines(t, doc, lines)
	require.NoError(t, f.documents.Save(f.ctx, doc))
	return doc
}

// invoice stores a draft invoice
func (f *fixture) invoice(t *testing.T, number string, moveType trade.MoveType, party *partner.Party, lines ...lineSpec) *trade.Document {
	t.Helper()
	doc, err := trade.NewInvoice(testTenant, number, moveType, party.ID, party.Name)
	require.NoError(t, err)
	f.addLines(t, doc, lines)
	require.NoError(t, f.documents.Save(f.ctx, doc))
	return doc
}

func (f *fixture) addLines(t *testing.T, doc *trade.Document, lines []lineSpec) {
	t.Helper()
	for _, l := range lines {
		_, err := doc.AddLine(l.product, "", decimal.NewFromInt(l.qty), decimal.RequireFromString(l.price), l.taxes...)
		require.NoError(t, err)
	}
	doc.ClearDomainEvents()
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *trade.Document {
	t.Helper()
	doc, err := f.documents.FindByIDForTenant(f.ctx, testTenant, id)
	require.NoError(t, err)
	return doc
}

type lineSpec struct {
	product uuid.UUID
	qty     int64
	price   string
	taxes   []uuid.UUID
}

func line(product uuid.UUID, qty int64, price string, taxes ...*tax.Definition) lineSpec {
	ids := make([]uuid.UUID, len(taxes))
	for i, def := range taxes {
		ids[i] = def.ID
	}
	return lineSpec{product: product, qty: qty, price: price, taxes: ids}
}

func assertAmount(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func lineTaxes(doc *trade.Document, index int) []uuid.UUID {
	return doc.Lines[index].TaxIDs
}
