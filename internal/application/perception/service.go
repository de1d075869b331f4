package perception

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/perception/internal/domain/finance"
	"github.com/erp/perception/internal/domain/partner"
	"github.com/erp/perception/internal/domain/perception"
	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Perception liability account created by SetupAccounts
const (
	PerceptionAccountCode = "2.1.3.03.041"
	PerceptionAccountName = "Percepciones de IVA RG 5329"
)

// ErrRecalculationFailed is returned when an edit cannot be reconciled with
// the perception rules; the edit is discarded
var ErrRecalculationFailed = shared.NewDomainError("PERCEPTION_RECALCULATION_FAILED",
	"Perception could not be recalculated, the edit was not saved")

// DefaultReceivableAccount is used as journal counterpart for parties without
// their own receivable account
const DefaultReceivableAccount = "1.1.3.01.001"

// Notification types
const (
	NotificationSuccess = "success"
	NotificationDanger  = "danger"
)

// TaxAdmin is the tax registry surface needed for posting and account setup
type TaxAdmin interface {
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]tax.Definition, error)
	FindPerceptionWithoutAccount(ctx context.Context, tenantID uuid.UUID) ([]tax.Definition, error)
	Save(ctx context.Context, def *tax.Definition) error
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithEventPublisher sets the publisher document events are sent to
func WithEventPublisher(publisher shared.EventPublisher) ServiceOption {
	return func(s *Service) {
		s.eventPublisher = publisher
	}
}

// WithConfirmHook runs hook right after a document's own state transition,
// inside the confirmation guarded by the engine
func WithConfirmHook(hook perception.ConfirmFunc) ServiceOption {
	return func(s *Service) {
		s.confirmHook = hook
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultReceivableAccount overrides DefaultReceivableAccount
func WithDefaultReceivableAccount(code string) ServiceOption {
	return func(s *Service) {
		if code != "" {
			s.receivableAccount = code
		}
	}
}

// Service exposes the perception engine to the outer layers
type Service struct {
	documents         trade.DocumentRepository
	parties           partner.PartyRepository
	accounts          finance.AccountRepository
	taxes             TaxAdmin
	engine            *perception.Engine
	eventPublisher    shared.EventPublisher
	confirmHook       perception.ConfirmFunc
	receivableAccount string
	printer           *message.Printer
	logger            *zap.Logger
}

// NewService creates a new perception Service
func NewService(
	documents trade.DocumentRepository,
	parties partner.PartyRepository,
	accounts finance.AccountRepository,
	taxes TaxAdmin,
	engine *perception.Engine,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		documents:         documents,
		parties:           parties,
		accounts:          accounts,
		taxes:             taxes,
		engine:            engine,
		receivableAccount: DefaultReceivableAccount,
		printer:           message.NewPrinter(language.AmericanEnglish),
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyManually recalculates perception on a document at the user's request.
// Business failures are reported in the result, not as an error.
func (s *Service) ApplyManually(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID) (*ApplyResult, error) {
	doc, err := s.load(ctx, tenantID, kind, id)
	if err != nil {
		return nil, err
	}

	if !s.engine.ApplyPerception(ctx, doc) {
		return s.applyFailure(errors.New("tax data could not be loaded, document left unchanged")), nil
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return s.applyFailure(err), nil
		}
		return nil, err
	}

	msg := s.printer.Sprintf("RG5329 tax has been applied to %s %s. New total: $%v",
		documentNoun(doc), doc.Number, number.Decimal(doc.AmountTotal.InexactFloat64(), number.Scale(2)))
	s.logger.Info("perception applied manually",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.Number),
		zap.String("amount_total", doc.AmountTotal.String()),
	)
	return &ApplyResult{
		Success:  true,
		Message:  msg,
		NewTotal: doc.AmountTotal,
		Notification: Notification{
			Title:   "RG5329 Tax Applied",
			Message: msg,
			Type:    NotificationSuccess,
		},
	}, nil
}

// Summary returns the perception header fields of a document
func (s *Service) Summary(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID) (*SummaryResponse, error) {
	doc, err := s.load(ctx, tenantID, kind, id)
	if err != nil {
		return nil, err
	}
	response := ToSummaryResponse(s.engine.PerceptionSummary(doc))
	return &response, nil
}

// AddLine appends a line to a draft document
func (s *Service) AddLine(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID, req AddLineRequest) (*DocumentResponse, error) {
	return s.edit(ctx, tenantID, kind, id, func(doc *trade.Document) error {
		_, err := doc.AddLine(req.ProductID, req.Description, req.Quantity, req.UnitPrice, req.TaxIDs...)
		return err
	})
}

// UpdateLine edits product, quantity, price or taxes of a line
func (s *Service) UpdateLine(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id, lineID uuid.UUID, req UpdateLineRequest) (*DocumentResponse, error) {
	return s.edit(ctx, tenantID, kind, id, func(doc *trade.Document) error {
		line, ok := doc.Line(lineID)
		if !ok {
			return shared.ErrNotFound
		}
		if req.ProductID != nil || req.Description != nil {
			productID, description := line.ProductID, line.Description
			if req.ProductID != nil {
				productID = *req.ProductID
			}
			if req.Description != nil {
				description = *req.Description
			}
			if err := doc.ChangeLineProduct(lineID, productID, description); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			if err := doc.UpdateLineQuantity(lineID, *req.Quantity); err != nil {
				return err
			}
		}
		if req.UnitPrice != nil {
			if err := doc.UpdateLineUnitPrice(lineID, *req.UnitPrice); err != nil {
				return err
			}
		}
		if req.TaxIDs != nil {
			if err := doc.SetLineTaxes(lineID, *req.TaxIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveLine deletes a line from a draft document
func (s *Service) RemoveLine(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id, lineID uuid.UUID) (*DocumentResponse, error) {
	return s.edit(ctx, tenantID, kind, id, func(doc *trade.Document) error {
		return doc.RemoveLine(lineID)
	})
}

// ChangeParty assigns the document to another customer or vendor
func (s *Service) ChangeParty(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID, req ChangePartyRequest) (*DocumentResponse, error) {
	party, err := s.parties.FindByIDForTenant(ctx, tenantID, req.PartyID)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, tenantID, kind, id, func(doc *trade.Document) error {
		return doc.ChangeParty(party.ID, party.Name)
	})
}

// Confirm confirms an order, or posts an invoice
func (s *Service) Confirm(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID) (*DocumentResponse, error) {
	if kind == trade.KindInvoice {
		return s.PostInvoice(ctx, tenantID, id)
	}
	doc, err := s.load(ctx, tenantID, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Confirm(ctx, doc, s.confirm); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, doc); err != nil {
		return nil, err
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// CreatePOSOrder stores an order sent by the point-of-sale UI with perception
// already applied. The order is stored even when perception could not be
// computed; PerceptionApplied reports the outcome.
func (s *Service) CreatePOSOrder(ctx context.Context, tenantID uuid.UUID, input PosOrderInput) (*PosOrderResponse, error) {
	party, err := s.parties.FindByIDForTenant(ctx, tenantID, input.PartyID)
	if err != nil {
		return nil, err
	}

	orderNumber := input.Number
	if orderNumber == "" {
		orderNumber, err = s.documents.NextNumber(ctx, tenantID, trade.KindPOSOrder)
		if err != nil {
			return nil, err
		}
	} else {
		_, err := s.documents.FindByNumber(ctx, tenantID, trade.KindPOSOrder, orderNumber)
		if err == nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("POS order %s already exists", orderNumber))
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	doc, err := trade.NewDocument(tenantID, trade.KindPOSOrder, orderNumber, party.ID, party.Name)
	if err != nil {
		return nil, err
	}
	for _, line := range input.Lines {
		if _, err := doc.AddLine(line.ProductID, line.Description, line.Quantity, line.UnitPrice, line.TaxIDs...); err != nil {
			return nil, err
		}
	}

	applied := s.engine.ApplyPerception(ctx, doc)
	if !applied {
		s.logger.Warn("perception not applied to POS order, storing it anyway",
			zap.String("document_number", doc.Number),
			zap.String("party_id", party.ID.String()),
		)
	}
	// Perception already ran on the assembled order
	doc.ClearDomainEvents()

	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	return &PosOrderResponse{
		DocumentResponse:  ToDocumentResponse(doc),
		PerceptionApplied: applied,
	}, nil
}

// PostInvoice posts an invoice and regenerates its perception journal items.
// Posting an already posted invoice only regenerates the items.
func (s *Service) PostInvoice(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.load(ctx, tenantID, trade.KindInvoice, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsConfirmed() {
		if err := s.engine.Confirm(ctx, doc, s.confirm); err != nil {
			return nil, err
		}
	}
	if doc.MoveType.IsCustomer() {
		items, err := s.perceptionJournal(ctx, doc)
		if err != nil {
			return nil, err
		}
		doc.ReplacePerceptionItems(items)
	}
	if err := s.commit(ctx, doc); err != nil {
		return nil, err
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// SetupAccounts makes sure the perception liability account exists and is
// assigned to every perception tax without an account
func (s *Service) SetupAccounts(ctx context.Context, tenantID uuid.UUID) (*SetupResult, error) {
	result := &SetupResult{AccountCode: PerceptionAccountCode}

	_, err := s.accounts.FindByCode(ctx, tenantID, PerceptionAccountCode)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		account, err := finance.NewAccount(tenantID, PerceptionAccountCode, PerceptionAccountName, finance.AccountTypeLiabilityCurrent)
		if err != nil {
			return nil, err
		}
		account.Reconcile = true
		if err := s.accounts.Save(ctx, account); err != nil {
			return nil, err
		}
		result.AccountCreated = true
	case err != nil:
		return nil, err
	}

	defs, err := s.taxes.FindPerceptionWithoutAccount(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		defs[i].AssignAccount(PerceptionAccountCode)
		if err := s.taxes.Save(ctx, &defs[i]); err != nil {
			return nil, fmt.Errorf("assign account to %s: %w", defs[i].Name, err)
		}
		result.TaxesAssigned++
	}

	s.logger.Info("perception accounts set up",
		zap.String("tenant_id", tenantID.String()),
		zap.Bool("account_created", result.AccountCreated),
		zap.Int("taxes_assigned", result.TaxesAssigned),
	)
	return result, nil
}

// edit applies mutate to an editable document, recalculates perception for
// the touched fields and stores the result. Nothing is stored when the
// recalculation fails.
func (s *Service) edit(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID, mutate func(*trade.Document) error) (*DocumentResponse, error) {
	doc, err := s.load(ctx, tenantID, kind, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(doc); err != nil {
		return nil, err
	}

	changes := pendingChanges(doc)
	if changes.Relevant() {
		if !s.engine.OnDocumentChanged(ctx, doc, changes) {
			return nil, ErrRecalculationFailed
		}
		s.logger.Debug("perception recalculated after edit",
			zap.String("document_id", doc.ID.String()),
			zap.String("document_number", doc.Number),
			zap.Strings("changed", changes),
		)
	}
	if err := s.commit(ctx, doc); err != nil {
		return nil, err
	}

	// Handlers may have stored a recalculated version
	doc, err = s.documents.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// commit saves the document and publishes its pending events. Handler
// failures are logged since the document is already stored.
func (s *Service) commit(ctx context.Context, doc *trade.Document) error {
	if err := s.documents.Save(ctx, doc); err != nil {
		return err
	}
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return nil
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("document event handling failed",
			zap.String("document_id", doc.ID.String()),
			zap.String("document_number", doc.Number),
			zap.Error(err),
		)
	}
	return nil
}

// pendingChanges collects the fields named by the document's unpublished
// change events
func pendingChanges(doc *trade.Document) perception.ChangeSet {
	var changes perception.ChangeSet
	for _, e := range doc.GetDomainEvents() {
		if changed, ok := e.(*trade.DocumentChangedEvent); ok {
			for _, field := range changed.Changed {
				if !changes.Has(field) {
					changes = append(changes, field)
				}
			}
		}
	}
	return changes
}

func (s *Service) confirm(ctx context.Context, doc *trade.Document) error {
	if err := doc.Confirm(); err != nil {
		return err
	}
	if s.confirmHook != nil {
		return s.confirmHook(ctx, doc)
	}
	return nil
}

func (s *Service) load(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, id uuid.UUID) (*trade.Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown document kind: %s", kind))
	}
	doc, err := s.documents.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if doc.Kind != kind {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}

func (s *Service) applyFailure(err error) *ApplyResult {
	msg := fmt.Sprintf("Error applying RG5329 tax: %s", err)
	s.logger.Warn("manual perception apply failed", zap.Error(err))
	return &ApplyResult{
		Success:  false,
		Message:  msg,
		NewTotal: decimal.Zero,
		Notification: Notification{
			Title:   "RG5329 Error",
			Message: msg,
			Type:    NotificationDanger,
			Sticky:  true,
		},
	}
}

func documentNoun(doc *trade.Document) string {
	switch doc.Kind {
	case trade.KindPurchaseOrder:
		return "purchase order"
	case trade.KindInvoice:
		return "invoice"
	default:
		return "order"
	}
}
