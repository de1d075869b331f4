package models

import (
	"time"

	"github.com/erp/perception/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the Document aggregate root
type DocumentModel struct {
	TenantAggregateModel
	Kind                  trade.Kind          `gorm:"type:varchar(20);not null;index:idx_document_kind_number,priority:1"`
	Number                string              `gorm:"type:varchar(50);not null;index:idx_document_kind_number,priority:2"`
	PartyID               uuid.UUID           `gorm:"type:uuid;not null;index"`
	PartyName             string              `gorm:"type:varchar(200)"`
	MoveType              trade.MoveType      `gorm:"type:varchar(20)"`
	State                 trade.State         `gorm:"type:varchar(20);not null"`
	AmountUntaxed         decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTax             decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTotal           decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PerceptionBaseAmount  decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PerceptionTotalAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	ConfirmedAt           *time.Time          `gorm:"index"`
	Lines                 []DocumentLineModel `gorm:"foreignKey:DocumentID;references:ID"`
	JournalItems          []JournalItemModel  `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// DocumentLineModel is the persistence model for a document line
type DocumentLineModel struct {
	ID          uuid.UUID              `gorm:"type:uuid;primary_key"`
	DocumentID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	Sequence    int                    `gorm:"not null"`
	ProductID   uuid.UUID              `gorm:"type:uuid;not null"`
	Description string                 `gorm:"type:varchar(500)"`
	Quantity    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Subtotal    decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Taxes       []DocumentLineTaxModel `gorm:"foreignKey:LineID;references:ID"`
}

// TableName returns the table name for GORM
func (DocumentLineModel) TableName() string {
	return "document_lines"
}

// DocumentLineTaxModel links a line to one assigned tax, keeping assignment order
type DocumentLineTaxModel struct {
	LineID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaxID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentLineTaxModel) TableName() string {
	return "document_line_taxes"
}

// JournalItemModel is the persistence model for a posted journal item
type JournalItemModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position       int             `gorm:"not null"`
	Name           string          `gorm:"type:varchar(300);not null"`
	AccountCode    string          `gorm:"type:varchar(32);not null"`
	PartyID        uuid.UUID       `gorm:"type:uuid"`
	Debit          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Credit         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PerceptionRate decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (JournalItemModel) TableName() string {
	return "journal_items"
}

// ToDomain converts the model to a domain Document
func (m *DocumentModel) ToDomain() *trade.Document {
	doc := &trade.Document{
		TenantAggregateRoot:   m.ToDomainTenantAggregateRoot(),
		Kind:                  m.Kind,
		Number:                m.Number,
		PartyID:               m.PartyID,
		PartyName:             m.PartyName,
		MoveType:              m.MoveType,
		State:                 m.State,
		AmountUntaxed:         m.AmountUntaxed,
		AmountTax:             m.AmountTax,
		AmountTotal:           m.AmountTotal,
		PerceptionBaseAmount:  m.PerceptionBaseAmount,
		PerceptionTotalAmount: m.PerceptionTotalAmount,
		ConfirmedAt:           m.ConfirmedAt,
		Lines:                 make([]trade.Line, len(m.Lines)),
		JournalItems:          make([]trade.JournalItem, len(m.JournalItems)),
	}
	for i, l := range m.Lines {
		line := trade.Line{
			ID:          l.ID,
			Sequence:    l.Sequence,
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
			TaxIDs:      make([]uuid.UUID, len(l.Taxes)),
		}
		for j, t := range l.Taxes {
			line.TaxIDs[j] = t.TaxID
		}
		doc.Lines[i] = line
	}
	for i, j := range m.JournalItems {
		doc.JournalItems[i] = trade.JournalItem{
			ID:             j.ID,
			Name:           j.Name,
			AccountCode:    j.AccountCode,
			PartyID:        j.PartyID,
			Debit:          j.Debit,
			Credit:         j.Credit,
			PerceptionRate: j.PerceptionRate,
		}
	}
	doc.SortLines()
	return doc
}

// DocumentModelFromDomain creates a persistence model from a domain Document
func DocumentModelFromDomain(d *trade.Document) *DocumentModel {
	m := &DocumentModel{
		Kind:                  d.Kind,
		Number:                d.Number,
		PartyID:               d.PartyID,
		PartyName:             d.PartyName,
		MoveType:              d.MoveType,
		State:                 d.State,
		AmountUntaxed:         d.AmountUntaxed,
		AmountTax:             d.AmountTax,
		AmountTotal:           d.AmountTotal,
		PerceptionBaseAmount:  d.PerceptionBaseAmount,
		PerceptionTotalAmount: d.PerceptionTotalAmount,
		ConfirmedAt:           d.ConfirmedAt,
		Lines:                 make([]DocumentLineModel, len(d.Lines)),
		JournalItems:          make([]JournalItemModel, len(d.JournalItems)),
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	for i, l := range d.Lines {
		line := DocumentLineModel{
			ID:          l.ID,
			DocumentID:  d.ID,
			Sequence:    l.Sequence,
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
			Taxes:       make([]DocumentLineTaxModel, len(l.TaxIDs)),
		}
		for j, id := range l.TaxIDs {
			line.Taxes[j] = DocumentLineTaxModel{LineID: l.ID, TaxID: id, Position: j}
		}
		m.Lines[i] = line
	}
	for i, j := range d.JournalItems {
		m.JournalItems[i] = JournalItemModel{
			ID:             j.ID,
			DocumentID:     d.ID,
			Position:       i,
			Name:           j.Name,
			AccountCode:    j.AccountCode,
			PartyID:        j.PartyID,
			Debit:          j.Debit,
			Credit:         j.Credit,
			PerceptionRate: j.PerceptionRate,
		}
	}
	return m
}

// AllModels lists every model for AutoMigrate
func AllModels() []any {
	return []any{
		&PartyModel{},
		&ProductModel{},
		&ProductVariantModel{},
		&TaxDefinitionModel{},
		&AccountModel{},
		&DocumentModel{},
		&DocumentLineModel{},
		&DocumentLineTaxModel{},
		&JournalItemModel{},
	}
}
