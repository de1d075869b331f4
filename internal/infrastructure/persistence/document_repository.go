package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/perception/internal/domain/shared"
	"github.com/erp/perception/internal/domain/trade"
	"github.com/erp/perception/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository implements trade.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sequence") }).
		Preload("Lines.Taxes", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("JournalItems", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

// FindByIDForTenant loads a document with lines, taxes and journal items
func (r *GormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Document, error) {
	var model models.DocumentModel
	if err := r.withChildren(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber loads a document by kind and number
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, kind trade.Kind, number string) (*trade.Document, error) {
	var model models.DocumentModel
	if err := r.withChildren(ctx).
		Where("tenant_id = ? AND kind = ? AND number = ?", tenantID, kind, number).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// NextNumber derives the next number from the count of documents of the kind
func (r *GormDocumentRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, kind trade.Kind) (string, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DocumentModel{}).
		Where("tenant_id = ? AND kind = ?", tenantID, kind).
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", kind.NumberPrefix(), count+1), nil
}

// Save inserts a new document or updates an existing one with a version check,
// then rewrites its lines, line taxes and journal items
func (r *GormDocumentRepository) Save(ctx context.Context, doc *trade.Document) error {
	model := models.DocumentModelFromDomain(doc)
	updated := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.DocumentModel{}).Where("id = ?", doc.ID).Count(&exists).Error; err != nil {
			return err
		}

		if exists == 0 {
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				return err
			}
		} else {
			result := tx.Model(&models.DocumentModel{}).
				Where("id = ? AND version = ?", doc.ID, doc.Version).
				Updates(map[string]any{
					"party_id":                doc.PartyID,
					"party_name":              doc.PartyName,
					"move_type":               doc.MoveType,
					"state":                   doc.State,
					"amount_untaxed":          doc.AmountUntaxed,
					"amount_tax":              doc.AmountTax,
					"amount_total":            doc.AmountTotal,
					"perception_base_amount":  doc.PerceptionBaseAmount,
					"perception_total_amount": doc.PerceptionTotalAmount,
					"confirmed_at":            doc.ConfirmedAt,
					"version":                 doc.Version + 1,
					"updated_at":              time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict
			}
			updated = true
		}

		return replaceChildren(tx, doc.ID, model)
	})
	if err != nil {
		return err
	}
	if updated {
		doc.IncrementVersion()
	}
	return nil
}

func replaceChildren(tx *gorm.DB, docID uuid.UUID, model *models.DocumentModel) error {
	var lineIDs []uuid.UUID
	if err := tx.Model(&models.DocumentLineModel{}).Where("document_id = ?", docID).Pluck("id", &lineIDs).Error; err != nil {
		return err
	}
	if len(lineIDs) > 0 {
		if err := tx.Where("line_id IN ?", lineIDs).Delete(&models.DocumentLineTaxModel{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("document_id = ?", docID).Delete(&models.DocumentLineModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("document_id = ?", docID).Delete(&models.JournalItemModel{}).Error; err != nil {
		return err
	}

	for i := range model.Lines {
		line := model.Lines[i]
		if err := tx.Omit("Taxes").Create(&line).Error; err != nil {
			return err
		}
		if len(line.Taxes) > 0 {
			if err := tx.Create(&line.Taxes).Error; err != nil {
				return err
			}
		}
	}
	if len(model.JournalItems) > 0 {
		if err := tx.Create(&model.JournalItems).Error; err != nil {
			return err
		}
	}
	return nil
}

var _ trade.DocumentRepository = (*GormDocumentRepository)(nil)
