package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/document"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/invrecon/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository implements document.Repository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document with its lines by ID within a tenant
func (r *GormDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*document.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFingerprint finds the non-deleted document with the given
// fingerprint. Soft-deleted documents do not count as duplicates, so a
// re-upload after deletion registers fresh.
func (r *GormDocumentRepository) FindByFingerprint(ctx context.Context, tenantID uuid.UUID, fingerprint string) (*document.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Where("tenant_id = ? AND fingerprint = ? AND deleted_at IS NULL", tenantID, fingerprint).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBatch finds all documents registered under a batch
func (r *GormDocumentRepository) FindByBatch(ctx context.Context, tenantID uuid.UUID, batchID string) ([]document.Document, error) {
	var rows []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Where("tenant_id = ? AND batch_id = ? AND deleted_at IS NULL", tenantID, batchID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]document.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, nil
}

// FindUnresolvedLinesByBatch finds all unresolved lines across the batch
func (r *GormDocumentRepository) FindUnresolvedLinesByBatch(ctx context.Context, tenantID uuid.UUID, batchID string) ([]document.LineItem, error) {
	var rows []models.LineItemModel
	if err := r.db.WithContext(ctx).
		Model(&models.LineItemModel{}).
		Joins("JOIN documents ON documents.id = document_lines.document_id").
		Where("documents.tenant_id = ? AND documents.batch_id = ? AND documents.deleted_at IS NULL", tenantID, batchID).
		Where("document_lines.status = ?", document.LineStatusUnresolved.String()).
		Order("documents.created_at ASC, document_lines.ordinal ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	lines := make([]document.LineItem, len(rows))
	for i := range rows {
		lines[i] = *rows[i].ToDomain()
	}
	return lines, nil
}

// SaveWithLines persists the document and its lines in one transaction
func (r *GormDocumentRepository) SaveWithLines(ctx context.Context, doc *document.Document) error {
	model := models.DocumentModelFromDomain(doc)
	lines := model.Lines
	model.Lines = nil
	// The whole transaction is retried on transient contention, never a
	// half-applied slice of it.
	return WithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(model).Error; err != nil {
				return err
			}
			if len(lines) == 0 {
				return nil
			}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&lines).Error
		})
	})
}

// SaveLine persists a single line, for post-ingestion resolution updates
func (r *GormDocumentRepository) SaveLine(ctx context.Context, line *document.LineItem) error {
	model := models.LineItemModelFromDomain(line)
	return WithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Save(model).Error
	})
}

// CountForTenant counts non-deleted documents for a tenant
func (r *GormDocumentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormDocumentRepository implements Repository
var _ document.Repository = (*GormDocumentRepository)(nil)
