package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/catalog"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/invrecon/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMappingRepository implements catalog.MappingRepository using GORM
type GormMappingRepository struct {
	db *gorm.DB
}

// NewGormMappingRepository creates a new GormMappingRepository
func NewGormMappingRepository(db *gorm.DB) *GormMappingRepository {
	return &GormMappingRepository{db: db}
}

// FindByDescription finds a learned mapping by its normalized description
func (r *GormMappingRepository) FindByDescription(ctx context.Context, tenantID uuid.UUID, rawDescription string) (*catalog.MappingEntry, error) {
	var model models.MappingEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND raw_description = ?", tenantID, rawDescription).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CreateIfAbsent inserts the entry unless one already exists for the same
// (tenant, description) key. The unique index turns concurrent inserts into
// a no-op rather than an error; a skipped insert reports ErrAlreadyExists so
// callers can tell the cache was already warm.
func (r *GormMappingRepository) CreateIfAbsent(ctx context.Context, entry *catalog.MappingEntry) error {
	model := models.MappingEntryModelFromDomain(entry)
	return WithRetry(ctx, func() error {
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "raw_description"}},
				DoNothing: true,
			}).
			Create(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrAlreadyExists
		}
		return nil
	})
}

// FindAll finds all mapping entries for a tenant matching the filter
func (r *GormMappingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.MappingEntry, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MappingEntryModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("raw_description ILIKE ? OR item_code ILIKE ?", pattern, pattern)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		dir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			dir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + dir)
	} else {
		query = query.Order("raw_description ASC")
	}

	var rows []models.MappingEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]catalog.MappingEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormMappingRepository implements MappingRepository
var _ catalog.MappingRepository = (*GormMappingRepository)(nil)
