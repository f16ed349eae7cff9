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
)

// GormItemRepository implements catalog.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds a catalog item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var model models.CatalogItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a catalog item by its code within a tenant
func (r *GormItemRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Item, error) {
	var model models.CatalogItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllActive finds all active catalog items for a tenant, optionally
// narrowed to a single location.
func (r *GormItemRepository) FindAllActive(ctx context.Context, tenantID uuid.UUID, locationCode string) ([]catalog.Item, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true)
	if locationCode != "" {
		query = query.Where("location_code = ?", locationCode)
	}

	var rows []models.CatalogItemModel
	if err := query.Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]catalog.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// ExistsByCode checks if an item with the given code exists in the tenant
func (r *GormItemRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CatalogItemModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a catalog item
func (r *GormItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	model := models.CatalogItemModelFromDomain(item)
	return WithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Save(model).Error
	})
}

// Ensure GormItemRepository implements ItemRepository
var _ catalog.ItemRepository = (*GormItemRepository)(nil)
