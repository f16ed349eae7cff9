package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/invrecon/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRunRepository implements reconciliation.RunRepository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// FindByID finds a run by its ID within a tenant
func (r *GormRunRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reconciliation.Run, error) {
	var model models.RunModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all runs for a tenant matching the filter
func (r *GormRunRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter reconciliation.RunFilter) ([]reconciliation.Run, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.RunModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	var rows []models.RunModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	runs := make([]reconciliation.Run, len(rows))
	for i := range rows {
		runs[i] = *rows[i].ToDomain()
	}
	return runs, nil
}

// Count counts runs for a tenant matching the filter
func (r *GormRunRepository) Count(ctx context.Context, tenantID uuid.UUID, filter reconciliation.RunFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.RunModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a run
func (r *GormRunRepository) Save(ctx context.Context, run *reconciliation.Run) error {
	model := models.RunModelFromDomain(run)
	return WithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Save(model).Error
	})
}

// GenerateRunNumber generates the next run number for today, RC-YYYYMMDD-XXXX
func (r *GormRunRepository) GenerateRunNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var count int64
	day := time.Now().Format("20060102")

	if err := r.db.WithContext(ctx).Model(&models.RunModel{}).
		Where("tenant_id = ? AND run_number LIKE ?", tenantID, fmt.Sprintf("RC-%s-%%", day)).
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("RC-%s-%04d", day, count+1), nil
}

// applyFilter applies filter options to the query
func (r *GormRunRepository) applyFilter(query *gorm.DB, filter reconciliation.RunFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

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
		query = query.Order("started_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormRunRepository) applyFilterWithoutPagination(query *gorm.DB, filter reconciliation.RunFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("run_number ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.StartDate != nil {
		query = query.Where("as_of_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("as_of_date <= ?", *filter.EndDate)
	}
	return query
}

// Ensure GormRunRepository implements RunRepository
var _ reconciliation.RunRepository = (*GormRunRepository)(nil)
