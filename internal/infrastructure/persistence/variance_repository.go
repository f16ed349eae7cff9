package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/invrecon/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// varianceBatchSize bounds the insert batches for large runs
const varianceBatchSize = 500

// GormVarianceRepository implements reconciliation.VarianceRecordRepository
// using GORM. Records are insert-only.
type GormVarianceRepository struct {
	db *gorm.DB
}

// NewGormVarianceRepository creates a new GormVarianceRepository
func NewGormVarianceRepository(db *gorm.DB) *GormVarianceRepository {
	return &GormVarianceRepository{db: db}
}

// SaveAll inserts all records in batches
func (r *GormVarianceRepository) SaveAll(ctx context.Context, records []reconciliation.VarianceRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]models.VarianceRecordModel, len(records))
	for i := range records {
		rows[i] = *models.VarianceRecordModelFromDomain(&records[i])
	}
	return WithRetry(ctx, func() error {
		return r.db.WithContext(ctx).CreateInBatches(&rows, varianceBatchSize).Error
	})
}

// Save inserts a single record
func (r *GormVarianceRepository) Save(ctx context.Context, record *reconciliation.VarianceRecord) error {
	model := models.VarianceRecordModelFromDomain(record)
	return WithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Create(model).Error
	})
}

// FindTopByRun finds up to limit records for the run, largest absolute
// monetary impact first.
func (r *GormVarianceRepository) FindTopByRun(ctx context.Context, runID uuid.UUID, limit int) ([]reconciliation.VarianceRecord, error) {
	var rows []models.VarianceRecordModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("ABS(variance_value) DESC, item_code ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.toDomain(rows), nil
}

// FindByRun finds all records for a run in item order
func (r *GormVarianceRepository) FindByRun(ctx context.Context, runID uuid.UUID) ([]reconciliation.VarianceRecord, error) {
	var rows []models.VarianceRecordModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("item_code ASC, location_code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.toDomain(rows), nil
}

// CountByRun counts records written for a run
func (r *GormVarianceRepository) CountByRun(ctx context.Context, runID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.VarianceRecordModel{}).
		Where("run_id = ?", runID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormVarianceRepository) toDomain(rows []models.VarianceRecordModel) []reconciliation.VarianceRecord {
	records := make([]reconciliation.VarianceRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records
}

// Ensure GormVarianceRepository implements VarianceRecordRepository
var _ reconciliation.VarianceRecordRepository = (*GormVarianceRepository)(nil)
