package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/invrecon/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPhysicalSnapshotLoader loads physical-count snapshots from the count
// tables. Only finalized counts within a day of the as-of date qualify; per
// location the count closest to the as-of date wins.
type GormPhysicalSnapshotLoader struct {
	db *gorm.DB
}

// NewGormPhysicalSnapshotLoader creates a new GormPhysicalSnapshotLoader
func NewGormPhysicalSnapshotLoader(db *gorm.DB) *GormPhysicalSnapshotLoader {
	return &GormPhysicalSnapshotLoader{db: db}
}

// Load builds the physical snapshot for the as-of date and scope.
// Returns shared.ErrNotFound when no finalized count matches.
func (l *GormPhysicalSnapshotLoader) Load(ctx context.Context, tenantID uuid.UUID, asOfDate time.Time, scope reconciliation.LocationScope) (reconciliation.Snapshot, error) {
	windowStart := asOfDate.Add(-reconciliation.PhysicalWindow)
	windowEnd := asOfDate.Add(reconciliation.PhysicalWindow)

	query := l.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.PhysicalCountStatusFinalized).
		Where("count_date BETWEEN ? AND ?", windowStart, windowEnd)
	if !scope.All {
		query = query.Where("location_code IN ?", scope.Codes)
	}

	var headers []models.PhysicalCountModel
	if err := query.Order("count_date DESC").Find(&headers).Error; err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, shared.ErrNotFound
	}

	// One count per location: keep the one nearest the as-of date.
	chosen := make(map[string]models.PhysicalCountModel, len(headers))
	for _, h := range headers {
		prev, ok := chosen[h.LocationCode]
		if !ok || dateDistance(h.CountDate, asOfDate) < dateDistance(prev.CountDate, asOfDate) {
			chosen[h.LocationCode] = h
		}
	}

	countIDs := make([]uuid.UUID, 0, len(chosen))
	locationByCount := make(map[uuid.UUID]string, len(chosen))
	for _, h := range chosen {
		countIDs = append(countIDs, h.ID)
		locationByCount[h.ID] = h.LocationCode
	}

	var lines []models.PhysicalCountLineModel
	if err := l.db.WithContext(ctx).
		Where("count_id IN ?", countIDs).
		Find(&lines).Error; err != nil {
		return nil, err
	}

	snapshot := make(reconciliation.Snapshot, len(lines))
	for _, line := range lines {
		snapshot.Add(reconciliation.SnapshotRow{
			ItemCode:     line.ItemCode,
			ItemName:     line.ItemName,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
			LocationCode: locationByCount[line.CountID],
			UnitCost:     line.UnitCost,
		})
	}
	return snapshot, nil
}

func dateDistance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

// GormSystemSnapshotLoader loads the authoritative stock snapshot from the
// active catalog items.
type GormSystemSnapshotLoader struct {
	db *gorm.DB
}

// NewGormSystemSnapshotLoader creates a new GormSystemSnapshotLoader
func NewGormSystemSnapshotLoader(db *gorm.DB) *GormSystemSnapshotLoader {
	return &GormSystemSnapshotLoader{db: db}
}

// Load builds the system snapshot for the scope
func (l *GormSystemSnapshotLoader) Load(ctx context.Context, tenantID uuid.UUID, scope reconciliation.LocationScope) (reconciliation.Snapshot, error) {
	query := l.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true)
	if !scope.All {
		query = query.Where("location_code IN ?", scope.Codes)
	}

	var rows []models.CatalogItemModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	snapshot := make(reconciliation.Snapshot, len(rows))
	for _, row := range rows {
		snapshot.Add(reconciliation.SnapshotRow{
			ItemCode:     row.Code,
			ItemName:     row.Name,
			Quantity:     row.Quantity,
			Unit:         row.Unit,
			LocationCode: row.LocationCode,
			UnitCost:     row.UnitCost,
		})
	}
	return snapshot, nil
}

// Ensure loaders implement the snapshot interfaces
var (
	_ reconciliation.PhysicalSnapshotLoader = (*GormPhysicalSnapshotLoader)(nil)
	_ reconciliation.SystemSnapshotLoader   = (*GormSystemSnapshotLoader)(nil)
)
