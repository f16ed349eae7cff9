package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/shared"
)

// RunFilter narrows run listings
type RunFilter struct {
	shared.Filter
	Status    *RunStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// RunRepository provides access to reconciliation runs
type RunRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Run, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter RunFilter) ([]Run, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter RunFilter) (int64, error)
	Save(ctx context.Context, run *Run) error
	GenerateRunNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// VarianceRecordRepository provides access to per-line variance records
type VarianceRecordRepository interface {
	SaveAll(ctx context.Context, records []VarianceRecord) error
	Save(ctx context.Context, record *VarianceRecord) error
	// FindTopByRun returns up to limit records for the run, ordered by
	// absolute variance value descending.
	FindTopByRun(ctx context.Context, runID uuid.UUID, limit int) ([]VarianceRecord, error)
	FindByRun(ctx context.Context, runID uuid.UUID) ([]VarianceRecord, error)
	CountByRun(ctx context.Context, runID uuid.UUID) (int64, error)
}

// PhysicalSnapshotLoader loads the most temporally relevant physical-count
// dataset for the as-of date. Implementations tolerate a one-day window when
// matching count headers.
type PhysicalSnapshotLoader interface {
	Load(ctx context.Context, tenantID uuid.UUID, asOfDate time.Time, scope LocationScope) (Snapshot, error)
}

// SystemSnapshotLoader loads current authoritative stock quantities for
// active catalog items within the location scope.
type SystemSnapshotLoader interface {
	Load(ctx context.Context, tenantID uuid.UUID, scope LocationScope) (Snapshot, error)
}
