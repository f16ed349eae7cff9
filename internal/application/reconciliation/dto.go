package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/shopspring/decimal"
)

// SnapshotPolicy controls how a missing physical-count snapshot is handled
type SnapshotPolicy string

const (
	// SnapshotPolicyFallbackEmpty proceeds with an empty physical snapshot,
	// reporting every system quantity as short.
	SnapshotPolicyFallbackEmpty SnapshotPolicy = "fallback-empty"
	// SnapshotPolicyFail fails the run when no physical snapshot matches
	SnapshotPolicyFail SnapshotPolicy = "fail"
)

// IsValid checks if the policy is a valid SnapshotPolicy
func (p SnapshotPolicy) IsValid() bool {
	switch p {
	case SnapshotPolicyFallbackEmpty, SnapshotPolicyFail:
		return true
	}
	return false
}

// ArtifactWriter persists run artifacts and returns storage references
type ArtifactWriter interface {
	WriteJSON(ctx context.Context, tenantID uuid.UUID, run *reconciliation.Run, records []reconciliation.VarianceRecord) (string, error)
	WriteCSV(ctx context.Context, tenantID uuid.UUID, run *reconciliation.Run, records []reconciliation.VarianceRecord) (string, error)
}

// Metrics receives reconciliation run measurements, keyed by tenant and
// the human-readable run number.
type Metrics interface {
	RunCompleted(ctx context.Context, tenantID uuid.UUID, runNumber string, duration time.Duration, itemsChecked int)
	RunFailed(ctx context.Context, tenantID uuid.UUID)
	VarianceValue(ctx context.Context, tenantID uuid.UUID, runNumber string, totalValue float64)
}

// RunRequest triggers a reconciliation run
type RunRequest struct {
	AsOfDate time.Time `json:"as_of_date"`
	// Scope is "*" for all locations or a comma-separated list of codes
	Scope string `json:"scope"`
}

// RunResult is the outcome of a completed run
type RunResult struct {
	RunID           uuid.UUID              `json:"run_id"`
	RunNumber       string                 `json:"run_number"`
	Status          string                 `json:"status"`
	Summary         reconciliation.Summary `json:"summary"`
	JSONArtifactRef string                 `json:"json_artifact_ref,omitempty"`
	CSVArtifactRef  string                 `json:"csv_artifact_ref,omitempty"`
}

// RunSummaryDTO is one row of a run listing
type RunSummaryDTO struct {
	RunID           uuid.UUID              `json:"run_id"`
	RunNumber       string                 `json:"run_number"`
	AsOfDate        time.Time              `json:"as_of_date"`
	Scope           string                 `json:"scope"`
	Status          string                 `json:"status"`
	TriggeredByName string                 `json:"triggered_by_name"`
	StartedAt       time.Time              `json:"started_at"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	Summary         reconciliation.Summary `json:"summary"`
	FailureReason   string                 `json:"failure_reason,omitempty"`
}

// VarianceRecordDTO is one variance line in a run detail view
type VarianceRecordDTO struct {
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	LocationCode  string          `json:"location_code"`
	PhysicalQty   decimal.Decimal `json:"physical_qty"`
	SystemQty     decimal.Decimal `json:"system_qty"`
	VarianceQty   decimal.Decimal `json:"variance_qty"`
	Unit          string          `json:"unit"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	VarianceValue decimal.Decimal `json:"variance_value"`
	VariancePct   decimal.Decimal `json:"variance_pct"`
	Category      string          `json:"category"`
}

// RunDetails combines a run with its largest variances by absolute value
type RunDetails struct {
	Run          RunSummaryDTO       `json:"run"`
	TopVariances []VarianceRecordDTO `json:"top_variances"`
	RecordCount  int64               `json:"record_count"`
}

func toRunSummaryDTO(run *reconciliation.Run) RunSummaryDTO {
	return RunSummaryDTO{
		RunID:           run.ID,
		RunNumber:       run.RunNumber,
		AsOfDate:        run.AsOfDate,
		Scope:           run.Scope.String(),
		Status:          run.Status.String(),
		TriggeredByName: run.TriggeredByName,
		StartedAt:       run.StartedAt,
		CompletedAt:     run.CompletedAt,
		Summary:         run.Summary,
		FailureReason:   run.FailureReason,
	}
}

func toVarianceRecordDTO(r *reconciliation.VarianceRecord) VarianceRecordDTO {
	return VarianceRecordDTO{
		ItemCode:      r.ItemCode,
		ItemName:      r.ItemName,
		LocationCode:  r.LocationCode,
		PhysicalQty:   r.PhysicalQty,
		SystemQty:     r.SystemQty,
		VarianceQty:   r.VarianceQty,
		Unit:          r.Unit,
		UnitCost:      r.UnitCost,
		VarianceValue: r.VarianceValue,
		VariancePct:   r.VariancePct,
		Category:      r.Category.String(),
	}
}
