package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RunStatus represents the status of a reconciliation run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// IsValid checks if the status is a valid RunStatus
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of RunStatus
func (s RunStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s RunStatus) CanTransitionTo(target RunStatus) bool {
	switch s {
	case RunStatusRunning:
		return target == RunStatusCompleted || target == RunStatusFailed
	case RunStatusCompleted, RunStatusFailed:
		return false // terminal states
	}
	return false
}

// LocationScope selects which locations a run covers: all of them, or an
// explicit set of location codes.
type LocationScope struct {
	All   bool
	Codes []string
}

// ScopeAll matches every location
var ScopeAll = LocationScope{All: true}

// ParseLocationScope parses a scope expression: "*" for all locations, or a
// comma-separated list of location codes.
func ParseLocationScope(expr string) LocationScope {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "*" {
		return ScopeAll
	}
	parts := strings.Split(expr, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			codes = append(codes, p)
		}
	}
	if len(codes) == 0 {
		return ScopeAll
	}
	return LocationScope{Codes: codes}
}

// String renders the scope back to its expression form
func (s LocationScope) String() string {
	if s.All {
		return "*"
	}
	return strings.Join(s.Codes, ",")
}

// Contains reports whether the scope includes the given location code
func (s LocationScope) Contains(locationCode string) bool {
	if s.All {
		return true
	}
	for _, c := range s.Codes {
		if c == locationCode {
			return true
		}
	}
	return false
}

// Summary holds the aggregate counters of a completed run
type Summary struct {
	ItemsChecked       int             `json:"items_checked"`
	TotalVarianceQty   decimal.Decimal `json:"total_variance_qty"`
	TotalVarianceValue decimal.Decimal `json:"total_variance_value"`
	OverItems          int             `json:"over_items"`
	ShortItems         int             `json:"short_items"`
}

// Run represents one invocation of the variance computation. It is created
// in RUNNING status and mutated exactly once: to COMPLETED with aggregates,
// or to FAILED with a reason.
type Run struct {
	shared.TenantAggregateRoot
	RunNumber       string
	AsOfDate        time.Time
	Scope           LocationScope
	TriggeredByID   uuid.UUID
	TriggeredByName string
	Status          RunStatus
	StartedAt       time.Time
	CompletedAt     *time.Time
	Summary         Summary
	JSONArtifactRef string
	CSVArtifactRef  string
	FailureReason   string
}

// NewRun creates a new reconciliation run in RUNNING status
func NewRun(tenantID uuid.UUID, runNumber string, asOfDate time.Time, scope LocationScope, triggeredByID uuid.UUID, triggeredByName string) (*Run, error) {
	if runNumber == "" {
		return nil, shared.NewDomainError("INVALID_RUN_NUMBER", "Run number cannot be empty")
	}
	if triggeredByID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Triggering actor cannot be empty")
	}

	r := &Run{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RunNumber:           runNumber,
		AsOfDate:            asOfDate,
		Scope:               scope,
		TriggeredByID:       triggeredByID,
		TriggeredByName:     triggeredByName,
		Status:              RunStatusRunning,
		StartedAt:           time.Now(),
		Summary: Summary{
			TotalVarianceQty:   decimal.Zero,
			TotalVarianceValue: decimal.Zero,
		},
	}

	return r, nil
}

// Complete marks the run as completed with its aggregates and artifact refs
func (r *Run) Complete(summary Summary, jsonRef, csvRef string) error {
	if !r.Status.CanTransitionTo(RunStatusCompleted) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to COMPLETED", r.Status))
	}

	now := time.Now()
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
	r.Summary = summary
	r.JSONArtifactRef = jsonRef
	r.CSVArtifactRef = csvRef
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRunCompletedEvent(r))

	return nil
}

// Fail marks the run as failed. Variance records written before the failure
// are kept; the run status makes the partial result visible.
func (r *Run) Fail(reason string) error {
	if !r.Status.CanTransitionTo(RunStatusFailed) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to FAILED", r.Status))
	}

	now := time.Now()
	r.Status = RunStatusFailed
	r.CompletedAt = &now
	r.FailureReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRunFailedEvent(r, reason))

	return nil
}

// IsTerminal returns true once the run has completed or failed
func (r *Run) IsTerminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}
