package reconciliation

import (
	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant for Run
const AggregateTypeRun = "ReconciliationRun"

// Run event type constants
const (
	EventTypeRunCompleted = "ReconciliationRunCompleted"
	EventTypeRunFailed    = "ReconciliationRunFailed"
)

// RunCompletedEvent is raised when a reconciliation run completes
type RunCompletedEvent struct {
	shared.BaseDomainEvent
	RunID              uuid.UUID       `json:"run_id"`
	RunNumber          string          `json:"run_number"`
	ItemsChecked       int             `json:"items_checked"`
	TotalVarianceValue decimal.Decimal `json:"total_variance_value"`
	OverItems          int             `json:"over_items"`
	ShortItems         int             `json:"short_items"`
}

// NewRunCompletedEvent creates a new RunCompletedEvent
func NewRunCompletedEvent(r *Run) *RunCompletedEvent {
	return &RunCompletedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeRunCompleted, AggregateTypeRun, r.ID, r.TenantID),
		RunID:              r.ID,
		RunNumber:          r.RunNumber,
		ItemsChecked:       r.Summary.ItemsChecked,
		TotalVarianceValue: r.Summary.TotalVarianceValue,
		OverItems:          r.Summary.OverItems,
		ShortItems:         r.Summary.ShortItems,
	}
}

// EventType returns the event type name
func (e *RunCompletedEvent) EventType() string {
	return EventTypeRunCompleted
}

// RunFailedEvent is raised when a reconciliation run fails
type RunFailedEvent struct {
	shared.BaseDomainEvent
	RunID     uuid.UUID `json:"run_id"`
	RunNumber string    `json:"run_number"`
	Reason    string    `json:"reason"`
}

// NewRunFailedEvent creates a new RunFailedEvent
func NewRunFailedEvent(r *Run, reason string) *RunFailedEvent {
	return &RunFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRunFailed, AggregateTypeRun, r.ID, r.TenantID),
		RunID:           r.ID,
		RunNumber:       r.RunNumber,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *RunFailedEvent) EventType() string {
	return EventTypeRunFailed
}
