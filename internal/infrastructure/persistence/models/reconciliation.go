package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/shopspring/decimal"
)

// RunModel is the persistence model for the reconciliation Run aggregate.
// The Summary value object is flattened into columns.
type RunModel struct {
	TenantAggregateModel
	RunNumber          string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_run_tenant_number,priority:2"`
	AsOfDate           time.Time       `gorm:"type:date;not null;index"`
	Scope              string          `gorm:"type:varchar(512);not null;default:'*'"`
	TriggeredByID      uuid.UUID       `gorm:"type:uuid;not null"`
	TriggeredByName    string          `gorm:"type:varchar(255)"`
	Status             string          `gorm:"type:varchar(16);not null;index"`
	StartedAt          time.Time       `gorm:"not null"`
	CompletedAt        *time.Time      `gorm:""`
	ItemsChecked       int             `gorm:"not null;default:0"`
	TotalVarianceQty   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalVarianceValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OverItems          int             `gorm:"not null;default:0"`
	ShortItems         int             `gorm:"not null;default:0"`
	JSONArtifactRef    string          `gorm:"type:varchar(512)"`
	CSVArtifactRef     string          `gorm:"type:varchar(512)"`
	FailureReason      string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RunModel) TableName() string {
	return "reconciliation_runs"
}

// ToDomain converts the persistence model to a domain Run.
func (m *RunModel) ToDomain() *reconciliation.Run {
	run := &reconciliation.Run{
		RunNumber:       m.RunNumber,
		AsOfDate:        m.AsOfDate,
		Scope:           reconciliation.ParseLocationScope(m.Scope),
		TriggeredByID:   m.TriggeredByID,
		TriggeredByName: m.TriggeredByName,
		Status:          reconciliation.RunStatus(m.Status),
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
		Summary: reconciliation.Summary{
			ItemsChecked:       m.ItemsChecked,
			TotalVarianceQty:   m.TotalVarianceQty,
			TotalVarianceValue: m.TotalVarianceValue,
			OverItems:          m.OverItems,
			ShortItems:         m.ShortItems,
		},
		JSONArtifactRef: m.JSONArtifactRef,
		CSVArtifactRef:  m.CSVArtifactRef,
		FailureReason:   m.FailureReason,
	}
	m.PopulateTenantAggregateRoot(&run.TenantAggregateRoot)
	return run
}

// FromDomain populates the persistence model from a domain Run.
func (m *RunModel) FromDomain(r *reconciliation.Run) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.RunNumber = r.RunNumber
	m.AsOfDate = r.AsOfDate
	m.Scope = r.Scope.String()
	m.TriggeredByID = r.TriggeredByID
	m.TriggeredByName = r.TriggeredByName
	m.Status = r.Status.String()
	m.StartedAt = r.StartedAt
	m.CompletedAt = r.CompletedAt
	m.ItemsChecked = r.Summary.ItemsChecked
	m.TotalVarianceQty = r.Summary.TotalVarianceQty
	m.TotalVarianceValue = r.Summary.TotalVarianceValue
	m.OverItems = r.Summary.OverItems
	m.ShortItems = r.Summary.ShortItems
	m.JSONArtifactRef = r.JSONArtifactRef
	m.CSVArtifactRef = r.CSVArtifactRef
	m.FailureReason = r.FailureReason
}

// RunModelFromDomain creates a new persistence model from a domain Run.
func RunModelFromDomain(r *reconciliation.Run) *RunModel {
	m := &RunModel{}
	m.FromDomain(r)
	return m
}

// VarianceRecordModel is the persistence model for per-line variance
// results. Records are insert-only.
type VarianceRecordModel struct {
	BaseModel
	RunID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemCode      string          `gorm:"type:varchar(64);not null;index"`
	ItemName      string          `gorm:"type:varchar(255)"`
	LocationCode  string          `gorm:"type:varchar(64);not null"`
	PhysicalQty   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SystemQty     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VarianceQty   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Unit          string          `gorm:"type:varchar(32)"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VarianceValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VariancePct   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Category      string          `gorm:"type:varchar(8);not null;index"`
}

// TableName returns the table name for GORM
func (VarianceRecordModel) TableName() string {
	return "variance_records"
}

// ToDomain converts the persistence model to a domain VarianceRecord.
func (m *VarianceRecordModel) ToDomain() *reconciliation.VarianceRecord {
	return &reconciliation.VarianceRecord{
		BaseEntity:    m.BaseModel.ToDomain(),
		RunID:         m.RunID,
		ItemCode:      m.ItemCode,
		ItemName:      m.ItemName,
		LocationCode:  m.LocationCode,
		PhysicalQty:   m.PhysicalQty,
		SystemQty:     m.SystemQty,
		VarianceQty:   m.VarianceQty,
		Unit:          m.Unit,
		UnitCost:      m.UnitCost,
		VarianceValue: m.VarianceValue,
		VariancePct:   m.VariancePct,
		Category:      reconciliation.Category(m.Category),
	}
}

// FromDomain populates the persistence model from a domain VarianceRecord.
func (m *VarianceRecordModel) FromDomain(v *reconciliation.VarianceRecord) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.RunID = v.RunID
	m.ItemCode = v.ItemCode
	m.ItemName = v.ItemName
	m.LocationCode = v.LocationCode
	m.PhysicalQty = v.PhysicalQty
	m.SystemQty = v.SystemQty
	m.VarianceQty = v.VarianceQty
	m.Unit = v.Unit
	m.UnitCost = v.UnitCost
	m.VarianceValue = v.VarianceValue
	m.VariancePct = v.VariancePct
	m.Category = v.Category.String()
}

// VarianceRecordModelFromDomain creates a new persistence model from a domain VarianceRecord.
func VarianceRecordModelFromDomain(v *reconciliation.VarianceRecord) *VarianceRecordModel {
	m := &VarianceRecordModel{}
	m.FromDomain(v)
	return m
}

// PhysicalCountModel is the header of a finalized physical count. The
// snapshot loader reads these tables; the engine itself never writes them.
type PhysicalCountModel struct {
	TenantAggregateModel
	CountDate    time.Time `gorm:"type:date;not null;index"`
	LocationCode string    `gorm:"type:varchar(64);not null;index"`
	Status       string    `gorm:"type:varchar(16);not null;index"`
	// Associations
	Lines []PhysicalCountLineModel `gorm:"foreignKey:CountID;references:ID"`
}

// TableName returns the table name for GORM
func (PhysicalCountModel) TableName() string {
	return "physical_counts"
}

// PhysicalCountStatusFinalized marks counts eligible for reconciliation
const PhysicalCountStatusFinalized = "FINALIZED"

// PhysicalCountLineModel is one counted item within a physical count.
type PhysicalCountLineModel struct {
	BaseModel
	CountID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemCode string          `gorm:"type:varchar(64);not null;index"`
	ItemName string          `gorm:"type:varchar(255)"`
	Quantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Unit     string          `gorm:"type:varchar(32)"`
	UnitCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PhysicalCountLineModel) TableName() string {
	return "physical_count_lines"
}
