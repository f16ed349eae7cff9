package reconciliation

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// varianceThreshold is the quantity band inside which a pair counts as a
// match rather than an over/short.
var varianceThreshold = decimal.NewFromFloat(0.01)

// Category classifies a variance record by the sign and magnitude of its
// quantity difference.
type Category string

const (
	CategoryMatch Category = "match"
	CategoryOver  Category = "over"
	CategoryShort Category = "short"
)

// IsValid checks if the category is a valid Category
func (c Category) IsValid() bool {
	switch c {
	case CategoryMatch, CategoryOver, CategoryShort:
		return true
	}
	return false
}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// Categorize maps a signed variance quantity to its category
func Categorize(varianceQty decimal.Decimal) Category {
	switch {
	case varianceQty.GreaterThan(varianceThreshold):
		return CategoryOver
	case varianceQty.LessThan(varianceThreshold.Neg()):
		return CategoryShort
	default:
		return CategoryMatch
	}
}

// PairKey identifies a merged snapshot row by item and location
type PairKey struct {
	ItemCode     string
	LocationCode string
}

// SnapshotRow is one row of a physical-count or system-stock snapshot.
// The engine does not dictate how snapshots are stored, only this row shape.
type SnapshotRow struct {
	ItemCode     string
	ItemName     string
	Quantity     decimal.Decimal
	Unit         string
	LocationCode string
	UnitCost     decimal.Decimal
}

// Snapshot is a set of rows keyed by (item, location)
type Snapshot map[PairKey]SnapshotRow

// Add inserts a row, keyed by its item and location codes
func (s Snapshot) Add(row SnapshotRow) {
	s[PairKey{ItemCode: row.ItemCode, LocationCode: row.LocationCode}] = row
}

// VarianceRecord is one per-line result of a reconciliation run, immutable
// once written.
type VarianceRecord struct {
	shared.BaseEntity
	RunID         uuid.UUID
	ItemCode      string
	ItemName      string
	LocationCode  string
	PhysicalQty   decimal.Decimal
	SystemQty     decimal.Decimal
	VarianceQty   decimal.Decimal
	Unit          string
	UnitCost      decimal.Decimal
	VarianceValue decimal.Decimal
	VariancePct   decimal.Decimal
	Category      Category
}

// ComputeVariances merges the physical and system snapshots on the union of
// their (item, location) keys and derives one variance record per surviving
// pair. Pairs where both sides are exactly zero are dropped: there is
// nothing to report. Union keys are visited in sorted order so the output
// is deterministic.
func ComputeVariances(runID uuid.UUID, physical, system Snapshot) []VarianceRecord {
	keys := make([]PairKey, 0, len(physical)+len(system))
	seen := make(map[PairKey]struct{}, len(physical)+len(system))
	for k := range physical {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range system {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ItemCode != keys[j].ItemCode {
			return keys[i].ItemCode < keys[j].ItemCode
		}
		return keys[i].LocationCode < keys[j].LocationCode
	})

	records := make([]VarianceRecord, 0, len(keys))
	for _, key := range keys {
		physRow, hasPhys := physical[key]
		sysRow, hasSys := system[key]

		physicalQty := decimal.Zero
		if hasPhys {
			physicalQty = physRow.Quantity
		}
		systemQty := decimal.Zero
		if hasSys {
			systemQty = sysRow.Quantity
		}

		varianceQty := physicalQty.Sub(systemQty)
		if varianceQty.Abs().LessThan(varianceThreshold) && physicalQty.IsZero() && systemQty.IsZero() {
			continue
		}

		// Metadata prefers the physical side; the system side fills the gaps.
		meta := sysRow
		if hasPhys {
			meta = physRow
			if meta.UnitCost.IsZero() && hasSys {
				meta.UnitCost = sysRow.UnitCost
			}
			if meta.Unit == "" && hasSys {
				meta.Unit = sysRow.Unit
			}
			if meta.ItemName == "" && hasSys {
				meta.ItemName = sysRow.ItemName
			}
		}

		varianceValue := varianceQty.Mul(meta.UnitCost)
		variancePct := decimal.Zero
		if !systemQty.IsZero() {
			variancePct = varianceQty.Div(systemQty).Mul(decimal.NewFromInt(100))
		}

		records = append(records, VarianceRecord{
			BaseEntity:    shared.NewBaseEntity(),
			RunID:         runID,
			ItemCode:      key.ItemCode,
			ItemName:      meta.ItemName,
			LocationCode:  key.LocationCode,
			PhysicalQty:   physicalQty,
			SystemQty:     systemQty,
			VarianceQty:   varianceQty,
			Unit:          meta.Unit,
			UnitCost:      meta.UnitCost,
			VarianceValue: varianceValue,
			VariancePct:   variancePct,
			Category:      Categorize(varianceQty),
		})
	}

	return records
}

// Summarize aggregates the run-level counters over a record set
func Summarize(records []VarianceRecord) Summary {
	s := Summary{
		ItemsChecked:       len(records),
		TotalVarianceQty:   decimal.Zero,
		TotalVarianceValue: decimal.Zero,
	}
	for i := range records {
		s.TotalVarianceQty = s.TotalVarianceQty.Add(records[i].VarianceQty.Abs())
		s.TotalVarianceValue = s.TotalVarianceValue.Add(records[i].VarianceValue.Abs())
		switch records[i].Category {
		case CategoryOver:
			s.OverItems++
		case CategoryShort:
			s.ShortItems++
		}
	}
	return s
}

// PhysicalWindow is the tolerance applied when matching a physical-count
// header against the as-of date. Counts finalized a day late still match.
const PhysicalWindow = 24 * time.Hour
