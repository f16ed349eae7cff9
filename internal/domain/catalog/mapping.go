package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/shared"
)

// MappingSource indicates how a description-to-code mapping was established
type MappingSource string

const (
	MappingSourceExact MappingSource = "exact"
	MappingSourceCache MappingSource = "cache"
	MappingSourceFuzzy MappingSource = "fuzzy"
)

// IsValid checks if the source is a valid MappingSource
func (s MappingSource) IsValid() bool {
	switch s {
	case MappingSourceExact, MappingSourceCache, MappingSourceFuzzy:
		return true
	}
	return false
}

// String returns the string representation of MappingSource
func (s MappingSource) String() string {
	return string(s)
}

// MappingEntry is a learned association between a raw line-item description
// and a canonical catalog item code. Entries are created once and never
// overwritten with a lower-confidence value; the persisted store is the
// single source of truth for past resolutions.
type MappingEntry struct {
	shared.TenantAggregateRoot
	RawDescription string // normalized key, unique per tenant
	ItemCode       string
	Confidence     float64
	Source         MappingSource
}

// NewMappingEntry creates a new mapping entry
func NewMappingEntry(tenantID uuid.UUID, rawDescription, itemCode string, confidence float64, source MappingSource) (*MappingEntry, error) {
	key := NormalizeDescription(rawDescription)
	if key == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Raw description cannot be empty")
	}
	if itemCode == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Item code cannot be empty")
	}
	if confidence < 0 || confidence > 1 {
		return nil, shared.NewDomainError("INVALID_CONFIDENCE", "Confidence must be between 0 and 1")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Unknown mapping source")
	}

	return &MappingEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RawDescription:      key,
		ItemCode:            itemCode,
		Confidence:          confidence,
		Source:              source,
	}, nil
}

// NormalizeDescription lowers and trims a raw description for use as a
// mapping key or matching input.
func NormalizeDescription(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// MappingRepository provides access to learned mapping entries
type MappingRepository interface {
	FindByDescription(ctx context.Context, tenantID uuid.UUID, rawDescription string) (*MappingEntry, error)
	// CreateIfAbsent persists the entry unless one already exists for the
	// same (tenant, description) key. Existing entries are left untouched.
	CreateIfAbsent(ctx context.Context, entry *MappingEntry) error
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]MappingEntry, error)
}
