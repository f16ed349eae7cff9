package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Item represents a canonical catalog item. The reconciliation engine treats
// the catalog as read-only except for incidental cost lookups.
type Item struct {
	shared.TenantAggregateRoot
	Code         string
	Name         string
	Unit         string
	LocationCode string
	Quantity     decimal.Decimal // current system-of-record quantity
	UnitCost     decimal.Decimal // last known unit cost
	Active       bool
}

// NewItem creates a new catalog item
func NewItem(tenantID uuid.UUID, code, name, unit, locationCode string, quantity, unitCost decimal.Decimal) (*Item, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Item code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}

	return &Item{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Unit:                unit,
		LocationCode:        locationCode,
		Quantity:            quantity,
		UnitCost:            unitCost,
		Active:              true,
	}, nil
}

// NormalizedName returns the display name lowered and trimmed for matching
func (i *Item) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(i.Name))
}

// ItemRepository provides access to catalog items
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Item, error)
	FindAllActive(ctx context.Context, tenantID uuid.UUID, locationCode string) ([]Item, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, item *Item) error
}
