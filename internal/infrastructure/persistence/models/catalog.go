package models

import (
	"github.com/invrecon/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CatalogItemModel is the persistence model for the catalog Item aggregate.
type CatalogItemModel struct {
	TenantAggregateModel
	Code         string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_catalog_item_code,priority:2"`
	Name         string          `gorm:"type:varchar(255);not null"`
	Unit         string          `gorm:"type:varchar(32);not null"`
	LocationCode string          `gorm:"type:varchar(64);not null;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active       bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *CatalogItemModel) ToDomain() *catalog.Item {
	item := &catalog.Item{
		Code:         m.Code,
		Name:         m.Name,
		Unit:         m.Unit,
		LocationCode: m.LocationCode,
		Quantity:     m.Quantity,
		UnitCost:     m.UnitCost,
		Active:       m.Active,
	}
	m.PopulateTenantAggregateRoot(&item.TenantAggregateRoot)
	return item
}

// FromDomain populates the persistence model from a domain Item.
func (m *CatalogItemModel) FromDomain(i *catalog.Item) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.Code = i.Code
	m.Name = i.Name
	m.Unit = i.Unit
	m.LocationCode = i.LocationCode
	m.Quantity = i.Quantity
	m.UnitCost = i.UnitCost
	m.Active = i.Active
}

// CatalogItemModelFromDomain creates a new persistence model from a domain Item.
func CatalogItemModelFromDomain(i *catalog.Item) *CatalogItemModel {
	m := &CatalogItemModel{}
	m.FromDomain(i)
	return m
}

// MappingEntryModel is the persistence model for learned description
// mappings. The (tenant, raw_description) pair is unique; CreateIfAbsent
// relies on that constraint.
type MappingEntryModel struct {
	TenantAggregateModel
	RawDescription string  `gorm:"type:varchar(512);not null;uniqueIndex:idx_mapping_tenant_desc,priority:2"`
	ItemCode       string  `gorm:"type:varchar(64);not null;index"`
	Confidence     float64 `gorm:"type:decimal(5,4);not null"`
	Source         string  `gorm:"type:varchar(16);not null"`
}

// TableName returns the table name for GORM
func (MappingEntryModel) TableName() string {
	return "mapping_entries"
}

// ToDomain converts the persistence model to a domain MappingEntry.
func (m *MappingEntryModel) ToDomain() *catalog.MappingEntry {
	entry := &catalog.MappingEntry{
		RawDescription: m.RawDescription,
		ItemCode:       m.ItemCode,
		Confidence:     m.Confidence,
		Source:         catalog.MappingSource(m.Source),
	}
	m.PopulateTenantAggregateRoot(&entry.TenantAggregateRoot)
	return entry
}

// FromDomain populates the persistence model from a domain MappingEntry.
func (m *MappingEntryModel) FromDomain(e *catalog.MappingEntry) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.RawDescription = e.RawDescription
	m.ItemCode = e.ItemCode
	m.Confidence = e.Confidence
	m.Source = e.Source.String()
}

// MappingEntryModelFromDomain creates a new persistence model from a domain MappingEntry.
func MappingEntryModelFromDomain(e *catalog.MappingEntry) *MappingEntryModel {
	m := &MappingEntryModel{}
	m.FromDomain(e)
	return m
}
