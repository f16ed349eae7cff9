package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/document"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the Document aggregate.
// The partial unique index on (tenant, fingerprint) excludes soft-deleted
// rows so a re-uploaded document can replace a deleted one.
type DocumentModel struct {
	TenantAggregateModel
	BatchID         string          `gorm:"type:varchar(64);index"`
	Fingerprint     string          `gorm:"type:varchar(64);not null;index:idx_document_fingerprint"`
	FingerprintWeak bool            `gorm:"not null;default:false"`
	Vendor          string          `gorm:"type:varchar(255);not null"`
	InvoiceNumber   string          `gorm:"type:varchar(128);index"`
	InvoiceDate     time.Time       `gorm:"type:date;index"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency        string          `gorm:"type:varchar(8)"`
	StorageRef      string          `gorm:"type:varchar(512)"`
	IngestedByID    uuid.UUID       `gorm:"type:uuid;not null"`
	IngestedByName  string          `gorm:"type:varchar(255)"`
	DeletedAt       *time.Time      `gorm:"index"`
	// Associations
	Lines []LineItemModel `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document.
func (m *DocumentModel) ToDomain() *document.Document {
	doc := &document.Document{
		BatchID:         m.BatchID,
		Fingerprint:     m.Fingerprint,
		FingerprintWeak: m.FingerprintWeak,
		Vendor:          m.Vendor,
		InvoiceNumber:   m.InvoiceNumber,
		InvoiceDate:     m.InvoiceDate,
		TotalAmount:     m.TotalAmount,
		Currency:        m.Currency,
		StorageRef:      m.StorageRef,
		IngestedByID:    m.IngestedByID,
		IngestedByName:  m.IngestedByName,
		DeletedAt:       m.DeletedAt,
		Lines:           make([]document.LineItem, len(m.Lines)),
	}
	m.PopulateTenantAggregateRoot(&doc.TenantAggregateRoot)
	for i := range m.Lines {
		doc.Lines[i] = *m.Lines[i].ToDomain()
	}
	return doc
}

// FromDomain populates the persistence model from a domain Document.
func (m *DocumentModel) FromDomain(d *document.Document) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.BatchID = d.BatchID
	m.Fingerprint = d.Fingerprint
	m.FingerprintWeak = d.FingerprintWeak
	m.Vendor = d.Vendor
	m.InvoiceNumber = d.InvoiceNumber
	m.InvoiceDate = d.InvoiceDate
	m.TotalAmount = d.TotalAmount
	m.Currency = d.Currency
	m.StorageRef = d.StorageRef
	m.IngestedByID = d.IngestedByID
	m.IngestedByName = d.IngestedByName
	m.DeletedAt = d.DeletedAt
	m.Lines = make([]LineItemModel, len(d.Lines))
	for i := range d.Lines {
		m.Lines[i] = *LineItemModelFromDomain(&d.Lines[i])
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document.
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// LineItemModel is the persistence model for document line items.
type LineItemModel struct {
	BaseModel
	DocumentID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_line_document_ordinal,priority:1"`
	Ordinal        int             `gorm:"not null;uniqueIndex:idx_line_document_ordinal,priority:2"`
	RawDescription string          `gorm:"type:varchar(512);not null"`
	NormalizedDesc string          `gorm:"type:varchar(512);not null;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Unit           string          `gorm:"type:varchar(32)"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status         string          `gorm:"type:varchar(16);not null;index"`
	ResolvedCode   string          `gorm:"type:varchar(64);index"`
	Confidence     float64         `gorm:"type:decimal(5,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "document_lines"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *LineItemModel) ToDomain() *document.LineItem {
	return &document.LineItem{
		ID:             m.ID,
		DocumentID:     m.DocumentID,
		Ordinal:        m.Ordinal,
		RawDescription: m.RawDescription,
		NormalizedDesc: m.NormalizedDesc,
		Quantity:       m.Quantity,
		Unit:           m.Unit,
		UnitCost:       m.UnitCost,
		LineTotal:      m.LineTotal,
		Status:         document.LineStatus(m.Status),
		ResolvedCode:   m.ResolvedCode,
		Confidence:     m.Confidence,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain LineItem.
func (m *LineItemModel) FromDomain(l *document.LineItem) {
	m.ID = l.ID
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
	m.DocumentID = l.DocumentID
	m.Ordinal = l.Ordinal
	m.RawDescription = l.RawDescription
	m.NormalizedDesc = l.NormalizedDesc
	m.Quantity = l.Quantity
	m.Unit = l.Unit
	m.UnitCost = l.UnitCost
	m.LineTotal = l.LineTotal
	m.Status = l.Status.String()
	m.ResolvedCode = l.ResolvedCode
	m.Confidence = l.Confidence
}

// LineItemModelFromDomain creates a new persistence model from a domain LineItem.
func LineItemModelFromDomain(l *document.LineItem) *LineItemModel {
	m := &LineItemModel{}
	m.FromDomain(l)
	return m
}
