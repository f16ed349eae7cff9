package document

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/catalog"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LineStatus represents the resolution status of a line item
type LineStatus string

const (
	LineStatusUnresolved LineStatus = "unresolved"
	LineStatusResolved   LineStatus = "resolved"
)

// IsValid checks if the status is a valid LineStatus
func (s LineStatus) IsValid() bool {
	switch s {
	case LineStatusUnresolved, LineStatusResolved:
		return true
	}
	return false
}

// String returns the string representation of LineStatus
func (s LineStatus) String() string {
	return string(s)
}

// LineItem represents one line within an ingested document
type LineItem struct {
	ID             uuid.UUID
	DocumentID     uuid.UUID
	Ordinal        int // 1-based position within the document
	RawDescription string
	NormalizedDesc string
	Quantity       decimal.Decimal
	Unit           string
	UnitCost       decimal.Decimal
	LineTotal      decimal.Decimal
	Status         LineStatus
	ResolvedCode   string // canonical item code, empty until resolved
	Confidence     float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewLineItem creates a new unresolved line item
func NewLineItem(documentID uuid.UUID, ordinal int, rawDescription, unit string, quantity, unitCost, lineTotal decimal.Decimal) *LineItem {
	now := time.Now()
	return &LineItem{
		ID:             uuid.New(),
		DocumentID:     documentID,
		Ordinal:        ordinal,
		RawDescription: rawDescription,
		NormalizedDesc: catalog.NormalizeDescription(rawDescription),
		Quantity:       quantity,
		Unit:           unit,
		UnitCost:       unitCost,
		LineTotal:      lineTotal,
		Status:         LineStatusUnresolved,
		Confidence:     0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Resolve marks the line as resolved to a canonical item code. Resolution is
// monotonic: a resolved line never goes back to unresolved, and an existing
// resolution is never replaced with a lower-confidence one.
func (l *LineItem) Resolve(itemCode string, confidence float64) error {
	if itemCode == "" {
		return shared.NewDomainError("INVALID_CODE", "Item code cannot be empty")
	}
	if confidence < 0 || confidence > 1 {
		return shared.NewDomainError("INVALID_CONFIDENCE", "Confidence must be between 0 and 1")
	}
	if l.Status == LineStatusResolved && confidence < l.Confidence {
		return shared.NewDomainError("RESOLUTION_DOWNGRADE", "Cannot replace an existing resolution with a lower confidence")
	}

	l.Status = LineStatusResolved
	l.ResolvedCode = itemCode
	l.Confidence = confidence
	l.UpdatedAt = time.Now()

	return nil
}

// IsResolved returns true if the line has been resolved to a catalog code
func (l *LineItem) IsResolved() bool {
	return l.Status == LineStatusResolved
}

// Document represents one ingested source record (a vendor invoice).
// It is the aggregate root for ingestion; at most one non-deleted Document
// exists per (tenant, fingerprint).
type Document struct {
	shared.TenantAggregateRoot
	BatchID         string
	Fingerprint     string
	FingerprintWeak bool // set when derived from vendor+invoice number instead of file bytes
	Vendor          string
	InvoiceNumber   string
	InvoiceDate     time.Time
	TotalAmount     decimal.Decimal
	Currency        string
	StorageRef      string
	IngestedByID    uuid.UUID
	IngestedByName  string
	DeletedAt       *time.Time
	Lines           []LineItem
}

// NewDocument creates a new document from a source descriptor
func NewDocument(tenantID uuid.UUID, batchID, fingerprint, vendor, invoiceNumber string, invoiceDate time.Time, totalAmount decimal.Decimal, currency, storageRef string, ingestedByID uuid.UUID, ingestedByName string) (*Document, error) {
	if fingerprint == "" {
		return nil, shared.NewDomainError("INVALID_FINGERPRINT", "Content fingerprint cannot be empty")
	}
	if vendor == "" {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor name cannot be empty")
	}
	if ingestedByID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Ingesting actor cannot be empty")
	}

	doc := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BatchID:             batchID,
		Fingerprint:         fingerprint,
		Vendor:              vendor,
		InvoiceNumber:       invoiceNumber,
		InvoiceDate:         invoiceDate,
		TotalAmount:         totalAmount,
		Currency:            currency,
		StorageRef:          storageRef,
		IngestedByID:        ingestedByID,
		IngestedByName:      ingestedByName,
		Lines:               make([]LineItem, 0),
	}

	doc.AddDomainEvent(NewDocumentIngestedEvent(doc))

	return doc, nil
}

// MarkFingerprintWeak flags the document as fingerprinted from invoice
// identity rather than file bytes. Two distinct files sharing an invoice
// number would collide under a weak fingerprint, so callers treat these
// documents as lower trust.
func (d *Document) MarkFingerprintWeak() {
	d.FingerprintWeak = true
}

// AddLine appends a line item in extraction order. Ordinals are assigned
// 1-based from the current line count.
func (d *Document) AddLine(rawDescription, unit string, quantity, unitCost, lineTotal decimal.Decimal) (*LineItem, error) {
	if rawDescription == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Raw description cannot be empty")
	}

	line := NewLineItem(d.ID, len(d.Lines)+1, rawDescription, unit, quantity, unitCost, lineTotal)
	d.Lines = append(d.Lines, *line)
	d.Touch()
	d.IncrementVersion()

	return &d.Lines[len(d.Lines)-1], nil
}

// ResolveLine resolves the line at the given ordinal to a catalog code
func (d *Document) ResolveLine(ordinal int, itemCode string, confidence float64) error {
	for i := range d.Lines {
		if d.Lines[i].Ordinal == ordinal {
			if err := d.Lines[i].Resolve(itemCode, confidence); err != nil {
				return err
			}
			d.Touch()
			d.AddDomainEvent(NewLineItemResolvedEvent(d, &d.Lines[i]))
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "Line item not found in document")
}

// SoftDelete marks the document as deleted without removing it. Deleted
// documents no longer participate in duplicate detection.
func (d *Document) SoftDelete() error {
	if d.DeletedAt != nil {
		return shared.NewDomainError("ALREADY_DELETED", "Document is already deleted")
	}
	now := time.Now()
	d.DeletedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	return nil
}

// IsDeleted returns true if the document has been soft-deleted
func (d *Document) IsDeleted() bool {
	return d.DeletedAt != nil
}

// UnresolvedCount returns the number of lines still unresolved
func (d *Document) UnresolvedCount() int {
	count := 0
	for i := range d.Lines {
		if !d.Lines[i].IsResolved() {
			count++
		}
	}
	return count
}

// UnresolvedLines returns the lines that still need human mapping
func (d *Document) UnresolvedLines() []LineItem {
	result := make([]LineItem, 0)
	for _, line := range d.Lines {
		if !line.IsResolved() {
			result = append(result, line)
		}
	}
	return result
}

// Repository provides access to documents and their line items
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
	// FindByFingerprint returns the non-deleted document with the given
	// fingerprint, or shared.ErrNotFound.
	FindByFingerprint(ctx context.Context, tenantID uuid.UUID, fingerprint string) (*Document, error)
	FindByBatch(ctx context.Context, tenantID uuid.UUID, batchID string) ([]Document, error)
	FindUnresolvedLinesByBatch(ctx context.Context, tenantID uuid.UUID, batchID string) ([]LineItem, error)
	SaveWithLines(ctx context.Context, doc *Document) error
	SaveLine(ctx context.Context, line *LineItem) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
