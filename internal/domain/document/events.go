package document

import (
	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/shared"
)

// Aggregate type constant for Document
const AggregateTypeDocument = "Document"

// Document event type constants
const (
	EventTypeDocumentIngested = "DocumentIngested"
	EventTypeLineItemResolved = "LineItemResolved"
)

// DocumentIngestedEvent is raised when a new document is registered
type DocumentIngestedEvent struct {
	shared.BaseDomainEvent
	DocumentID    uuid.UUID `json:"document_id"`
	BatchID       string    `json:"batch_id"`
	Fingerprint   string    `json:"fingerprint"`
	Vendor        string    `json:"vendor"`
	InvoiceNumber string    `json:"invoice_number"`
}

// NewDocumentIngestedEvent creates a new DocumentIngestedEvent
func NewDocumentIngestedEvent(d *Document) *DocumentIngestedEvent {
	return &DocumentIngestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentIngested, AggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		BatchID:         d.BatchID,
		Fingerprint:     d.Fingerprint,
		Vendor:          d.Vendor,
		InvoiceNumber:   d.InvoiceNumber,
	}
}

// EventType returns the event type name
func (e *DocumentIngestedEvent) EventType() string {
	return EventTypeDocumentIngested
}

// LineItemResolvedEvent is raised when a line item is resolved to a catalog code
type LineItemResolvedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID `json:"document_id"`
	LineItemID uuid.UUID `json:"line_item_id"`
	ItemCode   string    `json:"item_code"`
	Confidence float64   `json:"confidence"`
}

// NewLineItemResolvedEvent creates a new LineItemResolvedEvent
func NewLineItemResolvedEvent(d *Document, l *LineItem) *LineItemResolvedEvent {
	return &LineItemResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLineItemResolved, AggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		LineItemID:      l.ID,
		ItemCode:        l.ResolvedCode,
		Confidence:      l.Confidence,
	}
}

// EventType returns the event type name
func (e *LineItemResolvedEvent) EventType() string {
	return EventTypeLineItemResolved
}
