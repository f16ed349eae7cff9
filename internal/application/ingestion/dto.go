package ingestion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExtractedLine is one raw line item produced by an extractor or supplied
// pre-extracted by the caller.
type ExtractedLine struct {
	RawDescription string          `json:"raw_description"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LineTotal      decimal.Decimal `json:"line_total"`
	ItemCodeHint   string          `json:"item_code_hint,omitempty"` // canonical code already present upstream, if any
}

// SourceDescriptor describes one source document to ingest
type SourceDescriptor struct {
	Vendor        string          `json:"vendor"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	StorageRef    string          `json:"storage_ref"`
	FileBytes     []byte          `json:"-"`
	// PreExtracted lines are used when present, skipping the extractor.
	PreExtracted []ExtractedLine `json:"lines,omitempty"`
}

// LineExtractor produces raw line items from a source document. PDF or other
// byte-level parsing lives behind this interface; the engine only sees the
// resulting line strings.
type LineExtractor interface {
	Extract(ctx context.Context, src SourceDescriptor) ([]ExtractedLine, error)
}

// SourceLister enumerates source documents for batch ingestion, filtered by
// invoice date window and optionally a single invoice number.
type SourceLister interface {
	List(ctx context.Context, tenantID uuid.UUID, from, to time.Time, invoiceNumber string) ([]SourceDescriptor, error)
}

// IngestResult reports the outcome of a single-document ingestion
type IngestResult struct {
	DocumentID      uuid.UUID `json:"document_id"`
	Duplicate       bool      `json:"duplicate"`
	LinesIngested   int       `json:"lines_ingested"`
	UnresolvedCount int       `json:"unresolved_count"`
}

// BatchRequest selects the sources for a batch ingestion
type BatchRequest struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	InvoiceNumber string    `json:"invoice_number,omitempty"` // optional single-invoice filter
}

// BatchFailure records one document that failed during batch ingestion
type BatchFailure struct {
	Vendor        string `json:"vendor"`
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// BatchResult aggregates the outcome of a batch ingestion
type BatchResult struct {
	BatchID             string         `json:"batch_id"`
	FilesIngested       int            `json:"files_ingested"`
	FilesDuplicate      int            `json:"files_duplicate"`
	FilesFailed         int            `json:"files_failed"`
	LinesParsed         int            `json:"lines_parsed"`
	LinesUnresolved     int            `json:"lines_unresolved"`
	UnresolvedExportRef string         `json:"unresolved_export_ref,omitempty"`
	Failures            []BatchFailure `json:"failures,omitempty"`
}

// ResolutionRate returns the share of parsed lines that resolved. A batch
// with no parsed lines counts as fully resolved.
func (r *BatchResult) ResolutionRate() float64 {
	if r.LinesParsed == 0 {
		return 1.0
	}
	return float64(r.LinesParsed-r.LinesUnresolved) / float64(r.LinesParsed)
}

// Resolution is the outcome of resolving one raw description
type Resolution struct {
	ItemCode   string  `json:"item_code,omitempty"`
	Confidence float64 `json:"confidence"`
	Resolved   bool    `json:"resolved"`
	Source     string  `json:"source,omitempty"` // exact, cache or fuzzy
}
