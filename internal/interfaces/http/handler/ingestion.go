package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	ingestionapp "github.com/invrecon/backend/internal/application/ingestion"
)

// IngestionHandler handles document ingestion endpoints
type IngestionHandler struct {
	BaseHandler
	service *ingestionapp.Service
}

// NewIngestionHandler creates a new IngestionHandler
func NewIngestionHandler(service *ingestionapp.Service) *IngestionHandler {
	return &IngestionHandler{service: service}
}

// IngestLineRequest is one pre-extracted line item in an ingest request
type IngestLineRequest struct {
	RawDescription string          `json:"raw_description" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Unit           string          `json:"unit"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LineTotal      decimal.Decimal `json:"line_total"`
	ItemCodeHint   string          `json:"item_code_hint"`
}

// IngestDocumentRequest is the request body for ingesting a single document.
// FileContent carries the raw source bytes base64-encoded; when absent the
// fingerprint falls back to vendor and invoice number.
type IngestDocumentRequest struct {
	Vendor        string              `json:"vendor" binding:"required"`
	InvoiceNumber string              `json:"invoice_number" binding:"required"`
	InvoiceDate   string              `json:"invoice_date" binding:"required"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Currency      string              `json:"currency"`
	StorageRef    string              `json:"storage_ref"`
	FileContent   []byte              `json:"file_content"`
	Lines         []IngestLineRequest `json:"lines"`
}

// IngestDocument ingests one source document. Re-submitting identical content
// returns the existing document id with duplicate set.
func (h *IngestionHandler) IngestDocument(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req IngestDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	invoiceDate, err := parseDate(req.InvoiceDate)
	if err != nil {
		h.BadRequest(c, "Invalid invoice_date, expected YYYY-MM-DD or RFC3339")
		return
	}

	src := ingestionapp.SourceDescriptor{
		Vendor:        req.Vendor,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   invoiceDate,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
		StorageRef:    req.StorageRef,
		FileBytes:     req.FileContent,
	}
	for _, line := range req.Lines {
		src.PreExtracted = append(src.PreExtracted, ingestionapp.ExtractedLine{
			RawDescription: line.RawDescription,
			Quantity:       line.Quantity,
			Unit:           line.Unit,
			UnitCost:       line.UnitCost,
			LineTotal:      line.LineTotal,
			ItemCodeHint:   line.ItemCodeHint,
		})
	}

	actorID, actorName := getActor(c)
	result, err := h.service.Ingest(c.Request.Context(), tenantID, src, actorID, actorName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// IngestBatchRequest is the request body for batch ingestion
type IngestBatchRequest struct {
	From          string `json:"from" binding:"required"`
	To            string `json:"to" binding:"required"`
	InvoiceNumber string `json:"invoice_number"`
}

// IngestBatch ingests every source document whose invoice date falls in the
// requested window. Per-document failures are reported in the result, not as
// an HTTP error.
func (h *IngestionHandler) IngestBatch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req IngestBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		h.BadRequest(c, "Invalid from date, expected YYYY-MM-DD or RFC3339")
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		h.BadRequest(c, "Invalid to date, expected YYYY-MM-DD or RFC3339")
		return
	}
	if to.Before(from) {
		h.BadRequest(c, "Batch window end precedes its start")
		return
	}

	actorID, actorName := getActor(c)
	result, err := h.service.IngestBatch(c.Request.Context(), tenantID, ingestionapp.BatchRequest{
		From:          from,
		To:            to,
		InvoiceNumber: req.InvoiceNumber,
	}, actorID, actorName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
