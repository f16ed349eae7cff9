package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/document"
	"github.com/invrecon/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UnresolvedExporter exports the unresolved lines of a batch to a tabular
// artifact for human follow-up. It returns a reference to the artifact.
type UnresolvedExporter interface {
	ExportUnresolved(ctx context.Context, tenantID uuid.UUID, batchID string, lines []document.LineItem) (string, error)
}

// Metrics receives ingestion counter events. Implementations are expected
// to be safe for concurrent use.
type Metrics interface {
	DocumentIngested(ctx context.Context, tenantID uuid.UUID)
	DuplicateSkipped(ctx context.Context, tenantID uuid.UUID)
	LinesUnresolved(ctx context.Context, tenantID uuid.UUID, count int64)
}

// Service ingests source documents: it fingerprints them, registers each
// fingerprint exactly once, extracts line items and delegates each line to
// the Resolver.
type Service struct {
	docRepo   document.Repository
	resolver  *Resolver
	extractor LineExtractor
	lister    SourceLister
	exporter  UnresolvedExporter
	eventBus  shared.EventPublisher
	metrics   Metrics
	logger    *zap.Logger
}

// NewService creates a new ingestion Service
func NewService(
	docRepo document.Repository,
	resolver *Resolver,
	extractor LineExtractor,
	lister SourceLister,
	exporter UnresolvedExporter,
	eventBus shared.EventPublisher,
	metrics Metrics,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		docRepo:   docRepo,
		resolver:  resolver,
		extractor: extractor,
		lister:    lister,
		exporter:  exporter,
		eventBus:  eventBus,
		metrics:   metrics,
		logger:    logger,
	}
}

// Ingest ingests a single source document. Ingesting the same content twice
// is a no-op duplicate: the existing document id is returned with zero new
// lines.
func (s *Service) Ingest(ctx context.Context, tenantID uuid.UUID, src SourceDescriptor, actorID uuid.UUID, actorName string) (*IngestResult, error) {
	return s.ingest(ctx, tenantID, "", src, actorID, actorName)
}

func (s *Service) ingest(ctx context.Context, tenantID uuid.UUID, batchID string, src SourceDescriptor, actorID uuid.UUID, actorName string) (*IngestResult, error) {
	fp := s.fingerprint(src)

	existing, err := s.docRepo.FindByFingerprint(ctx, tenantID, fp.Value)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("Skipping duplicate document",
			zap.String("tenant_id", tenantID.String()),
			zap.String("fingerprint", fp.Value),
			zap.String("document_id", existing.ID.String()),
		)
		if s.metrics != nil {
			s.metrics.DuplicateSkipped(ctx, tenantID)
		}
		return &IngestResult{DocumentID: existing.ID, Duplicate: true}, nil
	}

	lines := src.PreExtracted
	if len(lines) == 0 && s.extractor != nil {
		extracted, err := s.extractor.Extract(ctx, src)
		if err != nil {
			// Extraction failure is recoverable: the document is still
			// registered so the duplicate check holds, just with no lines.
			s.logger.Warn("Line extraction failed, registering document without lines",
				zap.String("tenant_id", tenantID.String()),
				zap.String("vendor", src.Vendor),
				zap.String("invoice_number", src.InvoiceNumber),
				zap.Error(err),
			)
			lines = nil
		} else {
			lines = extracted
		}
	}

	doc, err := document.NewDocument(
		tenantID, batchID, fp.Value,
		src.Vendor, src.InvoiceNumber, src.InvoiceDate,
		src.TotalAmount, src.Currency, src.StorageRef,
		actorID, actorName,
	)
	if err != nil {
		return nil, err
	}
	if fp.Weak {
		doc.MarkFingerprintWeak()
		s.logger.Warn("Document fingerprinted without file bytes, duplicate detection is weaker",
			zap.String("tenant_id", tenantID.String()),
			zap.String("vendor", src.Vendor),
			zap.String("invoice_number", src.InvoiceNumber),
		)
	}

	unresolved := 0
	for _, line := range lines {
		added, err := doc.AddLine(line.RawDescription, line.Unit, line.Quantity, line.UnitCost, line.LineTotal)
		if err != nil {
			return nil, err
		}

		res, err := s.resolver.Resolve(ctx, tenantID, line.RawDescription, line.ItemCodeHint)
		if err != nil {
			return nil, err
		}
		if res.Resolved {
			if err := doc.ResolveLine(added.Ordinal, res.ItemCode, res.Confidence); err != nil {
				return nil, err
			}
		} else {
			unresolved++
		}
	}

	if err := s.docRepo.SaveWithLines(ctx, doc); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, doc)
	if s.metrics != nil {
		s.metrics.DocumentIngested(ctx, tenantID)
		if unresolved > 0 {
			s.metrics.LinesUnresolved(ctx, tenantID, int64(unresolved))
		}
	}

	return &IngestResult{
		DocumentID:      doc.ID,
		LinesIngested:   len(doc.Lines),
		UnresolvedCount: unresolved,
	}, nil
}

// IngestBatch ingests every source matching the request window. Failures are
// collected per document and do not abort the batch. Unresolved lines of the
// whole batch are exported for review at the end.
func (s *Service) IngestBatch(ctx context.Context, tenantID uuid.UUID, req BatchRequest, actorID uuid.UUID, actorName string) (*BatchResult, error) {
	if s.lister == nil {
		return nil, shared.NewDomainError("NO_SOURCE_LISTER", "Batch ingestion requires a source lister")
	}

	sources, err := s.lister.List(ctx, tenantID, req.From, req.To, req.InvoiceNumber)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{BatchID: newBatchID()}
	log := s.logger.With(
		zap.String("tenant_id", tenantID.String()),
		zap.String("batch_id", result.BatchID),
	)
	log.Info("Starting batch ingestion",
		zap.Time("from", req.From),
		zap.Time("to", req.To),
		zap.Int("sources", len(sources)),
	)

	for _, src := range sources {
		ingestRes, err := s.ingest(ctx, tenantID, result.BatchID, src, actorID, actorName)
		if err != nil {
			result.FilesFailed++
			result.Failures = append(result.Failures, BatchFailure{
				Vendor:        src.Vendor,
				InvoiceNumber: src.InvoiceNumber,
				Reason:        err.Error(),
			})
			log.Warn("Document ingestion failed, continuing batch",
				zap.String("vendor", src.Vendor),
				zap.String("invoice_number", src.InvoiceNumber),
				zap.Error(err),
			)
			continue
		}
		if ingestRes.Duplicate {
			result.FilesDuplicate++
			continue
		}
		result.FilesIngested++
		result.LinesParsed += ingestRes.LinesIngested
		result.LinesUnresolved += ingestRes.UnresolvedCount
	}

	if s.exporter != nil && result.LinesUnresolved > 0 {
		unresolvedLines, err := s.docRepo.FindUnresolvedLinesByBatch(ctx, tenantID, result.BatchID)
		if err != nil {
			log.Warn("Failed to collect unresolved lines for export", zap.Error(err))
		} else if len(unresolvedLines) > 0 {
			ref, err := s.exporter.ExportUnresolved(ctx, tenantID, result.BatchID, unresolvedLines)
			if err != nil {
				log.Warn("Failed to export unresolved lines", zap.Error(err))
			} else {
				result.UnresolvedExportRef = ref
			}
		}
	}

	log.Info("Batch ingestion finished",
		zap.Int("files_ingested", result.FilesIngested),
		zap.Int("files_duplicate", result.FilesDuplicate),
		zap.Int("files_failed", result.FilesFailed),
		zap.Int("lines_parsed", result.LinesParsed),
		zap.Int("lines_unresolved", result.LinesUnresolved),
	)

	return result, nil
}

// fingerprint prefers hashing the file bytes; without bytes it falls back to
// vendor and invoice number, which is a known precision gap.
func (s *Service) fingerprint(src SourceDescriptor) document.Fingerprint {
	if len(src.FileBytes) > 0 {
		return document.ComputeFingerprint(src.FileBytes)
	}
	return document.FallbackFingerprint(src.Vendor, src.InvoiceNumber)
}

// publishEvents publishes domain events from the aggregate
func (s *Service) publishEvents(ctx context.Context, doc *document.Document) {
	if s.eventBus == nil {
		return
	}
	for _, event := range doc.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	doc.ClearDomainEvents()
}

// newBatchID generates a batch identifier of the form ING-YYYYMMDD-xxxxxxxx
func newBatchID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("ING-%s-%s", time.Now().Format("20060102"), suffix)
}
