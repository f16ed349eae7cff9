package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/document"
	"github.com/invrecon/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// unresolvedHeader is the column layout of the unresolved-lines report
var unresolvedHeader = []string{
	"Document ID", "Ordinal", "Raw Description", "Quantity", "UOM", "Unit Cost", "Line Total",
}

// StorageUnresolvedExporter writes the per-batch unresolved-lines report so
// operators can review and fix descriptions the resolver could not place.
type StorageUnresolvedExporter struct {
	store  storage.ObjectStorage
	logger *zap.Logger
}

// NewStorageUnresolvedExporter creates a new StorageUnresolvedExporter
func NewStorageUnresolvedExporter(store storage.ObjectStorage, logger *zap.Logger) *StorageUnresolvedExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageUnresolvedExporter{store: store, logger: logger}
}

// ExportUnresolved uploads the report and returns its ref. Empty line sets
// produce no report.
func (e *StorageUnresolvedExporter) ExportUnresolved(ctx context.Context, tenantID uuid.UUID, batchID string, lines []document.LineItem) (string, error) {
	if len(lines) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(unresolvedHeader); err != nil {
		return "", fmt.Errorf("failed to write report header: %w", err)
	}
	for i := range lines {
		l := &lines[i]
		row := []string{
			l.DocumentID.String(),
			fmt.Sprintf("%d", l.Ordinal),
			l.RawDescription,
			l.Quantity.StringFixed(2),
			l.Unit,
			l.UnitCost.StringFixed(2),
			l.LineTotal.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("failed to write report row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush report: %w", err)
	}

	key := fmt.Sprintf("%s/batches/%s-unresolved.csv", tenantID, batchID)
	if err := e.store.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return "", fmt.Errorf("failed to upload unresolved report: %w", err)
	}

	e.logger.Info("Unresolved lines exported",
		zap.String("batch_id", batchID),
		zap.Int("lines", len(lines)))
	return e.store.Ref(key), nil
}
