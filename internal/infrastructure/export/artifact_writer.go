// Package export renders run artifacts and unresolved-line reports and
// persists them to object storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/invrecon/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// csvHeader is the column layout of the variance CSV artifact
var csvHeader = []string{
	"Item Code", "Item Name", "Location",
	"Physical Qty", "System Qty", "Variance Qty",
	"UOM", "Unit Cost", "Variance Value", "Variance %", "Category",
}

// StorageArtifactWriter renders variance artifacts and uploads them
type StorageArtifactWriter struct {
	store  storage.ObjectStorage
	logger *zap.Logger
}

// NewStorageArtifactWriter creates a new StorageArtifactWriter
func NewStorageArtifactWriter(store storage.ObjectStorage, logger *zap.Logger) *StorageArtifactWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageArtifactWriter{store: store, logger: logger}
}

// runArtifact is the JSON artifact shape
type runArtifact struct {
	RunID       uuid.UUID              `json:"run_id"`
	RunNumber   string                 `json:"run_number"`
	AsOfDate    string                 `json:"as_of_date"`
	Scope       string                 `json:"scope"`
	GeneratedAt time.Time              `json:"generated_at"`
	Summary     reconciliation.Summary `json:"summary"`
	Records     []artifactRecord       `json:"records"`
}

type artifactRecord struct {
	ItemCode      string `json:"item_code"`
	ItemName      string `json:"item_name"`
	LocationCode  string `json:"location_code"`
	PhysicalQty   string `json:"physical_qty"`
	SystemQty     string `json:"system_qty"`
	VarianceQty   string `json:"variance_qty"`
	Unit          string `json:"unit"`
	UnitCost      string `json:"unit_cost"`
	VarianceValue string `json:"variance_value"`
	VariancePct   string `json:"variance_pct"`
	Category      string `json:"category"`
}

// WriteJSON renders and uploads the JSON artifact, returning its ref
func (w *StorageArtifactWriter) WriteJSON(ctx context.Context, tenantID uuid.UUID, run *reconciliation.Run, records []reconciliation.VarianceRecord) (string, error) {
	artifact := runArtifact{
		RunID:       run.ID,
		RunNumber:   run.RunNumber,
		AsOfDate:    run.AsOfDate.Format(time.DateOnly),
		Scope:       run.Scope.String(),
		GeneratedAt: time.Now().UTC(),
		Summary:     reconciliation.Summarize(records),
		Records:     make([]artifactRecord, len(records)),
	}
	for i := range records {
		r := &records[i]
		artifact.Records[i] = artifactRecord{
			ItemCode:      r.ItemCode,
			ItemName:      r.ItemName,
			LocationCode:  r.LocationCode,
			PhysicalQty:   money(r.PhysicalQty),
			SystemQty:     money(r.SystemQty),
			VarianceQty:   money(r.VarianceQty),
			Unit:          r.Unit,
			UnitCost:      money(r.UnitCost),
			VarianceValue: money(r.VarianceValue),
			VariancePct:   money(r.VariancePct),
			Category:      r.Category.String(),
		}
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run artifact: %w", err)
	}

	key := artifactKey(tenantID, run.RunNumber, "json")
	if err := w.store.Upload(ctx, key, data, "application/json"); err != nil {
		return "", fmt.Errorf("failed to upload JSON artifact: %w", err)
	}

	w.logger.Info("Run artifact written",
		zap.String("run_number", run.RunNumber),
		zap.String("format", "json"),
		zap.Int("records", len(records)))
	return w.store.Ref(key), nil
}

// WriteCSV renders and uploads the CSV artifact, returning its ref
func (w *StorageArtifactWriter) WriteCSV(ctx context.Context, tenantID uuid.UUID, run *reconciliation.Run, records []reconciliation.VarianceRecord) (string, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range records {
		r := &records[i]
		row := []string{
			r.ItemCode,
			r.ItemName,
			r.LocationCode,
			money(r.PhysicalQty),
			money(r.SystemQty),
			money(r.VarianceQty),
			r.Unit,
			money(r.UnitCost),
			money(r.VarianceValue),
			money(r.VariancePct),
			r.Category.String(),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	key := artifactKey(tenantID, run.RunNumber, "csv")
	if err := w.store.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return "", fmt.Errorf("failed to upload CSV artifact: %w", err)
	}

	w.logger.Info("Run artifact written",
		zap.String("run_number", run.RunNumber),
		zap.String("format", "csv"),
		zap.Int("records", len(records)))
	return w.store.Ref(key), nil
}

func artifactKey(tenantID uuid.UUID, runNumber, ext string) string {
	return fmt.Sprintf("%s/runs/%s.%s", tenantID, runNumber, ext)
}

// money renders a decimal with two fixed fraction digits
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
