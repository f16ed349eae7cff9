package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/invrecon/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testRun(t *testing.T, tenantID uuid.UUID) *reconciliation.Run {
	t.Helper()
	run, err := reconciliation.NewRun(
		tenantID, "RC-20260830-0001",
		time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		reconciliation.ScopeAll,
		uuid.New(), "night batch",
	)
	require.NoError(t, err)
	return run
}

func testRecords(runID uuid.UUID) []reconciliation.VarianceRecord {
	return []reconciliation.VarianceRecord{
		{
			BaseEntity:    shared.NewBaseEntity(),
			RunID:         runID,
			ItemCode:      "EGG-001",
			ItemName:      "Eggs Large",
			LocationCode:  "MAIN",
			PhysicalQty:   decimal.NewFromInt(45),
			SystemQty:     decimal.NewFromInt(40),
			VarianceQty:   decimal.NewFromInt(5),
			Unit:          "dozen",
			UnitCost:      decimal.NewFromFloat(3.25),
			VarianceValue: decimal.NewFromFloat(16.25),
			VariancePct:   decimal.NewFromFloat(12.5),
			Category:      reconciliation.CategoryOver,
		},
		{
			BaseEntity:    shared.NewBaseEntity(),
			RunID:         runID,
			ItemCode:      "MILK-001",
			ItemName:      "Whole Milk",
			LocationCode:  "MAIN",
			PhysicalQty:   decimal.NewFromInt(10),
			SystemQty:     decimal.NewFromInt(30),
			VarianceQty:   decimal.NewFromInt(-20),
			Unit:          "gal",
			UnitCost:      decimal.NewFromFloat(4.10),
			VarianceValue: decimal.NewFromFloat(-82),
			VariancePct:   decimal.NewFromFloat(-66.666667),
			Category:      reconciliation.CategoryShort,
		},
	}
}

func TestStorageArtifactWriter_WriteJSON(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStubObjectStorage()
	writer := NewStorageArtifactWriter(store, zaptest.NewLogger(t))

	tenantID := uuid.New()
	run := testRun(t, tenantID)
	records := testRecords(run.ID)

	ref, err := writer.WriteJSON(ctx, tenantID, run, records)
	require.NoError(t, err)
	assert.Equal(t, "stub://"+tenantID.String()+"/runs/RC-20260830-0001.json", ref)

	data, err := store.Download(ctx, tenantID.String()+"/runs/RC-20260830-0001.json")
	require.NoError(t, err)

	var artifact struct {
		RunID       uuid.UUID `json:"run_id"`
		RunNumber   string    `json:"run_number"`
		AsOfDate    string    `json:"as_of_date"`
		Scope       string    `json:"scope"`
		GeneratedAt time.Time `json:"generated_at"`
		Summary     struct {
			ItemsChecked int `json:"items_checked"`
			OverItems    int `json:"over_items"`
			ShortItems   int `json:"short_items"`
		} `json:"summary"`
		Records []map[string]string `json:"records"`
	}
	require.NoError(t, json.Unmarshal(data, &artifact))

	assert.Equal(t, run.ID, artifact.RunID)
	assert.Equal(t, "RC-20260830-0001", artifact.RunNumber)
	assert.Equal(t, "2026-08-30", artifact.AsOfDate)
	assert.Equal(t, "*", artifact.Scope)
	assert.False(t, artifact.GeneratedAt.IsZero())
	assert.WithinDuration(t, time.Now(), artifact.GeneratedAt, time.Minute)
	assert.Equal(t, 2, artifact.Summary.ItemsChecked)
	assert.Equal(t, 1, artifact.Summary.OverItems)
	assert.Equal(t, 1, artifact.Summary.ShortItems)
	require.Len(t, artifact.Records, 2)
	assert.Equal(t, "16.25", artifact.Records[0]["variance_value"])
	assert.Equal(t, "-82.00", artifact.Records[1]["variance_value"])
}

func TestStorageArtifactWriter_WriteCSV(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStubObjectStorage()
	writer := NewStorageArtifactWriter(store, zaptest.NewLogger(t))

	tenantID := uuid.New()
	run := testRun(t, tenantID)
	records := testRecords(run.ID)

	ref, err := writer.WriteCSV(ctx, tenantID, run, records)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, "/runs/RC-20260830-0001.csv"))

	data, err := store.Download(ctx, tenantID.String()+"/runs/RC-20260830-0001.csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"EGG-001", "Eggs Large", "MAIN",
		"45.00", "40.00", "5.00",
		"dozen", "3.25", "16.25", "12.50", "over",
	}, rows[1])
	assert.Equal(t, "short", rows[2][10])
}

func TestStorageArtifactWriter_EmptyRecords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStubObjectStorage()
	writer := NewStorageArtifactWriter(store, zaptest.NewLogger(t))

	tenantID := uuid.New()
	run := testRun(t, tenantID)

	ref, err := writer.WriteCSV(ctx, tenantID, run, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	data, err := store.Download(ctx, tenantID.String()+"/runs/RC-20260830-0001.csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	// Header only
	require.Len(t, rows, 1)
}
