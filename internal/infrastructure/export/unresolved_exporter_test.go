package export

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/document"
	"github.com/invrecon/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStorageUnresolvedExporter(t *testing.T) {
	ctx := context.Background()

	t.Run("writes one row per unresolved line", func(t *testing.T) {
		store := storage.NewStubObjectStorage()
		exporter := NewStorageUnresolvedExporter(store, zaptest.NewLogger(t))

		tenantID := uuid.New()
		docID := uuid.New()
		lines := []document.LineItem{
			{
				ID:             uuid.New(),
				DocumentID:     docID,
				Ordinal:        3,
				RawDescription: "MYSTERY ITEM 12CT",
				Quantity:       decimal.NewFromInt(4),
				Unit:           "case",
				UnitCost:       decimal.NewFromFloat(18.99),
				LineTotal:      decimal.NewFromFloat(75.96),
				Status:         document.LineStatusUnresolved,
			},
		}

		ref, err := exporter.ExportUnresolved(ctx, tenantID, "ING-20260830-a1b2c3d4", lines)
		require.NoError(t, err)
		assert.Equal(t, "stub://"+tenantID.String()+"/batches/ING-20260830-a1b2c3d4-unresolved.csv", ref)

		data, err := store.Download(ctx, tenantID.String()+"/batches/ING-20260830-a1b2c3d4-unresolved.csv")
		require.NoError(t, err)

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, unresolvedHeader, rows[0])
		assert.Equal(t, []string{
			docID.String(), "3", "MYSTERY ITEM 12CT", "4.00", "case", "18.99", "75.96",
		}, rows[1])
	})

	t.Run("no lines means no report", func(t *testing.T) {
		store := storage.NewStubObjectStorage()
		exporter := NewStorageUnresolvedExporter(store, zaptest.NewLogger(t))

		ref, err := exporter.ExportUnresolved(ctx, uuid.New(), "ING-20260830-a1b2c3d4", nil)
		require.NoError(t, err)
		assert.Empty(t, ref)
	})
}
