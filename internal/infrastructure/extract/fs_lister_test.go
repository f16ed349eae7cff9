package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeSourceFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFilesystemSourceLister_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	day := func(s string) time.Time {
		d, err := time.Parse(time.DateOnly, s)
		require.NoError(t, err)
		return d
	}

	t.Run("lists sources inside the date window", func(t *testing.T) {
		dir := t.TempDir()
		writeSourceFile(t, dir, "acme-1001.inv",
			"vendor: Acme Foods\ninvoice_number: INV-1001\ninvoice_date: 2026-08-28\ntotal_amount: 146.25\ncurrency: USD\n---\nFRESH EGGS LARGE|45|dozen|3.25\n")
		writeSourceFile(t, dir, "acme-1002.inv",
			"vendor: Acme Foods\ninvoice_number: INV-1002\ninvoice_date: 2026-07-01\ntotal_amount: 10.00\n---\nX|1|ea|10.00\n")
		writeSourceFile(t, dir, "notes.txt", "not an invoice")

		lister := NewFilesystemSourceLister(dir, zaptest.NewLogger(t))
		sources, err := lister.List(ctx, tenantID, day("2026-08-01"), day("2026-08-31"), "")

		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "Acme Foods", sources[0].Vendor)
		assert.Equal(t, "INV-1001", sources[0].InvoiceNumber)
		assert.True(t, sources[0].TotalAmount.Equal(decimal.NewFromFloat(146.25)))
		assert.Equal(t, "USD", sources[0].Currency)
		assert.NotEmpty(t, sources[0].FileBytes)
		assert.Equal(t, filepath.Join(dir, "acme-1001.inv"), sources[0].StorageRef)
	})

	t.Run("filters on invoice number", func(t *testing.T) {
		dir := t.TempDir()
		writeSourceFile(t, dir, "a.inv",
			"vendor: A\ninvoice_number: INV-1\ninvoice_date: 2026-08-10\n---\nX|1|ea|1.00\n")
		writeSourceFile(t, dir, "b.inv",
			"vendor: B\ninvoice_number: INV-2\ninvoice_date: 2026-08-10\n---\nX|1|ea|1.00\n")

		lister := NewFilesystemSourceLister(dir, zaptest.NewLogger(t))
		sources, err := lister.List(ctx, tenantID, day("2026-08-01"), day("2026-08-31"), "INV-2")

		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "INV-2", sources[0].InvoiceNumber)
	})

	t.Run("orders by invoice date then number", func(t *testing.T) {
		dir := t.TempDir()
		writeSourceFile(t, dir, "late.inv",
			"vendor: A\ninvoice_number: INV-9\ninvoice_date: 2026-08-20\n---\nX|1|ea|1.00\n")
		writeSourceFile(t, dir, "early.inv",
			"vendor: A\ninvoice_number: INV-1\ninvoice_date: 2026-08-05\n---\nX|1|ea|1.00\n")

		lister := NewFilesystemSourceLister(dir, zaptest.NewLogger(t))
		sources, err := lister.List(ctx, tenantID, day("2026-08-01"), day("2026-08-31"), "")

		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, "INV-1", sources[0].InvoiceNumber)
		assert.Equal(t, "INV-9", sources[1].InvoiceNumber)
	})

	t.Run("skips files with a bad date instead of failing the batch", func(t *testing.T) {
		dir := t.TempDir()
		writeSourceFile(t, dir, "bad.inv",
			"vendor: A\ninvoice_number: INV-1\ninvoice_date: yesterday\n---\nX|1|ea|1.00\n")
		writeSourceFile(t, dir, "good.inv",
			"vendor: A\ninvoice_number: INV-2\ninvoice_date: 2026-08-10\n---\nX|1|ea|1.00\n")

		lister := NewFilesystemSourceLister(dir, zaptest.NewLogger(t))
		sources, err := lister.List(ctx, tenantID, day("2026-08-01"), day("2026-08-31"), "")

		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "INV-2", sources[0].InvoiceNumber)
	})

	t.Run("missing directory is an error", func(t *testing.T) {
		lister := NewFilesystemSourceLister("/nonexistent/dir", zaptest.NewLogger(t))
		_, err := lister.List(ctx, tenantID, day("2026-08-01"), day("2026-08-31"), "")
		assert.Error(t, err)
	})
}
