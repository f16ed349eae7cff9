package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDocumentRepository_FindByFingerprint(t *testing.T) {
	t.Run("finds live document with ordered lines", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormDocumentRepository(gormDB)

		docID := uuid.New()
		tenantID := uuid.New()
		fingerprint := "a3f1c2d4e5b6978812345678abcdef0123456789abcdef0123456789abcdef01"

		docRows := sqlmock.NewRows([]string{
			"id", "tenant_id", "fingerprint", "vendor", "invoice_number", "total_amount", "version",
		}).AddRow(
			docID, tenantID, fingerprint, "Acme Foods", "INV-1001", decimal.NewFromFloat(250.50), 1,
		)
		mock.ExpectQuery(`SELECT \* FROM "documents" WHERE tenant_id = \$1 AND fingerprint = \$2 AND deleted_at IS NULL`).
			WithArgs(tenantID, fingerprint, 1).
			WillReturnRows(docRows)

		lineRows := sqlmock.NewRows([]string{
			"id", "document_id", "ordinal", "raw_description", "normalized_desc", "quantity", "status", "resolved_code", "confidence",
		}).AddRow(
			uuid.New(), docID, 0, "Eggs large 12pk", "eggs large 12pk", decimal.NewFromInt(10), "RESOLVED", "EGG-001", 1.0,
		).AddRow(
			uuid.New(), docID, 1, "Mystery item", "mystery item", decimal.NewFromInt(2), "UNRESOLVED", "", 0.0,
		)
		mock.ExpectQuery(`SELECT \* FROM "document_lines" WHERE "document_lines"\."document_id" = \$1`).
			WithArgs(docID).
			WillReturnRows(lineRows)

		doc, err := repo.FindByFingerprint(context.Background(), tenantID, fingerprint)

		assert.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "Acme Foods", doc.Vendor)
		require.Len(t, doc.Lines, 2)
		assert.Equal(t, 0, doc.Lines[0].Ordinal)
		assert.Equal(t, "EGG-001", doc.Lines[0].ResolvedCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when only a soft-deleted copy exists", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormDocumentRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "documents" WHERE tenant_id = \$1 AND fingerprint = \$2 AND deleted_at IS NULL`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		doc, err := repo.FindByFingerprint(context.Background(), uuid.New(), "deadbeef")

		assert.Nil(t, doc)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDocumentRepository_FindUnresolvedLinesByBatch(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDocumentRepository(gormDB)

	tenantID := uuid.New()
	docID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "document_id", "ordinal", "raw_description", "normalized_desc", "quantity", "status",
	}).AddRow(
		uuid.New(), docID, 3, "Unknown brand flour", "unknown brand flour", decimal.NewFromInt(5), "UNRESOLVED",
	)
	mock.ExpectQuery(`SELECT .* FROM "document_lines" JOIN documents ON documents\.id = document_lines\.document_id`).
		WithArgs(tenantID, "batch-20260830-1", "UNRESOLVED").
		WillReturnRows(rows)

	lines, err := repo.FindUnresolvedLinesByBatch(context.Background(), tenantID, "batch-20260830-1")

	assert.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Unknown brand flour", lines[0].RawDescription)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDocumentRepository_CountForTenant(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDocumentRepository(gormDB)

	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "documents" WHERE tenant_id = \$1 AND deleted_at IS NULL`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	count, err := repo.CountForTenant(context.Background(), tenantID)

	assert.NoError(t, err)
	assert.Equal(t, int64(17), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSystemSnapshotLoader_Load(t *testing.T) {
	t.Run("builds snapshot from active items in scope", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		loader := NewGormSystemSnapshotLoader(gormDB)

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "tenant_id", "code", "name", "unit", "location_code", "quantity", "unit_cost", "active", "version",
		}).AddRow(
			uuid.New(), tenantID, "EGG-001", "Eggs Large", "dozen", "MAIN", decimal.NewFromInt(100), decimal.NewFromFloat(3.25), true, 1,
		)
		mock.ExpectQuery(`SELECT \* FROM "catalog_items" WHERE tenant_id = \$1 AND active = \$2 AND location_code IN \(\$3,\$4\)`).
			WithArgs(tenantID, true, "MAIN", "FREEZER").
			WillReturnRows(rows)

		scope := reconciliation.ParseLocationScope("MAIN,FREEZER")
		snapshot, err := loader.Load(context.Background(), tenantID, scope)

		assert.NoError(t, err)
		require.Len(t, snapshot, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPhysicalSnapshotLoader_Load(t *testing.T) {
	t.Run("returns ErrNotFound when no finalized count matches", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		loader := NewGormPhysicalSnapshotLoader(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "physical_counts" WHERE tenant_id = \$1 AND status = \$2 AND count_date BETWEEN \$3 AND \$4`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		snapshot, err := loader.Load(context.Background(), uuid.New(), time.Now(), reconciliation.ScopeAll)

		assert.Nil(t, snapshot)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps the count nearest the as-of date per location", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		loader := NewGormPhysicalSnapshotLoader(gormDB)

		tenantID := uuid.New()
		asOf := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
		nearID := uuid.New()
		farID := uuid.New()

		headerRows := sqlmock.NewRows([]string{
			"id", "tenant_id", "count_date", "location_code", "status", "version",
		}).AddRow(
			nearID, tenantID, asOf, "MAIN", "FINALIZED", 1,
		).AddRow(
			farID, tenantID, asOf.Add(-20*time.Hour), "MAIN", "FINALIZED", 1,
		)
		mock.ExpectQuery(`SELECT \* FROM "physical_counts" WHERE tenant_id = \$1 AND status = \$2 AND count_date BETWEEN \$3 AND \$4`).
			WillReturnRows(headerRows)

		lineRows := sqlmock.NewRows([]string{
			"id", "count_id", "item_code", "item_name", "quantity", "unit", "unit_cost",
		}).AddRow(
			uuid.New(), nearID, "EGG-001", "Eggs Large", decimal.NewFromInt(95), "dozen", decimal.NewFromFloat(3.25),
		)
		mock.ExpectQuery(`SELECT \* FROM "physical_count_lines" WHERE count_id IN \(\$1\)`).
			WithArgs(nearID).
			WillReturnRows(lineRows)

		snapshot, err := loader.Load(context.Background(), tenantID, asOf, reconciliation.ScopeAll)

		assert.NoError(t, err)
		require.Len(t, snapshot, 1)
		for _, row := range snapshot {
			assert.Equal(t, "EGG-001", row.ItemCode)
			assert.Equal(t, "MAIN", row.LocationCode)
			assert.True(t, decimal.NewFromInt(95).Equal(row.Quantity))
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
