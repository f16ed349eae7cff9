package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockGormDB creates a GORM connection backed by sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormItemRepository_FindByCode(t *testing.T) {
	t.Run("finds existing item and uppercases the code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(gormDB)

		itemID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "tenant_id", "code", "name", "unit",
			"location_code", "quantity", "unit_cost", "active", "version",
		}).AddRow(
			itemID, tenantID, "EGG-001", "Eggs Large", "dozen",
			"MAIN", decimal.NewFromInt(42), decimal.NewFromFloat(3.25), true, 1,
		)

		mock.ExpectQuery(`SELECT \* FROM "catalog_items" WHERE tenant_id = \$1 AND code = \$2`).
			WithArgs(tenantID, "EGG-001", 1).
			WillReturnRows(rows)

		item, err := repo.FindByCode(context.Background(), tenantID, "egg-001")

		assert.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, itemID, item.ID)
		assert.Equal(t, "EGG-001", item.Code)
		assert.Equal(t, "MAIN", item.LocationCode)
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(42)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(gormDB)

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "catalog_items" WHERE tenant_id = \$1 AND code = \$2`).
			WithArgs(tenantID, "NOPE-1", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		item, err := repo.FindByCode(context.Background(), tenantID, "NOPE-1")

		assert.Error(t, err)
		assert.Nil(t, item)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormItemRepository_FindAllActive(t *testing.T) {
	t.Run("filters on active flag", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(gormDB)

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "tenant_id", "code", "name", "unit",
			"location_code", "quantity", "unit_cost", "active", "version",
		}).AddRow(
			uuid.New(), tenantID, "EGG-001", "Eggs Large", "dozen",
			"MAIN", decimal.NewFromInt(42), decimal.NewFromFloat(3.25), true, 1,
		).AddRow(
			uuid.New(), tenantID, "MILK-001", "Whole Milk", "gal",
			"MAIN", decimal.NewFromInt(18), decimal.NewFromFloat(4.10), true, 1,
		)

		mock.ExpectQuery(`SELECT \* FROM "catalog_items" WHERE tenant_id = \$1 AND active = \$2`).
			WithArgs(tenantID, true).
			WillReturnRows(rows)

		items, err := repo.FindAllActive(context.Background(), tenantID, "")

		assert.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "EGG-001", items[0].Code)
		assert.Equal(t, "MILK-001", items[1].Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("narrows to a location when given", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(gormDB)

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "catalog_items" WHERE tenant_id = \$1 AND active = \$2 AND location_code = \$3`).
			WithArgs(tenantID, true, "FREEZER").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		items, err := repo.FindAllActive(context.Background(), tenantID, "FREEZER")

		assert.NoError(t, err)
		assert.Empty(t, items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormItemRepository_ExistsByCode(t *testing.T) {
	t.Run("reports existence from the count", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(gormDB)

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "catalog_items" WHERE tenant_id = \$1 AND code = \$2`).
			WithArgs(tenantID, "EGG-001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByCode(context.Background(), tenantID, "egg-001")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
