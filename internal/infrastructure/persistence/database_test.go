package persistence

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	gormDB, mock, mockDB := newMockGormDB(t)
	t.Cleanup(func() { mockDB.Close() })
	return &Database{DB: gormDB}, mock
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error { return nil })

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.Transaction(func(tx *gorm.DB) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_DryRun(t *testing.T) {
	t.Run("always rolls back, even on success", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		called := false
		err := db.DryRun(func(tx *gorm.DB) error {
			called = true
			return nil
		})

		assert.NoError(t, err)
		assert.True(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("surfaces the function error", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.DryRun(func(tx *gorm.DB) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_WithTenant(t *testing.T) {
	t.Run("panics on empty tenant", func(t *testing.T) {
		db, _ := newMockDatabase(t)

		require.Panics(t, func() {
			db.WithTenant("")
		})
	})

	t.Run("returns a scoped query", func(t *testing.T) {
		db, _ := newMockDatabase(t)

		scoped := db.WithTenant("0d4d7c7e-0000-0000-0000-000000000001")
		assert.NotNil(t, scoped)
	})
}
