package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/catalog"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockMappingRepository struct {
	mock.Mock
}

func (m *MockMappingRepository) FindByDescription(ctx context.Context, tenantID uuid.UUID, rawDescription string) (*catalog.MappingEntry, error) {
	args := m.Called(ctx, tenantID, rawDescription)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.MappingEntry), args.Error(1)
}

func (m *MockMappingRepository) CreateIfAbsent(ctx context.Context, entry *catalog.MappingEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockMappingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.MappingEntry, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.MappingEntry), args.Error(1)
}

// unreachableClient points at a closed port so every command fails fast.
// The cache must degrade to the inner repository in that case.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisMappingRepository_DegradesWithoutRedis(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("lookup falls back to the database", func(t *testing.T) {
		inner := new(MockMappingRepository)
		entry, err := catalog.NewMappingEntry(tenantID, "FRESH EGGS LARGE", "EGG-001", 0.92, catalog.MappingSourceFuzzy)
		require.NoError(t, err)

		inner.On("FindByDescription", mock.Anything, tenantID, "FRESH EGGS LARGE").
			Return(entry, nil)

		repo := NewRedisMappingRepository(inner, unreachableClient(), time.Hour, zaptest.NewLogger(t))

		got, err := repo.FindByDescription(ctx, tenantID, "FRESH EGGS LARGE")
		require.NoError(t, err)
		assert.Equal(t, "EGG-001", got.ItemCode)
		inner.AssertExpectations(t)
	})

	t.Run("database miss is surfaced", func(t *testing.T) {
		inner := new(MockMappingRepository)
		inner.On("FindByDescription", mock.Anything, tenantID, "UNKNOWN").
			Return(nil, shared.ErrNotFound)

		repo := NewRedisMappingRepository(inner, unreachableClient(), time.Hour, zaptest.NewLogger(t))

		_, err := repo.FindByDescription(ctx, tenantID, "UNKNOWN")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("create delegates to the database", func(t *testing.T) {
		inner := new(MockMappingRepository)
		entry, err := catalog.NewMappingEntry(tenantID, "WHOLE MILK GAL", "MILK-001", 0.88, catalog.MappingSourceFuzzy)
		require.NoError(t, err)

		inner.On("CreateIfAbsent", mock.Anything, entry).Return(nil)

		repo := NewRedisMappingRepository(inner, unreachableClient(), time.Hour, zaptest.NewLogger(t))

		require.NoError(t, repo.CreateIfAbsent(ctx, entry))
		inner.AssertExpectations(t)
	})

	t.Run("existing entry error passes through", func(t *testing.T) {
		inner := new(MockMappingRepository)
		entry, err := catalog.NewMappingEntry(tenantID, "WHOLE MILK GAL", "MILK-001", 0.88, catalog.MappingSourceFuzzy)
		require.NoError(t, err)

		inner.On("CreateIfAbsent", mock.Anything, entry).Return(shared.ErrAlreadyExists)

		repo := NewRedisMappingRepository(inner, unreachableClient(), time.Hour, zaptest.NewLogger(t))

		assert.ErrorIs(t, repo.CreateIfAbsent(ctx, entry), shared.ErrAlreadyExists)
	})

	t.Run("listings bypass the cache entirely", func(t *testing.T) {
		inner := new(MockMappingRepository)
		inner.On("FindAll", mock.Anything, tenantID, mock.Anything).
			Return([]catalog.MappingEntry{}, nil)

		repo := NewRedisMappingRepository(inner, unreachableClient(), time.Hour, zaptest.NewLogger(t))

		entries, err := repo.FindAll(ctx, tenantID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Empty(t, entries)
		inner.AssertExpectations(t)
	})
}
