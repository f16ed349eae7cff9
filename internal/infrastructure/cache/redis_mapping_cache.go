// Package cache provides a Redis read-through layer over the learned
// mapping repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/catalog"
	"github.com/invrecon/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultMappingTTL = 12 * time.Hour

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient creates a Redis client and verifies the connection
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// cachedMapping is the Redis value shape for a mapping entry
type cachedMapping struct {
	ItemCode   string  `json:"item_code"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// RedisMappingRepository is a read-through cache over a MappingRepository.
// Lookups hit Redis first; misses fall through to the inner repository and
// warm the cache. Redis failures degrade to the inner repository so the
// resolver keeps working without the cache.
type RedisMappingRepository struct {
	inner  catalog.MappingRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisMappingRepository creates a new RedisMappingRepository
func NewRedisMappingRepository(inner catalog.MappingRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisMappingRepository {
	if ttl <= 0 {
		ttl = defaultMappingTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisMappingRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Ensure RedisMappingRepository implements MappingRepository
var _ catalog.MappingRepository = (*RedisMappingRepository)(nil)

func mappingKey(tenantID uuid.UUID, rawDescription string) string {
	return "invrecon:mapping:" + tenantID.String() + ":" + rawDescription
}

// FindByDescription checks Redis before the inner repository
func (r *RedisMappingRepository) FindByDescription(ctx context.Context, tenantID uuid.UUID, rawDescription string) (*catalog.MappingEntry, error) {
	key := mappingKey(tenantID, rawDescription)

	payload, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached cachedMapping
		if err := json.Unmarshal([]byte(payload), &cached); err == nil {
			entry := &catalog.MappingEntry{
				RawDescription: rawDescription,
				ItemCode:       cached.ItemCode,
				Confidence:     cached.Confidence,
				Source:         catalog.MappingSource(cached.Source),
			}
			entry.TenantID = tenantID
			return entry, nil
		}
		// Corrupt value, drop it and fall through
		r.client.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("Redis mapping lookup failed, falling back to database",
			zap.Error(err))
	}

	entry, err := r.inner.FindByDescription(ctx, tenantID, rawDescription)
	if err != nil {
		return nil, err
	}

	r.warm(ctx, entry)
	return entry, nil
}

// CreateIfAbsent delegates to the inner repository and warms the cache on
// success. An already-existing entry is not re-cached; the next lookup will.
func (r *RedisMappingRepository) CreateIfAbsent(ctx context.Context, entry *catalog.MappingEntry) error {
	if err := r.inner.CreateIfAbsent(ctx, entry); err != nil {
		return err
	}
	r.warm(ctx, entry)
	return nil
}

// FindAll always reads the inner repository; listings bypass the cache
func (r *RedisMappingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.MappingEntry, error) {
	return r.inner.FindAll(ctx, tenantID, filter)
}

func (r *RedisMappingRepository) warm(ctx context.Context, entry *catalog.MappingEntry) {
	payload, err := json.Marshal(cachedMapping{
		ItemCode:   entry.ItemCode,
		Confidence: entry.Confidence,
		Source:     entry.Source.String(),
	})
	if err != nil {
		return
	}

	key := mappingKey(entry.TenantID, entry.RawDescription)
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("Failed to warm mapping cache", zap.Error(err))
	}
}
