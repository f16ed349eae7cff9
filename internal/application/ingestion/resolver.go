package ingestion

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/catalog"
	"github.com/invrecon/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Resolver maps raw line-item descriptions to canonical catalog item codes.
// Resolution order: validated code hint, then the learned mapping cache,
// then a fuzzy token-overlap scan of the catalog. The first success wins.
type Resolver struct {
	itemRepo    catalog.ItemRepository
	mappingRepo catalog.MappingRepository
	threshold   float64
	logger      *zap.Logger
}

// NewResolver creates a new Resolver. A non-positive threshold falls back to
// the default match threshold.
func NewResolver(itemRepo catalog.ItemRepository, mappingRepo catalog.MappingRepository, threshold float64, logger *zap.Logger) *Resolver {
	if threshold <= 0 {
		threshold = catalog.DefaultMatchThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		itemRepo:    itemRepo,
		mappingRepo: mappingRepo,
		threshold:   threshold,
		logger:      logger,
	}
}

// Resolve resolves a raw description, optionally guided by a code hint
// already present in upstream data. It writes at most one new mapping entry
// per call and never mutates an existing entry.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, rawDescription, codeHint string) (Resolution, error) {
	// 1. A hint is trusted only if the code actually exists in the catalog.
	if codeHint != "" {
		exists, err := r.itemRepo.ExistsByCode(ctx, tenantID, codeHint)
		if err != nil {
			return Resolution{}, err
		}
		if exists {
			return Resolution{
				ItemCode:   codeHint,
				Confidence: 1.0,
				Resolved:   true,
				Source:     catalog.MappingSourceExact.String(),
			}, nil
		}
		r.logger.Debug("Ignoring code hint not present in catalog",
			zap.String("tenant_id", tenantID.String()),
			zap.String("code_hint", codeHint),
		)
	}

	normalized := catalog.NormalizeDescription(rawDescription)
	if normalized == "" {
		return Resolution{}, nil
	}

	// 2. Exact hit in the learned mapping cache.
	entry, err := r.mappingRepo.FindByDescription(ctx, tenantID, normalized)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Resolution{}, err
	}
	if entry != nil {
		return Resolution{
			ItemCode:   entry.ItemCode,
			Confidence: entry.Confidence,
			Resolved:   true,
			Source:     catalog.MappingSourceCache.String(),
		}, nil
	}

	// 3. Fuzzy scan over the active catalog.
	items, err := r.itemRepo.FindAllActive(ctx, tenantID, "")
	if err != nil {
		return Resolution{}, err
	}

	match := catalog.BestMatch(rawDescription, items)
	if match.Item == nil || match.Score < r.threshold {
		return Resolution{Confidence: match.Score}, nil
	}

	newEntry, err := catalog.NewMappingEntry(tenantID, rawDescription, match.Item.Code, match.Score, catalog.MappingSourceFuzzy)
	if err != nil {
		return Resolution{}, err
	}
	if err := r.mappingRepo.CreateIfAbsent(ctx, newEntry); err != nil {
		// A concurrent resolver may have learned the mapping first; the
		// existing entry stands.
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return Resolution{}, err
		}
	}

	r.logger.Debug("Learned new description mapping",
		zap.String("tenant_id", tenantID.String()),
		zap.String("description", normalized),
		zap.String("item_code", match.Item.Code),
		zap.Float64("confidence", match.Score),
	)

	return Resolution{
		ItemCode:   match.Item.Code,
		Confidence: match.Score,
		Resolved:   true,
		Source:     catalog.MappingSourceFuzzy.String(),
	}, nil
}
