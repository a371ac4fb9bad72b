package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/metrics"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
	"github.com/cartboost/cartboost-blocks-service/internal/repository"
)

// CatalogService serves the block catalog. When the primary store is
// unreachable it falls back to the static sample catalog: a deliberate
// degraded mode that keeps the storefront browsable, always logged.
type CatalogService struct {
	primary  repository.CatalogSource
	fallback repository.CatalogSource
	cache    repository.EntitlementCache
	useCache bool
	logger   zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	primary repository.CatalogSource,
	fallback repository.CatalogSource,
	cache repository.EntitlementCache,
	useCache bool,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		primary:  primary,
		fallback: fallback,
		cache:    cache,
		useCache: useCache,
		logger:   logger,
	}
}

// ListBlocks returns the full catalog, from cache when warm.
func (s *CatalogService) ListBlocks(ctx context.Context) ([]*models.Block, error) {
	if s.useCache {
		if blocks, err := s.cache.GetCatalog(ctx); err == nil && blocks != nil {
			return blocks, nil
		}
	}

	blocks, err := s.primary.ListBlocks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Primary catalog unavailable, serving sample catalog")
		metrics.CatalogFallbacksTotal.Inc()
		return s.fallback.ListBlocks(ctx)
	}

	if s.useCache {
		if err := s.cache.SetCatalog(ctx, blocks); err != nil {
			s.logger.Error().Err(err).Msg("Failed to cache catalog")
		}
	}

	return blocks, nil
}

// GetBlock returns a single block. A missing block is ErrNotFound from
// the primary store; only store failures trigger the fallback.
func (s *CatalogService) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("block_id", "block id is required")
	}

	block, err := s.primary.GetBlock(ctx, id)
	if err == nil {
		return block, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	s.logger.Warn().Err(err).Str("block_id", id).Msg("Primary catalog unavailable, serving sample catalog")
	metrics.CatalogFallbacksTotal.Inc()
	return s.fallback.GetBlock(ctx, id)
}
