package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/clients"
	"github.com/cartboost/cartboost-blocks-service/internal/events"
	"github.com/cartboost/cartboost-blocks-service/internal/metrics"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
	"github.com/cartboost/cartboost-blocks-service/internal/repository"
)

// InstallService re-derives a shop's entitled block set from its
// completed purchases and registers it with the storefront block
// registry. Merchants trigger it manually when the automated path
// after checkout did not reflect a purchase, so every operation must
// be safe to repeat.
type InstallService struct {
	purchases repository.PurchaseRepository
	registry  clients.RegistryClient
	cache     repository.EntitlementCache
	publisher events.Publisher
	useCache  bool
	publish   bool
	logger    zerolog.Logger
}

// NewInstallService creates a new install service.
func NewInstallService(
	purchases repository.PurchaseRepository,
	registry clients.RegistryClient,
	cache repository.EntitlementCache,
	publisher events.Publisher,
	useCache bool,
	publish bool,
	logger zerolog.Logger,
) *InstallService {
	return &InstallService{
		purchases: purchases,
		registry:  registry,
		cache:     cache,
		publisher: publisher,
		useCache:  useCache,
		publish:   publish,
		logger:    logger,
	}
}

// RefreshShop recomputes and registers the shop's block set.
// Idempotent: unchanged purchases produce the identical registration.
func (s *InstallService) RefreshShop(ctx context.Context, shop, trigger string) ([]string, error) {
	if shop == "" {
		return nil, apperrors.NewValidationError("shop", "shop is required")
	}

	s.logger.Info().Str("shop", shop).Str("trigger", trigger).Msg("Refreshing shop blocks")

	purchases, err := s.purchases.ListCompletedByShop(ctx, shop)
	if err != nil {
		return nil, err
	}

	blockIDs := entitledBlockIDs(purchases)

	if err := s.registry.RegisterBlocks(ctx, shop, blockIDs); err != nil {
		return nil, err
	}

	if s.useCache {
		if err := s.cache.SetShopBlocks(ctx, shop, blockIDs); err != nil {
			// Cache is advisory; the registry holds the truth.
			s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to cache entitlement set")
		}
	}

	if s.publish {
		if err := s.publisher.PublishBlocksInstalled(ctx, shop, blockIDs); err != nil {
			s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to publish install event")
		}
	}

	metrics.InstallsTotal.WithLabelValues(trigger).Inc()

	s.logger.Info().
		Str("shop", shop).
		Str("trigger", trigger).
		Int("block_count", len(blockIDs)).
		Msg("Shop blocks refreshed")

	return blockIDs, nil
}

// RefreshAllShops refreshes every shop holding a completed purchase.
// A failing shop does not stop the rest; the first error is reported
// after all shops were attempted.
func (s *InstallService) RefreshAllShops(ctx context.Context, trigger string) (int, error) {
	shops, err := s.purchases.ListShopsWithCompletedPurchases(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	var firstErr error
	for _, shop := range shops {
		if _, err := s.RefreshShop(ctx, shop, trigger); err != nil {
			s.logger.Error().Err(err).Str("shop", shop).Msg("Shop refresh failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("refresh of shop %s: %w", shop, err)
			}
			continue
		}
		refreshed++
	}

	return refreshed, firstErr
}

// EntitledBlocks returns the cached entitlement set when available,
// recomputing from purchases on a miss.
func (s *InstallService) EntitledBlocks(ctx context.Context, shop string) ([]string, error) {
	if shop == "" {
		return nil, apperrors.NewValidationError("shop", "shop is required")
	}

	if s.useCache {
		if blockIDs, err := s.cache.GetShopBlocks(ctx, shop); err == nil && blockIDs != nil {
			return blockIDs, nil
		}
	}

	purchases, err := s.purchases.ListCompletedByShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	return entitledBlockIDs(purchases), nil
}

// entitledBlockIDs derives the unique, sorted block set from completed
// purchases. Sorted so repeated derivations compare equal.
func entitledBlockIDs(purchases []*models.Purchase) []string {
	seen := make(map[string]bool, len(purchases))
	blockIDs := make([]string, 0, len(purchases))
	for _, p := range purchases {
		if p.BlockID == "" || seen[p.BlockID] {
			continue
		}
		seen[p.BlockID] = true
		blockIDs = append(blockIDs, p.BlockID)
	}
	sort.Strings(blockIDs)
	return blockIDs
}
