package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/events"
	"github.com/cartboost/cartboost-blocks-service/internal/lifecycle"
	"github.com/cartboost/cartboost-blocks-service/internal/metrics"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
	"github.com/cartboost/cartboost-blocks-service/internal/repository"
)

// PurchaseService owns the block purchase lifecycle. Purchases move
// through the transition tables only; rows are never deleted.
type PurchaseService struct {
	purchases repository.PurchaseRepository
	catalog   *CatalogService
	installs  *InstallService
	publisher events.Publisher
	publish   bool
	logger    zerolog.Logger
}

// NewPurchaseService creates a new purchase service.
func NewPurchaseService(
	purchases repository.PurchaseRepository,
	catalog *CatalogService,
	installs *InstallService,
	publisher events.Publisher,
	publish bool,
	logger zerolog.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		catalog:   catalog,
		installs:  installs,
		publisher: publisher,
		publish:   publish,
		logger:    logger,
	}
}

// CreatePurchase records a pending purchase when a merchant starts
// checkout for a block.
func (s *PurchaseService) CreatePurchase(ctx context.Context, shop, blockID, email string) (*models.Purchase, error) {
	if shop == "" {
		return nil, apperrors.NewValidationError("shop", "shop is required")
	}
	if blockID == "" {
		return nil, apperrors.NewValidationError("block_id", "block id is required")
	}

	block, err := s.catalog.GetBlock(ctx, blockID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	purchase := &models.Purchase{
		ID:        "pur_" + uuid.NewString(),
		Shop:      shop,
		BlockID:   block.ID,
		BlockName: block.Name,
		Price:     block.Price,
		Status:    models.PurchaseStatusPending,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("purchase_id", purchase.ID).
		Str("shop", shop).
		Str("block_id", block.ID).
		Msg("Purchase created")

	return purchase, nil
}

// ConfirmPurchase marks a pending purchase completed after payment
// confirmation and refreshes the shop's registered blocks.
func (s *PurchaseService) ConfirmPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	purchase, err := s.transition(ctx, id, models.PurchaseStatusCompleted)
	if err != nil {
		return nil, err
	}

	// Automated install path. A failure here is recoverable: the
	// merchant can trigger the manual refresh endpoint.
	if _, err := s.installs.RefreshShop(ctx, purchase.Shop, "purchase_confirmed"); err != nil {
		s.logger.Error().
			Err(err).
			Str("purchase_id", purchase.ID).
			Str("shop", purchase.Shop).
			Msg("Post-purchase block refresh failed")
	}

	return purchase, nil
}

// FailPurchase marks a pending purchase failed after a payment failure.
func (s *PurchaseService) FailPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	return s.transition(ctx, id, models.PurchaseStatusFailed)
}

// RefundPurchase marks a completed purchase refunded and refreshes the
// shop's registered blocks so the refunded block is withdrawn.
func (s *PurchaseService) RefundPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	purchase, err := s.transition(ctx, id, models.PurchaseStatusRefunded)
	if err != nil {
		return nil, err
	}

	if _, err := s.installs.RefreshShop(ctx, purchase.Shop, "purchase_refunded"); err != nil {
		s.logger.Error().
			Err(err).
			Str("purchase_id", purchase.ID).
			Str("shop", purchase.Shop).
			Msg("Post-refund block refresh failed")
	}

	return purchase, nil
}

// GetPurchase retrieves a purchase by ID.
func (s *PurchaseService) GetPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	return s.purchases.GetByID(ctx, id)
}

// ListPurchases lists a shop's purchases, newest first.
func (s *PurchaseService) ListPurchases(ctx context.Context, shop string) ([]*models.Purchase, error) {
	if shop == "" {
		return nil, apperrors.NewValidationError("shop", "shop is required")
	}
	return s.purchases.ListByShop(ctx, shop)
}

func (s *PurchaseService) transition(ctx context.Context, id string, to models.PurchaseStatus) (*models.Purchase, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("purchase_id", "purchase id is required")
	}

	current, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.CheckPurchase(current.Status, to); err != nil {
		return nil, err
	}

	previous := current.Status
	purchase, err := s.purchases.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}

	if s.publish {
		if err := s.publisher.PublishPurchaseStatusChanged(ctx, purchase, previous); err != nil {
			s.logger.Error().Err(err).Str("purchase_id", id).Msg("Failed to publish purchase event")
		}
	}

	metrics.PurchaseTransitionsTotal.WithLabelValues(string(to)).Inc()

	return purchase, nil
}
