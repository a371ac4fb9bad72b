package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/clients"
	"github.com/cartboost/cartboost-blocks-service/internal/events"
	"github.com/cartboost/cartboost-blocks-service/internal/lifecycle"
	"github.com/cartboost/cartboost-blocks-service/internal/metrics"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
	"github.com/cartboost/cartboost-blocks-service/internal/repository"
)

// CancellationResult is returned to the merchant UI after a successful
// cancellation. Test mode is always surfaced.
type CancellationResult struct {
	Success      bool                         `json:"success"`
	Test         bool                         `json:"is_test"`
	Subscription *clients.CancellationOutcome `json:"subscription"`
	RowsUpdated  int64                        `json:"-"`
}

// BillingService owns the subscription lifecycle: merchant-initiated
// cancellation and billing platform event handling.
type BillingService struct {
	subscriptions repository.SubscriptionRepository
	billingClient clients.BillingClient
	publisher     events.Publisher
	publishEvents bool
	logger        zerolog.Logger
}

// NewBillingService creates a new billing service.
func NewBillingService(
	subscriptions repository.SubscriptionRepository,
	billingClient clients.BillingClient,
	publisher events.Publisher,
	publishEvents bool,
	logger zerolog.Logger,
) *BillingService {
	return &BillingService{
		subscriptions: subscriptions,
		billingClient: billingClient,
		publisher:     publisher,
		publishEvents: publishEvents,
		logger:        logger,
	}
}

var _ events.BillingEventHandler = (*BillingService)(nil)

// CancelSubscription cancels a recurring charge. The external billing
// call runs first; the local bulk update only happens after it
// succeeds, so a local "cancelled" always corresponds to an actually
// cancelled charge. The two steps are a sequence, not a transaction:
// a crash between them leaves the external charge cancelled and the
// local row stale until the billing event consumer reconciles it.
func (s *BillingService) CancelSubscription(ctx context.Context, shop, chargeID string, prorate bool) (*CancellationResult, error) {
	if chargeID == "" {
		return nil, apperrors.NewValidationError("subscription_id", "subscription id is required")
	}
	if shop == "" {
		return nil, apperrors.NewValidationError("shop", "shop is required")
	}

	s.logger.Info().
		Str("shop", shop).
		Str("charge_id", chargeID).
		Bool("prorate", prorate).
		Msg("Cancelling subscription")

	outcome, err := s.billingClient.CancelRecurringCharge(ctx, shop, chargeID, prorate)
	if err != nil {
		metrics.CancellationsTotal.WithLabelValues("billing_failed").Inc()

		upstream := err.Error()
		var apiErr *clients.BillingAPIError
		if errors.As(err, &apiErr) {
			upstream = apiErr.Message
		}

		// Local state untouched: no cancelled-locally-but-active-remotely rows.
		return nil, &apperrors.BillingCancellationError{
			ChargeID: chargeID,
			Upstream: upstream,
		}
	}

	now := time.Now()
	affected, err := s.subscriptions.MarkCancelled(ctx, shop, chargeID, now)
	if err != nil {
		// The external charge is already cancelled; reconciliation via the
		// billing event consumer will correct the local record.
		s.logger.Error().
			Err(err).
			Str("shop", shop).
			Str("charge_id", chargeID).
			Msg("External cancellation succeeded but local update failed")
		metrics.CancellationsTotal.WithLabelValues("local_update_failed").Inc()
		return nil, err
	}

	if affected == 0 {
		// No matching local record yet. The external cancellation already
		// succeeded, so this is a success, not an error.
		s.logger.Warn().
			Str("shop", shop).
			Str("charge_id", chargeID).
			Msg("Cancellation matched no local subscription rows")
	}

	if s.publishEvents {
		sub := &models.Subscription{
			ChargeID:  chargeID,
			Shop:      shop,
			Status:    models.SubscriptionStatusCancelled,
			UpdatedAt: now,
		}
		if err := s.publisher.PublishSubscriptionCancelled(ctx, sub, outcome.Test); err != nil {
			s.logger.Error().Err(err).Str("charge_id", chargeID).Msg("Failed to publish cancellation event")
		}
	}

	metrics.CancellationsTotal.WithLabelValues("success").Inc()

	s.logger.Info().
		Str("shop", shop).
		Str("charge_id", chargeID).
		Bool("test", outcome.Test).
		Int64("rows_updated", affected).
		Msg("Subscription cancelled")

	return &CancellationResult{
		Success:      true,
		Test:         outcome.Test,
		Subscription: outcome,
		RowsUpdated:  affected,
	}, nil
}

// HandleChargeActivated moves a pending subscription to active when the
// platform confirms the recurring charge. Re-delivery of the same event
// is a no-op.
func (s *BillingService) HandleChargeActivated(ctx context.Context, shop, chargeID string) error {
	current, err := s.subscriptions.Get(ctx, shop, chargeID)
	if errors.Is(err, apperrors.ErrNotFound) {
		// First sight of this charge: record it as active directly.
		return s.subscriptions.Upsert(ctx, &models.Subscription{
			ChargeID:  chargeID,
			Shop:      shop,
			Status:    models.SubscriptionStatusActive,
			UpdatedAt: time.Now(),
		})
	}
	if err != nil {
		return err
	}

	if current.Status == models.SubscriptionStatusActive {
		return nil
	}

	if err := lifecycle.CheckSubscription(current.Status, models.SubscriptionStatusActive); err != nil {
		return err
	}

	_, err = s.subscriptions.UpdateStatus(ctx, shop, chargeID, models.SubscriptionStatusActive, time.Now())
	return err
}

// HandleChargeCancelled reconciles a platform-side cancellation into
// the local store. This closes the window left when a cancel call
// crashed after the billing request, or when the merchant cancelled
// through the platform directly.
func (s *BillingService) HandleChargeCancelled(ctx context.Context, shop, chargeID string) error {
	affected, err := s.subscriptions.MarkCancelled(ctx, shop, chargeID, time.Now())
	if err != nil {
		return err
	}
	if affected == 0 {
		// Keep a terminal record so the local cache matches the platform.
		return s.subscriptions.Upsert(ctx, &models.Subscription{
			ChargeID:  chargeID,
			Shop:      shop,
			Status:    models.SubscriptionStatusCancelled,
			UpdatedAt: time.Now(),
		})
	}
	return nil
}

// HandleChargeDeclined cancels a pending subscription whose charge the
// platform declined.
func (s *BillingService) HandleChargeDeclined(ctx context.Context, shop, chargeID string) error {
	current, err := s.subscriptions.Get(ctx, shop, chargeID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if current.Status == models.SubscriptionStatusCancelled {
		return nil
	}

	if err := lifecycle.CheckSubscription(current.Status, models.SubscriptionStatusCancelled); err != nil {
		return err
	}

	_, err = s.subscriptions.UpdateStatus(ctx, shop, chargeID, models.SubscriptionStatusCancelled, time.Now())
	return err
}

// RecordPendingSubscription stores the local record when a merchant
// accepts a recurring charge, before the platform confirms it.
func (s *BillingService) RecordPendingSubscription(ctx context.Context, shop, chargeID string) error {
	if chargeID == "" {
		return apperrors.NewValidationError("subscription_id", "subscription id is required")
	}
	if shop == "" {
		return apperrors.NewValidationError("shop", "shop is required")
	}

	return s.subscriptions.Upsert(ctx, &models.Subscription{
		ChargeID:  chargeID,
		Shop:      shop,
		Status:    models.SubscriptionStatusPending,
		UpdatedAt: time.Now(),
	})
}
