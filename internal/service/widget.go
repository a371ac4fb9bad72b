package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/clients"
	"github.com/cartboost/cartboost-blocks-service/internal/repository"
	"github.com/cartboost/cartboost-blocks-service/internal/rewards"
)

// defaultThresholds is served for shops that have not configured the
// widget yet: all tiers disabled, dollar symbol.
var defaultThresholds = rewards.Thresholds{CurrencySymbol: "$"}

// WidgetService resolves widget settings and evaluates progress bar
// state for a shop's cart.
type WidgetService struct {
	settings repository.WidgetSettingsRepository
	cart     clients.CartClient
	logger   zerolog.Logger
}

// NewWidgetService creates a new widget service.
func NewWidgetService(
	settings repository.WidgetSettingsRepository,
	cart clients.CartClient,
	logger zerolog.Logger,
) *WidgetService {
	return &WidgetService{
		settings: settings,
		cart:     cart,
		logger:   logger,
	}
}

// GetSettings returns a shop's widget thresholds, falling back to the
// defaults when the shop has none configured.
func (s *WidgetService) GetSettings(ctx context.Context, shop string) (*rewards.Thresholds, error) {
	if shop == "" {
		return nil, apperrors.NewValidationError("shop", "shop is required")
	}

	t, err := s.settings.Get(ctx, shop)
	if errors.Is(err, apperrors.ErrNotFound) {
		defaults := defaultThresholds
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateSettings stores a shop's widget thresholds. Thresholds must be
// non-negative and ascending where set.
func (s *WidgetService) UpdateSettings(ctx context.Context, shop string, t *rewards.Thresholds) error {
	if shop == "" {
		return apperrors.NewValidationError("shop", "shop is required")
	}
	if t.Shipping < 0 || t.Gift < 0 || t.Discount < 0 {
		return apperrors.NewValidationError("thresholds", "thresholds must be non-negative")
	}
	if t.Gift > 0 && t.Shipping > t.Gift {
		return apperrors.NewValidationError("gift_threshold", "gift threshold must not be below shipping threshold")
	}
	if t.Discount > 0 && t.Gift > t.Discount {
		return apperrors.NewValidationError("discount_threshold", "discount threshold must not be below gift threshold")
	}
	if t.CurrencySymbol == "" {
		t.CurrencySymbol = defaultThresholds.CurrencySymbol
	}

	return s.settings.Upsert(ctx, shop, t)
}

// EvaluateProgress computes the progress bar state for a cart total.
// When total is nil the live cart is fetched; a cart fetch failure is
// returned as UpstreamUnavailable so the handler can leave the
// shopper's display stale instead of showing an error.
func (s *WidgetService) EvaluateProgress(ctx context.Context, shop string, total *int64) (*rewards.Result, error) {
	thresholds, err := s.GetSettings(ctx, shop)
	if err != nil {
		return nil, err
	}

	cartTotal := int64(0)
	if total != nil {
		cartTotal = *total
	} else {
		snapshot, err := s.cart.GetCart(ctx, shop)
		if err != nil {
			return nil, err
		}
		cartTotal = snapshot.TotalPrice
	}

	result := rewards.Evaluate(cartTotal, *thresholds)
	return &result, nil
}
