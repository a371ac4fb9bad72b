package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/clients"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
	"github.com/cartboost/cartboost-blocks-service/internal/rewards"
)

func newWidgetService(settings *fakeSettingsRepo, cart *clients.MockCartClient) *WidgetService {
	return NewWidgetService(settings, cart, zerolog.Nop())
}

func int64Ptr(v int64) *int64 { return &v }

func TestGetSettingsDefaultsWhenUnconfigured(t *testing.T) {
	svc := newWidgetService(newFakeSettingsRepo(), &clients.MockCartClient{})

	settings, err := svc.GetSettings(context.Background(), "shop1.example.com")
	require.NoError(t, err)

	assert.Zero(t, settings.Shipping)
	assert.Zero(t, settings.Gift)
	assert.Zero(t, settings.Discount)
	assert.Equal(t, "$", settings.CurrencySymbol)
}

func TestUpdateSettingsRoundTrip(t *testing.T) {
	repo := newFakeSettingsRepo()
	svc := newWidgetService(repo, &clients.MockCartClient{})

	err := svc.UpdateSettings(context.Background(), "shop1.example.com", &rewards.Thresholds{
		Shipping: 5000,
		Gift:     7500,
		Discount: 10000,
	})
	require.NoError(t, err)

	settings, err := svc.GetSettings(context.Background(), "shop1.example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), settings.Shipping)
	assert.Equal(t, "$", settings.CurrencySymbol, "blank symbol defaults to dollar")
}

func TestUpdateSettingsRejectsNegativeThresholds(t *testing.T) {
	svc := newWidgetService(newFakeSettingsRepo(), &clients.MockCartClient{})

	err := svc.UpdateSettings(context.Background(), "shop1.example.com", &rewards.Thresholds{Shipping: -1})

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "thresholds", validationErr.Field)
}

func TestUpdateSettingsRejectsDescendingTiers(t *testing.T) {
	svc := newWidgetService(newFakeSettingsRepo(), &clients.MockCartClient{})

	err := svc.UpdateSettings(context.Background(), "shop1.example.com", &rewards.Thresholds{
		Shipping: 7500,
		Gift:     5000,
	})

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "gift_threshold", validationErr.Field)
}

func TestEvaluateProgressWithExplicitTotal(t *testing.T) {
	repo := newFakeSettingsRepo()
	svc := newWidgetService(repo, &clients.MockCartClient{})

	err := svc.UpdateSettings(context.Background(), "shop1.example.com", &rewards.Thresholds{Shipping: 5000})
	require.NoError(t, err)

	result, err := svc.EvaluateProgress(context.Background(), "shop1.example.com", int64Ptr(2500))
	require.NoError(t, err)

	assert.Equal(t, 50, result.ProgressPercent)
	assert.Equal(t, "Add $25.00 more for free shipping", result.Message)
}

func TestEvaluateProgressFetchesCartWhenNoTotal(t *testing.T) {
	repo := newFakeSettingsRepo()
	cart := &clients.MockCartClient{Snapshot: &models.CartSnapshot{TotalPrice: 5000}}
	svc := newWidgetService(repo, cart)

	err := svc.UpdateSettings(context.Background(), "shop1.example.com", &rewards.Thresholds{
		Shipping: 5000,
		Gift:     7500,
	})
	require.NoError(t, err)

	result, err := svc.EvaluateProgress(context.Background(), "shop1.example.com", nil)
	require.NoError(t, err)

	assert.Equal(t, 100, result.ProgressPercent)
	assert.Equal(t, "Free shipping unlocked! Add $25.00 more for a free gift", result.Message)
}

func TestEvaluateProgressSurfacesCartFailure(t *testing.T) {
	cart := &clients.MockCartClient{
		Err: &apperrors.UpstreamUnavailableError{Upstream: "cart"},
	}
	svc := newWidgetService(newFakeSettingsRepo(), cart)

	_, err := svc.EvaluateProgress(context.Background(), "shop1.example.com", nil)

	var upstreamErr *apperrors.UpstreamUnavailableError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "cart", upstreamErr.Upstream)
}

func TestEvaluateProgressRequiresShop(t *testing.T) {
	svc := newWidgetService(newFakeSettingsRepo(), &clients.MockCartClient{})

	_, err := svc.EvaluateProgress(context.Background(), "", int64Ptr(0))

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
}
