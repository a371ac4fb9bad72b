package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/clients"
	"github.com/cartboost/cartboost-blocks-service/internal/events"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
)

func newBillingService(repo *fakeSubscriptionRepo, client *clients.MockBillingClient) *BillingService {
	return NewBillingService(repo, client, events.NoopPublisher{}, false, zerolog.Nop())
}

func TestCancelSubscriptionRequiresChargeID(t *testing.T) {
	svc := newBillingService(newFakeSubscriptionRepo(), clients.NewMockBillingClient())

	_, err := svc.CancelSubscription(context.Background(), "shop1.example.com", "", false)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "subscription_id", validationErr.Field)
}

func TestCancelSubscriptionRequiresShop(t *testing.T) {
	svc := newBillingService(newFakeSubscriptionRepo(), clients.NewMockBillingClient())

	_, err := svc.CancelSubscription(context.Background(), "", "sub_123", false)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "shop", validationErr.Field)
}

func TestCancelSubscriptionExternalBeforeLocal(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	repo.subs[subKey("shop1.example.com", "sub_123")] = &models.Subscription{
		ChargeID: "sub_123",
		Shop:     "shop1.example.com",
		Status:   models.SubscriptionStatusActive,
	}

	client := clients.NewMockBillingClient()
	client.Err = &clients.BillingAPIError{StatusCode: 422, Message: "charge is locked"}

	svc := newBillingService(repo, client)

	_, err := svc.CancelSubscription(context.Background(), "shop1.example.com", "sub_123", true)

	var billingErr *apperrors.BillingCancellationError
	require.ErrorAs(t, err, &billingErr)
	assert.Equal(t, "charge is locked", billingErr.Upstream)

	// External failure is a hard stop: local row must stay active.
	sub, getErr := repo.Get(context.Background(), "shop1.example.com", "sub_123")
	require.NoError(t, getErr)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Zero(t, repo.updateCalls)
}

func TestCancelSubscriptionSuccess(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	repo.subs[subKey("shop1.example.com", "sub_123")] = &models.Subscription{
		ChargeID: "sub_123",
		Shop:     "shop1.example.com",
		Status:   models.SubscriptionStatusActive,
	}

	client := clients.NewMockBillingClient()
	client.Outcome = &clients.CancellationOutcome{Status: "cancelled", Test: true}

	svc := newBillingService(repo, client)

	result, err := svc.CancelSubscription(context.Background(), "shop1.example.com", "sub_123", true)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Test, "test mode flag must be surfaced")
	assert.Equal(t, int64(1), result.RowsUpdated)
	require.NotNil(t, result.Subscription)
	assert.Equal(t, "sub_123", result.Subscription.ChargeID)

	sub, err := repo.Get(context.Background(), "shop1.example.com", "sub_123")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)

	require.Len(t, client.Calls, 1)
	assert.True(t, client.Calls[0].Prorate)
}

func TestCancelSubscriptionNoLocalRowIsSuccess(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newBillingService(repo, clients.NewMockBillingClient())

	result, err := svc.CancelSubscription(context.Background(), "shop1.example.com", "sub_missing", false)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int64(0), result.RowsUpdated)
}

func TestCancelSubscriptionIdempotent(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	repo.subs[subKey("shop1.example.com", "sub_123")] = &models.Subscription{
		ChargeID: "sub_123",
		Shop:     "shop1.example.com",
		Status:   models.SubscriptionStatusActive,
	}

	svc := newBillingService(repo, clients.NewMockBillingClient())

	_, err := svc.CancelSubscription(context.Background(), "shop1.example.com", "sub_123", false)
	require.NoError(t, err)

	// Second cancel of the same charge: external treats it as success,
	// local row is updated in place, no error either way.
	result, err := svc.CancelSubscription(context.Background(), "shop1.example.com", "sub_123", false)
	require.NoError(t, err)
	assert.True(t, result.Success)

	sub, err := repo.Get(context.Background(), "shop1.example.com", "sub_123")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
}

func TestHandleChargeActivated(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	repo.subs[subKey("shop1.example.com", "sub_123")] = &models.Subscription{
		ChargeID: "sub_123",
		Shop:     "shop1.example.com",
		Status:   models.SubscriptionStatusPending,
	}

	svc := newBillingService(repo, clients.NewMockBillingClient())

	require.NoError(t, svc.HandleChargeActivated(context.Background(), "shop1.example.com", "sub_123"))

	sub, err := repo.Get(context.Background(), "shop1.example.com", "sub_123")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)

	// Re-delivery is a no-op.
	require.NoError(t, svc.HandleChargeActivated(context.Background(), "shop1.example.com", "sub_123"))
}

func TestHandleChargeActivatedUnknownChargeCreatesRecord(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newBillingService(repo, clients.NewMockBillingClient())

	require.NoError(t, svc.HandleChargeActivated(context.Background(), "shop1.example.com", "sub_new"))

	sub, err := repo.Get(context.Background(), "shop1.example.com", "sub_new")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
}

func TestHandleChargeActivatedAfterCancellationFails(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	repo.subs[subKey("shop1.example.com", "sub_123")] = &models.Subscription{
		ChargeID: "sub_123",
		Shop:     "shop1.example.com",
		Status:   models.SubscriptionStatusCancelled,
	}

	svc := newBillingService(repo, clients.NewMockBillingClient())

	err := svc.HandleChargeActivated(context.Background(), "shop1.example.com", "sub_123")

	var transitionErr *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestHandleChargeCancelledReconcilesMissingRow(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newBillingService(repo, clients.NewMockBillingClient())

	require.NoError(t, svc.HandleChargeCancelled(context.Background(), "shop1.example.com", "sub_ext"))

	sub, err := repo.Get(context.Background(), "shop1.example.com", "sub_ext")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
}

func TestRecordPendingSubscription(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newBillingService(repo, clients.NewMockBillingClient())

	require.NoError(t, svc.RecordPendingSubscription(context.Background(), "shop1.example.com", "sub_123"))

	sub, err := repo.Get(context.Background(), "shop1.example.com", "sub_123")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusPending, sub.Status)
	assert.WithinDuration(t, time.Now(), sub.UpdatedAt, time.Minute)
}
