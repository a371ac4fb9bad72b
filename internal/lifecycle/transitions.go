// Package lifecycle defines the allowed state transitions for purchases
// and subscriptions. Anything outside the tables fails with an
// InvalidTransitionError; states are never silently coerced.
package lifecycle

import (
	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
)

type purchaseTransition struct {
	From models.PurchaseStatus
	To   models.PurchaseStatus
}

type subscriptionTransition struct {
	From models.SubscriptionStatus
	To   models.SubscriptionStatus
}

var validPurchaseTransitions = map[purchaseTransition]bool{
	{models.PurchaseStatusPending, models.PurchaseStatusCompleted}:  true, // payment confirmed
	{models.PurchaseStatusPending, models.PurchaseStatusFailed}:     true, // payment failed
	{models.PurchaseStatusCompleted, models.PurchaseStatusRefunded}: true, // explicit refund
}

var validSubscriptionTransitions = map[subscriptionTransition]bool{
	{models.SubscriptionStatusPending, models.SubscriptionStatusActive}:    true, // platform confirmed the charge
	{models.SubscriptionStatusActive, models.SubscriptionStatusCancelled}:  true, // merchant or system cancellation
	{models.SubscriptionStatusPending, models.SubscriptionStatusCancelled}: true, // cancelled before activation
}

// CanTransitionPurchase reports whether a purchase may move between the
// given statuses.
func CanTransitionPurchase(from, to models.PurchaseStatus) bool {
	return validPurchaseTransitions[purchaseTransition{from, to}]
}

// CanTransitionSubscription reports whether a subscription may move
// between the given statuses. Cancelled is terminal.
func CanTransitionSubscription(from, to models.SubscriptionStatus) bool {
	return validSubscriptionTransitions[subscriptionTransition{from, to}]
}

// CheckPurchase returns an InvalidTransitionError when the purchase
// transition is not permitted.
func CheckPurchase(from, to models.PurchaseStatus) error {
	if !CanTransitionPurchase(from, to) {
		return &apperrors.InvalidTransitionError{
			Entity: "purchase",
			From:   string(from),
			To:     string(to),
		}
	}
	return nil
}

// CheckSubscription returns an InvalidTransitionError when the
// subscription transition is not permitted.
func CheckSubscription(from, to models.SubscriptionStatus) error {
	if !CanTransitionSubscription(from, to) {
		return &apperrors.InvalidTransitionError{
			Entity: "subscription",
			From:   string(from),
			To:     string(to),
		}
	}
	return nil
}
