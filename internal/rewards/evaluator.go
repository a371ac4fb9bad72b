// Package rewards computes the cart progress bar state: how far the
// shopper is from the next reward tier and what the bar should say.
package rewards

import "fmt"

// Thresholds is the widget configuration attached at render time.
// Amounts are minor currency units; a threshold of zero disables that
// tier. Immutable for the widget's lifetime.
type Thresholds struct {
	Shipping       int64  `json:"shipping_threshold"`
	Gift           int64  `json:"gift_threshold"`
	Discount       int64  `json:"discount_threshold"`
	CurrencySymbol string `json:"currency_symbol"`
}

// Result is the derived display state. Recomputed on every evaluation,
// never persisted.
type Result struct {
	ProgressPercent int    `json:"progress_percent"`
	Message         string `json:"message"`
}

// tier pairs an unlock threshold with the message shown while the cart
// is still below it. Tiers are evaluated top to bottom, first match
// wins, which keeps the tie-break order explicit.
type tier struct {
	threshold func(Thresholds) int64
	message   func(currency string, remaining int64) string
}

var tiers = []tier{
	{
		threshold: func(t Thresholds) int64 { return t.Shipping },
		message: func(currency string, remaining int64) string {
			return fmt.Sprintf("Add %s more for free shipping", formatAmount(currency, remaining))
		},
	},
	{
		threshold: func(t Thresholds) int64 { return t.Gift },
		message: func(currency string, remaining int64) string {
			return fmt.Sprintf("Free shipping unlocked! Add %s more for a free gift", formatAmount(currency, remaining))
		},
	},
	{
		threshold: func(t Thresholds) int64 { return t.Discount },
		message: func(currency string, remaining int64) string {
			return fmt.Sprintf("You have free shipping and gift! Add %s more to unlock a discount", formatAmount(currency, remaining))
		},
	},
}

const allUnlockedMessage = "Congratulations! You have unlocked all rewards."

// Evaluate computes the progress bar state for a cart total. Pure
// function: negative totals are clamped to zero, disabled tiers
// (threshold <= 0) are treated as already satisfied.
func Evaluate(total int64, t Thresholds) Result {
	if total < 0 {
		total = 0
	}

	result := Result{
		ProgressPercent: progressPercent(total, t.Shipping),
		Message:         allUnlockedMessage,
	}

	for _, tier := range tiers {
		threshold := tier.threshold(t)
		if threshold > 0 && total < threshold {
			result.Message = tier.message(t.CurrencySymbol, threshold-total)
			break
		}
	}

	return result
}

// progressPercent is a display value only; it tracks the free shipping
// threshold and does not gate tier messages.
func progressPercent(total, shippingThreshold int64) int {
	if shippingThreshold <= 0 {
		return 0
	}
	percent := total * 100 / shippingThreshold
	if percent > 100 {
		percent = 100
	}
	return int(percent)
}

func formatAmount(currency string, minorUnits int64) string {
	return fmt.Sprintf("%s%d.%02d", currency, minorUnits/100, minorUnits%100)
}
