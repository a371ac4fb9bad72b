package models

import "time"

// Money is a monetary amount in minor currency units (cents).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PurchaseStatus is the lifecycle state of a one-time block purchase.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
)

// SubscriptionStatus is the lifecycle state of a recurring charge.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Purchase records a merchant's one-time acquisition of a theme block.
// Rows are never deleted; state changes are status transitions only.
type Purchase struct {
	ID        string         `json:"id"`
	Shop      string         `json:"shop"`
	BlockID   string         `json:"block_id"`
	BlockName string         `json:"block_name"`
	Price     Money          `json:"price"`
	Status    PurchaseStatus `json:"status"`
	Email     string         `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Subscription is the local record of a recurring billing agreement.
// The billing platform is the source of truth; this row is a cache
// that must stay consistent with it.
type Subscription struct {
	ChargeID  string             `json:"charge_id"`
	Shop      string             `json:"shop"`
	Status    SubscriptionStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Block is an installable storefront UI component a merchant can buy.
type Block struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// CartSnapshot is the read-only cart state fetched from the storefront
// platform. Fetched fresh per evaluation, never cached.
type CartSnapshot struct {
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency,omitempty"`
}
