package repository

import (
	"context"
	"time"

	"github.com/cartboost/cartboost-blocks-service/internal/models"
)

// PurchaseRepository stores block purchases. Purchases are never
// deleted; the audit trail is the row history of status updates.
type PurchaseRepository interface {
	Create(ctx context.Context, p *models.Purchase) error
	GetByID(ctx context.Context, id string) (*models.Purchase, error)
	ListByShop(ctx context.Context, shop string) ([]*models.Purchase, error)
	ListCompletedByShop(ctx context.Context, shop string) ([]*models.Purchase, error)
	ListShopsWithCompletedPurchases(ctx context.Context) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status models.PurchaseStatus) (*models.Purchase, error)
}

// SubscriptionRepository stores the local cache of recurring charges.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
	Get(ctx context.Context, shop, chargeID string) (*models.Subscription, error)

	// MarkCancelled bulk-updates every row matching (shop, chargeID) to
	// cancelled with the given timestamp and returns the number of rows
	// affected. Zero rows is not an error: the external cancellation may
	// land before the local record exists.
	MarkCancelled(ctx context.Context, shop, chargeID string, at time.Time) (int64, error)

	UpdateStatus(ctx context.Context, shop, chargeID string, status models.SubscriptionStatus, at time.Time) (int64, error)
}

// CatalogSource provides the block catalog. Primary is the database;
// a static sample catalog serves as the degraded-mode fallback.
type CatalogSource interface {
	ListBlocks(ctx context.Context) ([]*models.Block, error)
	GetBlock(ctx context.Context, id string) (*models.Block, error)
}

// EntitlementCache caches the derived per-shop block entitlement set
// and the block catalog.
type EntitlementCache interface {
	GetShopBlocks(ctx context.Context, shop string) ([]string, error)
	SetShopBlocks(ctx context.Context, shop string, blockIDs []string) error
	InvalidateShop(ctx context.Context, shop string) error
	GetCatalog(ctx context.Context) ([]*models.Block, error)
	SetCatalog(ctx context.Context, blocks []*models.Block) error
}
