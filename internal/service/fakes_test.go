package service

import (
	"context"
	"sort"
	"time"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
	"github.com/cartboost/cartboost-blocks-service/internal/rewards"
)

// fakeSubscriptionRepo is an in-memory SubscriptionRepository.
type fakeSubscriptionRepo struct {
	subs        map[string]*models.Subscription
	updateCalls int
	err         error
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[string]*models.Subscription)}
}

func subKey(shop, chargeID string) string {
	return shop + "|" + chargeID
}

func (f *fakeSubscriptionRepo) Upsert(ctx context.Context, sub *models.Subscription) error {
	if f.err != nil {
		return f.err
	}
	subCopy := *sub
	f.subs[subKey(sub.Shop, sub.ChargeID)] = &subCopy
	return nil
}

func (f *fakeSubscriptionRepo) Get(ctx context.Context, shop, chargeID string) (*models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[subKey(shop, chargeID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	subCopy := *sub
	return &subCopy, nil
}

func (f *fakeSubscriptionRepo) MarkCancelled(ctx context.Context, shop, chargeID string, at time.Time) (int64, error) {
	return f.UpdateStatus(ctx, shop, chargeID, models.SubscriptionStatusCancelled, at)
}

func (f *fakeSubscriptionRepo) UpdateStatus(ctx context.Context, shop, chargeID string, status models.SubscriptionStatus, at time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.updateCalls++
	sub, ok := f.subs[subKey(shop, chargeID)]
	if !ok {
		return 0, nil
	}
	sub.Status = status
	sub.UpdatedAt = at
	return 1, nil
}

// fakePurchaseRepo is an in-memory PurchaseRepository.
type fakePurchaseRepo struct {
	purchases map[string]*models.Purchase
	err       error
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: make(map[string]*models.Purchase)}
}

func (f *fakePurchaseRepo) Create(ctx context.Context, p *models.Purchase) error {
	if f.err != nil {
		return f.err
	}
	pCopy := *p
	f.purchases[p.ID] = &pCopy
	return nil
}

func (f *fakePurchaseRepo) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.purchases[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	pCopy := *p
	return &pCopy, nil
}

func (f *fakePurchaseRepo) ListByShop(ctx context.Context, shop string) ([]*models.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Purchase, 0)
	for _, p := range f.purchases {
		if p.Shop == shop {
			pCopy := *p
			out = append(out, &pCopy)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) ListCompletedByShop(ctx context.Context, shop string) ([]*models.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Purchase, 0)
	for _, p := range f.purchases {
		if p.Shop == shop && p.Status == models.PurchaseStatusCompleted {
			pCopy := *p
			out = append(out, &pCopy)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) ListShopsWithCompletedPurchases(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := make(map[string]bool)
	shops := make([]string, 0)
	for _, p := range f.purchases {
		if p.Status == models.PurchaseStatusCompleted && !seen[p.Shop] {
			seen[p.Shop] = true
			shops = append(shops, p.Shop)
		}
	}
	sort.Strings(shops)
	return shops, nil
}

func (f *fakePurchaseRepo) UpdateStatus(ctx context.Context, id string, status models.PurchaseStatus) (*models.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.purchases[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	pCopy := *p
	return &pCopy, nil
}

// fakeEntitlementCache is an in-memory EntitlementCache.
type fakeEntitlementCache struct {
	shopBlocks map[string][]string
	catalog    []*models.Block
}

func newFakeEntitlementCache() *fakeEntitlementCache {
	return &fakeEntitlementCache{shopBlocks: make(map[string][]string)}
}

func (f *fakeEntitlementCache) GetShopBlocks(ctx context.Context, shop string) ([]string, error) {
	return f.shopBlocks[shop], nil
}

func (f *fakeEntitlementCache) SetShopBlocks(ctx context.Context, shop string, blockIDs []string) error {
	f.shopBlocks[shop] = append([]string(nil), blockIDs...)
	return nil
}

func (f *fakeEntitlementCache) InvalidateShop(ctx context.Context, shop string) error {
	delete(f.shopBlocks, shop)
	return nil
}

func (f *fakeEntitlementCache) GetCatalog(ctx context.Context) ([]*models.Block, error) {
	return f.catalog, nil
}

func (f *fakeEntitlementCache) SetCatalog(ctx context.Context, blocks []*models.Block) error {
	f.catalog = blocks
	return nil
}

// fakeCatalogSource is a scriptable CatalogSource.
type fakeCatalogSource struct {
	blocks []*models.Block
	err    error
}

func (f *fakeCatalogSource) ListBlocks(ctx context.Context) ([]*models.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.blocks, nil
}

func (f *fakeCatalogSource) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.blocks {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// fakeSettingsRepo is an in-memory WidgetSettingsRepository.
type fakeSettingsRepo struct {
	settings map[string]*rewards.Thresholds
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[string]*rewards.Thresholds)}
}

func (f *fakeSettingsRepo) Get(ctx context.Context, shop string) (*rewards.Thresholds, error) {
	t, ok := f.settings[shop]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	tCopy := *t
	return &tCopy, nil
}

func (f *fakeSettingsRepo) Upsert(ctx context.Context, shop string, t *rewards.Thresholds) error {
	tCopy := *t
	f.settings[shop] = &tCopy
	return nil
}
