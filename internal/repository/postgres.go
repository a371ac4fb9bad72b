package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
)

// PostgresPurchaseRepository implements PurchaseRepository using PostgreSQL.
type PostgresPurchaseRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresPurchaseRepository creates a new PostgreSQL purchase repository.
func NewPostgresPurchaseRepository(db *sql.DB, logger zerolog.Logger) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{db: db, logger: logger}
}

var _ PurchaseRepository = (*PostgresPurchaseRepository)(nil)

const purchaseColumns = `id, shop, block_id, block_name, price_amount, price_currency, status, email, created_at, updated_at`

// Create inserts a new purchase row.
func (r *PostgresPurchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	r.logger.Debug().Str("purchase_id", p.ID).Str("shop", p.Shop).Msg("Creating purchase")

	query := `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Shop, p.BlockID, p.BlockName,
		p.Price.Amount, p.Price.Currency,
		p.Status, p.Email, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("purchase_id", p.ID).Msg("Failed to create purchase")
		return err
	}

	r.logger.Info().Str("purchase_id", p.ID).Str("shop", p.Shop).Str("block_id", p.BlockID).Msg("Purchase created")
	return nil
}

// GetByID retrieves a purchase by its unique identifier.
func (r *PostgresPurchaseRepository) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	r.logger.Debug().Str("purchase_id", id).Msg("Fetching purchase by ID")

	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`

	p, err := scanPurchase(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("purchase_id", id).Msg("Failed to fetch purchase")
		return nil, err
	}

	return p, nil
}

// ListByShop retrieves all purchases for a shop, newest first.
func (r *PostgresPurchaseRepository) ListByShop(ctx context.Context, shop string) ([]*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE shop = $1 ORDER BY created_at DESC`
	return r.queryPurchases(ctx, query, shop)
}

// ListCompletedByShop retrieves the purchases that entitle a shop to
// blocks.
func (r *PostgresPurchaseRepository) ListCompletedByShop(ctx context.Context, shop string) ([]*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE shop = $1 AND status = $2 ORDER BY created_at DESC`
	return r.queryPurchases(ctx, query, shop, models.PurchaseStatusCompleted)
}

// ListShopsWithCompletedPurchases returns every shop holding at least
// one completed purchase. Used by the deploy webhook to pick the shops
// that need a block refresh.
func (r *PostgresPurchaseRepository) ListShopsWithCompletedPurchases(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT shop FROM purchases WHERE status = $1 ORDER BY shop`,
		models.PurchaseStatusCompleted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shops []string
	for rows.Next() {
		var shop string
		if err := rows.Scan(&shop); err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}
	return shops, rows.Err()
}

// UpdateStatus sets a purchase status and returns the updated row.
// Transition validity is checked by the service layer before this runs.
func (r *PostgresPurchaseRepository) UpdateStatus(ctx context.Context, id string, status models.PurchaseStatus) (*models.Purchase, error) {
	r.logger.Debug().Str("purchase_id", id).Str("new_status", string(status)).Msg("Updating purchase status")

	query := `
		UPDATE purchases
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + purchaseColumns

	p, err := scanPurchase(r.db.QueryRowContext(ctx, query, id, status, time.Now()))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("purchase_id", id).Msg("Failed to update purchase status")
		return nil, err
	}

	r.logger.Info().Str("purchase_id", id).Str("new_status", string(status)).Msg("Purchase status updated")
	return p, nil
}

func (r *PostgresPurchaseRepository) queryPurchases(ctx context.Context, query string, args ...interface{}) ([]*models.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]*models.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var p models.Purchase
	var email sql.NullString

	err := row.Scan(
		&p.ID,
		&p.Shop,
		&p.BlockID,
		&p.BlockName,
		&p.Price.Amount,
		&p.Price.Currency,
		&p.Status,
		&email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		p.Email = email.String
	}
	return &p, nil
}

// PostgresSubscriptionRepository implements SubscriptionRepository
// using PostgreSQL. Rows are keyed (shop, charge_id).
type PostgresSubscriptionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresSubscriptionRepository creates a new PostgreSQL
// subscription repository.
func NewPostgresSubscriptionRepository(db *sql.DB, logger zerolog.Logger) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db, logger: logger}
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)

// Upsert inserts a subscription row or refreshes its status.
func (r *PostgresSubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	r.logger.Debug().Str("charge_id", sub.ChargeID).Str("shop", sub.Shop).Msg("Upserting subscription")

	query := `
		INSERT INTO subscriptions (charge_id, shop, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shop, charge_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, sub.ChargeID, sub.Shop, sub.Status, sub.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("charge_id", sub.ChargeID).Msg("Failed to upsert subscription")
		return err
	}
	return nil
}

// Get retrieves the local record for a charge.
func (r *PostgresSubscriptionRepository) Get(ctx context.Context, shop, chargeID string) (*models.Subscription, error) {
	query := `SELECT charge_id, shop, status, updated_at FROM subscriptions WHERE shop = $1 AND charge_id = $2`

	var sub models.Subscription
	err := r.db.QueryRowContext(ctx, query, shop, chargeID).Scan(
		&sub.ChargeID, &sub.Shop, &sub.Status, &sub.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// MarkCancelled bulk-updates matching rows to cancelled. Zero affected
// rows is reported, not treated as an error; the caller decides.
func (r *PostgresSubscriptionRepository) MarkCancelled(ctx context.Context, shop, chargeID string, at time.Time) (int64, error) {
	return r.UpdateStatus(ctx, shop, chargeID, models.SubscriptionStatusCancelled, at)
}

// UpdateStatus bulk-updates every row matching (shop, chargeID) and
// returns the affected-row count.
func (r *PostgresSubscriptionRepository) UpdateStatus(ctx context.Context, shop, chargeID string, status models.SubscriptionStatus, at time.Time) (int64, error) {
	r.logger.Debug().
		Str("charge_id", chargeID).
		Str("shop", shop).
		Str("new_status", string(status)).
		Msg("Updating subscription status")

	query := `UPDATE subscriptions SET status = $3, updated_at = $4 WHERE shop = $1 AND charge_id = $2`

	result, err := r.db.ExecContext(ctx, query, shop, chargeID, status, at)
	if err != nil {
		r.logger.Error().Err(err).Str("charge_id", chargeID).Msg("Failed to update subscription status")
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	r.logger.Info().
		Str("charge_id", chargeID).
		Str("shop", shop).
		Str("new_status", string(status)).
		Int64("rows_affected", affected).
		Msg("Subscription status updated")

	return affected, nil
}
