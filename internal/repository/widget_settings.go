package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/rewards"
)

// WidgetSettingsRepository stores the per-shop progress bar thresholds
// handed to the widget at render time.
type WidgetSettingsRepository interface {
	Get(ctx context.Context, shop string) (*rewards.Thresholds, error)
	Upsert(ctx context.Context, shop string, t *rewards.Thresholds) error
}

// PostgresWidgetSettingsRepository implements WidgetSettingsRepository
// using PostgreSQL.
type PostgresWidgetSettingsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresWidgetSettingsRepository creates a new PostgreSQL widget
// settings repository.
func NewPostgresWidgetSettingsRepository(db *sql.DB, logger zerolog.Logger) *PostgresWidgetSettingsRepository {
	return &PostgresWidgetSettingsRepository{db: db, logger: logger}
}

var _ WidgetSettingsRepository = (*PostgresWidgetSettingsRepository)(nil)

// Get retrieves a shop's widget thresholds.
func (r *PostgresWidgetSettingsRepository) Get(ctx context.Context, shop string) (*rewards.Thresholds, error) {
	query := `
		SELECT shipping_threshold, gift_threshold, discount_threshold, currency_symbol
		FROM widget_settings
		WHERE shop = $1
	`

	var t rewards.Thresholds
	err := r.db.QueryRowContext(ctx, query, shop).Scan(
		&t.Shipping, &t.Gift, &t.Discount, &t.CurrencySymbol,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("shop", shop).Msg("Failed to fetch widget settings")
		return nil, err
	}
	return &t, nil
}

// Upsert stores a shop's widget thresholds.
func (r *PostgresWidgetSettingsRepository) Upsert(ctx context.Context, shop string, t *rewards.Thresholds) error {
	query := `
		INSERT INTO widget_settings (shop, shipping_threshold, gift_threshold, discount_threshold, currency_symbol, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (shop)
		DO UPDATE SET shipping_threshold = EXCLUDED.shipping_threshold,
		              gift_threshold = EXCLUDED.gift_threshold,
		              discount_threshold = EXCLUDED.discount_threshold,
		              currency_symbol = EXCLUDED.currency_symbol,
		              updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, shop, t.Shipping, t.Gift, t.Discount, t.CurrencySymbol, time.Now())
	if err != nil {
		r.logger.Error().Err(err).Str("shop", shop).Msg("Failed to upsert widget settings")
		return err
	}

	r.logger.Info().Str("shop", shop).Msg("Widget settings updated")
	return nil
}
