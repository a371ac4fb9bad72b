package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
)

// PostgresCatalogSource serves the block catalog from the database.
type PostgresCatalogSource struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresCatalogSource creates a database-backed catalog source.
func NewPostgresCatalogSource(db *sql.DB, logger zerolog.Logger) *PostgresCatalogSource {
	return &PostgresCatalogSource{db: db, logger: logger}
}

var _ CatalogSource = (*PostgresCatalogSource)(nil)

const blockColumns = `id, name, description, price_amount, price_currency, preview_url`

// ListBlocks returns every block in the catalog.
func (s *PostgresCatalogSource) ListBlocks(ctx context.Context) ([]*models.Block, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+blockColumns+` FROM blocks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*models.Block, 0)
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// GetBlock returns a single block by ID.
func (s *PostgresCatalogSource) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	b, err := scanBlock(s.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		s.logger.Error().Err(err).Str("block_id", id).Msg("Failed to fetch block")
		return nil, err
	}
	return b, nil
}

func scanBlock(row rowScanner) (*models.Block, error) {
	var b models.Block
	var description, previewURL sql.NullString

	err := row.Scan(&b.ID, &b.Name, &description, &b.Price.Amount, &b.Price.Currency, &previewURL)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		b.Description = description.String
	}
	if previewURL.Valid {
		b.PreviewURL = previewURL.String
	}
	return &b, nil
}

// SampleCatalog is the static degraded-mode catalog served when the
// primary store is unreachable. It keeps the storefront browsable; it
// is never written to.
type SampleCatalog struct{}

// NewSampleCatalog creates the static fallback catalog source.
func NewSampleCatalog() *SampleCatalog {
	return &SampleCatalog{}
}

var _ CatalogSource = (*SampleCatalog)(nil)

var sampleBlocks = []*models.Block{
	{
		ID:          "cart-progress-bar",
		Name:        "Cart Progress Bar",
		Description: "Free shipping, gift and discount progress bar for the cart drawer.",
		Price:       models.Money{Amount: 1900, Currency: "USD"},
	},
	{
		ID:          "announcement-ticker",
		Name:        "Announcement Ticker",
		Description: "Scrolling announcement strip for promotions.",
		Price:       models.Money{Amount: 900, Currency: "USD"},
	},
	{
		ID:          "trust-badges",
		Name:        "Trust Badges",
		Description: "Payment and shipping trust badges under the buy button.",
		Price:       models.Money{Amount: 500, Currency: "USD"},
	},
}

// ListBlocks returns the static sample blocks.
func (s *SampleCatalog) ListBlocks(ctx context.Context) ([]*models.Block, error) {
	out := make([]*models.Block, len(sampleBlocks))
	copy(out, sampleBlocks)
	return out, nil
}

// GetBlock returns a sample block by ID.
func (s *SampleCatalog) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	for _, b := range sampleBlocks {
		if b.ID == id {
			blockCopy := *b
			return &blockCopy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}
