package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/config"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
)

// CartClient fetches the current cart state from the storefront
// platform. Snapshots are fetched fresh per evaluation, never cached.
type CartClient interface {
	GetCart(ctx context.Context, shop string) (*models.CartSnapshot, error)
}

// HTTPCartClient implements CartClient against the platform's cart
// endpoint.
type HTTPCartClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPCartClient creates a new HTTP-based cart client.
func NewHTTPCartClient(cfg config.ServiceConfig, logger zerolog.Logger) *HTTPCartClient {
	return &HTTPCartClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

var _ CartClient = (*HTTPCartClient)(nil)

// GetCart fetches the live cart snapshot for a shop.
func (c *HTTPCartClient) GetCart(ctx context.Context, shop string) (*models.CartSnapshot, error) {
	url := fmt.Sprintf("%s/shops/%s/cart.json", c.baseURL, shop)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("shop", shop).Msg("Cart fetch failed")
		return nil, &apperrors.UpstreamUnavailableError{Upstream: "cart source", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("cart source returned status %d", resp.StatusCode)
		c.logger.Warn().Err(err).Str("shop", shop).Msg("Cart fetch rejected")
		return nil, &apperrors.UpstreamUnavailableError{Upstream: "cart source", Err: err}
	}

	var snapshot models.CartSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// MockCartClient returns a fixed snapshot for tests.
type MockCartClient struct {
	Snapshot *models.CartSnapshot
	Err      error
}

func (m *MockCartClient) GetCart(ctx context.Context, shop string) (*models.CartSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Snapshot, nil
}
