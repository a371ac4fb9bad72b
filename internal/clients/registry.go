package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/config"
)

// RegistryClient registers a shop's entitled block set with the
// storefront block registry. The registry treats registration as a
// replace, so repeating a call with the same set is a no-op in effect.
type RegistryClient interface {
	RegisterBlocks(ctx context.Context, shop string, blockIDs []string) error
}

// HTTPRegistryClient implements RegistryClient over HTTP.
type HTTPRegistryClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPRegistryClient creates a new HTTP-based registry client.
func NewHTTPRegistryClient(cfg config.ServiceConfig, logger zerolog.Logger) *HTTPRegistryClient {
	return &HTTPRegistryClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

var _ RegistryClient = (*HTTPRegistryClient)(nil)

// RegisterBlocks replaces the shop's registered block set.
func (c *HTTPRegistryClient) RegisterBlocks(ctx context.Context, shop string, blockIDs []string) error {
	// Stable ordering keeps repeated registrations byte-identical.
	sorted := append([]string(nil), blockIDs...)
	sort.Strings(sorted)

	c.logger.Debug().Str("shop", shop).Int("block_count", len(sorted)).Msg("Registering blocks")

	payload := struct {
		Shop   string   `json:"shop"`
		Blocks []string `json:"blocks"`
	}{Shop: shop, Blocks: sorted}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/shops/%s/blocks", c.baseURL, shop)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("shop", shop).Msg("Registry request failed")
		return &apperrors.UpstreamUnavailableError{Upstream: "block registry", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		err := fmt.Errorf("registry returned status %d", resp.StatusCode)
		c.logger.Error().Err(err).Str("shop", shop).Msg("Registry rejected registration")
		return &apperrors.UpstreamUnavailableError{Upstream: "block registry", Err: err}
	}

	c.logger.Info().Str("shop", shop).Int("block_count", len(sorted)).Msg("Blocks registered")
	return nil
}

// MockRegistryClient records registrations for tests.
type MockRegistryClient struct {
	Registered map[string][]string
	Calls      int
	Err        error
}

// NewMockRegistryClient creates a mock registry client.
func NewMockRegistryClient() *MockRegistryClient {
	return &MockRegistryClient{
		Registered: make(map[string][]string),
	}
}

func (m *MockRegistryClient) RegisterBlocks(ctx context.Context, shop string, blockIDs []string) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	sorted := append([]string(nil), blockIDs...)
	sort.Strings(sorted)
	m.Registered[shop] = sorted
	return nil
}
