package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/config"
)

// BillingClient talks to the platform's recurring billing API.
type BillingClient interface {
	// CancelRecurringCharge cancels a recurring charge. The returned
	// outcome carries the platform's test-mode flag, which callers must
	// surface, never drop.
	CancelRecurringCharge(ctx context.Context, shop, chargeID string, prorate bool) (*CancellationOutcome, error)
}

// CancellationOutcome is the billing platform's view of a cancelled
// charge.
type CancellationOutcome struct {
	ChargeID    string `json:"charge_id"`
	Status      string `json:"status"`
	Test        bool   `json:"test"`
	CancelledOn string `json:"cancelled_on,omitempty"`
}

// BillingAPIError is returned when the billing platform rejects a
// request. The message is shown to the merchant verbatim.
type BillingAPIError struct {
	StatusCode int
	Message    string
}

func (e *BillingAPIError) Error() string {
	return fmt.Sprintf("billing API returned %d: %s", e.StatusCode, e.Message)
}

// HTTPBillingClient implements BillingClient over the platform's HTTP API.
type HTTPBillingClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPBillingClient creates a new HTTP-based billing client.
func NewHTTPBillingClient(cfg config.ServiceConfig, logger zerolog.Logger) *HTTPBillingClient {
	return &HTTPBillingClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

var _ BillingClient = (*HTTPBillingClient)(nil)

// CancelRecurringCharge cancels a recurring charge on the platform.
func (c *HTTPBillingClient) CancelRecurringCharge(ctx context.Context, shop, chargeID string, prorate bool) (*CancellationOutcome, error) {
	c.logger.Debug().
		Str("shop", shop).
		Str("charge_id", chargeID).
		Bool("prorate", prorate).
		Msg("Cancelling recurring charge")

	payload := struct {
		Shop    string `json:"shop"`
		Prorate bool   `json:"prorate"`
	}{Shop: shop, Prorate: prorate}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/recurring_charges/%s/cancel", c.baseURL, chargeID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("charge_id", chargeID).Msg("Billing request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		message := readErrorMessage(resp.Body)
		c.logger.Error().
			Str("charge_id", chargeID).
			Int("status_code", resp.StatusCode).
			Str("upstream_message", message).
			Msg("Billing cancellation rejected")
		return nil, &BillingAPIError{StatusCode: resp.StatusCode, Message: message}
	}

	var outcome CancellationOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return nil, err
	}
	if outcome.ChargeID == "" {
		outcome.ChargeID = chargeID
	}

	c.logger.Info().
		Str("charge_id", outcome.ChargeID).
		Str("status", outcome.Status).
		Bool("test", outcome.Test).
		Msg("Recurring charge cancelled")

	return &outcome, nil
}

func (c *HTTPBillingClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func readErrorMessage(body io.Reader) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "unreadable error response"
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return "no error detail provided"
}

// MockBillingClient is a scriptable implementation for tests.
type MockBillingClient struct {
	Outcome *CancellationOutcome
	Err     error
	Calls   []MockBillingCall
}

// MockBillingCall records the arguments of one cancel call.
type MockBillingCall struct {
	Shop     string
	ChargeID string
	Prorate  bool
}

// NewMockBillingClient creates a mock billing client that succeeds in
// test mode by default.
func NewMockBillingClient() *MockBillingClient {
	return &MockBillingClient{
		Outcome: &CancellationOutcome{Status: "cancelled", Test: true},
	}
}

func (m *MockBillingClient) CancelRecurringCharge(ctx context.Context, shop, chargeID string, prorate bool) (*CancellationOutcome, error) {
	m.Calls = append(m.Calls, MockBillingCall{Shop: shop, ChargeID: chargeID, Prorate: prorate})
	if m.Err != nil {
		return nil, m.Err
	}
	outcome := *m.Outcome
	if outcome.ChargeID == "" {
		outcome.ChargeID = chargeID
	}
	return &outcome, nil
}
