package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/clients"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
	"github.com/cartboost/cartboost-blocks-service/internal/rewards"
	"github.com/cartboost/cartboost-blocks-service/internal/service"
)

// stubSettingsRepo serves one fixed thresholds row for every shop.
type stubSettingsRepo struct {
	thresholds *rewards.Thresholds
}

func (s stubSettingsRepo) Get(ctx context.Context, shop string) (*rewards.Thresholds, error) {
	if s.thresholds == nil {
		return nil, apperrors.ErrNotFound
	}
	return s.thresholds, nil
}

func (s stubSettingsRepo) Upsert(ctx context.Context, shop string, t *rewards.Thresholds) error {
	return nil
}

func newWidgetHandlers(settings *rewards.Thresholds, cart clients.CartClient) *Handlers {
	widgets := service.NewWidgetService(stubSettingsRepo{thresholds: settings}, cart, zerolog.Nop())
	return &Handlers{
		widgets: widgets,
		logger:  zerolog.Nop(),
	}
}

func getProgress(h *Handlers, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)

	h.GetWidgetProgress(c)
	c.Writer.WriteHeaderNow()
	return w
}

func TestGetWidgetProgressWithTotal(t *testing.T) {
	h := newWidgetHandlers(
		&rewards.Thresholds{Shipping: 5000, CurrencySymbol: "$"},
		&clients.MockCartClient{},
	)

	w := getProgress(h, "/api/v1/widget/progress?shop=shop1.example.com&total=2500")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp rewards.Result
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.ProgressPercent != 50 {
		t.Errorf("Expected 50 percent progress, got %d", resp.ProgressPercent)
	}

	if resp.Message != "Add $25.00 more for free shipping" {
		t.Errorf("Unexpected message: %q", resp.Message)
	}
}

func TestGetWidgetProgressRejectsNegativeTotal(t *testing.T) {
	h := newWidgetHandlers(&rewards.Thresholds{Shipping: 5000}, &clients.MockCartClient{})

	w := getProgress(h, "/api/v1/widget/progress?shop=shop1.example.com&total=-1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetWidgetProgressRejectsMalformedTotal(t *testing.T) {
	h := newWidgetHandlers(&rewards.Thresholds{Shipping: 5000}, &clients.MockCartClient{})

	w := getProgress(h, "/api/v1/widget/progress?shop=shop1.example.com&total=12.50")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetWidgetProgressFetchesCart(t *testing.T) {
	cart := &clients.MockCartClient{Snapshot: &models.CartSnapshot{TotalPrice: 5000}}
	h := newWidgetHandlers(&rewards.Thresholds{Shipping: 5000, CurrencySymbol: "$"}, cart)

	w := getProgress(h, "/api/v1/widget/progress?shop=shop1.example.com")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp rewards.Result
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.ProgressPercent != 100 {
		t.Errorf("Expected 100 percent progress, got %d", resp.ProgressPercent)
	}
}

func TestGetWidgetProgressCartFailureAnswersNoContent(t *testing.T) {
	cart := &clients.MockCartClient{
		Err: &apperrors.UpstreamUnavailableError{Upstream: "cart"},
	}
	h := newWidgetHandlers(&rewards.Thresholds{Shipping: 5000}, cart)

	w := getProgress(h, "/api/v1/widget/progress?shop=shop1.example.com")

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}

	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %s", w.Body.String())
	}
}

func TestGetWidgetSettingsDefaults(t *testing.T) {
	h := newWidgetHandlers(nil, &clients.MockCartClient{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/widget/settings?shop=shop1.example.com", nil)

	h.GetWidgetSettings(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp rewards.Thresholds
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.CurrencySymbol != "$" {
		t.Errorf("Expected default currency symbol, got %q", resp.CurrencySymbol)
	}
}
