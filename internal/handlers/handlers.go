package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/config"
	"github.com/cartboost/cartboost-blocks-service/internal/service"
)

// Handlers holds all HTTP handlers for the blocks service.
type Handlers struct {
	widgets   *service.WidgetService
	billing   *service.BillingService
	purchases *service.PurchaseService
	installs  *service.InstallService
	catalog   *service.CatalogService
	config    *config.Config
	logger    zerolog.Logger
}

// New creates a new handlers instance.
func New(
	widgets *service.WidgetService,
	billing *service.BillingService,
	purchases *service.PurchaseService,
	installs *service.InstallService,
	catalog *service.CatalogService,
	cfg *config.Config,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		widgets:   widgets,
		billing:   billing,
		purchases: purchases,
		installs:  installs,
		catalog:   catalog,
		config:    cfg,
		logger:    logger,
	}
}

// handleError maps the error taxonomy onto HTTP responses in one place.
func (h *Handlers) handleError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var transitionErr *apperrors.InvalidTransitionError
	var billingErr *apperrors.BillingCancellationError
	var upstreamErr *apperrors.UpstreamUnavailableError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": transitionErr.Error(),
		})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	case errors.As(err, &billingErr):
		// The upstream message is shown to the merchant verbatim so they
		// can retry with the platform's actual reason in front of them.
		c.JSON(http.StatusBadGateway, gin.H{
			"error":            "billing cancellation failed",
			"upstream_message": billingErr.Upstream,
			"charge_id":        billingErr.ChargeID,
		})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": upstreamErr.Error(),
		})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal error",
		})
	}
}
