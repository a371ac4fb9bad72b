package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/config"
	"github.com/cartboost/cartboost-blocks-service/internal/handlers"
)

// Server wraps the gin router and the underlying http.Server.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	logger   zerolog.Logger
	httpSrv  *http.Server
}

// New creates the HTTP server and registers all routes.
func New(h *handlers.Handlers, cfg *config.Config, logger zerolog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		logger:   logger,
	}

	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET("/version", s.handlers.Version)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/webhooks/deploy", s.handlers.DeployWebhook)

	v1 := s.router.Group("/api/v1")
	{
		// Storefront widget surface.
		v1.GET("/widget/settings", s.handlers.GetWidgetSettings)
		v1.GET("/widget/progress", s.handlers.GetWidgetProgress)

		// Block catalog.
		v1.GET("/blocks", s.handlers.ListBlocks)
		v1.GET("/blocks/:id", s.handlers.GetBlock)

		// Purchase lifecycle.
		v1.POST("/purchases", s.handlers.CreatePurchase)
		v1.GET("/purchases/:id", s.handlers.GetPurchase)

		// Subscription lifecycle.
		v1.POST("/subscriptions", s.handlers.RecordSubscription)
		v1.POST("/subscriptions/:id/cancel", s.handlers.CancelSubscription)

		// Shop block installation.
		v1.POST("/shops/:shop/install", s.handlers.InstallShop)
		v1.GET("/shops/:shop/blocks", s.handlers.GetShopBlocks)

		// Merchant admin surface, bearer-token protected.
		admin := v1.Group("", handlers.AdminAuth(s.config.Admin.Token, s.logger))
		{
			admin.GET("/purchases", s.handlers.ListPurchases)
			admin.POST("/purchases/:id/confirm", s.handlers.ConfirmPurchase)
			admin.POST("/purchases/:id/fail", s.handlers.FailPurchase)
			admin.POST("/purchases/:id/refund", s.handlers.RefundPurchase)
			admin.PUT("/widget/settings", s.handlers.UpdateWidgetSettings)
		}
	}
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
