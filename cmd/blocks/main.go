package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cartboost/cartboost-blocks-service/internal/clients"
	"github.com/cartboost/cartboost-blocks-service/internal/config"
	"github.com/cartboost/cartboost-blocks-service/internal/events"
	"github.com/cartboost/cartboost-blocks-service/internal/handlers"
	"github.com/cartboost/cartboost-blocks-service/internal/logging"
	"github.com/cartboost/cartboost-blocks-service/internal/repository"
	"github.com/cartboost/cartboost-blocks-service/internal/server"
	"github.com/cartboost/cartboost-blocks-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Best-effort .env overlay for local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New("blocks-service")

	logger.Info().Int("port", cfg.Server.Port).Msg("Starting blocks-service")

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	logger.Info().
		Str("host", cfg.Database.Host).
		Str("name", cfg.Database.Name).
		Msg("Database connected")

	purchaseRepo := repository.NewPostgresPurchaseRepository(db, logging.Component(logger, "purchase-repo"))
	subscriptionRepo := repository.NewPostgresSubscriptionRepository(db, logging.Component(logger, "subscription-repo"))
	settingsRepo := repository.NewPostgresWidgetSettingsRepository(db, logging.Component(logger, "settings-repo"))
	catalogSource := repository.NewPostgresCatalogSource(db, logging.Component(logger, "catalog-repo"))
	entitlementCache := repository.NewRedisEntitlementCache(cfg.Redis, logging.Component(logger, "entitlement-cache"))

	billingClient := clients.NewHTTPBillingClient(cfg.Billing, logging.Component(logger, "billing-client"))
	registryClient := clients.NewHTTPRegistryClient(cfg.Registry, logging.Component(logger, "registry-client"))
	cartClient := clients.NewHTTPCartClient(cfg.Cart, logging.Component(logger, "cart-client"))

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Features.EnableLifecycleEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logging.Component(logger, "event-publisher"))
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	catalogService := service.NewCatalogService(
		catalogSource,
		repository.NewSampleCatalog(),
		entitlementCache,
		cfg.Features.EnableCatalogCache,
		logging.Component(logger, "catalog-service"),
	)

	installService := service.NewInstallService(
		purchaseRepo,
		registryClient,
		entitlementCache,
		publisher,
		cfg.Features.EnableCatalogCache,
		cfg.Features.EnableLifecycleEvents,
		logging.Component(logger, "install-service"),
	)

	billingService := service.NewBillingService(
		subscriptionRepo,
		billingClient,
		publisher,
		cfg.Features.EnableLifecycleEvents,
		logging.Component(logger, "billing-service"),
	)

	purchaseService := service.NewPurchaseService(
		purchaseRepo,
		catalogService,
		installService,
		publisher,
		cfg.Features.EnableLifecycleEvents,
		logging.Component(logger, "purchase-service"),
	)

	widgetService := service.NewWidgetService(
		settingsRepo,
		cartClient,
		logging.Component(logger, "widget-service"),
	)

	h := handlers.New(
		widgetService,
		billingService,
		purchaseService,
		installService,
		catalogService,
		cfg,
		logging.Component(logger, "handlers"),
	)

	srv := server.New(h, cfg, logging.Component(logger, "server"))

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	var billingConsumer *events.KafkaConsumer
	if cfg.Features.EnableBillingConsumer {
		billingConsumer = events.NewKafkaConsumer(cfg.Kafka, billingService, logging.Component(logger, "billing-consumer"))
		go func() {
			if err := billingConsumer.Start(context.Background()); err != nil && err != context.Canceled {
				logger.Error().Err(err).Msg("Billing event consumer failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if billingConsumer != nil {
		billingConsumer.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
