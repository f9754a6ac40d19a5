package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"stockledger/internal/caching"
	"stockledger/internal/config"
	"stockledger/internal/events"
	"stockledger/internal/handlers"
	"stockledger/internal/jobs"
	"stockledger/internal/jobs/background"
	"stockledger/internal/middleware"
	"stockledger/internal/observability"
	"stockledger/internal/repositories"
	"stockledger/internal/services"
	"stockledger/pkg/database"
)

func main() {
	configPath := flag.String("config", "", "optional config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: failed to load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:       cfg.OtelEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Insecure:       cfg.OtelInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()
	if cfg.OtelEndpoint != "" {
		logger = observability.WithOTelLogs(logger, cfg.ServiceName)
	}

	// Database
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	isolation, err := database.ParseIsolation(cfg.TxIsolation)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := database.InitSchema(ctx, pool); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	// Cache
	cache := caching.NewNoopCache()
	if cfg.RedisAddr != "" {
		cache = caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, continuing with degraded cache", zap.Error(err))
		}
	} else {
		logger.Info("redis not configured, inventory cache disabled")
	}

	// Events
	publisher := events.NewNoopPublisher()
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName)
		if err != nil {
			return err
		}
	} else {
		logger.Info("kafka not configured, ledger events disabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("publisher close failed", zap.Error(err))
		}
	}()

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	membershipRepo := repositories.NewMembershipRepo(pool)
	invitationRepo := repositories.NewInvitationRepo(pool)
	branchRepo := repositories.NewBranchRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	inventoryRepo := repositories.NewInventoryRepo(pool)
	transactionRepo := repositories.NewInventoryTransactionRepo(pool)
	txm := repositories.NewTxManager(pool, isolation, logger)

	// Services
	ledgerSvc := services.NewLedgerService(txm, branchRepo, productRepo, inventoryRepo, transactionRepo,
		cache, publisher, logger, services.LedgerOptions{
			CacheTTL:          cfg.InventoryCacheTTL,
			LowStockThreshold: cfg.LowStockThreshold,
		})
	tenantSvc := services.NewTenantService(txm, tenantRepo, membershipRepo, logger)
	membershipSvc := services.NewMembershipService(txm, invitationRepo, membershipRepo, logger, services.MembershipOptions{
		InvitationTTL: cfg.InvitationTTL,
	})
	rbacSvc := services.NewRBACService(membershipRepo)

	// Background jobs
	scheduler, err := background.NewJobScheduler(logger,
		background.Intervals{
			InvitationSweep: cfg.InvitationSweepInterval,
			LowStock:        cfg.LowStockInterval,
			Reconcile:       cfg.ReconcileInterval,
		},
		jobs.NewInventoryAlertService(tenantRepo, inventoryRepo, cfg.LowStockThreshold, logger),
		jobs.NewInvitationExpiryJob(membershipSvc, logger),
		jobs.NewReconciliationJob(tenantRepo, ledgerSvc, logger),
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop failed", zap.Error(err))
		}
	}()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.RequestLogger(logger))

	handlers.RegisterRoutes(e, handlers.Handlers{
		Inventory:   handlers.NewInventoryHandlers(ledgerSvc),
		Tenants:     handlers.NewTenantHandlers(tenantSvc, membershipSvc),
		Memberships: handlers.NewMembershipHandlers(membershipSvc),
		Health:      handlers.NewHealthHandlers(pool, cache, cfg.ServiceVersion),
	}, middleware.NewRBACMiddleware(rbacSvc), cfg.ServiceVersion)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
