package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/shopcore/backend/internal/application/catalog"
	integrationapp "github.com/shopcore/backend/internal/application/integration"
	inventoryapp "github.com/shopcore/backend/internal/application/inventory"
	tradeapp "github.com/shopcore/backend/internal/application/trade"
	"github.com/shopcore/backend/internal/infrastructure/auth"
	"github.com/shopcore/backend/internal/infrastructure/config"
	"github.com/shopcore/backend/internal/infrastructure/logger"
	"github.com/shopcore/backend/internal/infrastructure/marketplace"
	"github.com/shopcore/backend/internal/infrastructure/persistence"
	"github.com/shopcore/backend/internal/infrastructure/scheduler"
	"github.com/shopcore/backend/internal/infrastructure/telemetry"
	"github.com/shopcore/backend/internal/interfaces/http/handler"
	"github.com/shopcore/backend/internal/interfaces/http/middleware"
	"github.com/shopcore/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Shop Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	queueRepo := persistence.NewGormSyncQueueRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize metrics. A disabled collector yields a no-op meter, so the
	// recording call sites stay unconditional.
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("shopcore"), log)
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Marketplace gateway. Missing credentials are the only startup-fatal
	// marketplace condition; everything else surfaces per sync run.
	mpConfig := marketplace.NewConfig(cfg.Marketplace.APIBaseURL, cfg.Marketplace.ClientID, cfg.Marketplace.ClientSecret)
	mpConfig.AuthBaseURL = cfg.Marketplace.AuthBaseURL
	mpConfig.ChannelID = cfg.Marketplace.ChannelID
	if cfg.Marketplace.TimeoutSeconds > 0 {
		mpConfig.TimeoutSeconds = cfg.Marketplace.TimeoutSeconds
	}
	if cfg.Marketplace.MaxRateRetries > 0 {
		mpConfig.MaxRateRetries = cfg.Marketplace.MaxRateRetries
	}
	if cfg.Marketplace.SearchPageSize > 0 {
		mpConfig.SearchPageSize = cfg.Marketplace.SearchPageSize
	}
	if cfg.Marketplace.TokenSkew > 0 {
		mpConfig.TokenSkew = cfg.Marketplace.TokenSkew
	}
	if err := mpConfig.Validate(); err != nil {
		log.Fatal("Invalid marketplace configuration", zap.Error(err))
	}
	credentials, err := marketplace.NewOAuthCredentialProvider(mpConfig)
	if err != nil {
		log.Fatal("Failed to create marketplace credential provider", zap.Error(err))
	}
	gateway, err := marketplace.NewClient(mpConfig, credentials, log)
	if err != nil {
		log.Fatal("Failed to create marketplace client", zap.Error(err))
	}

	// Initialize application services
	ledger := inventoryapp.NewStockLedger(txScope, log)
	orderService := tradeapp.NewOrderService(txScope, ledger, orderRepo, log)
	orderService.SetMetrics(syncMetrics)
	productService := catalogapp.NewProductService(productRepo, variantRepo, log)
	syncService := integrationapp.NewStockSyncService(productRepo, variantRepo, queueRepo, gateway, log)
	syncService.SetMetrics(syncMetrics)
	syncService.SetQueueBatchSize(cfg.Sync.QueueBatchSize)

	// Scheduled stock sync. Manual triggers go through the same scheduler so
	// runs never overlap.
	stockSyncScheduler, err := scheduler.NewStockSyncScheduler(scheduler.StockSyncSchedulerConfig{
		Enabled:    cfg.Sync.SchedulerEnabled,
		Interval:   cfg.Sync.Interval,
		RunTimeout: cfg.Sync.RunTimeout,
	}, scheduler.StockSyncExecutorFunc(func(ctx context.Context) (scheduler.StockSyncResult, error) {
		report, err := syncService.SyncAll(ctx)
		if report == nil {
			return scheduler.StockSyncResult{}, err
		}
		return scheduler.StockSyncResult{
			Synced:  report.SyncedCount,
			Failed:  report.FailedCount,
			Skipped: report.SkippedCount,
		}, err
	}), log)
	if err != nil {
		log.Fatal("Failed to create stock sync scheduler", zap.Error(err))
	}
	if err := stockSyncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start stock sync scheduler", zap.Error(err))
	}
	defer func() {
		if err := stockSyncScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping stock sync scheduler", zap.Error(err))
		}
	}()
	log.Info("Stock sync scheduler started",
		zap.Bool("interval_enabled", cfg.Sync.SchedulerEnabled),
		zap.Duration("interval", cfg.Sync.Interval),
	)

	// JWT validation for the admin API. The blacklist rides on redis; a
	// connection failure at startup is fatal because revocation would
	// silently stop working otherwise.
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("Failed to connect to redis token blacklist", zap.Error(err))
	}

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, ledger)
	orderHandler := handler.NewOrderHandler(orderService)
	syncHandler := handler.NewSyncHandler(syncService, stockSyncScheduler)
	systemHandler := handler.NewSystemHandler(db.DB)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// Health check endpoint (outside API versioning, unauthenticated)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.PUT("/products/:id/stock", productHandler.SetProductStock)
	catalogRoutes.PUT("/variants/:id/stock", productHandler.SetVariantStock)

	tradeRoutes := router.NewDomainGroup("trade", "/trade")
	tradeRoutes.POST("/orders", orderHandler.Place)
	tradeRoutes.GET("/orders", orderHandler.List)
	tradeRoutes.GET("/orders/:id", orderHandler.GetByID)
	tradeRoutes.POST("/orders/:id/cancel", orderHandler.Cancel)

	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.POST("/stock", syncHandler.Trigger)
	syncRoutes.POST("/runs", syncHandler.TriggerBackground)
	syncRoutes.GET("/runs", syncHandler.Runs)
	syncRoutes.GET("/status", syncHandler.Status)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r.Register(catalogRoutes)
	r.Register(tradeRoutes)
	r.Register(syncRoutes)
	r.Register(systemRoutes)
	r.Setup()

	// Versioned health alias for clients that only speak /api/v1
	engine.GET("/api/v1/health", systemHandler.Health)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
