package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	integrationapp "github.com/shopcore/backend/internal/application/integration"
	"github.com/shopcore/backend/internal/domain/integration"
	"github.com/shopcore/backend/internal/infrastructure/config"
	"github.com/shopcore/backend/internal/infrastructure/logger"
	"github.com/shopcore/backend/internal/infrastructure/marketplace"
	"github.com/shopcore/backend/internal/infrastructure/persistence"
	"github.com/shopcore/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// One-shot tool that links local products to their marketplace listings,
// maps variants to listing options and re-hosts listing images. Safe to
// re-run; established links are never rebound.
func main() {
	var (
		reportDir  string
		skipImages bool
	)
	flag.StringVar(&reportDir, "report-dir", "reports", "Directory for the run report JSON")
	flag.BoolVar(&skipImages, "skip-images", false, "Skip image re-hosting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	mpConfig := marketplace.NewConfig(cfg.Marketplace.APIBaseURL, cfg.Marketplace.ClientID, cfg.Marketplace.ClientSecret)
	mpConfig.AuthBaseURL = cfg.Marketplace.AuthBaseURL
	mpConfig.ChannelID = cfg.Marketplace.ChannelID
	if cfg.Marketplace.SearchPageSize > 0 {
		mpConfig.SearchPageSize = cfg.Marketplace.SearchPageSize
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

	// Image re-hosting is optional; without a configured bucket the builder
	// still links products and maps options.
	var images integrationapp.ImageHoster
	if !skipImages && cfg.Storage.Bucket != "" {
		store, err := storage.NewS3ImageStore(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to create image store", zap.Error(err))
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure image bucket", zap.Error(err))
		}
		images = store
	} else {
		log.Info("Image re-hosting disabled")
	}

	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)
	resolver := integrationapp.NewMappingResolver(variantRepo, integration.DefaultMatcher(), log)
	builder := integrationapp.NewMappingBuilder(productRepo, resolver, gateway, images, reportDir, log)

	report, err := builder.Run(ctx)
	if err != nil {
		log.Error("Mapping builder run failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Mapping builder finished",
		zap.Int("candidates", report.CandidateCount),
		zap.Int("linked_products", report.LinkedProducts),
		zap.Int("mapped_options", report.MappedOptions),
		zap.Int("unmapped_products", len(report.UnmappedProducts)),
		zap.Int("unmapped_options", len(report.UnmappedOptions)),
	)
}
