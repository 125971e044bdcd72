package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ruralmatch/internal/config"
	"ruralmatch/internal/handler"
	"ruralmatch/internal/model"
	"ruralmatch/internal/repository"
	"ruralmatch/internal/resilience"
	"ruralmatch/internal/service"
	"ruralmatch/internal/session"
	"ruralmatch/internal/storage"
	"ruralmatch/pkg/geocode"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// catalogStore is everything the server needs from the catalog backend.
type catalogStore interface {
	service.CatalogClient
	service.ListingWriter
	service.SearchLogger
	service.ListingReader
	service.FeedbackLogger
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.InitLogger(cfg.Logging)
	defer logger.Sync() //nolint:errcheck

	logger.Info("Rural property matching engine",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	catalog, closeCatalog, err := openCatalog(cfg)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.String("driver", cfg.Catalog.Driver), zap.Error(err))
	}
	defer closeCatalog()

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Retry.MaxAttempts
	retry.InitialBackoff = cfg.Retry.InitialBackoff
	retry.MaxBackoff = cfg.Retry.MaxBackoff

	images := openImageStore(cfg.Storage, retry)

	geoRetry := retry
	geoRetry.OnRetry = resilience.RetryLogger("geocode", "lookup")
	geocoder := geocode.NewClient(
		geocode.WithHTTPClient(&http.Client{Timeout: cfg.Geocode.Timeout}),
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithAPIKey(cfg.Geocode.APIKey),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithRetry(geoRetry),
	)
	if cfg.Geocode.APIKey == "" {
		logger.Warn("GEOCODE_API_KEY is not set - address validation will fail")
	}

	// Initialize services
	extractor := service.NewFilterExtractor()
	ranker := service.NewRanker(service.RankingWeights{
		Type:    cfg.Ranking.WeightType,
		City:    cfg.Ranking.WeightCity,
		State:   cfg.Ranking.WeightState,
		Purpose: cfg.Ranking.WeightPurpose,
		Keyword: cfg.Ranking.WeightKeyword,
	}, cfg.Search.DefaultLimit)
	searchService := service.NewSearchService(catalog, catalog, catalog, extractor, ranker, cfg.Search.MaxLimit)
	addresses := service.NewAddressValidator(geocoder)

	dialogueSessions := session.NewStore[*service.SearchDialogue](cfg.Session.TTL, cfg.Session.Cleanup)
	intakeSessions := session.NewStore[*service.IntakeWizard](cfg.Session.TTL, cfg.Session.Cleanup)

	logger.Info("Services initialized")

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.RequestLog {
		router.Use(gin.Logger())
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.AllowedOrigins, ",")
	corsConfig.AllowMethods = strings.Split(cfg.Server.AllowedMethods, ",")
	corsConfig.AllowHeaders = strings.Split(cfg.Server.AllowedHeaders, ",")
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "ruralmatch",
			"catalog":    cfg.Catalog.Driver,
			"dialogues":  dialogueSessions.Len(),
			"intakes":    intakeSessions.Len(),
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	handler.RegisterRoutes(router.Group("/api/v1"), handler.Handlers{
		Search:   handler.NewSearchHandler(searchService, cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
		Feedback: handler.NewFeedbackHandler(searchService),
		Dialogue: handler.NewDialogueHandler(dialogueSessions, func() *service.SearchDialogue {
			return service.NewSearchDialogue(extractor, catalog, catalog, cfg.Search.MaxListed)
		}),
		Intake: handler.NewIntakeHandler(intakeSessions, func() *service.IntakeWizard {
			return service.NewIntakeWizard(addresses, catalog, images, cfg.Storage.UploadConcurrency)
		}),
	})

	setupStaticFiles(router, cfg.Storage)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}
	logger.Info("Starting server", zap.String("addr", addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func openCatalog(cfg *config.Config) (catalogStore, func(), error) {
	if cfg.Catalog.Driver == config.CatalogMemory {
		entries, err := repository.LoadCatalogFile(cfg.Catalog.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		zap.L().Info("Using in-memory catalog",
			zap.String("fixture", cfg.Catalog.FixturePath),
			zap.Int("listings", countActive(entries)),
		)
		return repository.NewMemoryRepository(entries), func() {}, nil
	}

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, nil, err
	}
	zap.L().Info("Connected to PostgreSQL database")
	return repo, func() {
		if err := repo.Close(); err != nil {
			zap.L().Warn("close database", zap.Error(err))
		}
	}, nil
}

func openImageStore(cfg config.StorageConfig, retry resilience.RetryConfig) service.ImageStore {
	if cfg.Driver == config.StorageHTTP {
		zap.L().Info("Using object storage for images", zap.String("bucket", cfg.Bucket))
		return storage.NewHTTPStore(storage.HTTPStoreConfig{
			BaseURL: cfg.BaseURL,
			Bucket:  cfg.Bucket,
			Token:   cfg.Token,
			Timeout: cfg.Timeout,
			Retry:   retry,
		})
	}
	return storage.NewLocalStore(cfg.LocalDir, cfg.PublicURL)
}

func countActive(entries []model.CatalogEntry) int {
	n := 0
	for _, e := range entries {
		if e.Status == model.StatusActive {
			n++
		}
	}
	return n
}
