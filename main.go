package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/config"
	"github.com/tastemichigan/api-go/controllers"
	"github.com/tastemichigan/api-go/importer"
	"github.com/tastemichigan/api-go/middleware"
	"github.com/tastemichigan/api-go/repository"
	"github.com/tastemichigan/api-go/routes"
	"github.com/tastemichigan/api-go/services"
	"github.com/tastemichigan/api-go/supervisor"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet; fall back to the zerolog default.
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.InitLogger(cfg.Log)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	caches, closeCaches := buildCaches(ctx, cfg.Cache, db)
	defer closeCaches()

	httpClient := &http.Client{Timeout: cfg.Fourthwall.Timeout}
	refresher := services.NewCacheRefresher(cfg.Cache.QueueSize, cfg.Cache.JobTimeout)

	places := repository.NewPlaceRepository(db)
	products := services.NewProductService(
		services.NewProductAdapter(cfg.Fourthwall, httpClient), caches.Products, refresher, cfg.Cache.ProductTTL)
	episodes := services.NewEpisodeService(
		services.NewEpisodeAdapter(cfg.YouTube, httpClient), caches.Episodes, refresher, cfg.Cache.EpisodeTTL)
	snapshot := services.NewPlaceSnapshot(places, cfg.Server.SnapshotFreshness)

	ingestLimiter := middleware.NewRateLimiter(cfg.Ingest.RatePerMinute)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.Metrics())

	routes.SetupRoutes(r, routes.Controllers{
		Health:     controllers.NewHealthController(db),
		Places:     controllers.NewPlaceController(places, snapshot),
		Content:    controllers.NewContentController(products, episodes, caches, places),
		Webhook:    controllers.NewWebhookController(cfg.Fourthwall.WebhookSecret, services.NewWebhookDispatcher()),
		Ingest:     controllers.NewIngestController(places, snapshot),
		Auth:       controllers.NewAuthController(cfg.Admin),
		Admin:      controllers.NewAdminController(places, snapshot, importer.NewImporter(places)),
		Upload:     controllers.NewUploadController(config.NewR2Client(cfg.R2), cfg.R2),
		Validation: controllers.NewValidationController(places),
	}, routes.Options{
		JWTSecret:     cfg.Admin.JWTSecret,
		IngestAPIKey:  cfg.Ingest.APIKey,
		IngestLimiter: ingestLimiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tree := supervisor.NewTree("tastemichigan-api", supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddBackgroundService(refresher)
	tree.AddBackgroundService(ingestLimiter)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	log.Info().
		Str("port", cfg.Server.Port).
		Str("env", cfg.Server.Env).
		Str("cache_backend", cfg.Cache.Backend).
		Msg("starting server")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("supervisor exited")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		log.Warn().Int("count", len(report)).Msg("services did not stop in time")
	}
	log.Info().Msg("server stopped")
}

// buildCaches picks the content cache backend. Postgres tables are the default;
// redis is used when CACHE_BACKEND=redis.
func buildCaches(ctx context.Context, cfg config.CacheConfig, db *gorm.DB) (services.ContentCaches, func()) {
	if cfg.Backend == "redis" {
		client, err := config.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize redis cache")
		}
		return services.ContentCaches{
			Products: repository.NewRedisProductCache(client),
			Episodes: repository.NewRedisEpisodeCache(client),
		}, func() { _ = client.Close() }
	}

	return services.ContentCaches{
		Products: repository.NewProductTableCache(db),
		Episodes: repository.NewEpisodeTableCache(db),
	}, func() {}
}
