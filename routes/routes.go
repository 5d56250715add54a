package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tastemichigan/api-go/controllers"
	"github.com/tastemichigan/api-go/middleware"
)

// Controllers is everything the router needs, built once in main.
type Controllers struct {
	Health     *controllers.HealthController
	Places     *controllers.PlaceController
	Content    *controllers.ContentController
	Webhook    *controllers.WebhookController
	Ingest     *controllers.IngestController
	Auth       *controllers.AuthController
	Admin      *controllers.AdminController
	Upload     *controllers.UploadController
	Validation *controllers.ValidationController
}

type Options struct {
	JWTSecret     string
	IngestAPIKey  string
	IngestLimiter *middleware.RateLimiter
}

func SetupRoutes(r *gin.Engine, ctrl Controllers, opts Options) {
	r.GET("/healthz", ctrl.Health.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := r.Group("/api")
	{
		public.GET("/home", ctrl.Content.GetHome)
		public.POST("/admin/login", ctrl.Auth.Login)
		public.POST("/webhooks/fourthwall", ctrl.Webhook.HandleFourthwall)

		SetupPlaceRoutes(public, ctrl.Places)
		SetupContentRoutes(public, ctrl.Content)
	}

	ingest := r.Group("/api/ingest")
	ingest.Use(opts.IngestLimiter.Handler(), middleware.IngestKey(opts.IngestAPIKey))
	{
		ingest.POST("/places", ctrl.Ingest.IngestPlace)
	}

	// Admin routes
	admin := r.Group("/api")
	admin.Use(middleware.AdminAuth(opts.JWTSecret))
	{
		SetupCacheRoutes(admin, ctrl.Content)
		SetupAdminRoutes(admin, ctrl.Admin)
		SetupUploadRoutes(admin, ctrl.Upload)
		SetupValidationRoutes(admin, ctrl.Validation)
	}
}
