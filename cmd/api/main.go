package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/accenprove/accenprove-api/docs" // Swagger docs
	"github.com/accenprove/accenprove-api/internal/authz"
	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/database"
	"github.com/accenprove/accenprove-api/internal/handlers"
	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/middleware"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/internal/services"
	"github.com/accenprove/accenprove-api/internal/storage"
	"github.com/accenprove/accenprove-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// stalePendingAge is how long a BA may sit PENDING before directors
// get a reminder.
const stalePendingAge = 24 * time.Hour

// @title Accenprove API
// @version 1.0
// @description REST API for the Accenprove Berita Acara approval system

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, store, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, store, worker, cfg)

	// Setup router
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Uploaded photos are served statically
	router.Static("/uploads", cfg.StoragePath+"/uploads")

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication and password recovery (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
			auth.POST("/send-reset-code", h.Auth.SendResetCode)
			auth.POST("/confirm-reset", h.Auth.ConfirmReset)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret, cfg.SessionCookieName))
		{
			// Berita acara workflow. Index/Show scope rows per role in
			// the service; Patch dispatches approve/reject/edit against
			// the policy table per action.
			ba := protected.Group("/ba")
			{
				ba.GET("", h.BeritaAcara.Index)
				ba.GET("/export", middleware.RequirePermission(authz.ActionBAExport), h.BeritaAcara.Export)
				ba.POST("", middleware.RequirePermission(authz.ActionBACreate), h.BeritaAcara.Create)
				ba.GET("/:id", h.BeritaAcara.Show)
				ba.PATCH("/:id", h.BeritaAcara.Patch)
				ba.DELETE("/:id", middleware.RequirePermission(authz.ActionBADelete), h.BeritaAcara.Delete)
				ba.GET("/:id/pdf", h.BeritaAcara.DocumentPDF)
			}

			// Dashboard stats (all roles, shaped per role)
			protected.GET("/stats", middleware.RequirePermission(authz.ActionStatsView), h.Stats.Index)

			// Self-service profile
			protected.GET("/users/me", h.User.Me)
			protected.PUT("/users/me", h.User.UpdateMe)
			protected.PUT("/users/me/password", h.User.ChangePassword)
			protected.POST("/users/me/photo", h.User.UploadPhoto)
			protected.DELETE("/users/me/photo", h.User.DeletePhoto)

			// Notifications (own rows only)
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/read-all", h.Notification.MarkAllRead)
				notifications.POST("/:id/read", h.Notification.MarkRead)
			}

			// Admin-only: user management and audit trails
			admin := protected.Group("")
			admin.Use(middleware.RequirePermission(authz.ActionUserManage))
			{
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.GET("/users/:id", h.User.Show)
				admin.PUT("/users/:id", h.User.Update)
				admin.DELETE("/users/:id", h.User.Delete)
				admin.POST("/users/:id/restore", h.User.Restore)
			}

			audits := protected.Group("")
			audits.Use(middleware.RequirePermission(authz.ActionAuditView))
			{
				audits.GET("/audits", h.Audit.Index)
				audits.GET("/login-history", h.LoginHistory.Index)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Remind directors about stale pending documents daily
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking stale pending berita acara...")
		return svcs.BeritaAcara.RemindStalePending(ctx, stalePendingAge)
	})

	// Purge expired refresh tokens hourly, once at startup
	worker.ScheduleEveryImmediate(1*time.Hour, func(ctx context.Context) error {
		purged, err := svcs.Auth.PurgeExpiredTokens(ctx)
		if err != nil {
			return err
		}
		if purged > 0 {
			logger.Info("[Job] Purged expired refresh tokens", "count", purged)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
