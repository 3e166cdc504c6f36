package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apppayment "github.com/brokercrm/backend/internal/application/payment"
	"github.com/brokercrm/backend/internal/infrastructure/cache"
	"github.com/brokercrm/backend/internal/infrastructure/config"
	"github.com/brokercrm/backend/internal/infrastructure/logger"
	"github.com/brokercrm/backend/internal/infrastructure/persistence"
	"github.com/brokercrm/backend/internal/interfaces/http/handler"
	"github.com/brokercrm/backend/internal/interfaces/http/middleware"
	"github.com/brokercrm/backend/internal/interfaces/http/router"
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
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BrokerCRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

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

	// Read-side cache for payment views: Redis when enabled,
	// in-memory fallback otherwise
	var paymentCache apppayment.ReadCache
	if cfg.Redis.Enabled {
		factory := cache.NewPaymentCacheFactory(cfg.Redis, cfg.Cache.TTL,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(cfg.App.Env != "production"),
		)
		paymentCache, err = factory.CreateCache()
		if err != nil {
			log.Fatal("Failed to initialize payment cache", zap.Error(err))
		}
	} else {
		paymentCache = cache.NewInMemoryPaymentCache(cfg.Cache.TTL)
		log.Info("Redis disabled, using in-memory payment cache")
	}

	// Initialize repositories and application services
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	paymentService := apppayment.NewPaymentService(paymentRepo, apppayment.WithReadCache(paymentCache))

	// Initialize HTTP handlers
	paymentHandler := handler.NewPaymentHandler(paymentService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Actor - Resolve the acting user from headers
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Actor())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// CRM domain (payments and their entries)
	crmRoutes := router.NewDomainGroup("crm", "/crm")
	crmRoutes.POST("/payments", paymentHandler.Create)
	crmRoutes.GET("/payments", paymentHandler.List)
	crmRoutes.GET("/payments/:id", paymentHandler.Get)
	crmRoutes.PATCH("/payments/:id", paymentHandler.Update)
	crmRoutes.DELETE("/payments/:id", paymentHandler.Delete)
	crmRoutes.POST("/payments/:id/confirm", paymentHandler.Confirm)
	crmRoutes.POST("/payments/:id/revoke-confirmation", paymentHandler.RevokeConfirmation)
	crmRoutes.POST("/payments/:id/distribute", paymentHandler.Distribute)
	crmRoutes.POST("/payments/:id/cancel", paymentHandler.Cancel)
	crmRoutes.GET("/payments/:id/timeline", paymentHandler.Timeline)
	crmRoutes.POST("/payments/:id/incomes", paymentHandler.CreateIncome)
	crmRoutes.POST("/payments/:id/expenses", paymentHandler.CreateExpense)
	crmRoutes.PATCH("/payments/:id/entries/:entryId", paymentHandler.UpdateEntry)
	crmRoutes.POST("/payments/:id/entries/:entryId/submit", paymentHandler.SubmitEntry)
	crmRoutes.POST("/payments/:id/entries/:entryId/confirm", paymentHandler.ConfirmEntry)
	crmRoutes.DELETE("/payments/:id/entries/:entryId", paymentHandler.DeleteEntry)
	r.Register(crmRoutes)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	r.Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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
