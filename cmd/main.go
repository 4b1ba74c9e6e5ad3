package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"fuel-procurement-service/internal/config"
	"fuel-procurement-service/internal/events"
	"fuel-procurement-service/internal/handlers"
	"fuel-procurement-service/internal/jobs"
	"fuel-procurement-service/internal/middleware"
	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"
	"fuel-procurement-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Fuel Procurement API
// @version 1.0.0
// @description Fuel shortage forecasting, procurement advice and crisis redistribution

// @host localhost:8090
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.FuelType{},
		&models.Station{},
		&models.Depot{},
		&models.Tank{},
		&models.TankStockAudit{},
		&models.ConsumptionRate{},
		&models.StockPolicy{},
		&models.Supplier{},
		&models.SupplierOffer{},
		&models.Order{},
		&models.SystemParameter{},
		&models.CrisisCase{},
	); err != nil {
		logger.Fatal("Failed to migrate database: ", err)
	}
	logger.Info("Database migrations completed")

	// Redis is optional; without it the fuel type cache is disabled
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to parse Redis URL, continuing without Redis")
		} else {
			redisOpts.Password = secrets.GetRedisPassword()
			redisClient = redis.NewClient(redisOpts)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.WithError(err).Warn("Failed to connect to Redis, caching will be disabled")
				redisClient = nil
			} else {
				logger.Info("Redis connected")
			}
			cancel()
		}
	} else {
		logger.Info("REDIS_URL not configured, caching disabled")
	}

	// NATS is optional; without it alerts and stock changes are only logged
	var publisher events.Publisher
	if cfg.NATSURL != "" {
		fuelEvents, err := events.NewFuelEventPublisher(cfg.NATSURL, cfg.FleetID, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize NATS event publisher, continuing without events")
		} else {
			logger.Info("Connected to NATS JetStream for event publishing")
			defer fuelEvents.Close()
			publisher = fuelEvents
		}
	} else {
		logger.Info("NATS_URL not configured, event publishing disabled")
	}

	fuelRepo := repository.NewFuelRepository(db, redisClient)

	procurementService := services.NewProcurementService(fuelRepo, logger)
	crisisService := services.NewCrisisService(fuelRepo, logger)
	alertService := services.NewAlertService(fuelRepo, logger)
	stockService := services.NewStockService(fuelRepo, publisher, logger)
	policyService := services.NewPolicyService(fuelRepo, logger)

	procurementHandler := handlers.NewProcurementHandler(procurementService, cfg.ShortageDaysThreshold)
	crisisHandler := handlers.NewCrisisHandler(crisisService)
	alertHandler := handlers.NewAlertHandler(alertService)
	stockHandler := handlers.NewStockHandler(stockService)
	importHandler := handlers.NewImportHandler(policyService)
	healthHandler := handlers.NewHealthHandler(fuelRepo)

	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("fuel-procurement-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("fuel-procurement-service"))
	}
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize tracing, continuing without tracing")
	}

	metrics := gosharedmw.InitGlobalMetrics("tesseract", "fuel_procurement_service")

	rbacMiddleware := rbac.NewMiddlewareWithURL(cfg.StaffServiceURL, nil)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("fuel-procurement-service"))
	router.Use(middleware.CORS())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/health/extended", healthHandler.ExtendedHealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", gosharedmw.Handler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        true,
		AllowLegacyHeaders: false,
		SkipPaths:          []string{"/health", "/ready", "/metrics", "/swagger"},
	}))

	read := rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead)
	update := rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate)
	adjust := rbacMiddleware.RequirePermission(rbac.PermissionInventoryAdjust)

	// Procurement
	api.GET("/shortages", read, procurementHandler.GetShortages)
	api.GET("/procurement/summary", read, procurementHandler.GetSummary)
	api.GET("/suppliers/recommendations", read, procurementHandler.GetSupplierRecommendations)
	api.GET("/forecast", read, procurementHandler.GetForecast)

	crisis := api.Group("/crisis")
	{
		crisis.GET("/options", read, crisisHandler.GetOptions)
		crisis.POST("/split-delivery", adjust, crisisHandler.AcceptSplitDelivery)
		crisis.POST("/transfer", adjust, crisisHandler.AcceptTransfer)
		crisis.GET("/cases", read, crisisHandler.ListCases)
		crisis.GET("/cases/:id", read, crisisHandler.GetCase)
		crisis.POST("/cases/:id/compensating-po", update, crisisHandler.LinkCompensatingPO)
		crisis.POST("/cases/:id/resolve", update, crisisHandler.ResolveCase)
	}

	alerts := api.Group("/alerts")
	{
		alerts.GET("", read, alertHandler.ListAlerts)
		alerts.GET("/summary", read, alertHandler.GetAlertSummary)
		alerts.GET("/depots/:id", read, alertHandler.GetDepotAlerts)
	}

	tanks := api.Group("/tanks")
	{
		tanks.PUT("/:id/stock", adjust, stockHandler.UpdateTankStock)
		tanks.GET("/:id/history", read, stockHandler.GetTankHistory)
	}

	policies := api.Group("/stock-policies")
	{
		policies.GET("/import/template", read, importHandler.GetStockPolicyImportTemplate)
		policies.POST("/import", update, importHandler.ImportStockPolicies)
	}

	jobCtx, jobCancel := context.WithCancel(context.Background())
	alertJob := jobs.NewAlertScanJob(alertService, publisher, cfg.AlertScanInterval, logger)
	go alertJob.Start(jobCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("Fuel procurement service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	<-quit
	logger.Info("Shutting down fuel-procurement-service...")

	jobCancel()
	alertJob.Stop()

	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Error shutting down tracer provider")
		}
	}

	logger.Info("Fuel procurement service stopped")
}
