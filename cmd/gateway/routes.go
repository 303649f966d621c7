package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"veritas-system/config"
	"veritas-system/internal/anomaly"
	"veritas-system/internal/database"
	"veritas-system/internal/fraud"
	"veritas-system/internal/gateway/handlers"
	"veritas-system/internal/gateway/middleware"
	"veritas-system/internal/insights"
	"veritas-system/internal/integrity"
	"veritas-system/internal/performance"
	"veritas-system/internal/reconcile"
	"veritas-system/internal/store"
	"veritas-system/internal/utils"
	"veritas-system/internal/workflow"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateRevenueDB(db); err != nil {
		log.Fatalf("Failed to migrate revenue schema: %v", err)
	}
	if err := database.MigrateBonusDB(db); err != nil {
		log.Fatalf("Failed to migrate bonus schema: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	dataStore := store.NewGormStore(db)
	reconcileService := reconcile.NewService(dataStore)
	anomalyService := anomaly.NewService(dataStore)
	fraudService := fraud.NewService(dataStore)
	performanceService := performance.NewService(dataStore)
	workflowService := workflow.NewService(dataStore)
	integrityService := integrity.NewService(dataStore)
	insightsService := insights.NewService(workflowService, anomalyService, fraudService, performanceService)

	analyticsHandler := handlers.NewAnalyticsHTTPHandler(
		reconcileService,
		anomalyService,
		fraudService,
		performanceService,
		workflowService,
		integrityService,
		insightsService,
		redisClient,
	)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(cfg.HTTP.RateLimit))

	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		reconciliation := protected.Group("/reconciliation")
		{
			reconciliation.GET("/revenues", analyticsHandler.ReconcileRevenues)
			reconciliation.GET("/bonuses", analyticsHandler.ReconcileBonuses)
			reconciliation.GET("/month", analyticsHandler.ReconcileMonth)
		}

		analysis := protected.Group("/analysis")
		{
			analysis.GET("/anomalies", analyticsHandler.DetectAnomalies)
			analysis.GET("/fraud", analyticsHandler.DetectFraud)
			analysis.GET("/performance", analyticsHandler.ClassifyPerformance)
		}

		workflowGroup := protected.Group("/workflow")
		{
			workflowGroup.GET("/tasks", analyticsHandler.PendingTasks)
			workflowGroup.GET("/transitions", analyticsHandler.StatusTransitions)
			workflowGroup.GET("/compliance", analyticsHandler.ComplianceReport)
		}

		integrityGroup := protected.Group("/integrity")
		{
			integrityGroup.GET("/check", analyticsHandler.CheckIntegrity)
			integrityGroup.POST("/corrections", analyticsHandler.RunCorrection)
		}

		insightsGroup := protected.Group("/insights")
		{
			insightsGroup.GET("/digest", analyticsHandler.BranchDigest)
		}
	}

	r.GET("/health", healthCheckHandler(redisClient != nil))

	port := ":" + cfg.HTTP.Port
	log.Printf("Starting server on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheckHandler(cacheAvailable bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if !cacheAvailable {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"message":   "Server is running",
			"cache":     cacheAvailable,
			"timestamp": time.Now(),
		})
	}
}
