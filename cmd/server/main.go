package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/airtable"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/config"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/genai"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/handlers"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/metrics"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/middleware"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/processor"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/scheduler"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/services"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	metrics.Register()

	// Initialize upstream clients
	airtableClient := airtable.NewClient("", cfg.AirtableBaseID, cfg.AirtableTableName, cfg.AirtableAPIKey)
	genaiClient := genai.NewClient("", cfg.GeminiAPIKey, cfg.GeminiModel)

	storageClient, err := storage.NewClient(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket, cfg.StoragePublicURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	// Initialize services
	generationService := services.NewGenerationService(genaiClient, storageClient, logger)
	orderService := services.NewOrderService(airtableClient, storageClient, logger)

	// Initialize batch processor and its scheduler
	batchProcessor := processor.New(
		airtableClient,
		generationService,
		orderService,
		processor.SettingsFromConfig(cfg),
		cfg.SerializeRuns,
		logger,
	)

	if cfg.AutoProcessEnabled {
		sched := scheduler.New(batchProcessor, cfg.ProcessInterval, logger)
		sched.Start(context.Background())
		defer sched.Stop()
	} else {
		logger.Info("automatic processing disabled")
	}

	// Initialize handlers
	generateHandler := handlers.NewGenerateHandler(generationService)
	recordsHandler := handlers.NewRecordsHandler(orderService)
	uploadHandler := handlers.NewUploadHandler(orderService)
	galleryHandler := handlers.NewGalleryHandler(storageClient, logger)
	fetchDataHandler := handlers.NewFetchDataHandler(airtableClient)
	processHandler := handlers.NewProcessHandler(batchProcessor)

	// Setup router
	router := gin.Default()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check and metrics (no auth)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public upload surface
	router.POST("/ai", generateHandler.Generate)
	router.POST("/airtable", recordsHandler.Save)
	router.POST("/upload_images", uploadHandler.Upload)
	router.GET("/list-images", galleryHandler.List)
	router.GET("/fetch-airtable-data", fetchDataHandler.Fetch)
	router.POST("/fetch-airtable-data", fetchDataHandler.Fetch)

	// Batch trigger
	router.GET("/scheduled-processor", processHandler.Describe)
	router.POST("/scheduled-processor", middleware.AdminAuth(cfg.AdminJWTSecret), processHandler.Trigger)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
