package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"certmap/internal/ai/openai"
	"certmap/internal/api"
	"certmap/internal/api/handlers"
	"certmap/internal/repository"
	"certmap/internal/service"
	"certmap/pkg/config"
	"certmap/pkg/logger"
	"certmap/pkg/objectstore"
	"certmap/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting certmap service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize object storage
	store, err := objectstore.New(ctx, &cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Initialize AI providers
	embedderProvider, err := openai.NewEmbedder(&cfg.OpenAI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize embedding provider", zap.Error(err))
	}
	generator, err := openai.NewGenerator(&cfg.OpenAI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize generative provider", zap.Error(err))
	}

	// Initialize repositories
	hierarchyRepo := repository.NewHierarchyRepository(db, appLogger)
	contentRepo := repository.NewContentRepository(db, appLogger)
	mappingRepo := repository.NewMappingRepository(db, appLogger)
	modelRepo := repository.NewModelRepository(db, appLogger)

	// Initialize services
	embeddingService := service.NewEmbeddingService(embedderProvider, appLogger)
	extractionService := service.NewExtractionService(store, appLogger)
	hierarchyEmbedder := service.NewHierarchyEmbedder(hierarchyRepo, embeddingService, cfg.Mapping.EmbeddingBatchSize, appLogger)
	videoMapper := service.NewVideoMapper(
		contentRepo,
		hierarchyRepo,
		embeddingService,
		cfg.Mapping.ConfidenceThreshold,
		cfg.Mapping.MaxSuggestions,
		appLogger,
	)
	documentMapper := service.NewDocumentMapper(
		contentRepo,
		hierarchyRepo,
		extractionService,
		generator,
		modelRepo,
		cfg.OpenAI.ChatModel,
		cfg.Mapping.ConfidenceThreshold,
		cfg.Mapping.MaxSuggestions,
		cfg.Mapping.MaxDocumentChars,
		appLogger,
	)
	mappingService := service.NewMappingService(mappingRepo, appLogger)

	// Initialize handlers
	mappingHandler := handlers.NewMappingHandler(videoMapper, documentMapper, mappingService, appLogger)
	embeddingHandler := handlers.NewEmbeddingHandler(hierarchyEmbedder, appLogger)

	// Setup router
	app := api.SetupRouter(mappingHandler, embeddingHandler, db, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
