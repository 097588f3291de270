package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/api"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/api/middleware"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/config"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/repository"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/service"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/youtube"
)

func main() {
	// Initialize logger from environment (rotation, format, level)
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize vector store
	store, err := repository.NewVideoVectorRepository(&repository.VideoStoreConfig{
		Host:               cfg.Qdrant.Host,
		Port:               cfg.Qdrant.Port,
		Collection:         cfg.Qdrant.Collection,
		APIKey:             cfg.Qdrant.APIKey,
		UseTLS:             cfg.Qdrant.UseTLS,
		VectorDimension:    cfg.Qdrant.Dimensions,
		RecreateOnMismatch: cfg.Qdrant.RecreateOnMismatch,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize vector store")
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure vector collection")
	}

	// Initialize clients and services
	youtubeClient := youtube.NewClient(&youtube.ClientConfig{
		APIKey:  cfg.YouTube.APIKey,
		BaseURL: cfg.YouTube.BaseURL,
		FeedURL: cfg.YouTube.FeedURL,
	})

	embeddingService := service.NewEmbeddingService(&service.EmbeddingConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.EmbeddingDimensions,
	})

	indexerService := service.NewIndexerService(store, embeddingService, appLogger, &service.IndexerConfig{
		BatchSize: cfg.Sync.BatchSize,
	})

	syncService := service.NewSyncService(
		service.NewYouTubeFetcher(youtubeClient),
		indexerService,
		appLogger,
		&service.SyncServiceConfig{Workers: cfg.Sync.Workers},
	)
	syncManager := service.NewSyncManager(syncService, appLogger)

	retrieverService := service.NewRetrieverService(store, embeddingService, appLogger, &service.RetrieverConfig{
		TopK:    cfg.Search.TopK,
		MaxTopK: cfg.Search.MaxTopK,
	})

	answererService := service.NewAnswererService(retrieverService, appLogger, &service.AnswererConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.CompletionModel,
	})

	exporterService := service.NewExporterService(store, appLogger)

	// Start the feed poller
	if cfg.Poller.Enabled {
		pollerService := service.NewPollerService(store, youtubeClient, indexerService, appLogger, &service.PollerServiceConfig{
			Interval: time.Duration(cfg.Poller.IntervalSeconds) * time.Second,
		})
		go pollerService.Run(ctx)
	}

	// Setup router
	router := api.SetupRouter(&api.RouterConfig{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		Logger:      appLogger,
		SyncManager: syncManager,
		Answerer:    answererService,
		Store:       store,
		Exporter:    exporterService,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Stop the poller and any active sync run
	cancel()
	syncManager.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
