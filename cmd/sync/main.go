package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/config"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/repository"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/service"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/youtube"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		ServiceName: "ytsurfer-sync",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	channels := flag.String("channels", "", "Comma-separated channel URLs or handles to sync")
	ask := flag.String("ask", "", "Question to answer after syncing")
	topK := flag.Int("top-k", 0, "Number of videos to retrieve for the question")
	channelID := flag.String("channel-id", "", "Restrict the question to one channel id")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *channels == "" && *ask == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -channels and/or -ask")
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
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

	// Cancel on Ctrl-C; in-flight batches finish before the run stops
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := store.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure vector collection")
	}

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

	if *channels != "" {
		runSync(ctx, youtubeClient, indexerService, appLogger, cfg, *channels)
	}

	if *ask != "" {
		askQuestion(ctx, store, embeddingService, appLogger, cfg, *ask, *topK, *channelID)
	}
}

func runSync(ctx context.Context, client *youtube.Client, indexer *service.IndexerService, appLogger *logger.Logger, cfg *config.Config, channels string) {
	var channelURLs []string
	for _, raw := range strings.Split(channels, ",") {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			channelURLs = append(channelURLs, trimmed)
		}
	}
	if len(channelURLs) == 0 {
		appLogger.Fatal("No channel URLs given")
	}

	syncService := service.NewSyncService(
		service.NewYouTubeFetcher(client),
		indexer,
		appLogger,
		&service.SyncServiceConfig{Workers: cfg.Sync.Workers},
	)

	start := time.Now()
	events := make(chan domain.SyncEvent, 16)
	done := make(chan *domain.SyncSummary, 1)

	go func() {
		done <- syncService.Sync(ctx, channelURLs, events)
	}()

	for event := range events {
		line := event.Message
		if event.Total > 0 {
			line = fmt.Sprintf("%s (%.0f%%)", event.Message, event.Percent)
		}
		if event.Error != "" {
			line = fmt.Sprintf("%s [error: %s]", line, event.Error)
		}
		fmt.Println(line)
	}

	summary := <-done
	state := string(summary.State)
	if state != "" {
		state = strings.ToUpper(state[:1]) + state[1:]
	}
	fmt.Printf("\n%s in %s: %d channels, %d videos indexed, %d failures\n",
		state, time.Since(start).Round(time.Second),
		summary.Channels, summary.VideosIndexed, summary.Failures)
}

func askQuestion(ctx context.Context, store service.VideoStore, embedding service.EmbeddingProvider, appLogger *logger.Logger, cfg *config.Config, query string, topK int, channelID string) {
	retriever := service.NewRetrieverService(store, embedding, appLogger, &service.RetrieverConfig{
		TopK:    cfg.Search.TopK,
		MaxTopK: cfg.Search.MaxTopK,
	})
	answerer := service.NewAnswererService(retriever, appLogger, &service.AnswererConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.CompletionModel,
	})

	answer, err := answerer.Answer(ctx, query, topK, channelID)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to answer question")
	}

	fmt.Println(answer.AnswerText)
	for _, video := range answer.Videos {
		fmt.Printf("  - %s (%s) %s\n", video.VideoTitle, video.Channel, video.Link)
	}
}
