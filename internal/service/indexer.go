package service

import (
	"context"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/repository"
)

const (
	defaultBatchSize = 25
	maxBatchSize     = 50
)

// VideoStore is the slice of the vector store the services depend on.
// Implemented by repository.VideoVectorRepository; tests substitute
// fakes.
type VideoStore interface {
	UpsertBatch(ctx context.Context, ids, documents []string, embeddings [][]float32, payloads []repository.VideoPayload) error
	GetChannelVideoIDs(ctx context.Context, channelID string) (map[string]struct{}, error)
	GetChannelVideos(ctx context.Context, channelID string, limit, offset int) ([]repository.VideoPayload, error)
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	CountChannel(ctx context.Context, channelID string) (int, error)
	Search(ctx context.Context, vector []float32, topK int, channelID string) ([]repository.SearchResult, error)
	ExportChannel(ctx context.Context, channelID string) ([]repository.ExportRecord, error)
}

// IndexerService embeds video documents and writes them to the vector
// store in batches.
type IndexerService struct {
	store     VideoStore
	embedding EmbeddingProvider
	logger    *logger.Logger
	batchSize int
}

// IndexerConfig holds configuration for the indexer.
type IndexerConfig struct {
	BatchSize int
}

// NewIndexerService creates a new indexer service.
func NewIndexerService(store VideoStore, embedding EmbeddingProvider, log *logger.Logger, cfg *IndexerConfig) *IndexerService {
	batchSize := defaultBatchSize
	if cfg != nil && cfg.BatchSize > 0 {
		batchSize = cfg.BatchSize
	}
	if batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}

	return &IndexerService{
		store:     store,
		embedding: embedding,
		logger:    log,
		batchSize: batchSize,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *IndexerService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Index embeds and upserts the given videos. channelURL is stored as
// provenance metadata on every record of the run. Returns the number of
// videos written; a failed batch fails only itself, batches already
// written stay valid.
func (s *IndexerService) Index(ctx context.Context, videos []domain.Video, channelURL string) (int, error) {
	if len(videos) == 0 {
		return 0, nil
	}

	indexed := 0
	var firstErr error

	for start := 0; start < len(videos); start += s.batchSize {
		end := start + s.batchSize
		if end > len(videos) {
			end = len(videos)
		}
		batch := videos[start:end]

		if err := s.indexBatch(ctx, batch, channelURL); err != nil {
			s.log(ctx).WithFields(logger.Fields{
				"batch_start": start,
				"batch_size":  len(batch),
			}).WithError(err).Error("Failed to index batch")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		indexed += len(batch)
	}

	return indexed, firstErr
}

func (s *IndexerService) indexBatch(ctx context.Context, batch []domain.Video, channelURL string) error {
	ids := make([]string, len(batch))
	documents := make([]string, len(batch))
	payloads := make([]repository.VideoPayload, len(batch))

	for i, video := range batch {
		if channelURL != "" && video.ChannelURL == "" {
			video.ChannelURL = channelURL
		}
		ids[i] = video.VideoID
		documents[i] = video.Document()
		payloads[i] = repository.PayloadForVideo(video, documents[i])
	}

	embeddings, err := s.embedding.EmbedBatch(ctx, documents)
	if err != nil {
		return err
	}

	return s.store.UpsertBatch(ctx, ids, documents, embeddings, payloads)
}
