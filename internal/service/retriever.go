package service

import (
	"context"
	"strings"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/repository"
)

const (
	defaultTopK = 5
	maxTopK     = 50
)

// RetrieverService answers "which indexed videos match this text" by
// embedding the query and searching the vector store.
type RetrieverService struct {
	store     VideoStore
	embedding EmbeddingProvider
	logger    *logger.Logger
	topK      int
	maxTopK   int
}

// RetrieverConfig holds configuration for the retriever.
type RetrieverConfig struct {
	TopK    int
	MaxTopK int
}

// NewRetrieverService creates a new retriever service.
func NewRetrieverService(store VideoStore, embedding EmbeddingProvider, log *logger.Logger, cfg *RetrieverConfig) *RetrieverService {
	topK := defaultTopK
	max := maxTopK
	if cfg != nil {
		if cfg.TopK > 0 {
			topK = cfg.TopK
		}
		if cfg.MaxTopK > 0 {
			max = cfg.MaxTopK
		}
	}

	return &RetrieverService{
		store:     store,
		embedding: embedding,
		logger:    log,
		topK:      topK,
		maxTopK:   max,
	}
}

// Retrieve returns up to topK videos most similar to the query, most
// similar first. A non-empty channelID restricts the candidate set to
// that channel before ranking. The heterogeneous payload shapes the
// store may contain (full sync records, feed records) are normalized
// here, at the boundary, so callers always see complete records.
func (s *RetrieverService) Retrieve(ctx context.Context, query string, topK int, channelID string) ([]domain.RetrievedVideo, error) {
	if topK <= 0 {
		topK = s.topK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	vector, err := s.embedding.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.store.Search(ctx, vector, topK, channelID)
	if err != nil {
		return nil, err
	}

	logger.CtxDebug(ctx, "Retrieved candidates: query=%q, top_k=%d, channel_id=%q, hits=%d",
		query, topK, channelID, len(results))

	videos := make([]domain.RetrievedVideo, 0, len(results))
	for _, result := range results {
		if result.Payload == nil {
			continue
		}
		score := result.Score
		video := normalizeRetrieved(*result.Payload)
		video.Score = &score
		videos = append(videos, video)
	}

	return videos, nil
}

// normalizeRetrieved maps one stored payload to the canonical retrieved
// shape. Field fallbacks cover records written before the payload
// carried explicit title fields and feed records with title-only
// documents.
func normalizeRetrieved(p repository.VideoPayload) domain.RetrievedVideo {
	title := p.VideoTitle
	if title == "" {
		title = p.Document
	}

	channel := p.ChannelTitle
	if channel == "" {
		channel = "Unknown Channel"
	}

	description := p.Document
	if title != "" && strings.HasPrefix(p.Document, title+" - ") {
		description = strings.TrimPrefix(p.Document, title+" - ")
	}

	link := p.Link
	if link == "" && p.VideoID != "" {
		link = "https://youtube.com/watch?v=" + p.VideoID
	}

	return domain.RetrievedVideo{
		VideoID:     p.VideoID,
		VideoTitle:  title,
		Channel:     channel,
		Description: description,
		Link:        link,
	}
}
