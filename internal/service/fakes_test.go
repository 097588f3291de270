package service

import (
	"context"
	"errors"
	"sync"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/repository"
)

// fakeStore is an in-memory VideoStore keyed by video id.
type fakeStore struct {
	mu            sync.Mutex
	points        map[string]repository.VideoPayload
	upsertBatches [][]string
	failUpserts   bool

	searchResults     []repository.SearchResult
	lastSearchTopK    int
	lastSearchChannel string

	exported []repository.ExportRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{points: make(map[string]repository.VideoPayload)}
}

func (f *fakeStore) UpsertBatch(ctx context.Context, ids, documents []string, embeddings [][]float32, payloads []repository.VideoPayload) error {
	if err := repository.ValidateBatch(ids, documents, embeddings, payloads); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failUpserts {
		return errors.New("upsert failed")
	}

	f.upsertBatches = append(f.upsertBatches, ids)
	for i, id := range ids {
		f.points[id] = payloads[i]
	}
	return nil
}

func (f *fakeStore) GetChannelVideoIDs(ctx context.Context, channelID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make(map[string]struct{})
	for id, payload := range f.points {
		if payload.ChannelID == channelID {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func (f *fakeStore) GetChannelVideos(ctx context.Context, channelID string, limit, offset int) ([]repository.VideoPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var payloads []repository.VideoPayload
	for _, payload := range f.points {
		if payload.ChannelID == channelID {
			payloads = append(payloads, payload)
		}
	}
	return payloads, nil
}

func (f *fakeStore) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byID := make(map[string]*domain.Channel)
	var order []string
	for _, payload := range f.points {
		if payload.ChannelID == "" {
			continue
		}
		ch, ok := byID[payload.ChannelID]
		if !ok {
			ch = &domain.Channel{ChannelID: payload.ChannelID, ChannelTitle: payload.ChannelTitle}
			byID[payload.ChannelID] = ch
			order = append(order, payload.ChannelID)
		}
		ch.VideoCount++
	}

	channels := make([]domain.Channel, 0, len(order))
	for _, id := range order {
		channels = append(channels, *byID[id])
	}
	return channels, nil
}

func (f *fakeStore) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, payload := range f.points {
		if payload.ChannelID == channelID {
			delete(f.points, id)
		}
	}
	return nil
}

func (f *fakeStore) CountChannel(ctx context.Context, channelID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, payload := range f.points {
		if payload.ChannelID == channelID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, topK int, channelID string) ([]repository.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastSearchTopK = topK
	f.lastSearchChannel = channelID

	var results []repository.SearchResult
	for _, result := range f.searchResults {
		if channelID != "" && result.Payload != nil && result.Payload.ChannelID != channelID {
			continue
		}
		results = append(results, result)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func (f *fakeStore) ExportChannel(ctx context.Context, channelID string) ([]repository.ExportRecord, error) {
	return f.exported, nil
}

func (f *fakeStore) seed(payloads ...repository.VideoPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payload := range payloads {
		f.points[payload.VideoID] = payload
	}
}

// fakeEmbedder returns fixed-width vectors and records call shapes.
type fakeEmbedder struct {
	mu         sync.Mutex
	batchSizes []int
	queries    []string
	calls      int
	failOnCall int // 1-based EmbedBatch call number that fails; 0 = never
	onEmbed    func()
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.onEmbed != nil {
		f.onEmbed()
	}
	if f.failOnCall > 0 && f.calls == f.failOnCall {
		return nil, &domain.EmbeddingError{Err: errors.New("provider unavailable")}
	}

	f.batchSizes = append(f.batchSizes, len(texts))
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3, 0.4}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return []float32{0.1, 0.2, 0.3, 0.4}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 4 }
