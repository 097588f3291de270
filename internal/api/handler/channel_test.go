package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/repository"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/service"
)

// stubStore serves canned channel data for handler tests.
type stubStore struct {
	channels []domain.Channel
	videos   map[string][]repository.VideoPayload
	deleted  []string
}

func (s *stubStore) UpsertBatch(ctx context.Context, ids, documents []string, embeddings [][]float32, payloads []repository.VideoPayload) error {
	return nil
}

func (s *stubStore) GetChannelVideoIDs(ctx context.Context, channelID string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *stubStore) GetChannelVideos(ctx context.Context, channelID string, limit, offset int) ([]repository.VideoPayload, error) {
	return s.videos[channelID], nil
}

func (s *stubStore) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	return s.channels, nil
}

func (s *stubStore) DeleteChannel(ctx context.Context, channelID string) error {
	s.deleted = append(s.deleted, channelID)
	return nil
}

func (s *stubStore) CountChannel(ctx context.Context, channelID string) (int, error) {
	return len(s.videos[channelID]), nil
}

func (s *stubStore) Search(ctx context.Context, vector []float32, topK int, channelID string) ([]repository.SearchResult, error) {
	return nil, nil
}

func (s *stubStore) ExportChannel(ctx context.Context, channelID string) ([]repository.ExportRecord, error) {
	return nil, nil
}

func newChannelRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewChannelHandler(store, service.NewExporterService(store, nil))
	r.GET("/api/v1/channels", h.List)
	r.GET("/api/v1/channels/:id/videos", h.Videos)
	r.DELETE("/api/v1/channels/:id", h.Delete)
	return r
}

func TestChannelList(t *testing.T) {
	store := &stubStore{
		channels: []domain.Channel{
			{ChannelID: "UCx", ChannelTitle: "X", VideoCount: 2},
			{ChannelID: "UCy", ChannelTitle: "Y", VideoCount: 1},
		},
	}
	router := newChannelRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Channels []domain.Channel `json:"channels"`
		Total    int              `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Total != 2 || len(resp.Channels) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestChannelVideos(t *testing.T) {
	store := &stubStore{
		videos: map[string][]repository.VideoPayload{
			"UCx": {{VideoID: "vid1", ChannelID: "UCx"}},
		},
	}
	router := newChannelRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/UCx/videos?limit=10", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		ChannelID string                    `json:"channel_id"`
		Videos    []repository.VideoPayload `json:"videos"`
		Total     int                       `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.ChannelID != "UCx" || resp.Total != 1 || len(resp.Videos) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestChannelDelete(t *testing.T) {
	store := &stubStore{
		videos: map[string][]repository.VideoPayload{
			"UCx": {{VideoID: "vid1", ChannelID: "UCx"}},
		},
	}
	router := newChannelRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/channels/UCx", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(store.deleted) != 1 || store.deleted[0] != "UCx" {
		t.Errorf("deleted = %v", store.deleted)
	}
}

func TestChannelDeleteNotFound(t *testing.T) {
	router := newChannelRouter(&stubStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/channels/UCmissing", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
