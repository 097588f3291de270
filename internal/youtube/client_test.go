package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
)

func newTestAPIServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(&ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		FeedURL: server.URL + "/feeds/videos.xml",
	})
	return server, client
}

func TestResolveChannelID(t *testing.T) {
	_, client := newTestAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		handle := r.URL.Query().Get("forHandle")
		if handle == "ghostchannel" {
			json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": "UCresolved" + handle}},
		})
	})

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{
			name: "channel URL",
			ref:  "https://www.youtube.com/channel/UCabc123",
			want: "UCabc123",
		},
		{
			name: "channel URL with trailing path",
			ref:  "https://www.youtube.com/channel/UCabc123/videos",
			want: "UCabc123",
		},
		{
			name: "bare canonical id",
			ref:  "UCabc123",
			want: "UCabc123",
		},
		{
			name: "handle URL",
			ref:  "https://www.youtube.com/@somehandle",
			want: "UCresolvedsomehandle",
		},
		{
			name: "bare handle",
			ref:  "@somehandle",
			want: "UCresolvedsomehandle",
		},
		{
			name: "handle URL with trailing path",
			ref:  "https://www.youtube.com/@somehandle/videos",
			want: "UCresolvedsomehandle",
		},
		{
			name:    "unknown handle",
			ref:     "@ghostchannel",
			wantErr: true,
		},
		{
			name:    "unsupported format",
			ref:     "https://www.youtube.com/watch?v=abc",
			wantErr: true,
		},
		{
			name:    "empty channel segment",
			ref:     "https://www.youtube.com/channel/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.ResolveChannelID(context.Background(), tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got id %q", got)
				}
				var resErr *domain.ResolutionError
				if !errors.As(err, &resErr) {
					t.Errorf("expected ResolutionError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveChannelID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolveHandleWithoutAPIKey(t *testing.T) {
	client := NewClient(&ClientConfig{})

	_, err := client.ResolveChannelID(context.Background(), "@somehandle")
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

// TestFetchAllPagesPagination walks a 120-video channel and expects
// three pages of 50, 50 and 20.
func TestFetchAllPagesPagination(t *testing.T) {
	const totalVideos = 120

	pages := map[string]struct {
		start int
		count int
		next  string
	}{
		"":      {0, 50, "page2"},
		"page2": {50, 50, "page3"},
		"page3": {100, 20, ""},
	}

	_, client := newTestAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels":
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id":      "UCbig",
					"snippet": map[string]any{"title": "Big Channel"},
					"contentDetails": map[string]any{
						"relatedPlaylists": map[string]any{"uploads": "UUbig"},
					},
				}},
			})
		case "/playlistItems":
			if got := r.URL.Query().Get("maxResults"); got != "50" {
				t.Errorf("maxResults = %q, want 50", got)
			}
			page, ok := pages[r.URL.Query().Get("pageToken")]
			if !ok {
				t.Errorf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
				http.Error(w, "bad token", http.StatusBadRequest)
				return
			}
			items := make([]map[string]any, page.count)
			for i := range items {
				n := page.start + i
				items[i] = map[string]any{
					"snippet": map[string]any{
						"title":       fmt.Sprintf("Video %d", n),
						"description": fmt.Sprintf("Description %d", n),
						"publishedAt": "2024-05-01T10:00:00Z",
						"resourceId":  map[string]any{"videoId": fmt.Sprintf("vid%03d", n)},
					},
				}
			}
			json.NewEncoder(w).Encode(map[string]any{
				"items":         items,
				"nextPageToken": page.next,
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	it, err := client.FetchAllPages(context.Background(), "UCbig")
	if err != nil {
		t.Fatalf("FetchAllPages: %v", err)
	}
	if it.ChannelTitle() != "Big Channel" {
		t.Errorf("ChannelTitle() = %q, want %q", it.ChannelTitle(), "Big Channel")
	}

	var sizes []int
	total := 0
	for {
		page, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if page == nil {
			break
		}
		sizes = append(sizes, len(page))
		total += len(page)
		for _, video := range page {
			if video.ChannelID != "UCbig" {
				t.Fatalf("video %s has channel id %q", video.VideoID, video.ChannelID)
			}
			if video.Title == "" || video.Description == "" {
				t.Fatalf("video %s has empty metadata", video.VideoID)
			}
			if video.PublishedAt == nil {
				t.Fatalf("video %s has no published timestamp", video.VideoID)
			}
		}
	}

	wantSizes := []int{50, 50, 20}
	if len(sizes) != len(wantSizes) {
		t.Fatalf("got %d pages %v, want %v", len(sizes), sizes, wantSizes)
	}
	for i, want := range wantSizes {
		if sizes[i] != want {
			t.Errorf("page %d has %d videos, want %d", i, sizes[i], want)
		}
	}
	if total != totalVideos {
		t.Errorf("total videos = %d, want %d", total, totalVideos)
	}

	// Exhausted iterator keeps returning nil, nil.
	page, err := it.Next(context.Background())
	if page != nil || err != nil {
		t.Errorf("Next after done = (%v, %v), want (nil, nil)", page, err)
	}
}

func TestFetchAllPagesPageError(t *testing.T) {
	calls := 0
	_, client := newTestAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels":
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id":      "UCflaky",
					"snippet": map[string]any{"title": "Flaky"},
					"contentDetails": map[string]any{
						"relatedPlaylists": map[string]any{"uploads": "UUflaky"},
					},
				}},
			})
		case "/playlistItems":
			calls++
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 403, "message": "quota exceeded"},
			})
		}
	})

	it, err := client.FetchAllPages(context.Background(), "UCflaky")
	if err != nil {
		t.Fatalf("FetchAllPages: %v", err)
	}

	_, err = it.Next(context.Background())
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T: %v", err, err)
	}
	if calls != 1 {
		t.Errorf("playlistItems called %d times, want 1", calls)
	}
}
