package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultFeedURL = "https://www.youtube.com/feeds/videos.xml"

	// pageSize is the maximum the playlistItems endpoint allows.
	pageSize = 50
)

// Client talks to the YouTube Data API v3 and the per-channel feed
// endpoint. It performs network calls only; it never touches the
// vector store.
type Client struct {
	http    *resty.Client
	apiKey  string
	baseURL string
	feedURL string
}

// ClientConfig holds configuration for the YouTube client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	FeedURL string
}

// NewClient creates a new YouTube client.
func NewClient(cfg *ClientConfig) *Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	feedURL := cfg.FeedURL
	if feedURL == "" {
		feedURL = defaultFeedURL
	}

	return &Client{
		http:    client,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		feedURL: feedURL,
	}
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
	Error *apiError `json:"error,omitempty"`
}

// ResolveChannelID maps a channel reference (raw URL, @handle, or
// canonical id) to the canonical UC… channel id. URLs containing a
// /channel/ segment are extracted directly; handles go through one
// channels.list lookup.
func (c *Client) ResolveChannelID(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if idx := strings.Index(ref, "channel/"); idx != -1 {
		id := ref[idx+len("channel/"):]
		if slash := strings.Index(id, "/"); slash != -1 {
			id = id[:slash]
		}
		if id == "" {
			return "", &domain.ResolutionError{Ref: ref, Reason: "empty channel id segment"}
		}
		return id, nil
	}

	if strings.Contains(ref, "@") {
		handle := ref[strings.LastIndex(ref, "@")+1:]
		if slash := strings.Index(handle, "/"); slash != -1 {
			handle = handle[:slash]
		}
		return c.resolveHandle(ctx, ref, handle)
	}

	// Bare canonical id.
	if strings.HasPrefix(ref, "UC") && !strings.Contains(ref, "/") {
		return ref, nil
	}

	return "", &domain.ResolutionError{Ref: ref, Reason: "unsupported channel reference format"}
}

func (c *Client) resolveHandle(ctx context.Context, ref, handle string) (string, error) {
	if err := c.requireAPIKey(); err != nil {
		return "", err
	}

	var resp channelListResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part":      "id",
			"forHandle": handle,
			"key":       c.apiKey,
		}).
		SetResult(&resp).
		Get(c.baseURL + "/channels")
	if err != nil {
		return "", &domain.FetchError{Op: "resolve handle", Err: err}
	}
	if httpResp.StatusCode() != 200 {
		return "", &domain.FetchError{Op: "resolve handle", Err: apiStatusError(httpResp.StatusCode(), resp.Error)}
	}
	if len(resp.Items) == 0 {
		return "", &domain.ResolutionError{Ref: ref, Reason: "no channel matches handle @" + handle}
	}

	return resp.Items[0].ID, nil
}

// channelInfo fetches the channel title and its uploads playlist id.
func (c *Client) channelInfo(ctx context.Context, channelID string) (title, uploadsPlaylistID string, err error) {
	if err := c.requireAPIKey(); err != nil {
		return "", "", err
	}

	var resp channelListResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part": "contentDetails,snippet",
			"id":   channelID,
			"key":  c.apiKey,
		}).
		SetResult(&resp).
		Get(c.baseURL + "/channels")
	if err != nil {
		return "", "", &domain.FetchError{ChannelID: channelID, Op: "channel info", Err: err}
	}
	if httpResp.StatusCode() != 200 {
		return "", "", &domain.FetchError{ChannelID: channelID, Op: "channel info", Err: apiStatusError(httpResp.StatusCode(), resp.Error)}
	}
	if len(resp.Items) == 0 {
		return "", "", &domain.ResolutionError{Ref: channelID, Reason: "channel not found"}
	}

	return resp.Items[0].Snippet.Title, resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// FetchAllPages resolves the channel's uploads playlist and returns a
// lazy page iterator over its full video listing.
func (c *Client) FetchAllPages(ctx context.Context, channelID string) (*PageIterator, error) {
	title, playlistID, err := c.channelInfo(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if playlistID == "" {
		return nil, &domain.FetchError{ChannelID: channelID, Op: "channel info", Err: fmt.Errorf("channel has no uploads playlist")}
	}

	return &PageIterator{
		client:       c,
		channelID:    channelID,
		channelTitle: title,
		playlistID:   playlistID,
	}, nil
}

func (c *Client) requireAPIKey() error {
	if c.apiKey == "" {
		return &domain.ConfigurationError{Missing: "YOUTUBE_API_KEY"}
	}
	return nil
}

func apiStatusError(status int, apiErr *apiError) error {
	if apiErr != nil && apiErr.Message != "" {
		return fmt.Errorf("youtube api: HTTP %d: %s", status, apiErr.Message)
	}
	return fmt.Errorf("youtube api: HTTP %d", status)
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string    `json:"nextPageToken"`
	Error         *apiError `json:"error,omitempty"`
}

// PageIterator walks the uploads playlist one page at a time, following
// the pagination cursor until the API signals no further pages. Page
// errors propagate; pages are never silently dropped.
type PageIterator struct {
	client       *Client
	channelID    string
	channelTitle string
	playlistID   string
	pageToken    string
	done         bool
}

// ChannelID returns the canonical channel id the iterator is bound to.
func (it *PageIterator) ChannelID() string { return it.channelID }

// ChannelTitle returns the channel title resolved alongside the
// uploads playlist.
func (it *PageIterator) ChannelTitle() string { return it.channelTitle }

// Next returns the next page of videos, or nil, nil after the final
// page has been consumed.
func (it *PageIterator) Next(ctx context.Context) ([]domain.Video, error) {
	if it.done {
		return nil, nil
	}

	params := map[string]string{
		"part":       "snippet",
		"playlistId": it.playlistID,
		"maxResults": fmt.Sprintf("%d", pageSize),
		"key":        it.client.apiKey,
	}
	if it.pageToken != "" {
		params["pageToken"] = it.pageToken
	}

	var resp playlistItemsResponse
	httpResp, err := it.client.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&resp).
		Get(it.client.baseURL + "/playlistItems")
	if err != nil {
		return nil, &domain.FetchError{ChannelID: it.channelID, Op: "playlist page", Err: err}
	}
	if httpResp.StatusCode() != 200 {
		return nil, &domain.FetchError{ChannelID: it.channelID, Op: "playlist page", Err: apiStatusError(httpResp.StatusCode(), resp.Error)}
	}

	videos := make([]domain.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		video := domain.Video{
			VideoID:      item.Snippet.ResourceID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelID:    it.channelID,
			ChannelTitle: it.channelTitle,
		}
		if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			video.PublishedAt = &ts
		}
		videos = append(videos, video)
	}

	it.pageToken = resp.NextPageToken
	if it.pageToken == "" {
		it.done = true
	}

	return videos, nil
}
