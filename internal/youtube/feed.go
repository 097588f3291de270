package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
)

// maxFeedEntries bounds how many recent feed items one pull returns.
// YouTube's feed itself only serves the latest 15, this is a guard.
const maxFeedEntries = 50

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string `xml:"videoId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Link      struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Author struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

// FetchFeed pulls the lightweight per-channel feed: the most recent
// videos only, no pagination cursor, and no descriptions. It returns
// every item the feed serves; deduplication against the store belongs
// to the poller.
func (c *Client) FetchFeed(ctx context.Context, channelID string) ([]domain.Video, error) {
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("channel_id", channelID).
		Get(c.feedURL)
	if err != nil {
		return nil, &domain.FetchError{ChannelID: channelID, Op: "feed", Err: err}
	}
	if httpResp.StatusCode() != 200 {
		return nil, &domain.FetchError{ChannelID: channelID, Op: "feed", Err: fmt.Errorf("feed endpoint: HTTP %d", httpResp.StatusCode())}
	}

	var feed atomFeed
	if err := xml.Unmarshal(httpResp.Body(), &feed); err != nil {
		return nil, &domain.FetchError{ChannelID: channelID, Op: "feed", Err: fmt.Errorf("parse feed: %w", err)}
	}

	entries := feed.Entries
	if len(entries) > maxFeedEntries {
		entries = entries[:maxFeedEntries]
	}

	videos := make([]domain.Video, 0, len(entries))
	for _, entry := range entries {
		if entry.VideoID == "" {
			continue
		}
		video := domain.Video{
			VideoID:      entry.VideoID,
			Title:        entry.Title,
			ChannelID:    channelID,
			ChannelTitle: entry.Author.Name,
			Link:         entry.Link.Href,
		}
		if ts, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			video.PublishedAt = &ts
		}
		videos = append(videos, video)
	}

	return videos, nil
}
