package domain

import "time"

// Video represents the metadata for one item belonging to a channel.
// Content fields are immutable once indexed; a full resync overwrites
// the whole record because upserts key on VideoID.
type Video struct {
	VideoID      string     `json:"video_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelID    string     `json:"channel_id"`
	ChannelTitle string     `json:"channel_title"`
	ChannelURL   string     `json:"channel_url,omitempty"`
	Link         string     `json:"link,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// WatchURL returns the public watch link for the video, falling back to
// the canonical URL form when the feed did not supply one.
func (v Video) WatchURL() string {
	if v.Link != "" {
		return v.Link
	}
	return "https://youtube.com/watch?v=" + v.VideoID
}

// Document builds the text that gets embedded for this video.
// Feed-discovered videos have no description; the document is then the
// bare title until a full sync overwrites the record.
func (v Video) Document() string {
	if v.Description == "" {
		return v.Title
	}
	return v.Title + " - " + v.Description
}

// Channel is a derived view over the vector store: a channel is known
// to the system iff at least one of its videos is indexed.
type Channel struct {
	ChannelID    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
	VideoCount   int    `json:"video_count"`
}

// RetrievedVideo is the canonical shape returned by the retriever after
// normalizing the heterogeneous payloads the store may contain (full
// sync records, feed records, legacy field names).
type RetrievedVideo struct {
	VideoID     string   `json:"video_id"`
	VideoTitle  string   `json:"video_title"`
	Channel     string   `json:"channel"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Score       *float32 `json:"score,omitempty"`
}
