package repository

import (
	"testing"
	"time"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
)

// TestPointIDForVideoDeterministic verifies that the same video id
// always maps to the same point id, so re-indexing upserts in place.
func TestPointIDForVideoDeterministic(t *testing.T) {
	tests := []struct {
		name    string
		videoID string
	}{
		{name: "typical id", videoID: "dQw4w9WgXcQ"},
		{name: "id with dash and underscore", videoID: "a-b_c123XYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := pointIDForVideo(tt.videoID)
			second := pointIDForVideo(tt.videoID)

			if first != second {
				t.Errorf("point id mismatch: %s != %s", first, second)
			}
			if len(first) != 36 {
				t.Errorf("invalid UUID length: got %d, want 36", len(first))
			}
		})
	}
}

func TestPointIDForVideoUniqueness(t *testing.T) {
	a := pointIDForVideo("videoA")
	b := pointIDForVideo("videoB")
	if a == b {
		t.Errorf("different video ids should produce different point ids: %s == %s", a, b)
	}
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name       string
		ids        []string
		documents  []string
		embeddings [][]float32
		payloads   []VideoPayload
		wantErr    bool
	}{
		{
			name:       "equal lengths",
			ids:        []string{"a", "b"},
			documents:  []string{"doc a", "doc b"},
			embeddings: [][]float32{{0.1}, {0.2}},
			payloads:   []VideoPayload{{VideoID: "a"}, {VideoID: "b"}},
		},
		{
			name:       "empty batch",
			ids:        []string{},
			documents:  []string{},
			embeddings: [][]float32{},
			payloads:   []VideoPayload{},
		},
		{
			name:       "missing embedding",
			ids:        []string{"a", "b"},
			documents:  []string{"doc a", "doc b"},
			embeddings: [][]float32{{0.1}},
			payloads:   []VideoPayload{{VideoID: "a"}, {VideoID: "b"}},
			wantErr:    true,
		},
		{
			name:       "extra payload",
			ids:        []string{"a"},
			documents:  []string{"doc a"},
			embeddings: [][]float32{{0.1}},
			payloads:   []VideoPayload{{VideoID: "a"}, {VideoID: "b"}},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatch(tt.ids, tt.documents, tt.embeddings, tt.payloads)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBatch error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	payload := VideoPayload{
		VideoID:      "vid123",
		Document:     "Go Tutorial - Learn Go fast",
		VideoTitle:   "Go Tutorial",
		ChannelID:    "UCgo",
		ChannelTitle: "Go Channel",
		ChannelURL:   "https://www.youtube.com/@gochannel",
		Link:         "https://www.youtube.com/watch?v=vid123",
		PublishedAt:  "2024-05-01T10:00:00Z",
	}

	parsed := parsePayload(payloadValues(payload))
	if parsed == nil {
		t.Fatal("parsePayload returned nil")
	}
	if *parsed != payload {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *parsed, payload)
	}
}

// TestPayloadOmitsEmptyFields verifies feed records store only the
// fields they actually carry.
func TestPayloadOmitsEmptyFields(t *testing.T) {
	values := payloadValues(VideoPayload{
		VideoID:  "vid123",
		Document: "Title only",
	})

	if _, ok := values["video_id"]; !ok {
		t.Error("video_id must always be stored")
	}
	if _, ok := values["document"]; !ok {
		t.Error("document must always be stored")
	}
	for _, key := range []string{"channel_title", "channel_url", "link", "published_at"} {
		if _, ok := values[key]; ok {
			t.Errorf("empty field %q should be omitted", key)
		}
	}
}

func TestParsePayloadLegacyTitle(t *testing.T) {
	legacy := VideoPayload{VideoID: "old1", Document: "Old video"}
	values := payloadValues(legacy)
	values["title"] = stringValue("Old video title")

	parsed := parsePayload(values)
	if parsed.VideoTitle != "Old video title" {
		t.Errorf("VideoTitle = %q, want legacy title fallback", parsed.VideoTitle)
	}
}

// TestBuildPointsLeavesInputAlone verifies the batch assembly stores
// the embedded document on each point without writing back into the
// caller's payload slice.
func TestBuildPointsLeavesInputAlone(t *testing.T) {
	ids := []string{"vid1", "vid2"}
	documents := []string{"Title one - desc", "Title two - desc"}
	embeddings := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	payloads := []VideoPayload{
		{VideoID: "vid1", VideoTitle: "Title one"},
		{VideoID: "vid2", VideoTitle: "Title two"},
	}

	points := buildPoints(ids, documents, embeddings, payloads)

	for i := range payloads {
		if payloads[i].Document != "" {
			t.Errorf("payloads[%d].Document = %q, caller slice was mutated", i, payloads[i].Document)
		}
	}
	for i, point := range points {
		stored := point.GetPayload()["document"].GetStringValue()
		if stored != documents[i] {
			t.Errorf("point %d stored document %q, want %q", i, stored, documents[i])
		}
		if point.GetId().GetUuid() != pointIDForVideo(ids[i]) {
			t.Errorf("point %d id does not derive from video id %q", i, ids[i])
		}
	}
}

func TestPayloadForVideo(t *testing.T) {
	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	video := domain.Video{
		VideoID:      "vid123",
		Title:        "Go Tutorial",
		Description:  "Learn Go fast",
		ChannelID:    "UCgo",
		ChannelTitle: "Go Channel",
		ChannelURL:   "https://www.youtube.com/@gochannel",
		Link:         "https://www.youtube.com/watch?v=vid123",
		PublishedAt:  &published,
	}

	payload := PayloadForVideo(video, video.Document())

	if payload.Document != "Go Tutorial - Learn Go fast" {
		t.Errorf("Document = %q", payload.Document)
	}
	if payload.PublishedAt != "2024-05-01T10:00:00Z" {
		t.Errorf("PublishedAt = %q", payload.PublishedAt)
	}
	if payload.ChannelID != "UCgo" || payload.VideoTitle != "Go Tutorial" {
		t.Errorf("unexpected payload %+v", payload)
	}

	bare := PayloadForVideo(domain.Video{VideoID: "vid456", Title: "No date"}, "No date")
	if bare.PublishedAt != "" {
		t.Errorf("PublishedAt = %q, want empty for video without timestamp", bare.PublishedAt)
	}
}
