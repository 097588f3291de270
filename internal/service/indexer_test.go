package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
)

func makeVideos(n int, channelID string) []domain.Video {
	videos := make([]domain.Video, n)
	for i := range videos {
		videos[i] = domain.Video{
			VideoID:     fmt.Sprintf("%s-vid%03d", channelID, i),
			Title:       fmt.Sprintf("Video %d", i),
			Description: fmt.Sprintf("Description %d", i),
			ChannelID:   channelID,
		}
	}
	return videos
}

func TestIndexerBatching(t *testing.T) {
	store := newFakeStore()
	embedder := &fakeEmbedder{}
	indexer := NewIndexerService(store, embedder, nil, &IndexerConfig{BatchSize: 25})

	indexed, err := indexer.Index(context.Background(), makeVideos(60, "UCx"), "")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if indexed != 60 {
		t.Errorf("indexed = %d, want 60", indexed)
	}

	wantBatches := []int{25, 25, 10}
	if len(embedder.batchSizes) != len(wantBatches) {
		t.Fatalf("got %d embed batches %v, want %v", len(embedder.batchSizes), embedder.batchSizes, wantBatches)
	}
	for i, want := range wantBatches {
		if embedder.batchSizes[i] != want {
			t.Errorf("batch %d size = %d, want %d", i, embedder.batchSizes[i], want)
		}
	}
	if len(store.points) != 60 {
		t.Errorf("store has %d points, want 60", len(store.points))
	}
}

// TestIndexerIdempotent re-indexes the same videos and expects the
// store to keep one record per video id.
func TestIndexerIdempotent(t *testing.T) {
	store := newFakeStore()
	embedder := &fakeEmbedder{}
	indexer := NewIndexerService(store, embedder, nil, nil)
	videos := makeVideos(5, "UCx")

	for run := 0; run < 2; run++ {
		indexed, err := indexer.Index(context.Background(), videos, "")
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if indexed != 5 {
			t.Errorf("run %d indexed = %d, want 5", run, indexed)
		}
	}

	if len(store.points) != 5 {
		t.Errorf("store has %d points after re-index, want 5", len(store.points))
	}
}

// TestIndexerFailedBatchIsolated fails the second of three batches and
// expects the other two to survive.
func TestIndexerFailedBatchIsolated(t *testing.T) {
	store := newFakeStore()
	embedder := &fakeEmbedder{failOnCall: 2}
	indexer := NewIndexerService(store, embedder, nil, &IndexerConfig{BatchSize: 25})

	indexed, err := indexer.Index(context.Background(), makeVideos(60, "UCx"), "")
	if err == nil {
		t.Fatal("expected error from failed batch")
	}
	if indexed != 35 {
		t.Errorf("indexed = %d, want 35 (batches of 25 and 10)", indexed)
	}
	if len(store.points) != 35 {
		t.Errorf("store has %d points, want 35", len(store.points))
	}
}

func TestIndexerDocumentAndProvenance(t *testing.T) {
	store := newFakeStore()
	embedder := &fakeEmbedder{}
	indexer := NewIndexerService(store, embedder, nil, nil)

	videos := []domain.Video{
		{VideoID: "full", Title: "Full", Description: "Has description", ChannelID: "UCx"},
		{VideoID: "bare", Title: "Bare", ChannelID: "UCx"},
	}

	if _, err := indexer.Index(context.Background(), videos, "https://www.youtube.com/@somechannel"); err != nil {
		t.Fatalf("Index: %v", err)
	}

	full := store.points["full"]
	if full.Document != "Full - Has description" {
		t.Errorf("document = %q", full.Document)
	}
	if full.ChannelURL != "https://www.youtube.com/@somechannel" {
		t.Errorf("channel url = %q, want provenance from run", full.ChannelURL)
	}

	bare := store.points["bare"]
	if bare.Document != "Bare" {
		t.Errorf("title-only document = %q, want %q", bare.Document, "Bare")
	}
}

func TestIndexerEmptyInput(t *testing.T) {
	indexer := NewIndexerService(newFakeStore(), &fakeEmbedder{}, nil, nil)

	indexed, err := indexer.Index(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if indexed != 0 {
		t.Errorf("indexed = %d, want 0", indexed)
	}
}
