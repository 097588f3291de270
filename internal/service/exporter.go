package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/repository"
)

// ExporterService dumps one channel's indexed records, embeddings
// included, to a JSON file for offline inspection or backfill.
type ExporterService struct {
	store  VideoStore
	logger *logger.Logger
}

// NewExporterService creates a new exporter service.
func NewExporterService(store VideoStore, log *logger.Logger) *ExporterService {
	return &ExporterService{store: store, logger: log}
}

// ChannelExport is the on-disk shape of a channel dump.
type ChannelExport struct {
	ChannelID string                    `json:"channel_id"`
	Count     int                       `json:"count"`
	Records   []repository.ExportRecord `json:"records"`
}

// ExportChannel writes the channel dump to a temp file and returns its
// path. The caller owns the file and removes it after serving.
func (s *ExporterService) ExportChannel(ctx context.Context, channelID string) (string, error) {
	records, err := s.store.ExportChannel(ctx, channelID)
	if err != nil {
		return "", err
	}

	export := ChannelExport{
		ChannelID: channelID,
		Count:     len(records),
		Records:   records,
	}

	file, err := os.CreateTemp("", "channel-export-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	encoder := json.NewEncoder(file)
	if err := encoder.Encode(export); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	logger.CtxInfo(ctx, "Exported channel: channel_id=%s, records=%d, path=%s",
		channelID, len(records), file.Name())

	return file.Name(), nil
}
