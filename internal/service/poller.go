package service

import (
	"context"
	"time"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
)

const defaultPollInterval = 600 * time.Second

// FeedFetcher pulls the lightweight recent-videos feed for a channel.
// Implemented by youtube.Client.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, channelID string) ([]domain.Video, error)
}

// PollerService keeps indexed channels fresh between full syncs: every
// interval it pulls each known channel's feed and indexes only the
// videos the store has not seen yet.
type PollerService struct {
	store    VideoStore
	feeds    FeedFetcher
	indexer  *IndexerService
	logger   *logger.Logger
	interval time.Duration
}

// PollerServiceConfig holds configuration for the poller.
type PollerServiceConfig struct {
	Interval time.Duration
}

// NewPollerService creates a new poller service.
func NewPollerService(store VideoStore, feeds FeedFetcher, indexer *IndexerService, log *logger.Logger, cfg *PollerServiceConfig) *PollerService {
	interval := defaultPollInterval
	if cfg != nil && cfg.Interval > 0 {
		interval = cfg.Interval
	}

	return &PollerService{
		store:    store,
		feeds:    feeds,
		indexer:  indexer,
		logger:   log,
		interval: interval,
	}
}

// Run loops until ctx is done: one cycle immediately, then one per
// interval.
func (s *PollerService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.interval.String()).Info("Poller started")

	s.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Poller stopped")
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce runs one cycle over every channel currently in the store.
// The channel set is derived from indexed records, so channels synced
// after startup are picked up without reconfiguration.
func (s *PollerService) pollOnce(ctx context.Context) {
	start := time.Now()

	channels, err := s.store.ListChannels(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Poller failed to list channels")
		return
	}

	discovered := 0
	for _, channel := range channels {
		if ctx.Err() != nil {
			return
		}
		n, err := s.pollChannel(ctx, channel.ChannelID)
		if err != nil {
			s.logger.WithField(logger.FieldChannelID, channel.ChannelID).WithError(err).Error("Poller failed for channel")
			continue
		}
		discovered += n
	}

	logger.With(logger.Fields{"channels": len(channels)}).
		WithDuration(time.Since(start).Milliseconds()).
		WithCount(discovered).
		Info(ctx, "Poller cycle finished")
}

func (s *PollerService) pollChannel(ctx context.Context, channelID string) (int, error) {
	feedVideos, err := s.feeds.FetchFeed(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if len(feedVideos) == 0 {
		return 0, nil
	}

	known, err := s.store.GetChannelVideoIDs(ctx, channelID)
	if err != nil {
		return 0, err
	}

	fresh := FilterNewVideos(feedVideos, known)
	if len(fresh) == 0 {
		return 0, nil
	}

	s.logger.WithFields(logger.Fields{
		logger.FieldChannelID: channelID,
		"new_videos":          len(fresh),
	}).Info("Poller discovered new videos")

	return s.indexer.Index(ctx, fresh, "")
}

// FilterNewVideos returns the feed videos whose ids are not yet in the
// known set, preserving feed order.
func FilterNewVideos(feedVideos []domain.Video, known map[string]struct{}) []domain.Video {
	var fresh []domain.Video
	for _, video := range feedVideos {
		if _, ok := known[video.VideoID]; !ok {
			fresh = append(fresh, video)
		}
	}
	return fresh
}
