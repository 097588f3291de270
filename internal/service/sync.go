package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/youtube"
)

const defaultSyncWorkers = 4

// PageSource yields one channel's video listing page by page.
// Implemented by youtube.PageIterator.
type PageSource interface {
	ChannelID() string
	ChannelTitle() string
	Next(ctx context.Context) ([]domain.Video, error)
}

// ChannelFetcher resolves channel references and opens page sources.
type ChannelFetcher interface {
	ResolveChannelID(ctx context.Context, ref string) (string, error)
	FetchAllPages(ctx context.Context, channelID string) (PageSource, error)
}

// NewYouTubeFetcher adapts the concrete YouTube client to the
// ChannelFetcher interface.
func NewYouTubeFetcher(c *youtube.Client) ChannelFetcher {
	return youtubeFetcher{c: c}
}

type youtubeFetcher struct {
	c *youtube.Client
}

func (f youtubeFetcher) ResolveChannelID(ctx context.Context, ref string) (string, error) {
	return f.c.ResolveChannelID(ctx, ref)
}

func (f youtubeFetcher) FetchAllPages(ctx context.Context, channelID string) (PageSource, error) {
	return f.c.FetchAllPages(ctx, channelID)
}

// SyncService orchestrates full multi-channel synchronization runs.
type SyncService struct {
	fetcher ChannelFetcher
	indexer *IndexerService
	logger  *logger.Logger
	workers int
}

// SyncServiceConfig holds configuration for the sync orchestrator.
type SyncServiceConfig struct {
	Workers int
}

// NewSyncService creates a new sync orchestrator.
func NewSyncService(fetcher ChannelFetcher, indexer *IndexerService, log *logger.Logger, cfg *SyncServiceConfig) *SyncService {
	workers := defaultSyncWorkers
	if cfg != nil && cfg.Workers > 0 {
		workers = cfg.Workers
	}

	return &SyncService{
		fetcher: fetcher,
		indexer: indexer,
		logger:  log,
		workers: workers,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *SyncService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// emit delivers one event without wedging a cancelled run. The buffered
// send is tried first; when the buffer is full the send blocks until
// either the consumer catches up or the run is cancelled, in which case
// the event is dropped. An abandoned stream can therefore never block
// the run past its cancellation. Reports whether the event was sent.
func (s *SyncService) emit(ctx context.Context, events chan<- domain.SyncEvent, event domain.SyncEvent) bool {
	select {
	case events <- event:
		return true
	default:
	}
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// Sync processes the given channel references in order, streaming
// progress on events. Channels are handled sequentially; within one
// channel, page indexing jobs run on a bounded worker pool, so batch
// events arrive in completion order, not submission order.
//
// Cancellation is cooperative: the context is checked before each
// channel and at job boundaries. In-flight jobs finish; no new jobs are
// scheduled, and a channel interrupted mid-run is not counted as
// synced. The terminal summary event is emitted unless the run was
// cancelled with no one left reading; the events channel is always
// closed before returning.
func (s *SyncService) Sync(ctx context.Context, channelURLs []string, events chan<- domain.SyncEvent) *domain.SyncSummary {
	defer close(events)

	summary := &domain.SyncSummary{State: domain.SyncStateRunning}
	total := len(channelURLs)

	for i, channelURL := range channelURLs {
		if ctx.Err() != nil {
			summary.State = domain.SyncStateCancelled
			break
		}

		s.emit(ctx, events, domain.SyncEvent{
			Message:    fmt.Sprintf("Syncing channel %d/%d: %s", i+1, total, channelURL),
			ChannelURL: channelURL,
		})

		indexed, err := s.syncChannel(ctx, channelURL, events)
		summary.VideosIndexed += indexed
		if ctx.Err() != nil {
			summary.State = domain.SyncStateCancelled
			break
		}
		if err != nil {
			summary.Failures++
			s.log(ctx).WithField(logger.FieldChannelID, channelURL).WithError(err).Error("Channel sync failed")
			s.emit(ctx, events, domain.SyncEvent{
				Message:    fmt.Sprintf("Skipping channel %s", channelURL),
				ChannelURL: channelURL,
				Error:      err.Error(),
			})
			continue
		}
		summary.Channels++
	}

	if summary.State != domain.SyncStateCancelled {
		summary.State = domain.SyncStateCompleted
	}

	message := fmt.Sprintf("Sync completed: %d channels, %d videos indexed", summary.Channels, summary.VideosIndexed)
	if summary.State == domain.SyncStateCancelled {
		message = fmt.Sprintf("Sync stopped: %d channels, %d videos indexed", summary.Channels, summary.VideosIndexed)
	}
	s.emit(ctx, events, domain.SyncEvent{
		Message:  message,
		Indexed:  summary.VideosIndexed,
		Terminal: true,
	})

	return summary
}

// syncChannel resolves one channel, drains its full listing eagerly so
// the total is known up front, then indexes the pages concurrently.
func (s *SyncService) syncChannel(ctx context.Context, channelURL string, events chan<- domain.SyncEvent) (int, error) {
	channelID, err := s.fetcher.ResolveChannelID(ctx, channelURL)
	if err != nil {
		return 0, err
	}

	source, err := s.fetcher.FetchAllPages(ctx, channelID)
	if err != nil {
		return 0, err
	}

	var pages [][]domain.Video
	totalVideos := 0
	for {
		page, err := source.Next(ctx)
		if err != nil {
			return 0, err
		}
		if page == nil {
			break
		}
		if len(page) > 0 {
			pages = append(pages, page)
			totalVideos += len(page)
		}
	}

	if totalVideos == 0 {
		s.emit(ctx, events, domain.SyncEvent{
			Message:    fmt.Sprintf("No videos found for channel %s", channelURL),
			ChannelURL: channelURL,
		})
		return 0, nil
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldChannelID: channelID,
		"pages":               len(pages),
		"videos":              totalVideos,
	}).Info("Indexing channel")

	return s.indexPages(ctx, channelURL, pages, totalVideos, events), nil
}

type pageResult struct {
	indexed int
	err     error
}

func (s *SyncService) indexPages(ctx context.Context, channelURL string, pages [][]domain.Video, totalVideos int, events chan<- domain.SyncEvent) int {
	jobs := make(chan []domain.Video, len(pages))
	results := make(chan pageResult, len(pages))

	workers := s.workers
	if workers > len(pages) {
		workers = len(pages)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				if ctx.Err() != nil {
					results <- pageResult{err: ctx.Err()}
					continue
				}
				indexed, err := s.indexer.Index(ctx, page, channelURL)
				results <- pageResult{indexed: indexed, err: err}
			}
		}()
	}

	for _, page := range pages {
		jobs <- page
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	indexed := 0
	for result := range results {
		indexed += result.indexed
		event := domain.SyncEvent{
			ChannelURL: channelURL,
			Delta:      result.indexed,
			Indexed:    indexed,
			Total:      totalVideos,
			Percent:    float64(indexed) / float64(totalVideos) * 100,
		}
		if result.err != nil {
			event.Message = fmt.Sprintf("Batch failed for channel %s", channelURL)
			event.Error = result.err.Error()
		} else {
			event.Message = fmt.Sprintf("Indexed %d/%d videos", indexed, totalVideos)
		}
		s.emit(ctx, events, event)
	}

	return indexed
}

// SyncStatus is a snapshot of the manager's current run state.
type SyncStatus struct {
	State   domain.SyncState    `json:"state"`
	Summary *domain.SyncSummary `json:"summary,omitempty"`
}

// SyncManager serializes sync runs: at most one run is active at a
// time, and an active run can be cancelled from another goroutine.
type SyncManager struct {
	service *SyncService
	logger  *logger.Logger

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	lastSummary *domain.SyncSummary
}

// NewSyncManager creates a new sync manager.
func NewSyncManager(service *SyncService, log *logger.Logger) *SyncManager {
	return &SyncManager{
		service: service,
		logger:  log,
	}
}

// ErrSyncRunning is returned when a run is requested while another run
// is still active.
var ErrSyncRunning = fmt.Errorf("a sync run is already in progress")

// Start launches a sync run in the background and returns its event
// stream. The stream is closed when the run finishes.
func (m *SyncManager) Start(ctx context.Context, channelURLs []string) (<-chan domain.SyncEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil, ErrSyncRunning
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	runCtx = logger.SetSyncID(runCtx, uuid.New().String())
	m.running = true
	m.cancel = cancel

	events := make(chan domain.SyncEvent, 16)
	go func() {
		summary := m.service.Sync(runCtx, channelURLs, events)
		cancel()

		m.mu.Lock()
		m.running = false
		m.cancel = nil
		m.lastSummary = summary
		m.mu.Unlock()
	}()

	return events, nil
}

// Stop cancels the active run, if any. Returns false when no run is
// active.
func (m *SyncManager) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running || m.cancel == nil {
		return false
	}
	m.cancel()
	return true
}

// Status reports whether a run is active and the last finished summary.
func (m *SyncManager) Status() SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := SyncStatus{State: domain.SyncStateIdle, Summary: m.lastSummary}
	if m.running {
		status.State = domain.SyncStateRunning
	} else if m.lastSummary != nil {
		status.State = m.lastSummary.State
	}
	return status
}
