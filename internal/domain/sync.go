package domain

// SyncState is the lifecycle state of one sync run.
type SyncState string

const (
	SyncStateIdle      SyncState = "idle"
	SyncStateRunning   SyncState = "running"
	SyncStateCompleted SyncState = "completed"
	SyncStateCancelled SyncState = "cancelled"
)

// SyncEvent is one progress update emitted during a sync run. Events
// for a single channel's batches arrive in completion order, not
// submission order; Delta is the number of videos indexed since the
// previous event (zero for informational and error events).
type SyncEvent struct {
	Message    string  `json:"message"`
	ChannelURL string  `json:"channel_url,omitempty"`
	Delta      int     `json:"delta"`
	Indexed    int     `json:"indexed"`
	Total      int     `json:"total"`
	Percent    float64 `json:"percent"`
	Error      string  `json:"error,omitempty"`
	Terminal   bool    `json:"terminal,omitempty"`
}

// SyncSummary describes a finished run. Emitted even when individual
// channels failed.
type SyncSummary struct {
	State         SyncState `json:"state"`
	Channels      int       `json:"channels"`
	VideosIndexed int       `json:"videos_indexed"`
	Failures      int       `json:"failures"`
}
