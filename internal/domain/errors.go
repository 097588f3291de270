package domain

import "fmt"

// ResolutionError indicates a channel reference could not be mapped to
// a canonical channel id. Fatal for that channel only; multi-channel
// runs skip it and continue.
type ResolutionError struct {
	Ref    string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve channel reference %q: %s", e.Ref, e.Reason)
}

// FetchError indicates a transient failure talking to the video
// platform API or feed endpoint for one page or feed pull.
type FetchError struct {
	ChannelID string
	Op        string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for channel %s: %v", e.Op, e.ChannelID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// EmbeddingError indicates the embedding provider failed for a batch.
// The batch is skipped; previously written batches stay valid.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding provider: %v", e.Err) }

func (e *EmbeddingError) Unwrap() error { return e.Err }

// AnswerError indicates the completion provider failed or returned a
// structure that does not match the answer schema. Fatal for the single
// query; no store mutation happens.
type AnswerError struct {
	Err error
}

func (e *AnswerError) Error() string { return fmt.Sprintf("answerer: %v", e.Err) }

func (e *AnswerError) Unwrap() error { return e.Err }

// ConfigurationError indicates a missing credential or setting. Raised
// before any network call is attempted.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Missing)
}
