package jobs

import "time"

// Status is the lifecycle state of a render job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var statusRank = map[Status]int{
	StatusQueued:     0,
	StatusProcessing: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a job may move from s to next. Transitions
// only move forward; a terminal status never changes again, not even to
// itself. Writing the same non-terminal status is allowed so poll loops
// can refresh timestamps and metadata.
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	if s == next {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Job tracks one provider render from submission to completion.
type Job struct {
	ID        string         `json:"id"`
	ClientID  string         `json:"clientId"`
	Provider  string         `json:"provider"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Error     string         `json:"error,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}
