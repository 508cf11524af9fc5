package models

import "time"

// ImportState is the lifecycle state of one import run.
type ImportState string

const (
	StateIdle              ImportState = "idle"
	StateFetching          ImportState = "fetching"
	StateParsing           ImportState = "parsing"
	StateConverting        ImportState = "converting"
	StateDownloadingImages ImportState = "downloading_images"
	StateCreatingResult    ImportState = "creating_result"
	StateCompleted         ImportState = "completed"
	StateFailed            ImportState = "failed"
	StateCancelled         ImportState = "cancelled"
)

// Terminal reports whether no further transitions are accepted from s.
func (s ImportState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// ProgressRecord tracks one run. Mutated only through the progress tracker.
type ProgressRecord struct {
	RunID       string      `json:"run_id"`
	State       ImportState `json:"state"`
	Percent     int         `json:"percent"` // always within [0,100]
	Message     string      `json:"message"`
	Details     string      `json:"details,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Cancellable bool        `json:"cancellable"`
	Cancelled   bool        `json:"cancelled"`
	Error       string      `json:"error,omitempty"`
}

// ProgressEvent is one message on a run's progress stream. The event
// vocabulary is fixed: connected, progress, completed, failed, cancelled,
// heartbeat, reconnect.
type ProgressEvent struct {
	Event   string          `json:"event"`
	RunID   string          `json:"run_id"`
	Record  *ProgressRecord `json:"record,omitempty"`
	Result  *ImportResult   `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}
