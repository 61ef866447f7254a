package models

import (
	"time"
)

// Watch lifecycle states persisted in Postgres. A watch is "active" while
// the remote job is non-terminal and settles into the state matching the
// job's terminal status.
const (
	WatchActive    = "active"
	WatchCompleted = "completed"
	WatchFailed    = "failed"
	WatchStopped   = "stopped"
	// WatchLost marks watches whose describe calls kept failing.
	WatchLost = "lost"
	// WatchCancelled marks watches removed via the API before settling.
	WatchCancelled = "cancelled"
)

// JobWatch tracks one remote job from registration to terminal status.
type JobWatch struct {
	ID         string     `json:"id"`
	JobName    string     `json:"job_name"`
	Kind       string     `json:"kind"`
	Tenant     string     `json:"tenant"`
	State      string     `json:"state"`
	LastStatus string     `json:"last_status"`
	Failures   int        `json:"failures"`
	Polls      int        `json:"polls"`
	NextPollAt time.Time  `json:"next_poll_at"`
	LastError  *string    `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	SettledAt  *time.Time `json:"settled_at,omitempty"`
}

// Transition is one observed job status change, appended per watch.
type Transition struct {
	JobName  string    `json:"job_name"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Detail   string    `json:"detail"`
	Recorded time.Time `json:"recorded_at"`
}

// TerminalWatchState maps a terminal job status onto the watch state it
// settles into.
func TerminalWatchState(jobStatus string) string {
	switch jobStatus {
	case "Completed":
		return WatchCompleted
	case "Failed":
		return WatchFailed
	case "Stopped":
		return WatchStopped
	default:
		return WatchFailed
	}
}
