package models

import (
	"fmt"
	"time"
)

// JobState is the lifecycle state of a refresh job. Finished, failed and
// canceled are terminal until a new refresh request restarts the cycle.
type JobState string

const (
	JobQueued   JobState = "queued"
	JobRunning  JobState = "running"
	JobFinished JobState = "finished"
	JobFailed   JobState = "failed"
	JobCanceled JobState = "canceled"
)

// Active reports whether the job still occupies the per-(athlete, tier) slot.
func (s JobState) Active() bool {
	return s == JobQueued || s == JobRunning
}

// JobRecord tracks one refresh job. At most one record per (athlete, tier)
// may be in an active state at a time; the store enforces this at enqueue.
type JobRecord struct {
	RunID      string    `json:"run_id"`
	AthleteID  int64     `json:"athlete_id"`
	Tier       Tier      `json:"tier"`
	State      JobState  `json:"state"`
	Message    string    `json:"message,omitempty"` // live progress message while running
	EnqueuedAt time.Time `json:"enqueued_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// JobKey returns the dedupe key for a (athlete, tier) pair.
func JobKey(athleteID int64, tier Tier) string {
	return fmt.Sprintf("%d_%s", athleteID, tier)
}

// RefreshRecord stores the last time an athlete refreshed a tier. Absence
// (or expiry past the configured horizon) means "never refreshed".
type RefreshRecord struct {
	AthleteID   int64     `json:"athlete_id"`
	Tier        Tier      `json:"tier"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// RefreshStatus is the response to a refresh request.
type RefreshStatus struct {
	Message         string `json:"message"`
	RefreshAccepted bool   `json:"refresh_accepted"`
}

// DataStatus is the response to a data-status poll. Clients keep polling
// until StopPolling is true.
type DataStatus struct {
	Message     string   `json:"message"`
	Status      JobState `json:"status,omitempty"`
	StopPolling bool     `json:"stop_polling"`
}
