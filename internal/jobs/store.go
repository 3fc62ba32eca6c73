package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

// ErrJobActive is returned by Enqueue when the athlete already has a queued
// or running job for the tier.
var ErrJobActive = errors.New("a job for this athlete and tier is already active")

// JobStore tracks refresh jobs in memory. At most one active job exists per
// athlete and tier; Enqueue enforces that atomically under the store lock.
type JobStore struct {
	mu    sync.Mutex
	jobs  map[string]*models.JobRecord
	queue []string
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*models.JobRecord)}
}

// Enqueue records a new queued job, replacing any finished record for the
// same athlete and tier. It fails with ErrJobActive if a queued or running
// job already exists.
func (s *JobStore) Enqueue(runID string, athleteID int64, tier models.Tier, now time.Time) (models.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.JobKey(athleteID, tier)
	if existing, ok := s.jobs[key]; ok && existing.State.Active() {
		return models.JobRecord{}, ErrJobActive
	}

	record := &models.JobRecord{
		RunID:      runID,
		AthleteID:  athleteID,
		Tier:       tier,
		State:      models.JobQueued,
		Message:    "Waiting in the queue.",
		EnqueuedAt: now,
	}
	s.jobs[key] = record
	s.queue = append(s.queue, key)
	return *record, nil
}

// Start marks the job as running and removes it from the waiting queue.
func (s *JobStore) Start(athleteID int64, tier models.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.JobKey(athleteID, tier)
	record, ok := s.jobs[key]
	if !ok {
		return
	}
	record.State = models.JobRunning
	record.Message = "Task has started."
	s.dequeueLocked(key)
}

// SetMessage updates the live progress message of an active job.
func (s *JobStore) SetMessage(athleteID int64, tier models.Tier, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.jobs[models.JobKey(athleteID, tier)]; ok && record.State.Active() {
		record.Message = message
	}
}

// Finish moves the job to a terminal state with a closing message.
func (s *JobStore) Finish(athleteID int64, tier models.Tier, state models.JobState, message string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.JobKey(athleteID, tier)
	record, ok := s.jobs[key]
	if !ok {
		return
	}
	record.State = state
	record.Message = message
	record.FinishedAt = now
	s.dequeueLocked(key)
}

// Get returns a copy of the job record for the athlete and tier, or nil.
func (s *JobStore) Get(athleteID int64, tier models.Tier) *models.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.jobs[models.JobKey(athleteID, tier)]
	if !ok {
		return nil
	}
	out := *record
	return &out
}

// Position returns the 1-based position of a queued job, or 0 when the job
// is not waiting in the queue.
func (s *JobStore) Position(athleteID int64, tier models.Tier) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.JobKey(athleteID, tier)
	for i, k := range s.queue {
		if k == key {
			return i + 1
		}
	}
	return 0
}

func (s *JobStore) dequeueLocked(key string) {
	for i, k := range s.queue {
		if k == key {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}
