package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

// Source is the upstream activity platform. Implementations wrap the
// third-party API client; the pipeline only depends on this interface.
type Source interface {
	// ListSummaryActivities returns every summary-tier activity for an
	// athlete, oldest first.
	ListSummaryActivities(ctx context.Context, athleteID int64) ([]models.ActivityRecord, error)

	// FetchDetailedActivity fetches one activity at detailed fidelity.
	FetchDetailedActivity(ctx context.Context, athleteID, activityID int64) (*models.ActivityRecord, error)
}

// ThrottledError signals that the upstream rate limit was hit and the caller
// must wait RetryAfter before retrying the same request.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("upstream rate limit exceeded, retry after %s", e.RetryAfter)
}

// AuthError signals that the athlete's upstream credentials are expired or
// revoked. It is terminal for the job; the user must re-authenticate.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// MemorySource is an in-memory Source for tests and local development. A
// throttle schedule can be installed to make specific calls fail with
// ThrottledError before succeeding.
type MemorySource struct {
	Records map[int64][]models.ActivityRecord // athlete -> activities

	// detailCalls counts FetchDetailedActivity calls per activity id so a
	// throttle schedule can fire on the first attempt only.
	detailCalls map[int64]int
	throttles   map[int64]time.Duration // activity id -> wait on first attempt
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		Records:     make(map[int64][]models.ActivityRecord),
		detailCalls: make(map[int64]int),
		throttles:   make(map[int64]time.Duration),
	}
}

// ThrottleOnce makes the first detailed fetch of the given activity fail with
// a ThrottledError carrying the wait duration.
func (s *MemorySource) ThrottleOnce(activityID int64, wait time.Duration) {
	s.throttles[activityID] = wait
}

// ListSummaryActivities returns the configured records for the athlete.
func (s *MemorySource) ListSummaryActivities(ctx context.Context, athleteID int64) ([]models.ActivityRecord, error) {
	records := s.Records[athleteID]
	out := make([]models.ActivityRecord, len(records))
	copy(out, records)
	return out, nil
}

// FetchDetailedActivity returns the configured record, honoring any throttle
// schedule.
func (s *MemorySource) FetchDetailedActivity(ctx context.Context, athleteID, activityID int64) (*models.ActivityRecord, error) {
	s.detailCalls[activityID]++
	if wait, ok := s.throttles[activityID]; ok && s.detailCalls[activityID] == 1 {
		return nil, &ThrottledError{RetryAfter: wait}
	}

	for _, rec := range s.Records[athleteID] {
		if rec.ID == activityID {
			out := rec
			return &out, nil
		}
	}
	return nil, fmt.Errorf("activity %d not found for athlete %d", activityID, athleteID)
}
