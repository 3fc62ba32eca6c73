package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

// Policy decides whether a refresh is allowed given how recently the athlete
// last refreshed the tier. The minimum periods are configuration; the
// defaults mirror the reference policy of one day for summary data and seven
// for the costlier detailed data.
type Policy struct {
	SummaryMinPeriod  time.Duration
	DetailedMinPeriod time.Duration
}

// DefaultPolicy returns the reference refresh policy.
func DefaultPolicy() Policy {
	return Policy{
		SummaryMinPeriod:  24 * time.Hour,
		DetailedMinPeriod: 7 * 24 * time.Hour,
	}
}

// MinPeriod returns the lockout period for a tier.
func (p Policy) MinPeriod(tier models.Tier) time.Duration {
	if tier == models.TierDetailed {
		return p.DetailedMinPeriod
	}
	return p.SummaryMinPeriod
}

// Check reports whether a refresh is allowed now. When it is not, the second
// return value is the remaining wait. A nil last-refresh time means the
// athlete has never refreshed and is always allowed.
func (p Policy) Check(last *time.Time, now time.Time, tier models.Tier) (bool, time.Duration) {
	if last == nil {
		return true, 0
	}

	period := p.MinPeriod(tier)
	since := now.Sub(*last)
	if since >= period {
		return true, 0
	}
	return false, period - since
}

// RefreshRepository stores last-refresh timestamps per athlete and tier.
// Implementations apply the configured TTL horizon: an expired record reads
// back as nil, equivalent to "never refreshed". DeleteExpired removes the
// rows Get already ignores; the pipeline invokes it as housekeeping after
// each successful job.
type RefreshRepository interface {
	Get(ctx context.Context, athleteID int64, tier models.Tier) (*time.Time, error)
	Set(ctx context.Context, athleteID int64, tier models.Tier, refreshedAt time.Time) error
	DeleteExpired(ctx context.Context) (int, error)
}

// MemoryRefreshRepository is an in-memory RefreshRepository for tests.
type MemoryRefreshRepository struct {
	mu      sync.Mutex
	horizon time.Duration
	now     func() time.Time
	records map[string]time.Time
}

// NewMemoryRefreshRepository creates an in-memory repository with the given
// expiry horizon (zero disables expiry).
func NewMemoryRefreshRepository(horizon time.Duration) *MemoryRefreshRepository {
	return &MemoryRefreshRepository{
		horizon: horizon,
		now:     time.Now,
		records: make(map[string]time.Time),
	}
}

// Get returns the stored timestamp, or nil when absent or expired.
func (r *MemoryRefreshRepository) Get(ctx context.Context, athleteID int64, tier models.Tier) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.records[models.JobKey(athleteID, tier)]
	if !ok {
		return nil, nil
	}
	if r.horizon > 0 && r.now().Sub(t) > r.horizon {
		return nil, nil
	}
	out := t
	return &out, nil
}

// Set stores the timestamp.
func (r *MemoryRefreshRepository) Set(ctx context.Context, athleteID int64, tier models.Tier, refreshedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[models.JobKey(athleteID, tier)] = refreshedAt
	return nil
}

// DeleteExpired removes records older than the horizon and returns how many
// were removed.
func (r *MemoryRefreshRepository) DeleteExpired(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.horizon <= 0 {
		return 0, nil
	}
	deleted := 0
	for key, t := range r.records {
		if r.now().Sub(t) > r.horizon {
			delete(r.records, key)
			deleted++
		}
	}
	return deleted, nil
}
