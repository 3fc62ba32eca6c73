package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

// ProgressFunc receives live progress messages from a running download. The
// job pipeline installs one that mirrors messages into the job record so
// status polls can show them.
type ProgressFunc func(message string)

// Fetcher downloads an athlete's activity history from the upstream source
// into the local activity log, honoring upstream throttling: on a
// ThrottledError it sleeps out the required wait (rounded up to whole
// seconds, ticking progress every second) and retries the same request, so no
// activity is ever skipped or fetched twice.
type Fetcher struct {
	source Source
	log    *Log
	logger *slog.Logger
	sleep  func(time.Duration)
}

// NewFetcher creates a Fetcher. The sleep function is replaceable for tests.
func NewFetcher(source Source, log *Log, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		log:    log,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// SetSleep overrides the sleep function. Tests use this to avoid real delays.
func (f *Fetcher) SetSleep(sleep func(time.Duration)) {
	f.sleep = sleep
}

// FetchSummary downloads the summary listing and stores it, returning the
// number of activities fetched.
func (f *Fetcher) FetchSummary(ctx context.Context, athleteID int64, progress ProgressFunc) (int, error) {
	progress(fmt.Sprintf("Getting summary activities for athlete %d", athleteID))

	records, err := f.listWithRetry(ctx, athleteID, progress)
	if err != nil {
		return 0, err
	}

	progress(fmt.Sprintf("Received %d activities", len(records)))
	if err := f.log.SaveSummary(athleteID, records); err != nil {
		return 0, fmt.Errorf("saving summary activities: %w", err)
	}
	return len(records), nil
}

// FetchDetailed downloads the summary listing, then every activity at
// detailed fidelity, in listing order.
func (f *Fetcher) FetchDetailed(ctx context.Context, athleteID int64, progress ProgressFunc) error {
	records, err := f.listWithRetry(ctx, athleteID, progress)
	if err != nil {
		return err
	}
	if err := f.log.SaveSummary(athleteID, records); err != nil {
		return fmt.Errorf("saving summary activities: %w", err)
	}
	if err := f.log.BeginDetailed(athleteID); err != nil {
		return err
	}

	// Index-based loop: a throttled fetch must retry the same activity, so
	// the index only advances on success.
	i := 0
	for i < len(records) {
		if err := ctx.Err(); err != nil {
			return err
		}

		detailed, err := f.source.FetchDetailedActivity(ctx, athleteID, records[i].ID)
		if err != nil {
			var throttled *ThrottledError
			if errors.As(err, &throttled) {
				f.waitOut(ctx, throttled.RetryAfter, progress)
				continue
			}
			return fmt.Errorf("fetching detailed activity %d: %w", records[i].ID, err)
		}

		if err := f.log.AppendDetailed(athleteID, detailed); err != nil {
			return err
		}
		progress(fmt.Sprintf("Saved detailed data for activity %d of %d.", i+1, len(records)))
		i++
	}

	return nil
}

// listWithRetry fetches the summary listing, waiting out throttles.
func (f *Fetcher) listWithRetry(ctx context.Context, athleteID int64, progress ProgressFunc) ([]models.ActivityRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := f.source.ListSummaryActivities(ctx, athleteID)
		if err == nil {
			return records, nil
		}

		var throttled *ThrottledError
		if !errors.As(err, &throttled) {
			return nil, fmt.Errorf("listing summary activities: %w", err)
		}
		f.waitOut(ctx, throttled.RetryAfter, progress)
	}
}

// waitOut sleeps for the throttle wait, rounded up to whole seconds, emitting
// a countdown tick each second so polling users can see the job is alive.
func (f *Fetcher) waitOut(ctx context.Context, wait time.Duration, progress ProgressFunc) {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	f.logger.Info("rate limited by upstream", "wait_seconds", seconds)
	for i := 0; i < seconds; i++ {
		if ctx.Err() != nil {
			return
		}
		progress(fmt.Sprintf("Rate limited. Waiting %d seconds.", seconds-i))
		f.sleep(time.Second)
	}
}
