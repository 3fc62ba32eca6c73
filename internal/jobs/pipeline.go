package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stridestats/stridestats/internal/activity"
	"github.com/stridestats/stridestats/internal/artifacts"
	"github.com/stridestats/stridestats/internal/models"
)

// PipelineMetrics receives job lifecycle events. Implementations must be
// safe for concurrent use.
type PipelineMetrics interface {
	JobEnqueued(tier models.Tier)
	JobFinished(tier models.Tier, state models.JobState)
}

// NopPipelineMetrics discards all events.
type NopPipelineMetrics struct{}

func (NopPipelineMetrics) JobEnqueued(tier models.Tier)                        {}
func (NopPipelineMetrics) JobFinished(tier models.Tier, state models.JobState) {}

type queuedJob struct {
	athleteID int64
	tier      models.Tier
}

// PipelineConfig wires a Pipeline.
type PipelineConfig struct {
	Policy    Policy
	Refreshes RefreshRepository
	Fetcher   *activity.Fetcher
	Log       *activity.Log
	Builder   *artifacts.Builder
	Store     artifacts.Store

	// PurgeOnRefresh deletes cached artifacts for the tier before a new job
	// runs, so stale artifacts never outlive an accepted refresh.
	PurgeOnRefresh bool
	// KeepActivityLog retains the raw activity log after a successful build.
	// When set, polls short-circuit to finished whenever the log exists.
	KeepActivityLog bool

	Workers        int
	SupportContact string
	Logger         *slog.Logger
	Metrics        PipelineMetrics
}

// Pipeline owns the refresh lifecycle: lockout checks, the job queue, and
// the worker pool that fetches activities and builds artifacts.
type Pipeline struct {
	policy    Policy
	refreshes RefreshRepository
	fetcher   *activity.Fetcher
	log       *activity.Log
	builder   *artifacts.Builder
	store     artifacts.Store

	purgeOnRefresh  bool
	keepActivityLog bool

	workers int
	support string
	logger  *slog.Logger
	metrics PipelineMetrics

	jobs  *JobStore
	queue chan queuedJob
	wg    sync.WaitGroup
	now   func() time.Time
}

// NewPipeline creates a Pipeline. Call Start to launch the workers.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopPipelineMetrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		policy:          cfg.Policy,
		refreshes:       cfg.Refreshes,
		fetcher:         cfg.Fetcher,
		log:             cfg.Log,
		builder:         cfg.Builder,
		store:           cfg.Store,
		purgeOnRefresh:  cfg.PurgeOnRefresh,
		keepActivityLog: cfg.KeepActivityLog,
		workers:         workers,
		support:         cfg.SupportContact,
		logger:          logger,
		metrics:         metrics,
		jobs:            NewJobStore(),
		queue:           make(chan queuedJob, 256),
		now:             time.Now,
	}
}

// Start launches the worker pool. Workers exit when ctx is canceled.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.worker(ctx)
		}()
	}
}

// Wait blocks until all workers have exited.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// RequestRefresh applies the lockout policy and, when the refresh is
// allowed, enqueues a job. The returned status carries the athlete-facing
// message either way.
func (p *Pipeline) RequestRefresh(ctx context.Context, athleteID int64, tier models.Tier) (models.RefreshStatus, error) {
	now := p.now()

	last, err := p.refreshes.Get(ctx, athleteID, tier)
	if err != nil {
		return models.RefreshStatus{}, fmt.Errorf("reading refresh record: %w", err)
	}

	allowed, wait := p.policy.Check(last, now, tier)
	if !allowed {
		return models.RefreshStatus{
			Message: fmt.Sprintf("Refreshing %s data is only possible every %s. Please wait %s before refreshing again.",
				tier, HumanDuration(p.policy.MinPeriod(tier)), HumanDuration(wait)),
			RefreshAccepted: false,
		}, nil
	}

	runID := uuid.NewString()
	if _, err := p.jobs.Enqueue(runID, athleteID, tier, now); err != nil {
		if errors.Is(err, ErrJobActive) {
			return models.RefreshStatus{
				Message:         "A refresh for this data is already in progress.",
				RefreshAccepted: false,
			}, nil
		}
		return models.RefreshStatus{}, err
	}

	if err := p.refreshes.Set(ctx, athleteID, tier, now); err != nil {
		p.jobs.Finish(athleteID, tier, models.JobCanceled, "Refresh could not be recorded.", now)
		return models.RefreshStatus{}, fmt.Errorf("recording refresh: %w", err)
	}

	if p.purgeOnRefresh {
		if err := p.store.DeleteAll(ctx, athleteID, tier); err != nil {
			p.logger.Error("purging cached artifacts", "error", err, "athlete_id", athleteID, "tier", tier)
		}
	}

	p.metrics.JobEnqueued(tier)
	p.logger.Info("refresh enqueued", "run_id", runID, "athlete_id", athleteID, "tier", tier)

	select {
	case p.queue <- queuedJob{athleteID: athleteID, tier: tier}:
	case <-ctx.Done():
		p.jobs.Finish(athleteID, tier, models.JobCanceled, "Refresh canceled before it could start.", p.now())
		return models.RefreshStatus{}, ctx.Err()
	}

	return models.RefreshStatus{Message: "Refresh started.", RefreshAccepted: true}, nil
}

// PollStatus reports the current state of an athlete's data for a tier, in
// the shape the status endpoints poll for.
func (p *Pipeline) PollStatus(ctx context.Context, athleteID int64, tier models.Tier) (models.DataStatus, error) {
	if p.keepActivityLog && p.log.Has(athleteID, tier) {
		return models.DataStatus{
			Message:     "Found data locally.",
			Status:      models.JobFinished,
			StopPolling: true,
		}, nil
	}

	job := p.jobs.Get(athleteID, tier)
	if job == nil {
		return models.DataStatus{
			Message:     fmt.Sprintf("No record of %s data having been downloaded has been found.", tier),
			StopPolling: true,
		}, nil
	}

	switch job.State {
	case models.JobQueued:
		message := "Waiting in the queue."
		if pos := p.jobs.Position(athleteID, tier); pos > 0 {
			message = fmt.Sprintf("Position %d in the queue.", pos)
		}
		return models.DataStatus{Message: message, Status: models.JobQueued}, nil

	case models.JobRunning:
		return models.DataStatus{Message: job.Message, Status: models.JobRunning}, nil

	case models.JobFinished:
		message := "Data is ready."
		if last, err := p.refreshes.Get(ctx, athleteID, tier); err == nil && last != nil {
			message = fmt.Sprintf("Data last refreshed at: %s.", FormatTimestamp(*last))
		}
		return models.DataStatus{Message: message, Status: models.JobFinished, StopPolling: true}, nil

	case models.JobFailed:
		message := job.Message
		if p.support != "" {
			message = fmt.Sprintf("%s If this keeps happening, contact %s.", message, p.support)
		}
		return models.DataStatus{Message: message, Status: models.JobFailed, StopPolling: true}, nil

	default:
		return models.DataStatus{Message: job.Message, Status: job.State, StopPolling: true}, nil
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.runJob(ctx, job.athleteID, job.tier)
		}
	}
}

func (p *Pipeline) runJob(ctx context.Context, athleteID int64, tier models.Tier) {
	record := p.jobs.Get(athleteID, tier)
	runID := ""
	if record != nil {
		runID = record.RunID
	}
	logger := p.logger.With("run_id", runID, "athlete_id", athleteID, "tier", tier)

	p.jobs.Start(athleteID, tier)
	progress := func(message string) {
		p.jobs.SetMessage(athleteID, tier, message)
	}

	var fetchErr error
	switch tier {
	case models.TierDetailed:
		fetchErr = p.fetcher.FetchDetailed(ctx, athleteID, progress)
	default:
		_, fetchErr = p.fetcher.FetchSummary(ctx, athleteID, progress)
	}
	if fetchErr != nil {
		p.finish(athleteID, tier, models.JobFailed, failureMessage(fetchErr), logger, fetchErr)
		return
	}

	progress("Processing activities.")
	written, buildErr := p.builder.Build(ctx, athleteID, tier)
	if buildErr != nil && written == 0 {
		p.finish(athleteID, tier, models.JobFailed, "Processing your activities failed.", logger, buildErr)
		return
	}
	if buildErr != nil {
		logger.Warn("some artifacts failed to build", "error", buildErr, "written", written)
	}

	if !p.keepActivityLog {
		if err := p.log.Delete(athleteID, tier); err != nil {
			logger.Error("deleting activity log", "error", err)
		}
	}

	p.finish(athleteID, tier, models.JobFinished, "All data processed.", logger, nil)

	// Housekeeping: drop lockout records that have aged past the horizon.
	if n, err := p.refreshes.DeleteExpired(ctx); err != nil {
		logger.Warn("pruning expired refresh records", "error", err)
	} else if n > 0 {
		logger.Info("pruned expired refresh records", "count", n)
	}
}

func (p *Pipeline) finish(athleteID int64, tier models.Tier, state models.JobState, message string, logger *slog.Logger, cause error) {
	p.jobs.Finish(athleteID, tier, state, message, p.now())
	p.metrics.JobFinished(tier, state)
	if cause != nil {
		logger.Error("job failed", "error", cause)
		return
	}
	logger.Info("job finished", "state", state)
}

func failureMessage(err error) string {
	var authErr *activity.AuthError
	if errors.As(err, &authErr) {
		return "Your connection to the activity provider has expired. Please log in again."
	}
	return "Downloading your activities failed."
}
