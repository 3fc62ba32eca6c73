package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
)

// StreamProvider opens a fresh single-pass activity stream for an athlete and
// tier. The builder calls it once per generator so no generator observes
// another's partial consumption.
type StreamProvider func(athleteID int64, tier models.Tier) (stats.Stream, error)

// Envelope is the serialized form of every cached artifact.
type Envelope struct {
	Key         string    `json:"key"`
	Kind        Kind      `json:"kind"`
	GeneratedAt time.Time `json:"generated_at"`
	Data        any       `json:"data"`
}

// BuildMetrics receives per-build counters. Satisfied by metrics.Collector;
// nil-safe via NopBuildMetrics.
type BuildMetrics interface {
	ArtifactWritten()
	GeneratorFailed(name string)
}

// NopBuildMetrics discards build metrics.
type NopBuildMetrics struct{}

func (NopBuildMetrics) ArtifactWritten()            {}
func (NopBuildMetrics) GeneratorFailed(name string) {}

// Builder runs every registered generator for an athlete and tier, writing
// each successful result to the artifact store. A single generator's failure
// never aborts the remaining generators: expected absences are skipped
// quietly, unexpected errors are logged and counted but contained.
type Builder struct {
	generators []Generator
	store      Store
	streams    StreamProvider
	logger     *slog.Logger
	metrics    BuildMetrics
	now        func() time.Time
}

// NewBuilder creates a Builder over the given generator set.
func NewBuilder(generators []Generator, store Store, streams StreamProvider, logger *slog.Logger, m BuildMetrics) *Builder {
	if m == nil {
		m = NopBuildMetrics{}
	}
	return &Builder{
		generators: generators,
		store:      store,
		streams:    streams,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// Build runs every generator registered for the tier. It returns the number
// of artifacts written and the first unexpected generator error, which the
// caller reports without having lost the sibling artifacts.
func (b *Builder) Build(ctx context.Context, athleteID int64, tier models.Tier) (int, error) {
	written := 0
	var firstErr error

	for _, gen := range b.generators {
		if gen.Tier() != tier {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}

		if err := b.buildOne(ctx, gen, athleteID, tier); err != nil {
			var visible *UserVisibleError
			if errors.As(err, &visible) {
				b.logger.Debug("no artifact produced",
					"generator", gen.Name(),
					"athlete_id", athleteID,
					"reason", visible.Message,
				)
				continue
			}

			b.logger.Error("generator failed",
				"generator", gen.Name(),
				"athlete_id", athleteID,
				"tier", tier,
				"error", err,
			)
			b.metrics.GeneratorFailed(gen.Name())
			if firstErr == nil {
				firstErr = fmt.Errorf("generator %s: %w", gen.Name(), err)
			}
			continue
		}

		written++
		b.metrics.ArtifactWritten()
	}

	return written, firstErr
}

func (b *Builder) buildOne(ctx context.Context, gen Generator, athleteID int64, tier models.Tier) error {
	stream, err := b.streams(athleteID, tier)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	if closer, ok := stream.(io.Closer); ok {
		defer closer.Close()
	}

	payload, err := gen.Render(stream)
	if err != nil {
		return err
	}

	key := Key{AthleteID: athleteID, Name: gen.Name(), Tier: tier}
	data, err := json.Marshal(Envelope{
		Key:         key.Name,
		Kind:        gen.Kind(),
		GeneratedAt: b.now().UTC(),
		Data:        payload,
	})
	if err != nil {
		return fmt.Errorf("serializing artifact: %w", err)
	}

	if err := b.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("caching artifact: %w", err)
	}
	return nil
}
