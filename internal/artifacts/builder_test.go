package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sliceStreams(records []models.ActivityRecord) StreamProvider {
	return func(athleteID int64, tier models.Tier) (stats.Stream, error) {
		return stats.NewSliceStream(records), nil
	}
}

type recordingMetrics struct {
	written int
	failed  []string
}

func (m *recordingMetrics) ArtifactWritten()            { m.written++ }
func (m *recordingMetrics) GeneratorFailed(name string) { m.failed = append(m.failed, name) }

func TestBuilderWritesEveryGenerator(t *testing.T) {
	store := NewMemoryStore()
	gens := []Generator{
		NewPlot("plot_a", models.TierSummary, func(stats.Stream) (any, error) { return map[string]int{"n": 1}, nil }),
		NewPlot("plot_b", models.TierSummary, func(stats.Stream) (any, error) { return map[string]int{"n": 2}, nil }),
		NewPlot("detailed_only", models.TierDetailed, func(stats.Stream) (any, error) { return nil, nil }),
	}

	b := NewBuilder(gens, store, sliceStreams(nil), testLogger(), nil)
	written, err := b.Build(context.Background(), 7, models.TierSummary)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2 (the detailed generator must not run)", written)
	}

	data, err := store.Get(context.Background(), Key{AthleteID: 7, Name: "plot_a", Tier: models.TierSummary})
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if data == nil {
		t.Fatal("expected a stored artifact for plot_a")
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshaling envelope: %v", err)
	}
	if env.Kind != KindPlot || env.Key != "plot_a" {
		t.Errorf("envelope = %+v", env)
	}
	if env.GeneratedAt.IsZero() {
		t.Error("generated at should be set")
	}
}

func TestBuilderIsolatesFailures(t *testing.T) {
	store := NewMemoryStore()
	metrics := &recordingMetrics{}
	boom := errors.New("boom")

	gens := []Generator{
		NewPlot("ok_before", models.TierSummary, func(stats.Stream) (any, error) { return 1, nil }),
		NewPlot("broken", models.TierSummary, func(stats.Stream) (any, error) { return nil, boom }),
		NewPlot("ok_after", models.TierSummary, func(stats.Stream) (any, error) { return 2, nil }),
	}

	b := NewBuilder(gens, store, sliceStreams(nil), testLogger(), metrics)
	written, err := b.Build(context.Background(), 7, models.TierSummary)

	if written != 2 {
		t.Errorf("written = %d, want the two healthy generators", written)
	}
	if err == nil || !errors.Is(err, boom) {
		t.Errorf("expected the generator error surfaced, got %v", err)
	}
	if len(metrics.failed) != 1 || metrics.failed[0] != "broken" {
		t.Errorf("failed metric = %v", metrics.failed)
	}
	if metrics.written != 2 {
		t.Errorf("written metric = %d", metrics.written)
	}

	if exists, _ := store.Exists(context.Background(), Key{AthleteID: 7, Name: "ok_after", Tier: models.TierSummary}); !exists {
		t.Error("the generator after the failure should still have written")
	}
}

func TestBuilderSkipsUserVisibleErrors(t *testing.T) {
	store := NewMemoryStore()
	metrics := &recordingMetrics{}

	gens := []Generator{
		NewPlot("no_data", models.TierSummary, func(stats.Stream) (any, error) {
			return nil, NoData("no activities carry heart rate")
		}),
		NewPlot("ok", models.TierSummary, func(stats.Stream) (any, error) { return 1, nil }),
	}

	b := NewBuilder(gens, store, sliceStreams(nil), testLogger(), metrics)
	written, err := b.Build(context.Background(), 7, models.TierSummary)
	if err != nil {
		t.Errorf("an expected absence must not surface as an error, got %v", err)
	}
	if written != 1 {
		t.Errorf("written = %d, want 1", written)
	}
	if len(metrics.failed) != 0 {
		t.Errorf("expected no failure metric for a quiet skip, got %v", metrics.failed)
	}
	if exists, _ := store.Exists(context.Background(), Key{AthleteID: 7, Name: "no_data", Tier: models.TierSummary}); exists {
		t.Error("no artifact should be written for a skipped generator")
	}
}

func TestBuilderFreshStreamPerGenerator(t *testing.T) {
	records := []models.ActivityRecord{{ID: 1}, {ID: 2}, {ID: 3}}

	counts := make([]int, 0, 2)
	countGen := func(name string) Generator {
		return NewPlot(name, models.TierSummary, func(stream stats.Stream) (any, error) {
			n := 0
			for {
				_, err := stream.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, err
				}
				n++
			}
			counts = append(counts, n)
			return n, nil
		})
	}

	b := NewBuilder(
		[]Generator{countGen("first"), countGen("second")},
		NewMemoryStore(), sliceStreams(records), testLogger(), nil,
	)
	if _, err := b.Build(context.Background(), 7, models.TierSummary); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(counts) != 2 || counts[0] != 3 || counts[1] != 3 {
		t.Errorf("each generator should see the full stream, got %v", counts)
	}
}

func TestBuilderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(
		[]Generator{NewPlot("p", models.TierSummary, func(stats.Stream) (any, error) { return 1, nil })},
		NewMemoryStore(), sliceStreams(nil), testLogger(), nil,
	)
	written, err := b.Build(ctx, 7, models.TierSummary)
	if err == nil {
		t.Fatal("expected the canceled context to abort the build")
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}
}

func TestEnvelopeTimestampIsUTC(t *testing.T) {
	store := NewMemoryStore()
	b := NewBuilder(
		[]Generator{NewPlot("p", models.TierSummary, func(stats.Stream) (any, error) { return 1, nil })},
		store, sliceStreams(nil), testLogger(), nil,
	)
	b.now = func() time.Time {
		return time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	}

	if _, err := b.Build(context.Background(), 7, models.TierSummary); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	data, _ := store.Get(context.Background(), Key{AthleteID: 7, Name: "p", Tier: models.TierSummary})
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshaling envelope: %v", err)
	}
	if env.GeneratedAt.Location() != time.UTC {
		t.Errorf("generated at should serialize in UTC, got %v", env.GeneratedAt)
	}
	if !env.GeneratedAt.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("generated at = %v", env.GeneratedAt)
	}
}
