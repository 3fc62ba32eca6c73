package artifacts

import (
	"errors"
	"testing"
	"time"

	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
	gopolyline "github.com/twpayne/go-polyline"
)

func TestRegistryNames(t *testing.T) {
	summary := Names(models.TierSummary)
	detailed := Names(models.TierDetailed)

	wantSummary := map[string]bool{
		"cumulative_distance": true,
		"cumulative_time":     true,
		"activity_calendar":   true,
		"summary_trivia":      true,
		"top_hundred_longest": true,
		"flagged_activities":  true,
	}
	if len(summary) != len(wantSummary) {
		t.Errorf("summary names = %v", summary)
	}
	for _, n := range summary {
		if !wantSummary[n] {
			t.Errorf("unexpected summary artifact %q", n)
		}
	}

	wantDetailed := map[string]bool{
		"detailed_trivia": true,
		"personal_bests":  true,
		"polyline_grid":   true,
	}
	if len(detailed) != len(wantDetailed) {
		t.Errorf("detailed names = %v", detailed)
	}
	for _, n := range detailed {
		if !wantDetailed[n] {
			t.Errorf("unexpected detailed artifact %q", n)
		}
	}
}

func TestSummaryTriviaRender(t *testing.T) {
	records := []models.ActivityRecord{
		{ID: 1, SportType: "Run", StartDateLocal: time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC), KudosCount: 5, DistanceMeters: 5000},
		{ID: 2, SportType: "Run", StartDateLocal: time.Date(2023, 1, 2, 8, 0, 0, 0, time.UTC), KudosCount: 2, DistanceMeters: 10000},
	}

	payload, err := summaryTrivia().Render(stats.NewSliceStream(records))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	tidbits, ok := payload.([]models.Tidbit)
	if !ok {
		t.Fatalf("payload is %T, want []models.Tidbit", payload)
	}

	byDesc := make(map[string]models.Tidbit)
	for _, tb := range tidbits {
		byDesc[tb.Description] = tb
	}

	if tb := byDesc["Total Number of Activities"]; tb.Value != "2" {
		t.Errorf("total activities = %+v", tb)
	}
	if tb := byDesc["Total Kudos Received"]; tb.Value != "7" {
		t.Errorf("total kudos = %+v", tb)
	}
	if tb := byDesc["Most Kudosed Activity"]; tb.Link != "https://www.strava.com/activities/1" {
		t.Errorf("most kudosed link = %+v", tb)
	}
	// No temperature data: the temperature tidbits are suppressed.
	if _, ok := byDesc["Highest Average Temperature"]; ok {
		t.Error("temperature tidbit should be suppressed without temperature data")
	}
}

func TestTriviaFreshCollectorsPerRender(t *testing.T) {
	gen := summaryTrivia()
	records := []models.ActivityRecord{
		{ID: 1, SportType: "Run", StartDateLocal: time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC)},
	}

	for pass := 0; pass < 2; pass++ {
		payload, err := gen.Render(stats.NewSliceStream(records))
		if err != nil {
			t.Fatalf("pass %d: Render returned error: %v", pass, err)
		}
		tidbits := payload.([]models.Tidbit)
		for _, tb := range tidbits {
			if tb.Description == "Total Number of Activities" && tb.Value != "1" {
				t.Errorf("pass %d: count = %q, collector state leaked between passes", pass, tb.Value)
			}
		}
	}
}

func TestTopLongestTable(t *testing.T) {
	records := []models.ActivityRecord{
		{ID: 1, Name: "Short", SportType: "Run", DistanceMeters: 3000, StartDateLocal: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Name: "Long", SportType: "Ride", DistanceMeters: 80000, StartDateLocal: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Name: "Medium", SportType: "Run", DistanceMeters: 21097, StartDateLocal: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)},
		{ID: 4, Name: "Treadmill", SportType: "Workout", DistanceMeters: 0},
	}

	payload, err := topLongestTable().Render(stats.NewSliceStream(records))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	data := payload.(*TableData)

	if len(data.Rows) != 3 {
		t.Fatalf("expected 3 rows (zero-distance dropped), got %d", len(data.Rows))
	}
	if data.Rows[0][1] != "Long" || data.Rows[1][1] != "Medium" || data.Rows[2][1] != "Short" {
		t.Errorf("rows out of distance order: %v", data.Rows)
	}
	if data.Rows[0][0] != "1" || data.Rows[0][4] != "80.0" {
		t.Errorf("first row = %v", data.Rows[0])
	}
	if data.Links[0] != "https://www.strava.com/activities/2" {
		t.Errorf("first link = %q", data.Links[0])
	}

	t.Run("no measurable activities", func(t *testing.T) {
		_, err := topLongestTable().Render(stats.NewSliceStream([]models.ActivityRecord{
			{ID: 1, SportType: "Workout", DistanceMeters: 0},
		}))
		var visible *UserVisibleError
		if !errors.As(err, &visible) {
			t.Errorf("expected UserVisibleError, got %v", err)
		}
	})
}

func TestFlaggedActivitiesTable(t *testing.T) {
	t.Run("clean athlete", func(t *testing.T) {
		_, err := flaggedActivitiesTable().Render(stats.NewSliceStream([]models.ActivityRecord{
			{ID: 1, Name: "Honest Run", SportType: "Run"},
		}))
		var visible *UserVisibleError
		if !errors.As(err, &visible) {
			t.Errorf("expected UserVisibleError, got %v", err)
		}
	})

	t.Run("lists flagged only", func(t *testing.T) {
		payload, err := flaggedActivitiesTable().Render(stats.NewSliceStream([]models.ActivityRecord{
			{ID: 1, Name: "Honest Run", SportType: "Run"},
			{ID: 2, Name: "Strava Driving", SportType: "Ride", Flagged: true, StartDateLocal: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		}))
		if err != nil {
			t.Fatalf("Render returned error: %v", err)
		}
		data := payload.(*TableData)
		if len(data.Rows) != 1 || data.Rows[0][0] != "Strava Driving" {
			t.Errorf("rows = %v", data.Rows)
		}
	})
}

func TestPersonalBestsPlot(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }
	run := func(id int64, d time.Time, efforts ...models.BestEffort) models.ActivityRecord {
		return models.ActivityRecord{ID: id, SportType: "Run", StartDateLocal: d, BestEfforts: efforts}
	}
	be := func(name string, d time.Time, seconds int64) models.BestEffort {
		return models.BestEffort{Name: name, StartDateLocal: d, ElapsedSeconds: seconds}
	}

	// The second record is deliberately out of date order: improvements are
	// judged chronologically, not in stream order.
	records := []models.ActivityRecord{
		run(1, day(3), be("400m", day(3), 90), be("1 Mile", day(3), 420)),
		run(2, day(1), be("400m", day(1), 95)),
		run(3, day(5), be("400m", day(5), 93)), // slower than the day-3 best
		run(4, day(7), be("400m", day(7), 85), be("1 Mile", day(7), 400)),
		{ID: 5, SportType: "Ride", StartDateLocal: day(8), BestEfforts: []models.BestEffort{be("400m", day(8), 10)}},
		{ID: 6, SportType: "Run", StartDateLocal: day(9), Flagged: true, BestEfforts: []models.BestEffort{be("400m", day(9), 1)}},
	}

	payload, err := personalBestsPlot().Render(stats.NewSliceStream(records))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	series := payload.([]personalBestSeries)

	if len(series) != 2 {
		t.Fatalf("expected 2 distances, got %d: %v", len(series), series)
	}

	bySeries := make(map[string][]personalBestPoint)
	for _, s := range series {
		bySeries[s.Name] = s.Points
	}

	fourHundred := bySeries["400m"]
	if len(fourHundred) != 3 {
		t.Fatalf("400m points = %v", fourHundred)
	}
	if fourHundred[0].ActivityID != 2 || fourHundred[0].Seconds != 95 || fourHundred[0].Date != "2023-01-01" {
		t.Errorf("first 400m point = %+v", fourHundred[0])
	}
	if fourHundred[1].ActivityID != 1 || fourHundred[1].Seconds != 90 {
		t.Errorf("second 400m point = %+v", fourHundred[1])
	}
	if fourHundred[2].ActivityID != 4 || fourHundred[2].Seconds != 85 {
		t.Errorf("third 400m point = %+v", fourHundred[2])
	}

	mile := bySeries["1 Mile"]
	if len(mile) != 2 || mile[0].Seconds != 420 || mile[1].Seconds != 400 {
		t.Errorf("1 Mile points = %v", mile)
	}

	t.Run("no runs", func(t *testing.T) {
		_, err := personalBestsPlot().Render(stats.NewSliceStream(nil))
		var visible *UserVisibleError
		if !errors.As(err, &visible) {
			t.Errorf("expected UserVisibleError, got %v", err)
		}
	})

	t.Run("runs without best efforts", func(t *testing.T) {
		_, err := personalBestsPlot().Render(stats.NewSliceStream([]models.ActivityRecord{run(1, day(1))}))
		var visible *UserVisibleError
		if !errors.As(err, &visible) {
			t.Errorf("expected UserVisibleError, got %v", err)
		}
	})
}

func TestPolylineGrid(t *testing.T) {
	// A simple square route around a point in mid latitudes.
	encoded := string(gopolyline.EncodeCoords([][]float64{
		{50.000, 8.000},
		{50.010, 8.000},
		{50.010, 8.010},
		{50.000, 8.010},
		{50.000, 8.000},
	}))

	records := []models.ActivityRecord{
		{ID: 1, SportType: "Run", MapPolyline: encoded},
		{ID: 2, SportType: "Run"}, // no route, skipped
	}

	payload, err := polylineGrid().Render(stats.NewSliceStream(records))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	data := payload.(*ImageSetData)

	if len(data.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(data.Images))
	}
	img := data.Images[0]
	if img.ActivityID != 1 || len(img.Points) != 5 {
		t.Errorf("image = %+v", img)
	}
	for _, p := range img.Points {
		if p[0] < 0 || p[0] > 1 || p[1] < 0 || p[1] > 1 {
			t.Errorf("point %v outside the unit square", p)
		}
	}

	t.Run("no routes at all", func(t *testing.T) {
		_, err := polylineGrid().Render(stats.NewSliceStream([]models.ActivityRecord{{ID: 1}}))
		var visible *UserVisibleError
		if !errors.As(err, &visible) {
			t.Errorf("expected UserVisibleError, got %v", err)
		}
	})
}
