package artifacts

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
)

func cumulativeDistancePlot() Generator {
	spec := stats.SeriesSpec{
		Attr:       stats.DistanceAttr,
		Convert:    func(m float64) float64 { return m / 1000 },
		YAxisTitle: "Distance (km)",
		TitleFor: func(sport string) string {
			if sport == stats.AllSports {
				return "Cumulative Distance by Year"
			}
			return fmt.Sprintf("Cumulative %s Distance by Year", sport)
		},
	}
	return NewPlot("cumulative_distance", models.TierSummary, func(stream stats.Stream) (any, error) {
		return stats.BuildCumulative(stream, spec, time.Now())
	})
}

func cumulativeTimePlot() Generator {
	spec := stats.SeriesSpec{
		Attr:       func(rec *models.ActivityRecord) (float64, bool) { return float64(rec.MovingSeconds), true },
		Convert:    func(s float64) float64 { return s / 3600 },
		YAxisTitle: "Time (hours)",
		TitleFor: func(sport string) string {
			if sport == stats.AllSports {
				return "Cumulative Time by Year"
			}
			return fmt.Sprintf("Cumulative Time Spent on %s Activities", sport)
		},
	}
	return NewPlot("cumulative_time", models.TierSummary, func(stream stats.Stream) (any, error) {
		return stats.BuildCumulative(stream, spec, time.Now())
	})
}

func calendarPlot() Generator {
	return NewPlot("activity_calendar", models.TierSummary, func(stream stats.Stream) (any, error) {
		return stats.BuildCalendar(stream)
	})
}

// personalBestPoint is one improvement of the athlete's best time over a
// distance.
type personalBestPoint struct {
	Date       string `json:"date"`
	ActivityID int64  `json:"activity_id"`
	Seconds    int64  `json:"seconds"`
}

// personalBestSeries is the improvement timeline for one best-effort
// distance, e.g. "400m" or "1 Mile".
type personalBestSeries struct {
	Name   string              `json:"name"`
	Points []personalBestPoint `json:"points"`
}

// personalBestsPlot builds one timeline per best-effort distance across the
// athlete's runs: efforts are grouped by name, ordered by date, and a point
// is emitted each time the best time improves. Flagged activities are
// skipped. Runs are the only sport the upstream platform reports best
// efforts for.
func personalBestsPlot() Generator {
	return NewPlot("personal_bests", models.TierDetailed, func(stream stats.Stream) (any, error) {
		type effort struct {
			date       time.Time
			activityID int64
			seconds    int64
		}
		byName := make(map[string][]effort)
		var order []string

		for {
			rec, err := stream.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if rec.Flagged || rec.SportType != "Run" {
				continue
			}
			for _, be := range rec.BestEfforts {
				if be.ElapsedSeconds <= 0 {
					continue
				}
				if _, ok := byName[be.Name]; !ok {
					order = append(order, be.Name)
				}
				byName[be.Name] = append(byName[be.Name], effort{
					date:       be.StartDateLocal,
					activityID: rec.ID,
					seconds:    be.ElapsedSeconds,
				})
			}
		}

		if len(order) == 0 {
			return nil, NoData("No runs found, so this plot can not be generated.")
		}

		series := make([]personalBestSeries, 0, len(order))
		for _, name := range order {
			efforts := byName[name]
			sort.Slice(efforts, func(i, j int) bool { return efforts[i].date.Before(efforts[j].date) })

			var points []personalBestPoint
			var best int64
			for _, e := range efforts {
				if best == 0 || e.seconds < best {
					best = e.seconds
					points = append(points, personalBestPoint{
						Date:       e.date.Format("2006-01-02"),
						ActivityID: e.activityID,
						Seconds:    e.seconds,
					})
				}
			}
			series = append(series, personalBestSeries{Name: name, Points: points})
		}
		return series, nil
	})
}
