package stats

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// AllSports is the pseudo sport type covering every record.
const AllSports = "All"

// SeriesSpec configures one cumulative plot: which attribute to accumulate,
// how to convert its unit for display, and how to label the result. The
// attribute is an explicit accessor rather than a field name looked up by
// reflection.
type SeriesSpec struct {
	Attr       Attr
	Convert    func(v float64) float64 // raw attribute -> display unit
	YAxisTitle string
	TitleFor   func(sportType string) string
}

// YearSeries is one cumulative line: day-of-year indexed running totals for a
// single calendar year.
type YearSeries struct {
	Year   int       `json:"year"`
	Values []float64 `json:"values"` // index 0 = Jan 1
}

// CumulativePlot is the serializable result of one cumulative series pass:
// per-year lines for every sport type plus the "All" aggregate.
type CumulativePlot struct {
	YAxisTitle string                  `json:"y_axis_title"`
	Titles     map[string]string       `json:"titles"` // sport type -> plot title
	Series     map[string][]YearSeries `json:"series"` // sport type -> lines
}

// BuildCumulative runs a single pass over the stream and accumulates per-day
// totals into per-year, per-sport-type buckets. Memory is bounded by
// years x sport types, not by the record count. The current year's line is
// truncated at today so the plot does not trail off in zeros.
func BuildCumulative(stream Stream, spec SeriesSpec, now time.Time) (*CumulativePlot, error) {
	type bucketKey struct {
		sport string
		year  int
	}
	buckets := make(map[bucketKey]*[366]float64)

	add := func(sport string, year, yday int, v float64) {
		key := bucketKey{sport, year}
		b, ok := buckets[key]
		if !ok {
			b = new([366]float64)
			buckets[key] = b
		}
		b[yday-1] += v
	}

	for {
		rec, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading activity stream: %w", err)
		}
		if rec.StartDateLocal.IsZero() {
			continue
		}

		raw, ok := spec.Attr(rec)
		if !ok {
			continue
		}
		v := spec.Convert(raw)

		year := rec.StartDateLocal.Year()
		yday := rec.StartDateLocal.YearDay()
		add(AllSports, year, yday, v)
		add(rec.SportType, year, yday, v)
	}

	plot := &CumulativePlot{
		YAxisTitle: spec.YAxisTitle,
		Titles:     make(map[string]string),
		Series:     make(map[string][]YearSeries),
	}

	for key, bucket := range buckets {
		values := cumulate(bucket[:])

		// Truncate the current year at today.
		if key.year == now.Year() && now.YearDay() <= len(values) {
			values = values[:now.YearDay()]
		}

		plot.Series[key.sport] = append(plot.Series[key.sport], YearSeries{
			Year:   key.year,
			Values: values,
		})
	}

	for sport, series := range plot.Series {
		sort.Slice(series, func(i, j int) bool { return series[i].Year > series[j].Year })
		plot.Titles[sport] = spec.TitleFor(sport)
	}

	return plot, nil
}

func cumulate(daily []float64) []float64 {
	out := make([]float64, len(daily))
	var sum float64
	for i, v := range daily {
		sum += v
		out[i] = sum
	}
	return out
}

// CalendarPlot is a GitHub-style activity calendar: the number of activities
// logged on every day that has at least one.
type CalendarPlot struct {
	Counts map[string]int `json:"counts"` // "2006-01-02" -> activity count
}

// BuildCalendar counts activities per local calendar day in one pass.
func BuildCalendar(stream Stream) (*CalendarPlot, error) {
	plot := &CalendarPlot{Counts: make(map[string]int)}

	for {
		rec, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading activity stream: %w", err)
		}
		if rec.StartDateLocal.IsZero() {
			continue
		}
		plot.Counts[rec.StartDateLocal.Format("2006-01-02")]++
	}

	return plot, nil
}
