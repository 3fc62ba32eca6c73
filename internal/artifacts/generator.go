package artifacts

import (
	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
)

// Kind is the closed set of artifact kinds. Each kind has its own generator
// type and payload shape; there is deliberately no open hierarchy with
// optional overrides.
type Kind string

const (
	KindPlot     Kind = "plot"
	KindTable    Kind = "table"
	KindTrivia   Kind = "trivia"
	KindImageSet Kind = "image_set"
)

// Generator produces one artifact from a single pass over an activity stream.
// Render must be free of side effects; it may fail with a UserVisibleError
// when the athlete's data lacks what the artifact needs.
type Generator interface {
	Name() string
	Tier() models.Tier
	Kind() Kind
	Render(stream stats.Stream) (any, error)
}

// PlotGenerator renders chart data (cumulative series, calendars, timelines).
type PlotGenerator struct {
	name   string
	tier   models.Tier
	render func(stream stats.Stream) (any, error)
}

// NewPlot builds a plot generator.
func NewPlot(name string, tier models.Tier, render func(stream stats.Stream) (any, error)) *PlotGenerator {
	return &PlotGenerator{name: name, tier: tier, render: render}
}

func (g *PlotGenerator) Name() string { return g.name }
func (g *PlotGenerator) Tier() models.Tier { return g.tier }
func (g *PlotGenerator) Kind() Kind { return KindPlot }
func (g *PlotGenerator) Render(stream stats.Stream) (any, error) { return g.render(stream) }

// TableData is the payload of a table artifact.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Links   []string   `json:"links,omitempty"` // per-row link, empty string when none
}

// TableGenerator renders tabular data.
type TableGenerator struct {
	name   string
	tier   models.Tier
	render func(stream stats.Stream) (*TableData, error)
}

// NewTable builds a table generator.
func NewTable(name string, tier models.Tier, render func(stream stats.Stream) (*TableData, error)) *TableGenerator {
	return &TableGenerator{name: name, tier: tier, render: render}
}

func (g *TableGenerator) Name() string      { return g.name }
func (g *TableGenerator) Tier() models.Tier { return g.tier }
func (g *TableGenerator) Kind() Kind        { return KindTable }

func (g *TableGenerator) Render(stream stats.Stream) (any, error) {
	return g.render(stream)
}

// TriviaGenerator renders a list of tidbits via a fresh processor pass. The
// collector factory runs once per Render so accumulator state is never shared
// between passes or athletes.
type TriviaGenerator struct {
	name       string
	tier       models.Tier
	collectors func() []stats.Collector
}

// NewTrivia builds a trivia generator from a collector factory.
func NewTrivia(name string, tier models.Tier, collectors func() []stats.Collector) *TriviaGenerator {
	return &TriviaGenerator{name: name, tier: tier, collectors: collectors}
}

func (g *TriviaGenerator) Name() string      { return g.name }
func (g *TriviaGenerator) Tier() models.Tier { return g.tier }
func (g *TriviaGenerator) Kind() Kind        { return KindTrivia }

func (g *TriviaGenerator) Render(stream stats.Stream) (any, error) {
	processor := stats.NewProcessor()
	for _, c := range g.collectors() {
		processor.Register(c)
	}
	tidbits, err := processor.Run(stream)
	if err != nil {
		return nil, err
	}
	return tidbits, nil
}

// ImageSetData is the payload of an image-set artifact: one drawable route
// description per activity.
type ImageSetData struct {
	Images []RouteImage `json:"images"`
}

// RouteImage is one normalized route: points scaled into the unit square,
// ready to draw in any cell size.
type RouteImage struct {
	ActivityID int64        `json:"activity_id"`
	SportType  string       `json:"sport_type"`
	Points     [][2]float64 `json:"points"` // x, y in [0, 1]
}

// ImageSetGenerator renders image-set data.
type ImageSetGenerator struct {
	name   string
	tier   models.Tier
	render func(stream stats.Stream) (*ImageSetData, error)
}

// NewImageSet builds an image-set generator.
func NewImageSet(name string, tier models.Tier, render func(stream stats.Stream) (*ImageSetData, error)) *ImageSetGenerator {
	return &ImageSetGenerator{name: name, tier: tier, render: render}
}

func (g *ImageSetGenerator) Name() string      { return g.name }
func (g *ImageSetGenerator) Tier() models.Tier { return g.tier }
func (g *ImageSetGenerator) Kind() Kind        { return KindImageSet }

func (g *ImageSetGenerator) Render(stream stats.Stream) (any, error) {
	return g.render(stream)
}
