package artifacts

import (
	"github.com/stridestats/stridestats/internal/models"
)

// Registry returns every registered generator. The builder filters by tier.
func Registry() []Generator {
	return []Generator{
		cumulativeDistancePlot(),
		cumulativeTimePlot(),
		calendarPlot(),
		summaryTrivia(),
		topLongestTable(),
		flaggedActivitiesTable(),
		detailedTrivia(),
		personalBestsPlot(),
		polylineGrid(),
	}
}

// Names returns the artifact names registered for a tier, for the read API's
// tab listing.
func Names(tier models.Tier) []string {
	var names []string
	for _, g := range Registry() {
		if g.Tier() == tier {
			names = append(names, g.Name())
		}
	}
	return names
}
