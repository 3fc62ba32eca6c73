package artifacts

import (
	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
)

// summaryCollectors builds a fresh set of summary-tier collectors. A new set
// per pass is deliberate: reusing accumulator instances across athletes would
// leak one user's data into another's results.
func summaryCollectors() []stats.Collector {
	return []stats.Collector{
		&stats.TotalActivities{},
		&stats.TotalKudos{},
		&stats.HottestActivity{},
		&stats.ColdestActivity{},
		&stats.MostAthletesOnActivity{},
		&stats.HighestMaxHeartRate{},
		&stats.LowestMaxHeartRate{},
		&stats.HighestAvgHeartRate{},
		&stats.LowestAvgHeartRate{},
		&stats.MostKudosedActivity{},
		&stats.FirstActivity{},
		&stats.EarliestStart{},
		&stats.LatestStart{},
		&stats.MostConsecutiveDays{},
		stats.NewMinAttribute("Run", "Distance", stats.DistanceAttr, "meters"),
		stats.NewMaxAttribute("Run", "Distance", stats.DistanceAttr, "meters"),
		stats.NewMinAttribute("Ride", "Distance", stats.DistanceAttr, "meters"),
		stats.NewMaxAttribute("Ride", "Distance", stats.DistanceAttr, "meters"),
		stats.NewMaxAttribute("Run", "Elevation Gain", stats.ElevationAttr, "meters"),
		stats.NewMaxAttribute("Ride", "Elevation Gain", stats.ElevationAttr, "meters"),
	}
}

func detailedCollectors() []stats.Collector {
	return []stats.Collector{
		&stats.TotalSegmentEfforts{},
		&stats.UniqueSegments{},
		&stats.MostRepeatedSegment{},
	}
}

func summaryTrivia() Generator {
	return NewTrivia("summary_trivia", models.TierSummary, summaryCollectors)
}

func detailedTrivia() Generator {
	return NewTrivia("detailed_trivia", models.TierDetailed, detailedCollectors)
}
