package models

import (
	"time"
)

// ActivityRecord represents one logged exercise session fetched from the
// upstream platform. Summary-tier records carry the top-level fields only;
// detailed-tier records additionally carry best efforts, segment efforts and
// the route polyline.
type ActivityRecord struct {
	ID             int64     `json:"id"`
	AthleteID      int64     `json:"athlete_id"`
	Name           string    `json:"name,omitempty"`
	SportType      string    `json:"sport_type"` // open enum: "Run", "Ride", "Swim", ...
	StartDate      time.Time `json:"start_date"`
	StartDateLocal time.Time `json:"start_date_local"`
	MovingSeconds  int64     `json:"moving_seconds"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	DistanceMeters float64   `json:"distance_meters"`
	ElevationGain  float64   `json:"elevation_gain_meters"`
	AvgHeartRate   *float64  `json:"avg_heart_rate,omitempty"`
	MaxHeartRate   *float64  `json:"max_heart_rate,omitempty"`
	AvgTemp        *float64  `json:"avg_temp,omitempty"`
	AvgSpeed       *float64  `json:"avg_speed,omitempty"` // meters/second
	KudosCount     int       `json:"kudos_count"`
	AthleteCount   int       `json:"athlete_count"`
	Flagged        bool      `json:"flagged"`

	// Detailed-tier only.
	BestEfforts    []BestEffort    `json:"best_efforts,omitempty"`
	SegmentEfforts []SegmentEffort `json:"segment_efforts,omitempty"`
	MapPolyline    string          `json:"map_polyline,omitempty"`
}

// BestEffort is the athlete's best time over a standard distance within one
// activity. Names come from the upstream platform, e.g. "400m" or "1 Mile".
type BestEffort struct {
	Name           string    `json:"name"`
	StartDateLocal time.Time `json:"start_date_local"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
}

// SegmentEffort records one completion of a named segment within an activity.
type SegmentEffort struct {
	ID             int64   `json:"id"`
	SegmentID      int64   `json:"segment_id"`
	SegmentName    string  `json:"segment_name,omitempty"`
	ElapsedSeconds int64   `json:"elapsed_seconds"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Tier is the fidelity level of fetched activity data. Detailed data costs
// more upstream quota and unlocks segments, best efforts and full polylines.
type Tier string

const (
	TierSummary  Tier = "summary"
	TierDetailed Tier = "detailed"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierSummary || t == TierDetailed
}

// Tidbit is one atomic fact produced by a stat collector, e.g.
// ("Most Consecutive Days of Activities", "4 days (...)", link).
type Tidbit struct {
	Description string `json:"description"`
	Value       string `json:"value"`
	Link        string `json:"link,omitempty"`
}
