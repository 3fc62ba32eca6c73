package stats

import (
	"fmt"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

// TotalActivities counts every record in the stream.
type TotalActivities struct {
	count int
}

func (c *TotalActivities) Process(rec *models.ActivityRecord) { c.count++ }

func (c *TotalActivities) Finalize() *Result {
	if c.count == 0 {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%d", c.count)}
}

func (c *TotalActivities) Description() string { return "Total Number of Activities" }

// TotalKudos sums kudos over every record.
type TotalKudos struct {
	kudos int
	seen  bool
}

func (c *TotalKudos) Process(rec *models.ActivityRecord) {
	c.kudos += rec.KudosCount
	c.seen = true
}

func (c *TotalKudos) Finalize() *Result {
	if !c.seen {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%d", c.kudos)}
}

func (c *TotalKudos) Description() string { return "Total Kudos Received" }

// HottestActivity tracks the record with the highest average temperature.
// Records without temperature data are skipped.
type HottestActivity struct {
	activityID int64
	temp       *float64
}

func (c *HottestActivity) Process(rec *models.ActivityRecord) {
	if rec.AvgTemp == nil {
		return
	}
	if c.temp == nil || *rec.AvgTemp > *c.temp {
		v := *rec.AvgTemp
		c.temp = &v
		c.activityID = rec.ID
	}
}

func (c *HottestActivity) Finalize() *Result {
	if c.temp == nil {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%.0f Celsius", *c.temp), ActivityID: c.activityID}
}

func (c *HottestActivity) Description() string { return "Highest Average Temperature" }

// ColdestActivity tracks the record with the lowest average temperature.
type ColdestActivity struct {
	activityID int64
	temp       *float64
}

func (c *ColdestActivity) Process(rec *models.ActivityRecord) {
	if rec.AvgTemp == nil {
		return
	}
	if c.temp == nil || *rec.AvgTemp < *c.temp {
		v := *rec.AvgTemp
		c.temp = &v
		c.activityID = rec.ID
	}
}

func (c *ColdestActivity) Finalize() *Result {
	if c.temp == nil {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%.0f Celsius", *c.temp), ActivityID: c.activityID}
}

func (c *ColdestActivity) Description() string { return "Lowest Average Temperature" }

// MostAthletesOnActivity finds the group activity with the most participants.
// A single-athlete activity (count <= 1) never produces a result.
type MostAthletesOnActivity struct {
	activityID int64
	most       int
}

func (c *MostAthletesOnActivity) Process(rec *models.ActivityRecord) {
	if rec.AthleteCount > c.most {
		c.most = rec.AthleteCount
		c.activityID = rec.ID
	}
}

func (c *MostAthletesOnActivity) Finalize() *Result {
	if c.most <= 1 {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%d People", c.most), ActivityID: c.activityID}
}

func (c *MostAthletesOnActivity) Description() string { return "Most People on Group Activity" }

// heartRateExtreme is shared accumulator state for the four heart-rate
// collectors: it tracks the extreme of a chosen field under a chosen ordering.
type heartRateExtreme struct {
	activityID int64
	value      *float64
}

func (h *heartRateExtreme) observe(id int64, v *float64, better func(candidate, current float64) bool) {
	if v == nil {
		return
	}
	if h.value == nil || better(*v, *h.value) {
		val := *v
		h.value = &val
		h.activityID = id
	}
}

func (h *heartRateExtreme) result() *Result {
	if h.value == nil {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%.0f BPM", *h.value), ActivityID: h.activityID}
}

func higher(a, b float64) bool { return a > b }
func lower(a, b float64) bool  { return a < b }

// HighestMaxHeartRate finds the activity with the highest recorded max HR.
type HighestMaxHeartRate struct{ heartRateExtreme }

func (c *HighestMaxHeartRate) Process(rec *models.ActivityRecord) {
	c.observe(rec.ID, rec.MaxHeartRate, higher)
}
func (c *HighestMaxHeartRate) Finalize() *Result { return c.result() }
func (c *HighestMaxHeartRate) Description() string { return "Highest Maximum Heart Rate" }

// LowestMaxHeartRate finds the activity with the lowest recorded max HR.
type LowestMaxHeartRate struct{ heartRateExtreme }

func (c *LowestMaxHeartRate) Process(rec *models.ActivityRecord) {
	c.observe(rec.ID, rec.MaxHeartRate, lower)
}
func (c *LowestMaxHeartRate) Finalize() *Result { return c.result() }
func (c *LowestMaxHeartRate) Description() string { return "Lowest Maximum Heart Rate" }

// HighestAvgHeartRate finds the activity with the highest average HR.
type HighestAvgHeartRate struct{ heartRateExtreme }

func (c *HighestAvgHeartRate) Process(rec *models.ActivityRecord) {
	c.observe(rec.ID, rec.AvgHeartRate, higher)
}
func (c *HighestAvgHeartRate) Finalize() *Result { return c.result() }
func (c *HighestAvgHeartRate) Description() string { return "Highest Average Heart Rate" }

// LowestAvgHeartRate finds the activity with the lowest average HR.
type LowestAvgHeartRate struct{ heartRateExtreme }

func (c *LowestAvgHeartRate) Process(rec *models.ActivityRecord) {
	c.observe(rec.ID, rec.AvgHeartRate, lower)
}
func (c *LowestAvgHeartRate) Finalize() *Result { return c.result() }
func (c *LowestAvgHeartRate) Description() string { return "Lowest Average Heart Rate" }

// MostKudosedActivity finds the activity with the most kudos. Zero kudos
// everywhere produces no result.
type MostKudosedActivity struct {
	activityID int64
	kudos      int
	seen       bool
}

func (c *MostKudosedActivity) Process(rec *models.ActivityRecord) {
	if !c.seen || rec.KudosCount > c.kudos {
		c.seen = true
		c.kudos = rec.KudosCount
		c.activityID = rec.ID
	}
}

func (c *MostKudosedActivity) Finalize() *Result {
	if !c.seen || c.kudos == 0 {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%d", c.kudos), ActivityID: c.activityID}
}

func (c *MostKudosedActivity) Description() string { return "Most Kudosed Activity" }

// FirstActivity finds the oldest record by local start date.
type FirstActivity struct {
	activityID int64
	date       *time.Time
}

func (c *FirstActivity) Process(rec *models.ActivityRecord) {
	if rec.StartDateLocal.IsZero() {
		return
	}
	if c.date == nil || rec.StartDateLocal.Before(*c.date) {
		d := rec.StartDateLocal
		c.date = &d
		c.activityID = rec.ID
	}
}

func (c *FirstActivity) Finalize() *Result {
	if c.date == nil {
		return nil
	}
	return &Result{Value: c.date.Format("2006-01-02 15:04:05"), ActivityID: c.activityID}
}

func (c *FirstActivity) Description() string { return "First Activity" }

// EarliestStart finds the activity that started earliest in the day, by local
// wall-clock time regardless of date.
type EarliestStart struct {
	activityID int64
	seconds    int
	seen       bool
}

func (c *EarliestStart) Process(rec *models.ActivityRecord) {
	if rec.StartDateLocal.IsZero() {
		return
	}
	s := rec.StartDateLocal.Hour()*3600 + rec.StartDateLocal.Minute()*60 + rec.StartDateLocal.Second()
	if !c.seen || s <= c.seconds {
		c.seen = true
		c.seconds = s
		c.activityID = rec.ID
	}
}

func (c *EarliestStart) Finalize() *Result {
	if !c.seen {
		return nil
	}
	return &Result{Value: formatClock(c.seconds), ActivityID: c.activityID}
}

func (c *EarliestStart) Description() string { return "Earliest Activity" }

// LatestStart finds the activity that started latest in the day.
type LatestStart struct {
	activityID int64
	seconds    int
	seen       bool
}

func (c *LatestStart) Process(rec *models.ActivityRecord) {
	if rec.StartDateLocal.IsZero() {
		return
	}
	s := rec.StartDateLocal.Hour()*3600 + rec.StartDateLocal.Minute()*60 + rec.StartDateLocal.Second()
	if !c.seen || s >= c.seconds {
		c.seen = true
		c.seconds = s
		c.activityID = rec.ID
	}
}

func (c *LatestStart) Finalize() *Result {
	if !c.seen {
		return nil
	}
	return &Result{Value: formatClock(c.seconds), ActivityID: c.activityID}
}

func (c *LatestStart) Description() string { return "Latest Activity" }

func formatClock(secondsOfDay int) string {
	return fmt.Sprintf("%02d:%02d:%02d", secondsOfDay/3600, (secondsOfDay/60)%60, secondsOfDay%60)
}
