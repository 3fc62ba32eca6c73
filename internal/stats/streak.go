package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

// MostConsecutiveDays finds the longest run of consecutive calendar days that
// each contain at least one activity. This collector intentionally retains one
// date per record, so its memory is O(records) rather than O(1) like the rest
// of the collectors.
type MostConsecutiveDays struct {
	dates []time.Time
}

func (c *MostConsecutiveDays) Process(rec *models.ActivityRecord) {
	if rec.StartDateLocal.IsZero() {
		return
	}
	d := rec.StartDateLocal
	c.dates = append(c.dates, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
}

func (c *MostConsecutiveDays) Finalize() *Result {
	if len(c.dates) == 0 {
		return nil
	}

	sort.Slice(c.dates, func(i, j int) bool { return c.dates[i].Before(c.dates[j]) })

	maxStreak, curStreak := 1, 1
	start, end := c.dates[0], c.dates[0]
	maxStart, maxEnd := c.dates[0], c.dates[0]

	for i := 1; i < len(c.dates); i++ {
		gap := c.dates[i].Sub(c.dates[i-1])

		// Multiple activities on the same day neither extend nor break the streak.
		if gap == 0 {
			continue
		}

		if gap == 24*time.Hour {
			curStreak++
			end = c.dates[i]
		} else {
			curStreak = 1
			start = c.dates[i]
			end = c.dates[i]
		}

		if curStreak > maxStreak {
			maxStreak = curStreak
			maxStart = start
			maxEnd = end
		}
	}

	return &Result{Value: fmt.Sprintf("%d days (%s to %s)",
		maxStreak, maxStart.Format("2006-01-02"), maxEnd.Format("2006-01-02"))}
}

func (c *MostConsecutiveDays) Description() string {
	return "Most Consecutive Days of Activities"
}
