package stats

import (
	"fmt"

	"github.com/stridestats/stridestats/internal/models"
)

// Detailed-tier collectors. Segment efforts are only present on detailed
// records; on summary streams these collectors quietly produce nothing.

// TotalSegmentEfforts counts every segment completion across all activities.
type TotalSegmentEfforts struct {
	count int
	seen  bool
}

func (c *TotalSegmentEfforts) Process(rec *models.ActivityRecord) {
	if rec.SegmentEfforts == nil {
		return
	}
	c.seen = true
	c.count += len(rec.SegmentEfforts)
}

func (c *TotalSegmentEfforts) Finalize() *Result {
	if !c.seen {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%d", c.count)}
}

func (c *TotalSegmentEfforts) Description() string {
	return "Total Number of Segments Completed"
}

// UniqueSegments counts distinct segments completed at least once.
type UniqueSegments struct {
	segments map[int64]int
}

func (c *UniqueSegments) Process(rec *models.ActivityRecord) {
	for _, effort := range rec.SegmentEfforts {
		if c.segments == nil {
			c.segments = make(map[int64]int)
		}
		c.segments[effort.SegmentID]++
	}
}

func (c *UniqueSegments) Finalize() *Result {
	if len(c.segments) == 0 {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%d", len(c.segments))}
}

func (c *UniqueSegments) Description() string {
	return "Total Unique Segments Completed"
}

// MostRepeatedSegment finds the segment with the most completions and links
// to it.
type MostRepeatedSegment struct {
	segments map[int64]int
}

func (c *MostRepeatedSegment) Process(rec *models.ActivityRecord) {
	for _, effort := range rec.SegmentEfforts {
		if c.segments == nil {
			c.segments = make(map[int64]int)
		}
		c.segments[effort.SegmentID]++
	}
}

func (c *MostRepeatedSegment) Finalize() *Result {
	var bestID int64
	best := 0
	for id, n := range c.segments {
		// Map order is random; break ties on the lower id for determinism.
		if bestID == 0 || n > best || (n == best && id < bestID) {
			bestID = id
			best = n
		}
	}
	if bestID == 0 {
		return nil
	}
	return &Result{Value: fmt.Sprintf("%d completions", best), SegmentID: bestID}
}

func (c *MostRepeatedSegment) Description() string {
	return "Most Popular Segment"
}
