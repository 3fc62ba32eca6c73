package stats

import (
	"testing"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

func segmentRecord(id int64, segmentIDs ...int64) models.ActivityRecord {
	r := rec(id, "Ride", time.Now())
	if segmentIDs != nil {
		r.SegmentEfforts = make([]models.SegmentEffort, 0, len(segmentIDs))
		for i, sid := range segmentIDs {
			r.SegmentEfforts = append(r.SegmentEfforts, models.SegmentEffort{
				ID:        id*100 + int64(i),
				SegmentID: sid,
			})
		}
	}
	return r
}

func TestTotalSegmentEfforts(t *testing.T) {
	t.Run("summary records produce nothing", func(t *testing.T) {
		c := &TotalSegmentEfforts{}
		r := segmentRecord(1)
		c.Process(&r)
		if c.Finalize() != nil {
			t.Error("expected nil result when no record carries segment efforts")
		}
	})

	t.Run("counts every effort", func(t *testing.T) {
		c := &TotalSegmentEfforts{}
		records := []models.ActivityRecord{
			segmentRecord(1, 10, 11),
			segmentRecord(2, 10),
			segmentRecord(3),
		}
		for i := range records {
			c.Process(&records[i])
		}
		res := c.Finalize()
		if res == nil || res.Value != "3" {
			t.Errorf("got %+v, want 3", res)
		}
	})

	t.Run("detailed record with an empty effort list still counts as seen", func(t *testing.T) {
		c := &TotalSegmentEfforts{}
		r := rec(1, "Ride", time.Now())
		r.SegmentEfforts = []models.SegmentEffort{}
		c.Process(&r)
		res := c.Finalize()
		if res == nil || res.Value != "0" {
			t.Errorf("got %+v, want 0", res)
		}
	})
}

func TestUniqueSegments(t *testing.T) {
	c := &UniqueSegments{}
	records := []models.ActivityRecord{
		segmentRecord(1, 10, 11),
		segmentRecord(2, 10),
		segmentRecord(3, 12),
	}
	for i := range records {
		c.Process(&records[i])
	}
	res := c.Finalize()
	if res == nil || res.Value != "3" {
		t.Errorf("got %+v, want 3 unique segments", res)
	}

	empty := &UniqueSegments{}
	if empty.Finalize() != nil {
		t.Error("expected nil result with no efforts")
	}
}

func TestMostRepeatedSegment(t *testing.T) {
	t.Run("links the most completed segment", func(t *testing.T) {
		c := &MostRepeatedSegment{}
		records := []models.ActivityRecord{
			segmentRecord(1, 10, 11),
			segmentRecord(2, 11),
			segmentRecord(3, 11, 12),
		}
		for i := range records {
			c.Process(&records[i])
		}
		res := c.Finalize()
		if res == nil || res.Value != "3 completions" || res.SegmentID != 11 {
			t.Errorf("got %+v, want 3 completions of segment 11", res)
		}
	})

	t.Run("tie breaks on the lower segment id", func(t *testing.T) {
		c := &MostRepeatedSegment{}
		records := []models.ActivityRecord{
			segmentRecord(1, 20, 15),
			segmentRecord(2, 20, 15),
		}
		for i := range records {
			c.Process(&records[i])
		}
		res := c.Finalize()
		if res == nil || res.SegmentID != 15 {
			t.Errorf("got %+v, want segment 15 on a tie", res)
		}
	})

	t.Run("no efforts", func(t *testing.T) {
		c := &MostRepeatedSegment{}
		if c.Finalize() != nil {
			t.Error("expected nil result with no efforts")
		}
	})
}
