package stats

import (
	"fmt"
	"io"

	"github.com/stridestats/stridestats/internal/models"
)

// Stream yields activity records one at a time. Next returns io.EOF after the
// final record. Streams are single-pass; obtain a fresh one for every run.
type Stream interface {
	Next() (*models.ActivityRecord, error)
}

// Result is what a collector produces after the stream is exhausted. A nil
// Result means the collector never saw usable data and is suppressed from the
// output entirely. At most one of ActivityID/SegmentID may be set; the
// processor derives the tidbit link from it.
type Result struct {
	Value      string
	ActivityID int64
	SegmentID  int64
}

// Collector is the unit of aggregation: it consumes one activity at a time,
// updating private accumulator state, and yields zero or one results at the
// end. Process must tolerate records that are missing an optional field it
// depends on by skipping them. Collector state is O(1) with respect to the
// record count unless documented otherwise.
type Collector interface {
	Process(rec *models.ActivityRecord)
	Finalize() *Result
	Description() string
}

// Processor drives a single pass of an activity stream through a registered
// set of collectors, then harvests each collector's result in registration
// order, dropping collectors that produced nothing.
type Processor struct {
	collectors []Collector
}

// NewProcessor returns an empty processor. Collectors must be freshly
// constructed per processing pass; they are never reused across athletes.
func NewProcessor() *Processor {
	return &Processor{}
}

// Register appends a collector. Registration order determines output order.
func (p *Processor) Register(c Collector) {
	p.collectors = append(p.collectors, c)
}

// Run performs exactly one pass over the stream, feeding every record to every
// registered collector, then finalizes each collector and returns the
// non-empty tidbits in registration order.
func (p *Processor) Run(stream Stream) ([]models.Tidbit, error) {
	for {
		rec, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading activity stream: %w", err)
		}

		for _, c := range p.collectors {
			c.Process(rec)
		}
	}

	var tidbits []models.Tidbit
	for _, c := range p.collectors {
		res := c.Finalize()
		if res == nil {
			continue
		}

		if res.ActivityID != 0 && res.SegmentID != 0 {
			return nil, fmt.Errorf("collector %q yields both an activity and a segment link", c.Description())
		}

		tidbit := models.Tidbit{
			Description: c.Description(),
			Value:       res.Value,
		}
		switch {
		case res.ActivityID != 0:
			tidbit.Link = ActivityLink(res.ActivityID)
		case res.SegmentID != 0:
			tidbit.Link = SegmentLink(res.SegmentID)
		}

		tidbits = append(tidbits, tidbit)
	}

	return tidbits, nil
}

// sliceStream adapts an in-memory slice to the Stream interface.
type sliceStream struct {
	records []models.ActivityRecord
	pos     int
}

// NewSliceStream returns a single-pass stream over the given records.
func NewSliceStream(records []models.ActivityRecord) Stream {
	return &sliceStream{records: records}
}

func (s *sliceStream) Next() (*models.ActivityRecord, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := &s.records[s.pos]
	s.pos++
	return rec, nil
}
