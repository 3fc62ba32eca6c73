package artifacts

import (
	"fmt"
	"io"
	"sort"

	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
)

const topLongestLimit = 100

// topLongestTable lists the athlete's longest activities by distance. Memory
// stays bounded at the table size: a candidate either displaces the current
// shortest entry or is dropped.
func topLongestTable() Generator {
	return NewTable("top_hundred_longest", models.TierSummary, func(stream stats.Stream) (*TableData, error) {
		type entry struct {
			id       int64
			name     string
			sport    string
			date     string
			distance float64
		}
		var top []entry

		for {
			rec, err := stream.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if rec.DistanceMeters <= 0 {
				continue
			}

			e := entry{
				id:       rec.ID,
				name:     rec.Name,
				sport:    rec.SportType,
				date:     rec.StartDateLocal.Format("2006-01-02"),
				distance: rec.DistanceMeters,
			}

			if len(top) < topLongestLimit {
				top = append(top, e)
				sort.Slice(top, func(i, j int) bool { return top[i].distance > top[j].distance })
				continue
			}
			if e.distance <= top[len(top)-1].distance {
				continue
			}
			top[len(top)-1] = e
			sort.Slice(top, func(i, j int) bool { return top[i].distance > top[j].distance })
		}

		if len(top) == 0 {
			return nil, NoData("No activities with a recorded distance.")
		}

		data := &TableData{Columns: []string{"Rank", "Name", "Type", "Date", "Distance (km)"}}
		for i, e := range top {
			data.Rows = append(data.Rows, []string{
				fmt.Sprintf("%d", i+1),
				e.name,
				e.sport,
				e.date,
				fmt.Sprintf("%.1f", e.distance/1000),
			})
			data.Links = append(data.Links, stats.ActivityLink(e.id))
		}
		return data, nil
	})
}

// flaggedActivitiesTable lists activities flagged for cheating. An athlete
// with no flagged activities gets a quiet empty state.
func flaggedActivitiesTable() Generator {
	return NewTable("flagged_activities", models.TierSummary, func(stream stats.Stream) (*TableData, error) {
		data := &TableData{Columns: []string{"Name", "Type", "Date"}}

		for {
			rec, err := stream.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if !rec.Flagged {
				continue
			}

			data.Rows = append(data.Rows, []string{
				rec.Name,
				rec.SportType,
				rec.StartDateLocal.Format("2006-01-02"),
			})
			data.Links = append(data.Links, stats.ActivityLink(rec.ID))
		}

		if len(data.Rows) == 0 {
			return nil, NoData("No flagged activities. Well done.")
		}
		return data, nil
	})
}
