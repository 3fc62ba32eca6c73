package artifacts

import (
	"io"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
	gopolyline "github.com/twpayne/go-polyline"

	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
)

// polylineGrid renders every activity's route as a normalized shape for the
// route-grid view: each polyline is decoded, projected, and scaled into the
// unit square so the frontend can draw them in uniform cells.
func polylineGrid() Generator {
	return NewImageSet("polyline_grid", models.TierDetailed, func(stream stats.Stream) (*ImageSetData, error) {
		data := &ImageSetData{}

		for {
			rec, err := stream.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if rec.MapPolyline == "" {
				continue
			}

			points, err := normalizeRoute(rec.MapPolyline)
			if err != nil || len(points) < 2 {
				// A corrupt or trivial polyline skips the one activity only.
				continue
			}

			data.Images = append(data.Images, RouteImage{
				ActivityID: rec.ID,
				SportType:  rec.SportType,
				Points:     points,
			})
		}

		if len(data.Images) == 0 {
			return nil, NoData("No activities with route data.")
		}
		return data, nil
	})
}

// normalizeRoute decodes an encoded polyline and maps it into the unit
// square, preserving the route's aspect ratio. Longitudes are scaled by the
// cosine of the route's mid latitude so shapes keep their proportions away
// from the equator.
func normalizeRoute(encoded string) ([][2]float64, error) {
	coords, _, err := gopolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}

	latLngs := make([]s2.LatLng, 0, len(coords))
	for _, c := range coords {
		latLngs = append(latLngs, s2.LatLngFromDegrees(c[0], c[1]))
	}

	var latSum float64
	for _, ll := range latLngs {
		latSum += ll.Lat.Radians()
	}
	midLat := latSum / float64(len(latLngs))
	lngScale := math.Cos(midLat)

	rect := r2.EmptyRect()
	projected := make([]r2.Point, 0, len(latLngs))
	for _, ll := range latLngs {
		p := r2.Point{X: ll.Lng.Radians() * lngScale, Y: ll.Lat.Radians()}
		projected = append(projected, p)
		rect = rect.AddPoint(p)
	}

	size := rect.Size()
	span := math.Max(size.X, size.Y)
	if span == 0 {
		return nil, nil
	}

	// Center the shorter dimension so the route sits in the middle of the cell.
	offsetX := (span - size.X) / 2
	offsetY := (span - size.Y) / 2

	out := make([][2]float64, 0, len(projected))
	for _, p := range projected {
		x := (p.X - rect.X.Lo + offsetX) / span
		// Flip Y so north is up in image coordinates.
		y := 1 - (p.Y-rect.Y.Lo+offsetY)/span
		out = append(out, [2]float64{x, y})
	}
	return out, nil
}
