package routing

import (
	"kml-eagle/internal/errors"
	"kml-eagle/internal/models"
)

// SplitCoordinates cuts points into chunks of at most size elements where
// each chunk starts with the last element of the previous one.
func SplitCoordinates[T any](points []T, size int) [][]T {
	if len(points) <= size || size < 2 {
		return [][]T{points}
	}

	var chunks [][]T
	start := 0
	for {
		end := min(start+size, len(points))
		chunks = append(chunks, points[start:end])
		if end == len(points) {
			break
		}
		start = end - 1
	}
	return chunks
}

// Stitch joins chunk results into one route. Each later chunk's first
// coordinate is dropped because it repeats the previous chunk's last one.
// Distances and durations are summed, all steps go into a single leg and
// the confidence of the first chunk is kept.
func Stitch(results []*models.RouteResult) (*models.RouteResult, error) {
	switch len(results) {
	case 0:
		return nil, errors.New("no route chunks to stitch")
	case 1:
		return results[0], nil
	}

	out := &models.RouteResult{Confidence: results[0].Confidence}
	combined := models.Leg{Steps: []models.Step{}}

	for i, r := range results {
		out.Distance += r.Distance
		out.Duration += r.Duration

		if i == 0 {
			out.Geometry = append(out.Geometry, r.Geometry...)
		} else if len(r.Geometry) > 0 {
			out.Geometry = append(out.Geometry, r.Geometry[1:]...)
		}

		for _, l := range r.Legs {
			combined.Steps = append(combined.Steps, l.Steps...)
		}
	}

	combined.Distance = out.Distance
	combined.Duration = out.Duration
	out.Legs = []models.Leg{combined}

	return out, nil
}
