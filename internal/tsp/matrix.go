package tsp

import (
	"kml-eagle/internal/geo"
	"kml-eagle/internal/models"
)

// BuildMatrix computes the symmetric haversine distance matrix of points.
func BuildMatrix(points []models.Waypoint) models.DistanceMatrix {
	n := len(points)
	m := make(models.DistanceMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.Distance(points[i].Coords(), points[j].Coords())
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

// RouteDistance sums matrix costs along an open path of indices.
func RouteDistance(m models.DistanceMatrix, route []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		total += m[route[i]][route[i+1]]
	}
	return total
}
