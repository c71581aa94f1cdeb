package tsp

import (
	"math"

	"kml-eagle/internal/models"
)

// NearestNeighbor builds an open path starting at start by always moving to
// the closest unvisited index. When end >= 0 that index is held back and
// appended last. Ties go to the lowest index.
func NearestNeighbor(m models.DistanceMatrix, start, end int) ([]int, float64) {
	n := len(m)
	if n == 0 {
		return nil, 0
	}
	if end == start {
		end = -1
	}

	visited := make([]bool, n)
	route := make([]int, 0, n)
	total := 0.0

	current := start
	visited[current] = true
	route = append(route, current)

	toVisit := n
	if end >= 0 {
		toVisit = n - 1
	}

	for step := 1; step < toVisit; step++ {
		nearest := -1
		nearestDistance := math.Inf(1)
		for i := 0; i < n; i++ {
			if visited[i] || i == end {
				continue
			}
			if m[current][i] < nearestDistance {
				nearest, nearestDistance = i, m[current][i]
			}
		}
		if nearest < 0 {
			break
		}

		visited[nearest] = true
		route = append(route, nearest)
		total += nearestDistance
		current = nearest
	}

	if end >= 0 && !visited[end] {
		total += m[current][end]
		route = append(route, end)
	}

	return route, total
}
