// Package cluster groups nearby waypoints into collection areas so the TSP
// solver works on fewer stops, and expands a solved area order back into the
// full point sequence.
package cluster

import (
	"cmp"
	"fmt"
	"slices"

	"kml-eagle/internal/geo"
	"kml-eagle/internal/models"
)

// DefaultRadius is the collection radius in meters used when none is given.
const DefaultRadius = 20.0

// Cluster makes one greedy pass over points. Each unassigned point seeds a new
// area, and every later unassigned point within maxRadius of the area's
// running centroid is absorbed, moving the centroid. Every point lands in
// exactly one area.
func Cluster(points []models.Waypoint, maxRadius float64) []models.CollectionArea {
	areas := make([]models.CollectionArea, 0, len(points))
	assigned := make([]bool, len(points))

	for i, seed := range points {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		area := models.CollectionArea{
			ID:        fmt.Sprintf("area-%d", len(areas)+1),
			Members:   []models.Waypoint{seed},
			CenterLat: seed.Lat,
			CenterLng: seed.Lng,
		}
		sumLat, sumLng := seed.Lat, seed.Lng

		for j := i + 1; j < len(points); j++ {
			if assigned[j] {
				continue
			}
			center := models.Coordinates{Lat: area.CenterLat, Lng: area.CenterLng}
			d := geo.Distance(points[j].Coords(), center)
			// NaN distances never compare within radius
			if !(d <= maxRadius) {
				continue
			}

			assigned[j] = true
			area.Members = append(area.Members, points[j])
			sumLat += points[j].Lat
			sumLng += points[j].Lng
			n := float64(len(area.Members))
			area.CenterLat = sumLat / n
			area.CenterLng = sumLng / n
			area.Radius = max(area.Radius, d)
		}

		area.Representative = representative(area)
		if k := len(area.Members); k > 1 {
			area.Representative.Name = fmt.Sprintf("Area %d (%d points)", len(areas)+1, k)
		}

		areas = append(areas, area)
	}

	return areas
}

// representative picks the member closest to the area centroid; the earliest
// member wins ties.
func representative(area models.CollectionArea) models.Waypoint {
	center := models.Coordinates{Lat: area.CenterLat, Lng: area.CenterLng}

	best := area.Members[0]
	bestDistance := geo.Distance(best.Coords(), center)
	for _, m := range area.Members[1:] {
		if d := geo.Distance(m.Coords(), center); d < bestDistance {
			best, bestDistance = m, d
		}
	}
	return best
}

// Expand flattens areas, in order, into waypoints. A multi-member area emits
// its members sorted by distance to the last emitted waypoint, or to its own
// first member when nothing has been emitted yet.
func Expand(areas []models.CollectionArea) []models.Waypoint {
	total := 0
	for _, a := range areas {
		total += len(a.Members)
	}
	out := make([]models.Waypoint, 0, total)

	for _, a := range areas {
		if len(a.Members) == 1 {
			out = append(out, a.Members[0])
			continue
		}

		anchor := a.Members[0].Coords()
		if len(out) > 0 {
			anchor = out[len(out)-1].Coords()
		}

		members := slices.Clone(a.Members)
		slices.SortStableFunc(members, func(x, y models.Waypoint) int {
			return cmp.Compare(geo.Distance(anchor, x.Coords()), geo.Distance(anchor, y.Coords()))
		})
		out = append(out, members...)
	}

	return out
}

// Reduction summarizes how much clustering shrank the problem.
func Reduction(points int, areas []models.CollectionArea) (merged int, largest int) {
	for _, a := range areas {
		largest = max(largest, len(a.Members))
	}
	return points - len(areas), largest
}
