// Package geo holds the spherical helpers shared by the route algorithms.
package geo

import (
	"math"

	"kml-eagle/internal/models"

	"github.com/paulmach/orb"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b models.Coordinates) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadius * c
}

// IsValid reports whether c is a finite coordinate within lat [-90,90] and
// lng [-180,180].
func IsValid(c models.Coordinates) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// PathLength sums the distances between consecutive coordinates.
func PathLength(coords []models.Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])
	}
	return total
}

// ToPoint converts to an orb point, which is ordered lng, lat.
func ToPoint(c models.Coordinates) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// LineString builds an orb line string from coords.
func LineString(coords []models.Coordinates) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = ToPoint(c)
	}
	return ls
}
