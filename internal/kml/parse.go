// Package kml reads waypoints out of KML documents.
package kml

import (
	"io"
	"strconv"
	"strings"

	"kml-eagle/internal/errors"
	"kml-eagle/internal/geo"
	"kml-eagle/internal/models"

	"github.com/antchfx/xmlquery"
	"github.com/google/uuid"
)

// Placemarks are matched by local name so documents with or without the
// KML namespace both work.
const (
	placemarkXPath   = "//*[local-name()='Placemark']"
	nameXPath        = "./*[local-name()='name']"
	coordinatesXPath = ".//*[local-name()='coordinates']"
)

// Parse returns one waypoint per Placemark that has a coordinates element.
// The first "lon,lat[,alt]" tuple is used. Placemarks whose coordinates do
// not parse or fall outside lat/lng range are skipped, and unnamed ones are called "Point N" after their
// position in the document.
func Parse(r io.Reader) ([]models.Waypoint, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse KML")
	}

	placemarks, err := xmlquery.QueryAll(doc, placemarkXPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query placemarks")
	}

	points := make([]models.Waypoint, 0, len(placemarks))
	for i, pm := range placemarks {
		coordsNode := xmlquery.FindOne(pm, coordinatesXPath)
		if coordsNode == nil {
			continue
		}

		lat, lng, ok := parseCoordinates(coordsNode.InnerText())
		if !ok {
			continue
		}

		name := ""
		if n := xmlquery.FindOne(pm, nameXPath); n != nil {
			name = strings.TrimSpace(n.InnerText())
		}
		if name == "" {
			name = "Point " + strconv.Itoa(i+1)
		}

		points = append(points, models.Waypoint{
			ID:   uuid.NewString(),
			Name: name,
			Lat:  lat,
			Lng:  lng,
		})
	}

	return points, nil
}

// parseCoordinates reads the first lon,lat[,alt] tuple of a KML coordinates
// string. NaN, Inf and out of range values are rejected.
func parseCoordinates(text string) (lat, lng float64, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, 0, false
	}

	parts := strings.Split(fields[0], ",")
	if len(parts) < 2 {
		return 0, 0, false
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	if !geo.IsValid(models.Coordinates{Lat: lat, Lng: lng}) {
		return 0, 0, false
	}
	return lat, lng, true
}
