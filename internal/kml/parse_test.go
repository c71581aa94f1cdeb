package kml

import (
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Route 12</name>
    <Folder>
      <Placemark>
        <name>School</name>
        <Point><coordinates>-46.6333,-23.5505,0</coordinates></Point>
      </Placemark>
      <Placemark>
        <Point><coordinates>
          -46.6250,-23.5480
        </coordinates></Point>
      </Placemark>
      <Placemark>
        <name>Broken</name>
        <Point><coordinates>abc,def</coordinates></Point>
      </Placemark>
      <Placemark>
        <name>No geometry</name>
      </Placemark>
      <Placemark>
        <name>Path</name>
        <LineString><coordinates>-46.60,-23.50,10 -46.61,-23.51,10</coordinates></LineString>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestParse(t *testing.T) {
	points, err := Parse(strings.NewReader(sampleKML))
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "School", points[0].Name)
	assert.Equal(t, -23.5505, points[0].Lat)
	assert.Equal(t, -46.6333, points[0].Lng)

	assert.Equal(t, "Point 2", points[1].Name)
	assert.Equal(t, -23.548, points[1].Lat)

	assert.Equal(t, "Path", points[2].Name)
	assert.Equal(t, -23.50, points[2].Lat)
	assert.Equal(t, -46.60, points[2].Lng)

	seen := map[string]bool{}
	for _, p := range points {
		_, err := uuid.Parse(p.ID)
		assert.NoError(t, err)
		assert.False(t, seen[p.ID], "ids are unique")
		seen[p.ID] = true
		assert.Zero(t, p.VisitOrder)
	}
}

func TestParseWithoutNamespace(t *testing.T) {
	doc := `<kml><Placemark><name>A</name><Point><coordinates>1,2</coordinates></Point></Placemark></kml>`

	points, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].Lat)
	assert.Equal(t, 1.0, points[0].Lng)
}

func TestParseSkipsNonFiniteAndOutOfRange(t *testing.T) {
	doc := `<kml><Document>
  <Placemark><name>origin</name><Point><coordinates>0,0</coordinates></Point></Placemark>
  <Placemark><name>nan</name><Point><coordinates>NaN,NaN</coordinates></Point></Placemark>
  <Placemark><name>inf</name><Point><coordinates>Inf,0</coordinates></Point></Placemark>
  <Placemark><name>north</name><Point><coordinates>10,95</coordinates></Point></Placemark>
  <Placemark><name>east</name><Point><coordinates>5,5</coordinates></Point></Placemark>
</Document></kml>`

	points, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "origin", points[0].Name)
	assert.Equal(t, "east", points[1].Name)
	for _, p := range points {
		assert.False(t, math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0))
		assert.False(t, math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0))
	}
}

func TestParseNoPlacemarks(t *testing.T) {
	points, err := Parse(strings.NewReader(`<kml><Document/></kml>`))
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<kml><Placemark><name>x</Placemark>`))
	assert.Error(t, err)
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in       string
		lat, lng float64
		ok       bool
	}{
		{"10.5,20.25", 20.25, 10.5, true},
		{" 10.5 , 20.25 ,100", 0, 0, false},
		{"10.5,20.25,100 11,21,0", 20.25, 10.5, true},
		{"", 0, 0, false},
		{"10.5", 0, 0, false},
		{"x,1", 0, 0, false},
		{"NaN,NaN", 0, 0, false},
		{"0,NaN", 0, 0, false},
		{"Inf,0", 0, 0, false},
		{"-Inf,10", 0, 0, false},
		{"10,95", 0, 0, false},
		{"200,10", 0, 0, false},
		{"-180,-90", -90, -180, true},
	}
	for _, tt := range tests {
		lat, lng, ok := parseCoordinates(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.lat, lat, tt.in)
			assert.Equal(t, tt.lng, lng, tt.in)
		}
	}
}
