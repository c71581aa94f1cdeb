package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kml-eagle/internal/models"
	"kml-eagle/internal/tsp"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document>
  <Placemark><name>Depot</name><Point><coordinates>-3.700,40.000,0</coordinates></Point></Placemark>
  <Placemark><name>East</name><Point><coordinates>-3.688,40.000,0</coordinates></Point></Placemark>
  <Placemark><name>North</name><Point><coordinates>-3.700,40.009,0</coordinates></Point></Placemark>
  <Placemark><name>NorthEast</name><Point><coordinates>-3.688,40.009,0</coordinates></Point></Placemark>
</Document></kml>`

func writeKML(t *testing.T, doc string) string {
	path := filepath.Join(t.TempDir(), "route.kml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestRunRequiresSubcommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), nil, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "Usage: kmlroute")
}

func TestRunUnknownSubcommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"frobnicate"}, &out)
	assert.ErrorContains(t, err, "frobnicate")
}

func TestSolveRequiresInput(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"solve"}, &out)
	assert.ErrorContains(t, err, "--input")
}

func TestSolveJSON(t *testing.T) {
	path := writeKML(t, sampleKML)

	var out bytes.Buffer
	err := run(context.Background(), []string{"solve", "-input", path, "-format", "json", "-start", "Depot", "-end", "East"}, &out)
	require.NoError(t, err)

	var sol models.TSPSolution
	require.NoError(t, json.Unmarshal(out.Bytes(), &sol))
	require.Len(t, sol.Route, 4)
	assert.Equal(t, "Depot", sol.Route[0].Name)
	assert.Equal(t, "East", sol.Route[3].Name)
	assert.Equal(t, models.AlgorithmTwoOpt, sol.Algorithm)
}

func TestSolveText(t *testing.T) {
	path := writeKML(t, sampleKML)

	var out bytes.Buffer
	err := run(context.Background(), []string{"solve", "-input", path, "-algorithm", "nearest_neighbor"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Algorithm: nearest_neighbor")
	assert.Contains(t, out.String(), "Depot")
}

func TestSolveRejectsBadBudget(t *testing.T) {
	path := writeKML(t, sampleKML)

	var out bytes.Buffer
	err := run(context.Background(), []string{"solve", "-input", path, "-budget", "soon"}, &out)
	assert.ErrorContains(t, err, "--budget")
}

func TestValidateRepairsConfig(t *testing.T) {
	path := writeKML(t, sampleKML)

	var out bytes.Buffer
	err := run(context.Background(), []string{"validate", "-input", path, "-format", "json", "-start", "nowhere"}, &out)
	require.NoError(t, err)

	var res tsp.ValidationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.Warnings)
	assert.NotEqual(t, "nowhere", res.Corrected.StartPointID)
}

func TestValidateTooFewPoints(t *testing.T) {
	path := writeKML(t, `<kml><Placemark><name>Only</name><Point><coordinates>1,2</coordinates></Point></Placemark></kml>`)

	var out bytes.Buffer
	err := run(context.Background(), []string{"validate", "-input", path}, &out)
	var cfgErr *tsp.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, out.String(), "error:")
}

func TestProcessAgainstRoutingServer(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":3500,"duration":420,
			"geometry":{"type":"LineString","coordinates":[[-3.7,40.0],[-3.688,40.0],[-3.688,40.009]]},
			"legs":[{"distance":3500,"duration":420,"summary":"","steps":[
				{"distance":1000,"duration":120,"name":"Calle Mayor","maneuver":{"type":"depart","instruction":"Head east on Calle Mayor","location":[-3.7,40.0]}}
			]}]}]}`))
	}))
	defer srv.Close()

	path := writeKML(t, sampleKML)

	var out bytes.Buffer
	err := run(context.Background(), []string{"process", "-input", path, "-osrm", srv.URL, "-optimize"}, &out)
	require.NoError(t, err)

	require.Len(t, paths, 1)
	assert.True(t, strings.HasPrefix(paths[0], "/route/v1/"))
	assert.Contains(t, out.String(), "4 points processed (0 points removed) - continuous route")
	assert.Contains(t, out.String(), "Head east on Calle Mayor")
}
