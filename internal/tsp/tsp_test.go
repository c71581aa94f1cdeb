package tsp

import (
	"context"
	"fmt"
	"math"
	"testing"

	"kml-eagle/config"
	"kml-eagle/internal/geo"
	"kml-eagle/internal/metrics"
	"kml-eagle/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wp(id string, lat, lng float64) models.Waypoint {
	return models.Waypoint{ID: id, Name: id, Lat: lat, Lng: lng}
}

func ids(points []models.Waypoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.ID
	}
	return out
}

// linePoints lays n points 1 km apart along the equator.
func linePoints(n int) []models.Waypoint {
	points := make([]models.Waypoint, n)
	for i := range points {
		points[i] = wp(fmt.Sprintf("p%d", i), 0, float64(i)*0.009)
	}
	return points
}

// scatterPoints is a deterministic pseudo random cloud.
func scatterPoints(n int) []models.Waypoint {
	points := make([]models.Waypoint, n)
	seed := uint32(7)
	next := func() float64 {
		seed = seed*1664525 + 1013904223
		return float64(seed%100000) / 100000
	}
	for i := range points {
		points[i] = wp(fmt.Sprintf("s%d", i), next()*0.5, next()*0.5)
	}
	return points
}

func newTestSolver() *Solver {
	return NewSolver(config.TSP{}, nil)
}

func TestBuildMatrix(t *testing.T) {
	points := scatterPoints(6)
	m := BuildMatrix(points)

	require.Len(t, m, 6)
	for i := range m {
		require.Len(t, m[i], 6)
		assert.Zero(t, m[i][i])
		for j := range m {
			assert.Equal(t, m[i][j], m[j][i])
		}
	}
	assert.InDelta(t, geo.Distance(points[1].Coords(), points[4].Coords()), m[1][4], 1e-9)
}

func TestRouteDistance(t *testing.T) {
	m := models.DistanceMatrix{
		{0, 1, 5},
		{1, 0, 2},
		{5, 2, 0},
	}
	assert.Equal(t, 3.0, RouteDistance(m, []int{0, 1, 2}))
	assert.Equal(t, 6.0, RouteDistance(m, []int{1, 0, 2}))
	assert.Zero(t, RouteDistance(m, []int{2}))
}

func TestNearestNeighbor(t *testing.T) {
	m := models.DistanceMatrix{
		{0, 2, 9, 10},
		{2, 0, 6, 4},
		{9, 6, 0, 3},
		{10, 4, 3, 0},
	}

	route, total := NearestNeighbor(m, 0, -1)
	assert.Equal(t, []int{0, 1, 3, 2}, route)
	assert.Equal(t, 9.0, total)

	route, total = NearestNeighbor(m, 0, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, route, "end is held back and forced last")
	assert.Equal(t, 11.0, total)
}

func TestNearestNeighborTieLowestIndex(t *testing.T) {
	m := models.DistanceMatrix{
		{0, 5, 5, 5},
		{5, 0, 1, 1},
		{5, 1, 0, 1},
		{5, 1, 1, 0},
	}
	route, _ := NearestNeighbor(m, 0, -1)
	assert.Equal(t, []int{0, 1, 2, 3}, route)
}

func TestNearestNeighborStartEqualsEnd(t *testing.T) {
	m := BuildMatrix(linePoints(4))
	route, _ := NearestNeighbor(m, 2, 2)
	assert.Len(t, route, 4)
	assert.Equal(t, 2, route[0])
}

func TestTwoOptUntanglesLine(t *testing.T) {
	m := BuildMatrix(linePoints(6))
	initial := []int{0, 3, 2, 1, 4, 5}

	res := TwoOpt(context.Background(), m, initial, TwoOptOptions{})

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, res.Route)
	assert.InDelta(t, RouteDistance(m, []int{0, 1, 2, 3, 4, 5}), res.TotalDistance, 1e-6)
	assert.GreaterOrEqual(t, res.Iterations, 1)
	assert.False(t, res.Partial)
	assert.Equal(t, []int{0, 3, 2, 1, 4, 5}, initial, "input is not mutated")
}

func TestTwoOptNeverIncreasesDistance(t *testing.T) {
	for _, n := range []int{3, 8, 25, 60} {
		points := scatterPoints(n)
		m := BuildMatrix(points)
		initial, _ := NearestNeighbor(m, 0, -1)
		before := RouteDistance(m, initial)

		res := TwoOpt(context.Background(), m, initial, TwoOptOptions{})

		assert.LessOrEqual(t, res.TotalDistance, before+1e-9, "n=%d", n)
		assert.ElementsMatch(t, initial, res.Route, "n=%d", n)
		assert.LessOrEqual(t, res.Iterations, min(MaxTwoOptPasses, 2*n))
	}
}

func TestTwoOptKeepsFixedEndpoints(t *testing.T) {
	m := BuildMatrix(scatterPoints(12))
	initial := []int{5, 0, 1, 2, 3, 4, 6, 7, 8, 9, 10, 11}

	res := TwoOpt(context.Background(), m, initial, TwoOptOptions{FixedStart: true, FixedEnd: true})

	assert.Equal(t, 5, res.Route[0])
	assert.Equal(t, 11, res.Route[len(res.Route)-1])
	assert.LessOrEqual(t, res.TotalDistance, RouteDistance(m, initial))
}

func TestTwoOptMaxIterations(t *testing.T) {
	m := BuildMatrix(scatterPoints(40))
	initial := make([]int, 40)
	for i := range initial {
		initial[i] = (i * 17) % 40
	}

	res := TwoOpt(context.Background(), m, initial, TwoOptOptions{MaxIterations: 1})
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Partial)
}

func TestTwoOptCancelledContextIsPartial(t *testing.T) {
	m := BuildMatrix(scatterPoints(30))
	initial, _ := NearestNeighbor(m, 0, -1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := TwoOpt(ctx, m, initial, TwoOptOptions{})

	assert.True(t, res.Partial)
	assert.Equal(t, initial, res.Route)
	assert.InDelta(t, RouteDistance(m, initial), res.TotalDistance, 1e-9)
}

func TestTwoOptSamplesLargeInputs(t *testing.T) {
	m := BuildMatrix(scatterPoints(sampleThreshold + 2))
	initial, _ := NearestNeighbor(m, 0, -1)

	res := TwoOpt(context.Background(), m, initial, TwoOptOptions{MaxIterations: 1})

	assert.Equal(t, 1, res.Iterations)
	assert.LessOrEqual(t, res.TotalDistance, RouteDistance(m, initial)+1e-9)
}

func TestSolveTooFewPoints(t *testing.T) {
	s := newTestSolver()

	_, err := s.Solve(context.Background(), []models.Waypoint{wp("a", 0, 0)}, models.TSPConfig{Algorithm: models.AlgorithmTwoOpt})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, 1, inputErr.Count)
}

func TestSolveFewerThanTwoValidPoints(t *testing.T) {
	s := newTestSolver()
	points := []models.Waypoint{
		wp("origin", 0, 0),
		wp("north", 95, 0),
		wp("east", 10, 400),
		wp("nan", math.NaN(), 1),
		wp("inf", 1, math.Inf(1)),
	}

	solution, err := s.Solve(context.Background(), points, models.TSPConfig{Algorithm: models.AlgorithmTwoOpt})

	assert.Nil(t, solution)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, 1, inputErr.Count)
}

func TestSolveDropsInvalidPoints(t *testing.T) {
	s := newTestSolver()
	points := append(linePoints(4), wp("north", 95, 0), wp("nan", math.NaN(), math.NaN()))

	solution, err := s.Solve(context.Background(), points, models.TSPConfig{Algorithm: models.AlgorithmNearestNeighbor})

	require.NoError(t, err)
	assert.ElementsMatch(t, ids(linePoints(4)), ids(solution.Route))
	assert.False(t, math.IsNaN(solution.TotalDistance))
	assert.Len(t, points, 6, "input slice is not modified")
}

func TestSolveUnknownAlgorithmMetricLabel(t *testing.T) {
	s := newTestSolver()
	unknown := metrics.TSPSolves.WithLabelValues("unknown", "error")
	before := testutil.ToFloat64(unknown)

	_, err := s.Solve(context.Background(), []models.Waypoint{wp("a", 0, 0)}, models.TSPConfig{Algorithm: "annealing"})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, before+1, testutil.ToFloat64(unknown))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TSPSolves.WithLabelValues("annealing", "error")))
}

func TestSolveUnknownAlgorithm(t *testing.T) {
	s := newTestSolver()

	_, err := s.Solve(context.Background(), linePoints(3), models.TSPConfig{Algorithm: "annealing"})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "algorithm", cfgErr.Field)
}

func TestSolveSquareNearestNeighbor(t *testing.T) {
	s := newTestSolver()
	const side = 0.001
	points := []models.Waypoint{
		wp("ne", side, side),
		wp("origin", 0, 0),
		wp("n", side, 0),
		wp("e", 0, side),
	}

	sol, err := s.Solve(context.Background(), points, models.TSPConfig{
		StartPointID:     "origin",
		Algorithm:        models.AlgorithmNearestNeighbor,
		CollectionRadius: 20,
	})
	require.NoError(t, err)

	require.Len(t, sol.Route, 4)
	assert.Equal(t, "origin", sol.Route[0].ID)
	assert.Equal(t, []string{"origin", "n", "ne", "e"}, ids(sol.Route))
	for i := 1; i < len(sol.Route); i++ {
		a, b := sol.Route[i-1], sol.Route[i]
		assert.True(t, a.Lat == b.Lat || a.Lng == b.Lng, "no diagonal between %s and %s", a.ID, b.ID)
	}

	sideMeters := geo.Distance(models.Coordinates{}, models.Coordinates{Lat: side})
	assert.InDelta(t, 3*sideMeters, sol.TotalDistance, 0.01)
	assert.Equal(t, 1, sol.Iterations)
	assert.Equal(t, models.AlgorithmNearestNeighbor, sol.Algorithm)
	assert.Equal(t, 4, sol.Areas)
}

func TestSolveAnnotatesVisitOrderAndDuration(t *testing.T) {
	s := newTestSolver()
	points := linePoints(5)

	sol, err := s.Solve(context.Background(), points, models.TSPConfig{Algorithm: models.AlgorithmTwoOpt})
	require.NoError(t, err)

	for i, p := range sol.Route {
		assert.Equal(t, i+1, p.VisitOrder)
	}
	assert.Zero(t, points[0].VisitOrder, "input is not mutated")
	assert.InDelta(t, geo.PathLength(models.CoordsOf(sol.Route)), sol.TotalDistance, 1e-9)
	assert.Equal(t, int64(math.Round(sol.TotalDistance/50*3.6)), sol.TotalDuration)
	assert.GreaterOrEqual(t, sol.ExecutionTime, int64(0))
}

func TestSolveFixedStartAndEnd(t *testing.T) {
	s := newTestSolver()
	points := scatterPoints(20)

	sol, err := s.Solve(context.Background(), points, models.TSPConfig{
		StartPointID: "s7",
		EndPointID:   "s3",
		Algorithm:    models.AlgorithmTwoOpt,
	})
	require.NoError(t, err)

	require.Len(t, sol.Route, 20)
	assert.Equal(t, "s7", sol.Route[0].ID)
	assert.Equal(t, "s3", sol.Route[len(sol.Route)-1].ID)
	assert.ElementsMatch(t, ids(points), ids(sol.Route))
}

func TestSolveEndOnFirstAreaWithoutStart(t *testing.T) {
	s := newTestSolver()
	points := linePoints(4)

	sol, err := s.Solve(context.Background(), points, models.TSPConfig{
		EndPointID: "p0",
		Algorithm:  models.AlgorithmNearestNeighbor,
	})
	require.NoError(t, err)

	assert.Equal(t, "p0", sol.Route[len(sol.Route)-1].ID)
	assert.Len(t, sol.Route, 4)
}

func TestSolveGeneticFallsBackToTwoOpt(t *testing.T) {
	s := newTestSolver()

	sol, err := s.Solve(context.Background(), scatterPoints(10), models.TSPConfig{Algorithm: models.AlgorithmGenetic})
	require.NoError(t, err)

	assert.Equal(t, models.AlgorithmTwoOpt, sol.Algorithm)
	assert.Len(t, sol.Route, 10)
}

func TestSolveClustersAndExpands(t *testing.T) {
	s := newTestSolver()
	const m = 1.0 / 111195.0
	points := []models.Waypoint{
		wp("a", 0, 0),
		wp("b", 5*m, 0),
		wp("c", 500*m, 0),
		wp("d", 1000*m, 0),
		wp("e", 1004*m, 0),
	}

	sol, err := s.Solve(context.Background(), points, models.TSPConfig{
		StartPointID:     "a",
		Algorithm:        models.AlgorithmTwoOpt,
		CollectionRadius: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sol.Areas)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(sol.Route))
	assert.Equal(t, "a", sol.Route[0].Name, "expanded members keep their own names")
}

func TestSolveCancelledContextIsPartial(t *testing.T) {
	s := newTestSolver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := s.Solve(ctx, scatterPoints(15), models.TSPConfig{Algorithm: models.AlgorithmTwoOpt})
	require.NoError(t, err)

	assert.True(t, sol.Partial)
	assert.Len(t, sol.Route, 15)
}

func TestValidateConfigDeletedStart(t *testing.T) {
	points := linePoints(4)

	res := ValidateConfig(points, models.TSPConfig{StartPointID: "deleted", EndPointID: "p2"})

	assert.Empty(t, res.Errors)
	assert.NoError(t, res.Err())
	assert.Equal(t, "p0", res.Corrected.StartPointID)
	assert.Equal(t, "p2", res.Corrected.EndPointID)
	assert.NotEmpty(t, res.Warnings)
}

func TestValidateConfigDeletedEnd(t *testing.T) {
	res := ValidateConfig(linePoints(4), models.TSPConfig{StartPointID: "p1", EndPointID: "gone"})

	assert.Equal(t, "p1", res.Corrected.StartPointID)
	assert.Equal(t, "p3", res.Corrected.EndPointID)
}

func TestValidateConfigStartEqualsEnd(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.TSPConfig
	}{
		{name: "same id", cfg: models.TSPConfig{StartPointID: "p2", EndPointID: "p2"}},
		{name: "both empty", cfg: models.TSPConfig{}},
		{name: "end corrected onto start", cfg: models.TSPConfig{StartPointID: "p3", EndPointID: "gone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateConfig(linePoints(4), tt.cfg)
			assert.Empty(t, res.Errors)
			assert.Equal(t, "p0", res.Corrected.StartPointID)
			assert.Equal(t, "p3", res.Corrected.EndPointID)
			assert.NotEqual(t, res.Corrected.StartPointID, res.Corrected.EndPointID)
		})
	}
}

func TestValidateConfigDefaults(t *testing.T) {
	res := ValidateConfig(linePoints(3), models.TSPConfig{})
	assert.Equal(t, models.AlgorithmTwoOpt, res.Corrected.Algorithm)
	assert.Equal(t, 20.0, res.Corrected.CollectionRadius)

	res = ValidateConfig(linePoints(3), models.TSPConfig{Algorithm: models.AlgorithmNearestNeighbor, CollectionRadius: 35})
	assert.Equal(t, models.AlgorithmNearestNeighbor, res.Corrected.Algorithm)
	assert.Equal(t, 35.0, res.Corrected.CollectionRadius)
}

func TestValidateConfigTooFewPoints(t *testing.T) {
	res := ValidateConfig([]models.Waypoint{wp("only", 0, 0)}, models.TSPConfig{StartPointID: "x"})

	require.Len(t, res.Errors, 1)
	var cfgErr *ConfigError
	assert.ErrorAs(t, res.Err(), &cfgErr)
	assert.Equal(t, "only", res.Corrected.StartPointID)

	res = ValidateConfig(nil, models.TSPConfig{})
	assert.Len(t, res.Errors, 1)
}

func TestValidateConfigLargeInputWarns(t *testing.T) {
	points := make([]models.Waypoint, LargeInputWarning+1)
	for i := range points {
		points[i] = wp(fmt.Sprintf("p%d", i), 0, 0)
	}

	res := ValidateConfig(points, models.TSPConfig{})
	assert.Empty(t, res.Errors)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "may take several minutes")
}

func TestEstimateDuration(t *testing.T) {
	assert.Equal(t, int64(72), EstimateDuration(1000))
	assert.Equal(t, int64(0), EstimateDuration(0))
}
