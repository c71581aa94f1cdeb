// Package tsp orders waypoints into a short open path. Nearby points are
// first merged into collection areas, the areas are ordered with nearest
// neighbor and 2-opt, and the result is expanded back to every input point.
package tsp

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"kml-eagle/config"
	"kml-eagle/internal/cluster"
	"kml-eagle/internal/geo"
	"kml-eagle/internal/logs"
	"kml-eagle/internal/metrics"
	"kml-eagle/internal/models"
)

// AverageSpeedKmh is used to estimate route duration from distance.
const AverageSpeedKmh = 50.0

// Solver runs TSP solves. It holds no per-solve state and is safe for
// concurrent use.
type Solver struct {
	logger           *slog.Logger
	collectionRadius float64
	timeBudget       time.Duration
}

// NewSolver creates a Solver whose defaults come from cfg.
func NewSolver(cfg config.TSP, logger *slog.Logger) *Solver {
	radius := cfg.CollectionRadius
	if radius <= 0 {
		radius = cluster.DefaultRadius
	}
	return &Solver{
		logger:           logs.OrDiscard(logger).With("component", "tsp"),
		collectionRadius: radius,
		timeBudget:       cfg.TimeBudget,
	}
}

// Solve orders points according to cfg. Start and end ids select the areas
// that are pinned to the ends of the route; ids that match no point are
// ignored. An empty algorithm means 2opt. Points with NaN or out of range
// coordinates are dropped, and fewer than two remaining is an InputError.
func (s *Solver) Solve(ctx context.Context, points []models.Waypoint, cfg models.TSPConfig) (*models.TSPSolution, error) {
	began := time.Now()

	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = models.AlgorithmTwoOpt
	}
	label := string(algorithm)
	if !algorithm.Valid() {
		label = "unknown"
	}

	valid := validPoints(points)
	if dropped := len(points) - len(valid); dropped > 0 {
		s.logger.Warn("dropped points with invalid coordinates", "dropped", dropped)
	}
	if len(valid) < 2 {
		metrics.TSPSolves.WithLabelValues(label, "error").Inc()
		return nil, &InputError{Count: len(valid)}
	}
	points = valid
	if !algorithm.Valid() {
		metrics.TSPSolves.WithLabelValues(label, "error").Inc()
		return nil, &ConfigError{Field: "algorithm", Reason: "unknown algorithm " + string(algorithm)}
	}

	radius := cfg.CollectionRadius
	if radius <= 0 {
		radius = s.collectionRadius
	}
	budget := cfg.TimeBudget()
	if budget <= 0 {
		budget = s.timeBudget
	}

	areas := cluster.Cluster(points, radius)
	merged, largest := cluster.Reduction(len(points), areas)
	s.logger.Info("clustered points into collection areas",
		"points", len(points), "areas", len(areas), "merged", merged, "largestArea", largest, "radius", radius)

	reps := make([]models.Waypoint, len(areas))
	for i, a := range areas {
		reps[i] = a.Representative
	}

	start, fixedStart := 0, false
	if idx := areaContaining(areas, cfg.StartPointID); idx >= 0 {
		start, fixedStart = idx, true
	}
	end, fixedEnd := -1, false
	if idx := areaContaining(areas, cfg.EndPointID); idx >= 0 {
		end, fixedEnd = idx, true
	}
	if fixedEnd && end == start {
		if fixedStart || len(areas) == 1 {
			s.logger.Warn("start and end fall in the same collection area, end is not pinned", "area", areas[end].ID)
			end, fixedEnd = -1, false
		} else {
			// the pinned end is area 0, so start from the next area
			start = 1
		}
	}

	matrix := BuildMatrix(reps)

	var (
		order      []int
		iterations int
		partial    bool
		ran        = algorithm
	)

	switch algorithm {
	case models.AlgorithmNearestNeighbor:
		order, _ = NearestNeighbor(matrix, start, end)
		iterations = 1

	case models.AlgorithmGenetic:
		s.logger.Warn("genetic algorithm not implemented, falling back to 2opt")
		ran = models.AlgorithmTwoOpt
		fallthrough

	case models.AlgorithmTwoOpt:
		initial, _ := NearestNeighbor(matrix, start, end)
		res := TwoOpt(ctx, matrix, initial, TwoOptOptions{
			FixedStart:    fixedStart,
			FixedEnd:      fixedEnd,
			MaxIterations: cfg.MaxIterations,
			TimeBudget:    budget,
		})
		order, iterations, partial = res.Route, res.Iterations, res.Partial
		metrics.TwoOptIterations.Observe(float64(iterations))
		if partial {
			s.logger.Warn("2-opt stopped early, returning best route so far",
				"iterations", iterations, "budget", budget, "ctxErr", ctx.Err())
		}
	}

	orderedAreas := make([]models.CollectionArea, len(order))
	for i, idx := range order {
		orderedAreas[i] = areas[idx]
	}

	route := cluster.Expand(orderedAreas)
	for i := range route {
		route[i].VisitOrder = i + 1
	}

	totalDistance := geo.PathLength(models.CoordsOf(route))
	elapsed := time.Since(began)

	outcome := "ok"
	if partial {
		outcome = "partial"
	}
	metrics.TSPSolves.WithLabelValues(label, outcome).Inc()
	metrics.TSPDuration.WithLabelValues(string(ran)).Observe(elapsed.Seconds())

	s.logger.Info("tsp solved",
		"algorithm", ran, "points", len(route), "iterations", iterations,
		"km", totalDistance/1000, "elapsed", elapsed)

	return &models.TSPSolution{
		Route:         route,
		TotalDistance: totalDistance,
		TotalDuration: EstimateDuration(totalDistance),
		Iterations:    iterations,
		ExecutionTime: elapsed.Milliseconds(),
		Algorithm:     ran,
		Areas:         len(areas),
		Partial:       partial,
	}, nil
}

// EstimateDuration converts meters to whole seconds at AverageSpeedKmh.
func EstimateDuration(meters float64) int64 {
	return int64(math.Round(meters / AverageSpeedKmh * 3.6))
}

func validPoints(points []models.Waypoint) []models.Waypoint {
	for _, p := range points {
		if !geo.IsValid(p.Coords()) {
			return slices.DeleteFunc(slices.Clone(points), func(p models.Waypoint) bool {
				return !geo.IsValid(p.Coords())
			})
		}
	}
	return points
}

func areaContaining(areas []models.CollectionArea, id string) int {
	if id == "" {
		return -1
	}
	for i, a := range areas {
		for _, m := range a.Members {
			if m.ID == id {
				return i
			}
		}
	}
	return -1
}
