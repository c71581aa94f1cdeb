// Package simplify cleans raw waypoint sequences before routing: it drops
// invalid and near-duplicate points, reports large gaps and repairs badly
// disordered input.
package simplify

import (
	"log/slog"

	"kml-eagle/config"
	"kml-eagle/internal/geo"
	"kml-eagle/internal/logs"
	"kml-eagle/internal/models"
)

// Default thresholds in meters.
const (
	DefaultMinDistance       = 5.0
	DefaultMaxGap            = 100_000.0
	DefaultDisorderGap       = 50_000.0
	DefaultKeepOrderDistance = 25_000.0
)

// Simplifier applies the cleaning steps with configurable thresholds.
type Simplifier struct {
	logger *slog.Logger

	minDistance       float64
	maxGap            float64
	disorderGap       float64
	keepOrderDistance float64
}

// New creates a Simplifier. Zero or negative thresholds fall back to the defaults.
func New(cfg config.Simplify, logger *slog.Logger) *Simplifier {
	s := &Simplifier{
		logger:            logs.OrDiscard(logger).With("component", "simplify"),
		minDistance:       cfg.MinDistance,
		maxGap:            cfg.MaxGap,
		disorderGap:       cfg.DisorderGap,
		keepOrderDistance: cfg.KeepOrderDistance,
	}
	if s.minDistance <= 0 {
		s.minDistance = DefaultMinDistance
	}
	if s.maxGap <= 0 {
		s.maxGap = DefaultMaxGap
	}
	if s.disorderGap <= 0 {
		s.disorderGap = DefaultDisorderGap
	}
	if s.keepOrderDistance <= 0 {
		s.keepOrderDistance = DefaultKeepOrderDistance
	}
	return s
}

// MinDistance is the configured simplification distance.
func (s *Simplifier) MinDistance() float64 { return s.minDistance }

// MaxGap is the configured gap warning distance.
func (s *Simplifier) MaxGap() float64 { return s.maxGap }

// Simplify drops invalid coordinates, then keeps each interior point only if
// it is at least minDistance from the last kept point. The first and last
// valid points are always kept. A result shorter than 2 means the input
// cannot be routed.
func (s *Simplifier) Simplify(points []models.Waypoint, minDistance float64) []models.Waypoint {
	valid := make([]models.Waypoint, 0, len(points))
	for _, p := range points {
		if geo.IsValid(p.Coords()) {
			valid = append(valid, p)
		}
	}
	if dropped := len(points) - len(valid); dropped > 0 {
		s.logger.Warn("dropped invalid coordinates", "count", dropped)
	}
	if len(valid) <= 2 {
		return valid
	}

	out := []models.Waypoint{valid[0]}
	for i := 1; i < len(valid)-1; i++ {
		if geo.Distance(out[len(out)-1].Coords(), valid[i].Coords()) >= minDistance {
			out = append(out, valid[i])
		}
	}
	out = append(out, valid[len(valid)-1])

	return out
}

// Gaps returns the indices i for which the hop from points[i] to points[i+1]
// is longer than maxGap.
func (s *Simplifier) Gaps(points []models.Waypoint, maxGap float64) []int {
	var gaps []int
	for i := 0; i+1 < len(points); i++ {
		if geo.Distance(points[i].Coords(), points[i+1].Coords()) > maxGap {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

// DetectGaps logs a warning for every hop longer than maxGap and returns the
// points unchanged, as a copy.
func (s *Simplifier) DetectGaps(points []models.Waypoint, maxGap float64) []models.Waypoint {
	for _, i := range s.Gaps(points, maxGap) {
		d := geo.Distance(points[i].Coords(), points[i+1].Coords())
		s.logger.Warn("large gap between consecutive points",
			"from", i, "to", i+1, "km", d/1000)
	}

	out := make([]models.Waypoint, len(points))
	copy(out, points)
	return out
}

// OptimizeOrderConservative leaves the order alone unless some hop exceeds
// the disorder threshold. Otherwise it rebuilds the order from the first
// point, following the original next point while it stays within the
// keep-order distance and jumping to the nearest remaining point when not.
func (s *Simplifier) OptimizeOrderConservative(points []models.Waypoint) []models.Waypoint {
	out := make([]models.Waypoint, 0, len(points))
	if len(points) <= 2 || len(s.Gaps(points, s.disorderGap)) == 0 {
		return append(out, points...)
	}

	s.logger.Info("large gaps detected, reordering", "points", len(points))

	remaining := make([]models.Waypoint, len(points)-1)
	copy(remaining, points[1:])
	out = append(out, points[0])

	for len(remaining) > 0 {
		current := out[len(out)-1].Coords()

		best := 0
		bestDistance := geo.Distance(current, remaining[0].Coords())
		if bestDistance >= s.keepOrderDistance {
			for j := 1; j < len(remaining); j++ {
				if d := geo.Distance(current, remaining[j].Coords()); d < bestDistance {
					best, bestDistance = j, d
				}
			}
		}

		out = append(out, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return out
}
