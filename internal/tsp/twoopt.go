package tsp

import (
	"context"
	"slices"
	"time"

	"kml-eagle/internal/models"
)

// MaxTwoOptPasses is the hard ceiling on 2-opt passes.
const MaxTwoOptPasses = 1000

// sampleThreshold is the route size above which candidate positions are
// sampled every second index.
const sampleThreshold = 1000

// improvementEpsilon is the smallest gain, in meters, that counts as an improvement.
const improvementEpsilon = 1e-6

// TwoOptOptions controls a 2-opt run.
type TwoOptOptions struct {
	// FixedStart keeps route[0] in place.
	FixedStart bool
	// FixedEnd keeps the last element in place.
	FixedEnd bool
	// MaxIterations further lowers the min(1000, 2n) pass cap when > 0.
	MaxIterations int
	// TimeBudget stops the search early when > 0.
	TimeBudget time.Duration
}

// TwoOptResult is the outcome of TwoOpt.
type TwoOptResult struct {
	Route         []int
	TotalDistance float64
	Iterations    int
	// Partial is set when the context or time budget ended the search early.
	Partial bool
}

// TwoOpt improves an open path by reversing sub-paths while that strictly
// shortens it. A pass that finds no improvement ends the search. The
// context and time budget are checked between candidate rows, and the best
// route found so far is returned when either runs out. The input route is
// not modified.
func TwoOpt(ctx context.Context, m models.DistanceMatrix, route []int, opts TwoOptOptions) TwoOptResult {
	cur := slices.Clone(route)
	initial := RouteDistance(m, cur)

	limit := min(MaxTwoOptPasses, 2*len(m))
	if opts.MaxIterations > 0 {
		limit = min(limit, opts.MaxIterations)
	}

	startIdx := 0
	if opts.FixedStart {
		startIdx = 1
	}
	endIdx := len(cur)
	if opts.FixedEnd {
		endIdx = len(cur) - 1
	}

	step := 1
	if len(m) > sampleThreshold {
		step = 2
	}

	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = time.Now().Add(opts.TimeBudget)
	}
	expired := func() bool {
		if ctx.Err() != nil {
			return true
		}
		return !deadline.IsZero() && time.Now().After(deadline)
	}

	iterations := 0
	partial := false
	improved := true
	for improved && iterations < limit && !partial {
		improved = false
		iterations++

		for i := startIdx; i < endIdx-1; i += step {
			if expired() {
				partial = true
				break
			}
			for j := i + 1; j < endIdx; j += step {
				if reversalDelta(m, cur, i, j) < -improvementEpsilon {
					reverse(cur, i, j)
					improved = true
				}
			}
		}
	}

	total := RouteDistance(m, cur)
	if total > initial {
		// only possible with an asymmetric matrix
		cur, total = slices.Clone(route), initial
	}

	return TwoOptResult{
		Route:         cur,
		TotalDistance: total,
		Iterations:    iterations,
		Partial:       partial,
	}
}

// reversalDelta is the change in path length from reversing route[i..j],
// assuming a symmetric matrix.
func reversalDelta(m models.DistanceMatrix, route []int, i, j int) float64 {
	b, c := route[i], route[j]
	delta := 0.0
	if i > 0 {
		a := route[i-1]
		delta += m[a][c] - m[a][b]
	}
	if j+1 < len(route) {
		e := route[j+1]
		delta += m[b][e] - m[c][e]
	}
	return delta
}

func reverse(route []int, i, j int) {
	for i < j {
		route[i], route[j] = route[j], route[i]
		i++
		j--
	}
}
