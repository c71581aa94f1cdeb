package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"kml-eagle/config"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/kml"
	"kml-eagle/internal/models"
	"kml-eagle/internal/tsp"
)

func handleSolve(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	cmd := flag.NewFlagSet("solve", flag.ContinueOnError)
	flags := addSolveFlags(cmd)
	if err := parse(cmd, flags.commonFlags, args); err != nil {
		return err
	}

	points, err := loadWaypoints(*flags.input)
	if err != nil {
		return err
	}

	solution, err := solve(ctx, cfg, flags, points)
	if err != nil {
		return err
	}

	if *flags.format == "json" {
		return writeJSON(stdout, solution)
	}

	fmt.Fprintf(stdout, "Algorithm: %s  Areas: %d  Iterations: %d  Time: %dms\n",
		solution.Algorithm, solution.Areas, solution.Iterations, solution.ExecutionTime)
	if solution.Partial {
		fmt.Fprintln(stdout, "Stopped early: result is the best order found in time")
	}
	fmt.Fprintf(stdout, "Distance: %.2f km  Duration: ~%d min\n",
		solution.TotalDistance/1000, solution.TotalDuration/60)
	for _, p := range solution.Route {
		fmt.Fprintf(stdout, "%4d  %-30s %.6f,%.6f\n", p.VisitOrder, p.Name, p.Lat, p.Lng)
	}
	return nil
}

// solve validates the flag-derived configuration, then runs the solver.
func solve(ctx context.Context, cfg *config.Config, flags solveFlags, points []models.Waypoint) (*models.TSPSolution, error) {
	logger, err := newLogger(cfg, *flags.verbose)
	if err != nil {
		return nil, err
	}

	tspCfg, err := solveConfig(flags, points)
	if err != nil {
		return nil, err
	}

	check := tsp.ValidateConfig(points, tspCfg)
	if err := check.Err(); err != nil {
		return nil, err
	}
	for _, warning := range check.Warnings {
		logger.Warn(warning)
	}

	corrected := check.Corrected
	if tspCfg.CollectionRadius <= 0 {
		corrected.CollectionRadius = 0
	}

	return tsp.NewSolver(cfg.TSP, logger).Solve(ctx, points, corrected)
}

func solveConfig(flags solveFlags, points []models.Waypoint) (models.TSPConfig, error) {
	tspCfg := models.TSPConfig{
		StartPointID:     resolveRef(points, *flags.start),
		EndPointID:       resolveRef(points, *flags.end),
		Algorithm:        models.Algorithm(*flags.algorithm),
		MaxIterations:    *flags.maxIter,
		CollectionRadius: *flags.radius,
	}
	if *flags.budget != "" {
		budget, err := time.ParseDuration(*flags.budget)
		if err != nil {
			return tspCfg, errors.Wrap(err, "invalid --budget")
		}
		tspCfg.TimeBudgetMs = budget.Milliseconds()
	}
	return tspCfg, nil
}

// resolveRef maps a waypoint name to its id. KML ids are generated on read,
// so names are the only stable handle a user has.
func resolveRef(points []models.Waypoint, ref string) string {
	if ref == "" {
		return ""
	}
	for _, p := range points {
		if p.ID == ref {
			return ref
		}
	}
	for _, p := range points {
		if p.Name == ref {
			return p.ID
		}
	}
	return ref
}

func loadWaypoints(path string) ([]models.Waypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open input")
	}
	defer f.Close()

	points, err := kml.Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return points, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
