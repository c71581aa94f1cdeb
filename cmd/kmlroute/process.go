package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"kml-eagle/config"
	"kml-eagle/internal/osrm"
	"kml-eagle/internal/routing"
	"kml-eagle/internal/simplify"
)

func handleProcess(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	cmd := flag.NewFlagSet("process", flag.ContinueOnError)
	flags := addSolveFlags(cmd)
	optimize := cmd.Bool("optimize", false, "Solve the visiting order before routing")
	osrmURL := cmd.String("osrm", "", "Routing server base URL (overrides config)")
	if err := parse(cmd, flags.commonFlags, args); err != nil {
		return err
	}
	if *osrmURL != "" {
		cfg.OSRM.BaseURL = *osrmURL
	}

	logger, err := newLogger(cfg, *flags.verbose)
	if err != nil {
		return err
	}

	points, err := loadWaypoints(*flags.input)
	if err != nil {
		return err
	}

	if *optimize {
		solution, err := solve(ctx, cfg, flags, points)
		if err != nil {
			return err
		}
		points = solution.Route
	}

	service := routing.NewService(
		osrm.NewClient(cfg.OSRM, logger),
		simplify.New(cfg.Simplify, logger),
		cfg.OSRM,
		logger,
	)
	result, err := service.ProcessRoute(ctx, points)
	if err != nil {
		return err
	}

	if *flags.format == "json" {
		return writeJSON(stdout, result)
	}

	fmt.Fprintln(stdout, result.Info)
	fmt.Fprintf(stdout, "Mode: %s  Distance: %.2f km  Duration: %.0f min\n",
		result.Mode, result.Route.Distance/1000, result.Route.Duration/60)
	if result.ChunksFailed > 0 {
		fmt.Fprintf(stdout, "Skipped chunks: %d\n", result.ChunksFailed)
	}
	for i, d := range result.Directions {
		fmt.Fprintf(stdout, "%3d. %s (%s, %s)\n", i+1, d.Text, d.Distance, d.Duration)
	}
	return nil
}
