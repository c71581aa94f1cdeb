// Command kmlroute orders and road-snaps the waypoints of a KML file from
// the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"kml-eagle/config"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/logs"
)

// Supported subcommands:
// - solve:    order the waypoints (TSP)
// - process:  snap the waypoints, in file order or solved first, to roads
// - validate: check and repair a solve configuration

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type commonFlags struct {
	input   *string
	format  *string
	verbose *bool
}

func addCommonFlags(cmd *flag.FlagSet) commonFlags {
	return commonFlags{
		input:   cmd.String("input", "", "KML file to read (required)"),
		format:  cmd.String("format", "text", "Output format: text or json"),
		verbose: cmd.Bool("v", false, "Log debug output to stderr"),
	}
}

type solveFlags struct {
	commonFlags
	algorithm *string
	start     *string
	end       *string
	radius    *float64
	budget    *string
	maxIter   *int
}

func addSolveFlags(cmd *flag.FlagSet) solveFlags {
	return solveFlags{
		commonFlags: addCommonFlags(cmd),
		algorithm:   cmd.String("algorithm", "2opt", "nearest_neighbor, 2opt or genetic"),
		start:       cmd.String("start", "", "Waypoint id or name to start from"),
		end:         cmd.String("end", "", "Waypoint id or name to finish at"),
		radius:      cmd.Float64("radius", 0, "Collection radius in meters (0 uses the configured value)"),
		budget:      cmd.String("budget", "", "2-opt time budget, e.g. 5s"),
		maxIter:     cmd.Int("max-iterations", 0, "Upper bound on 2-opt passes"),
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return errors.New("missing subcommand")
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	switch args[0] {
	case "solve":
		return handleSolve(ctx, cfg, args[1:], stdout)
	case "process":
		return handleProcess(ctx, cfg, args[1:], stdout)
	case "validate":
		return handleValidate(cfg, args[1:], stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return errors.Errorf("unknown subcommand %q", args[0])
	}
}

// parse parses args into cmd and checks the shared flags.
func parse(cmd *flag.FlagSet, common commonFlags, args []string) error {
	if err := cmd.Parse(args); err != nil {
		return errors.Wrapf(err, "failed to parse %s flags", cmd.Name())
	}
	if *common.input == "" {
		return errors.Errorf("--input flag is required for %s command", cmd.Name())
	}
	if *common.format != "text" && *common.format != "json" {
		return errors.Errorf("unknown format %q", *common.format)
	}
	return nil
}

// newLogger writes human-readable logs to stderr so stdout stays clean for results.
func newLogger(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	logCfg := cfg.Log
	logCfg.Level = "warn"
	if verbose {
		logCfg.Level = "debug"
	}
	logCfg.Pretty = true
	return logs.NewWithWriter(logCfg, os.Stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: kmlroute <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  solve       Compute an optimized visiting order")
	fmt.Fprintln(w, "  process     Snap waypoints to the road network")
	fmt.Fprintln(w, "  validate    Check and repair a solve configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Use 'kmlroute <command> -h' for more information about a command.")
}
