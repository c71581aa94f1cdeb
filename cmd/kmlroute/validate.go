package main

import (
	"flag"
	"fmt"
	"io"

	"kml-eagle/config"
	"kml-eagle/internal/tsp"
)

func handleValidate(_ *config.Config, args []string, stdout io.Writer) error {
	cmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags := addSolveFlags(cmd)
	if err := parse(cmd, flags.commonFlags, args); err != nil {
		return err
	}

	points, err := loadWaypoints(*flags.input)
	if err != nil {
		return err
	}

	tspCfg, err := solveConfig(flags, points)
	if err != nil {
		return err
	}
	result := tsp.ValidateConfig(points, tspCfg)

	if *flags.format == "json" {
		return writeJSON(stdout, result)
	}

	fmt.Fprintf(stdout, "Points: %d\n", len(points))
	for _, e := range result.Errors {
		fmt.Fprintf(stdout, "error: %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	c := result.Corrected
	fmt.Fprintf(stdout, "start=%s end=%s algorithm=%s radius=%.0fm\n",
		c.StartPointID, c.EndPointID, c.Algorithm, c.CollectionRadius)
	return result.Err()
}
