package tsp

import (
	"fmt"

	"kml-eagle/internal/cluster"
	"kml-eagle/internal/models"
)

// LargeInputWarning is the point count above which a solve is expected to be slow.
const LargeInputWarning = 2000

// ValidationResult holds the outcome of ValidateConfig.
type ValidationResult struct {
	Errors    []string         `json:"errors"`
	Warnings  []string         `json:"warnings,omitempty"`
	Corrected models.TSPConfig `json:"correctedConfig"`
}

// Err returns a ConfigError when the configuration could not be repaired.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &ConfigError{Field: "points", Reason: r.Errors[0]}
}

// ValidateConfig repairs cfg against points rather than rejecting it. A
// start or end id that no longer exists is replaced by the first or last
// point, and a start equal to the end is spread to first and last. Only
// fewer than 2 points is reported as an error.
func ValidateConfig(points []models.Waypoint, cfg models.TSPConfig) ValidationResult {
	res := ValidationResult{Errors: []string{}, Corrected: cfg}
	c := &res.Corrected

	var firstID, lastID string
	if len(points) > 0 {
		firstID, lastID = points[0].ID, points[len(points)-1].ID
	}

	if c.StartPointID != "" && !containsID(points, c.StartPointID) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("start point %q not found, using first point", c.StartPointID))
		c.StartPointID = firstID
	}
	if c.EndPointID != "" && !containsID(points, c.EndPointID) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("end point %q not found, using last point", c.EndPointID))
		c.EndPointID = lastID
	}
	if c.StartPointID == c.EndPointID && len(points) > 1 {
		if c.StartPointID != "" {
			res.Warnings = append(res.Warnings, "start and end were the same point, using first and last")
		}
		c.StartPointID = firstID
		c.EndPointID = lastID
	}

	if c.Algorithm == "" {
		c.Algorithm = models.AlgorithmTwoOpt
	}
	if c.CollectionRadius <= 0 {
		c.CollectionRadius = cluster.DefaultRadius
	}

	if len(points) < 2 {
		res.Errors = append(res.Errors, "at least 2 points are required to solve a route")
	}
	if len(points) > LargeInputWarning {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d points may take several minutes to solve", len(points)))
	}

	return res
}

func containsID(points []models.Waypoint, id string) bool {
	for _, p := range points {
		if p.ID == id {
			return true
		}
	}
	return false
}
