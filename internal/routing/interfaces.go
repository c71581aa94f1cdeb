// Package routing snaps an ordered list of waypoints onto the road network
// through a RemoteRouter, splitting long inputs into chunks and stitching
// the chunk results back together.
package routing

import (
	"context"
	"fmt"

	"kml-eagle/internal/models"
)

// RemoteRouter is a road network routing service.
type RemoteRouter interface {
	// Route returns a continuous route through coords in order.
	Route(ctx context.Context, coords []models.Coordinates) (*models.RouteResult, error)
	// Match snaps a noisy trace onto roads.
	Match(ctx context.Context, coords []models.Coordinates) (*models.RouteResult, error)
}

// InputError is returned when fewer than 2 usable points remain.
type InputError struct {
	Count int
	// AfterSimplify is set when the points were lost during cleaning.
	AfterSimplify bool
}

func (e *InputError) Error() string {
	if e.AfterSimplify {
		return fmt.Sprintf("fewer than 2 distinct points left after simplification (%d)", e.Count)
	}
	return fmt.Sprintf("cannot process a route with fewer than 2 points (%d)", e.Count)
}
