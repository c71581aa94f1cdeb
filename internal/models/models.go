package models

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Coordinates represents a geographic point in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Waypoint is a named point of a route. VisitOrder is 1-based and only set on
// solver output.
type Waypoint struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng        float64 `json:"lng" validate:"gte=-180,lte=180"`
	VisitOrder int     `json:"visitOrder,omitempty"`
}

// Coords returns the coordinates of the waypoint
func (w Waypoint) Coords() Coordinates {
	return Coordinates{Lat: w.Lat, Lng: w.Lng}
}

// CoordsOf projects a waypoint slice to its coordinates.
func CoordsOf(points []Waypoint) []Coordinates {
	out := make([]Coordinates, len(points))
	for i, p := range points {
		out[i] = p.Coords()
	}
	return out
}

// CollectionArea groups waypoints close enough to be served as one stop.
type CollectionArea struct {
	ID             string     `json:"id"`
	Representative Waypoint   `json:"representative"`
	Members        []Waypoint `json:"members"`
	CenterLat      float64    `json:"centerLat"`
	CenterLng      float64    `json:"centerLng"`
	Radius         float64    `json:"radius"`
}

// DistanceMatrix holds pairwise distances in meters.
type DistanceMatrix [][]float64

// Algorithm selects the TSP strategy.
type Algorithm string

const (
	AlgorithmNearestNeighbor Algorithm = "nearest_neighbor"
	AlgorithmTwoOpt          Algorithm = "2opt"
	// AlgorithmGenetic is accepted but runs 2-opt.
	AlgorithmGenetic Algorithm = "genetic"
)

// Valid reports whether a is one of the known algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmNearestNeighbor, AlgorithmTwoOpt, AlgorithmGenetic:
		return true
	}
	return false
}

// TSPConfig holds the solve parameters supplied by the caller.
type TSPConfig struct {
	StartPointID string    `json:"startPointId,omitempty"`
	EndPointID   string    `json:"endPointId,omitempty"`
	Algorithm    Algorithm `json:"algorithm"`
	// MaxIterations lowers the adaptive 2-opt pass cap when > 0.
	MaxIterations int `json:"maxIterations,omitempty" validate:"gte=0"`
	// CollectionRadius in meters; <= 0 means the default of 20.
	CollectionRadius float64 `json:"collectionRadius,omitempty" validate:"gte=0"`
	// TimeBudgetMs bounds 2-opt wall-clock time when > 0.
	TimeBudgetMs int64 `json:"timeBudgetMs,omitempty" validate:"gte=0"`
}

// TimeBudget returns the 2-opt time budget, zero meaning unbounded.
func (c TSPConfig) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetMs) * time.Millisecond
}

// TSPSolution is the solver output.
type TSPSolution struct {
	Route []Waypoint `json:"route"`
	// TotalDistance in meters over the expanded route.
	TotalDistance float64 `json:"totalDistance"`
	// TotalDuration in seconds, estimated at 50 km/h.
	TotalDuration int64     `json:"totalDuration"`
	Iterations    int       `json:"iterations"`
	ExecutionTime int64     `json:"executionTime"`
	Algorithm     Algorithm `json:"algorithm"`
	Areas         int       `json:"areas"`
	// Partial is set when a time budget or cancellation cut 2-opt short.
	Partial bool `json:"partial,omitempty"`
}

// Maneuver describes a single turn instruction from the routing service.
type Maneuver struct {
	Type        string     `json:"type"`
	Modifier    string     `json:"modifier,omitempty"`
	Instruction string     `json:"instruction,omitempty"`
	Location    [2]float64 `json:"location"`
}

// Step is one maneuver of a leg.
type Step struct {
	Distance float64  `json:"distance"`
	Duration float64  `json:"duration"`
	Name     string   `json:"name"`
	Maneuver Maneuver `json:"maneuver"`
}

// Leg is the part of a route between two consecutive input coordinates.
type Leg struct {
	Steps    []Step  `json:"steps"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Summary  string  `json:"summary"`
}

// RouteResult is the normalized output of a route or match call. Geometry is
// in lng/lat order.
type RouteResult struct {
	Distance   float64        `json:"distance"`
	Duration   float64        `json:"duration"`
	Geometry   orb.LineString `json:"geometry"`
	Legs       []Leg          `json:"legs"`
	Confidence float64        `json:"confidence"`
}

// Direction is a display-ready turn instruction.
type Direction struct {
	Text     string `json:"text"`
	Distance string `json:"distance"`
	Duration string `json:"duration"`
}

// Route processing modes.
const (
	ModeRoute   = "route"
	ModeMatch   = "match"
	ModeChunked = "chunked"
)

// ProcessRouteResult is the outcome of snapping an ordered point list to roads.
type ProcessRouteResult struct {
	Route          RouteResult       `json:"route"`
	Geometry       *geojson.Geometry `json:"geometry"`
	Directions     []Direction       `json:"directions"`
	Info           string            `json:"info"`
	OriginalCount  int               `json:"originalCount"`
	ProcessedCount int               `json:"processedCount"`
	Mode           string            `json:"mode"`
	ChunksFailed   int               `json:"chunksFailed,omitempty"`
}

// RouteInfo is the header block printed on route sheets.
type RouteInfo struct {
	Name      string `json:"name" validate:"required,max=200"`
	Frequency string `json:"frequency" validate:"max=100"`
	Shift     string `json:"shift" validate:"max=100"`
}

// SavedRoute is a persisted, ordered route.
type SavedRoute struct {
	ID            int64      `json:"id"`
	Info          RouteInfo  `json:"info"`
	Waypoints     []Waypoint `json:"waypoints"`
	TotalDistance float64    `json:"totalDistance"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
