package routing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kml-eagle/config"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/logs"
	"kml-eagle/internal/metrics"
	"kml-eagle/internal/models"
	"kml-eagle/internal/simplify"

	"github.com/paulmach/orb/geojson"
)

// Default service caps on coordinates per request.
const (
	DefaultMaxRouteCoordinates = 25
	DefaultMaxMatchCoordinates = 100
)

// Service turns an ordered waypoint list into a road-following route.
type Service struct {
	router     RemoteRouter
	simplifier *simplify.Simplifier
	logger     *slog.Logger

	maxRoute int
	maxMatch int
}

// NewService creates a Service. Caps in cfg that are not positive fall back
// to the defaults.
func NewService(router RemoteRouter, simplifier *simplify.Simplifier, cfg config.OSRM, logger *slog.Logger) *Service {
	s := &Service{
		router:     router,
		simplifier: simplifier,
		logger:     logs.OrDiscard(logger).With("component", "routing"),
		maxRoute:   cfg.MaxRouteCoordinates,
		maxMatch:   cfg.MaxMatchCoordinates,
	}
	if s.maxRoute < 2 {
		s.maxRoute = DefaultMaxRouteCoordinates
	}
	if s.maxMatch < s.maxRoute {
		s.maxMatch = max(DefaultMaxMatchCoordinates, s.maxRoute)
	}
	return s
}

// ProcessRoute cleans points, then routes them with a single route call, a
// single match call or chunked route calls depending on how many remain.
// Chunks that fail are skipped; the call only fails when nothing usable is
// left.
func (s *Service) ProcessRoute(ctx context.Context, points []models.Waypoint) (*models.ProcessRouteResult, error) {
	originalCount := len(points)
	if originalCount < 2 {
		return nil, &InputError{Count: originalCount}
	}
	started := time.Now()

	cleaned := s.simplifier.OptimizeOrderConservative(points)
	cleaned = s.simplifier.DetectGaps(cleaned, s.simplifier.MaxGap())
	cleaned = s.simplifier.Simplify(cleaned, s.simplifier.MinDistance())

	processedCount := len(cleaned)
	s.logger.Info("points prepared", "original", originalCount, "processed", processedCount)
	if processedCount < 2 {
		return nil, &InputError{Count: processedCount, AfterSimplify: true}
	}

	coords := models.CoordsOf(cleaned)

	var (
		res          *models.RouteResult
		mode         string
		chunksFailed int
		err          error
	)
	switch {
	case processedCount <= s.maxRoute:
		mode = models.ModeRoute
		res, err = s.router.Route(ctx, coords)
	case processedCount <= s.maxMatch:
		mode = models.ModeMatch
		res, err = s.router.Match(ctx, coords)
	default:
		mode = models.ModeChunked
		res, chunksFailed, err = s.routeChunks(ctx, coords)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to process route")
	}

	s.logger.Info("route processed",
		"mode", mode, "points", processedCount, "km", res.Distance/1000,
		"chunksFailed", chunksFailed, "elapsed", time.Since(started))

	return &models.ProcessRouteResult{
		Route:          *res,
		Geometry:       geojson.NewGeometry(res.Geometry),
		Directions:     Directions(res),
		Info:           fmt.Sprintf("%d points processed (%d points removed) - continuous route", processedCount, originalCount-processedCount),
		OriginalCount:  originalCount,
		ProcessedCount: processedCount,
		Mode:           mode,
		ChunksFailed:   chunksFailed,
	}, nil
}

func (s *Service) routeChunks(ctx context.Context, coords []models.Coordinates) (*models.RouteResult, int, error) {
	chunks := SplitCoordinates(coords, s.maxRoute)
	s.logger.Info("routing in chunks", "chunks", len(chunks), "chunkSize", s.maxRoute)

	results := make([]*models.RouteResult, 0, len(chunks))
	failed := 0
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, failed, errors.Wrap(err, "route chunks cancelled")
		}

		r, err := s.router.Route(ctx, chunk)
		if err != nil {
			failed++
			metrics.ChunksSkipped.Inc()
			s.logger.Warn("chunk failed, skipping", "chunk", i+1, "of", len(chunks), "err", err)
			continue
		}
		results = append(results, r)
	}

	if len(results) == 0 {
		return nil, failed, errors.Errorf("no chunk was routed successfully (%d failed)", failed)
	}

	stitched, err := Stitch(results)
	if err != nil {
		return nil, failed, err
	}
	if len(stitched.Geometry) < 2 {
		return nil, failed, errors.Errorf("stitched route has %d coordinates", len(stitched.Geometry))
	}
	return stitched, failed, nil
}
