// Package osrm is an HTTP client for the route and match services of an
// OSRM-compatible routing server.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kml-eagle/config"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/logs"
	"kml-eagle/internal/metrics"
	"kml-eagle/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/time/rate"
)

// Service names used in URLs, errors and metrics.
const (
	ServiceRoute = "route"
	ServiceMatch = "match"
)

const (
	routeQuery = "steps=true&geometries=geojson&overview=full&continue_straight=false"
	matchQuery = "steps=true&geometries=geojson&overview=full&annotations=true&gaps=ignore"
)

// RemoteServiceError is returned when the routing server answers with a
// non-2xx status or a code other than "Ok".
type RemoteServiceError struct {
	Service string
	Status  int
	Code    string
	Message string
}

func (e *RemoteServiceError) Error() string {
	if e.Code != "" {
		msg := e.Message
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Sprintf("osrm %s failed: %s - %s", e.Service, e.Code, msg)
	}
	return fmt.Sprintf("osrm %s failed: HTTP %d: %s", e.Service, e.Status, e.Message)
}

// Client calls an OSRM server. Requests are spaced by a rate limiter and
// never retried.
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient builds a Client from cfg.
func NewClient(cfg config.OSRM, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	profile := cfg.Profile
	if profile == "" {
		profile = "driving"
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		profile:    profile,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logs.OrDiscard(logger).With("component", "osrm"),
	}
}

type response struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Routes    []route `json:"routes"`
	Matchings []route `json:"matchings"`
}

type route struct {
	Distance   float64           `json:"distance"`
	Duration   float64           `json:"duration"`
	Confidence float64           `json:"confidence"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Legs       []leg             `json:"legs"`
}

type leg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Summary  string  `json:"summary"`
	Steps    []step  `json:"steps"`
}

type step struct {
	Distance float64  `json:"distance"`
	Duration float64  `json:"duration"`
	Name     string   `json:"name"`
	Maneuver maneuver `json:"maneuver"`
}

type maneuver struct {
	Type        string     `json:"type"`
	Modifier    string     `json:"modifier"`
	Instruction string     `json:"instruction"`
	Location    [2]float64 `json:"location"`
}

// Route requests a continuous route through coords in order. The result has
// confidence 1.
func (c *Client) Route(ctx context.Context, coords []models.Coordinates) (*models.RouteResult, error) {
	resp, err := c.do(ctx, ServiceRoute, routeQuery, coords)
	if err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, &RemoteServiceError{Service: ServiceRoute, Code: resp.Code, Message: "no route found"}
	}

	res := normalize(resp.Routes[0])
	res.Confidence = 1.0
	return res, nil
}

// Match snaps coords onto the road network and returns the first matching.
func (c *Client) Match(ctx context.Context, coords []models.Coordinates) (*models.RouteResult, error) {
	resp, err := c.do(ctx, ServiceMatch, matchQuery, coords)
	if err != nil {
		return nil, err
	}
	if len(resp.Matchings) == 0 {
		return nil, &RemoteServiceError{Service: ServiceMatch, Code: resp.Code, Message: "no matching found"}
	}

	return normalize(resp.Matchings[0]), nil
}

func (c *Client) do(ctx context.Context, service, query string, coords []models.Coordinates) (_ *response, err error) {
	if len(coords) < 2 {
		return nil, errors.Errorf("osrm %s needs at least 2 coordinates, got %d", service, len(coords))
	}

	started := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.OSRMRequests.WithLabelValues(service, outcome).Inc()
		metrics.OSRMLatency.WithLabelValues(service).Observe(time.Since(started).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "osrm rate limiter")
	}

	queryURL := fmt.Sprintf("%s/%s/v1/%s/%s?%s", c.baseURL, service, c.profile, encodeCoordinates(coords), query)
	c.logger.Debug("request", "service", service, "coordinates", len(coords), "urlLength", len(queryURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create osrm request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", "service", service, "coordinates", len(coords), "err", err)
		return nil, errors.Wrapf(err, "osrm %s request", service)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read osrm %s response", service)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("unexpected status", "service", service, "status", resp.StatusCode, "body", string(body))
		return nil, &RemoteServiceError{Service: service, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrapf(err, "decode osrm %s response", service)
	}
	if out.Code != "Ok" {
		c.logger.Error("service returned error code", "service", service, "code", out.Code, "message", out.Message)
		return nil, &RemoteServiceError{Service: service, Status: resp.StatusCode, Code: out.Code, Message: out.Message}
	}

	return &out, nil
}

func encodeCoordinates(coords []models.Coordinates) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = fmt.Sprintf("%.6f,%.6f", c.Lng, c.Lat)
	}
	return strings.Join(parts, ";")
}

func normalize(r route) *models.RouteResult {
	res := &models.RouteResult{
		Distance:   r.Distance,
		Duration:   r.Duration,
		Confidence: r.Confidence,
		Geometry:   orb.LineString{},
		Legs:       make([]models.Leg, 0, len(r.Legs)),
	}
	if r.Geometry != nil {
		if ls, ok := r.Geometry.Geometry().(orb.LineString); ok {
			res.Geometry = ls
		}
	}

	for _, l := range r.Legs {
		ml := models.Leg{
			Distance: l.Distance,
			Duration: l.Duration,
			Summary:  l.Summary,
			Steps:    make([]models.Step, 0, len(l.Steps)),
		}
		for _, s := range l.Steps {
			ml.Steps = append(ml.Steps, models.Step{
				Distance: s.Distance,
				Duration: s.Duration,
				Name:     s.Name,
				Maneuver: models.Maneuver{
					Type:        s.Maneuver.Type,
					Modifier:    s.Maneuver.Modifier,
					Instruction: s.Maneuver.Instruction,
					Location:    s.Maneuver.Location,
				},
			})
		}
		res.Legs = append(res.Legs, ml)
	}
	return res
}
