// Package handlers exposes the route editor operations as JSON endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"kml-eagle/internal/database"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/logs"
	"kml-eagle/internal/models"
)

// maxBodyBytes bounds request bodies, KML uploads included.
const maxBodyBytes = 32 << 20

// TourSolver orders waypoints into a visiting sequence.
type TourSolver interface {
	Solve(ctx context.Context, points []models.Waypoint, cfg models.TSPConfig) (*models.TSPSolution, error)
}

// RouteProcessor snaps an ordered waypoint list onto roads.
type RouteProcessor interface {
	ProcessRoute(ctx context.Context, points []models.Waypoint) (*models.ProcessRouteResult, error)
}

// Handler provides common handler utilities and dependencies
type Handler struct {
	DB        database.DataStore
	Solver    TourSolver
	Processor RouteProcessor
	Validate  *validator.Validate
	Logger    *slog.Logger
}

// New wires a Handler. A nil logger discards output.
func New(db database.DataStore, solver TourSolver, processor RouteProcessor, logger *slog.Logger) *Handler {
	return &Handler{
		DB:        db,
		Solver:    solver,
		Processor: processor,
		Validate:  validator.New(validator.WithRequiredStructEnabled()),
		Logger:    logs.OrDiscard(logger).With("component", "http"),
	}
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// FieldError is one failed validation rule on a request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Warn("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details any) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func (h *Handler) handleValidationError(w http.ResponseWriter, message string, details any) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	h.Logger.Error("internal error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

func (h *Handler) checkNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// decode reads a JSON body into dst and runs struct validation on it. It
// writes the error response itself and reports whether the caller may go on.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		h.Logger.Debug("invalid request body", "path", r.URL.Path, "error", err)
		h.handleValidationError(w, "Invalid request body", nil)
		return false
	}

	if err := h.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, FieldError{Field: fe.Namespace(), Rule: fe.Tag(), Param: fe.Param()})
			}
			h.handleValidationError(w, "Request failed validation", details)
			return false
		}
		h.handleInternalError(w, err)
		return false
	}
	return true
}

// pathID parses the trailing numeric id of paths like /api/v1/saved-routes/7.
func pathID(r *http.Request, prefix string) (int64, error) {
	if v := r.PathValue("id"); v != "" {
		return strconv.ParseInt(v, 10, 64)
	}
	return strconv.ParseInt(strings.TrimPrefix(r.URL.Path, prefix), 10, 64)
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"

	if h.DB == nil {
		dbStatus = "disabled"
	} else if err := h.DB.HealthCheck(r.Context()); err != nil {
		h.Logger.Warn("database health check failed", "error", err)
		status = "degraded"
		dbStatus = "error"
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"version":  "1.0.0",
		"database": dbStatus,
	})
}
