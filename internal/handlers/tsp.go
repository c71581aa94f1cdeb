package handlers

import (
	"net/http"

	"kml-eagle/internal/errors"
	"kml-eagle/internal/models"
	"kml-eagle/internal/tsp"
)

// TSPRequest is the body of the validate and solve endpoints.
type TSPRequest struct {
	Points []models.Waypoint `json:"points" validate:"required,dive"`
	Config models.TSPConfig  `json:"config"`
}

// HandleValidateTSP handles POST /api/v1/tsp/validate
func (h *Handler) HandleValidateTSP(w http.ResponseWriter, r *http.Request) {
	var req TSPRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.writeJSON(w, http.StatusOK, tsp.ValidateConfig(req.Points, req.Config))
}

// HandleSolveTSP handles POST /api/v1/tsp/solve. The config is repaired by
// ValidateConfig before solving.
func (h *Handler) HandleSolveTSP(w http.ResponseWriter, r *http.Request) {
	var req TSPRequest
	if !h.decode(w, r, &req) {
		return
	}

	check := tsp.ValidateConfig(req.Points, req.Config)
	if err := check.Err(); err != nil {
		h.handleSolveError(w, err, check.Errors)
		return
	}
	for _, warning := range check.Warnings {
		h.Logger.Warn("tsp config warning", "warning", warning)
	}

	cfg := check.Corrected
	if req.Config.CollectionRadius <= 0 {
		// let the solver apply the server-configured radius
		cfg.CollectionRadius = 0
	}

	solution, err := h.Solver.Solve(r.Context(), req.Points, cfg)
	if err != nil {
		h.handleSolveError(w, err, nil)
		return
	}

	h.Logger.Info("solved tour",
		"points", len(solution.Route),
		"algorithm", solution.Algorithm,
		"distance_m", solution.TotalDistance,
		"partial", solution.Partial,
	)
	h.writeJSON(w, http.StatusOK, solution)
}

func (h *Handler) handleSolveError(w http.ResponseWriter, err error, details any) {
	var inputErr *tsp.InputError
	var cfgErr *tsp.ConfigError
	switch {
	case errors.As(err, &inputErr):
		h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", inputErr.Error(), details)
	case errors.As(err, &cfgErr):
		h.writeError(w, http.StatusBadRequest, "INVALID_CONFIG", cfgErr.Error(), details)
	default:
		h.handleInternalError(w, err)
	}
}
