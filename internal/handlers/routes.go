package handlers

import (
	"net/http"

	"kml-eagle/internal/errors"
	"kml-eagle/internal/models"
	"kml-eagle/internal/osrm"
	"kml-eagle/internal/routing"
)

// ProcessRouteRequest is the body of POST /api/v1/routes/process.
type ProcessRouteRequest struct {
	Points []models.Waypoint `json:"points" validate:"required,dive"`
}

// HandleProcessRoute handles POST /api/v1/routes/process
func (h *Handler) HandleProcessRoute(w http.ResponseWriter, r *http.Request) {
	var req ProcessRouteRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.Processor.ProcessRoute(r.Context(), req.Points)
	if err != nil {
		h.handleRoutingError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// handleRoutingError maps too-few-points to 422 and remote failures to 502.
func (h *Handler) handleRoutingError(w http.ResponseWriter, err error) {
	var inputErr *routing.InputError
	if errors.As(err, &inputErr) {
		h.writeError(w, http.StatusUnprocessableEntity, "ROUTING_FAILED", inputErr.Error(), map[string]any{
			"count":          inputErr.Count,
			"after_simplify": inputErr.AfterSimplify,
		})
		return
	}

	var remoteErr *osrm.RemoteServiceError
	if errors.As(err, &remoteErr) {
		h.Logger.Warn("routing service failed", "service", remoteErr.Service, "status", remoteErr.Status, "code", remoteErr.Code)
		h.writeError(w, http.StatusBadGateway, "ROUTING_SERVICE_ERROR", remoteErr.Error(), map[string]any{
			"service": remoteErr.Service,
			"status":  remoteErr.Status,
			"code":    remoteErr.Code,
		})
		return
	}

	h.writeError(w, http.StatusBadGateway, "ROUTING_SERVICE_ERROR", err.Error(), nil)
}
