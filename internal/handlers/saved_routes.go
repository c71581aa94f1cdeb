package handlers

import (
	"net/http"

	"kml-eagle/internal/models"
)

const savedRoutesPrefix = "/api/v1/saved-routes/"

// SavedRouteRequest is the body for creating or replacing a saved route.
type SavedRouteRequest struct {
	Info          models.RouteInfo  `json:"info"`
	Waypoints     []models.Waypoint `json:"waypoints" validate:"required,min=1,dive"`
	TotalDistance float64           `json:"totalDistance" validate:"gte=0"`
}

func (req SavedRouteRequest) toModel() *models.SavedRoute {
	return &models.SavedRoute{
		Info:          req.Info,
		Waypoints:     req.Waypoints,
		TotalDistance: req.TotalDistance,
	}
}

// SavedRouteListResponse represents the list response
type SavedRouteListResponse struct {
	Routes []models.SavedRoute `json:"routes"`
	Total  int                 `json:"total"`
}

// HandleListSavedRoutes handles GET /api/v1/saved-routes
func (h *Handler) HandleListSavedRoutes(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	routes, err := h.DB.Routes().List(r.Context(), search)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SavedRouteListResponse{
		Routes: routes,
		Total:  len(routes),
	})
}

// HandleGetSavedRoute handles GET /api/v1/saved-routes/{id}
func (h *Handler) HandleGetSavedRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, savedRoutesPrefix)
	if err != nil {
		h.handleValidationError(w, "Invalid route ID", nil)
		return
	}

	route, err := h.DB.Routes().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if route == nil {
		h.handleNotFound(w, "Route not found")
		return
	}

	h.writeJSON(w, http.StatusOK, route)
}

// HandleCreateSavedRoute handles POST /api/v1/saved-routes
func (h *Handler) HandleCreateSavedRoute(w http.ResponseWriter, r *http.Request) {
	var req SavedRouteRequest
	if !h.decode(w, r, &req) {
		return
	}

	route, err := h.DB.Routes().Create(r.Context(), req.toModel())
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.Logger.Info("saved route created", "id", route.ID, "name", route.Info.Name, "waypoints", len(route.Waypoints))
	h.writeJSON(w, http.StatusCreated, route)
}

// HandleUpdateSavedRoute handles PUT /api/v1/saved-routes/{id}
func (h *Handler) HandleUpdateSavedRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, savedRoutesPrefix)
	if err != nil {
		h.handleValidationError(w, "Invalid route ID", nil)
		return
	}

	var req SavedRouteRequest
	if !h.decode(w, r, &req) {
		return
	}

	route := req.toModel()
	route.ID = id
	route, err = h.DB.Routes().Update(r.Context(), route)
	if h.checkNotFound(err) {
		h.handleNotFound(w, "Route not found")
		return
	}
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, route)
}

// HandleDeleteSavedRoute handles DELETE /api/v1/saved-routes/{id}
func (h *Handler) HandleDeleteSavedRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, savedRoutesPrefix)
	if err != nil {
		h.handleValidationError(w, "Invalid route ID", nil)
		return
	}

	err = h.DB.Routes().Delete(r.Context(), id)
	if h.checkNotFound(err) {
		h.handleNotFound(w, "Route not found")
		return
	}
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
