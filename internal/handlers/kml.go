package handlers

import (
	"net/http"

	"kml-eagle/internal/kml"
	"kml-eagle/internal/models"
)

// WaypointListResponse is returned by endpoints that yield a bare point list.
type WaypointListResponse struct {
	Waypoints []models.Waypoint `json:"waypoints"`
	Total     int               `json:"total"`
}

// HandleParseKML handles POST /api/v1/kml/parse. The body is the KML document.
func (h *Handler) HandleParseKML(w http.ResponseWriter, r *http.Request) {
	points, err := kml.Parse(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.Logger.Info("rejected kml upload", "error", err)
		h.handleValidationError(w, "Could not read KML document", err.Error())
		return
	}

	h.Logger.Info("parsed kml", "waypoints", len(points))
	h.writeJSON(w, http.StatusOK, WaypointListResponse{
		Waypoints: points,
		Total:     len(points),
	})
}
