package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"trackmate/internal/api/middleware"
	"trackmate/internal/core/model"
	"trackmate/internal/core/service"
)

type BoundaryHandler struct {
	geofenceService service.GeofenceService
}

func NewBoundaryHandler(geofenceService service.GeofenceService) *BoundaryHandler {
	return &BoundaryHandler{
		geofenceService: geofenceService,
	}
}

type createBoundaryRequest struct {
	Vertices []model.LatLng `json:"vertices"`
}

func (h *BoundaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBoundaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userID := middleware.UserIDFrom(r.Context())
	boundary, err := h.geofenceService.CreateBoundary(userID, req.Vertices)
	if err != nil {
		if errors.Is(err, model.ErrBoundaryVertices) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(boundary)
}

func (h *BoundaryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	boundaries, err := h.geofenceService.ListBoundaries(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if boundaries == nil {
		boundaries = []*model.Boundary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(boundaries)
}

// Delete removes one boundary by id, or every boundary of the user when no
// id is given.
func (h *BoundaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	id := r.URL.Query().Get("id")
	if id == "" {
		if err := h.geofenceService.DeleteAllBoundaries(userID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.geofenceService.DeleteBoundary(userID, id); err != nil {
		if errors.Is(err, service.ErrBoundaryNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
