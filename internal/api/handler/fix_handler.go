package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"trackmate/internal/api/middleware"
	"trackmate/internal/core/model"
	"trackmate/internal/core/service"
)

type FixHandler struct {
	fixService service.FixService
}

func NewFixHandler(fixService service.FixService) *FixHandler {
	return &FixHandler{
		fixService: fixService,
	}
}

type addFixRequest struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	BatteryPercent *int    `json:"batteryPercent"`
}

func (h *FixHandler) AddFix(w http.ResponseWriter, r *http.Request) {
	var req addFixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	battery := model.BatteryUnknown
	if req.BatteryPercent != nil {
		battery = *req.BatteryPercent
	}

	userID := middleware.UserIDFrom(r.Context())
	fix, err := h.fixService.AddFix(userID, req.Latitude, req.Longitude, battery)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fix)
}

func (h *FixHandler) GetFixes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	userID := middleware.UserIDFrom(r.Context())
	fixes, err := h.fixService.GetFixes(userID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if fixes == nil {
		fixes = []*model.Fix{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fixes)
}

func (h *FixHandler) GetLatestFix(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	fix, err := h.fixService.GetLatestFix(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if fix == nil {
		http.Error(w, "No fix recorded yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fix)
}

func (h *FixHandler) PurgeFixes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	if err := h.fixService.PurgeFixes(userID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
