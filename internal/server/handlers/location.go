// internal/server/handlers/location.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wayguard/internal/domain/safety"
)

var errInvalidCoordinates = errors.New("lat and lng must both be valid numbers")

// LocationHandler handles per-user location HTTP requests
type LocationHandler struct {
	service SafetyService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(service SafetyService) *LocationHandler {
	return &LocationHandler{
		service: service,
	}
}

// UpdateLocation records the user's current location.
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	var loc safety.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid location payload", err)
		return
	}

	h.service.UpdateUserLocation(userID, loc)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ClearLocation removes the user's location record.
func (h *LocationHandler) ClearLocation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	h.service.ClearUserLocation(userID)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// GetAlerts returns the active alerts for the user's last known location.
func (h *LocationHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	alerts := h.service.UserLocationAlerts(r.Context(), userID)
	respondWithJSON(w, http.StatusOK, alerts)
}

// GetSafetyScore returns the score, risk level and summary for the user's
// last known location.
func (h *LocationHandler) GetSafetyScore(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	summary := h.service.UserSafetyScore(r.Context(), userID)
	respondWithJSON(w, http.StatusOK, summary)
}
