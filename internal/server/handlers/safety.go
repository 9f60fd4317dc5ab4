// internal/server/handlers/safety.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"wayguard/internal/domain/safety"
)

// SafetyService is the presentation-facing contract the handlers consume.
type SafetyService interface {
	Aggregate(ctx context.Context, loc safety.Location) safety.Document
	UpdateUserLocation(userID string, loc safety.Location)
	ClearUserLocation(userID string)
	UserLocationAlerts(ctx context.Context, userID string) []safety.Alert
	UserSafetyScore(ctx context.Context, userID string) safety.ScoreSummary
}

// SafetyHandler handles safety document HTTP requests
type SafetyHandler struct {
	service SafetyService
}

// NewSafetyHandler creates a new safety handler
func NewSafetyHandler(service SafetyService) *SafetyHandler {
	return &SafetyHandler{
		service: service,
	}
}

// GetSafety returns the safety document for the queried location. The
// aggregation contract is total, so this endpoint always answers 200 with a
// document; a contextless query gets generic default data.
func (h *SafetyHandler) GetSafety(w http.ResponseWriter, r *http.Request) {
	loc, err := locationFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), err)
		return
	}

	doc := h.service.Aggregate(r.Context(), loc)
	respondWithJSON(w, http.StatusOK, doc)
}

// locationFromQuery builds a Location from lat/lng/city/country/region query
// parameters. Coordinates must parse as a pair or be absent.
func locationFromQuery(r *http.Request) (safety.Location, error) {
	q := r.URL.Query()
	loc := safety.Location{
		City:    q.Get("city"),
		Country: q.Get("country"),
		Region:  q.Get("region"),
	}

	latStr := q.Get("lat")
	lngStr := q.Get("lng")
	if latStr == "" && lngStr == "" {
		return loc, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return safety.Location{}, errInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return safety.Location{}, errInvalidCoordinates
	}
	loc.Coordinates = &safety.Coordinates{Lat: lat, Lng: lng}
	return loc, nil
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		logrus.WithField("component", "http").Errorf("%s: %v", message, err)
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
