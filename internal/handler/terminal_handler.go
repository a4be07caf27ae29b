package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ligtascab/ligtascab/internal/model"
	"github.com/ligtascab/ligtascab/internal/repository"
	"github.com/ligtascab/ligtascab/internal/service"
)

// SetAvailabilityBody is the JSON body for POST /api/v1/terminals/{id}/availability.
type SetAvailabilityBody struct {
	Available int `json:"available"`
}

// TerminalHandler handles terminal proximity ranking and availability updates.
type TerminalHandler struct {
	ranking   *service.RankingService
	terminals *repository.TerminalRepository
}

// NewTerminalHandler creates a new handler wired to the ranking service.
func NewTerminalHandler(ranking *service.RankingService, terminals *repository.TerminalRepository) *TerminalHandler {
	return &TerminalHandler{ranking: ranking, terminals: terminals}
}

// Nearby handles GET /api/v1/terminals/nearby?lat=&lon=
//
// Returns every terminal ordered by great-circle distance from the given
// point, nearest first, each with its distance in kilometres.
func (h *TerminalHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "lat and lon query parameters are required")
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "bad_request", "lat/lon out of range")
		return
	}

	ranked, err := h.ranking.NearestTerminals(r.Context(), model.Location{Lat: lat, Lon: lon})
	if err != nil {
		log.Printf("[handler] nearby terminals error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not load terminals.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"terminals": ranked})
}

// SetAvailability handles POST /api/v1/terminals/{id}/availability
//
// Updates how many tricycles are waiting at a terminal. Terminal staff
// endpoint; the count feeds the nearby listing.
func (h *TerminalHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	terminalID := mux.Vars(r)["id"]

	var body SetAvailabilityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if body.Available < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "available must be zero or more")
		return
	}

	if err := h.terminals.SetAvailability(r.Context(), terminalID, body.Available); err != nil {
		log.Printf("[handler] set availability error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not update availability.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"terminal_id": terminalID,
		"available":   body.Available,
	})
}
