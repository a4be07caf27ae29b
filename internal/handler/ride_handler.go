package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ligtascab/ligtascab/internal/middleware"
	"github.com/ligtascab/ligtascab/internal/repository"
	"github.com/ligtascab/ligtascab/internal/service"
)

// ─── Request/Response DTOs ──────────────────────────────────

// ScanBody is the JSON body for POST /api/v1/scan.
type ScanBody struct {
	Code string `json:"code"`
}

// EndRideBody is the JSON body for POST /api/v1/rides/end. Rating is
// optional; when present it must be 1..5.
type EndRideBody struct {
	Rating  *int   `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// ─── RideHandler ────────────────────────────────────────────

// RideHandler handles the scan → confirm → end ride flow.
type RideHandler struct {
	lifecycle *service.LifecycleService
}

// NewRideHandler creates a new handler wired to the lifecycle service.
func NewRideHandler(lifecycle *service.LifecycleService) *RideHandler {
	return &RideHandler{lifecycle: lifecycle}
}

// Scan handles POST /api/v1/scan
//
// Resolves a scanned QR payload to a tricycle and selects it for the
// session. An unknown code gets 404 with the message the client shows
// verbatim.
func (h *RideHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var body ScanBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "code is required")
		return
	}

	tc, err := h.lifecycle.ScanVehicle(r.Context(), middleware.CommuterID(r), body.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTricycleNotFound):
			writeError(w, http.StatusNotFound, "invalid_qr", "Invalid QR Code. Please try again.")
		case errors.Is(err, service.ErrRideInProgress):
			writeError(w, http.StatusConflict, "ride_in_progress", "A ride is already in progress. End it before scanning another vehicle.")
		case errors.Is(err, service.ErrStaleScan):
			writeError(w, http.StatusConflict, "stale_scan", "Scan was dismissed before it completed.")
		default:
			log.Printf("[handler] scan error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Could not look up vehicle.")
		}
		return
	}

	writeJSON(w, http.StatusOK, tc)
}

// Confirm handles POST /api/v1/rides/confirm
//
// Creates the ride from the selected tricycle. A second press while the
// first confirmation is still in flight gets 409 and no second insert.
func (h *RideHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ride, err := h.lifecycle.ConfirmRide(r.Context(), middleware.CommuterID(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSelection):
			writeError(w, http.StatusConflict, "no_selection", "No vehicle selected. Scan a QR code first.")
		case errors.Is(err, service.ErrConfirmInFlight):
			writeError(w, http.StatusConflict, "confirm_in_flight", "Ride confirmation already in progress.")
		case errors.Is(err, service.ErrRideCreateFailed):
			log.Printf("[handler] confirm error: %v", err)
			writeError(w, http.StatusInternalServerError, "ride_create_failed", "Could not start the ride. Please try again.")
		default:
			log.Printf("[handler] confirm error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Could not start the ride.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, ride)
}

// Dismiss handles POST /api/v1/rides/dismiss
//
// Discards the selected vehicle and returns the session to idle.
func (h *RideHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.lifecycle.DismissSelection(middleware.CommuterID(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

// End handles POST /api/v1/rides/end
//
// Closes the active ride, recording an optional driver rating first.
func (h *RideHandler) End(w http.ResponseWriter, r *http.Request) {
	var body EndRideBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
	}
	if body.Rating != nil && (*body.Rating < 1 || *body.Rating > 5) {
		writeError(w, http.StatusBadRequest, "bad_request", "rating must be between 1 and 5")
		return
	}

	ride, err := h.lifecycle.EndRide(r.Context(), middleware.CommuterID(r), body.Rating, body.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveRide):
			writeError(w, http.StatusConflict, "no_active_ride", "No ride is currently active.")
		default:
			log.Printf("[handler] end ride error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Could not end the ride.")
		}
		return
	}

	writeJSON(w, http.StatusOK, ride)
}

// Reset handles POST /api/v1/rides/reset
//
// Clears the session back to idle — the navigation-home action after a
// completed ride's summary screen.
func (h *RideHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.lifecycle.Reset(middleware.CommuterID(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "idle"})
}

// Recent handles GET /api/v1/rides/recent
//
// Returns the commuter's most recent ride, 404 when they have none.
func (h *RideHandler) Recent(w http.ResponseWriter, r *http.Request) {
	ride, err := h.lifecycle.RecentRide(r.Context(), middleware.CommuterID(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "No rides yet.")
			return
		}
		log.Printf("[handler] recent ride error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not load recent ride.")
		return
	}

	writeJSON(w, http.StatusOK, ride)
}

// History handles GET /api/v1/rides/history
//
// Returns the commuter's latest rides, newest first.
func (h *RideHandler) History(w http.ResponseWriter, r *http.Request) {
	rides, err := h.lifecycle.RideHistory(r.Context(), middleware.CommuterID(r))
	if err != nil {
		log.Printf("[handler] ride history error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not load ride history.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rides": rides})
}
