package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ligtascab/ligtascab/internal/middleware"
	"github.com/ligtascab/ligtascab/internal/model"
	"github.com/ligtascab/ligtascab/internal/service"
)

// SubmitReportBody is the JSON body for POST /api/v1/reports.
type SubmitReportBody struct {
	Violation string `json:"violation"`
	Comment   string `json:"comment"`
}

// ReportHandler handles violation report submission and history.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new handler wired to the report service.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Submit handles POST /api/v1/reports
//
// Files a violation report and returns it with its tracking ticket.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body SubmitReportBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	report, err := h.reports.Submit(r.Context(), middleware.CommuterID(r), body.Violation, body.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownViolation):
			writeError(w, http.StatusBadRequest, "unknown_violation", "Unknown violation category.")
		case errors.Is(err, service.ErrEmptyComment):
			writeError(w, http.StatusBadRequest, "empty_comment", "A description of the incident is required.")
		default:
			log.Printf("[handler] submit report error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Could not submit the report.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// History handles GET /api/v1/reports
//
// Returns the commuter's filed reports, newest first.
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.History(r.Context(), middleware.CommuterID(r))
	if err != nil {
		log.Printf("[handler] report history error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not load reports.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

// Violations handles GET /api/v1/reports/violations
//
// Returns the selectable violation categories.
func (h *ReportHandler) Violations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"violations": model.ViolationCategories})
}
