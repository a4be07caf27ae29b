package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ligtascab/ligtascab/internal/auth"
	"github.com/ligtascab/ligtascab/internal/middleware"
	"github.com/ligtascab/ligtascab/internal/model"
	"github.com/ligtascab/ligtascab/internal/service"
)

// ─── Request/Response DTOs ──────────────────────────────────

// OTPRequestBody is the JSON body for POST /api/v1/auth/otp.
type OTPRequestBody struct {
	Phone string `json:"phone"`
}

// LoginBody is the JSON body for POST /api/v1/auth/login.
type LoginBody struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// SessionResponse pairs a commuter account with its bearer token.
type SessionResponse struct {
	Commuter *model.Commuter `json:"commuter"`
	Token    string          `json:"token"`
}

// ─── AuthHandler ────────────────────────────────────────────

// AuthHandler handles commuter sign-up, sign-in and session endpoints.
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler creates a new handler wired to the account service.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// RequestOTP handles POST /api/v1/auth/otp
//
// Relays the phone number to the send-otp function and returns its
// response body unmodified.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var body OTPRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "phone is required")
		return
	}

	resp, err := h.accounts.RequestOTP(r.Context(), body.Phone)
	if err != nil {
		log.Printf("[handler] otp relay error: %v", err)
		writeError(w, http.StatusBadGateway, "otp_failed", "Could not send verification code. Please try again.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// Register handles POST /api/v1/auth/register
//
// Creates a commuter account and signs it in. Field validation failures
// come back as one combined message listing every problem.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	commuter, token, err := h.accounts.Register(r.Context(), reg)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneTaken):
			writeError(w, http.StatusConflict, "phone_taken", "This phone number is already registered.")
		default:
			// Validation errors carry the aggregated field messages.
			writeError(w, http.StatusBadRequest, "invalid_registration", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{Commuter: commuter, Token: token})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	commuter, token, err := h.accounts.SignIn(r.Context(), body.PhoneNumber, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Incorrect phone number or password.")
			return
		}
		log.Printf("[handler] login error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Sign in failed.")
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Commuter: commuter, Token: token})
}

// Logout handles POST /api/v1/auth/logout
//
// Tokens are stateless; sign-out is the client discarding its copy. The
// endpoint exists so the client has a single call to end a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Session handles GET /api/v1/auth/session
//
// Returns the account behind the bearer token.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	commuter, err := h.accounts.Session(r.Context(), middleware.CommuterID(r))
	if err != nil {
		if errors.Is(err, service.ErrCommuterNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Account no longer exists.")
			return
		}
		log.Printf("[handler] session error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not load session.")
		return
	}

	writeJSON(w, http.StatusOK, commuter)
}
