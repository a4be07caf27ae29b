// Package middleware contains HTTP middleware for the commuter API.
//
// RequestLogger provides structured logging for all API requests,
// including method, path, status code, and latency. RequireAuth gates
// routes behind a valid commuter session token.
package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/ligtascab/ligtascab/internal/auth"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every HTTP request with method, path, status, and latency.
//
// Example output:
//
//	[http] POST /api/v1/scan → 200 (4.2ms)
//	[http] POST /api/v1/rides/confirm → 409 (2.1ms)
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		latency := time.Since(start)
		log.Printf("[http] %s %s → %d (%s)",
			r.Method, r.URL.Path, rw.statusCode, latency.Round(100*time.Microsecond))
	})
}

// Recoverer catches panics in handlers and returns a 500 response
// instead of crashing the entire server.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[http] PANIC: %s %s → %v", r.Method, r.URL.Path, err)
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS adds headers so browser-based clients (e.g. Swagger UI) can call the API.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type contextKey string

const commuterIDKey contextKey = "commuter_id"

// RequireAuth validates the bearer token and stores the commuter ID on the
// request context. Missing or bad tokens get a 401 before the handler runs.
func RequireAuth(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := authSvc.ExtractTokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				unauthorized(w, "missing or malformed Authorization header")
				return
			}

			commuterID, err := authSvc.ValidateToken(token)
			if err != nil {
				if err == auth.ErrExpiredToken {
					unauthorized(w, "session expired, please sign in again")
					return
				}
				unauthorized(w, "invalid session token")
				return
			}

			ctx := context.WithValue(r.Context(), commuterIDKey, commuterID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CommuterID returns the authenticated commuter ID set by RequireAuth.
// Empty when the route is not auth-gated.
func CommuterID(r *http.Request) string {
	id, _ := r.Context().Value(commuterIDKey).(string)
	return id
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
