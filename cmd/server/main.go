package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ligtascab/ligtascab/config"
	"github.com/ligtascab/ligtascab/internal/auth"
	"github.com/ligtascab/ligtascab/internal/handler"
	"github.com/ligtascab/ligtascab/internal/middleware"
	"github.com/ligtascab/ligtascab/internal/repository"
	"github.com/ligtascab/ligtascab/internal/service"
	"github.com/ligtascab/ligtascab/pkg/cache"
	"github.com/ligtascab/ligtascab/pkg/db"
	"github.com/ligtascab/ligtascab/pkg/otp"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer pgPool.Close()
	log.Println("✓ PostgreSQL connected")

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ── Initialize layers ───────────────────────────────
	tricycleRepo := repository.NewTricycleRepository(pgPool)
	rideRepo := repository.NewRideRepository(pgPool)
	reportRepo := repository.NewReportRepository(pgPool)
	commuterRepo := repository.NewCommuterRepository(pgPool)
	terminalRepo := repository.NewTerminalRepository(pgPool, redisClient)

	authSvc := auth.NewService(cfg.Auth)
	otpClient := otp.NewClient(cfg.OTP)

	accountSvc := service.NewAccountService(commuterRepo, authSvc, otpClient)
	lifecycleSvc := service.NewLifecycleService(tricycleRepo, rideRepo, service.NewFlatFareTable(cfg.Fare.FlatFare))
	reportSvc := service.NewReportService(reportRepo, service.NewTicketGenerator())
	rankingSvc := service.NewRankingService(terminalRepo)

	authHandler := handler.NewAuthHandler(accountSvc)
	rideHandler := handler.NewRideHandler(lifecycleSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	terminalHandler := handler.NewTerminalHandler(rankingSvc, terminalRepo)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()
	router.Use(middleware.Recoverer, middleware.RequestLogger)

	// Health check endpoint.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient)).Methods(http.MethodGet)

	// Public auth routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/otp", authHandler.RequestOTP).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	// Everything else requires a commuter session token.
	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.RequireAuth(authSvc))
	authed.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/auth/session", authHandler.Session).Methods(http.MethodGet)
	// Scan → confirm → end flow
	authed.HandleFunc("/scan", rideHandler.Scan).Methods(http.MethodPost)
	authed.HandleFunc("/rides/confirm", rideHandler.Confirm).Methods(http.MethodPost)
	authed.HandleFunc("/rides/dismiss", rideHandler.Dismiss).Methods(http.MethodPost)
	authed.HandleFunc("/rides/end", rideHandler.End).Methods(http.MethodPost)
	authed.HandleFunc("/rides/reset", rideHandler.Reset).Methods(http.MethodPost)
	authed.HandleFunc("/rides/recent", rideHandler.Recent).Methods(http.MethodGet)
	authed.HandleFunc("/rides/history", rideHandler.History).Methods(http.MethodGet)
	// Violation reports
	authed.HandleFunc("/reports", reportHandler.Submit).Methods(http.MethodPost)
	authed.HandleFunc("/reports", reportHandler.History).Methods(http.MethodGet)
	authed.HandleFunc("/reports/violations", reportHandler.Violations).Methods(http.MethodGet)
	// Terminals
	authed.HandleFunc("/terminals/nearby", terminalHandler.Nearby).Methods(http.MethodGet)
	authed.HandleFunc("/terminals/{id}/availability", terminalHandler.SetAvailability).Methods(http.MethodPost)

	// Wrap with CORS so browser clients can call the API.
	root := middleware.CORS(router)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Server.ServerAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks PG and Redis connectivity.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if err := db.HealthCheck(r.Context(), pgPool); err != nil {
			resp.Status = "degraded"
			resp.Services["postgres"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["postgres"] = "healthy"
		}

		if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["redis"] = "healthy"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
