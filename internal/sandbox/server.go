// Package sandbox serves the settlement REST API backed by a local ledger so
// the client library can be exercised without the production service.
package sandbox

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/settlement-go/internal/auth"
	"github.com/mmynk/settlement-go/internal/middleware"
	"github.com/mmynk/settlement-go/internal/storage"
)

// Server implements the settlement API.
type Server struct {
	cfg      Config
	store    storage.Store
	jwt      *auth.JWTManager
	registry *prometheus.Registry
	metrics  *middleware.Metrics
	outcomes *prometheus.CounterVec
}

// NewServer creates a Server. Its collectors live on a private registry served
// at /metrics.
func NewServer(cfg Config, store storage.Store, jwtManager *auth.JWTManager) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := middleware.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "settlement_sandbox",
		Name:      "settlement_requests_total",
		Help:      "Settlement create requests by outcome.",
	}, []string{"outcome"})
	if err := registry.Register(outcomes); err != nil {
		return nil, fmt.Errorf("failed to register settlement metrics: %w", err)
	}

	return &Server{
		cfg:      cfg,
		store:    store,
		jwt:      jwtManager,
		registry: registry,
		metrics:  metrics,
		outcomes: outcomes,
	}, nil
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging, s.metrics.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.jwt))

		r.Post("/settlements", s.createSettlement)
		r.Get("/settlements", s.listSettlements)
		r.Get("/settlements/{settlementID}", s.getSettlement)
		r.Get("/settlements/txnId/{txnID}", s.getSettlementByTxnID)
		r.Post("/settlements/account", s.createAccount)
		r.Get("/settlements/account/{accountID}", s.listAccountSettlements)
		r.Delete("/settlements/account/{accountID}", s.removeAccount)
		r.Get("/balance", s.balance)
	})

	return r
}

func (s *Server) limits() storage.Limits {
	return storage.Limits{
		OpeningBalance: s.cfg.OpeningBalance,
		DailyLimit:     s.cfg.DailyLimit,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Request handling failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
