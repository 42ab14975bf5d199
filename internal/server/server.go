// Package server exposes the trading-journal HTTP API: trade CRUD, insight
// generation and retrieval, health probes, and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Oliverpt-1/Thymos/internal/auth"
	"github.com/Oliverpt-1/Thymos/internal/config"
	"github.com/Oliverpt-1/Thymos/internal/insights"
	"github.com/Oliverpt-1/Thymos/internal/metrics"
	"github.com/Oliverpt-1/Thymos/internal/models"
	"github.com/Oliverpt-1/Thymos/internal/repository"
)

// corsAllowedHeaders mirrors what the journal UI sends
const corsAllowedHeaders = "authorization, x-client-info, apikey, content-type"

// DatabasePinger defines the interface for checking database connectivity
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server for the insight service
type Server struct {
	cfg      config.ServerConfig
	repos    *repository.Repositories
	verifier auth.Verifier
	insights *insights.Service
	db       DatabasePinger
	hub      *Hub
	validate *validator.Validate
	logger   *logrus.Logger

	metricsEnabled bool
	metricsPath    string

	server *http.Server
}

// Options bundles the server's collaborators
type Options struct {
	Config         config.ServerConfig
	Repositories   *repository.Repositories
	Verifier       auth.Verifier
	Insights       *insights.Service
	DB             DatabasePinger
	Logger         *logrus.Logger
	MetricsEnabled bool
	MetricsPath    string
}

// New creates the API server
func New(opts Options) *Server {
	return &Server{
		cfg:            opts.Config,
		repos:          opts.Repositories,
		verifier:       opts.Verifier,
		insights:       opts.Insights,
		db:             opts.DB,
		hub:            NewHub(opts.Logger),
		validate:       validator.New(),
		logger:         opts.Logger,
		metricsEnabled: opts.MetricsEnabled,
		metricsPath:    opts.MetricsPath,
	}
}

// Routes builds the request multiplexer. Exposed separately so tests can
// exercise handlers without binding a socket.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)

	if s.metricsEnabled {
		mux.Handle(s.metricsPath, metrics.Handler())
	}

	mux.HandleFunc("/api/v1/insights/generate", s.handleGenerateInsights)
	mux.HandleFunc("/api/v1/insights", s.handleListInsights)
	mux.HandleFunc("/api/v1/insights/stream", s.handleInsightStream)
	mux.HandleFunc("/api/v1/trades", s.handleTrades)
	mux.HandleFunc("/api/v1/trades/", s.handleTradeByID)

	return mux
}

// Start runs the server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Port),
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Error("API server shutdown error")
		}
	}()

	s.logger.WithField("port", s.cfg.Port).Info("API server starting")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("API server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	s.hub.Close()
	return s.server.Shutdown(ctx)
}

// authenticate resolves the caller from the Authorization header
func (s *Server) authenticate(r *http.Request) (string, error) {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return "", models.ErrUnauthorized
	}
	return s.verifier.Verify(r.Context(), token)
}

// applyCORS sets the permissive headers the hosted UI expects and answers
// preflight requests. Returns true when the request was a handled preflight.
func applyCORS(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
	w.Header().Set("Access-Control-Allow-Methods", methods)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, route string, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
	metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (s *Server) writeError(w http.ResponseWriter, route string, status int, message string) {
	s.writeJSON(w, route, status, map[string]string{"error": message})
}

// writeDomainError maps domain errors onto HTTP statuses. Only auth and
// no-data failures carry specific messages; everything unexpected is a
// generic 500.
func (s *Server) writeDomainError(w http.ResponseWriter, route string, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		s.writeError(w, route, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, models.ErrNoTrades):
		s.writeError(w, route, http.StatusBadRequest, "No trades found. Add some trades to generate insights.")
	case errors.Is(err, models.ErrNotFound):
		s.writeError(w, route, http.StatusNotFound, "Not found")
	default:
		s.logger.WithError(err).Error("Request failed")
		s.writeError(w, route, http.StatusInternalServerError, "Failed to process request")
	}
}

// handleHealth handles the /health endpoint - basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "/health", http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   "thymos",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleLive handles the /live endpoint - kubernetes liveness probe
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "/live", http.StatusOK, map[string]string{"status": "ok", "service": "thymos"})
}

// handleReady handles the /ready endpoint - checks database connectivity
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = fmt.Sprintf("error: %v", err)
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "not_ready"
	}
	s.writeJSON(w, "/ready", status, map[string]interface{}{
		"status":  state,
		"service": "thymos",
		"checks":  checks,
	})
}
