package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Oliverpt-1/Thymos/internal/analytics"
	"github.com/Oliverpt-1/Thymos/internal/metrics"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

const defaultInsightListLimit = 50

// handleGenerateInsights runs the generation pipeline: authenticate, load the
// owner's trades, aggregate, generate, persist best-effort, respond. Only
// missing credentials and an empty journal fail the request; persistence and
// remote-generation failures degrade without surfacing.
func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/insights/generate"

	if applyCORS(w, r, "POST, OPTIONS") {
		return
	}
	if r.Method != http.MethodPost {
		s.writeError(w, route, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()

	owner, err := s.authenticate(r)
	if err != nil {
		s.writeDomainError(w, route, models.ErrUnauthorized)
		return
	}

	start := time.Now()
	trades, err := s.repos.Trade.GetByOwner(ctx, owner)
	if err != nil {
		s.writeDomainError(w, route, err)
		return
	}
	metrics.TradeQueryDuration.Observe(time.Since(start).Seconds())

	if len(trades) == 0 {
		s.writeDomainError(w, route, models.ErrNoTrades)
		return
	}

	data := analytics.Aggregate(trades)
	batch, strategy := s.insights.Generate(ctx, data)

	now := time.Now().UTC()
	for i := range batch {
		batch[i].ID = uuid.New()
		batch[i].Owner = owner
		batch[i].CreatedAt = now
	}

	// Durability is best-effort: the caller gets fresh insights even when
	// the write fails.
	if err := s.repos.Insight.InsertBatch(ctx, batch); err != nil {
		metrics.InsightPersistenceFailuresTotal.Inc()
		s.logger.WithError(err).WithField("owner", owner).Error("Failed to store insights")
	}

	s.hub.Broadcast(owner, batch)

	s.logger.WithFields(logrus.Fields{
		"owner":    owner,
		"strategy": strategy,
		"insights": len(batch),
		"trades":   len(trades),
	}).Info("Insight batch generated")

	s.writeJSON(w, route, http.StatusOK, map[string]interface{}{"insights": batch})
}

// handleListInsights returns the caller's stored insights, newest first
func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/insights"

	if applyCORS(w, r, "GET, OPTIONS") {
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, route, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	owner, err := s.authenticate(r)
	if err != nil {
		s.writeDomainError(w, route, models.ErrUnauthorized)
		return
	}

	batch, err := s.repos.Insight.GetByOwner(r.Context(), owner, defaultInsightListLimit)
	if err != nil {
		s.writeDomainError(w, route, err)
		return
	}
	if batch == nil {
		batch = []models.Insight{}
	}

	s.writeJSON(w, route, http.StatusOK, map[string]interface{}{"insights": batch})
}
