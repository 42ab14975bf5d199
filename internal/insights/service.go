package insights

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Oliverpt-1/Thymos/internal/analytics"
	"github.com/Oliverpt-1/Thymos/internal/metrics"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

// Strategy labels for logging and metrics
const (
	StrategyRemote    = "remote"
	StrategyRuleBased = "rule_based"
)

// Service selects between the remote and rule-based strategies. The remote
// strategy runs only when configured; any remote failure degrades to the
// rule-based result and is never surfaced to the caller.
type Service struct {
	remote Generator
	rules  Generator
	logger *logrus.Logger
}

// NewService wires the strategy pair. remote may be nil, in which case every
// batch comes from the rule-based generator.
func NewService(remote, rules Generator, logger *logrus.Logger) *Service {
	return &Service{
		remote: remote,
		rules:  rules,
		logger: logger,
	}
}

// Generate produces an insight batch for the given statistics along with the
// strategy that produced it. It cannot fail: the rule-based generator is total.
func (s *Service) Generate(ctx context.Context, data *analytics.TradingData) ([]models.Insight, string) {
	if s.remote != nil {
		start := time.Now()
		batch, err := s.remote.Generate(ctx, data)
		if err == nil && len(batch) > 0 {
			metrics.InsightBatchesTotal.WithLabelValues(StrategyRemote).Inc()
			metrics.InsightGenerationDuration.WithLabelValues(StrategyRemote).Observe(time.Since(start).Seconds())
			return batch, StrategyRemote
		}
		if err == nil {
			err = ErrEmptyCompletion
		}
		metrics.RemoteFallbacksTotal.Inc()
		s.logger.WithError(err).Warn("Remote insight generation failed, falling back to rule-based strategy")
	}

	start := time.Now()
	batch, _ := s.rules.Generate(ctx, data)
	metrics.InsightBatchesTotal.WithLabelValues(StrategyRuleBased).Inc()
	metrics.InsightGenerationDuration.WithLabelValues(StrategyRuleBased).Observe(time.Since(start).Seconds())
	return batch, StrategyRuleBased
}
