// Package insights generates natural-language observations about a trader's
// performance from aggregated journal statistics. Two interchangeable
// strategies exist: a remote text-generation service and a deterministic
// rule-based engine used as fallback.
package insights

import (
	"context"

	"github.com/Oliverpt-1/Thymos/internal/analytics"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

// Generator produces a batch of insights from aggregated statistics
type Generator interface {
	Generate(ctx context.Context, data *analytics.TradingData) ([]models.Insight, error)
}
