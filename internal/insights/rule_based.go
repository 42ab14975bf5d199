package insights

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/Oliverpt-1/Thymos/internal/analytics"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

// DefaultPositionSizingThreshold is the fraction of average position size the
// average per-trade P/L must exceed before a sizing insight fires. The 10%
// constant is a heuristic carried over for behavioral compatibility, exposed
// as configuration rather than derived from anything.
const DefaultPositionSizingThreshold = 0.1

// minTradesForSizing gates the position-sizing insight on journal depth
const minTradesForSizing = 5

// RuleBasedGenerator derives insights from fixed thresholds. It is a pure
// function of the statistics: same input always yields the same ordered batch.
type RuleBasedGenerator struct {
	positionSizingThreshold float64
}

// NewRuleBasedGenerator creates the deterministic fallback generator. A zero
// threshold selects the default.
func NewRuleBasedGenerator(positionSizingThreshold float64) *RuleBasedGenerator {
	if positionSizingThreshold <= 0 {
		positionSizingThreshold = DefaultPositionSizingThreshold
	}
	return &RuleBasedGenerator{positionSizingThreshold: positionSizingThreshold}
}

// Generate evaluates each rule in fixed order. It never fails.
func (g *RuleBasedGenerator) Generate(_ context.Context, data *analytics.TradingData) ([]models.Insight, error) {
	var batch []models.Insight

	if insight, ok := overallPerformance(data); ok {
		batch = append(batch, insight)
	}
	if insight, ok := setupStandout(data.SetupStats); ok {
		batch = append(batch, insight)
	}
	if insight, ok := emotionStandout(data.EmotionStats); ok {
		batch = append(batch, insight)
	}
	if insight, ok := confidenceCalibration(data.ConfidenceStats); ok {
		batch = append(batch, insight)
	}
	if insight, ok := winRateInsight(data.WinRate); ok {
		batch = append(batch, insight)
	}
	if insight, ok := g.positionSizing(data); ok {
		batch = append(batch, insight)
	}

	if len(batch) == 0 {
		batch = append(batch, models.Insight{
			Type:  models.InsightTypeRecommendation,
			Title: "Building Your Trading Foundation",
			Content: "Continue logging trades consistently to build a robust dataset. " +
				"The more data you provide, the more specific and actionable insights I can generate about your trading patterns and performance.",
			Severity: models.SeverityInfo,
		})
	}

	return batch, nil
}

func overallPerformance(data *analytics.TradingData) (models.Insight, bool) {
	if data.ClosedTrades == 0 {
		return models.Insight{}, false
	}

	profitable := data.TotalPL > 0
	title := "Performance Review Needed"
	severity := models.SeverityWarning
	advice := "Focus on refining your entry criteria and risk management to improve profitability."
	if profitable {
		title = "Strong Trading Performance"
		severity = models.SeveritySuccess
		advice = "Your consistent profitability shows good discipline and strategy execution."
	}

	return models.Insight{
		Type:  models.InsightTypePerformance,
		Title: title,
		Content: fmt.Sprintf("You've completed %d trades with a %s%% win rate, generating $%s in total P/L. %s",
			data.ClosedTrades, fmtNum(data.WinRate), fmtNum(data.TotalPL), advice),
		Severity: severity,
	}, true
}

func setupStandout(stats map[string]analytics.CategoryStats) (models.Insight, bool) {
	best, worst, ok := bestAndWorst(stats)
	if !ok {
		return models.Insight{}, false
	}

	return models.Insight{
		Type:  models.InsightTypePattern,
		Title: "Setup Performance Standouts",
		Content: fmt.Sprintf("Your %q setups are your strongest performers with $%s P/L and a %s%% win rate. "+
			"Consider allocating more capital to this strategy while reviewing your %q approach which has generated $%s P/L.",
			best, fmtNum(stats[best].TotalPL), fmtNum(stats[best].WinRate), worst, fmtNum(stats[worst].TotalPL)),
		Severity: models.SeverityInfo,
	}, true
}

func emotionStandout(stats map[string]analytics.CategoryStats) (models.Insight, bool) {
	best, worst, ok := bestAndWorst(stats)
	if !ok {
		return models.Insight{}, false
	}

	return models.Insight{
		Type:  models.InsightTypePattern,
		Title: "Emotional Trading Patterns",
		Content: fmt.Sprintf("You trade most effectively when feeling %q (generating $%s P/L), but struggle when %q ($%s P/L). "+
			"Consider implementing a pre-trade emotional check-in to optimize your trading state.",
			best, fmtNum(stats[best].TotalPL), worst, fmtNum(stats[worst].TotalPL)),
		Severity: models.SeverityInfo,
	}, true
}

// bestAndWorst picks the groups with the maximum and minimum total P/L.
// Requires at least two distinct groups. Equal best and worst totals suppress
// the result entirely: standouts are only reported on strict inequality.
// Keys are scanned in sorted order so ties between intermediate groups
// resolve the same way every run.
func bestAndWorst(stats map[string]analytics.CategoryStats) (best, worst string, ok bool) {
	if len(stats) < 2 {
		return "", "", false
	}

	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	best, worst = keys[0], keys[0]
	for _, key := range keys[1:] {
		if stats[key].TotalPL > stats[best].TotalPL {
			best = key
		}
		if stats[key].TotalPL < stats[worst].TotalPL {
			worst = key
		}
	}

	if stats[best].TotalPL == stats[worst].TotalPL {
		return "", "", false
	}
	return best, worst, true
}

func confidenceCalibration(stats map[int]analytics.CategoryStats) (models.Insight, bool) {
	if len(stats) < 2 {
		return models.Insight{}, false
	}

	var highPL, lowPL float64
	var hasHigh, hasLow bool
	for level, s := range stats {
		switch {
		case level >= 4:
			highPL += s.TotalPL
			hasHigh = true
		case level <= 2:
			lowPL += s.TotalPL
			hasLow = true
		}
	}
	if !hasHigh || !hasLow {
		return models.Insight{}, false
	}

	calibrated := highPL > lowPL
	status := "needs adjustment"
	severity := models.SeverityWarning
	advice := "Your confidence assessment may need refinement - analyze what makes you confident versus what actually works."
	if calibrated {
		status = "well-calibrated"
		severity = models.SeveritySuccess
		advice = "Your confidence levels align well with outcomes - trust your high-confidence setups."
	}

	return models.Insight{
		Type:  models.InsightTypeRisk,
		Title: "Confidence Calibration Analysis",
		Content: fmt.Sprintf("Your high-confidence trades (4-5) generated $%s P/L while low-confidence trades (1-2) generated $%s P/L. "+
			"Your confidence appears %s. %s",
			fmtNum(analytics.Round2(highPL)), fmtNum(analytics.Round2(lowPL)), status, advice),
		Severity: severity,
	}, true
}

// winRateInsight fires outside the unremarkable 40-70 band only
func winRateInsight(winRate float64) (models.Insight, bool) {
	switch {
	case winRate < 40:
		return models.Insight{
			Type:  models.InsightTypeRecommendation,
			Title: "Win Rate Enhancement Opportunity",
			Content: fmt.Sprintf("Your %s%% win rate suggests room for improvement in trade selection. "+
				"Focus on waiting for higher-probability setups, tightening your entry criteria, and consider paper trading new strategies before implementing them with real capital.",
				fmtNum(winRate)),
			Severity: models.SeverityWarning,
		}, true
	case winRate > 70:
		return models.Insight{
			Type:  models.InsightTypeRecommendation,
			Title: "Excellent Win Rate Achievement",
			Content: fmt.Sprintf("Your impressive %s%% win rate demonstrates strong trade selection skills. "+
				"Ensure you're maximizing this edge by letting winners run longer and not cutting profits too early - your high accuracy suggests you can afford to be more aggressive with profit targets.",
				fmtNum(winRate)),
			Severity: models.SeveritySuccess,
		}, true
	default:
		return models.Insight{}, false
	}
}

func (g *RuleBasedGenerator) positionSizing(data *analytics.TradingData) (models.Insight, bool) {
	if data.TotalTrades < minTradesForSizing || data.ClosedTrades == 0 {
		return models.Insight{}, false
	}

	avgPL := data.TotalPL / float64(data.ClosedTrades)
	if math.Abs(avgPL) <= data.AvgTradeSize*g.positionSizingThreshold {
		return models.Insight{}, false
	}

	positive := avgPL > 0
	quality := "concerning"
	severity := models.SeverityWarning
	advice := "Review your stop-loss levels and consider reducing position sizes until consistency improves."
	if positive {
		quality = "good"
		severity = models.SeveritySuccess
		advice = "Consider gradually increasing position sizes on your best setups."
	}

	return models.Insight{
		Type:  models.InsightTypeRisk,
		Title: "Position Sizing Consideration",
		Content: fmt.Sprintf("With an average P/L of $%s per trade and average position size of %s shares, your risk-reward profile shows %s results. %s",
			fmtNum(analytics.Round2(avgPL)), fmtNum(data.AvgTradeSize), quality, advice),
		Severity: severity,
	}, true
}

// fmtNum renders a pre-rounded value without trailing zeros (75 not 75.0)
func fmtNum(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
