// Package analytics turns a trader's journal into the statistical summaries
// that drive insight generation.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Oliverpt-1/Thymos/internal/models"
)

// CategoryStats holds per-group statistics over closed trades
type CategoryStats struct {
	Count   int     `json:"count"`
	Wins    int     `json:"wins"`
	TotalPL float64 `json:"totalPL"`
	WinRate float64 `json:"winRate"`
}

// TradeSummary is a compact view of a single trade embedded in prompts
type TradeSummary struct {
	Ticker     string   `json:"ticker"`
	Setup      string   `json:"setup"`
	Emotion    string   `json:"emotion"`
	Confidence int      `json:"confidence"`
	ProfitLoss *float64 `json:"pl"`
}

// TradingData is the aggregate statistics object for one owner's journal.
// It is ephemeral: recomputed on every insight-generation request, never
// persisted.
type TradingData struct {
	TotalTrades     int                       `json:"totalTrades"`
	ClosedTrades    int                       `json:"totalClosedTrades"`
	WinRate         float64                   `json:"winRate"`
	TotalPL         float64                   `json:"totalPL"`
	AvgTradeSize    float64                   `json:"avgTradeSize"`
	SetupStats      map[string]CategoryStats  `json:"setupAnalysis"`
	EmotionStats    map[string]CategoryStats  `json:"emotionAnalysis"`
	ConfidenceStats map[int]CategoryStats     `json:"confidenceAnalysis"`
	Recent          []TradeSummary            `json:"recentTrades"`
}

// Aggregate computes statistics over one owner's trades. Callers pass trades
// ordered by trade date ascending; the totals themselves do not depend on
// ordering because profit/loss is summed with exact decimal arithmetic.
// Zero trades is the caller's problem: the request handler rejects empty
// journals before aggregation runs.
func Aggregate(trades []*models.Trade) *TradingData {
	data := &TradingData{
		TotalTrades:     len(trades),
		SetupStats:      make(map[string]CategoryStats),
		EmotionStats:    make(map[string]CategoryStats),
		ConfidenceStats: make(map[int]CategoryStats),
	}

	totalPL := decimal.Zero
	totalSize := decimal.Zero
	wins := 0

	setupPL := make(map[string]decimal.Decimal)
	emotionPL := make(map[string]decimal.Decimal)
	confidencePL := make(map[int]decimal.Decimal)

	for _, t := range trades {
		totalSize = totalSize.Add(decimal.NewFromFloat(t.Size))

		if !t.IsClosed() {
			continue
		}
		data.ClosedTrades++

		pl := tradePL(t)
		totalPL = totalPL.Add(pl)
		won := pl.IsPositive()
		if won {
			wins++
		}

		setup := models.NormalizeTag(t.SetupTag)
		s := data.SetupStats[setup]
		s.Count++
		if won {
			s.Wins++
		}
		data.SetupStats[setup] = s
		setupPL[setup] = setupPL[setup].Add(pl)

		emotion := models.NormalizeTag(t.EmotionTag)
		e := data.EmotionStats[emotion]
		e.Count++
		if won {
			e.Wins++
		}
		data.EmotionStats[emotion] = e
		emotionPL[emotion] = emotionPL[emotion].Add(pl)

		c := data.ConfidenceStats[t.Confidence]
		c.Count++
		if won {
			c.Wins++
		}
		data.ConfidenceStats[t.Confidence] = c
		confidencePL[t.Confidence] = confidencePL[t.Confidence].Add(pl)
	}

	if data.ClosedTrades > 0 {
		data.WinRate = Round1(float64(wins) / float64(data.ClosedTrades) * 100)
	}
	data.TotalPL = roundDecimal2(totalPL)
	if data.TotalTrades > 0 {
		avg, _ := totalSize.Div(decimal.NewFromInt(int64(data.TotalTrades))).Round(2).Float64()
		data.AvgTradeSize = avg
	}

	for key, stats := range data.SetupStats {
		stats.TotalPL = roundDecimal2(setupPL[key])
		stats.WinRate = groupWinRate(stats.Wins, stats.Count)
		data.SetupStats[key] = stats
	}
	for key, stats := range data.EmotionStats {
		stats.TotalPL = roundDecimal2(emotionPL[key])
		stats.WinRate = groupWinRate(stats.Wins, stats.Count)
		data.EmotionStats[key] = stats
	}
	for key, stats := range data.ConfidenceStats {
		stats.TotalPL = roundDecimal2(confidencePL[key])
		stats.WinRate = groupWinRate(stats.Wins, stats.Count)
		data.ConfidenceStats[key] = stats
	}

	data.Recent = recentTrades(trades, 10)

	return data
}

// tradePL computes (exit - entry) * size as an exact decimal. Only valid for
// closed trades.
func tradePL(t *models.Trade) decimal.Decimal {
	exit := decimal.NewFromFloat(*t.ExitPrice)
	entry := decimal.NewFromFloat(t.EntryPrice)
	size := decimal.NewFromFloat(t.Size)
	return exit.Sub(entry).Mul(size)
}

// groupWinRate returns wins/count as a percentage rounded to one decimal
func groupWinRate(wins, count int) float64 {
	if count == 0 {
		return 0
	}
	return Round1(float64(wins) / float64(count) * 100)
}

// recentTrades summarizes the trailing n trades for prompt construction
func recentTrades(trades []*models.Trade, n int) []TradeSummary {
	start := 0
	if len(trades) > n {
		start = len(trades) - n
	}

	summaries := make([]TradeSummary, 0, len(trades)-start)
	for _, t := range trades[start:] {
		summary := TradeSummary{
			Ticker:     t.Ticker,
			Setup:      models.NormalizeTag(t.SetupTag),
			Emotion:    models.NormalizeTag(t.EmotionTag),
			Confidence: t.Confidence,
		}
		if t.IsClosed() {
			pl := roundDecimal2(tradePL(t))
			summary.ProfitLoss = &pl
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Round1 rounds to one decimal place
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Round2 rounds to two decimal places
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func roundDecimal2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
