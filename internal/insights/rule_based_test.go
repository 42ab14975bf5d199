package insights

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/Oliverpt-1/Thymos/internal/analytics"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

func titles(batch []models.Insight) []string {
	out := make([]string, 0, len(batch))
	for _, insight := range batch {
		out = append(out, insight.Title)
	}
	return out
}

func findByTitle(t *testing.T, batch []models.Insight, title string) models.Insight {
	t.Helper()
	for _, insight := range batch {
		if insight.Title == title {
			return insight
		}
	}
	t.Fatalf("no insight titled %q in %v", title, titles(batch))
	return models.Insight{}
}

func hasTitle(batch []models.Insight, title string) bool {
	for _, insight := range batch {
		if insight.Title == title {
			return true
		}
	}
	return false
}

func TestRuleBasedStrongProfitableJournal(t *testing.T) {
	data := &analytics.TradingData{
		TotalTrades:  10,
		ClosedTrades: 10,
		WinRate:      75,
		TotalPL:      500,
		AvgTradeSize: 100,
	}

	batch, err := NewRuleBasedGenerator(0).Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("rule-based generation failed: %v", err)
	}

	perf := findByTitle(t, batch, "Strong Trading Performance")
	if perf.Severity != models.SeveritySuccess || perf.Type != models.InsightTypePerformance {
		t.Errorf("unexpected performance insight: %+v", perf)
	}
	if !strings.Contains(perf.Content, "10 trades") || !strings.Contains(perf.Content, "75% win rate") {
		t.Errorf("performance content missing the stats: %q", perf.Content)
	}

	win := findByTitle(t, batch, "Excellent Win Rate Achievement")
	if win.Severity != models.SeveritySuccess {
		t.Errorf("expected success severity on win-rate insight, got %q", win.Severity)
	}

	if hasTitle(batch, "Win Rate Enhancement Opportunity") {
		t.Errorf("enhancement insight fired on a 75%% win rate: %v", titles(batch))
	}
	if hasTitle(batch, "Building Your Trading Foundation") {
		t.Errorf("fallback fired alongside real insights: %v", titles(batch))
	}
}

func TestRuleBasedLosingJournal(t *testing.T) {
	data := &analytics.TradingData{
		TotalTrades:  10,
		ClosedTrades: 10,
		WinRate:      20,
		TotalPL:      -300,
		AvgTradeSize: 1000,
	}

	batch, _ := NewRuleBasedGenerator(0).Generate(context.Background(), data)

	perf := findByTitle(t, batch, "Performance Review Needed")
	if perf.Severity != models.SeverityWarning {
		t.Errorf("expected warning severity, got %q", perf.Severity)
	}
	if !strings.Contains(perf.Content, "$-300") {
		t.Errorf("expected negative total P/L in content: %q", perf.Content)
	}

	win := findByTitle(t, batch, "Win Rate Enhancement Opportunity")
	if win.Severity != models.SeverityWarning {
		t.Errorf("expected warning severity on win-rate insight, got %q", win.Severity)
	}
	if hasTitle(batch, "Excellent Win Rate Achievement") {
		t.Errorf("achievement insight fired on a 20%% win rate")
	}
}

func TestRuleBasedWinRateBandBoundaries(t *testing.T) {
	if _, ok := winRateInsight(40); ok {
		t.Errorf("win rate 40 should be inside the quiet band")
	}
	if _, ok := winRateInsight(70); ok {
		t.Errorf("win rate 70 should be inside the quiet band")
	}
	if _, ok := winRateInsight(39.9); !ok {
		t.Errorf("win rate 39.9 should trigger the enhancement insight")
	}
	if _, ok := winRateInsight(70.1); !ok {
		t.Errorf("win rate 70.1 should trigger the achievement insight")
	}
}

// Equal best and worst totals mean there is no standout to report
func TestRuleBasedStandoutSuppressedOnTie(t *testing.T) {
	stats := map[string]analytics.CategoryStats{
		"Breakout": {Count: 3, Wins: 2, TotalPL: 100, WinRate: 66.7},
		"Pullback": {Count: 2, Wins: 1, TotalPL: 100, WinRate: 50},
	}
	if _, ok := setupStandout(stats); ok {
		t.Errorf("standout fired with identical group totals")
	}
}

func TestRuleBasedStandoutNeedsTwoGroups(t *testing.T) {
	stats := map[string]analytics.CategoryStats{
		"Breakout": {Count: 5, Wins: 4, TotalPL: 250, WinRate: 80},
	}
	if _, ok := setupStandout(stats); ok {
		t.Errorf("standout fired with a single group")
	}
}

func TestRuleBasedSetupStandoutContent(t *testing.T) {
	stats := map[string]analytics.CategoryStats{
		"Breakout": {Count: 4, Wins: 3, TotalPL: 400, WinRate: 75},
		"Pullback": {Count: 4, Wins: 1, TotalPL: -150, WinRate: 25},
	}

	insight, ok := setupStandout(stats)
	if !ok {
		t.Fatal("expected a setup standout insight")
	}
	if !strings.Contains(insight.Content, `"Breakout"`) || !strings.Contains(insight.Content, `"Pullback"`) {
		t.Errorf("standout content missing group names: %q", insight.Content)
	}
	if !strings.Contains(insight.Content, "$400") || !strings.Contains(insight.Content, "$-150") {
		t.Errorf("standout content missing totals: %q", insight.Content)
	}
}

func TestRuleBasedConfidenceCalibration(t *testing.T) {
	calibrated := map[int]analytics.CategoryStats{
		5: {Count: 3, TotalPL: 300},
		1: {Count: 3, TotalPL: -50},
	}
	insight, ok := confidenceCalibration(calibrated)
	if !ok {
		t.Fatal("expected a calibration insight")
	}
	if insight.Severity != models.SeveritySuccess || !strings.Contains(insight.Content, "well-calibrated") {
		t.Errorf("expected well-calibrated success insight: %+v", insight)
	}

	inverted := map[int]analytics.CategoryStats{
		4: {Count: 3, TotalPL: -200},
		2: {Count: 3, TotalPL: 100},
	}
	insight, ok = confidenceCalibration(inverted)
	if !ok {
		t.Fatal("expected a calibration insight")
	}
	if insight.Severity != models.SeverityWarning || !strings.Contains(insight.Content, "needs adjustment") {
		t.Errorf("expected needs-adjustment warning insight: %+v", insight)
	}

	// Only mid-band confidence levels: nothing to compare
	midOnly := map[int]analytics.CategoryStats{
		3: {Count: 5, TotalPL: 100},
		4: {Count: 2, TotalPL: 50},
	}
	if _, ok := confidenceCalibration(midOnly); ok {
		t.Errorf("calibration fired without both high and low confidence groups")
	}
}

func TestRuleBasedPositionSizing(t *testing.T) {
	g := NewRuleBasedGenerator(0)

	// avg P/L 50 per trade against avg size 100: well above the 10% threshold
	loud := &analytics.TradingData{TotalTrades: 10, ClosedTrades: 10, TotalPL: 500, AvgTradeSize: 100}
	insight, ok := g.positionSizing(loud)
	if !ok {
		t.Fatal("expected a position sizing insight")
	}
	if insight.Severity != models.SeveritySuccess {
		t.Errorf("expected success severity for positive average P/L, got %q", insight.Severity)
	}

	// avg P/L 5 against avg size 100 sits exactly on the 10% threshold,
	// which does not fire (strict inequality)
	quiet := &analytics.TradingData{TotalTrades: 10, ClosedTrades: 10, TotalPL: 50, AvgTradeSize: 100}
	if _, ok := g.positionSizing(quiet); ok {
		t.Errorf("sizing insight fired at the threshold boundary")
	}

	shallow := &analytics.TradingData{TotalTrades: 4, ClosedTrades: 4, TotalPL: 400, AvgTradeSize: 100}
	if _, ok := g.positionSizing(shallow); ok {
		t.Errorf("sizing insight fired below the minimum journal depth")
	}
}

// A journal that trips no rule still yields exactly one guidance insight
func TestRuleBasedFallback(t *testing.T) {
	data := &analytics.TradingData{
		TotalTrades: 2,
		WinRate:     50,
	}

	batch, _ := NewRuleBasedGenerator(0).Generate(context.Background(), data)
	if len(batch) != 1 {
		t.Fatalf("expected exactly one fallback insight, got %v", titles(batch))
	}
	if batch[0].Title != "Building Your Trading Foundation" {
		t.Errorf("unexpected fallback title %q", batch[0].Title)
	}
	if batch[0].Severity != models.SeverityInfo || batch[0].Type != models.InsightTypeRecommendation {
		t.Errorf("unexpected fallback shape: %+v", batch[0])
	}
}

func TestRuleBasedDeterministic(t *testing.T) {
	data := &analytics.TradingData{
		TotalTrades:  12,
		ClosedTrades: 10,
		WinRate:      30,
		TotalPL:      -420.5,
		AvgTradeSize: 75.25,
		SetupStats: map[string]analytics.CategoryStats{
			"Breakout":    {Count: 4, Wins: 2, TotalPL: 120, WinRate: 50},
			"Pullback":    {Count: 3, Wins: 0, TotalPL: -380, WinRate: 0},
			"unspecified": {Count: 3, Wins: 1, TotalPL: -160.5, WinRate: 33.3},
		},
		EmotionStats: map[string]analytics.CategoryStats{
			"Calm":      {Count: 5, Wins: 3, TotalPL: 90, WinRate: 60},
			"Impulsive": {Count: 5, Wins: 0, TotalPL: -510.5, WinRate: 0},
		},
		ConfidenceStats: map[int]analytics.CategoryStats{
			2: {Count: 5, TotalPL: -300},
			4: {Count: 5, TotalPL: -120.5},
		},
	}

	g := NewRuleBasedGenerator(0)
	first, _ := g.Generate(context.Background(), data)
	for i := 0; i < 10; i++ {
		again, _ := g.Generate(context.Background(), data)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("generation is not deterministic:\nfirst: %v\nagain: %v", first, again)
		}
	}
}
