package analytics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Oliverpt-1/Thymos/internal/models"
)

func closedTrade(entry, exit, size float64, setup, emotion string, confidence int) *models.Trade {
	return &models.Trade{
		ID:         uuid.New(),
		Owner:      "user-1",
		Ticker:     "AAPL",
		EntryPrice: entry,
		ExitPrice:  &exit,
		Size:       size,
		Confidence: confidence,
		SetupTag:   setup,
		EmotionTag: emotion,
		TradeDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func openTrade(entry, size float64) *models.Trade {
	return &models.Trade{
		ID:         uuid.New(),
		Owner:      "user-1",
		Ticker:     "TSLA",
		EntryPrice: entry,
		Size:       size,
		Confidence: 3,
		TradeDate:  time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestAggregateBasicMetrics(t *testing.T) {
	trades := []*models.Trade{
		closedTrade(100, 110, 10, "Breakout", "Calm", 4),    // +100
		closedTrade(50, 45, 20, "Pullback", "Fearful", 2),   // -100
		closedTrade(200, 210, 5, "Breakout", "Calm", 5),     // +50
		openTrade(75, 15),
	}

	data := Aggregate(trades)

	if data.TotalTrades != 4 {
		t.Errorf("expected 4 total trades, got %d", data.TotalTrades)
	}
	if data.ClosedTrades != 3 {
		t.Errorf("expected 3 closed trades, got %d", data.ClosedTrades)
	}
	if data.WinRate != 66.7 {
		t.Errorf("expected win rate 66.7, got %v", data.WinRate)
	}
	if data.TotalPL != 50 {
		t.Errorf("expected total P/L 50, got %v", data.TotalPL)
	}
	// (10+20+5+15)/4 = 12.5
	if data.AvgTradeSize != 12.5 {
		t.Errorf("expected avg trade size 12.5, got %v", data.AvgTradeSize)
	}
}

func TestAggregateWinRateBounds(t *testing.T) {
	trades := []*models.Trade{
		closedTrade(10, 20, 1, "Breakout", "Calm", 3),
		closedTrade(10, 30, 1, "Breakout", "Calm", 3),
	}

	data := Aggregate(trades)
	if data.WinRate < 0 || data.WinRate > 100 {
		t.Fatalf("win rate out of bounds: %v", data.WinRate)
	}
	if data.WinRate != 100 {
		t.Errorf("expected win rate 100, got %v", data.WinRate)
	}
}

func TestAggregateZeroClosedTrades(t *testing.T) {
	trades := []*models.Trade{openTrade(100, 10), openTrade(50, 5)}

	data := Aggregate(trades)
	if data.WinRate != 0 {
		t.Errorf("expected win rate 0 with no closed trades, got %v", data.WinRate)
	}
	if data.TotalPL != 0 {
		t.Errorf("expected total P/L 0 with no closed trades, got %v", data.TotalPL)
	}
	if data.ClosedTrades != 0 {
		t.Errorf("expected 0 closed trades, got %d", data.ClosedTrades)
	}
	if data.AvgTradeSize != 7.5 {
		t.Errorf("expected avg size over all trades 7.5, got %v", data.AvgTradeSize)
	}
}

// Total P/L must not depend on summation order: the aggregator sums with
// exact decimal arithmetic, so any permutation yields the same rounded total.
func TestAggregateOrderIndependence(t *testing.T) {
	trades := []*models.Trade{
		closedTrade(10.01, 10.04, 3333.33, "Breakout", "Calm", 3),
		closedTrade(99.99, 99.90, 777.77, "Pullback", "Nervous", 2),
		closedTrade(0.10, 0.13, 100000, "Earnings", "Greedy", 5),
		closedTrade(55.55, 55.54, 123.45, "Other", "Calm", 1),
		closedTrade(12.34, 12.36, 4567.89, "Breakout", "Excited", 4),
	}

	expected := Aggregate(trades).TotalPL

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]*models.Trade, len(trades))
		copy(shuffled, trades)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		if got := Aggregate(shuffled).TotalPL; got != expected {
			t.Fatalf("total P/L depends on ordering: %v != %v", got, expected)
		}
	}
}

func TestAggregateCategoryGrouping(t *testing.T) {
	trades := []*models.Trade{
		closedTrade(100, 110, 10, "Breakout", "Calm", 4),  // +100 win
		closedTrade(100, 90, 10, "Breakout", "Fearful", 4), // -100 loss
		closedTrade(100, 105, 10, "Pullback", "Calm", 2),   // +50 win
	}

	data := Aggregate(trades)

	breakout := data.SetupStats["Breakout"]
	if breakout.Count != 2 || breakout.Wins != 1 {
		t.Errorf("expected Breakout count=2 wins=1, got count=%d wins=%d", breakout.Count, breakout.Wins)
	}
	if breakout.TotalPL != 0 {
		t.Errorf("expected Breakout total P/L 0, got %v", breakout.TotalPL)
	}
	if breakout.WinRate != 50 {
		t.Errorf("expected Breakout win rate 50, got %v", breakout.WinRate)
	}

	calm := data.EmotionStats["Calm"]
	if calm.Count != 2 || calm.Wins != 2 || calm.TotalPL != 150 {
		t.Errorf("unexpected Calm stats: %+v", calm)
	}

	conf4 := data.ConfidenceStats[4]
	if conf4.Count != 2 || conf4.Wins != 1 {
		t.Errorf("unexpected confidence-4 stats: %+v", conf4)
	}
}

// Empty tags land in their own bucket rather than merging into a real category
func TestAggregateUnspecifiedTagBucket(t *testing.T) {
	trades := []*models.Trade{
		closedTrade(100, 110, 10, "", "", 3),
		closedTrade(100, 120, 10, "Breakout", "Calm", 3),
	}

	data := Aggregate(trades)

	if _, ok := data.SetupStats[models.TagUnspecified]; !ok {
		t.Fatalf("expected an %q setup bucket, got %v", models.TagUnspecified, data.SetupStats)
	}
	if data.SetupStats["Breakout"].Count != 1 {
		t.Errorf("untagged trade leaked into the Breakout bucket: %+v", data.SetupStats)
	}
}

func TestAggregateRecentTradesCap(t *testing.T) {
	var trades []*models.Trade
	for i := 0; i < 15; i++ {
		trades = append(trades, closedTrade(100, 101, 1, "Breakout", "Calm", 3))
	}

	data := Aggregate(trades)
	if len(data.Recent) != 10 {
		t.Fatalf("expected 10 recent trades, got %d", len(data.Recent))
	}
	if data.Recent[0].ProfitLoss == nil || *data.Recent[0].ProfitLoss != 1 {
		t.Errorf("unexpected recent trade P/L: %+v", data.Recent[0])
	}
}

func TestAggregateOpenTradeHasNilRecentPL(t *testing.T) {
	data := Aggregate([]*models.Trade{openTrade(100, 10)})
	if len(data.Recent) != 1 {
		t.Fatalf("expected 1 recent trade, got %d", len(data.Recent))
	}
	if data.Recent[0].ProfitLoss != nil {
		t.Errorf("expected nil P/L for open trade, got %v", *data.Recent[0].ProfitLoss)
	}
}
