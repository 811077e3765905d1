package usecase

import (
	"encoding/json"
	"math"
	"testing"

	"backtest_server/internal/domain"
)

func trade(id string, ts int64, side domain.TradeSide, price float64, qty int64) domain.Trade {
	return domain.Trade{ID: id, Timestamp: ts, Side: side, Price: price, Quantity: qty, Instrument: "NIFTY"}
}

func TestGroupSimpleRoundTrip(t *testing.T) {
	trades := []domain.Trade{
		trade("t1", 1000, domain.TradeSideBuy, 100, 10),
		trade("t2", 1600, domain.TradeSideSell, 110, 10),
	}

	groups := GroupTradesIntoPositions(trades)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	g := groups[0]
	if g.Status != domain.PositionStatusClosed {
		t.Fatalf("expected closed group")
	}
	if g.Direction != domain.DirectionLong {
		t.Fatalf("expected long group")
	}
	if g.RealizedPnL != 100 {
		t.Fatalf("expected pnl 100, got %f", g.RealizedPnL)
	}
	if g.AvgEntryPrice != 100 || g.AvgExitPrice != 110 {
		t.Fatalf("unexpected prices %f/%f", g.AvgEntryPrice, g.AvgExitPrice)
	}
	if g.DurationMinutes != 10 {
		t.Fatalf("expected 10 minutes, got %f", g.DurationMinutes)
	}
	if len(g.Executions) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(g.Executions))
	}
	if g.Executions[1].PnL == nil || *g.Executions[1].PnL != 100 {
		t.Fatalf("closing execution carries its pnl")
	}
}

func TestGroupScaleInReweightsEntry(t *testing.T) {
	trades := []domain.Trade{
		trade("t1", 1000, domain.TradeSideBuy, 100, 10),
		trade("t2", 1300, domain.TradeSideBuy, 110, 10),
		trade("t3", 1600, domain.TradeSideSell, 120, 20),
	}

	groups := GroupTradesIntoPositions(trades)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.AvgEntryPrice != 105 {
		t.Fatalf("expected weighted entry 105, got %f", g.AvgEntryPrice)
	}
	if g.TotalQuantity != 20 || g.RemainingQuantity != 0 {
		t.Fatalf("unexpected quantities %d/%d", g.TotalQuantity, g.RemainingQuantity)
	}
	if g.RealizedPnL != 300 {
		t.Fatalf("expected pnl 300, got %f", g.RealizedPnL)
	}
}

func TestGroupFlipSplitsExecution(t *testing.T) {
	trades := []domain.Trade{
		trade("t1", 1000, domain.TradeSideBuy, 100, 10),
		trade("t2", 1600, domain.TradeSideSell, 90, 15),
	}

	groups := GroupTradesIntoPositions(trades)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	// Most recent first: the flipped short leads.
	short := groups[0]
	long := groups[1]

	if short.Direction != domain.DirectionShort || short.Status != domain.PositionStatusOpen {
		t.Fatalf("expected open short, got %+v", short)
	}
	if short.TotalQuantity != 5 || short.AvgEntryPrice != 90 {
		t.Fatalf("flip opens 5 at 90, got %d at %f", short.TotalQuantity, short.AvgEntryPrice)
	}
	if len(short.Executions) != 1 || short.Executions[0].Quantity != 5 || short.Executions[0].PnL != nil {
		t.Fatalf("opening execution must be the 5-lot remainder with no pnl")
	}

	if long.Status != domain.PositionStatusClosed || long.RealizedPnL != -100 {
		t.Fatalf("expected long closed at -100, got %+v", long)
	}
	closing := long.Executions[len(long.Executions)-1]
	if closing.Quantity != 10 || closing.PnL == nil || *closing.PnL != -100 {
		t.Fatalf("closing execution must be quantity-adjusted with pnl")
	}
}

func TestGroupShortRoundTrip(t *testing.T) {
	trades := []domain.Trade{
		trade("t1", 1000, domain.TradeSideSell, 100, 10),
		trade("t2", 1600, domain.TradeSideBuy, 95, 10),
	}

	groups := GroupTradesIntoPositions(trades)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Direction != domain.DirectionShort {
		t.Fatalf("expected short")
	}
	if groups[0].RealizedPnL != 50 {
		t.Fatalf("expected pnl 50, got %f", groups[0].RealizedPnL)
	}
}

func TestGroupTrailingOpenPosition(t *testing.T) {
	trades := []domain.Trade{
		trade("t1", 1000, domain.TradeSideBuy, 100, 10),
		trade("t2", 1600, domain.TradeSideSell, 110, 4),
	}

	groups := GroupTradesIntoPositions(trades)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Status != domain.PositionStatusOpen {
		t.Fatalf("partially closed group stays open")
	}
	if g.RemainingQuantity != 6 {
		t.Fatalf("expected 6 remaining, got %d", g.RemainingQuantity)
	}
	if g.RealizedPnL != 40 {
		t.Fatalf("expected pnl 40, got %f", g.RealizedPnL)
	}
	if g.DurationMinutes != 0 {
		t.Fatalf("open groups have no duration")
	}
}

func TestGroupEmptyLog(t *testing.T) {
	if groups := GroupTradesIntoPositions(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestPerformanceStats(t *testing.T) {
	groups := []domain.GroupedPosition{
		{Status: domain.PositionStatusClosed, Direction: domain.DirectionLong, RealizedPnL: 200},
		{Status: domain.PositionStatusClosed, Direction: domain.DirectionLong, RealizedPnL: -50},
		{Status: domain.PositionStatusClosed, Direction: domain.DirectionShort, RealizedPnL: 100},
		{Status: domain.PositionStatusOpen, Direction: domain.DirectionShort, RealizedPnL: 999},
	}

	s := CalculatePerformanceStats(groups)
	if s.TotalTrades != 3 {
		t.Fatalf("open groups are excluded, got %d", s.TotalTrades)
	}
	if s.WinningTrades != 2 || s.LosingTrades != 1 {
		t.Fatalf("unexpected win/loss split %d/%d", s.WinningTrades, s.LosingTrades)
	}
	if math.Abs(s.WinRate-200.0/3) > 1e-9 {
		t.Fatalf("unexpected win rate %f", s.WinRate)
	}
	if s.TotalPnL != 250 {
		t.Fatalf("unexpected total pnl %f", s.TotalPnL)
	}
	if s.AvgWin != 150 || s.AvgLoss != 50 {
		t.Fatalf("unexpected averages %f/%f", s.AvgWin, s.AvgLoss)
	}
	if s.ProfitFactor != 6 {
		t.Fatalf("unexpected profit factor %f", s.ProfitFactor)
	}
	if s.Longs.Count != 2 || s.Longs.PnL != 150 {
		t.Fatalf("unexpected longs %+v", s.Longs)
	}
	if s.Shorts.Count != 1 || s.Shorts.PnL != 100 {
		t.Fatalf("unexpected shorts %+v", s.Shorts)
	}
}

func TestPerformanceStatsEmpty(t *testing.T) {
	s := CalculatePerformanceStats(nil)
	if s.TotalTrades != 0 || s.WinRate != 0 || s.ProfitFactor != 0 {
		t.Fatalf("empty input yields zero summary, got %+v", s)
	}
}

func TestPerformanceStatsAllWins(t *testing.T) {
	groups := []domain.GroupedPosition{
		{Status: domain.PositionStatusClosed, Direction: domain.DirectionLong, RealizedPnL: 10},
	}
	s := CalculatePerformanceStats(groups)
	if !math.IsInf(s.ProfitFactor, 1) {
		t.Fatalf("expected +Inf profit factor, got %f", s.ProfitFactor)
	}
}

func TestPerformanceSummaryMarshalsInfiniteProfitFactor(t *testing.T) {
	// A single winning round trip yields an infinite profit factor, which
	// must still serialize at the API boundary.
	groups := GroupTradesIntoPositions([]domain.Trade{
		trade("t1", 1000, domain.TradeSideBuy, 100, 10),
		trade("t2", 1600, domain.TradeSideSell, 110, 10),
	})
	summary := CalculatePerformanceStats(groups)
	if !math.IsInf(summary.ProfitFactor, 1) {
		t.Fatalf("expected +Inf profit factor, got %f", summary.ProfitFactor)
	}

	blob, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(blob, &decoded); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	v, ok := decoded["profitFactor"]
	if !ok || v != nil {
		t.Fatalf("infinite profit factor must serialize as null, got %v", v)
	}
	if decoded["winRate"].(float64) != 100 {
		t.Fatalf("unexpected win rate %v", decoded["winRate"])
	}
}

func TestPerformanceSummaryMarshalsFiniteProfitFactor(t *testing.T) {
	summary := CalculatePerformanceStats([]domain.GroupedPosition{
		{Status: domain.PositionStatusClosed, Direction: domain.DirectionLong, RealizedPnL: 60},
		{Status: domain.PositionStatusClosed, Direction: domain.DirectionShort, RealizedPnL: -30},
	})

	blob, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(blob, &decoded); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if decoded["profitFactor"].(float64) != 2 {
		t.Fatalf("finite profit factor must serialize as a number, got %v", decoded["profitFactor"])
	}
}
