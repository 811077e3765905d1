package domain

import (
	"encoding/json"
	"math"
	"time"
)

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Sign is +1 for BUY and -1 for SELL.
func (s TradeSide) Sign() int64 {
	if s == TradeSideSell {
		return -1
	}
	return 1
}

type PositionDirection string

const (
	DirectionLong  PositionDirection = "LONG"
	DirectionShort PositionDirection = "SHORT"
)

type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

// Trade is a single simulated execution. Immutable once appended to the
// session trade log. PnL is set only when the trade closes or reduces an
// existing position.
type Trade struct {
	ID         string    `json:"id"`
	Timestamp  int64     `json:"timestamp"`
	Side       TradeSide `json:"side"`
	Price      float64   `json:"price"`
	Quantity   int64     `json:"quantity"`
	Instrument string    `json:"instrument"`
	PnL        *float64  `json:"pnl,omitempty"`
}

// Position is the single running position of a session. Quantity is signed:
// positive = long, negative = short, zero = flat. AveragePrice is the cost
// basis of the open side and is reset to zero whenever the position
// flattens.
type Position struct {
	Instrument   string  `json:"instrument"`
	Quantity     int64   `json:"quantity"`
	AveragePrice float64 `json:"averagePrice"`
	RealizedPnL  float64 `json:"realizedPnL"`
}

func (p Position) Flat() bool {
	return p.Quantity == 0
}

func (p Position) Direction() PositionDirection {
	if p.Quantity < 0 {
		return DirectionShort
	}
	return DirectionLong
}

// GroupedPosition is a flat-to-flat replay unit reconstructed from the
// trade log for history display. Never persisted independently.
type GroupedPosition struct {
	ID                string            `json:"id"`
	Direction         PositionDirection `json:"direction"`
	Status            PositionStatus    `json:"status"`
	Instrument        string            `json:"instrument"`
	EntryTime         int64             `json:"entryTime"`
	ExitTime          int64             `json:"exitTime,omitempty"`
	AvgEntryPrice     float64           `json:"avgEntryPrice"`
	AvgExitPrice      float64           `json:"avgExitPrice,omitempty"`
	TotalQuantity     int64             `json:"totalQuantity"`
	RemainingQuantity int64             `json:"remainingQuantity"`
	RealizedPnL       float64           `json:"realizedPnL"`
	Executions        []Trade           `json:"executions"`
	DurationMinutes   float64           `json:"durationMinutes,omitempty"`
}

type DirectionBreakdown struct {
	Count int     `json:"count"`
	PnL   float64 `json:"pnl"`
}

// PerformanceSummary aggregates closed grouped positions.
type PerformanceSummary struct {
	TotalTrades   int                `json:"totalTrades"`
	WinningTrades int                `json:"winningTrades"`
	LosingTrades  int                `json:"losingTrades"`
	WinRate       float64            `json:"winRate"`
	TotalPnL      float64            `json:"totalPnL"`
	AvgWin        float64            `json:"avgWin"`
	AvgLoss       float64            `json:"avgLoss"`
	ProfitFactor  float64            `json:"profitFactor"`
	Longs         DirectionBreakdown `json:"longs"`
	Shorts        DirectionBreakdown `json:"shorts"`
}

// MarshalJSON serializes an infinite profit factor as null; the standard
// encoder rejects IEEE infinities outright.
func (s PerformanceSummary) MarshalJSON() ([]byte, error) {
	type alias PerformanceSummary
	out := struct {
		alias
		ProfitFactor *float64 `json:"profitFactor"`
	}{alias: alias(s)}
	if !math.IsInf(s.ProfitFactor, 0) {
		out.ProfitFactor = &s.ProfitFactor
	}
	return json.Marshal(out)
}

// SessionSnapshot is the atomic persistence unit for a session: config,
// trade log, position, cursor, and the committed drawing set as an opaque
// blob. Restore replaces the whole session state, no partial merge.
type SessionSnapshot struct {
	ID           string    `json:"id"`
	Instrument   string    `json:"instrument"`
	Interval     string    `json:"interval"`
	CurrentIndex int       `json:"currentIndex"`
	Speed        float64   `json:"speed"`
	Trades       []Trade   `json:"trades"`
	Position     *Position `json:"position,omitempty"`
	Drawings     []byte    `json:"drawings,omitempty"`
	SavedAt      time.Time `json:"savedAt"`
}
