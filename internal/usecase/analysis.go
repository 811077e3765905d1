package usecase

import (
	"math"

	"backtest_server/internal/domain"
)

// GroupTradesIntoPositions replays the trade log from the start and folds
// contiguous same-direction exposure into discrete flat-to-flat positions.
// A trade that flips direction is split into two quantity-adjusted
// execution records: the closing portion finishes the old group, the
// opening portion seeds the new one. Output is most-recent-first.
func GroupTradesIntoPositions(trades []domain.Trade) []domain.GroupedPosition {
	var positions []domain.GroupedPosition
	var current *domain.GroupedPosition
	var running int64

	for _, trade := range trades {
		signed := trade.Quantity * trade.Side.Sign()

		if running == 0 {
			running = signed
			current = openGroup("pos-"+trade.ID, trade, trade.Quantity, trade)
			continue
		}

		if (running > 0) == (signed > 0) {
			// Scaling in: re-weight the entry basis over the remainder.
			oldValue := current.AvgEntryPrice * float64(current.RemainingQuantity)
			newRemaining := current.RemainingQuantity + trade.Quantity
			current.AvgEntryPrice = (oldValue + trade.Price*float64(trade.Quantity)) / float64(newRemaining)
			current.TotalQuantity += trade.Quantity
			current.RemainingQuantity = newRemaining
			current.Executions = append(current.Executions, trade)
			running += signed
			continue
		}

		closing := min64(abs64(running), trade.Quantity)
		flipping := trade.Quantity - closing

		priceDiff := trade.Price - current.AvgEntryPrice
		if current.Direction == domain.DirectionShort {
			priceDiff = -priceDiff
		}
		closedPnL := priceDiff * float64(closing)
		current.RealizedPnL += closedPnL

		closingExec := trade
		closingExec.Quantity = closing
		pnl := closedPnL
		closingExec.PnL = &pnl
		current.Executions = append(current.Executions, closingExec)

		if flipping > 0 {
			current.Status = domain.PositionStatusClosed
			current.ExitTime = trade.Timestamp
			current.AvgExitPrice = trade.Price
			current.RemainingQuantity = 0
			positions = append(positions, *current)

			running = trade.Side.Sign() * flipping
			openingExec := trade
			openingExec.Quantity = flipping
			openingExec.PnL = nil
			current = openGroup("pos-"+trade.ID+"-flip", trade, flipping, openingExec)
			continue
		}

		running += signed
		current.RemainingQuantity = abs64(running)
		if running == 0 {
			current.Status = domain.PositionStatusClosed
			current.ExitTime = trade.Timestamp
			current.AvgExitPrice = trade.Price
			positions = append(positions, *current)
			current = nil
		}
	}

	if current != nil {
		positions = append(positions, *current)
	}

	for i := range positions {
		if positions[i].ExitTime > 0 {
			positions[i].DurationMinutes = float64(positions[i].ExitTime-positions[i].EntryTime) / 60
		}
	}

	// Most recent first.
	for i, j := 0, len(positions)-1; i < j; i, j = i+1, j-1 {
		positions[i], positions[j] = positions[j], positions[i]
	}
	return positions
}

func openGroup(id string, trade domain.Trade, quantity int64, first domain.Trade) *domain.GroupedPosition {
	direction := domain.DirectionLong
	if trade.Side == domain.TradeSideSell {
		direction = domain.DirectionShort
	}
	return &domain.GroupedPosition{
		ID:                id,
		Direction:         direction,
		Status:            domain.PositionStatusOpen,
		Instrument:        trade.Instrument,
		EntryTime:         trade.Timestamp,
		AvgEntryPrice:     trade.Price,
		TotalQuantity:     quantity,
		RemainingQuantity: quantity,
		Executions:        []domain.Trade{first},
	}
}

// CalculatePerformanceStats summarizes closed groups only. Profit factor
// is +Inf when there are wins and no losses, zero when there is neither.
func CalculatePerformanceStats(positions []domain.GroupedPosition) domain.PerformanceSummary {
	var summary domain.PerformanceSummary
	var totalWin, totalLoss float64
	var closed int

	for _, p := range positions {
		if p.Status != domain.PositionStatusClosed {
			continue
		}
		closed++
		summary.TotalPnL += p.RealizedPnL

		switch {
		case p.RealizedPnL > 0:
			summary.WinningTrades++
			totalWin += p.RealizedPnL
		case p.RealizedPnL < 0:
			summary.LosingTrades++
			totalLoss += math.Abs(p.RealizedPnL)
		}

		if p.Direction == domain.DirectionLong {
			summary.Longs.Count++
			summary.Longs.PnL += p.RealizedPnL
		} else {
			summary.Shorts.Count++
			summary.Shorts.PnL += p.RealizedPnL
		}
	}

	summary.TotalTrades = closed
	if closed > 0 {
		summary.WinRate = float64(summary.WinningTrades) / float64(closed) * 100
	}
	if summary.WinningTrades > 0 {
		summary.AvgWin = totalWin / float64(summary.WinningTrades)
	}
	if summary.LosingTrades > 0 {
		summary.AvgLoss = totalLoss / float64(summary.LosingTrades)
	}
	switch {
	case totalLoss > 0:
		summary.ProfitFactor = totalWin / totalLoss
	case totalWin > 0:
		summary.ProfitFactor = math.Inf(1)
	}

	return summary
}
