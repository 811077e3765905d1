package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"backtest_server/internal/domain"
)

// SessionService owns a single backtesting session: the loaded candle
// series, the playback cursor, the trade log, and the one running
// position. Every mutation happens under one mutex, so trades can never
// race the position even when the HTTP transport and the playback timer
// drive the session concurrently.
type SessionService struct {
	mu     sync.Mutex
	logger zerolog.Logger
	store  domain.SessionStore

	instrument string
	interval   string
	candles    []domain.Candle
	index      int
	trades     []domain.Trade
	position   *domain.Position

	playing  bool
	speed    float64
	stopPlay chan struct{}
	onStep   func(index int, candle domain.Candle)
}

// NewSessionService builds a session. The store is optional; without it
// Save and Restore report the missing dependency.
func NewSessionService(store domain.SessionStore, logger zerolog.Logger) *SessionService {
	return &SessionService{
		logger: logger,
		store:  store,
		speed:  1,
	}
}

// SetOnStep registers a callback fired after each playback auto-advance.
func (s *SessionService) SetOnStep(fn func(index int, candle domain.Candle)) {
	s.mu.Lock()
	s.onStep = fn
	s.mu.Unlock()
}

// LoadCandles replaces the session's series and resets cursor, trades and
// position. The series must already be normalized (ascending, unique
// timestamps); callers load through domain.NormalizeCandles at the
// boundary.
func (s *SessionService) LoadCandles(candles []domain.Candle, instrument, interval string) error {
	if len(candles) == 0 {
		return domain.ErrNoCandles
	}

	s.mu.Lock()
	s.stopPlaybackLocked()
	s.candles = candles
	s.instrument = instrument
	s.interval = interval
	s.index = 0
	s.trades = nil
	s.position = nil
	s.mu.Unlock()

	s.logger.Info().
		Str("instrument", instrument).
		Str("interval", interval).
		Int("candles", len(candles)).
		Msg("session loaded")
	return nil
}

// StepForward advances the cursor one candle, clamped at the series end.
func (s *SessionService) StepForward() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < len(s.candles)-1 {
		s.index++
	}
	return s.index
}

// StepBackward rewinds the cursor one candle, clamped at zero.
func (s *SessionService) StepBackward() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index > 0 {
		s.index--
	}
	return s.index
}

// SetIndex moves the cursor to an absolute position. Out-of-range values
// are ignored and the current index returned.
func (s *SessionService) SetIndex(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.candles) {
		s.index = index
	}
	return s.index
}

func (s *SessionService) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// CurrentCandle returns the candle under the cursor, if any.
func (s *SessionService) CurrentCandle() (domain.Candle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *SessionService) currentLocked() (domain.Candle, bool) {
	if s.index < 0 || s.index >= len(s.candles) {
		return domain.Candle{}, false
	}
	return s.candles[s.index], true
}

// VisibleCandles returns the prefix of the series up to and including the
// cursor, the window a playback chart renders.
func (s *SessionService) VisibleCandles() []domain.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.candles) == 0 {
		return nil
	}
	out := make([]domain.Candle, s.index+1)
	copy(out, s.candles[:s.index+1])
	return out
}

// ExecuteTrade applies a BUY or SELL intent at the current candle's close
// using signed-quantity accounting: same-direction trades scale in on a
// weighted average, opposite-direction trades realize PnL on the closing
// portion and flip to a fresh basis when the quantity overshoots.
func (s *SessionService) ExecuteTrade(side domain.TradeSide, quantity int64) (domain.Trade, error) {
	if quantity <= 0 {
		return domain.Trade{}, domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	candle, ok := s.currentLocked()
	if !ok {
		return domain.Trade{}, domain.ErrNoActiveCandle
	}

	price := candle.Close
	trade := domain.Trade{
		ID:         uuid.New().String(),
		Timestamp:  candle.Timestamp,
		Side:       side,
		Price:      price,
		Quantity:   quantity,
		Instrument: s.instrument,
	}

	pos := domain.Position{Instrument: s.instrument}
	if s.position != nil {
		pos = *s.position
	}

	signed := quantity * side.Sign()
	switch {
	case pos.Quantity == 0:
		pos.AveragePrice = price
		pos.Quantity = signed

	case (pos.Quantity > 0) == (signed > 0):
		// Scale in: weighted-average the cost basis, no PnL realized.
		oldQty := abs64(pos.Quantity)
		pos.AveragePrice = (pos.AveragePrice*float64(oldQty) + price*float64(quantity)) /
			float64(oldQty+quantity)
		pos.Quantity += signed

	default:
		closing := min64(abs64(pos.Quantity), quantity)
		pnl := (price - pos.AveragePrice) * float64(closing)
		if pos.Quantity < 0 {
			pnl = -pnl
		}
		pos.RealizedPnL += pnl
		trade.PnL = &pnl

		remainder := quantity - closing
		if remainder > 0 {
			// Flip: the overshoot opens the opposite side at a fresh
			// basis, realized PnL carries over.
			pos.Quantity = side.Sign() * remainder
			pos.AveragePrice = price
		} else {
			pos.Quantity += signed
			if pos.Quantity == 0 {
				pos.AveragePrice = 0
			}
		}
	}

	s.trades = append(s.trades, trade)
	if pos.Quantity == 0 {
		s.position = nil
	} else {
		s.position = &pos
	}

	event := s.logger.Info().
		Str("side", string(side)).
		Int64("quantity", quantity).
		Float64("price", price).
		Int64("positionQty", pos.Quantity)
	if trade.PnL != nil {
		event = event.Float64("pnl", *trade.PnL)
	}
	event.Msg("trade executed")

	return trade, nil
}

// Position returns a copy of the running position; ok is false when flat.
func (s *SessionService) Position() (domain.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.position == nil {
		return domain.Position{}, false
	}
	return *s.position, true
}

// Trades returns a copy of the trade log in execution order.
func (s *SessionService) Trades() []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// UnrealizedPnL marks the open position to the current candle's close.
// The signed quantity makes the short formula fall out of the long one.
func (s *SessionService) UnrealizedPnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.position == nil {
		return 0
	}
	candle, ok := s.currentLocked()
	if !ok {
		return 0
	}
	return (candle.Close - s.position.AveragePrice) * float64(s.position.Quantity)
}

func (s *SessionService) RealizedPnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.position == nil {
		return 0
	}
	return s.position.RealizedPnL
}

// Report replays the trade log into grouped positions and their summary.
func (s *SessionService) Report() ([]domain.GroupedPosition, domain.PerformanceSummary) {
	groups := GroupTradesIntoPositions(s.Trades())
	return groups, CalculatePerformanceStats(groups)
}

// Reset clears trades, position and cursor atomically, keeping the loaded
// series.
func (s *SessionService) Reset() {
	s.mu.Lock()
	s.stopPlaybackLocked()
	s.index = 0
	s.trades = nil
	s.position = nil
	s.mu.Unlock()
	s.logger.Info().Msg("session reset")
}

// Play starts the auto-advance timer, one step per 1/speed seconds. It
// self-cancels when the cursor reaches the last candle.
func (s *SessionService) Play() {
	s.mu.Lock()
	if s.playing || len(s.candles) == 0 {
		s.mu.Unlock()
		return
	}
	s.playing = true
	stop := make(chan struct{})
	s.stopPlay = stop
	interval := time.Duration(float64(time.Second) / s.speed)
	s.mu.Unlock()

	s.logger.Debug().Dur("interval", interval).Msg("playback started")
	go s.runPlayback(interval, stop)
}

// Pause stops the auto-advance timer. Safe to call when not playing.
func (s *SessionService) Pause() {
	s.mu.Lock()
	s.stopPlaybackLocked()
	s.mu.Unlock()
}

// SetSpeed changes the playback rate, restarting the timer when active.
// Non-positive speeds are ignored.
func (s *SessionService) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	s.mu.Lock()
	s.speed = speed
	wasPlaying := s.playing
	s.stopPlaybackLocked()
	s.mu.Unlock()

	if wasPlaying {
		s.Play()
	}
}

func (s *SessionService) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *SessionService) runPlayback(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.playing {
				s.mu.Unlock()
				return
			}
			if s.index >= len(s.candles)-1 {
				s.playing = false
				s.stopPlay = nil
				s.mu.Unlock()
				s.logger.Debug().Msg("playback reached last candle")
				return
			}
			s.index++
			index := s.index
			candle := s.candles[index]
			fn := s.onStep
			s.mu.Unlock()

			if fn != nil {
				fn(index, candle)
			}
		}
	}
}

func (s *SessionService) stopPlaybackLocked() {
	if !s.playing {
		return
	}
	s.playing = false
	if s.stopPlay != nil {
		close(s.stopPlay)
		s.stopPlay = nil
	}
}

// Snapshot captures the session as an atomic persistence unit. The
// drawings blob is opaque to the session; the chart engine produces it.
func (s *SessionService) Snapshot(id string, drawings []byte) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades := make([]domain.Trade, len(s.trades))
	copy(trades, s.trades)

	var pos *domain.Position
	if s.position != nil {
		p := *s.position
		pos = &p
	}

	return domain.SessionSnapshot{
		ID:           id,
		Instrument:   s.instrument,
		Interval:     s.interval,
		CurrentIndex: s.index,
		Speed:        s.speed,
		Trades:       trades,
		Position:     pos,
		Drawings:     drawings,
		SavedAt:      time.Now().UTC(),
	}
}

// Save persists the current session state under id.
func (s *SessionService) Save(ctx context.Context, id string, drawings []byte) error {
	if s.store == nil {
		return errors.New("session store required")
	}
	if err := s.store.SaveSnapshot(ctx, s.Snapshot(id, drawings)); err != nil {
		return err
	}
	s.logger.Info().Str("session", id).Msg("session saved")
	return nil
}

// Restore loads a snapshot and replaces the session's trade log, position,
// cursor and config in one step. The candle series itself is re-fetched by
// the caller (it is cached, not part of the blob). The returned snapshot
// carries the drawings blob for the chart engine.
func (s *SessionService) Restore(ctx context.Context, id string) (domain.SessionSnapshot, error) {
	if s.store == nil {
		return domain.SessionSnapshot{}, errors.New("session store required")
	}

	snap, err := s.store.LoadSnapshot(ctx, id)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	s.mu.Lock()
	s.stopPlaybackLocked()
	s.instrument = snap.Instrument
	s.interval = snap.Interval
	s.trades = append([]domain.Trade(nil), snap.Trades...)
	s.position = nil
	if snap.Position != nil {
		p := *snap.Position
		s.position = &p
	}
	if snap.CurrentIndex >= 0 && (len(s.candles) == 0 || snap.CurrentIndex < len(s.candles)) {
		s.index = snap.CurrentIndex
	}
	if snap.Speed > 0 {
		s.speed = snap.Speed
	}
	s.mu.Unlock()

	s.logger.Info().Str("session", id).Int("trades", len(snap.Trades)).Msg("session restored")
	return snap, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
