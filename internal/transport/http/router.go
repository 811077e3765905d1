package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	swagger "github.com/gofiber/swagger"

	"backtest_server/internal/chart"
	"backtest_server/internal/domain"
	"backtest_server/internal/usecase"
)

type CandleService interface {
	GetCandles(ctx context.Context, instrument, interval string, from, to time.Time) ([]domain.Candle, error)
}

type SessionService interface {
	LoadCandles(candles []domain.Candle, instrument, interval string) error
	StepForward() int
	StepBackward() int
	SetIndex(index int) int
	CurrentIndex() int
	CurrentCandle() (domain.Candle, bool)
	VisibleCandles() []domain.Candle
	ExecuteTrade(side domain.TradeSide, quantity int64) (domain.Trade, error)
	Trades() []domain.Trade
	Position() (domain.Position, bool)
	UnrealizedPnL() float64
	RealizedPnL() float64
	Report() ([]domain.GroupedPosition, domain.PerformanceSummary)
	Play()
	Pause()
	SetSpeed(speed float64)
	Playing() bool
	Reset()
	Save(ctx context.Context, id string, drawings []byte) error
	Restore(ctx context.Context, id string) (domain.SessionSnapshot, error)
}

type Router struct {
	app      *fiber.App
	candles  CandleService
	session  SessionService
	drawings *chart.Engine
	store    domain.SessionStore
}

func New(candles CandleService, session SessionService, drawings *chart.Engine, store domain.SessionStore) *Router {
	app := fiber.New()

	r := &Router{
		app:      app,
		candles:  candles,
		session:  session,
		drawings: drawings,
		store:    store,
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Post("/session/load", r.loadSession)
	v1.Get("/session", r.getSession)
	v1.Post("/session/step", r.step)
	v1.Post("/session/seek", r.seek)
	v1.Post("/session/play", r.play)
	v1.Post("/session/pause", r.pause)
	v1.Post("/session/speed", r.setSpeed)
	v1.Post("/session/reset", r.resetSession)

	v1.Post("/session/trades", r.executeTrade)
	v1.Get("/session/trades", r.listTrades)
	v1.Get("/session/candles", r.visibleCandles)
	v1.Get("/session/indicators", r.indicators)
	v1.Get("/session/report", r.getReport)

	v1.Get("/sessions", r.listSessions)
	v1.Post("/sessions/:session_id/save", r.saveSession)
	v1.Post("/sessions/:session_id/restore", r.restoreSession)

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return r
}

func (r *Router) App() *fiber.App {
	return r.app
}

type LoadSessionRequest struct {
	Instrument string `json:"instrument"`
	Interval   string `json:"interval"`
	FromDate   string `json:"fromDate"`
	ToDate     string `json:"toDate"`
}

// loadSession godoc
// @Summary Load a candle series into the session
// @Tags session
// @Accept json
// @Produce json
// @Param request body LoadSessionRequest true "Series window"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /session/load [post]
func (r *Router) loadSession(c *fiber.Ctx) error {
	if r.candles == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "candle service unavailable")
	}

	var req LoadSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if req.Instrument == "" || req.Interval == "" {
		return fiber.NewError(fiber.StatusBadRequest, "instrument and interval required")
	}

	from := parseDate(req.FromDate)
	to := parseDate(req.ToDate)
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid date range")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 30*time.Second)
	defer cancel()

	candles, err := r.candles.GetCandles(ctx, req.Instrument, req.Interval, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrNoCandles) {
			return fiber.NewError(fiber.StatusNotFound, "no candles for window")
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	if err := r.session.LoadCandles(candles, req.Instrument, req.Interval); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(fiber.Map{
		"instrument": req.Instrument,
		"interval":   req.Interval,
		"candles":    len(candles),
		"firstTime":  candles[0].Timestamp,
		"lastTime":   candles[len(candles)-1].Timestamp,
	})
}

// getSession godoc
// @Summary Current session state
// @Tags session
// @Produce json
// @Success 200 {object} map[string]any
// @Router /session [get]
func (r *Router) getSession(c *fiber.Ctx) error {
	state := fiber.Map{
		"currentIndex":  r.session.CurrentIndex(),
		"playing":       r.session.Playing(),
		"realizedPnL":   r.session.RealizedPnL(),
		"unrealizedPnL": r.session.UnrealizedPnL(),
	}

	if candle, ok := r.session.CurrentCandle(); ok {
		state["currentCandle"] = candle
	}
	if position, ok := r.session.Position(); ok {
		state["position"] = position
	}

	return c.JSON(state)
}

type StepRequest struct {
	Direction string `json:"direction"`
}

func (r *Router) step(c *fiber.Ctx) error {
	var req StepRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	var index int
	switch req.Direction {
	case "backward":
		index = r.session.StepBackward()
	case "forward", "":
		index = r.session.StepForward()
	default:
		return fiber.NewError(fiber.StatusBadRequest, "direction must be forward or backward")
	}

	resp := fiber.Map{"currentIndex": index}
	if candle, ok := r.session.CurrentCandle(); ok {
		resp["candle"] = candle
	}
	return c.JSON(resp)
}

type SeekRequest struct {
	Index int `json:"index"`
}

func (r *Router) seek(c *fiber.Ctx) error {
	var req SeekRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	return c.JSON(fiber.Map{"currentIndex": r.session.SetIndex(req.Index)})
}

func (r *Router) play(c *fiber.Ctx) error {
	r.session.Play()
	return c.JSON(fiber.Map{"playing": r.session.Playing()})
}

func (r *Router) pause(c *fiber.Ctx) error {
	r.session.Pause()
	return c.JSON(fiber.Map{"playing": false})
}

type SpeedRequest struct {
	Speed float64 `json:"speed"`
}

func (r *Router) setSpeed(c *fiber.Ctx) error {
	var req SpeedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if req.Speed <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "speed must be positive")
	}
	r.session.SetSpeed(req.Speed)
	return c.JSON(fiber.Map{"speed": req.Speed})
}

func (r *Router) resetSession(c *fiber.Ctx) error {
	r.session.Reset()
	if r.drawings != nil {
		r.drawings.ClearAll()
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

type TradeIntentRequest struct {
	Side     string `json:"side"`
	Quantity int64  `json:"quantity"`
}

// executeTrade godoc
// @Summary Execute a simulated trade at the current candle
// @Tags trading
// @Accept json
// @Produce json
// @Param request body TradeIntentRequest true "Trade intent"
// @Success 201 {object} domain.Trade
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /session/trades [post]
func (r *Router) executeTrade(c *fiber.Ctx) error {
	var req TradeIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	side := domain.TradeSide(req.Side)
	if side != domain.TradeSideBuy && side != domain.TradeSideSell {
		return fiber.NewError(fiber.StatusBadRequest, "side must be BUY or SELL")
	}

	trade, err := r.session.ExecuteTrade(side, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidQuantity):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNoActiveCandle):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(fiber.StatusCreated).JSON(trade)
}

func (r *Router) listTrades(c *fiber.Ctx) error {
	return c.JSON(r.session.Trades())
}

func (r *Router) visibleCandles(c *fiber.Ctx) error {
	return c.JSON(r.session.VisibleCandles())
}

func (r *Router) indicators(c *fiber.Ctx) error {
	period := 20
	if v := c.Query("period"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid period")
		}
		period = parsed
	}

	candles := r.session.VisibleCandles()
	switch c.Query("type", "sma") {
	case "sma":
		return c.JSON(usecase.CalculateSMA(candles, period))
	case "ema":
		return c.JSON(usecase.CalculateEMA(candles, period))
	default:
		return fiber.NewError(fiber.StatusBadRequest, "type must be sma or ema")
	}
}

// getReport godoc
// @Summary Grouped positions and performance summary
// @Tags trading
// @Produce json
// @Success 200 {object} map[string]any
// @Router /session/report [get]
func (r *Router) getReport(c *fiber.Ctx) error {
	positions, summary := r.session.Report()
	return c.JSON(fiber.Map{
		"positions": positions,
		"summary":   summary,
	})
}

func (r *Router) listSessions(c *fiber.Ctx) error {
	if r.store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "session store unavailable")
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	snaps, err := r.store.ListSnapshots(ctx, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(snaps)
}

func (r *Router) saveSession(c *fiber.Ctx) error {
	id := c.Params("session_id")
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id required")
	}

	var blob []byte
	if r.drawings != nil {
		var err error
		blob, err = r.drawings.SnapshotDrawings()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	ctx, cancel := context.WithTimeout(userContext(c), 10*time.Second)
	defer cancel()

	if err := r.session.Save(ctx, id, blob); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok"})
}

func (r *Router) restoreSession(c *fiber.Ctx) error {
	id := c.Params("session_id")
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id required")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 10*time.Second)
	defer cancel()

	snap, err := r.session.Restore(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if r.drawings != nil && len(snap.Drawings) > 0 {
		if err := r.drawings.RestoreDrawings(snap.Drawings); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(fiber.Map{
		"instrument":   snap.Instrument,
		"interval":     snap.Interval,
		"currentIndex": snap.CurrentIndex,
		"trades":       len(snap.Trades),
	})
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
