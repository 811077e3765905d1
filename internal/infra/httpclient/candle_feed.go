package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"backtest_server/internal/domain"
)

// CandleFeed fetches historical OHLCV bars from the market-data backend.
// Requests are rate-limited so replaying many sessions cannot hammer the
// upstream provider quota.
type CandleFeed struct {
	client  *resty.Client
	baseURL string
	limiter *rate.Limiter
}

type rawCandle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

type candlesResponse struct {
	Success bool        `json:"success"`
	Data    []rawCandle `json:"data"`
	Count   int         `json:"count"`
	Cached  bool        `json:"cached"`
}

func NewCandleFeed(baseURL string, requestsPerSecond float64, opts ...func(*resty.Client)) (*CandleFeed, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}

	client := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	for _, opt := range opts {
		opt(client)
	}

	return &CandleFeed{
		client:  client,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 5),
	}, nil
}

func (f *CandleFeed) FetchCandles(ctx context.Context, instrument, interval string, from, to time.Time) ([]domain.Candle, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload candlesResponse

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"instrument": instrument,
			"interval":   interval,
			"fromDate":   from.UTC().Format("2006-01-02"),
			"toDate":     to.UTC().Format("2006-01-02"),
		}).
		SetResult(&payload).
		Get(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}

	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("feed responded with status %d", resp.StatusCode())
	}
	if !payload.Success {
		return nil, fmt.Errorf("feed rejected request for %s %s", instrument, interval)
	}

	candles := make([]domain.Candle, 0, len(payload.Data))
	for _, item := range payload.Data {
		// Skip malformed records while allowing the rest to be processed.
		if item.Timestamp <= 0 {
			continue
		}
		candles = append(candles, domain.Candle{
			Timestamp: item.Timestamp,
			Open:      item.Open,
			High:      item.High,
			Low:       item.Low,
			Close:     item.Close,
			Volume:    item.Volume,
		})
	}

	return candles, nil
}
