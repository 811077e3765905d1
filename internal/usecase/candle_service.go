package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"backtest_server/internal/domain"
)

// CandleService fills sessions with historical data: cache-aside reads
// against the candle store, falling back to the external provider.
type CandleService struct {
	source domain.CandleSource
	cache  domain.CandleCache
	logger zerolog.Logger
}

func NewCandleService(source domain.CandleSource, cache domain.CandleCache, logger zerolog.Logger) (*CandleService, error) {
	if source == nil {
		return nil, fmt.Errorf("candle source is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("candle cache is required")
	}
	return &CandleService{source: source, cache: cache, logger: logger}, nil
}

// GetCandles returns a normalized series for the requested window,
// preferring the cache and fetching from the provider on a miss. Fetched
// series are written back for subsequent sessions.
func (s *CandleService) GetCandles(ctx context.Context, instrument, interval string, from, to time.Time) ([]domain.Candle, error) {
	cached, err := s.cache.LoadCandles(ctx, instrument, interval, from, to)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Msg("candle cache read failed, fetching from source")
	case cacheCovers(cached, from, to):
		s.logger.Debug().
			Str("instrument", instrument).
			Int("candles", len(cached)).
			Msg("candle cache hit")
		return cached, nil
	case len(cached) > 0:
		s.logger.Debug().
			Int("candles", len(cached)).
			Msg("cached series does not cover the window, fetching from source")
	}

	fetched, err := s.source.FetchCandles(ctx, instrument, interval, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}

	candles := domain.NormalizeCandles(fetched)
	if len(candles) == 0 {
		return nil, domain.ErrNoCandles
	}

	if err := s.cache.SaveCandles(ctx, instrument, interval, candles); err != nil {
		// A failed write-back degrades to uncached reads, nothing else.
		s.logger.Warn().Err(err).Msg("candle cache write failed")
	}

	return candles, nil
}

// Sync refreshes the cache for a window directly from the provider,
// returning how many candles were stored. Used by the scheduled refresh
// job.
func (s *CandleService) Sync(ctx context.Context, instrument, interval string, from, to time.Time) (int, error) {
	fetched, err := s.source.FetchCandles(ctx, instrument, interval, from, to)
	if err != nil {
		return 0, err
	}

	candles := domain.NormalizeCandles(fetched)
	if len(candles) == 0 {
		return 0, domain.ErrNoCandles
	}

	if err := s.cache.SaveCandles(ctx, instrument, interval, candles); err != nil {
		return 0, err
	}
	return len(candles), nil
}

// cacheEdgeSlack absorbs the gap between a date-range window edge and
// the first or last bar of trading inside it.
const cacheEdgeSlack = 24 * time.Hour

// cacheCovers reports whether a cached series reaches both edges of the
// requested window. A partially-populated cache reads as a miss, so it
// can never truncate a session's series.
func cacheCovers(candles []domain.Candle, from, to time.Time) bool {
	if len(candles) == 0 {
		return false
	}
	return candles[0].Timestamp <= from.Add(cacheEdgeSlack).Unix() &&
		candles[len(candles)-1].Timestamp >= to.Add(-cacheEdgeSlack).Unix()
}
