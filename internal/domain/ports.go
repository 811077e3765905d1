package domain

import (
	"context"
	"time"
)

// CandleSource fetches historical candles from an external market-data
// provider. Implementations return deduplicated, ascending series.
type CandleSource interface {
	FetchCandles(ctx context.Context, instrument, interval string, from, to time.Time) ([]Candle, error)
}

// CandleCache persists fetched candle series for reuse across sessions.
type CandleCache interface {
	SaveCandles(ctx context.Context, instrument, interval string, candles []Candle) error
	LoadCandles(ctx context.Context, instrument, interval string, from, to time.Time) ([]Candle, error)
}

// SessionStore persists session snapshots as atomic units.
type SessionStore interface {
	SaveSnapshot(ctx context.Context, snapshot SessionSnapshot) error
	LoadSnapshot(ctx context.Context, id string) (SessionSnapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]SessionSnapshot, error)
}
