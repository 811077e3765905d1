package domain

import "errors"

var (
	// ErrNoActiveCandle is returned when a trade is attempted before any
	// candle data has been loaded or the cursor is out of range.
	ErrNoActiveCandle = errors.New("no active candle")

	// ErrInvalidQuantity is returned for trade quantities <= 0.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrNoCandles is returned when a candle fetch yields an empty series.
	ErrNoCandles = errors.New("no candles available")

	// ErrSessionNotFound is returned when a persisted session snapshot
	// does not exist.
	ErrSessionNotFound = errors.New("session not found")
)
