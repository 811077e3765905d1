package domain

import "testing"

func TestNormalizeCandles(t *testing.T) {
	candles := []Candle{
		{Timestamp: 300, Close: 3},
		{Timestamp: 100, Close: 1},
		{Timestamp: 200, Close: 2},
		{Timestamp: 100, Close: 1.5},
	}

	out := NormalizeCandles(candles)
	if len(out) != 3 {
		t.Fatalf("expected 3 candles after dedupe, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp <= out[i-1].Timestamp {
			t.Fatalf("series must be strictly ascending")
		}
	}
	// Duplicate timestamps keep the last record.
	if out[0].Close != 1.5 {
		t.Fatalf("expected last record for timestamp 100, got %f", out[0].Close)
	}
}

func TestNormalizeCandlesEmpty(t *testing.T) {
	if out := NormalizeCandles(nil); out != nil {
		t.Fatalf("empty input yields nil")
	}
}

func TestPositionDirection(t *testing.T) {
	if (Position{Quantity: 5}).Direction() != DirectionLong {
		t.Fatalf("positive quantity is long")
	}
	if (Position{Quantity: -5}).Direction() != DirectionShort {
		t.Fatalf("negative quantity is short")
	}
	if !(Position{}).Flat() {
		t.Fatalf("zero quantity is flat")
	}
}

func TestTradeSideSign(t *testing.T) {
	if TradeSideBuy.Sign() != 1 || TradeSideSell.Sign() != -1 {
		t.Fatalf("unexpected side signs")
	}
}
