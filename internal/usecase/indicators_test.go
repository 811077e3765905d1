package usecase

import (
	"math"
	"testing"
)

func TestCalculateSMA(t *testing.T) {
	candles := testCandles(10, 20, 30, 40, 50)

	points := CalculateSMA(candles, 3)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	want := []float64{20, 30, 40}
	for i, p := range points {
		if p.Value != want[i] {
			t.Fatalf("point %d: expected %f, got %f", i, want[i], p.Value)
		}
	}
	if points[0].Time != candles[2].Timestamp {
		t.Fatalf("series starts at the first full window")
	}
}

func TestCalculateSMAShortSeries(t *testing.T) {
	candles := testCandles(10, 20)
	if points := CalculateSMA(candles, 3); points != nil {
		t.Fatalf("window longer than the series yields nothing")
	}
	if points := CalculateSMA(candles, 0); points != nil {
		t.Fatalf("non-positive period yields nothing")
	}
}

func TestCalculateEMA(t *testing.T) {
	candles := testCandles(10, 20, 30, 40, 50)

	points := CalculateEMA(candles, 3)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	// Seeded with the SMA of the first window: 20, then k=0.5.
	if points[0].Value != 20 {
		t.Fatalf("expected seed 20, got %f", points[0].Value)
	}
	if math.Abs(points[1].Value-30) > 1e-9 {
		t.Fatalf("expected 30, got %f", points[1].Value)
	}
	if math.Abs(points[2].Value-40) > 1e-9 {
		t.Fatalf("expected 40, got %f", points[2].Value)
	}
}
