package chart

import (
	"math"
	"testing"
)

func mustShape(t *testing.T, kind Kind, pts []Point, text string) Shape {
	t.Helper()
	s, err := NewShape(kind, pts, text, nil)
	if err != nil {
		t.Fatalf("new shape: %v", err)
	}
	return s
}

func TestDistToSegment(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 100, Y: 0}

	if d := distToSegment(Point{X: 50, Y: 5}, a, b); d != 5 {
		t.Fatalf("perpendicular distance: got %f", d)
	}
	// Beyond the endpoint the projection clamps to the endpoint itself.
	if d := distToSegment(Point{X: 110, Y: 0}, a, b); d != 10 {
		t.Fatalf("clamped distance: got %f", d)
	}
	if d := distToSegment(Point{X: 3, Y: 4}, a, a); d != 5 {
		t.Fatalf("degenerate segment distance: got %f", d)
	}
}

func TestTrendlineHitTolerance(t *testing.T) {
	s := mustShape(t, KindTrendline, []Point{{X: 0, Y: 0}, {X: 100, Y: 100}}, "")

	mid := Point{X: 50, Y: 50}
	if !s.HitTest(mid, HitTolerance) {
		t.Fatalf("midpoint must hit")
	}

	offset := HitTolerance * math.Sqrt2
	near := Point{X: 50, Y: 50 + offset - 1}
	if !s.HitTest(near, HitTolerance) {
		t.Fatalf("point inside tolerance must hit")
	}
	far := Point{X: 50, Y: 50 + offset + 1}
	if s.HitTest(far, HitTolerance) {
		t.Fatalf("point beyond tolerance must miss")
	}
}

func TestHorizontalLineHit(t *testing.T) {
	s := mustShape(t, KindHorizontal, []Point{{X: 10, Y: 80}, {X: 60, Y: 120}}, "")

	// The level follows the gesture's last point.
	if !s.HitTest(Point{X: 700, Y: 120}, HitTolerance) {
		t.Fatalf("horizontal line spans the full width")
	}
	if s.HitTest(Point{X: 700, Y: 120 + HitTolerance + 1}, HitTolerance) {
		t.Fatalf("expected miss beyond tolerance")
	}
}

func TestRectangleHitInteriorAndEdge(t *testing.T) {
	s := mustShape(t, KindRectangle, []Point{{X: 100, Y: 100}, {X: 20, Y: 40}}, "")

	if !s.HitTest(Point{X: 60, Y: 70}, HitTolerance) {
		t.Fatalf("interior point must hit regardless of corner order")
	}
	if !s.HitTest(Point{X: 100 + HitTolerance - 1, Y: 70}, HitTolerance) {
		t.Fatalf("edge within tolerance must hit")
	}
	if s.HitTest(Point{X: 100 + HitTolerance + 1, Y: 70}, HitTolerance) {
		t.Fatalf("point outside rect and edge slack must miss")
	}
}

func TestFibonacciHitOnInnerLevel(t *testing.T) {
	s := mustShape(t, KindFibonacci, []Point{{X: 0, Y: 0}, {X: 100, Y: 100}}, "")

	// The 50% retracement sits at y=50 across the x-span.
	if !s.HitTest(Point{X: 50, Y: 50}, HitTolerance) {
		t.Fatalf("expected hit on 50%% level")
	}
	if s.HitTest(Point{X: 50, Y: 70}, HitTolerance) {
		t.Fatalf("gap between levels must miss")
	}
	if s.HitTest(Point{X: 150, Y: 50}, HitTolerance) {
		t.Fatalf("level does not extend past the x-span")
	}
}

func TestRiskRewardHitOnLadder(t *testing.T) {
	s := mustShape(t, KindRiskReward, []Point{{X: 0, Y: 100}, {X: 80, Y: 90}}, "")

	if !s.HitTest(Point{X: 40, Y: 100}, HitTolerance) {
		t.Fatalf("expected hit on entry level")
	}
	// Third risk rung mirrors three deltas below entry: y = 100 + 3*10.
	if !s.HitTest(Point{X: 40, Y: 130}, HitTolerance) {
		t.Fatalf("expected hit on 1:3 risk level")
	}
	if s.HitTest(Point{X: 40, Y: 145}, HitTolerance) {
		t.Fatalf("expected miss beyond ladder")
	}
}

func TestFreehandHitAlongStroke(t *testing.T) {
	pts := make([]Point, 500)
	for i := range pts {
		pts[i] = Point{X: float64(i), Y: 50}
	}
	s := mustShape(t, KindFreehand, pts, "")

	// Any sampled point of the polyline hits, not just the endpoints.
	for _, at := range []Point{pts[0], pts[137], pts[250], pts[499]} {
		if !s.HitTest(at, HitTolerance) {
			t.Fatalf("stroke point (%f, %f) must hit", at.X, at.Y)
		}
	}
	if !s.HitTest(Point{X: 250.5, Y: 50 + HitTolerance - 1}, HitTolerance) {
		t.Fatalf("point between samples inside tolerance must hit")
	}
	if s.HitTest(Point{X: 250, Y: 50 + HitTolerance + 1}, HitTolerance) {
		t.Fatalf("point beyond tolerance must miss")
	}
	if s.HitTest(Point{X: 520, Y: 50}, HitTolerance) {
		t.Fatalf("point past the stroke end must miss")
	}
}

func TestTextNoteHitUsesBounds(t *testing.T) {
	s := mustShape(t, KindText, []Point{{X: 100, Y: 100}}, "note")

	// fixedMeasurer: 4 runes * 7px wide, 16px tall, 4px padding.
	if !s.HitTest(Point{X: 120, Y: 110}, HitTolerance) {
		t.Fatalf("expected hit inside label bounds")
	}
	if s.HitTest(Point{X: 140, Y: 110}, HitTolerance) {
		t.Fatalf("expected miss past label bounds")
	}
}

func TestFindTopmostHitPrefersNewest(t *testing.T) {
	older := &Drawing{ID: "a", Shape: mustShape(t, KindRectangle, []Point{{X: 0, Y: 0}, {X: 100, Y: 100}}, "")}
	newer := &Drawing{ID: "b", Shape: mustShape(t, KindRectangle, []Point{{X: 50, Y: 50}, {X: 150, Y: 150}}, "")}
	drawings := []*Drawing{older, newer}

	hit := FindTopmostHit(Point{X: 75, Y: 75}, drawings)
	if hit == nil || hit.ID != "b" {
		t.Fatalf("overlap must resolve to the newest drawing")
	}

	hit = FindTopmostHit(Point{X: 10, Y: 10}, drawings)
	if hit == nil || hit.ID != "a" {
		t.Fatalf("expected the older drawing outside the overlap")
	}

	if FindTopmostHit(Point{X: 400, Y: 400}, drawings) != nil {
		t.Fatalf("expected no hit in empty space")
	}
}
