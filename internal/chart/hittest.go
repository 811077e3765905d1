package chart

import "math"

// HitTolerance is the pixel slack applied to line-like shapes.
const HitTolerance = 8.0

// distToSegment is the perpendicular distance from p to segment a-b with
// the projection parameter clamped to [0,1]. Zero-length segments fall
// back to plain point distance.
func distToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func nearSegment(p, a, b Point, tol float64) bool {
	return distToSegment(p, a, b) <= tol
}

// nearLevel reports whether p sits within the x-span of a-b and within
// tol of the horizontal line at y. Used by fibonacci and risk/reward
// ladders whose levels extend across the shape's span only.
func nearLevel(p Point, a, b Point, y, tol float64) bool {
	minX := math.Min(a.X, b.X) - tol
	maxX := math.Max(a.X, b.X) + tol
	if p.X < minX || p.X > maxX {
		return false
	}
	return math.Abs(p.Y-y) <= tol
}

func insideRect(p Point, a, b Point) bool {
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.X, b.X)
	minY := math.Min(a.Y, b.Y)
	maxY := math.Max(a.Y, b.Y)
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

func nearRectEdge(p Point, a, b Point, tol float64) bool {
	c := Point{X: b.X, Y: a.Y}
	d := Point{X: a.X, Y: b.Y}
	return nearSegment(p, a, c, tol) || nearSegment(p, c, b, tol) ||
		nearSegment(p, b, d, tol) || nearSegment(p, d, a, tol)
}

// FindTopmostHit returns the newest drawing containing the pixel point,
// or nil. Drawings are stored oldest-first, so overlapping shapes resolve
// newest-on-top.
func FindTopmostHit(at Point, drawings []*Drawing) *Drawing {
	for i := len(drawings) - 1; i >= 0; i-- {
		if drawings[i].Shape.HitTest(at, HitTolerance) {
			return drawings[i]
		}
	}
	return nil
}
