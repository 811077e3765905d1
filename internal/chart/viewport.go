package chart

// Viewport describes the chart host's currently visible window: a logical
// candle-index range across the canvas width and a price range down its
// height. Both projections are linear, matching the host chart's scales.
type Viewport struct {
	IndexFrom float64
	IndexTo   float64
	PriceMin  float64
	PriceMax  float64
	Width     float64
	Height    float64
}

// Ready reports whether the viewport can project between pixel and logical
// space. Before the chart host has produced its first layout both ranges
// are zero and every conversion must soft-fail.
func (v Viewport) Ready() bool {
	return v.Width > 0 && v.Height > 0 &&
		v.IndexTo > v.IndexFrom && v.PriceMax > v.PriceMin
}

// PixelToAnchor attaches a logical (time index, price) anchor to a raw
// pixel position. When the viewport is not ready the point keeps its pixel
// coordinates and stays unanchored.
func (v Viewport) PixelToAnchor(x, y float64) Point {
	p := Point{X: x, Y: y}
	if !v.Ready() {
		return p
	}

	p.Time = v.IndexFrom + x/v.Width*(v.IndexTo-v.IndexFrom)
	p.Price = v.PriceMax - y/v.Height*(v.PriceMax-v.PriceMin)
	p.Anchored = true
	return p
}

// AnchorToPixel re-derives the pixel position of an anchored point under
// the current viewport. Anchors outside the visible range extrapolate
// linearly to out-of-view pixel coordinates rather than clipping, so
// segments crossing the viewport edge still render correctly. Unanchored
// points (and any point while the viewport is not ready) pass through
// unchanged.
func (v Viewport) AnchorToPixel(p Point) Point {
	if !p.Anchored || !v.Ready() {
		return p
	}

	p.X = (p.Time - v.IndexFrom) / (v.IndexTo - v.IndexFrom) * v.Width
	p.Y = (v.PriceMax - p.Price) / (v.PriceMax - v.PriceMin) * v.Height
	return p
}
