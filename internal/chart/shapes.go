package chart

import (
	"encoding/json"
	"fmt"
	"math"
)

// Style carries the per-frame presentation of a shape.
type Style struct {
	Color    string
	Selected bool
}

func (s Style) strokeWidth() float64 {
	if s.Selected {
		return 3
	}
	return 2
}

// Shape is one committed annotation's geometry. Implementations render to
// a draw-command list and answer pixel hit tests against their current
// (already re-projected) point positions.
type Shape interface {
	Kind() Kind
	Points() []Point
	SetPoints(pts []Point)
	Render(vp Viewport, st Style) []Command
	HitTest(at Point, tol float64) bool
}

// Drawing pairs a shape with its identity and color. The committed set is
// ordered oldest-first; z-order follows insertion order.
type Drawing struct {
	ID    string
	Color string
	Shape Shape
}

type pointList struct {
	pts []Point
}

func (p *pointList) Points() []Point       { return p.pts }
func (p *pointList) SetPoints(pts []Point) { p.pts = pts }

func (p *pointList) two() (Point, Point, bool) {
	if len(p.pts) < 2 {
		return Point{}, Point{}, false
	}
	return p.pts[0], p.pts[1], true
}

// NewShape builds the shape implementation for a drawing kind. Text and
// callout shapes measure their labels through m.
func NewShape(kind Kind, pts []Point, text string, m Measurer) (Shape, error) {
	if m == nil {
		m = fixedMeasurer{}
	}

	base := pointList{pts: pts}
	switch kind {
	case KindTrendline:
		return &trendline{pointList: base}, nil
	case KindHorizontal:
		return &horizontalLine{pointList: base}, nil
	case KindRectangle:
		return &rectangleShape{pointList: base}, nil
	case KindFibonacci:
		return &fibonacci{pointList: base}, nil
	case KindRiskReward:
		return &riskReward{pointList: base}, nil
	case KindFreehand:
		return &freehand{pointList: base}, nil
	case KindText:
		return &textNote{pointList: base, text: text, measurer: m}, nil
	case KindCallout:
		return &callout{pointList: base, text: text, measurer: m}, nil
	default:
		return nil, fmt.Errorf("unknown shape kind %q", kind)
	}
}

// --- trendline ---

type trendline struct {
	pointList
}

func (*trendline) Kind() Kind { return KindTrendline }

func (t *trendline) Render(_ Viewport, st Style) []Command {
	a, b, ok := t.two()
	if !ok {
		return nil
	}
	return []Command{line(a, b, st.Color, st.strokeWidth())}
}

func (t *trendline) HitTest(at Point, tol float64) bool {
	a, b, ok := t.two()
	return ok && nearSegment(at, a, b, tol)
}

// --- horizontal line ---

type horizontalLine struct {
	pointList
}

func (*horizontalLine) Kind() Kind { return KindHorizontal }

// levelY is the line's single meaningful coordinate: the latest point of
// the gesture, so the rubber band tracks the cursor.
func (h *horizontalLine) levelY() (float64, bool) {
	if len(h.pts) == 0 {
		return 0, false
	}
	return h.pts[len(h.pts)-1].Y, true
}

func (h *horizontalLine) Render(vp Viewport, st Style) []Command {
	y, ok := h.levelY()
	if !ok {
		return nil
	}
	return []Command{line(Point{X: 0, Y: y}, Point{X: vp.Width, Y: y}, st.Color, st.strokeWidth())}
}

func (h *horizontalLine) HitTest(at Point, tol float64) bool {
	y, ok := h.levelY()
	return ok && math.Abs(at.Y-y) <= tol
}

// --- rectangle ---

type rectangleShape struct {
	pointList
}

func (*rectangleShape) Kind() Kind { return KindRectangle }

func (r *rectangleShape) Render(_ Viewport, st Style) []Command {
	a, b, ok := r.two()
	if !ok {
		return nil
	}
	return []Command{filledRect(a, b, withAlpha(st.Color, "40"), st.Color, st.strokeWidth())}
}

func (r *rectangleShape) HitTest(at Point, tol float64) bool {
	a, b, ok := r.two()
	if !ok {
		return false
	}
	return insideRect(at, a, b) || nearRectEdge(at, a, b, tol)
}

// --- fibonacci retracement ---

var (
	fibLevels = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}
	fibLabels = []string{"0%", "23.6%", "38.2%", "50%", "61.8%", "78.6%", "100%"}
)

type fibonacci struct {
	pointList
}

func (*fibonacci) Kind() Kind { return KindFibonacci }

func (f *fibonacci) levelYs() (Point, Point, []float64, bool) {
	a, b, ok := f.two()
	if !ok {
		return Point{}, Point{}, nil, false
	}
	ys := make([]float64, len(fibLevels))
	for i, level := range fibLevels {
		ys[i] = a.Y + (b.Y-a.Y)*level
	}
	return a, b, ys, true
}

func (f *fibonacci) Render(_ Viewport, st Style) []Command {
	a, b, ys, ok := f.levelYs()
	if !ok {
		return nil
	}

	labelX := math.Max(a.X, b.X) + 5
	cmds := make([]Command, 0, 2*len(ys))
	for i, y := range ys {
		cmds = append(cmds,
			dashedLine(Point{X: a.X, Y: y}, Point{X: b.X, Y: y}, st.Color, 1),
			label(labelX, y+4, fibLabels[i], st.Color),
		)
	}
	return cmds
}

func (f *fibonacci) HitTest(at Point, tol float64) bool {
	a, b, ys, ok := f.levelYs()
	if !ok {
		return false
	}
	for _, y := range ys {
		if nearLevel(at, a, b, y, tol) {
			return true
		}
	}
	return false
}

// --- risk/reward ladder ---

const (
	rrEntryColor  = "#4CAF50"
	rrRewardColor = "#2196F3"
	rrRiskColor   = "#F44336"
	rrLadderRungs = 3
)

type riskReward struct {
	pointList
}

func (*riskReward) Kind() Kind { return KindRiskReward }

// levels returns the entry y followed by three reward levels (toward the
// second point) and three risk levels (mirrored), at 1x/2x/3x the
// entry-target distance.
func (r *riskReward) levels() (Point, Point, float64, []float64, bool) {
	a, b, ok := r.two()
	if !ok {
		return Point{}, Point{}, 0, nil, false
	}

	entry := a.Y
	delta := b.Y - entry

	levels := make([]float64, 0, 2*rrLadderRungs)
	for k := 1; k <= rrLadderRungs; k++ {
		levels = append(levels, entry+float64(k)*delta)
	}
	for k := 1; k <= rrLadderRungs; k++ {
		levels = append(levels, entry-float64(k)*delta)
	}
	return a, b, entry, levels, true
}

func (r *riskReward) Render(_ Viewport, st Style) []Command {
	a, b, entry, levels, ok := r.levels()
	if !ok {
		return nil
	}

	labelX := math.Max(a.X, b.X) + 5
	cmds := []Command{
		line(Point{X: a.X, Y: entry}, Point{X: b.X, Y: entry}, rrEntryColor, st.strokeWidth()),
		label(labelX, entry+4, "Entry", rrEntryColor),
	}
	for i, y := range levels {
		color := rrRewardColor
		rung := i + 1
		if i >= rrLadderRungs {
			color = rrRiskColor
			rung = i - rrLadderRungs + 1
		}
		cmds = append(cmds,
			dashedLine(Point{X: a.X, Y: y}, Point{X: b.X, Y: y}, color, 1),
			label(labelX, y+4, fmt.Sprintf("1:%d", rung), color),
		)
	}
	return cmds
}

func (r *riskReward) HitTest(at Point, tol float64) bool {
	a, b, entry, levels, ok := r.levels()
	if !ok {
		return false
	}
	if nearLevel(at, a, b, entry, tol) {
		return true
	}
	for _, y := range levels {
		if nearLevel(at, a, b, y, tol) {
			return true
		}
	}
	return false
}

// --- freehand ---

type freehand struct {
	pointList
}

func (*freehand) Kind() Kind { return KindFreehand }

func (f *freehand) Render(_ Viewport, st Style) []Command {
	if len(f.pts) < 2 {
		return nil
	}
	cmds := make([]Command, 0, len(f.pts)-1)
	for i := 1; i < len(f.pts); i++ {
		c := line(f.pts[i-1], f.pts[i], st.Color, st.strokeWidth())
		c.Round = true
		cmds = append(cmds, c)
	}
	return cmds
}

func (f *freehand) HitTest(at Point, tol float64) bool {
	for i := 1; i < len(f.pts); i++ {
		if nearSegment(at, f.pts[i-1], f.pts[i], tol) {
			return true
		}
	}
	return false
}

// --- text note ---

const labelPadding = 4.0

type textNote struct {
	pointList
	text     string
	measurer Measurer
}

func (*textNote) Kind() Kind     { return KindText }
func (t *textNote) Text() string { return t.text }

func (t *textNote) bounds() (Point, Point, bool) {
	if len(t.pts) == 0 {
		return Point{}, Point{}, false
	}
	anchor := t.pts[0]
	w, h := t.measurer.MeasureText(t.text)
	a := Point{X: anchor.X - labelPadding, Y: anchor.Y - labelPadding}
	b := Point{X: anchor.X + w + labelPadding, Y: anchor.Y + h + labelPadding}
	return a, b, true
}

func (t *textNote) Render(_ Viewport, st Style) []Command {
	a, b, ok := t.bounds()
	if !ok {
		return nil
	}

	bg := filledRect(a, b, withAlpha(st.Color, "20"), st.Color, 1)
	bg.Round = true
	bg.Highlight = st.Selected

	lbl := label(t.pts[0].X, t.pts[0].Y, t.text, st.Color)
	return []Command{bg, lbl}
}

func (t *textNote) HitTest(at Point, _ float64) bool {
	a, b, ok := t.bounds()
	return ok && insideRect(at, a, b)
}

// --- callout ---

type callout struct {
	pointList
	text     string
	measurer Measurer
}

func (*callout) Kind() Kind     { return KindCallout }
func (c *callout) Text() string { return c.text }

func (c *callout) labelBounds() (Point, Point, bool) {
	_, tip, ok := c.two()
	if !ok {
		return Point{}, Point{}, false
	}
	w, h := c.measurer.MeasureText(c.text)
	a := Point{X: tip.X - labelPadding, Y: tip.Y - labelPadding}
	b := Point{X: tip.X + w + labelPadding, Y: tip.Y + h + labelPadding}
	return a, b, true
}

func (c *callout) Render(_ Viewport, st Style) []Command {
	anchor, tip, ok := c.two()
	if !ok {
		return nil
	}

	a, b, _ := c.labelBounds()
	bg := filledRect(a, b, withAlpha(st.Color, "20"), st.Color, 1)
	bg.Round = true
	bg.Highlight = st.Selected

	return []Command{
		line(anchor, tip, st.Color, st.strokeWidth()),
		bg,
		label(tip.X, tip.Y, c.text, st.Color),
	}
}

func (c *callout) HitTest(at Point, tol float64) bool {
	anchor, tip, ok := c.two()
	if !ok {
		return false
	}
	if nearSegment(at, anchor, tip, tol) {
		return true
	}
	a, b, _ := c.labelBounds()
	return insideRect(at, a, b)
}

// --- persistence ---

type textCarrier interface {
	Text() string
}

type drawingJSON struct {
	ID     string  `json:"id"`
	Type   Kind    `json:"type"`
	Color  string  `json:"color"`
	Text   string  `json:"text,omitempty"`
	Points []Point `json:"points"`
}

// EncodeDrawings serializes a committed drawing set for session snapshots.
func EncodeDrawings(drawings []*Drawing) ([]byte, error) {
	out := make([]drawingJSON, len(drawings))
	for i, d := range drawings {
		out[i] = drawingJSON{
			ID:     d.ID,
			Type:   d.Shape.Kind(),
			Color:  d.Color,
			Points: d.Shape.Points(),
		}
		if tc, ok := d.Shape.(textCarrier); ok {
			out[i].Text = tc.Text()
		}
	}
	return json.Marshal(out)
}

// DecodeDrawings restores a drawing set from a snapshot blob.
func DecodeDrawings(data []byte, m Measurer) ([]*Drawing, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raw []drawingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode drawings: %w", err)
	}

	drawings := make([]*Drawing, 0, len(raw))
	for _, r := range raw {
		shape, err := NewShape(r.Type, r.Points, r.Text, m)
		if err != nil {
			return nil, err
		}
		drawings = append(drawings, &Drawing{ID: r.ID, Color: r.Color, Shape: shape})
	}
	return drawings, nil
}
