package chart

import (
	"sync"

	"github.com/google/uuid"
)

// TextPrompt is the external modal used by the text and callout tools. It
// blocks until the user submits a string or cancels.
type TextPrompt interface {
	RequestText(anchor Point) (string, bool)
}

type gestureState int

const (
	gestureIdle gestureState = iota
	gestureDrawing
	gestureDragging
)

// Engine owns the committed annotation set and interprets pointer events
// against the active tool. All state lives in engine fields and is read at
// dispatch time under a single mutex, so a pointer-move handler always
// observes the tool and gesture current at event delivery even when the
// host drives it from multiple goroutines.
type Engine struct {
	mu sync.Mutex

	vp       Viewport
	tool     Tool
	gesture  gestureState
	drawings []*Drawing
	current  []Point

	selectedID string
	dragStart  Point
	dragPoints []Point

	prompt   TextPrompt
	measurer Measurer
	onChange func()
}

type EngineOption func(*Engine)

// WithTextPrompt installs the modal used by text and callout tools.
// Without one those tools discard their gestures.
func WithTextPrompt(p TextPrompt) EngineOption {
	return func(e *Engine) { e.prompt = p }
}

func WithMeasurer(m Measurer) EngineOption {
	return func(e *Engine) { e.measurer = m }
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		tool:     ToolSelect,
		measurer: fixedMeasurer{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetOnChange registers the host's re-render callback, fired after every
// state change that affects the frame.
func (e *Engine) SetOnChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// SetViewport installs the chart host's current visible range. Called on
// every pan/zoom notification so annotations track the view with no lag.
func (e *Engine) SetViewport(vp Viewport) {
	e.mu.Lock()
	e.vp = vp
	e.reprojectLocked()
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) Viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp
}

func (e *Engine) SetTool(t Tool) {
	e.mu.Lock()
	e.tool = t
	e.current = nil
	e.gesture = gestureIdle
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) Tool() Tool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

func (e *Engine) SelectedID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedID
}

// Drawings returns the committed set oldest-first.
func (e *Engine) Drawings() []*Drawing {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Drawing, len(e.drawings))
	copy(out, e.drawings)
	return out
}

// PointerDown starts a gesture at the given pixel position.
func (e *Engine) PointerDown(x, y float64) {
	e.mu.Lock()
	pt := e.vp.PixelToAnchor(x, y)

	switch {
	case e.tool == ToolNone:
		e.mu.Unlock()
		return

	case e.tool == ToolSelect:
		e.reprojectLocked()
		hit := FindTopmostHit(pt, e.drawings)
		switch {
		case hit == nil:
			e.selectedID = ""
		case hit.ID == e.selectedID:
			// Second press on the selected shape starts a drag. The
			// shape's points are captured so the drag translates the
			// original geometry, not an accumulating delta.
			e.gesture = gestureDragging
			e.dragStart = pt
			e.dragPoints = clonePoints(hit.Shape.Points())
		default:
			e.selectedID = hit.ID
		}
		e.mu.Unlock()
		e.notify()
		return

	case e.tool == Tool(KindText):
		// Text bypasses the drawing state: prompt immediately, commit a
		// one-point drawing on submit.
		prompt := e.prompt
		e.mu.Unlock()
		if prompt == nil {
			return
		}
		text, ok := prompt.RequestText(pt)
		if !ok || text == "" {
			return
		}
		e.mu.Lock()
		e.commitLocked(KindText, []Point{pt}, text)
		e.mu.Unlock()
		e.notify()
		return
	}

	// Active drawing tool: selection never fires, a fresh gesture begins.
	e.selectedID = ""
	e.current = []Point{pt}
	e.gesture = gestureDrawing
	e.mu.Unlock()
	e.notify()
}

// PointerMove extends the active gesture. Two-point tools rubber-band
// between the start and the cursor; freehand accumulates the full
// polyline; a drag translates the captured shape live.
func (e *Engine) PointerMove(x, y float64) {
	e.mu.Lock()
	pt := e.vp.PixelToAnchor(x, y)

	switch e.gesture {
	case gestureDrawing:
		if Kind(e.tool) == KindFreehand {
			e.current = append(e.current, pt)
		} else if len(e.current) > 0 {
			e.current = []Point{e.current[0], pt}
		}

	case gestureDragging:
		d := e.findLocked(e.selectedID)
		if d == nil {
			e.gesture = gestureIdle
			e.mu.Unlock()
			return
		}
		dx := x - e.dragStart.X
		dy := y - e.dragStart.Y
		d.Shape.SetPoints(translatePoints(e.vp, e.dragPoints, dx, dy))

	default:
		e.mu.Unlock()
		return
	}

	e.mu.Unlock()
	e.notify()
}

// PointerUp completes the active gesture. Successful drawing gestures
// commit a new drawing and select it; every tool except freehand then
// deactivates back to select.
func (e *Engine) PointerUp() {
	e.mu.Lock()

	switch e.gesture {
	case gestureDragging:
		e.gesture = gestureIdle
		e.dragPoints = nil
		e.mu.Unlock()
		e.notify()
		return

	case gestureDrawing:
		kind, _ := e.tool.Kind()
		pts := e.current
		e.current = nil
		e.gesture = gestureIdle

		if len(pts) < 2 {
			e.mu.Unlock()
			return
		}

		if kind == KindCallout {
			prompt := e.prompt
			e.mu.Unlock()
			if prompt == nil {
				return
			}
			text, ok := prompt.RequestText(pts[1])
			if !ok || text == "" {
				return
			}
			e.mu.Lock()
			e.commitLocked(KindCallout, pts, text)
			e.tool = ToolSelect
			e.mu.Unlock()
			e.notify()
			return
		}

		e.commitLocked(kind, pts, "")
		if kind != KindFreehand {
			e.tool = ToolSelect
		}
		e.mu.Unlock()
		e.notify()
		return
	}

	e.mu.Unlock()
}

// DeleteSelected removes the selected drawing. No-op without a selection;
// irreversible within the session.
func (e *Engine) DeleteSelected() {
	e.mu.Lock()
	if e.selectedID == "" {
		e.mu.Unlock()
		return
	}
	for i, d := range e.drawings {
		if d.ID == e.selectedID {
			e.drawings = append(e.drawings[:i], e.drawings[i+1:]...)
			break
		}
	}
	e.selectedID = ""
	e.mu.Unlock()
	e.notify()
}

// ClearAll empties the committed set and cancels any in-progress gesture.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	e.drawings = nil
	e.current = nil
	e.selectedID = ""
	e.gesture = gestureIdle
	e.mu.Unlock()
	e.notify()
}

// Render produces the frame's draw-command list: a clear, every committed
// drawing at its re-projected anchors (the selected one emphasized with
// endpoint handles), then the in-progress gesture through the same
// per-shape renderers.
func (e *Engine) Render() []Command {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reprojectLocked()

	cmds := []Command{{Kind: CmdClear}}
	for _, d := range e.drawings {
		selected := d.ID == e.selectedID
		cmds = append(cmds, d.Shape.Render(e.vp, Style{Color: d.Color, Selected: selected})...)
		if selected {
			cmds = append(cmds, handleCommands(d)...)
		}
	}

	if e.gesture == gestureDrawing && len(e.current) >= 2 {
		kind, ok := e.tool.Kind()
		if ok {
			if shape, err := NewShape(kind, clonePoints(e.current), "", e.measurer); err == nil {
				cmds = append(cmds, shape.Render(e.vp, Style{Color: DefaultColor(kind)})...)
			}
		}
	}

	return cmds
}

// RestoreDrawings replaces the committed set from a snapshot blob.
func (e *Engine) RestoreDrawings(data []byte) error {
	e.mu.Lock()
	drawings, err := DecodeDrawings(data, e.measurer)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.drawings = drawings
	e.current = nil
	e.selectedID = ""
	e.gesture = gestureIdle
	e.mu.Unlock()
	e.notify()
	return nil
}

// SnapshotDrawings serializes the committed set for persistence.
func (e *Engine) SnapshotDrawings() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EncodeDrawings(e.drawings)
}

func (e *Engine) commitLocked(kind Kind, pts []Point, text string) {
	shape, err := NewShape(kind, pts, text, e.measurer)
	if err != nil {
		return
	}
	d := &Drawing{
		ID:    uuid.New().String(),
		Color: DefaultColor(kind),
		Shape: shape,
	}
	e.drawings = append(e.drawings, d)
	e.selectedID = d.ID
}

func (e *Engine) findLocked(id string) *Drawing {
	for _, d := range e.drawings {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// reprojectLocked refreshes every committed point's pixel position from
// its anchor under the current viewport. Unanchored points keep their raw
// pixels, so a not-yet-ready chart never corrupts committed state.
func (e *Engine) reprojectLocked() {
	for _, d := range e.drawings {
		pts := d.Shape.Points()
		for i := range pts {
			pts[i] = e.vp.AnchorToPixel(pts[i])
		}
		d.Shape.SetPoints(pts)
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// translatePoints shifts every point by the same pixel delta and
// re-derives its anchor. When the viewport cannot re-project, the original
// point passes through unchanged for this frame.
func translatePoints(vp Viewport, pts []Point, dx, dy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		if !vp.Ready() {
			out[i] = p
			continue
		}
		out[i] = vp.PixelToAnchor(p.X+dx, p.Y+dy)
	}
	return out
}

func clonePoints(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

const handleSize = 6.0

// handleCommands draws small square grips on the selected shape's
// endpoints. Freehand strokes get grips on their first and last point
// only.
func handleCommands(d *Drawing) []Command {
	pts := d.Shape.Points()
	if len(pts) == 0 {
		return nil
	}
	if d.Shape.Kind() == KindFreehand && len(pts) > 2 {
		pts = []Point{pts[0], pts[len(pts)-1]}
	}

	cmds := make([]Command, 0, len(pts))
	for _, p := range pts {
		a := Point{X: p.X - handleSize/2, Y: p.Y - handleSize/2}
		b := Point{X: p.X + handleSize/2, Y: p.Y + handleSize/2}
		cmds = append(cmds, filledRect(a, b, "#FFFFFF", d.Color, 1))
	}
	return cmds
}
