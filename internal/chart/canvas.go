package chart

// The drawing engine does not touch a rendering API directly. Each frame
// it emits a flat list of draw commands that any 2D backend (canvas, SVG,
// native surface) can replay in order.

type CommandKind string

const (
	CmdClear CommandKind = "clear"
	CmdLine  CommandKind = "line"
	CmdRect  CommandKind = "rect"
	CmdLabel CommandKind = "label"
)

// Command is one tagged draw instruction. Field use depends on Kind:
// lines use both endpoints, rects treat (X1,Y1)-(X2,Y2) as opposite
// corners, labels anchor their text at (X1,Y1).
type Command struct {
	Kind      CommandKind
	X1, Y1    float64
	X2, Y2    float64
	Color     string
	Width     float64
	Dashed    bool
	Round     bool
	Fill      string
	Text      string
	Highlight bool
}

func line(a, b Point, color string, width float64) Command {
	return Command{Kind: CmdLine, X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y, Color: color, Width: width}
}

func dashedLine(a, b Point, color string, width float64) Command {
	c := line(a, b, color, width)
	c.Dashed = true
	return c
}

func filledRect(a, b Point, fill, stroke string, width float64) Command {
	return Command{Kind: CmdRect, X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y, Fill: fill, Color: stroke, Width: width}
}

func label(x, y float64, text, color string) Command {
	return Command{Kind: CmdLabel, X1: x, Y1: y, Text: text, Color: color}
}

// withAlpha appends a two-digit hex alpha to a #RRGGBB color, the same
// suffix trick the toolbar palette uses for translucent fills.
func withAlpha(color, alpha string) string {
	if len(color) == 7 && color[0] == '#' {
		return color + alpha
	}
	return color
}

// Measurer estimates the rendered size of a label so text and callout
// shapes can hit-test their bounding boxes. The core owns no font
// rasterizer; hosts with real text metrics provide their own.
type Measurer interface {
	MeasureText(text string) (width, height float64)
}

type fixedMeasurer struct{}

func (fixedMeasurer) MeasureText(text string) (float64, float64) {
	return float64(len([]rune(text))) * 7, 16
}
