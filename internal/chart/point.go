package chart

// Point is a drawing endpoint. X/Y are transient pixel coordinates,
// recomputed every render from the logical anchor. Time (a fractional
// chart index) and Price are the persisted anchor and are only meaningful
// when Anchored is true; tools that the chart cannot project (or points
// captured before the viewport was ready) keep raw pixels only.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Time     float64 `json:"time,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Anchored bool    `json:"anchored,omitempty"`
}

type Kind string

const (
	KindFreehand   Kind = "freehand"
	KindTrendline  Kind = "trendline"
	KindHorizontal Kind = "horizontal"
	KindRectangle  Kind = "rectangle"
	KindFibonacci  Kind = "fibonacci"
	KindRiskReward Kind = "riskReward"
	KindText       Kind = "text"
	KindCallout    Kind = "callout"
)

// Tool is the active toolbar selection. Drawing tools share their kind's
// string value; ToolSelect arms selection and dragging, ToolNone is inert.
type Tool string

const (
	ToolNone   Tool = "none"
	ToolSelect Tool = "select"
)

func (t Tool) Kind() (Kind, bool) {
	switch Kind(t) {
	case KindFreehand, KindTrendline, KindHorizontal, KindRectangle,
		KindFibonacci, KindRiskReward, KindText, KindCallout:
		return Kind(t), true
	}
	return "", false
}

// DefaultColor mirrors the per-tool palette of the chart toolbar.
func DefaultColor(k Kind) string {
	switch k {
	case KindTrendline:
		return "#2962FF"
	case KindHorizontal:
		return "#FF6D00"
	case KindRectangle:
		return "#00897B"
	case KindFibonacci:
		return "#9C27B0"
	case KindRiskReward:
		return "#F44336"
	case KindText, KindCallout:
		return "#37474F"
	default:
		return "#000000"
	}
}
