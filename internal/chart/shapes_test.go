package chart

import (
	"strings"
	"testing"
)

func TestRectangleRenderTranslucentFill(t *testing.T) {
	s := mustShape(t, KindRectangle, []Point{{X: 10, Y: 20}, {X: 110, Y: 80}}, "")

	cmds := s.Render(testViewport(), Style{Color: "#00897B"})
	if len(cmds) != 1 || cmds[0].Kind != CmdRect {
		t.Fatalf("expected a single rect command")
	}
	if cmds[0].Fill != "#00897B40" {
		t.Fatalf("unexpected fill %q", cmds[0].Fill)
	}
	if cmds[0].Color != "#00897B" {
		t.Fatalf("unexpected stroke %q", cmds[0].Color)
	}
}

func TestFibonacciRenderLevels(t *testing.T) {
	s := mustShape(t, KindFibonacci, []Point{{X: 0, Y: 0}, {X: 100, Y: 100}}, "")

	cmds := s.Render(testViewport(), Style{Color: "#9C27B0"})
	if len(cmds) != 14 {
		t.Fatalf("expected 7 levels with labels, got %d commands", len(cmds))
	}

	var labels []string
	for _, c := range cmds {
		switch c.Kind {
		case CmdLine:
			if !c.Dashed {
				t.Fatalf("levels render dashed")
			}
		case CmdLabel:
			labels = append(labels, c.Text)
			if c.X1 != 105 {
				t.Fatalf("labels sit right of the span, got x=%f", c.X1)
			}
		}
	}
	want := "0%,23.6%,38.2%,50%,61.8%,78.6%,100%"
	if got := strings.Join(labels, ","); got != want {
		t.Fatalf("unexpected labels %q", got)
	}
}

func TestRiskRewardRenderLadder(t *testing.T) {
	s := mustShape(t, KindRiskReward, []Point{{X: 0, Y: 100}, {X: 80, Y: 90}}, "")

	cmds := s.Render(testViewport(), Style{})
	// Entry line + label, then 6 dashed rungs with labels.
	if len(cmds) != 14 {
		t.Fatalf("expected 14 commands, got %d", len(cmds))
	}
	if cmds[0].Color != "#4CAF50" || cmds[1].Text != "Entry" {
		t.Fatalf("entry level mislabeled")
	}

	var rewards, risks []string
	for _, c := range cmds[2:] {
		if c.Kind != CmdLabel {
			continue
		}
		switch c.Color {
		case "#2196F3":
			rewards = append(rewards, c.Text)
		case "#F44336":
			risks = append(risks, c.Text)
		}
	}
	if strings.Join(rewards, ",") != "1:1,1:2,1:3" {
		t.Fatalf("unexpected reward labels %v", rewards)
	}
	if strings.Join(risks, ",") != "1:1,1:2,1:3" {
		t.Fatalf("unexpected risk labels %v", risks)
	}
}

func TestHorizontalRenderSpansViewport(t *testing.T) {
	s := mustShape(t, KindHorizontal, []Point{{X: 40, Y: 60}}, "")

	vp := testViewport()
	cmds := s.Render(vp, Style{Color: "#FF6D00"})
	if len(cmds) != 1 {
		t.Fatalf("expected one line")
	}
	if cmds[0].X1 != 0 || cmds[0].X2 != vp.Width {
		t.Fatalf("line must span the full width: %f..%f", cmds[0].X1, cmds[0].X2)
	}
	if cmds[0].Y1 != 60 || cmds[0].Y2 != 60 {
		t.Fatalf("unexpected level: %f", cmds[0].Y1)
	}
}

func TestCalloutRenderConnectorAndLabel(t *testing.T) {
	s := mustShape(t, KindCallout, []Point{{X: 10, Y: 10}, {X: 100, Y: 40}}, "breakout")

	cmds := s.Render(testViewport(), Style{Color: "#37474F"})
	if len(cmds) != 3 {
		t.Fatalf("expected connector, background and label, got %d", len(cmds))
	}
	if cmds[0].Kind != CmdLine || cmds[1].Kind != CmdRect || cmds[2].Kind != CmdLabel {
		t.Fatalf("unexpected command order")
	}
	if cmds[2].Text != "breakout" || cmds[2].X1 != 100 {
		t.Fatalf("label must anchor at the tip")
	}
}

func TestIncompleteShapesRenderNothing(t *testing.T) {
	for _, kind := range []Kind{KindTrendline, KindRectangle, KindFibonacci, KindRiskReward, KindCallout} {
		s := mustShape(t, kind, []Point{{X: 10, Y: 10}}, "x")
		if cmds := s.Render(testViewport(), Style{}); len(cmds) != 0 {
			t.Fatalf("%s with one point must render nothing", kind)
		}
		if s.HitTest(Point{X: 10, Y: 10}, HitTolerance) {
			t.Fatalf("%s with one point must not hit", kind)
		}
	}
}

func TestEncodeDecodeKeepsText(t *testing.T) {
	drawings := []*Drawing{
		{ID: "d1", Color: "#37474F", Shape: mustShape(t, KindText, []Point{{X: 5, Y: 5}}, "watch this")},
		{ID: "d2", Color: "#2962FF", Shape: mustShape(t, KindTrendline, []Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, "")},
	}

	blob, err := EncodeDrawings(drawings)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	restored, err := DecodeDrawings(blob, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("expected 2 drawings, got %d", len(restored))
	}
	note, ok := restored[0].Shape.(textCarrier)
	if !ok || note.Text() != "watch this" {
		t.Fatalf("text must survive the round trip")
	}
	if restored[1].Shape.Kind() != KindTrendline {
		t.Fatalf("unexpected kind %q", restored[1].Shape.Kind())
	}
}

func TestDecodeDrawingsEmptyBlob(t *testing.T) {
	restored, err := DecodeDrawings(nil, nil)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if restored != nil {
		t.Fatalf("empty blob restores no drawings")
	}
}

func TestNewShapeUnknownKind(t *testing.T) {
	if _, err := NewShape(Kind("polygon"), nil, "", nil); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
