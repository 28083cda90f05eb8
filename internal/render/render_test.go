/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"math"
	"testing"

	"flowsketch/internal/domain"
	"flowsketch/internal/shape"
	"flowsketch/internal/vector"
)

func twoNodes() []domain.Node {
	return []domain.Node{
		{ID: "a", Kind: domain.KindProcess, X: 0, Y: 0, Width: 100, Height: 60, Label: "A", FillColor: "#0A0A0A", BorderColor: "#00FF99", TextColor: "#FFFFFF"},
		{ID: "b", Kind: domain.KindText, X: 200, Y: 0, Width: 150, Height: 40, Label: "B", TextColor: "#123456"},
	}
}

func TestRenderOrder(t *testing.T) {
	var r Recorder
	Render(&r, Frame{
		Nodes:       twoNodes(),
		Connections: []domain.Connection{{ID: "c", From: "a", To: "b", Color: "#00FF99", LineWidth: 2, LineStyle: domain.LineDashed}},
		View:        vector.Translate(5, 5),
	})
	want := []OpKind{
		OpClear, OpPush,
		OpStroke, OpStroke, // connection + arrowhead
		OpFill, OpStroke, OpText, // node a
		OpText, // text node b has no outline
		OpPop,
	}
	got := r.Kinds()
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d: got %v want %v (%v)", i, got[i], want[i], got)
		}
	}
	if r.Ops[1].Matrix != vector.Translate(5, 5) {
		t.Fatalf("view transform not pushed: %+v", r.Ops[1].Matrix)
	}
	line, head := r.Ops[2].Stroke, r.Ops[3].Stroke
	if len(line.Dash) != 2 || line.Dash[0] != 10 || !head.Solid() {
		t.Fatalf("dashed line with solid arrowhead expected, got %v / %v", line.Dash, head.Dash)
	}
	if txt := r.Ops[7]; txt.Text != "B" || txt.Style.Color != vector.MustHex("#123456") || txt.Style.Size != 14 {
		t.Fatalf("unexpected label op %+v", txt)
	}
}

func TestArrowheadUsesTopLeftAngle(t *testing.T) {
	nodes := []domain.Node{
		{ID: "a", X: 0, Y: 0, Width: 100, Height: 60},
		{ID: "b", X: 300, Y: 0, Width: 100, Height: 60},
	}
	var r Recorder
	Render(&r, Frame{Nodes: nodes, Connections: []domain.Connection{{From: "a", To: "b", LineWidth: 1}}, View: vector.Identity})
	head := r.Filter(OpStroke)[1].Path
	tip := vector.Pt{X: 350, Y: 30}
	wing := head.Cmds[1].Points()[0]
	want := vector.Pt{X: 350 - 10*math.Cos(-math.Pi/6), Y: 30 - 10*math.Sin(-math.Pi/6)}
	if head.Cmds[0].Points()[0] != tip || !wing.Near(want, 1e-9) {
		t.Fatalf("arrow wing got %+v want %+v", wing, want)
	}
}

func TestConnectFromBeatsSelected(t *testing.T) {
	var r Recorder
	Render(&r, Frame{Nodes: twoNodes()[:1], View: vector.Identity, Selected: "a", ConnectFrom: "a"})
	st := r.Filter(OpStroke)[0].Stroke
	if st.Color != ConnectFromStroke || st.Width != 3 {
		t.Fatalf("expected red width 3, got %+v", st)
	}
	r = Recorder{}
	Render(&r, Frame{Nodes: twoNodes()[:1], View: vector.Identity, Selected: "a"})
	if st := r.Filter(OpStroke)[0].Stroke; st.Color != SelectedStroke || st.Width != 3 {
		t.Fatalf("expected yellow width 3, got %+v", st)
	}
	r = Recorder{}
	Render(&r, Frame{Nodes: twoNodes()[:1], View: vector.Identity})
	if st := r.Filter(OpStroke)[0].Stroke; st.Color != vector.MustHex("#00FF99") || st.Width != 2 {
		t.Fatalf("expected border width 2, got %+v", st)
	}
}

func TestHandlesFollowEachNode(t *testing.T) {
	nodes := twoNodes()
	var r Recorder
	Render(&r, Frame{
		Nodes: nodes, View: vector.Identity, ShowHandles: true,
		Hovered: shape.Handles(nodes[0])[1], HasHovered: true,
	})
	// node a: fill, stroke, text, then 4 x (fill, stroke); node b: text, then 4 x (fill, stroke)
	if got := len(r.Ops); got != 2+3+8+1+8+1 {
		t.Fatalf("unexpected op count %d", got)
	}
	hovered := r.Ops[5+2] // second handle fill of node a
	if hovered.Kind != OpFill || hovered.Color != Accent {
		t.Fatalf("hovered handle should be filled with accent: %+v", hovered)
	}
	if b := hovered.Path.Bounds(); math.Abs(b.W-14) > 1e-9 {
		t.Fatalf("hovered radius should be 7, bounds %+v", b)
	}
	if first := r.Ops[5]; first.Color != HandleFill || math.Abs(first.Path.Bounds().W-10) > 1e-9 {
		t.Fatalf("normal handle radius 5 white, got %+v", first)
	}
}

func TestDragPreviewShowsHandlesAndDashedLine(t *testing.T) {
	var r Recorder
	Render(&r, Frame{
		Nodes: twoNodes()[:1], View: vector.Identity,
		Dragging: true, DragFrom: vector.Pt{X: 50}, Cursor: vector.Pt{X: 90, Y: 90},
		PreviewColor: "#FF00FF", PreviewWidth: 4,
	})
	pre := r.Ops[2]
	if pre.Kind != OpStroke || pre.Stroke.Color != vector.MustHex("#FF00FF") || pre.Stroke.Width != 4 {
		t.Fatalf("unexpected preview %+v", pre)
	}
	if len(pre.Stroke.Dash) != 2 || pre.Stroke.Dash[0] != 5 || pre.Stroke.Dash[1] != 5 {
		t.Fatalf("preview dash %v", pre.Stroke.Dash)
	}
	if len(r.Filter(OpFill)) != 1+4 {
		t.Fatalf("handles should render while dragging even without select tool")
	}
}

func TestDanglingConnectionSkipped(t *testing.T) {
	var r Recorder
	Render(&r, Frame{Nodes: twoNodes()[:1], Connections: []domain.Connection{{From: "a", To: "gone"}}, View: vector.Identity})
	if len(r.Filter(OpStroke)) != 1 {
		t.Fatalf("only the node outline should be stroked")
	}
}
