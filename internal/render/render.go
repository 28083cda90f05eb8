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

	"flowsketch/internal/domain"
	"flowsketch/internal/shape"
	"flowsketch/internal/vector"
)

// Fixed editor colors. Node and connection colors come from the document.
var (
	SelectedStroke    = vector.MustHex("#FFFF00")
	ConnectFromStroke = vector.MustHex("#FF0000")
	Accent            = vector.MustHex("#00FF99")
	HandleFill        = vector.White
)

const (
	LabelSize       = 14.0
	LabelFamily     = "monospace"
	arrowSize       = 10.0
	arrowSpread     = math.Pi / 6
	handleRadius    = 5.0
	hoveredRadius   = 7.0
	handleLineWidth = 2.0
	highlightWidth  = 3.0
	borderWidth     = 2.0
)

var previewDash = []float64{5, 5}

// Frame is everything Render needs for one redraw.
type Frame struct {
	Nodes       []domain.Node
	Connections []domain.Connection
	View        vector.Affine2D
	Background  vector.Color

	Selected    string
	ConnectFrom string

	// Dragging is true while a handle-to-handle connection gesture is active.
	Dragging     bool
	DragFrom     vector.Pt
	Cursor       vector.Pt
	PreviewColor string
	PreviewWidth float64

	ShowHandles bool
	Hovered     shape.Handle
	HasHovered  bool
}

// DocumentFrame renders a document on its own: identity view, no selection and
// no handles. Used for exports that should not show editor chrome.
func DocumentFrame(doc domain.Document, bg vector.Color) Frame {
	return Frame{Nodes: doc.Nodes, Connections: doc.Connections, View: vector.Identity, Background: bg}
}

// Render clears s and draws f in connection, preview, node order.
func Render(s Surface, f Frame) {
	s.Clear(f.Background)
	s.PushTransform(f.View)
	defer s.PopTransform()

	byID := make(map[string]domain.Node, len(f.Nodes))
	for _, n := range f.Nodes {
		byID[n.ID] = n
	}
	for _, c := range f.Connections {
		from, ok1 := byID[c.From]
		to, ok2 := byID[c.To]
		if !ok1 || !ok2 {
			continue
		}
		drawConnection(s, c, from, to)
	}

	if f.Dragging {
		s.StrokePath(vector.Line(f.DragFrom, f.Cursor), vector.Stroke{
			Color: parseColor(f.PreviewColor, Accent),
			Width: f.PreviewWidth,
			Dash:  previewDash,
		})
	}

	handles := f.ShowHandles || f.Dragging
	for _, n := range f.Nodes {
		drawNode(s, f, n)
		if handles {
			drawHandles(s, f, n)
		}
	}
}

func drawConnection(s Surface, c domain.Connection, from, to domain.Node) {
	col := parseColor(c.Color, Accent)
	a, b := from.Center(), to.Center()
	s.StrokePath(vector.Line(a, b), vector.Stroke{Color: col, Width: c.LineWidth, Dash: c.LineStyle.Dash()})

	// The angle uses top-left deltas; for nodes of different sizes the arrow
	// is slightly off the drawn line, matching the stored diagrams' look.
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	var head vector.Path
	for _, d := range []float64{-arrowSpread, arrowSpread} {
		head.MoveTo(b.X, b.Y)
		head.LineTo(b.X-arrowSize*math.Cos(angle+d), b.Y-arrowSize*math.Sin(angle+d))
	}
	s.StrokePath(head, vector.Stroke{Color: col, Width: c.LineWidth})
}

func drawNode(s Surface, f Frame, n domain.Node) {
	if p, ok := shape.Outline(n); ok {
		st := vector.Stroke{Color: parseColor(n.BorderColor, Accent), Width: borderWidth}
		switch {
		case f.ConnectFrom != "" && n.ID == f.ConnectFrom:
			st = vector.Stroke{Color: ConnectFromStroke, Width: highlightWidth}
		case f.Selected != "" && n.ID == f.Selected:
			st = vector.Stroke{Color: SelectedStroke, Width: highlightWidth}
		}
		s.FillPath(p, parseColor(n.FillColor, vector.Transparent))
		s.StrokePath(p, st)
	}
	s.FillText(n.Label, n.Center(), TextStyle{
		Color:  parseColor(n.TextColor, vector.White),
		Size:   LabelSize,
		Family: LabelFamily,
	})
}

func drawHandles(s Surface, f Frame, n domain.Node) {
	for _, h := range shape.Handles(n) {
		r, fill := handleRadius, HandleFill
		if f.HasHovered && f.Hovered.Is(h) {
			r, fill = hoveredRadius, Accent
		}
		var p vector.Path
		p.Circle(h.Pos.X, h.Pos.Y, r)
		s.FillPath(p, fill)
		s.StrokePath(p, vector.Stroke{Color: Accent, Width: handleLineWidth})
	}
}

func parseColor(hex string, fallback vector.Color) vector.Color {
	c, err := vector.ParseHex(hex)
	if err != nil {
		return fallback
	}
	return c
}
