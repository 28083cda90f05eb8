/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Path commands and shapes.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

func (op PathOp) String() string {
	switch op {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case QuadTo:
		return "Q"
	case CubicTo:
		return "C"
	case Close:
		return "Z"
	}
	return "?"
}

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

// Points returns the end/control points carried by the command.
func (c PathCmd) Points() []Pt {
	switch c.Op {
	case MoveTo, LineTo:
		return []Pt{{c.Data[0], c.Data[1]}}
	case QuadTo:
		return []Pt{{c.Data[0], c.Data[1]}, {c.Data[2], c.Data[3]}}
	case CubicTo:
		return []Pt{{c.Data[0], c.Data[1]}, {c.Data[2], c.Data[3]}, {c.Data[4], c.Data[5]}}
	}
	return nil
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float64{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// kappa places cubic control points so four segments approximate a quarter ellipse each.
const kappa = 0.5522847498307936

// Ellipse appends a closed ellipse centered at (cx, cy) as four cubic segments,
// starting at the rightmost point and running clockwise in screen space.
func (p *Path) Ellipse(cx, cy, rx, ry float64) {
	kx, ky := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.Close()
}

// Circle appends a closed circle.
func (p *Path) Circle(cx, cy, r float64) { p.Ellipse(cx, cy, r, r) }

// Line is a convenience for a single open segment.
func Line(a, b Pt) Path {
	var p Path
	p.MoveTo(a.X, a.Y)
	p.LineTo(b.X, b.Y)
	return p
}

// Polygon returns a closed path through pts.
func Polygon(pts ...Pt) Path {
	var p Path
	for i, q := range pts {
		if i == 0 {
			p.MoveTo(q.X, q.Y)
			continue
		}
		p.LineTo(q.X, q.Y)
	}
	if len(pts) > 0 {
		p.Close()
	}
	return p
}

// Transform returns a copy of p with m applied to every point.
func (p Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		nc := PathCmd{Op: c.Op}
		for j, q := range c.Points() {
			t := m.Apply(q)
			nc.Data[2*j] = t.X
			nc.Data[2*j+1] = t.Y
		}
		out.Cmds[i] = nc
	}
	return out
}

// Bounds returns an axis-aligned bounding box of the path using a simple
// approximation by considering control points. This is sufficient for
// selection rectangles and export page sizing.
func (p *Path) Bounds() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range p.Cmds {
		for _, q := range c.Points() {
			minX = math.Min(minX, q.X)
			minY = math.Min(minY, q.Y)
			maxX = math.Max(maxX, q.X)
			maxY = math.Max(maxY, q.Y)
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
