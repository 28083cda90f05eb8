/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package shape derives drawable outlines, hit regions and connection handles
// from diagram nodes.
package shape

import (
	"flowsketch/internal/domain"
	"flowsketch/internal/vector"
)

const (
	dataInset = 10.0
	skew      = 15.0
	waveDepth = 10.0
)

// Outline returns the path drawn for n. Text nodes have no outline and report ok == false.
// Unknown kinds fall back to the bounding rectangle.
func Outline(n domain.Node) (p vector.Path, ok bool) {
	x, y, w, h := n.X, n.Y, n.Width, n.Height
	switch n.Kind {
	case domain.KindStart, domain.KindEnd:
		p.Circle(x+w/2, y+h/2, w/2)
	case domain.KindDecision:
		p = vector.Polygon(
			vector.Pt{X: x + w/2, Y: y},
			vector.Pt{X: x + w, Y: y + h/2},
			vector.Pt{X: x + w/2, Y: y + h},
			vector.Pt{X: x, Y: y + h/2},
		)
	case domain.KindData:
		p = vector.Polygon(
			vector.Pt{X: x + dataInset, Y: y},
			vector.Pt{X: x + w, Y: y},
			vector.Pt{X: x + w - dataInset, Y: y + h},
			vector.Pt{X: x, Y: y + h},
		)
	case domain.KindDocument:
		p.MoveTo(x, y)
		p.LineTo(x+w, y)
		p.LineTo(x+w, y+h-waveDepth)
		p.QuadTo(x+w*0.75, y+h, x+w/2, y+h-waveDepth/2)
		p.QuadTo(x+w*0.25, y+h-waveDepth, x, y+h-waveDepth)
		p.Close()
	case domain.KindCloud:
		p.Ellipse(x+w/2, y+h/2, w/2, h/2)
	case domain.KindHexagon:
		p = vector.Polygon(
			vector.Pt{X: x + w*0.25, Y: y},
			vector.Pt{X: x + w*0.75, Y: y},
			vector.Pt{X: x + w, Y: y + h/2},
			vector.Pt{X: x + w*0.75, Y: y + h},
			vector.Pt{X: x + w*0.25, Y: y + h},
			vector.Pt{X: x, Y: y + h/2},
		)
	case domain.KindParallelogram:
		p = vector.Polygon(
			vector.Pt{X: x + skew, Y: y},
			vector.Pt{X: x + w, Y: y},
			vector.Pt{X: x + w - skew, Y: y + h},
			vector.Pt{X: x, Y: y + h},
		)
	case domain.KindText:
		return vector.Path{}, false
	default:
		p = vector.Polygon(
			vector.Pt{X: x, Y: y},
			vector.Pt{X: x + w, Y: y},
			vector.Pt{X: x + w, Y: y + h},
			vector.Pt{X: x, Y: y + h},
		)
	}
	return p, true
}

// ContainsPoint tests p against the node's bounding box, edges included.
// Diamond and hexagon corners outside the drawn outline still count as hits.
func ContainsPoint(n domain.Node, p vector.Pt) bool {
	return n.Bounds().Contains(p)
}
