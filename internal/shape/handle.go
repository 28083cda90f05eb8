/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shape

import (
	"flowsketch/internal/domain"
	"flowsketch/internal/vector"
)

// Side names the edge a handle sits on.
type Side string

const (
	Top    Side = "top"
	Right  Side = "right"
	Bottom Side = "bottom"
	Left   Side = "left"
)

// Handle is a connection anchor at the midpoint of one node edge. It is derived
// from the node geometry on demand and never stored.
type Handle struct {
	NodeID string
	Side   Side
	Pos    vector.Pt
}

// Is reports whether h and o denote the same anchor.
func (h Handle) Is(o Handle) bool { return h.NodeID == o.NodeID && h.Side == o.Side }

// Handles returns the four anchors in top, right, bottom, left order.
func Handles(n domain.Node) [4]Handle {
	return [4]Handle{
		{NodeID: n.ID, Side: Top, Pos: vector.Pt{X: n.X + n.Width/2, Y: n.Y}},
		{NodeID: n.ID, Side: Right, Pos: vector.Pt{X: n.X + n.Width, Y: n.Y + n.Height/2}},
		{NodeID: n.ID, Side: Bottom, Pos: vector.Pt{X: n.X + n.Width/2, Y: n.Y + n.Height}},
		{NodeID: n.ID, Side: Left, Pos: vector.Pt{X: n.X, Y: n.Y + n.Height/2}},
	}
}
