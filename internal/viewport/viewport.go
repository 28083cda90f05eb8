/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport maps between screen pixels and diagram document coordinates.
package viewport

import "flowsketch/internal/vector"

const (
	MinZoom  = 0.5
	MaxZoom  = 2.0
	ZoomStep = 0.1
)

// spawnScreen is the screen point under which new nodes are placed.
var spawnScreen = vector.Pt{X: 200, Y: 200}

// Viewport holds the pan offset (screen px) and zoom factor. The zero value is
// not usable; call New.
type Viewport struct {
	Offset vector.Pt
	Zoom   float64
}

func New() Viewport { return Viewport{Zoom: 1} }

// ToDocument converts a canvas-relative screen point to document space.
func (v Viewport) ToDocument(s vector.Pt) vector.Pt {
	return vector.Pt{X: (s.X - v.Offset.X) / v.Zoom, Y: (s.Y - v.Offset.Y) / v.Zoom}
}

// ToScreen is the inverse of ToDocument.
func (v Viewport) ToScreen(d vector.Pt) vector.Pt {
	return vector.Pt{X: d.X*v.Zoom + v.Offset.X, Y: d.Y*v.Zoom + v.Offset.Y}
}

// Affine is translate(offset) followed by scale(zoom) for document points.
func (v Viewport) Affine() vector.Affine2D {
	return vector.Translate(v.Offset.X, v.Offset.Y).Mul(vector.Scale(v.Zoom, v.Zoom))
}

// SpawnPoint returns the document position for a newly added node.
func (v Viewport) SpawnPoint() vector.Pt { return v.ToDocument(spawnScreen) }

func (v *Viewport) ZoomIn() { v.setZoom(v.Zoom + ZoomStep) }
func (v *Viewport) ZoomOut() { v.setZoom(v.Zoom - ZoomStep) }
func (v *Viewport) ResetZoom() { v.Zoom = 1 }

// Pan shifts the offset by a raw screen delta; zoom does not scale it.
func (v *Viewport) Pan(dx, dy float64) {
	v.Offset.X += dx
	v.Offset.Y += dy
}

// setZoom rounds to one decimal so repeated steps land exactly on the limits.
func (v *Viewport) setZoom(z float64) {
	z = vector.FloatRound(z, 1)
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	v.Zoom = z
}
