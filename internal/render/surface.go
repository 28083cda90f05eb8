/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render draws a diagram frame onto an abstract Surface. Render is pure:
// it reads the frame and issues drawing calls, nothing else.
package render

import "flowsketch/internal/vector"

// TextStyle describes a label. Text is centered horizontally and vertically on
// the anchor point.
type TextStyle struct {
	Color  vector.Color
	Size   float64
	Family string
}

// Surface is the drawing target. Transforms nest; every PushTransform is
// matched by a PopTransform within one Render call.
type Surface interface {
	Clear(bg vector.Color)
	PushTransform(m vector.Affine2D)
	PopTransform()
	FillPath(p vector.Path, c vector.Color)
	StrokePath(p vector.Path, s vector.Stroke)
	FillText(text string, at vector.Pt, st TextStyle)
}
