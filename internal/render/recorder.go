/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import "flowsketch/internal/vector"

type OpKind uint8

const (
	OpClear OpKind = iota
	OpPush
	OpPop
	OpFill
	OpStroke
	OpText
)

// Op is one recorded Surface call.
type Op struct {
	Kind   OpKind
	Path   vector.Path
	Color  vector.Color // clear or fill color
	Stroke vector.Stroke
	Matrix vector.Affine2D
	Text   string
	At     vector.Pt
	Style  TextStyle
}

// Recorder is a Surface that stores calls instead of drawing them.
type Recorder struct{ Ops []Op }

var _ Surface = (*Recorder)(nil)

func (r *Recorder) Clear(bg vector.Color) {
	r.Ops = append(r.Ops[:0], Op{Kind: OpClear, Color: bg})
}
func (r *Recorder) PushTransform(m vector.Affine2D) {
	r.Ops = append(r.Ops, Op{Kind: OpPush, Matrix: m})
}
func (r *Recorder) PopTransform() { r.Ops = append(r.Ops, Op{Kind: OpPop}) }
func (r *Recorder) FillPath(p vector.Path, c vector.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpFill, Path: p, Color: c})
}
func (r *Recorder) StrokePath(p vector.Path, s vector.Stroke) {
	r.Ops = append(r.Ops, Op{Kind: OpStroke, Path: p, Stroke: s})
}
func (r *Recorder) FillText(text string, at vector.Pt, st TextStyle) {
	r.Ops = append(r.Ops, Op{Kind: OpText, Text: text, At: at, Style: st})
}

// Kinds returns the op kinds in call order.
func (r *Recorder) Kinds() []OpKind {
	out := make([]OpKind, len(r.Ops))
	for i, o := range r.Ops {
		out[i] = o.Kind
	}
	return out
}

// Filter returns the ops of kind k.
func (r *Recorder) Filter(k OpKind) []Op {
	var out []Op
	for _, o := range r.Ops {
		if o.Kind == k {
			out = append(out, o)
		}
	}
	return out
}
