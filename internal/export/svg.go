/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"flowsketch/internal/render"
	"flowsketch/internal/vector"
)

// SVGSurface builds an SVG document. Transforms become nested <g> groups so
// the output keeps document coordinates.
type SVGSurface struct {
	w, h  int
	buf   bytes.Buffer
	depth int
	err   error
}

var _ render.Surface = (*SVGSurface)(nil)

func NewSVGSurface(w, h int) *SVGSurface {
	s := &SVGSurface{w: w, h: h}
	s.header()
	return s
}

func (s *SVGSurface) wf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(&s.buf, format, args...)
}

func (s *SVGSurface) header() {
	s.wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	s.wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n", s.w, s.h, s.w, s.h)
}

func (s *SVGSurface) indent() string { return strings.Repeat("  ", s.depth+1) }

// Clear restarts the document with a background rectangle.
func (s *SVGSurface) Clear(bg vector.Color) {
	s.buf.Reset()
	s.depth = 0
	s.err = nil
	s.header()
	s.wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\"%s/>\n", s.w, s.h, paint("fill", bg))
}

func (s *SVGSurface) PushTransform(m vector.Affine2D) {
	s.wf("%s<g transform=\"matrix(%s %s %s %s %s %s)\">\n", s.indent(), num(m.A), num(m.B), num(m.C), num(m.D), num(m.E), num(m.F))
	s.depth++
}

func (s *SVGSurface) PopTransform() {
	if s.depth == 0 {
		return
	}
	s.depth--
	s.wf("%s</g>\n", s.indent())
}

func (s *SVGSurface) FillPath(p vector.Path, c vector.Color) {
	if c.A == 0 || len(p.Cmds) == 0 {
		return
	}
	s.wf("%s<path d=\"%s\"%s/>\n", s.indent(), pathData(p), paint("fill", c))
}

func (s *SVGSurface) StrokePath(p vector.Path, st vector.Stroke) {
	if st.Color.A == 0 || st.Width <= 0 || len(p.Cmds) == 0 {
		return
	}
	dash := ""
	if !st.Solid() {
		parts := make([]string, len(st.Dash))
		for i, d := range st.Dash {
			parts[i] = num(d)
		}
		dash = fmt.Sprintf(" stroke-dasharray=\"%s\"", strings.Join(parts, ","))
	}
	s.wf("%s<path d=\"%s\" fill=\"none\"%s stroke-width=\"%s\"%s/>\n", s.indent(), pathData(p), paint("stroke", st.Color), num(st.Width), dash)
}

func (s *SVGSurface) FillText(text string, at vector.Pt, st render.TextStyle) {
	if text == "" || st.Color.A == 0 {
		return
	}
	s.wf("%s<text x=\"%s\" y=\"%s\" text-anchor=\"middle\" dominant-baseline=\"middle\" font-family=\"%s\" font-size=\"%s\"%s>%s</text>\n",
		s.indent(), num(at.X), num(at.Y), escAttr(st.Family), num(st.Size), paint("fill", st.Color), escText(text))
}

// Bytes closes any open groups and returns the finished document.
func (s *SVGSurface) Bytes() ([]byte, error) {
	for s.depth > 0 {
		s.PopTransform()
	}
	s.wf("</svg>\n")
	if s.err != nil {
		return nil, fmt.Errorf("build svg: %w", s.err)
	}
	return s.buf.Bytes(), nil
}

func pathData(p vector.Path) string {
	var b strings.Builder
	for i, c := range p.Cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch c.Op {
		case vector.MoveTo:
			b.WriteString("M")
		case vector.LineTo:
			b.WriteString("L")
		case vector.QuadTo:
			b.WriteString("Q")
		case vector.CubicTo:
			b.WriteString("C")
		case vector.Close:
			b.WriteString("Z")
			continue
		}
		for j, pt := range c.Points() {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(num(pt.X))
			b.WriteByte(',')
			b.WriteString(num(pt.Y))
		}
	}
	return b.String()
}

// paint renders a color attribute plus an opacity attribute when translucent.
func paint(attr string, c vector.Color) string {
	out := fmt.Sprintf(" %s=\"#%02x%02x%02x\"", attr, c.R, c.G, c.B)
	if c.A < 255 {
		out += fmt.Sprintf(" %s-opacity=\"%s\"", attr, num(float64(c.A)/255))
	}
	return out
}

func num(v float64) string { return strconv.FormatFloat(vector.FloatRound(v, 3), 'f', -1, 64) }

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
