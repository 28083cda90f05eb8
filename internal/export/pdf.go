/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"flowsketch/internal/render"
	"flowsketch/internal/version"
	"flowsketch/internal/vector"
)

// PDFSurface draws onto a single gofpdf page measured in points, one point per
// canvas pixel. Text uses the built-in Courier so labels stay vector without
// embedding a font.
//
// Only translate+scale transforms are supported, which is all the renderer
// pushes for a viewport.
type PDFSurface struct {
	pdf   *gofpdf.Fpdf
	w, h  float64
	depth int
	tr    func(string) string
}

var _ render.Surface = (*PDFSurface)(nil)

func NewPDFSurface(w, h int, title string) *PDFSurface {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(w), Ht: float64(h)},
	})
	pdf.SetTitle(title, true)
	pdf.SetCreator(version.String(), false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()
	pdf.SetLineCapStyle("butt")
	return &PDFSurface{pdf: pdf, w: float64(w), h: float64(h), tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (s *PDFSurface) Clear(bg vector.Color) {
	if bg.A == 0 {
		return
	}
	s.setFill(bg)
	s.pdf.Rect(0, 0, s.w, s.h, "F")
	s.resetAlpha(bg)
}

func (s *PDFSurface) PushTransform(m vector.Affine2D) {
	s.pdf.TransformBegin()
	s.pdf.TransformTranslate(m.E, m.F)
	s.pdf.TransformScale(m.A*100, m.D*100, 0, 0)
	s.depth++
}

func (s *PDFSurface) PopTransform() {
	if s.depth == 0 {
		return
	}
	s.pdf.TransformEnd()
	s.depth--
}

func (s *PDFSurface) FillPath(p vector.Path, c vector.Color) {
	if c.A == 0 || len(p.Cmds) == 0 {
		return
	}
	s.setFill(c)
	s.tracePath(p)
	s.pdf.DrawPath("F")
	s.resetAlpha(c)
}

func (s *PDFSurface) StrokePath(p vector.Path, st vector.Stroke) {
	if st.Color.A == 0 || st.Width <= 0 || len(p.Cmds) == 0 {
		return
	}
	c := st.Color
	s.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	if c.A < 255 {
		s.pdf.SetAlpha(float64(c.A)/255, "Normal")
	}
	s.pdf.SetLineWidth(st.Width)
	s.pdf.SetDashPattern(st.Dash, 0)
	s.tracePath(p)
	s.pdf.DrawPath("D")
	s.pdf.SetDashPattern(nil, 0)
	s.resetAlpha(c)
}

func (s *PDFSurface) FillText(text string, at vector.Pt, st render.TextStyle) {
	if text == "" || st.Color.A == 0 {
		return
	}
	s.pdf.SetFont("Courier", "", st.Size)
	s.pdf.SetTextColor(int(st.Color.R), int(st.Color.G), int(st.Color.B))
	txt := s.tr(text)
	w := s.pdf.GetStringWidth(txt)
	// Courier cap height is about 0.6 of the size; shift the baseline to center it.
	s.pdf.Text(at.X-w/2, at.Y+st.Size*0.3, txt)
}

// Write closes open transforms and writes the document.
func (s *PDFSurface) Write(w io.Writer) error {
	for s.depth > 0 {
		s.PopTransform()
	}
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (s *PDFSurface) tracePath(p vector.Path) {
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			s.pdf.MoveTo(d[0], d[1])
		case vector.LineTo:
			s.pdf.LineTo(d[0], d[1])
		case vector.QuadTo:
			s.pdf.CurveTo(d[0], d[1], d[2], d[3])
		case vector.CubicTo:
			s.pdf.CurveBezierCubicTo(d[0], d[1], d[2], d[3], d[4], d[5])
		case vector.Close:
			s.pdf.ClosePath()
		}
	}
}

func (s *PDFSurface) setFill(c vector.Color) {
	s.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	if c.A < 255 {
		s.pdf.SetAlpha(float64(c.A)/255, "Normal")
	}
}

func (s *PDFSurface) resetAlpha(c vector.Color) {
	if c.A < 255 {
		s.pdf.SetAlpha(1, "Normal")
	}
}
