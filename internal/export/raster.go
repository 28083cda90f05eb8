/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	xvector "golang.org/x/image/vector"

	"flowsketch/internal/render"
	"flowsketch/internal/textlayout"
	"flowsketch/internal/vector"
)

// RasterSurface draws into an RGBA image. Points are transformed on the CPU:
// fills go through x/image/vector, strokes through rasterx so dash patterns
// are honored.
type RasterSurface struct {
	img   *image.RGBA
	cur   vector.Affine2D
	stack []vector.Affine2D
	fonts textlayout.Provider
}

var _ render.Surface = (*RasterSurface)(nil)

func NewRasterSurface(w, h int, fonts textlayout.Provider) *RasterSurface {
	if fonts == nil {
		fonts = textlayout.BasicProvider{}
	}
	return &RasterSurface{img: image.NewRGBA(image.Rect(0, 0, w, h)), cur: vector.Identity, fonts: fonts}
}

// Image returns the backing image.
func (r *RasterSurface) Image() *image.RGBA { return r.img }

func (r *RasterSurface) Clear(bg vector.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(toRGBA(bg)), image.Point{}, draw.Src)
	r.cur = vector.Identity
	r.stack = r.stack[:0]
}

func (r *RasterSurface) PushTransform(m vector.Affine2D) {
	r.stack = append(r.stack, r.cur)
	r.cur = r.cur.Mul(m)
}

func (r *RasterSurface) PopTransform() {
	if n := len(r.stack); n > 0 {
		r.cur = r.stack[n-1]
		r.stack = r.stack[:n-1]
	}
}

func (r *RasterSurface) FillPath(p vector.Path, c vector.Color) {
	if c.A == 0 || len(p.Cmds) == 0 {
		return
	}
	b := r.img.Bounds()
	z := xvector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	open := false
	for _, cmd := range p.Cmds {
		pts := r.transformed(cmd)
		switch cmd.Op {
		case vector.MoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(pts[0].X, pts[0].Y)
			open = true
		case vector.LineTo:
			z.LineTo(pts[0].X, pts[0].Y)
		case vector.QuadTo:
			z.QuadTo(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y)
		case vector.CubicTo:
			z.CubeTo(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, pts[2].X, pts[2].Y)
		case vector.Close:
			z.ClosePath()
			open = false
		}
	}
	if open {
		z.ClosePath()
	}
	z.Draw(r.img, b, image.NewUniform(toRGBA(c)), image.Point{})
}

func (r *RasterSurface) StrokePath(p vector.Path, s vector.Stroke) {
	if s.Color.A == 0 || s.Width <= 0 || len(p.Cmds) == 0 {
		return
	}
	b := r.img.Bounds()
	k := r.cur.ScaleFactor()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), r.img, b)
	scanner.SetColor(toRGBA(s.Color))
	d := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)
	var dash []float64
	for _, v := range s.Dash {
		dash = append(dash, v*k)
	}
	d.SetStroke(fx(s.Width*k), fx(4), rasterx.ButtCap, rasterx.ButtCap, rasterx.RoundGap, rasterx.Round, dash, 0)

	open := false
	for _, cmd := range p.Cmds {
		pts := r.transformed(cmd)
		switch cmd.Op {
		case vector.MoveTo:
			if open {
				d.Stop(false)
			}
			d.Start(fp(pts[0]))
			open = true
		case vector.LineTo:
			d.Line(fp(pts[0]))
		case vector.QuadTo:
			d.QuadBezier(fp(pts[0]), fp(pts[1]))
		case vector.CubicTo:
			d.CubeBezier(fp(pts[0]), fp(pts[1]), fp(pts[2]))
		case vector.Close:
			if open {
				d.Stop(true)
			}
			open = false
		}
	}
	if open {
		d.Stop(false)
	}
	d.Draw()
}

func (r *RasterSurface) FillText(text string, at vector.Pt, st render.TextStyle) {
	if text == "" || st.Color.A == 0 {
		return
	}
	spec := textlayout.FontSpec{Family: st.Family, Size: st.Size * r.cur.ScaleFactor()}
	face, _ := r.fonts.Resolve(spec)
	c := r.cur.Apply(at)
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(toRGBA(st.Color)),
		Face: face,
		Dot:  textlayout.CenteredDot(r.fonts, spec, text, c.X, c.Y),
	}
	d.DrawString(text)
}

type f32pt struct{ X, Y float32 }

// transformed returns the command's points in device space.
func (r *RasterSurface) transformed(cmd vector.PathCmd) [3]f32pt {
	var out [3]f32pt
	for i, p := range cmd.Points() {
		if i == len(out) {
			break
		}
		q := r.cur.Apply(p)
		out[i] = f32pt{float32(q.X), float32(q.Y)}
	}
	return out
}

func fx(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fp(p f32pt) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)}
}

func toRGBA(c vector.Color) color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
