/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders diagram frames to PNG, SVG and PDF through the same
// renderer the editor uses.
package export

import (
	"fmt"
	"image/png"
	"io"
	"math"
	"strings"
	"unicode"

	"flowsketch/internal/render"
	"flowsketch/internal/textlayout"
	"flowsketch/internal/vector"
)

const (
	DefaultWidth  = 2000
	DefaultHeight = 2000
	fitMargin     = 40.0
)

// Options controls canvas size and fonts.
//   - Width/Height: output size in pixels (points for PDF); zero uses the default canvas.
//   - Fit: size the canvas to the content bounds plus a margin and move the
//     content to the top-left, ignoring the frame's view.
//   - Fonts: label faces for PNG; nil uses Go Mono.
type Options struct {
	Width, Height int
	Fit           bool
	Title         string
	Fonts         textlayout.Provider
}

// DefaultOptions mirrors the editor canvas.
func DefaultOptions() Options { return Options{Width: DefaultWidth, Height: DefaultHeight} }

func (o Options) resolve(f render.Frame) (render.Frame, int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if !o.Fit || len(f.Nodes) == 0 {
		return f, w, h
	}
	b := f.Nodes[0].Bounds()
	for _, n := range f.Nodes[1:] {
		b = b.Union(n.Bounds())
	}
	f.View = vector.Translate(fitMargin-b.X, fitMargin-b.Y)
	return f, int(math.Ceil(b.W + 2*fitMargin)), int(math.Ceil(b.H + 2*fitMargin))
}

// PNG rasterizes f and encodes it to w.
func PNG(w io.Writer, f render.Frame, opt Options) error {
	f, cw, ch := opt.resolve(f)
	fonts := opt.Fonts
	if fonts == nil {
		fonts = textlayout.Default()
	}
	s := NewRasterSurface(cw, ch, fonts)
	render.Render(s, f)
	if err := png.Encode(w, s.Image()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SVG renders f as an SVG document.
func SVG(w io.Writer, f render.Frame, opt Options) error {
	f, cw, ch := opt.resolve(f)
	s := NewSVGSurface(cw, ch)
	render.Render(s, f)
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// PDF renders f on a single page.
func PDF(w io.Writer, f render.Frame, opt Options) error {
	f, cw, ch := opt.resolve(f)
	s := NewPDFSurface(cw, ch, opt.Title)
	render.Render(s, f)
	return s.Write(w)
}

// Write dispatches on format.
func Write(w io.Writer, format Format, f render.Frame, opt Options) error {
	switch format {
	case FormatPNG:
		return PNG(w, f, opt)
	case FormatSVG:
		return SVG(w, f, opt)
	case FormatPDF:
		return PDF(w, f, opt)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// FileName returns "<name>.<ext>" with characters that are unsafe in file
// names replaced. A blank name becomes "diagram".
func FileName(name string, f Format) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsControl(r), strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	base := strings.Trim(b.String(), ". ")
	if base == "" {
		base = "diagram"
	}
	return base + "." + string(f)
}
