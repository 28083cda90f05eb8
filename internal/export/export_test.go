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
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowsketch/internal/domain"
	"flowsketch/internal/render"
	"flowsketch/internal/textlayout"
	"flowsketch/internal/vector"
)

func sampleFrame() render.Frame {
	doc := domain.Document{
		Nodes: []domain.Node{
			{ID: "a", Kind: domain.KindProcess, X: 100, Y: 100, Width: 100, Height: 60, FillColor: "#FF0000", BorderColor: "#00FF00", TextColor: "#FFFFFF"},
			{ID: "b", Kind: domain.KindDecision, X: 400, Y: 100, Width: 120, Height: 120, Label: "ok? <yes> & no", FillColor: "#0000FF", BorderColor: "#00FF00", TextColor: "#FFFFFF"},
		},
		Connections: []domain.Connection{{ID: "c", From: "a", To: "b", Color: "#00FF99", LineWidth: 2, LineStyle: domain.LineDashed}},
	}
	return render.DocumentFrame(doc, vector.MustHex("#0A0A0A"))
}

func basicOpts() Options {
	return Options{Width: 600, Height: 400, Fonts: textlayout.BasicProvider{}}
}

func TestPNGPixels(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(&buf, sampleFrame(), basicOpts()); err != nil {
		t.Fatalf("png: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 600 || b.Dy() != 400 {
		t.Fatalf("size got %v", b)
	}
	if got := color.NRGBAModel.Convert(img.At(5, 5)).(color.NRGBA); got != (color.NRGBA{0x0A, 0x0A, 0x0A, 255}) {
		t.Fatalf("background got %v", got)
	}
	if got := color.NRGBAModel.Convert(img.At(120, 120)).(color.NRGBA); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Fatalf("node fill got %v", got)
	}
}

func TestPNGHonorsView(t *testing.T) {
	f := sampleFrame()
	f.View = vector.Translate(10, 0).Mul(vector.Scale(2, 2))
	var buf bytes.Buffer
	if err := PNG(&buf, f, Options{Width: 800, Height: 600, Fonts: textlayout.BasicProvider{}}); err != nil {
		t.Fatalf("png: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// document (120,120) lands at screen (250,240)
	if got := color.NRGBAModel.Convert(img.At(250, 240)).(color.NRGBA); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Fatalf("zoomed node fill got %v", got)
	}
	if got := color.NRGBAModel.Convert(img.At(150, 150)).(color.NRGBA); got == (color.NRGBA{255, 0, 0, 255}) {
		t.Fatalf("unzoomed position should not be filled")
	}
}

func TestSVGStructure(t *testing.T) {
	var buf bytes.Buffer
	if err := SVG(&buf, sampleFrame(), basicOpts()); err != nil {
		t.Fatalf("svg: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`width="600" height="400"`,
		`<g transform="matrix(1 0 0 1 0 0)">`,
		`stroke-dasharray="10,5"`,
		`fill="#ff0000"`,
		`ok? &lt;yes&gt; &amp; no`,
		`font-family="monospace"`,
		"</g>\n</svg>\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "<g ") != strings.Count(out, "</g>") {
		t.Fatalf("unbalanced groups")
	}
}

func TestPDFHeader(t *testing.T) {
	var buf bytes.Buffer
	opt := basicOpts()
	opt.Title = "Flow"
	if err := PDF(&buf, sampleFrame(), opt); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", buf.Bytes()[:8])
	}
}

func TestFitResizesCanvas(t *testing.T) {
	f, w, h := Options{Fit: true}.resolve(sampleFrame())
	// content spans x 100..520, y 100..220
	if w != 500 || h != 200 {
		t.Fatalf("fit size got %dx%d want 500x200", w, h)
	}
	if p := f.View.Apply(vector.Pt{X: 100, Y: 100}); !p.Near(vector.Pt{X: 40, Y: 40}, 1e-9) {
		t.Fatalf("content origin maps to %v", p)
	}
	_, w, h = Options{}.resolve(sampleFrame())
	if w != DefaultWidth || h != DefaultHeight {
		t.Fatalf("default size got %dx%d", w, h)
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		name string
		f    Format
		want string
	}{
		{"Checkout flow", FormatPNG, "Checkout flow.png"},
		{"", FormatSVG, "diagram.svg"},
		{"   ", FormatPDF, "diagram.pdf"},
		{`a/b\c:d`, FormatPNG, "a_b_c_d.png"},
		{"..", FormatPNG, "diagram.png"},
	}
	for _, c := range cases {
		if got := FileName(c.name, c.f); got != c.want {
			t.Fatalf("FileName(%q) got %q want %q", c.name, got, c.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats("PNG, web ,pdf")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Format{FormatPNG, FormatSVG, FormatPDF}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if _, err := ParseFormats("gif"); err == nil {
		t.Fatalf("expected error for gif")
	}
	if _, err := ParseFormats(" , "); err == nil {
		t.Fatalf("expected error for empty list")
	}
}

func TestExportAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := ExportAll(context.Background(), dir, "My Flow", sampleFrame(), []Format{FormatPNG, FormatSVG, FormatPDF}, basicOpts())
	if err != nil {
		t.Fatalf("export all: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths got %v", paths)
	}
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil || st.Size() == 0 {
			t.Fatalf("missing or empty %s: %v", p, err)
		}
	}
	ents, _ := os.ReadDir(dir)
	if len(ents) != 3 {
		t.Fatalf("temp files left behind: %d entries", len(ents))
	}
	if _, err := ExportAll(context.Background(), dir, "x", sampleFrame(), []Format{"gif"}, basicOpts()); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
