/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement and placement for node labels. Faces come from a Provider
// so tests can use the fixed-size basicfont face.

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string  // logical family name
	Size   float64 // pixels at 72 DPI
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
// The requested size is ignored.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	return basicfont.Face7x13, metricsOf(basicfont.Face7x13)
}

// Default returns the provider used for exports: Go Mono with basicfont fallback.
func Default() Provider { return OTProvider{Lib: DefaultLibrary()} }

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Measure returns the advance width of s and the face's metrics.
func Measure(provider Provider, spec FontSpec, s string) (float64, Metrics) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	return float64(d.MeasureString(s)) / 64, met
}

// CenteredDot returns the baseline origin that centers s on (cx, cy)
// horizontally and vertically, like a canvas with textAlign=center and
// textBaseline=middle.
func CenteredDot(provider Provider, spec FontSpec, s string, cx, cy float64) fixed.Point26_6 {
	w, met := Measure(provider, spec, s)
	x := cx - w/2
	y := cy + (met.Ascent-met.Descent)/2
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}
