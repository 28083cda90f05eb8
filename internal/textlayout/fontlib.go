/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores parsed OpenType fonts by family name and caches faces
// per size, since building a face is far more expensive than drawing with it.
type FontLibrary struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
	dpi    float64
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[string]*opentype.Font), faces: make(map[faceKey]font.Face)}
}

// DefaultLibrary has Go Mono registered as "monospace", the family used for
// node labels.
func DefaultLibrary() *FontLibrary {
	fl := NewFontLibrary()
	if err := fl.Load("monospace", gomono.TTF); err != nil {
		// gomono ships with x/image; failing to parse it means a broken build.
		panic(err)
	}
	return fl
}

// Load parses font data and registers it under family.
func (fl *FontLibrary) Load(family string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.fonts[family] = f
	for k := range fl.faces {
		if k.family == family {
			delete(fl.faces, k)
		}
	}
	return nil
}

// LoadTTF loads a font file into the library under family.
func (fl *FontLibrary) LoadTTF(family, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.Load(family, data)
}

func (fl *FontLibrary) face(spec FontSpec, dpi float64) font.Face {
	if fl == nil {
		return nil
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	key := faceKey{family: spec.Family, size: spec.Size, dpi: dpi}
	if f, ok := fl.faces[key]; ok {
		return f
	}
	otf, ok := fl.fonts[spec.Family]
	if !ok {
		return nil
	}
	f, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: spec.Size, DPI: dpi, Hinting: font.HintingFull})
	if err != nil {
		return nil
	}
	fl.faces[key] = f
	return f
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero, so Size is in pixels
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if face := p.Lib.face(spec, dpi); face != nil {
		return face, metricsOf(face)
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
