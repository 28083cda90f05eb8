/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"testing"

	"golang.org/x/image/font/basicfont"
)

func TestMeasureBasicProvider(t *testing.T) {
	w, met := Measure(BasicProvider{}, FontSpec{Family: "monospace", Size: 14}, "Start")
	if w != 35 { // 5 glyphs at 7px advance
		t.Fatalf("width got %v want 35", w)
	}
	if met.Ascent <= 0 || met.Descent <= 0 {
		t.Fatalf("unexpected metrics %+v", met)
	}
	if w, _ := Measure(nil, FontSpec{}, ""); w != 0 {
		t.Fatalf("empty string width got %v", w)
	}
}

func TestCenteredDot(t *testing.T) {
	dot := CenteredDot(BasicProvider{}, FontSpec{}, "abcd", 100, 50)
	m := basicfont.Face7x13.Metrics()
	wantX := 100 - 14
	wantY := 50 + (m.Ascent.Round()-m.Descent.Round())/2
	if dot.X.Round() != wantX {
		t.Fatalf("x got %d want %d", dot.X.Round(), wantX)
	}
	if got := dot.Y.Round(); got < wantY-1 || got > wantY+1 {
		t.Fatalf("y got %d want about %d", got, wantY)
	}
}

func TestOTProviderMonospaceAndFallback(t *testing.T) {
	p := Default()
	wa, met := Measure(p, FontSpec{Family: "monospace", Size: 14}, "iiii")
	wb, _ := Measure(p, FontSpec{Family: "monospace", Size: 14}, "WWWW")
	if wa != wb || wa == 0 {
		t.Fatalf("monospace advances should match and be non-zero: %v vs %v", wa, wb)
	}
	if met.Ascent <= 0 {
		t.Fatalf("metrics missing: %+v", met)
	}
	w2, _ := Measure(p, FontSpec{Family: "monospace", Size: 28}, "iiii")
	if w2 <= wa {
		t.Fatalf("larger size should be wider: %v <= %v", w2, wa)
	}
	// unknown family uses basicfont
	wf, _ := Measure(p, FontSpec{Family: "nope", Size: 14}, "ab")
	if wf != 14 {
		t.Fatalf("fallback width got %v want 14", wf)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	fl := NewFontLibrary()
	if err := fl.Load("x", []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := fl.LoadTTF("x", t.TempDir()+"/missing.ttf"); err == nil {
		t.Fatalf("expected read error")
	}
}
