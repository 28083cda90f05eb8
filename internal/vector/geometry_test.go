/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectContainsIsInclusive(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	if r.Contains(Pt{110.01, 70}) {
		t.Fatalf("point past right edge should miss")
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
}

func TestAffineInvertRoundTrip(t *testing.T) {
	m := Translate(-37.5, 12).Mul(Scale(1.7, 1.7))
	inv := m.Invert()
	p := Pt{123.4, -56.7}
	q := inv.Apply(m.Apply(p))
	if !q.Near(p, 1e-9) {
		t.Fatalf("round trip drifted: got %+v want %+v", q, p)
	}
	if m.ScaleFactor() < 1.69 || m.ScaleFactor() > 1.71 {
		t.Fatalf("scale factor: got %v", m.ScaleFactor())
	}
}

func TestFloatRound(t *testing.T) {
	v := 1.0
	for i := 0; i < 11; i++ {
		v = FloatRound(v+0.1, 1)
	}
	if v != 2.1 {
		t.Fatalf("got %v want 2.1", v)
	}
}

func TestUnion(t *testing.T) {
	u := R(0, 0, 10, 10).Union(R(5, -5, 10, 10))
	if u != R(0, -5, 15, 15) {
		t.Fatalf("unexpected union %+v", u)
	}
}

func TestPointDist(t *testing.T) {
	if d := (Pt{0, 0}).Dist(Pt{3, 4}); math.Abs(d-5) > 1e-12 {
		t.Fatalf("got %v want 5", d)
	}
}
