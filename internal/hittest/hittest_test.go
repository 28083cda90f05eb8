/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package hittest

import (
	"testing"

	"flowsketch/internal/domain"
	"flowsketch/internal/shape"
	"flowsketch/internal/vector"
)

func proc(id string, x, y float64) domain.Node {
	return domain.Node{ID: id, Kind: domain.KindProcess, X: x, Y: y, Width: 100, Height: 60}
}

func TestHandleProximity(t *testing.T) {
	nodes := []domain.Node{proc("a", 0, 0)}
	// top handle at (50, 0)
	if h, ok := HandleAt(nodes, vector.Pt{X: 50, Y: 4}); !ok || h.Side != shape.Top || h.NodeID != "a" {
		t.Fatalf("4 units away should hit top handle, got %+v %v", h, ok)
	}
	if _, ok := HandleAt(nodes, vector.Pt{X: 50, Y: 6}); !ok {
		t.Fatalf("exactly the radius is inclusive")
	}
	if _, ok := HandleAt(nodes, vector.Pt{X: 50, Y: -10}); ok {
		t.Fatalf("10 units away should miss")
	}
}

func TestHandleFirstMatchWins(t *testing.T) {
	// a's right handle (100,30) and b's left handle (102,30) overlap the probe.
	nodes := []domain.Node{proc("a", 0, 0), proc("b", 102, 0)}
	h, ok := HandleAt(nodes, vector.Pt{X: 101, Y: 30})
	if !ok || h.NodeID != "a" || h.Side != shape.Right {
		t.Fatalf("expected a/right, got %+v", h)
	}
}

func TestNodeAtListOrder(t *testing.T) {
	nodes := []domain.Node{proc("under", 0, 0), proc("over", 50, 30)}
	n, ok := NodeAt(nodes, vector.Pt{X: 75, Y: 45})
	if !ok || n.ID != "under" {
		t.Fatalf("first node in list order should win, got %+v", n)
	}
	if _, ok := NodeAt(nodes, vector.Pt{X: 500, Y: 500}); ok {
		t.Fatalf("empty space should miss")
	}
	if _, ok := NodeAt(nil, vector.Pt{}); ok {
		t.Fatalf("no nodes should miss")
	}
}
