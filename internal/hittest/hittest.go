/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package hittest resolves a document-space point to the handle or node under it.
package hittest

import (
	"flowsketch/internal/domain"
	"flowsketch/internal/shape"
	"flowsketch/internal/vector"
)

// HandleRadius is the pick distance for handles in document units. It does not
// scale with zoom.
const HandleRadius = 6.0

// HandleAt returns the first handle within HandleRadius of p, scanning nodes in
// list order and each node's handles top, right, bottom, left.
func HandleAt(nodes []domain.Node, p vector.Pt) (shape.Handle, bool) {
	for _, n := range nodes {
		for _, h := range shape.Handles(n) {
			if h.Pos.Dist(p) <= HandleRadius {
				return h, true
			}
		}
	}
	return shape.Handle{}, false
}

// NodeAt returns the first node in list order whose bounding box contains p.
// List order is also draw order, so on overlap the lower node wins.
func NodeAt(nodes []domain.Node, p vector.Pt) (domain.Node, bool) {
	for _, n := range nodes {
		if shape.ContainsPoint(n, p) {
			return n, true
		}
	}
	return domain.Node{}, false
}
