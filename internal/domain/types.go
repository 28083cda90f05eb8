/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the diagram data model. Documents serialize to the same
// JSON shape the web editor stores: {"nodes": [...], "connections": [...]}.

import (
	"time"

	"flowsketch/internal/vector"
)

// Kind identifies the shape of a node.
type Kind string

const (
	KindStart         Kind = "start"
	KindProcess       Kind = "process"
	KindDecision      Kind = "decision"
	KindEnd           Kind = "end"
	KindData          Kind = "data"
	KindDocument      Kind = "document"
	KindCloud         Kind = "cloud"
	KindHexagon       Kind = "hexagon"
	KindParallelogram Kind = "parallelogram"
	KindText          Kind = "text"
)

// Kinds lists every known kind in toolbar order.
var Kinds = []Kind{
	KindStart, KindProcess, KindDecision, KindEnd, KindData,
	KindDocument, KindCloud, KindHexagon, KindParallelogram, KindText,
}

// Valid reports whether k is a known kind. Unknown kinds still render as rectangles.
func (k Kind) Valid() bool {
	for _, kk := range Kinds {
		if kk == k {
			return true
		}
	}
	return false
}

// DefaultSize returns the width and height a freshly created node of kind k gets.
func DefaultSize(k Kind) (w, h float64) {
	switch k {
	case KindDecision, KindHexagon:
		return 120, 120
	case KindText:
		return 150, 40
	default:
		return 100, 60
	}
}

// LineStyle is the dash style of a connection.
type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDashed LineStyle = "dashed"
	LineDotted LineStyle = "dotted"
)

// Dash returns the dash pattern for the style; nil for solid and unknown styles.
func (s LineStyle) Dash() []float64 {
	switch s {
	case LineDashed:
		return []float64{10, 5}
	case LineDotted:
		return []float64{2, 3}
	default:
		return nil
	}
}

// Node is a typed shape placed in document space. X and Y are the top-left corner.
type Node struct {
	ID          string  `json:"id"`
	Kind        Kind    `json:"type"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Label       string  `json:"label"`
	FillColor   string  `json:"fillColor"`
	BorderColor string  `json:"borderColor"`
	TextColor   string  `json:"textColor"`
}

// Bounds returns the node's axis-aligned bounding box.
func (n Node) Bounds() vector.Rect { return vector.R(n.X, n.Y, n.Width, n.Height) }

// Center returns the bounding box center.
func (n Node) Center() vector.Pt { return n.Bounds().Center() }

// Connection is a directed edge between two nodes.
type Connection struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Color     string    `json:"color"`
	LineWidth float64   `json:"lineWidth"`
	LineStyle LineStyle `json:"lineStyle"`
}

// Document is the persisted content of a diagram. Slice order is z-order and
// hit-test priority.
type Document struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Clone returns a deep copy. Nil slices become empty so the JSON form is stable.
func (d Document) Clone() Document {
	out := Document{
		Nodes:       make([]Node, len(d.Nodes)),
		Connections: make([]Connection, len(d.Connections)),
	}
	copy(out.Nodes, d.Nodes)
	copy(out.Connections, d.Connections)
	return out
}

// NodeByID returns the node with id.
func (d Document) NodeByID(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Diagram is a stored document plus ownership and listing metadata.
type Diagram struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Data        Document  `json:"data"`
}
