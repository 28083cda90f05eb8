/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package model owns the ordered node and connection lists of one open diagram.
// Every mutation fires the change callback so hosts can redraw.
package model

import (
	"log/slog"

	"github.com/google/uuid"

	"flowsketch/internal/domain"
	applog "flowsketch/internal/log"
	"flowsketch/internal/vector"
)

// NodeStyle is the set of colors captured by a node at creation or on apply.
type NodeStyle struct {
	Fill   string
	Border string
	Text   string
}

// ConnectionStyle is captured by a connection at creation.
type ConnectionStyle struct {
	Color string
	Width float64
	Style domain.LineStyle
}

// Model is not safe for concurrent use; hosts drive it from one goroutine.
type Model struct {
	doc      domain.Document
	onChange func()
	newID    func() string
	log      *slog.Logger
}

// New wraps a copy of doc.
func New(doc domain.Document) *Model {
	return &Model{
		doc:   doc.Clone(),
		newID: uuid.NewString,
		log:   applog.WithComponent("model"),
	}
}

// OnChange registers the redraw callback. A nil fn disables notifications.
func (m *Model) OnChange(fn func()) { m.onChange = fn }

// SetIDFunc replaces the id generator. Tests use it for stable ids.
func (m *Model) SetIDFunc(fn func() string) {
	if fn != nil {
		m.newID = fn
	}
}

func (m *Model) changed(op string, attrs ...any) {
	applog.WithOperation(m.log, op).Debug("document changed", attrs...)
	if m.onChange != nil {
		m.onChange()
	}
}

// Nodes returns the node list in z-order. Callers must not modify it.
func (m *Model) Nodes() []domain.Node { return m.doc.Nodes }

// Connections returns the connection list. Callers must not modify it.
func (m *Model) Connections() []domain.Connection { return m.doc.Connections }

// Node looks up a node by id.
func (m *Model) Node(id string) (domain.Node, bool) { return m.doc.NodeByID(id) }

func (m *Model) index(id string) int {
	for i := range m.doc.Nodes {
		if m.doc.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// AddNode appends a node of kind with its top-left corner at at.
func (m *Model) AddNode(kind domain.Kind, at vector.Pt, label string, st NodeStyle) domain.Node {
	w, h := domain.DefaultSize(kind)
	n := domain.Node{
		ID:          m.newID(),
		Kind:        kind,
		X:           at.X,
		Y:           at.Y,
		Width:       w,
		Height:      h,
		Label:       label,
		FillColor:   st.Fill,
		BorderColor: st.Border,
		TextColor:   st.Text,
	}
	m.doc.Nodes = append(m.doc.Nodes, n)
	m.changed("add_node", slog.String("id", n.ID), slog.String("kind", string(kind)))
	return n
}

// MoveNode translates a node by a document-space delta.
func (m *Model) MoveNode(id string, dx, dy float64) {
	i := m.index(id)
	if i < 0 {
		return
	}
	m.doc.Nodes[i].X += dx
	m.doc.Nodes[i].Y += dy
	m.changed("move_node", slog.String("id", id))
}

// SetLabel stores text verbatim; empty and whitespace-only labels are allowed.
func (m *Model) SetLabel(id, text string) {
	i := m.index(id)
	if i < 0 {
		return
	}
	m.doc.Nodes[i].Label = text
	m.changed("set_label", slog.String("id", id))
}

// ApplyColors overwrites the three colors of one node. An empty id is a no-op.
func (m *Model) ApplyColors(id string, st NodeStyle) {
	i := m.index(id)
	if i < 0 {
		return
	}
	m.doc.Nodes[i].FillColor = st.Fill
	m.doc.Nodes[i].BorderColor = st.Border
	m.doc.Nodes[i].TextColor = st.Text
	m.changed("apply_colors", slog.String("id", id))
}

// DeleteNode removes the node and every connection touching it in one step.
func (m *Model) DeleteNode(id string) {
	i := m.index(id)
	if i < 0 {
		return
	}
	m.doc.Nodes = append(m.doc.Nodes[:i:i], m.doc.Nodes[i+1:]...)
	kept := m.doc.Connections[:0:0]
	for _, c := range m.doc.Connections {
		if c.From != id && c.To != id {
			kept = append(kept, c)
		}
	}
	dropped := len(m.doc.Connections) - len(kept)
	m.doc.Connections = kept
	m.changed("delete_node", slog.String("id", id), slog.Int("connections_dropped", dropped))
}

// AddConnection links from to to. Self-connections and unknown endpoints are
// rejected; duplicates between the same pair are allowed.
func (m *Model) AddConnection(from, to string, cs ConnectionStyle) (domain.Connection, bool) {
	if from == to || m.index(from) < 0 || m.index(to) < 0 {
		return domain.Connection{}, false
	}
	c := domain.Connection{
		ID:        m.newID(),
		From:      from,
		To:        to,
		Color:     cs.Color,
		LineWidth: cs.Width,
		LineStyle: cs.Style,
	}
	m.doc.Connections = append(m.doc.Connections, c)
	m.changed("add_connection", slog.String("id", c.ID), slog.String("from", from), slog.String("to", to))
	return c, true
}

// DeleteConnection removes a single connection.
func (m *Model) DeleteConnection(id string) {
	for i, c := range m.doc.Connections {
		if c.ID == id {
			m.doc.Connections = append(m.doc.Connections[:i:i], m.doc.Connections[i+1:]...)
			m.changed("delete_connection", slog.String("id", id))
			return
		}
	}
}

// Snapshot returns a deep copy for saving or exporting.
func (m *Model) Snapshot() domain.Document { return m.doc.Clone() }

// Replace swaps in a loaded document.
func (m *Model) Replace(doc domain.Document) {
	m.doc = doc.Clone()
	m.changed("replace", slog.Int("nodes", len(doc.Nodes)), slog.Int("connections", len(doc.Connections)))
}
