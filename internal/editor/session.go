/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the interactive tool state machine. A Session turns
// pointer events in canvas-relative screen pixels into document mutations and
// exposes a render.Frame describing what to draw.
package editor

import (
	"log/slog"

	"flowsketch/internal/domain"
	"flowsketch/internal/hittest"
	applog "flowsketch/internal/log"
	"flowsketch/internal/model"
	"flowsketch/internal/render"
	"flowsketch/internal/shape"
	"flowsketch/internal/vector"
	"flowsketch/internal/viewport"
)

// Tool is the active pointer tool.
type Tool string

const (
	ToolSelect  Tool = "select"
	ToolMove    Tool = "move"
	ToolDelete  Tool = "delete"
	ToolConnect Tool = "connect"
)

// Tools lists the tools in toolbar order.
var Tools = []Tool{ToolSelect, ToolMove, ToolDelete, ToolConnect}

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	for _, k := range Tools {
		if k == t {
			return true
		}
	}
	return false
}

// Session is the single owner of editor state for one open diagram. It is not
// safe for concurrent use.
type Session struct {
	model    *model.Model
	view     viewport.Viewport
	tool     Tool
	settings Settings
	labels   Labeler

	selected    string
	connectFrom string

	// handle drag gesture
	connecting   shape.Handle
	isConnecting bool

	draggingNode string
	panning      bool
	last         vector.Pt // screen position of the previous drag event

	cursor     vector.Pt // document space
	hovered    shape.Handle
	hasHovered bool

	editing   string
	draft     string
	isEditing bool

	onRedraw func()
	log      *slog.Logger
}

// New opens doc with the given settings. A nil labeler uses raw kind names.
func New(doc domain.Document, settings Settings, labels Labeler) *Session {
	if labels == nil {
		labels = rawLabels{}
	}
	s := &Session{
		model:    model.New(doc),
		view:     viewport.New(),
		tool:     ToolSelect,
		settings: settings,
		labels:   labels,
		log:      applog.WithComponent("editor"),
	}
	s.model.OnChange(s.redraw)
	return s
}

// OnRedraw registers the host callback invoked after every observable change.
func (s *Session) OnRedraw(fn func()) { s.onRedraw = fn }

func (s *Session) redraw() {
	if s.onRedraw != nil {
		s.onRedraw()
	}
}

// Model exposes the document model, mainly for tests and id injection.
func (s *Session) Model() *model.Model { return s.model }

// Viewport returns the current pan offset and zoom.
func (s *Session) Viewport() viewport.Viewport { return s.view }

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// Settings returns the style choices applied to new nodes and connections.
func (s *Session) Settings() Settings { return s.settings }

// Selected returns the selected node id, or "" when nothing is selected.
func (s *Session) Selected() string { return s.selected }

// ConnectFrom returns the armed source of a two-click connect, or "".
func (s *Session) ConnectFrom() string { return s.connectFrom }

// Cursor returns the last pointer position in document space.
func (s *Session) Cursor() vector.Pt { return s.cursor }

// Snapshot returns a deep copy of the document.
func (s *Session) Snapshot() domain.Document { return s.model.Snapshot() }

// Hovered returns the handle under the pointer, if any.
func (s *Session) Hovered() (shape.Handle, bool) { return s.hovered, s.hasHovered }

// Connecting returns the source handle of an active drag gesture.
func (s *Session) Connecting() (shape.Handle, bool) { return s.connecting, s.isConnecting }

// SetSettings replaces the style choices used for future creations.
func (s *Session) SetSettings(st Settings) {
	s.settings = st
	s.redraw()
}

// SetTool switches tools. It cancels a pending two-click connect but leaves an
// in-progress drag gesture alone.
func (s *Session) SetTool(t Tool) {
	if !t.Valid() {
		return
	}
	s.tool = t
	s.connectFrom = ""
	s.redraw()
}

// AddNode creates a node near the top-left of the visible area. The label
// falls back to the raw kind when the labeler has none.
func (s *Session) AddNode(kind domain.Kind) domain.Node {
	label := s.labels.KindLabel(kind)
	if label == "" {
		label = string(kind)
	}
	return s.model.AddNode(kind, s.view.SpawnPoint(), label, s.settings.Node)
}

// ApplyColorsToSelected copies the current node colors onto the selected node.
func (s *Session) ApplyColorsToSelected() { s.model.ApplyColors(s.selected, s.settings.Node) }

func (s *Session) ZoomIn() { s.view.ZoomIn(); s.redraw() }
func (s *Session) ZoomOut() { s.view.ZoomOut(); s.redraw() }
func (s *Session) ResetZoom() { s.view.ResetZoom(); s.redraw() }

// PointerDown handles a press at a canvas-relative screen point.
func (s *Session) PointerDown(p vector.Pt) {
	d := s.view.ToDocument(p)
	nodes := s.model.Nodes()

	if s.tool == ToolSelect {
		if h, ok := hittest.HandleAt(nodes, d); ok {
			s.connecting, s.isConnecting = h, true
			s.cursor = h.Pos
			s.redraw()
			return
		}
	}

	n, hit := hittest.NodeAt(nodes, d)
	switch {
	case s.tool == ToolSelect && hit:
		s.selected = n.ID
		s.draggingNode = n.ID
		s.last = p
	case s.tool == ToolMove:
		s.panning = true
		s.last = p
	case s.tool == ToolDelete && hit:
		if s.selected == n.ID {
			s.selected = ""
		}
		if s.connectFrom == n.ID {
			s.connectFrom = ""
		}
		s.model.DeleteNode(n.ID)
	case s.tool == ToolConnect && hit:
		s.clickConnect(n.ID)
	}
	s.redraw()
}

// clickConnect runs the two-click flow. Clicking the source again keeps it armed.
func (s *Session) clickConnect(id string) {
	switch s.connectFrom {
	case "":
		s.connectFrom = id
	case id:
	default:
		s.model.AddConnection(s.connectFrom, id, s.settings.Connection)
		s.connectFrom = ""
	}
}

// PointerMove tracks the cursor and advances node drags and pans.
func (s *Session) PointerMove(p vector.Pt) {
	d := s.view.ToDocument(p)
	s.cursor = d
	s.hovered, s.hasHovered = hittest.HandleAt(s.model.Nodes(), d)

	switch {
	case s.draggingNode != "" && !s.isConnecting:
		z := s.view.Zoom
		s.model.MoveNode(s.draggingNode, (p.X-s.last.X)/z, (p.Y-s.last.Y)/z)
		s.last = p
	case s.panning:
		s.view.Pan(p.X-s.last.X, p.Y-s.last.Y)
		s.last = p
	}
	s.redraw()
}

// PointerUp finishes a drag gesture and ends any node drag or pan.
func (s *Session) PointerUp(p vector.Pt) {
	if s.isConnecting {
		d := s.view.ToDocument(p)
		if h, ok := hittest.HandleAt(s.model.Nodes(), d); ok && h.NodeID != s.connecting.NodeID {
			s.model.AddConnection(s.connecting.NodeID, h.NodeID, s.settings.Connection)
		}
		s.isConnecting = false
		s.connecting = shape.Handle{}
	}
	s.draggingNode = ""
	s.panning = false
	s.redraw()
}

// PointerLeave is treated as a release at the exit point.
func (s *Session) PointerLeave(p vector.Pt) { s.PointerUp(p) }

// DoubleClick opens label editing for the node under p, with any tool.
func (s *Session) DoubleClick(p vector.Pt) {
	n, ok := hittest.NodeAt(s.model.Nodes(), s.view.ToDocument(p))
	if !ok {
		return
	}
	s.editing, s.draft, s.isEditing = n.ID, n.Label, true
	s.log.Debug("label edit", slog.String("id", n.ID))
	s.redraw()
}

// Editing returns the node being edited and the current draft.
func (s *Session) Editing() (id, draft string, ok bool) { return s.editing, s.draft, s.isEditing }

// SetLabelDraft replaces the draft text of an open edit.
func (s *Session) SetLabelDraft(text string) {
	if s.isEditing {
		s.draft = text
	}
}

// CommitLabel stores the draft verbatim and closes the edit.
func (s *Session) CommitLabel() {
	if !s.isEditing {
		return
	}
	id, text := s.editing, s.draft
	s.closeEdit()
	s.model.SetLabel(id, text)
}

// CancelLabel discards the draft.
func (s *Session) CancelLabel() {
	if !s.isEditing {
		return
	}
	s.closeEdit()
	s.redraw()
}

func (s *Session) closeEdit() { s.editing, s.draft, s.isEditing = "", "", false }

// Replace loads a new document and resets interaction state; the viewport stays.
func (s *Session) Replace(doc domain.Document) {
	s.selected, s.connectFrom = "", ""
	s.isConnecting, s.connecting = false, shape.Handle{}
	s.draggingNode, s.panning = "", false
	s.hasHovered = false
	s.closeEdit()
	s.model.Replace(doc)
}

// Frame describes the current state for render.Render.
func (s *Session) Frame() render.Frame {
	bg, err := vector.ParseHex(s.settings.Background)
	if err != nil {
		bg = vector.Black
	}
	return render.Frame{
		Nodes:        s.model.Nodes(),
		Connections:  s.model.Connections(),
		View:         s.view.Affine(),
		Background:   bg,
		Selected:     s.selected,
		ConnectFrom:  s.connectFrom,
		Dragging:     s.isConnecting,
		DragFrom:     s.connecting.Pos,
		Cursor:       s.cursor,
		PreviewColor: s.settings.Connection.Color,
		PreviewWidth: s.settings.Connection.Width,
		ShowHandles:  s.tool == ToolSelect,
		Hovered:      s.hovered,
		HasHovered:   s.hasHovered,
	}
}
