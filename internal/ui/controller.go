/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui hosts an editor session in a desktop window. The Controller holds
// everything that does not need a display so the window code stays thin.
package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"

	"flowsketch/internal/domain"
	"flowsketch/internal/editor"
	"flowsketch/internal/export"
	"flowsketch/internal/i18n"
	applog "flowsketch/internal/log"
	"flowsketch/internal/palette"
	"flowsketch/internal/render"
	"flowsketch/internal/storage"
	"flowsketch/internal/textlayout"
	"flowsketch/internal/vector"
)

// Options select the diagram to open and the services around it.
type Options struct {
	Store     storage.Store
	Diagram   domain.Diagram
	Palettes  *palette.Set
	Palette   string
	Locale    string
	ExportDir string
}

// Controller owns the session for one open diagram.
type Controller struct {
	store     storage.Store
	diagram   domain.Diagram
	session   *editor.Session
	palettes  *palette.Set
	current   string
	text      *i18n.Localizer
	fonts     textlayout.Provider
	exportDir string
	log       *slog.Logger
}

func NewController(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("no diagram store configured")
	}
	if opts.Diagram.ID == "" {
		return nil, errors.New("no diagram selected")
	}
	set := opts.Palettes
	if set == nil {
		set = palette.NewSet()
	}
	name := opts.Palette
	if name == "" {
		name = palette.Default
	}
	p, ok := set.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown palette %q", name)
	}
	text := i18n.New(opts.Locale)
	dir := opts.ExportDir
	if dir == "" {
		dir = "."
	}
	c := &Controller{
		store:     opts.Store,
		diagram:   opts.Diagram,
		session:   editor.New(opts.Diagram.Data, editor.FromPalette(p), text),
		palettes:  set,
		current:   name,
		text:      text,
		fonts:     textlayout.Default(),
		exportDir: dir,
		log:       applog.WithComponent("ui").With(slog.String("diagram", opts.Diagram.ID)),
	}
	return c, nil
}

func (c *Controller) Session() *editor.Session { return c.session }
func (c *Controller) PaletteNames() []string { return c.palettes.Names() }
func (c *Controller) Palette() string { return c.current }

// Text localizes a UI string.
func (c *Controller) Text(id, fallback string) string { return c.text.Text(id, fallback) }

// ToolLabel localizes a tool name for the toolbar.
func (c *Controller) ToolLabel(t editor.Tool) string { return c.text.ToolLabel(string(t)) }

// KindLabel localizes a node kind for the add menu.
func (c *Controller) KindLabel(k domain.Kind) string { return c.text.KindLabel(k) }

// Title is the window title.
func (c *Controller) Title() string {
	mark := ""
	if c.Dirty() {
		mark = "*"
	}
	return fmt.Sprintf("%s%s - flowsketch", c.diagram.Name, mark)
}

// SetPalette switches the settings used for new items.
func (c *Controller) SetPalette(name string) error {
	p, ok := c.palettes.Get(name)
	if !ok {
		return fmt.Errorf("unknown palette %q", name)
	}
	c.current = name
	c.session.SetSettings(editor.FromPalette(p))
	return nil
}

// SetConnectionStyle changes the style captured by new connections.
func (c *Controller) SetConnectionStyle(style domain.LineStyle) {
	st := c.session.Settings()
	st.Connection.Style = style
	c.session.SetSettings(st)
}

// Render draws the editor view into a w x h image. scale maps widget pixels
// to image pixels on high density displays.
func (c *Controller) Render(w, h int, scale float64) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	f := c.session.Frame()
	if scale > 0 && scale != 1 {
		f.View = vector.Scale(scale, scale).Mul(f.View)
	}
	s := export.NewRasterSurface(w, h, c.fonts)
	render.Render(s, f)
	return s.Image()
}

// Dirty reports whether the document differs from the last save.
func (c *Controller) Dirty() bool {
	cur := c.session.Snapshot()
	return !slices.Equal(cur.Nodes, c.diagram.Data.Nodes) || !slices.Equal(cur.Connections, c.diagram.Data.Connections)
}

// Snapshot returns the diagram with the live document, for crash autosave.
func (c *Controller) Snapshot() (domain.Diagram, bool) {
	d := c.diagram
	d.Data = c.session.Snapshot()
	return d, true
}

// Save persists the live document.
func (c *Controller) Save(ctx context.Context) error {
	d, _ := c.Snapshot()
	if err := c.store.Save(ctx, d); err != nil {
		c.log.Error("save failed", slog.Any("err", err))
		return err
	}
	c.diagram = d
	return nil
}

// Export writes the document without editor chrome, cropped to its content.
func (c *Controller) Export(ctx context.Context, formats []export.Format) ([]string, error) {
	bg, err := vector.ParseHex(c.session.Settings().Background)
	if err != nil {
		bg = vector.Black
	}
	f := render.DocumentFrame(c.session.Snapshot(), bg)
	opt := export.DefaultOptions()
	opt.Fit = true
	opt.Title = c.diagram.Name
	opt.Fonts = c.fonts
	paths, err := export.ExportAll(ctx, c.exportDir, c.diagram.Name, f, formats, opt)
	if err != nil {
		return nil, err
	}
	c.log.Info("exported", slog.Int("files", len(paths)))
	return paths, nil
}

// ExportView writes a PNG of the canvas exactly as displayed: the full editor
// canvas at the current pan and zoom, with selection and handles.
func (c *Controller) ExportView(ctx context.Context) (string, error) {
	opt := export.DefaultOptions()
	opt.Fonts = c.fonts
	paths, err := export.ExportAll(ctx, c.exportDir, c.diagram.Name+"-view", c.session.Frame(), []export.Format{export.FormatPNG}, opt)
	if err != nil {
		return "", err
	}
	c.log.Info("exported view", slog.String("path", paths[0]))
	return paths[0], nil
}

// Pointer event adapters. Positions are widget-relative pixels.

func (c *Controller) Down(x, y float32) { c.session.PointerDown(pt(x, y)) }
func (c *Controller) Move(x, y float32) { c.session.PointerMove(pt(x, y)) }
func (c *Controller) Up(x, y float32) { c.session.PointerUp(pt(x, y)) }
func (c *Controller) Leave(x, y float32) { c.session.PointerLeave(pt(x, y)) }
func (c *Controller) DoubleClick(x, y float32) {
	c.session.DoubleClick(pt(x, y))
}

func pt(x, y float32) vector.Pt { return vector.Pt{X: float64(x), Y: float64(y)} }
