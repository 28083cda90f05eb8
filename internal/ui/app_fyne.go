//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"flowsketch/internal/crash"
	"flowsketch/internal/domain"
	"flowsketch/internal/editor"
	"flowsketch/internal/export"
	applog "flowsketch/internal/log"
)

// Run opens the diagram in a window and blocks until it is closed.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	ctl, err := NewController(opts)
	if err != nil {
		return err
	}
	defer crash.Recover(ctl.Snapshot)
	l.Info("starting UI", "diagram", opts.Diagram.ID)

	fyneApp := app.NewWithID("flowsketch")
	w := fyneApp.NewWindow(ctl.Title())
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	dc := NewDiagramCanvas(ctl)
	updateStatus := func() {
		s := ctl.Session()
		st := fmt.Sprintf("%s  |  %s %d%%", ctl.ToolLabel(s.Tool()), ctl.Text("zoom", "Zoom"), int(s.Viewport().Zoom*100+0.5))
		if sel := s.Selected(); sel != "" {
			st += "  |  " + sel
		}
		status.SetText(st)
		w.SetTitle(ctl.Title())
	}
	ctl.Session().OnRedraw(func() {
		dc.Refresh()
		updateStatus()
	})

	editLabel := func() {
		id, draft, ok := ctl.Session().Editing()
		if !ok {
			return
		}
		entry := widget.NewEntry()
		entry.SetText(draft)
		entry.OnChanged = ctl.Session().SetLabelDraft
		form := dialog.NewForm(ctl.Text("edit_label", "Edit Label"), ctl.Text("save", "Save"), ctl.Text("cancel", "Cancel"),
			[]*widget.FormItem{widget.NewFormItem(id, entry)}, func(ok bool) {
				if ok {
					ctl.Session().CommitLabel()
				} else {
					ctl.Session().CancelLabel()
				}
			}, w)
		entry.OnSubmitted = func(string) { form.Submit() }
		form.Resize(fyne.NewSize(360, 160))
		form.Show()
		w.Canvas().Focus(entry)
	}
	dc.OnEditLabel = editLabel

	// Toolbar
	toolNames := make([]string, len(editor.Tools))
	toolByName := map[string]editor.Tool{}
	for i, t := range editor.Tools {
		toolNames[i] = ctl.ToolLabel(t)
		toolByName[toolNames[i]] = t
	}
	toolSelect := widget.NewRadioGroup(toolNames, func(v string) {
		if t, ok := toolByName[v]; ok {
			ctl.Session().SetTool(t)
		}
	})
	toolSelect.Horizontal = true
	toolSelect.Required = true
	toolSelect.SetSelected(ctl.ToolLabel(ctl.Session().Tool()))

	kindNames := make([]string, len(domain.Kinds))
	kindByName := map[string]domain.Kind{}
	for i, k := range domain.Kinds {
		kindNames[i] = ctl.KindLabel(k)
		kindByName[kindNames[i]] = k
	}
	var addSelect *widget.Select
	addSelect = widget.NewSelect(kindNames, func(v string) {
		k, ok := kindByName[v]
		if !ok {
			return
		}
		ctl.Session().AddNode(k)
		addSelect.ClearSelected()
	})
	addSelect.PlaceHolder = ctl.Text("add_node", "Add Node")

	paletteSelect := widget.NewSelect(ctl.PaletteNames(), func(v string) {
		if err := ctl.SetPalette(v); err != nil {
			dialog.ShowError(err, w)
		}
	})
	paletteSelect.SetSelected(ctl.Palette())

	styleSelect := widget.NewSelect([]string{string(domain.LineSolid), string(domain.LineDashed), string(domain.LineDotted)}, func(v string) {
		ctl.SetConnectionStyle(domain.LineStyle(v))
	})
	styleSelect.SetSelected(string(ctl.Session().Settings().Connection.Style))

	applyBtn := widget.NewButton(ctl.Text("apply_colors", "Apply Colors"), func() { ctl.Session().ApplyColorsToSelected() })

	save := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ctl.Save(ctx); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText(ctl.Text("saved", "Diagram saved successfully!"))
		w.SetTitle(ctl.Title())
	}
	exportImage := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		path, err := ctl.ExportView(ctx)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		dialog.ShowInformation(ctl.Text("export_image", "Export as Image"), path, w)
	}
	exportDocument := func() {
		formats, _ := export.PresetFormats(export.PresetAll)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		paths, err := ctl.Export(ctx, formats)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		dialog.ShowInformation(ctl.Text("export_document", "Export Document"), strings.Join(paths, "\n"), w)
	}

	saveBtn := widget.NewButton(ctl.Text("save", "Save"), save)
	exportBtn := widget.NewButton(ctl.Text("export_image", "Export as Image"), exportImage)
	zoomOut := widget.NewButton("-", func() { ctl.Session().ZoomOut() })
	zoomIn := widget.NewButton("+", func() { ctl.Session().ZoomIn() })
	zoomReset := widget.NewButton("100%", func() { ctl.Session().ResetZoom() })

	topBar := container.NewHBox(
		toolSelect, widget.NewSeparator(),
		addSelect, applyBtn, widget.NewSeparator(),
		widget.NewLabel(ctl.Text("palette", "Palette")), paletteSelect,
		widget.NewLabel(ctl.Text("connection_style", "Connection Style")), styleSelect, widget.NewSeparator(),
		zoomOut, zoomReset, zoomIn, widget.NewSeparator(),
		saveBtn, exportBtn,
	)
	w.SetContent(container.NewBorder(container.NewHScroll(topBar), status, nil, nil, dc))

	// Keyboard shortcuts
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { save() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { exportImage() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyEqual, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { ctl.Session().ZoomIn() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyMinus, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { ctl.Session().ZoomOut() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.Key0, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { ctl.Session().ResetZoom() })
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		for i, t := range editor.Tools {
			if e.Name == fyne.KeyName(fmt.Sprint(i+1)) {
				toolSelect.SetSelected(ctl.ToolLabel(t))
			}
		}
	})

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem(ctl.Text("save", "Save"), save),
		fyne.NewMenuItem(ctl.Text("export_image", "Export as Image"), exportImage),
		fyne.NewMenuItem(ctl.Text("export_document", "Export Document"), exportDocument),
	)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if !ctl.Dirty() {
			w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Save before closing?", func(ok bool) {
			if ok {
				save()
				if ctl.Dirty() {
					return
				}
			}
			w.Close()
		}, w)
	})

	updateStatus()
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

// DiagramCanvas draws the session into a raster and forwards pointer input.
type DiagramCanvas struct {
	widget.BaseWidget
	ctl     *Controller
	lastPos fyne.Position

	// OnEditLabel is called after a double click opened a label edit.
	OnEditLabel func()
}

var (
	_ desktop.Mouseable   = (*DiagramCanvas)(nil)
	_ desktop.Hoverable   = (*DiagramCanvas)(nil)
	_ fyne.Draggable      = (*DiagramCanvas)(nil)
	_ fyne.DoubleTappable = (*DiagramCanvas)(nil)
	_ fyne.Scrollable     = (*DiagramCanvas)(nil)
)

func NewDiagramCanvas(ctl *Controller) *DiagramCanvas {
	dc := &DiagramCanvas{ctl: ctl}
	dc.ExtendBaseWidget(dc)
	return dc
}

// CreateRenderer wraps a raster that re-renders the session at widget size.
func (d *DiagramCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := canvas.NewRaster(func(w, h int) image.Image {
		scale := 1.0
		if sz := d.Size(); sz.Width > 0 {
			scale = float64(w) / float64(sz.Width)
		}
		return d.ctl.Render(w, h, scale)
	})
	return &diagramCanvasRenderer{dc: d, raster: r, objects: []fyne.CanvasObject{r}}
}

// PreferredSize sets a decent default size for the widget.
func (d *DiagramCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func (d *DiagramCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	d.lastPos = e.Position
	d.ctl.Down(e.Position.X, e.Position.Y)
}

func (d *DiagramCanvas) MouseUp(e *desktop.MouseEvent) {
	d.lastPos = e.Position
	d.ctl.Up(e.Position.X, e.Position.Y)
}

func (d *DiagramCanvas) MouseIn(e *desktop.MouseEvent) { d.lastPos = e.Position }

func (d *DiagramCanvas) MouseMoved(e *desktop.MouseEvent) {
	d.lastPos = e.Position
	d.ctl.Move(e.Position.X, e.Position.Y)
}

// MouseOut ends any gesture at the last known position.
func (d *DiagramCanvas) MouseOut() { d.ctl.Leave(d.lastPos.X, d.lastPos.Y) }

// Dragged keeps move events flowing while a button is held.
func (d *DiagramCanvas) Dragged(e *fyne.DragEvent) {
	d.lastPos = e.Position
	d.ctl.Move(e.Position.X, e.Position.Y)
}

func (d *DiagramCanvas) DragEnd() {}

func (d *DiagramCanvas) DoubleTapped(e *fyne.PointEvent) {
	d.ctl.DoubleClick(e.Position.X, e.Position.Y)
	if _, _, ok := d.ctl.Session().Editing(); ok && d.OnEditLabel != nil {
		d.OnEditLabel()
	}
}

// Scrolled zooms in steps.
func (d *DiagramCanvas) Scrolled(e *fyne.ScrollEvent) {
	switch {
	case e.Scrolled.DY > 0:
		d.ctl.Session().ZoomIn()
	case e.Scrolled.DY < 0:
		d.ctl.Session().ZoomOut()
	}
}

type diagramCanvasRenderer struct {
	dc      *DiagramCanvas
	raster  *canvas.Raster
	objects []fyne.CanvasObject
}

func (r *diagramCanvasRenderer) Destroy() {}
func (r *diagramCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *diagramCanvasRenderer) MinSize() fyne.Size { return fyne.NewSize(200, 150) }
func (r *diagramCanvasRenderer) Refresh() { r.Layout(r.dc.Size()); canvas.Refresh(r.raster) }

func (r *diagramCanvasRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	r.raster.Move(fyne.NewPos(0, 0))
}
