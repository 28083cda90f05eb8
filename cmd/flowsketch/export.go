/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"flowsketch/internal/export"
	applog "flowsketch/internal/log"
	"flowsketch/internal/render"
	"flowsketch/internal/storage"
	"flowsketch/internal/vector"
)

type exportFlags struct {
	formats string
	out     string
	fit     bool
	width   int
	height  int
	palette string
	watch   bool
}

func newExportCmd(e *env) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a diagram to PNG, SVG or PDF",
		Long: `Export renders a stored diagram without editor chrome.
--format takes a comma-separated list of formats (png, svg, pdf) or presets
(web = png+svg, print = pdf, all). With --watch the export is redone each time
the diagram file changes (file storage only).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := export.ParseFormats(f.formats)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			run := func() error { return e.exportOnce(ctx, cmd.OutOrStdout(), st, args[0], formats, f) }
			if err := run(); err != nil {
				return err
			}
			if !f.watch {
				return nil
			}
			fstore, ok := st.(*storage.FileStore)
			if !ok {
				return errors.New("--watch needs the file storage driver")
			}
			path, ok := fstore.Path(args[0], e.cfg.General.User)
			if !ok {
				return fmt.Errorf("diagram %s: %w", args[0], storage.ErrNotFound)
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			Subtle.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", path)
			return watchFile(ctx, path, 200*time.Millisecond, func() {
				if err := run(); err != nil {
					Bad.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&f.formats, "format", "f", "png", "Formats or presets, comma separated")
	cmd.Flags().StringVarP(&f.out, "out", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&f.fit, "fit", true, "Crop the canvas to the diagram content")
	cmd.Flags().IntVar(&f.width, "width", 0, "Canvas width (default from config)")
	cmd.Flags().IntVar(&f.height, "height", 0, "Canvas height (default from config)")
	cmd.Flags().StringVar(&f.palette, "palette", "", "Palette whose background is used (default from config)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Re-export whenever the diagram changes")
	return cmd
}

func (e *env) exportOnce(ctx context.Context, out io.Writer, st storage.Store, id string, formats []export.Format, f exportFlags) error {
	l := applog.WithOperation(e.log, "export")
	d, err := st.Load(ctx, id, e.cfg.General.User)
	if err != nil {
		return fmt.Errorf("diagram %s: %w", id, err)
	}
	bg, err := e.background(f.palette)
	if err != nil {
		return err
	}
	opt := export.Options{
		Width:  pick(f.width, e.cfg.Editor.CanvasWidth),
		Height: pick(f.height, e.cfg.Editor.CanvasHeight),
		Fit:    f.fit,
		Title:  d.Name,
	}
	paths, err := export.ExportAll(ctx, f.out, d.Name, render.DocumentFrame(d.Data, bg), formats, opt)
	if err != nil {
		return err
	}
	for _, p := range paths {
		Good.Fprintln(out, "Wrote", p)
	}
	l.Info("export done", slog.String("id", id), slog.Int("files", len(paths)))
	e.track("export", map[string]int{"formats": len(formats), "nodes": len(d.Data.Nodes)})
	return nil
}

// background resolves the export background from a palette name.
func (e *env) background(name string) (vector.Color, error) {
	if name == "" {
		name = e.cfg.Editor.Palette
	}
	set, err := e.palettes()
	if err != nil {
		return vector.Color{}, err
	}
	p, ok := set.Get(name)
	if !ok {
		return vector.Color{}, fmt.Errorf("unknown palette %q", name)
	}
	return vector.ParseHex(p.Background)
}

func pick(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// watchFile calls fn after path changes, debounced by delay. The parent
// directory is watched because stores replace files by rename.
func watchFile(ctx context.Context, path string, delay time.Duration, fn func()) error {
	l := applog.WithComponent("watch").With(slog.String("path", path))
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			l.Debug("change", slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warn("watch error", slog.Any("err", err))
		}
	}
}
