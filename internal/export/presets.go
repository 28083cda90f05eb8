/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	applog "flowsketch/internal/log"
	"flowsketch/internal/render"
)

// Format is an output file type and its extension.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// PresetName represents a named set of formats.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
	PresetAll   PresetName = "all"
)

// PresetFormats returns the formats a preset expands to.
func PresetFormats(p PresetName) ([]Format, bool) {
	switch p {
	case PresetWeb:
		return []Format{FormatPNG, FormatSVG}, true
	case PresetPrint:
		return []Format{FormatPDF}, true
	case PresetAll:
		return []Format{FormatPNG, FormatSVG, FormatPDF}, true
	default:
		return nil, false
	}
}

// ParseFormats reads a comma-separated list of formats and preset names,
// e.g. "png,pdf" or "web". Duplicates are removed.
func ParseFormats(s string) ([]Format, error) {
	seen := map[Format]bool{}
	var out []Format
	add := func(f Format) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if fs, ok := PresetFormats(PresetName(part)); ok {
			for _, f := range fs {
				add(f)
			}
			continue
		}
		switch f := Format(part); f {
		case FormatPNG, FormatSVG, FormatPDF:
			add(f)
		default:
			return nil, fmt.Errorf("unknown export format %q", part)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no export formats given")
	}
	return out, nil
}

// ExportAll writes one file per format into dir, rendering formats in
// parallel. It returns the written paths sorted by name.
func ExportAll(ctx context.Context, dir, name string, f render.Frame, formats []Format, opt Options) ([]string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "export_all")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	if opt.Title == "" {
		opt.Title = name
	}
	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		i, format := i, format
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := filepath.Join(dir, FileName(name, format))
			if err := writeFile(p, format, f, opt); err != nil {
				return err
			}
			paths[i] = p
			l.InfoContext(ctx, "exported", slog.String("format", string(format)), slog.String("path", p))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.Error("export failed", slog.Any("err", err))
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// writeFile renders into a temp file next to p and renames it into place so
// watchers never see a half-written export.
func writeFile(p string, format Format, f render.Frame, opt Options) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", format, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if err := Write(tmp, format, f, opt); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", format, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(p), err)
	}
	return nil
}
