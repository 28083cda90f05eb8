/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle packs a diagram with its palettes and a preview image into a
// single .zip file for sharing, and reads such files back.
package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"flowsketch/internal/domain"
	"flowsketch/internal/export"
	applog "flowsketch/internal/log"
	"flowsketch/internal/palette"
	"flowsketch/internal/render"
	"flowsketch/internal/storage"
	"flowsketch/internal/vector"
)

const (
	ManifestName = "flowsketch.manifest.txt"
	DiagramName  = "diagram.json"
	PalettesName = "palettes.yaml"
	PreviewName  = "preview.png"

	// maxEntry bounds each decompressed entry.
	maxEntry = 16 << 20
)

// Contents is what a bundle carries.
type Contents struct {
	Diagram  domain.Diagram
	Palettes []palette.Palette
}

type paletteFile struct {
	Palettes []palette.Palette `yaml:"palettes"`
}

// Write creates the bundle at dest. The first palette, if any, provides the
// preview background.
func Write(dest string, c Contents, preview bool) (err error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "write").With(slog.String("zip", dest))
	if strings.TrimSpace(dest) == "" {
		return errors.New("destination is required")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(dest)

	zf, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() {
		if cerr := zf.Close(); err == nil {
			err = cerr
		}
	}()
	zw := zip.NewWriter(zf)

	d := c.Diagram
	manifest := fmt.Sprintf("flowsketch diagram bundle\nCreated: %s\nDiagram: %s (%s)\nNodes: %d\nConnections: %d\n",
		time.Now().UTC().Format(time.RFC3339), d.Name, d.ID, len(d.Data.Nodes), len(d.Data.Connections))
	if err := add(zw, ManifestName, []byte(manifest)); err != nil {
		return err
	}
	dj, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal diagram: %w", err)
	}
	if err := add(zw, DiagramName, dj); err != nil {
		return err
	}
	if len(c.Palettes) > 0 {
		py, err := yaml.Marshal(paletteFile{Palettes: c.Palettes})
		if err != nil {
			return fmt.Errorf("marshal palettes: %w", err)
		}
		if err := add(zw, PalettesName, py); err != nil {
			return err
		}
	}
	if preview {
		bg := vector.Black
		if len(c.Palettes) > 0 {
			if v, err := vector.ParseHex(c.Palettes[0].Background); err == nil {
				bg = v
			}
		}
		var buf bytes.Buffer
		opt := export.DefaultOptions()
		opt.Fit = true
		if err := export.PNG(&buf, render.DocumentFrame(d.Data, bg), opt); err != nil {
			return fmt.Errorf("render preview: %w", err)
		}
		if err := add(zw, PreviewName, buf.Bytes()); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	l.Info("bundle written", slog.String("diagram", d.ID), slog.Int("palettes", len(c.Palettes)), slog.Bool("preview", preview))
	return nil
}

func add(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Read opens a bundle and validates the diagram and palettes in it. The
// manifest and preview are ignored.
func Read(path string) (Contents, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "read").With(slog.String("zip", path))
	var c Contents
	r, err := zip.OpenReader(path)
	if err != nil {
		return c, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()

	found := false
	for _, f := range r.File {
		switch f.Name {
		case DiagramName:
			b, err := readEntry(f)
			if err != nil {
				return c, err
			}
			if err := json.Unmarshal(b, &c.Diagram); err != nil {
				return c, fmt.Errorf("parse %s: %w", DiagramName, err)
			}
			if err := storage.Validate(c.Diagram.Data); err != nil {
				return c, err
			}
			found = true
		case PalettesName:
			b, err := readEntry(f)
			if err != nil {
				return c, err
			}
			var pf paletteFile
			if err := yaml.Unmarshal(b, &pf); err != nil {
				return c, fmt.Errorf("parse %s: %w", PalettesName, err)
			}
			for i := range pf.Palettes {
				if err := pf.Palettes[i].Validate(); err != nil {
					return c, err
				}
			}
			c.Palettes = pf.Palettes
		case ManifestName, PreviewName:
		default:
			l.Warn("skip unknown entry", slog.String("name", f.Name))
		}
	}
	if !found {
		return c, fmt.Errorf("bundle has no %s", DiagramName)
	}
	return c, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(io.LimitReader(rc, maxEntry+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(b) > maxEntry {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntry)
	}
	return b, nil
}
