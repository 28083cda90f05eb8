/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package palette provides named color presets for new nodes and connections.
// Built-in palettes can be extended or overridden by a palettes.yaml file.
package palette

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"flowsketch/internal/domain"
	applog "flowsketch/internal/log"
	"flowsketch/internal/vector"
)

const (
	MinLineWidth = 1.0
	MaxLineWidth = 10.0
	Default      = "terminal"
)

// Palette holds the colors captured by new nodes and connections.
type Palette struct {
	Name       string           `yaml:"name"`
	Background string           `yaml:"background"`
	Fill       string           `yaml:"fill"`
	Border     string           `yaml:"border"`
	Text       string           `yaml:"text"`
	Connection string           `yaml:"connection"`
	LineWidth  float64          `yaml:"lineWidth"`
	LineStyle  domain.LineStyle `yaml:"lineStyle"`
}

// Builtins returns the palettes that ship with the binary.
func Builtins() []Palette {
	return []Palette{
		{Name: "terminal", Background: "#000000", Fill: "#0A0A0A", Border: "#00FF99", Text: "#FFFFFF", Connection: "#00FF99", LineWidth: 2, LineStyle: domain.LineSolid},
		{Name: "paper", Background: "#FFFFFF", Fill: "#FFFFFF", Border: "#222222", Text: "#111111", Connection: "#444444", LineWidth: 2, LineStyle: domain.LineSolid},
		{Name: "blueprint", Background: "#0B3D91", Fill: "#0B3D91", Border: "#E0F0FF", Text: "#E0F0FF", Connection: "#9CC7FF", LineWidth: 1, LineStyle: domain.LineDashed},
	}
}

// Validate checks colors and style, and clamps the line width into range.
func (p *Palette) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("palette name is required")
	}
	for field, v := range map[string]string{
		"background": p.Background, "fill": p.Fill, "border": p.Border,
		"text": p.Text, "connection": p.Connection,
	} {
		if _, err := vector.ParseHex(v); err != nil {
			return fmt.Errorf("palette %s: %s: %w", p.Name, field, err)
		}
	}
	switch p.LineStyle {
	case domain.LineSolid, domain.LineDashed, domain.LineDotted:
	case "":
		p.LineStyle = domain.LineSolid
	default:
		return fmt.Errorf("palette %s: unknown line style %q", p.Name, p.LineStyle)
	}
	p.LineWidth = ClampWidth(p.LineWidth)
	return nil
}

// ClampWidth limits w to [MinLineWidth, MaxLineWidth].
func ClampWidth(w float64) float64 {
	if math.IsNaN(w) || w < MinLineWidth {
		return MinLineWidth
	}
	if w > MaxLineWidth {
		return MaxLineWidth
	}
	return w
}

type file struct {
	Palettes []Palette `yaml:"palettes"`
}

// Set is an ordered collection of palettes addressable by name.
type Set struct {
	byName map[string]Palette
}

// NewSet starts from the built-ins.
func NewSet() *Set {
	s := &Set{byName: map[string]Palette{}}
	for _, p := range Builtins() {
		s.byName[p.Name] = p
	}
	return s
}

// LoadFile merges palettes from a YAML file. A missing file is not an error.
// Entries with the name of a built-in replace it.
func (s *Set) LoadFile(path string) error {
	l := applog.WithOperation(applog.WithComponent("palette"), "load").With(slog.String("path", path))
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read palettes: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse palettes: %w", err)
	}
	for i := range f.Palettes {
		p := f.Palettes[i]
		if err := p.Validate(); err != nil {
			return err
		}
		s.byName[p.Name] = p
	}
	l.Debug("palettes loaded", slog.Int("count", len(f.Palettes)))
	return nil
}

// Get returns the palette called name.
func (s *Set) Get(name string) (Palette, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// Names lists palette names alphabetically.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.byName))
	for n := range s.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Install appends palettes to the YAML file at path. Palettes whose name is
// already taken by a built-in or by an entry in the file are skipped. It
// returns the number of palettes added.
func Install(path string, ps []Palette) (int, error) {
	l := applog.WithOperation(applog.WithComponent("palette"), "install").With(slog.String("path", path))
	var f file
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &f); err != nil {
			return 0, fmt.Errorf("parse palettes: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return 0, fmt.Errorf("read palettes: %w", err)
	}
	taken := map[string]bool{}
	for _, p := range Builtins() {
		taken[p.Name] = true
	}
	for _, p := range f.Palettes {
		taken[p.Name] = true
	}
	added := 0
	for _, p := range ps {
		if taken[p.Name] {
			l.Warn("skip existing palette", slog.String("name", p.Name))
			continue
		}
		if err := p.Validate(); err != nil {
			return 0, err
		}
		taken[p.Name] = true
		f.Palettes = append(f.Palettes, p)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	out, err := yaml.Marshal(f)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return 0, fmt.Errorf("write palettes: %w", err)
	}
	l.Info("palettes installed", slog.Int("count", added))
	return added, nil
}
