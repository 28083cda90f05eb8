/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"log/slog"

	"flowsketch/internal/domain"
	"flowsketch/internal/editor"
	applog "flowsketch/internal/log"
	"flowsketch/internal/palette"
	"flowsketch/internal/vector"
)

// Run replays sc against s in order. Editor operations cannot fail; the only
// replay error is a palette name missing from palettes, which stops the run.
func Run(s *editor.Session, sc Script, palettes *palette.Set) error {
	l := applog.WithOperation(applog.WithComponent("script"), "run")
	if palettes == nil {
		palettes = palette.NewSet()
	}
	for _, c := range sc.Commands {
		at := vector.Pt{X: c.X, Y: c.Y}
		switch c.Op {
		case OpTool:
			s.SetTool(editor.Tool(c.Args[0]))
		case OpAdd:
			s.AddNode(domain.Kind(c.Args[0]))
		case OpDown:
			s.PointerDown(at)
		case OpMove:
			s.PointerMove(at)
		case OpUp:
			s.PointerUp(at)
		case OpLeave:
			s.PointerLeave(at)
		case OpDoubleClick:
			s.DoubleClick(at)
		case OpLabel:
			s.SetLabelDraft(c.Args[0])
		case OpCommit:
			s.CommitLabel()
		case OpCancel:
			s.CancelLabel()
		case OpZoom:
			switch c.Args[0] {
			case "in":
				s.ZoomIn()
			case "out":
				s.ZoomOut()
			default:
				s.ResetZoom()
			}
		case OpPalette:
			p, ok := palettes.Get(c.Args[0])
			if !ok {
				return Error{Line: c.LineNo, Column: 1, Message: fmt.Sprintf("unknown palette %q", c.Args[0])}
			}
			s.SetSettings(editor.FromPalette(p))
		case OpStyle:
			st := s.Settings()
			st.Connection.Color = c.Args[0]
			st.Connection.Width = c.Width
			st.Connection.Style = domain.LineStyle(c.Args[1])
			s.SetSettings(st)
		case OpApplyColors:
			s.ApplyColorsToSelected()
		}
	}
	l.Debug("script replayed", slog.Int("commands", len(sc.Commands)), slog.Int("nodes", len(s.Model().Nodes())))
	return nil
}

// RunText parses and replays in one step. Parse errors are returned joined;
// nothing is replayed when any line is bad.
func RunText(s *editor.Session, text string, palettes *palette.Set) error {
	sc, errs := Parse(text)
	if len(errs) > 0 {
		return ParseError(errs)
	}
	return Run(s, sc, palettes)
}

// ParseError bundles every error from one Parse call.
type ParseError []Error

func (p ParseError) Error() string {
	if len(p) == 1 {
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", p[0].Error(), len(p)-1)
}
