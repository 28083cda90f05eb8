/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"testing"

	"flowsketch/internal/domain"
	"flowsketch/internal/editor"
	"flowsketch/internal/palette"
)

const flow = `# build a two node flow
add start
down 250 230      # grab the start node
move 550 230
up 550 230

add process
down 300 230      # right handle of process
move 500 230
up 500 230        # left handle of start

dblclick 250 230
label "Validate \"input\""
commit

style #FF00FF 3 dashed
tool connect
down 550 230
down 250 230
zoom in
`

func TestParseFlow(t *testing.T) {
	sc, errs := Parse(flow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if len(sc.Commands) != 16 {
		t.Fatalf("expected 16 commands, got %d", len(sc.Commands))
	}
	c := sc.Commands[1]
	if c.Op != OpDown || c.X != 250 || c.Y != 230 || c.LineNo != 3 {
		t.Fatalf("unexpected down command: %+v", c)
	}
	lbl := sc.Commands[9]
	if lbl.Op != OpLabel || lbl.Args[0] != `Validate "input"` {
		t.Fatalf("unexpected label command: %+v", lbl)
	}
	st := sc.Commands[11]
	if st.Op != OpStyle || st.Args[0] != "#FF00FF" || st.Width != 3 || st.Args[1] != "dashed" {
		t.Fatalf("hex color must not be taken for a comment: %+v", st)
	}
}

func TestParseErrorsHaveLineAndColumn(t *testing.T) {
	input := "tool pen\n\ndown 10\nlabel \"oops\nfly 1 2\nstyle #GG0000 2 solid\nzoom in extra\nlabel bare\nmove 1 x"
	_, errs := Parse(input)
	want := []struct{ line, col int }{
		{1, 6},
		{3, 5},
		{4, 7},
		{5, 1},
		{6, 7},
		{7, 9},
		{8, 7},
		{9, 8},
	}
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors, got %d: %+v", len(want), len(errs), errs)
	}
	for i, w := range want {
		if errs[i].Line != w.line || errs[i].Column != w.col {
			t.Fatalf("error %d at %d:%d, want %d:%d (%s)", i, errs[i].Line, errs[i].Column, w.line, w.col, errs[i].Message)
		}
	}
}

func TestParseRejectsNonFiniteWidth(t *testing.T) {
	for _, w := range []string{"NaN", "nan", "Inf", "-Inf"} {
		_, errs := Parse("style #00FF99 " + w + " solid")
		if len(errs) != 1 || errs[0].Column != 15 {
			t.Fatalf("width %s: expected one error at column 15, got %+v", w, errs)
		}
	}
}

func TestRunFlow(t *testing.T) {
	s := editor.New(domain.Document{}, editor.DefaultSettings(), nil)
	if err := RunText(s, flow, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	nodes := s.Model().Nodes()
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	start, proc := nodes[0], nodes[1]
	if start.X != 500 || start.Y != 200 {
		t.Fatalf("start should have moved to (500,200), got (%v,%v)", start.X, start.Y)
	}
	if proc.Label != `Validate "input"` {
		t.Fatalf("label got %q", proc.Label)
	}
	conns := s.Model().Connections()
	if len(conns) != 2 {
		t.Fatalf("expected 2 connections, got %+v", conns)
	}
	if conns[0].From != proc.ID || conns[0].To != start.ID || conns[0].LineStyle != domain.LineSolid {
		t.Fatalf("drag connection wrong: %+v", conns[0])
	}
	if conns[1].From != start.ID || conns[1].To != proc.ID || conns[1].Color != "#FF00FF" || conns[1].LineWidth != 3 || conns[1].LineStyle != domain.LineDashed {
		t.Fatalf("two-click connection wrong: %+v", conns[1])
	}
	if z := s.Viewport().Zoom; z != 1.1 {
		t.Fatalf("zoom got %v", z)
	}
	if s.Tool() != editor.ToolConnect {
		t.Fatalf("tool got %v", s.Tool())
	}
}

func TestRunPalette(t *testing.T) {
	s := editor.New(domain.Document{}, editor.DefaultSettings(), nil)
	if err := RunText(s, "palette paper\nadd data\n", palette.NewSet()); err != nil {
		t.Fatalf("run: %v", err)
	}
	paper, _ := palette.NewSet().Get("paper")
	n := s.Model().Nodes()[0]
	if n.FillColor != paper.Fill || n.BorderColor != paper.Border {
		t.Fatalf("node should use paper colors, got %+v", n)
	}

	err := RunText(s, "add end\npalette nope\nadd end", nil)
	var se Error
	if !errors.As(err, &se) || se.Line != 2 {
		t.Fatalf("want replay error on line 2, got %v", err)
	}
	if got := len(s.Model().Nodes()); got != 2 {
		t.Fatalf("replay should stop at the bad palette, nodes=%d", got)
	}
}

func TestRunTextRejectsBadScriptWithoutReplaying(t *testing.T) {
	s := editor.New(domain.Document{}, editor.DefaultSettings(), nil)
	err := RunText(s, "add start\nadd blob\n", nil)
	var pe ParseError
	if !errors.As(err, &pe) || len(pe) != 1 || pe[0].Line != 2 {
		t.Fatalf("want one parse error on line 2, got %v", err)
	}
	if len(s.Model().Nodes()) != 0 {
		t.Fatalf("nothing should be replayed")
	}
}
