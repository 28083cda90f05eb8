/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"math"
	"strconv"
	"strings"
	"unicode"

	"flowsketch/internal/domain"
	"flowsketch/internal/editor"
	"flowsketch/internal/vector"
)

type token struct {
	text   string
	col    int // 1-based column of the token start
	quoted bool
}

// Parse parses script text. It keeps going after a bad line so that every
// error is reported at once; commands from bad lines are dropped.
func Parse(input string) (Script, []Error) {
	s := Script{}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		toks, err := lex(scanner.Text())
		if err != nil {
			err.Line = lineNo
			errs = append(errs, *err)
			continue
		}
		if len(toks) == 0 {
			continue
		}
		cmd, perr := parseCommand(toks)
		if perr != nil {
			perr.Line = lineNo
			errs = append(errs, *perr)
			continue
		}
		cmd.LineNo = lineNo
		s.Commands = append(s.Commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return s, errs
}

// lex splits a line into words and double-quoted strings, dropping comments.
// Columns count runes.
func lex(line string) ([]token, *Error) {
	var toks []token
	rs := []rune(strings.TrimRight(line, "\r"))
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '#' && (len(toks) == 0 || i+1 == len(rs) || unicode.IsSpace(rs[i+1])):
			// '#' opens a comment at line start or as a lone word; #RRGGBB stays a word
			return toks, nil
		case r == '"':
			start := i
			var b strings.Builder
			i++
			closed := false
			for i < len(rs) {
				c := rs[i]
				if c == '\\' && i+1 < len(rs) {
					switch rs[i+1] {
					case 'n':
						b.WriteRune('\n')
					case 't':
						b.WriteRune('\t')
					default:
						b.WriteRune(rs[i+1])
					}
					i += 2
					continue
				}
				if c == '"' {
					closed = true
					i++
					break
				}
				b.WriteRune(c)
				i++
			}
			if !closed {
				return nil, &Error{Column: start + 1, Message: "unterminated string"}
			}
			toks = append(toks, token{text: b.String(), col: start + 1, quoted: true})
		default:
			start := i
			for i < len(rs) && !unicode.IsSpace(rs[i]) && rs[i] != '"' {
				i++
			}
			toks = append(toks, token{text: string(rs[start:i]), col: start + 1})
		}
	}
	return toks, nil
}

func errAt(t token, msg string) *Error { return &Error{Column: t.col, Message: msg} }

func parseCommand(toks []token) (Command, *Error) {
	head := toks[0]
	args := toks[1:]
	op := Op(strings.ToLower(head.text))
	if head.quoted {
		return Command{}, errAt(head, "expected a command, got a string")
	}
	cmd := Command{Op: op}

	arity := func(n int) *Error {
		if len(args) == n {
			return nil
		}
		if len(args) > n {
			return errAt(args[n], "unexpected argument "+strconv.Quote(args[n].text))
		}
		return &Error{Column: head.col + len([]rune(head.text)), Message: op.String() + " needs " + strconv.Itoa(n) + " argument(s)"}
	}

	switch op {
	case OpTool:
		if e := arity(1); e != nil {
			return cmd, e
		}
		if !editor.Tool(args[0].text).Valid() {
			return cmd, errAt(args[0], "unknown tool "+strconv.Quote(args[0].text))
		}
		cmd.Args = []string{args[0].text}
	case OpAdd:
		if e := arity(1); e != nil {
			return cmd, e
		}
		if !domain.Kind(args[0].text).Valid() {
			return cmd, errAt(args[0], "unknown node kind "+strconv.Quote(args[0].text))
		}
		cmd.Args = []string{args[0].text}
	case OpDown, OpMove, OpUp, OpLeave, OpDoubleClick:
		if e := arity(2); e != nil {
			return cmd, e
		}
		var e *Error
		if cmd.X, e = number(args[0]); e != nil {
			return cmd, e
		}
		if cmd.Y, e = number(args[1]); e != nil {
			return cmd, e
		}
	case OpLabel:
		if e := arity(1); e != nil {
			return cmd, e
		}
		if !args[0].quoted {
			return cmd, errAt(args[0], "label text must be quoted")
		}
		cmd.Args = []string{args[0].text}
	case OpCommit, OpCancel, OpApplyColors:
		if e := arity(0); e != nil {
			return cmd, e
		}
	case OpZoom:
		if e := arity(1); e != nil {
			return cmd, e
		}
		switch args[0].text {
		case "in", "out", "reset":
		default:
			return cmd, errAt(args[0], "zoom takes in, out or reset")
		}
		cmd.Args = []string{args[0].text}
	case OpPalette:
		if e := arity(1); e != nil {
			return cmd, e
		}
		cmd.Args = []string{args[0].text}
	case OpStyle:
		if e := arity(3); e != nil {
			return cmd, e
		}
		if _, err := vector.ParseHex(args[0].text); err != nil {
			return cmd, errAt(args[0], err.Error())
		}
		w, e := number(args[1])
		if e != nil {
			return cmd, e
		}
		if w < 1 || w > 10 {
			return cmd, errAt(args[1], "line width must be between 1 and 10")
		}
		switch domain.LineStyle(args[2].text) {
		case domain.LineSolid, domain.LineDashed, domain.LineDotted:
		default:
			return cmd, errAt(args[2], "line style must be solid, dashed or dotted")
		}
		cmd.Width = w
		cmd.Args = []string{args[0].text, args[2].text}
	default:
		return cmd, errAt(head, "unknown command "+strconv.Quote(head.text))
	}
	return cmd, nil
}

func (o Op) String() string { return string(o) }

func number(t token) (float64, *Error) {
	v, err := strconv.ParseFloat(t.text, 64)
	if err != nil || t.quoted || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errAt(t, "expected a number, got "+strconv.Quote(t.text))
	}
	return v, nil
}
