/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "fmt"

// Script is a parsed gesture script: editor commands in source order.
//
// Syntax, one command per line, '#' starts a comment:
//
//	tool select|move|delete|connect
//	add <kind>
//	down|move|up|leave|dblclick X Y      screen pixels relative to the canvas
//	label "<text>"                       replaces the open label draft
//	commit | cancel                      finishes the label edit
//	zoom in|out|reset
//	palette <name>
//	style <#color> <width> solid|dashed|dotted
//	apply-colors
type Script struct {
	Commands []Command
}

// Op names a command.
type Op string

const (
	OpTool        Op = "tool"
	OpAdd         Op = "add"
	OpDown        Op = "down"
	OpMove        Op = "move"
	OpUp          Op = "up"
	OpLeave       Op = "leave"
	OpDoubleClick Op = "dblclick"
	OpLabel       Op = "label"
	OpCommit      Op = "commit"
	OpCancel      Op = "cancel"
	OpZoom        Op = "zoom"
	OpPalette     Op = "palette"
	OpStyle       Op = "style"
	OpApplyColors Op = "apply-colors"
)

// Command is one parsed line. X and Y are set for pointer commands, Width for
// style; Args holds the remaining word arguments.
type Command struct {
	Op     Op
	Args   []string
	X, Y   float64
	Width  float64
	LineNo int // 1-based line number in the source
}

// Error represents a parse or replay error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message) }
