/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"flowsketch/internal/domain"
	"flowsketch/internal/model"
	"flowsketch/internal/palette"
)

// Settings are the user's current style choices. They are read when a node or
// connection is created and copied into it; later edits do not touch existing items.
type Settings struct {
	Background string
	Node       model.NodeStyle
	Connection model.ConnectionStyle
}

// FromPalette builds settings from a palette.
func FromPalette(p palette.Palette) Settings {
	return Settings{
		Background: p.Background,
		Node:       model.NodeStyle{Fill: p.Fill, Border: p.Border, Text: p.Text},
		Connection: model.ConnectionStyle{
			Color: p.Connection,
			Width: palette.ClampWidth(p.LineWidth),
			Style: p.LineStyle,
		},
	}
}

// DefaultSettings uses the built-in terminal palette.
func DefaultSettings() Settings {
	p, _ := palette.NewSet().Get(palette.Default)
	return FromPalette(p)
}

// Labeler supplies the default label for a new node.
type Labeler interface {
	KindLabel(kind domain.Kind) string
}

type rawLabels struct{}

func (rawLabels) KindLabel(k domain.Kind) string { return string(k) }
