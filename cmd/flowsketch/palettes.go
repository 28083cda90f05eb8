/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newPalettesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "palettes",
		Short: "List built-in and user palettes",
		Long:  "User palettes are read from palettes.yaml next to config.yaml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := e.palettes()
			if err != nil {
				return err
			}
			var rows [][]string
			for _, name := range set.Names() {
				p, _ := set.Get(name)
				mark := ""
				if name == e.cfg.Editor.Palette {
					mark = "*"
				}
				rows = append(rows, []string{
					mark + name, p.Background, p.Fill, p.Border, p.Text, p.Connection,
					strconv.FormatFloat(p.LineWidth, 'f', -1, 64), string(p.LineStyle),
				})
			}
			table(cmd.OutOrStdout(), []string{"NAME", "BACKGROUND", "FILL", "BORDER", "TEXT", "LINE", "WIDTH", "STYLE"}, rows)
			return nil
		},
	}
}
