/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"github.com/spf13/cobra"

	"flowsketch/internal/domain"
	"flowsketch/internal/ui"
)

func newUICmd(e *env) *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "ui [id]",
		Short: "Open a diagram in the desktop editor (build with -tags fyne)",
		Long: `ui opens the diagram with the given id. Without an id the most recently
updated diagram is opened, or a new "Untitled" diagram is created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			user := e.cfg.General.User

			var d domain.Diagram
			switch {
			case len(args) == 1:
				d, err = st.Load(ctx, args[0], user)
			default:
				items, lerr := st.List(ctx, user, "")
				if lerr != nil {
					return lerr
				}
				if len(items) > 0 {
					d, err = st.Load(ctx, items[0].ID, user)
				} else {
					d, err = st.Create(ctx, domain.Diagram{UserID: user, Name: "Untitled"})
				}
			}
			if err != nil {
				return err
			}
			set, err := e.palettes()
			if err != nil {
				return err
			}
			e.track("ui", map[string]int{"nodes": len(d.Data.Nodes)})
			return ui.Run(ui.Options{
				Store:     st,
				Diagram:   d,
				Palettes:  set,
				Palette:   e.cfg.Editor.Palette,
				Locale:    e.cfg.General.Locale,
				ExportDir: exportDir,
			})
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "Directory for exports made from the editor")
	return cmd
}
