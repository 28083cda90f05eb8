/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowsketch/internal/bundle"
	"flowsketch/internal/palette"
)

func newBundleCmd(e *env) *cobra.Command {
	var (
		noPreview   bool
		paletteName string
	)
	cmd := &cobra.Command{
		Use:   "bundle <id> <out.zip>",
		Short: "Pack a diagram, its palette and a preview into a zip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			d, err := st.Load(ctx, args[0], e.cfg.General.User)
			if err != nil {
				return fmt.Errorf("diagram %s: %w", args[0], err)
			}
			set, err := e.palettes()
			if err != nil {
				return err
			}
			if paletteName == "" {
				paletteName = e.cfg.Editor.Palette
			}
			p, ok := set.Get(paletteName)
			if !ok {
				return fmt.Errorf("unknown palette %q", paletteName)
			}
			if err := bundle.Write(args[1], bundle.Contents{Diagram: d, Palettes: []palette.Palette{p}}, !noPreview); err != nil {
				return err
			}
			e.track("bundle", map[string]int{"nodes": len(d.Data.Nodes)})
			Good.Fprintln(cmd.OutOrStdout(), "Wrote", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&noPreview, "no-preview", false, "Skip the PNG preview")
	cmd.Flags().StringVar(&paletteName, "palette", "", "Palette to include (default from config)")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <bundle.zip>",
		Short: "Create a diagram from a bundle and install its palettes",
		Long: `import stores the bundled diagram under a new id for the current user.
Bundled palettes are added to palettes.yaml unless a palette of that name exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bundle.Read(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			d := c.Diagram
			d.ID = ""
			d.UserID = e.cfg.General.User
			if name != "" {
				d.Name = name
			}
			d, err = st.Create(ctx, d)
			if err != nil {
				return err
			}
			n, err := palette.Install(e.palettesPath(), c.Palettes)
			if err != nil {
				return fmt.Errorf("install palettes: %w", err)
			}
			e.track("import", map[string]int{"nodes": len(d.Data.Nodes), "palettes": n})
			out := cmd.OutOrStdout()
			Good.Fprintf(out, "Imported %s (%d palette(s) installed)\n", d.Name, n)
			fmt.Fprintln(out, d.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name for the imported diagram")
	return cmd
}
