/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"flowsketch/internal/editor"
	"flowsketch/internal/i18n"
	applog "flowsketch/internal/log"
	"flowsketch/internal/script"
)

func newReplayCmd(e *env) *cobra.Command {
	var (
		save        bool
		paletteName string
	)
	cmd := &cobra.Command{
		Use:   "replay <id> <script>",
		Short: "Replay a gesture script against a diagram",
		Long: `Replay feeds the commands of a gesture script (tool, add, down, move, up,
dblclick, label, commit, zoom, palette, style ...) to an editor session opened
on the diagram. The result is printed and, with --save, stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := applog.WithOperation(e.log, "replay")
			text, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
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

			s := editor.New(d.Data, editor.FromPalette(p), i18n.New(e.cfg.General.Locale))
			if err := script.RunText(s, string(text), set); err != nil {
				var perr script.ParseError
				if errors.As(err, &perr) {
					for _, pe := range perr {
						Bad.Fprintf(cmd.ErrOrStderr(), "%s:%s\n", args[1], pe.Error())
					}
					return fmt.Errorf("%d script error(s)", len(perr))
				}
				return err
			}
			d.Data = s.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d nodes, %d connections, zoom %.0f%%, tool %s\n",
				len(d.Data.Nodes), len(d.Data.Connections), s.Viewport().Zoom*100, s.Tool())
			l.Info("replayed", slog.String("id", d.ID), slog.String("script", args[1]))
			e.track("replay", map[string]int{"nodes": len(d.Data.Nodes)})
			if !save {
				Subtle.Fprintln(out, "Dry run, use --save to store the result.")
				return nil
			}
			if err := st.Save(ctx, d); err != nil {
				return err
			}
			Good.Fprintln(out, "Saved", d.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Store the resulting document")
	cmd.Flags().StringVar(&paletteName, "palette", "", "Starting palette (default from config)")
	return cmd
}
