/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flowsketch/internal/domain"
	applog "flowsketch/internal/log"
)

func newNewCmd(e *env) *cobra.Command {
	var description, category, from string
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty diagram, or one from a document JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := domain.Diagram{
				UserID:      e.cfg.General.User,
				Name:        args[0],
				Description: description,
				Category:    category,
			}
			if from != "" {
				b, err := os.ReadFile(from)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(b, &d.Data); err != nil {
					return fmt.Errorf("parse %s: %w", from, err)
				}
			}
			ctx := cmd.Context()
			st, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			d, err = st.Create(ctx, d)
			if err != nil {
				return err
			}
			applog.WithOperation(e.log, "new").Info("diagram created", slog.String("id", d.ID))
			e.track("new", map[string]int{"nodes": len(d.Data.Nodes)})
			Good.Fprintf(cmd.OutOrStdout(), "Created diagram %s\n", d.Name)
			fmt.Fprintln(cmd.OutOrStdout(), d.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Diagram description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Diagram category")
	cmd.Flags().StringVar(&from, "from", "", "Initial document (JSON with nodes and connections)")
	return cmd
}

func newListCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List diagrams, newest first, optionally filtered by name or description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			ctx := cmd.Context()
			st, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			items, err := st.List(ctx, e.cfg.General.User, query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			if len(items) == 0 {
				Warn.Fprintln(out, "No diagrams found.")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{
					it.ID, it.Name, it.Category,
					strconv.Itoa(it.Nodes), strconv.Itoa(it.Connections),
					it.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			table(out, []string{"ID", "NAME", "CATEGORY", "NODES", "CONNS", "UPDATED"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a diagram's metadata, nodes and connections",
		Args:  cobra.ExactArgs(1),
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
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			Brand.Fprintln(out, d.Name)
			if d.Description != "" {
				fmt.Fprintln(out, d.Description)
			}
			Subtle.Fprintf(out, "id %s  category %q  updated %s\n\n", d.ID, d.Category, d.UpdatedAt.Local().Format(time.DateTime))

			nodes := make([][]string, 0, len(d.Data.Nodes))
			for _, n := range d.Data.Nodes {
				nodes = append(nodes, []string{n.ID, string(n.Kind), n.Label, num(n.X) + "," + num(n.Y), num(n.Width) + "x" + num(n.Height)})
			}
			table(out, []string{"NODE", "KIND", "LABEL", "POS", "SIZE"}, nodes)
			fmt.Fprintln(out)
			conns := make([][]string, 0, len(d.Data.Connections))
			for _, c := range d.Data.Connections {
				conns = append(conns, []string{c.ID, c.From, c.To, c.Color, num(c.LineWidth), string(c.LineStyle)})
			}
			table(out, []string{"CONNECTION", "FROM", "TO", "COLOR", "WIDTH", "STYLE"}, conns)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Delete(ctx, args[0], e.cfg.General.User); err != nil {
				return fmt.Errorf("diagram %s: %w", args[0], err)
			}
			e.track("delete", nil)
			Good.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
