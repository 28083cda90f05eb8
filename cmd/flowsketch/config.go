/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flowsketch/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print effective settings, marking environment overrides",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				out := cmd.OutOrStdout()
				Subtle.Fprintln(out, "# "+e.configPath)
				for _, line := range e.cfg.Describe() {
					fmt.Fprintln(out, line)
				}
				if err := e.cfg.Validate(); err != nil {
					Warn.Fprintln(out, "warning:", err)
				}
			},
		},
		&cobra.Command{
			Use:       "set <key> <value>",
			Short:     "Write one setting to the config file",
			Long:      "Keys: " + strings.Join(config.Keys, ", "),
			Args:      cobra.ExactArgs(2),
			ValidArgs: config.Keys,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.ReadFile(e.configPath)
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := config.Save(e.configPath, cfg, ""); err != nil {
					return err
				}
				Good.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], args[1])
				if env, ok := config.EnvOverrideFor(args[0]); ok {
					Warn.Fprintf(cmd.OutOrStdout(), "note: %s overrides this value\n", env)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-password",
			Short: "Read the database password from stdin into the OS keyring",
			Long:  "The password replaces ${PASSWORD} in storage.dsn.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				Subtle.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				pw := strings.TrimRight(line, "\r\n")
				if pw == "" {
					if err != nil {
						return fmt.Errorf("read password: %w", err)
					}
					return errors.New("empty password")
				}
				cfg, err := config.ReadFile(e.configPath)
				if err != nil {
					return err
				}
				if err := config.Save(e.configPath, cfg, pw); err != nil {
					return err
				}
				Good.Fprintln(cmd.OutOrStdout(), "Password stored in keyring.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "forget-password",
			Short: "Remove the database password from the OS keyring",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.ForgetPassword(); err != nil {
					return err
				}
				Good.Fprintln(cmd.OutOrStdout(), "Password removed.")
				return nil
			},
		},
	)
	return cmd
}
