/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flowsketch/internal/config"
	applog "flowsketch/internal/log"
	"flowsketch/internal/palette"
	"flowsketch/internal/storage"
	"flowsketch/internal/telemetry"
)

// env is shared by all subcommands. Config is loaded once in PersistentPreRunE.
type env struct {
	user       string
	configPath string
	verbose    bool

	cfg      config.AppConfig
	password string
	tel      *telemetry.Client
	log      *slog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "flowsketch",
		Short: "Flowchart editor with file, SQLite or Postgres storage",
		Long: `flowsketch edits flowchart diagrams made of typed nodes and directed connections.
Diagrams are stored per user and can be exported to PNG, SVG and PDF,
replayed from gesture scripts, or opened in the desktop editor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.tel.Close()
		},
	}
	root.PersistentFlags().StringVarP(&e.user, "user", "u", "", "Owner of the diagrams (default from config)")
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "Path to config.yaml (default in the user config dir)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newVersionCmd(),
		newNewCmd(e),
		newListCmd(e),
		newShowCmd(e),
		newDeleteCmd(e),
		newExportCmd(e),
		newReplayCmd(e),
		newUICmd(e),
		newBundleCmd(e),
		newImportCmd(e),
		newConfigCmd(e),
		newPalettesCmd(e),
	)
	return root
}

func (e *env) load() error {
	var err error
	if e.configPath == "" {
		e.configPath, err = config.ConfigPath()
		if err != nil {
			return fmt.Errorf("locate config: %w", err)
		}
	}
	e.cfg, e.password, err = config.LoadFrom(e.configPath)
	if err != nil {
		return err
	}
	if u := strings.TrimSpace(e.user); u != "" {
		e.cfg.General.User = u
	}

	opts := applog.FromEnv()
	if _, ok := os.LookupEnv(config.EnvLogLevel); !ok && e.cfg.Logging.Level != "" {
		opts.Level = e.cfg.Logging.Level
	}
	if _, ok := os.LookupEnv(config.EnvLogFormat); !ok && e.cfg.Logging.Format != "" {
		opts.Format = e.cfg.Logging.Format
	}
	if opts.File == "" {
		opts.File = e.cfg.Logging.File
	}
	opts.AddSource = opts.AddSource || e.cfg.Logging.Source
	applog.Init(opts)
	if e.verbose {
		applog.SetLevel("debug")
	}
	e.log = applog.WithComponent("cli")
	e.tel = telemetry.New(telemetry.FromEnv())
	e.log.Debug("config loaded", slog.String("path", e.configPath), slog.String("driver", e.cfg.Storage.Driver))
	return nil
}

// open returns the configured store. Callers close it.
func (e *env) open(ctx context.Context) (storage.Store, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return storage.Open(ctx, e.cfg.Storage, e.password)
}

func (e *env) palettesPath() string { return filepath.Join(filepath.Dir(e.configPath), "palettes.yaml") }

// palettes returns the built-in palettes plus palettes.yaml next to the config.
func (e *env) palettes() (*palette.Set, error) {
	set := palette.NewSet()
	if err := set.LoadFile(e.palettesPath()); err != nil {
		return nil, err
	}
	return set, nil
}

func (e *env) track(name string, counts map[string]int) { e.tel.Track(name, counts) }
