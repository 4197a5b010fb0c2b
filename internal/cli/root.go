/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli wires the cellsorter command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cellsorter/internal/config"
	applog "cellsorter/internal/log"
	"cellsorter/internal/version"
)

// globals holds the persistent flags and the config they resolve to.
type globals struct {
	cfgFile    string
	sessionDir string
	noColor    bool

	cfg config.AppConfig
}

// NewRootCmd builds a fresh command tree. Each call has its own flag state.
func NewRootCmd() *cobra.Command {
	g := &globals{cfg: config.Defaults()}
	root := &cobra.Command{
		Use:   "cellsorter",
		Short: "CellSorter UI definitions, sessions and display modes",
		Long: `cellsorter manages declarative UI definitions and the session state
of the CellSorter desktop shell.

Examples:
  cellsorter session create --id lab-a
  cellsorter model export ui.json --format compact
  cellsorter model validate ui.json --strict
  cellsorter mode-info
  cellsorter ui --session session_lab-a.json`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load()
		},
	}
	root.SetVersionTemplate("cellsorter {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&g.cfgFile, "config", "", "config file (default: user config dir)")
	pf.StringVar(&g.sessionDir, "dir", "", "session directory (overrides config)")
	pf.BoolVar(&g.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newSessionCmd(g),
		newModelCmd(g),
		newModeInfoCmd(g),
		newUICmd(g),
		newVersionCmd(),
	)
	return root
}

func (g *globals) load() error {
	var (
		cfg config.AppConfig
		err error
	)
	if g.cfgFile != "" {
		cfg, err = config.LoadFrom(g.cfgFile, true)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if g.sessionDir != "" {
		cfg.Session.Dir = g.sessionDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	g.cfg = cfg
	opts := cfg.LogOptions()
	opts.NoColor = g.noColor
	applog.Init(opts)
	return nil
}

// Execute runs the command tree against os.Args.
func Execute() error {
	defer func() { _ = applog.Close() }()
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "cellsorter", version.String())
			return nil
		},
	}
}
