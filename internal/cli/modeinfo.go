/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cellsorter/internal/display"
	"cellsorter/internal/mode"
	"cellsorter/internal/ui"
)

// modeInfo is the machine-readable form of mode-info.
type modeInfo struct {
	Mode             string       `json:"mode"`
	Source           string       `json:"source"`
	CI               bool         `json:"ci"`
	RequiresGUI      bool         `json:"requires_gui"`
	RequiresHeadless bool         `json:"requires_headless"`
	Display          display.Info `json:"display"`
}

func newModeInfoCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "mode-info",
		Short: "Show the resolved display mode and why it was chosen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			det := display.NewDetector()
			ctrl := mode.NewController(det, mode.WithConfigured(g.cfg.Display.Mode))
			m, err := ctrl.Resolve()
			if err != nil {
				return err
			}
			info := modeInfo{
				Mode:             m.String(),
				Source:           string(ctrl.Source()),
				CI:               ctrl.InCI(),
				RequiresGUI:      ctrl.RequiresGUI(),
				RequiresHeadless: ctrl.RequiresHeadless(),
				Display:          det.Info(),
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			p.Title("Display mode")
			p.Field("mode", info.Mode)
			p.Field("source", info.Source)
			p.Field("ci", info.CI)
			p.Field("requires gui", info.RequiresGUI)
			p.Field("display", availability(info.Display.Available))
			p.Field("os", info.Display.OS)
			if info.Display.SSHSession {
				p.Warn("running over SSH")
			}
			if info.Display.VirtualDisplay {
				p.Warn("virtual display detected")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

func newUICmd(g *globals) *cobra.Command {
	var sessionPath string
	cmd := &cobra.Command{
		Use:   "ui [model-file]",
		Short: "Open the main window, or preview a UI definition file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := ui.Options{SessionPath: sessionPath, Config: g.cfg}
			if len(args) == 1 {
				opts.ModelPath = args[0]
			}
			if err := ui.Run(opts); err != nil {
				return fmt.Errorf("ui: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "", "session file to restore")
	return cmd
}
