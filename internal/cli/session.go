/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cellsorter/internal/session"
)

func (g *globals) openManager(cmd *cobra.Command) (*session.Manager, func(), error) {
	return session.Open(cmd.Context(), g.cfg)
}

func newSessionCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create, inspect and copy session files",
	}
	cmd.AddCommand(
		newSessionCreateCmd(g),
		newSessionLoadCmd(g),
		newSessionSaveCmd(g),
		newSessionListCmd(g),
		newSessionHistoryCmd(g),
	)
	return cmd
}

func newSessionCreateCmd(g *globals) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty session in the session directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sm, closeCatalog, err := g.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeCatalog()
			d, err := sm.CreateSession(id)
			if err != nil {
				return err
			}
			path, err := sm.Save("")
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			p.OK("Created session " + d.SessionID)
			p.Field("path", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "session id (default: random UUID)")
	return cmd
}

func newSessionLoadCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "Load a session file and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, closeCatalog, err := g.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeCatalog()
			if err := sm.Load(args[0]); err != nil {
				return err
			}
			d := sm.Current()
			if d == nil {
				return session.ErrNoSession
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			p.Title("Session " + d.SessionID)
			p.Field("path", sm.CurrentPath())
			p.Field("version", d.Version)
			p.Field("created", d.CreatedAt.Format(time.RFC3339))
			p.Field("modified", d.LastModified.Format(time.RFC3339))
			p.Field("ui models", joinOrNone(sm.UIModelNames()))
			p.Field("recent files", len(d.RecentFiles))
			p.Field("recent sessions", len(d.RecentSessions))
			p.Field("window state", d.MainWindowState != nil)
			return nil
		},
	}
}

func newSessionSaveCmd(g *globals) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Write a session to path, copied from --from or freshly created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, closeCatalog, err := g.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeCatalog()
			if from != "" {
				if err := sm.Load(from); err != nil {
					return err
				}
			} else {
				sm.CreateSession("")
			}
			path, err := sm.Save(args[0])
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			p.OK(fmt.Sprintf("Saved session %s", sm.SessionID()))
			p.Field("path", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "existing session file to copy")
	return cmd
}

func newSessionListCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions known to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sm, closeCatalog, err := g.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeCatalog()
			recs, err := sm.KnownSessions(cmd.Context(), limit)
			if errors.Is(err, session.ErrNoCatalog) {
				return errors.New("session catalog is disabled (session.catalog: false)")
			}
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			if len(recs) == 0 {
				p.Line("No sessions recorded.")
				return nil
			}
			p.Title(fmt.Sprintf("%d session(s)", len(recs)))
			for _, r := range recs {
				p.Line(fmt.Sprintf("  %-36s  %s  %s", r.ID, r.OpenedAt.Local().Format("2006-01-02 15:04"), r.Path))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions to list")
	return cmd
}

func newSessionHistoryCmd(g *globals) *cobra.Command {
	var (
		name  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history <path>",
		Short: "Show the saved versions of a UI model in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, closeCatalog, err := g.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeCatalog()
			if err := sm.Load(args[0]); err != nil {
				return err
			}
			entries, err := sm.History(cmd.Context(), name, limit)
			if errors.Is(err, session.ErrNoCatalog) {
				return errors.New("session catalog is disabled (session.catalog: false)")
			}
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			if len(entries) == 0 {
				p.Line(fmt.Sprintf("No history for %q.", name))
				return nil
			}
			p.Title(fmt.Sprintf("%s: %d version(s)", name, len(entries)))
			for _, e := range entries {
				p.Line(fmt.Sprintf("  %s  %d widget(s)", e.SavedAt.Local().Format(time.RFC3339), e.Model.Count()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "main_window", "UI model name")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of versions")
	return cmd
}

func joinOrNone(v []string) string {
	if len(v) == 0 {
		return "(none)"
	}
	return strings.Join(v, ", ")
}
