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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cellsorter/internal/adapter"
	"cellsorter/internal/ir"
	"cellsorter/internal/render"
	"cellsorter/internal/render/retained"
	"cellsorter/internal/serialize"
	"cellsorter/internal/validate"
)

var errValidationFailed = errors.New("validation failed")

func newModelCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Export, import and validate UI definitions",
	}
	cmd.AddCommand(newModelExportCmd(g), newModelImportCmd(g), newModelValidateCmd(g), newModelRenderCmd(g))
	return cmd
}

func (g *globals) validator(strict bool) *validate.Validator {
	return validate.New(
		validate.WithStrict(strict || g.cfg.Validation.Strict),
		validate.WithRules(g.cfg.Validation.Rules),
	)
}

func newModelExportCmd(g *globals) *cobra.Command {
	var (
		format      string
		minify      bool
		withSchema  bool
		sessionPath string
		name        string
	)
	cmd := &cobra.Command{
		Use:   "export <out>",
		Short: "Write the main window definition (or a stored session model) to a file",
		Long: `Writes a UI definition. Without --session the default main window is
exported. With --session the named model stored in that session is used;
when it is missing, the main window is rebuilt from the saved window state.

The format follows --format, or the file extension (.yaml readable, .json compact).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := exportCodec(format, minify, withSchema)
			if err != nil {
				return err
			}
			model, source, err := g.exportSource(cmd, sessionPath, name)
			if err != nil {
				return err
			}
			if err := serialize.SaveFile(args[0], model, codec); err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			p.OK(fmt.Sprintf("Exported %d widget(s) to %s", model.Count(), args[0]))
			p.Field("source", source)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&format, "format", "", "readable or compact (default: from extension)")
	f.BoolVar(&minify, "minify", false, "compact output without indentation")
	f.BoolVar(&withSchema, "schema", false, "embed a $schema reference in compact output")
	f.StringVar(&sessionPath, "session", "", "session file to export from")
	f.StringVar(&name, "name", "main_window", "UI model name inside the session")
	return cmd
}

func exportCodec(format string, minify, withSchema bool) (serialize.Codec, error) {
	switch strings.ToLower(format) {
	case "":
		if minify || withSchema {
			return serialize.Compact(serialize.CompactOptions{Pretty: !minify, IncludeSchema: withSchema}), nil
		}
		return nil, nil
	case string(serialize.FormatCompact), "json":
		return serialize.Compact(serialize.CompactOptions{Pretty: !minify, IncludeSchema: withSchema}), nil
	case string(serialize.FormatReadable), "yaml", "yml":
		if minify || withSchema {
			return nil, errors.New("--minify and --schema apply to the compact format only")
		}
		return serialize.Readable(), nil
	}
	return nil, fmt.Errorf("%w: %q", serialize.ErrUnknownFormat, format)
}

func (g *globals) exportSource(cmd *cobra.Command, sessionPath, name string) (*ir.Model, string, error) {
	a := adapter.New()
	if sessionPath == "" {
		return a.GetUIDefinition(), "default main window", nil
	}
	sm, closeCatalog, err := g.openManager(cmd)
	if err != nil {
		return nil, "", err
	}
	defer closeCatalog()
	if err := sm.Load(sessionPath); err != nil {
		return nil, "", err
	}
	if model, err := sm.UIModel(name); err == nil {
		return model, fmt.Sprintf("session model %q", name), nil
	}
	if _, err := sm.RestoreWindowState(a.State()); err != nil {
		return nil, "", err
	}
	return a.GetUIDefinition(), "main window from session state", nil
}

func newModelImportCmd(g *globals) *cobra.Command {
	var (
		sessionPath string
		name        string
	)
	cmd := &cobra.Command{
		Use:   "import <in>",
		Short: "Read and validate a UI definition, optionally storing it in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := serialize.LoadFile(args[0])
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			rep := g.validator(false).ValidateAndReport(model)
			if !rep.Passed {
				printReport(p, rep)
				return errValidationFailed
			}
			p.OK(fmt.Sprintf("Read %d widget(s) from %s", model.Count(), args[0]))
			if sessionPath == "" {
				return nil
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			return g.storeModel(cmd, p, sessionPath, name, model)
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "", "session file to store the model in")
	cmd.Flags().StringVar(&name, "name", "", "UI model name (default: input file base name)")
	return cmd
}

func (g *globals) storeModel(cmd *cobra.Command, p *printer, sessionPath, name string, model *ir.Model) error {
	sm, closeCatalog, err := g.openManager(cmd)
	if err != nil {
		return err
	}
	defer closeCatalog()
	if err := sm.Load(sessionPath); err != nil {
		return err
	}
	if err := sm.SaveUIModel(cmd.Context(), name, model); err != nil {
		return err
	}
	if _, err := sm.Save(""); err != nil {
		return err
	}
	p.OK(fmt.Sprintf("Stored as %q in session %s", name, sm.SessionID()))
	return nil
}

func newModelValidateCmd(g *globals) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <in>",
		Short: "Validate a UI definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := serialize.LoadFile(args[0])
			if err != nil {
				return err
			}
			rep := g.validator(strict).ValidateAndReport(model)
			printReport(newPrinter(cmd.OutOrStdout(), g.noColor), rep)
			if !rep.Passed {
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

func newModelRenderCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render <in>",
		Short: "Build a UI definition off-screen and print the widget tree",
		Long: `Renders the definition with the in-memory toolkit, which needs no display.
With --out the rendered tree is extracted back into a definition file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := serialize.LoadFile(args[0])
			if err != nil {
				return err
			}
			tk := retained.New()
			eng := render.NewEngine(tk, render.WithHarnessCheck(func() bool { return false }))
			tree, err := eng.Render(model)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), g.noColor)
			p.Title(fmt.Sprintf("%d object(s)", len(tree.Order)))
			printObject(p, tk.Registry(), tree.Root, 0)
			if out == "" {
				return nil
			}
			if err := serialize.SaveFile(out, eng.Extract(tree.Root), nil); err != nil {
				return err
			}
			p.OK("Extracted to " + out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the extracted definition to this file")
	return cmd
}

func printObject(p *printer, reg *render.KindRegistry, obj render.Object, depth int) {
	p.Line(fmt.Sprintf("%s%s (%s)", strings.Repeat("  ", depth+1), obj.Name(), reg.KindOf(obj)))
	for _, c := range obj.Children() {
		printObject(p, reg, c, depth+1)
	}
}

func printReport(p *printer, rep validate.Report) {
	for _, res := range rep.Results {
		if res.Level == ir.LevelError {
			p.Fail(res.String())
		}
	}
	for _, res := range rep.Results {
		if res.Level == ir.LevelWarning {
			p.Warn(res.String())
		}
	}
	lines := rep.Summary()
	total := lines[len(lines)-1]
	if rep.Passed {
		p.OK(total)
	} else {
		p.Fail(total)
	}
}
