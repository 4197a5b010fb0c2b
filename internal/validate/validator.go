/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package validate runs a toggleable rule set over a whole UI model. Findings are returned as
// data; rules never fail with an error.
package validate

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"cellsorter/internal/ir"
	applog "cellsorter/internal/log"
	"cellsorter/internal/serialize"
)

// Rule names a group of checks that can be switched on or off.
type Rule string

const (
	RuleUniqueNames   Rule = "unique_names"
	RuleLayoutRefs    Rule = "layout_refs"
	RuleNaming        Rule = "naming"
	RuleGrid          Rule = "grid"
	RuleEventHandlers Rule = "event_handlers"
	RuleSchema        Rule = "schema"
)

// Rules lists every rule in execution order.
func Rules() []Rule {
	return []Rule{RuleUniqueNames, RuleLayoutRefs, RuleNaming, RuleGrid, RuleEventHandlers, RuleSchema}
}

// Codes produced by the validator in addition to the model's own.
const (
	CodeInvalidName         = "INVALID_NAME"
	CodeNamingConvention    = "NAMING_CONVENTION"
	CodeShortName           = "SHORT_NAME"
	CodeGridPositionMissing = "GRID_POSITION_MISSING"
	CodeHandlerNaming       = "HANDLER_NAMING"
	CodeSchemaViolation     = "SCHEMA_VIOLATION"
)

// MinNameLength is the advisory minimum widget name length.
const MinNameLength = 3

var (
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	snakeRe   = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)
	handlerRe = regexp.MustCompile(`^(on|handle)_[a-z0-9]+(_[a-z0-9]+)*$`)
)

// Validator holds the enabled rule set. The zero value is not usable; call New.
type Validator struct {
	enabled map[Rule]bool
	// StrictMode promotes every WARNING to ERROR after the rules ran.
	StrictMode bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithStrict sets strict mode.
func WithStrict(on bool) Option { return func(v *Validator) { v.StrictMode = on } }

// WithRule switches one rule.
func WithRule(r Rule, on bool) Option { return func(v *Validator) { v.enabled[r] = on } }

// WithRules applies a name→enabled map such as the validation.rules config section.
// Unknown names are ignored.
func WithRules(rules map[string]bool) Option {
	return func(v *Validator) {
		for name, on := range rules {
			r := Rule(strings.ToLower(strings.TrimSpace(name)))
			if _, known := v.enabled[r]; known {
				v.enabled[r] = on
			}
		}
	}
}

// New returns a validator with all rules enabled.
func New(opts ...Option) *Validator {
	v := &Validator{enabled: map[Rule]bool{}}
	for _, r := range Rules() {
		v.enabled[r] = true
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Enable switches a rule on.
func (v *Validator) Enable(r Rule) { v.enabled[r] = true }

// Disable switches a rule off.
func (v *Validator) Disable(r Rule) { v.enabled[r] = false }

// Enabled reports whether r runs.
func (v *Validator) Enabled(r Rule) bool { return v.enabled[r] }

// Validate runs the enabled rules over the whole tree.
func (v *Validator) Validate(m *ir.Model) []ir.ValidationResult {
	var out []ir.ValidationResult
	if m == nil {
		return out
	}
	idx := ir.BuildIndex(m)
	for _, r := range Rules() {
		if !v.enabled[r] {
			continue
		}
		switch r {
		case RuleUniqueNames:
			out = append(out, ir.CheckNames(idx)...)
			out = append(out, ir.CheckParents(idx)...)
		case RuleLayoutRefs:
			out = append(out, ir.CheckLayoutRefs(idx)...)
		case RuleNaming:
			out = append(out, checkNaming(idx)...)
		case RuleGrid:
			out = append(out, checkGrid(idx)...)
		case RuleEventHandlers:
			out = append(out, checkHandlers(idx)...)
		case RuleSchema:
			out = append(out, checkSchema(m)...)
		}
	}
	if v.StrictMode {
		for i := range out {
			if out[i].Level == ir.LevelWarning {
				out[i].Level = ir.LevelError
			}
		}
	}
	return out
}

// Report aggregates validation results.
type Report struct {
	Results  []ir.ValidationResult
	Errors   int
	Warnings int
	Infos    int
	// Passed is false iff at least one ERROR is present.
	Passed bool
}

// ValidateAndReport validates m and counts results per level.
func (v *Validator) ValidateAndReport(m *ir.Model) Report {
	rep := Report{Results: v.Validate(m)}
	for _, r := range rep.Results {
		switch r.Level {
		case ir.LevelError:
			rep.Errors++
		case ir.LevelWarning:
			rep.Warnings++
		default:
			rep.Infos++
		}
	}
	rep.Passed = rep.Errors == 0
	applog.WithComponent("validate").Debug("validation finished",
		slog.Int("errors", rep.Errors), slog.Int("warnings", rep.Warnings), slog.Int("infos", rep.Infos),
		slog.Bool("strict", v.StrictMode))
	return rep
}

// Summary returns printable lines: one per error, then one per warning, then a totals line.
// INFO results only show up in the totals.
func (r Report) Summary() []string {
	var lines []string
	for _, lvl := range []ir.Level{ir.LevelError, ir.LevelWarning} {
		for _, res := range r.Results {
			if res.Level == lvl {
				lines = append(lines, res.String())
			}
		}
	}
	status := "passed"
	if !r.Passed {
		status = "failed"
	}
	lines = append(lines, fmt.Sprintf("validation %s: %d error(s), %d warning(s), %d info", status, r.Errors, r.Warnings, r.Infos))
	return lines
}

// ByCode groups results by code, with codes sorted.
func (r Report) ByCode() map[string][]ir.ValidationResult {
	out := map[string][]ir.ValidationResult{}
	for _, res := range r.Results {
		out[res.Code] = append(out[res.Code], res)
	}
	return out
}

// Codes returns the distinct codes present, sorted.
func (r Report) Codes() []string {
	var codes []string
	for c := range r.ByCode() {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func checkNaming(idx *ir.Index) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, n := range idx.Nodes() {
		name := n.Widget.Name
		if name == "" {
			continue
		}
		path := idx.PathAt(n.ID)
		switch {
		case !identRe.MatchString(name):
			out = append(out, ir.ValidationResult{
				Level: ir.LevelWarning, Code: CodeInvalidName, Path: path, Widget: name,
				Message: fmt.Sprintf("widget name %q is not a valid identifier", name),
			})
		case !snakeRe.MatchString(name):
			out = append(out, ir.ValidationResult{
				Level: ir.LevelWarning, Code: CodeNamingConvention, Path: path, Widget: name,
				Message: fmt.Sprintf("widget name %q should be snake_case", name),
			})
		}
		if len(name) < MinNameLength {
			out = append(out, ir.ValidationResult{
				Level: ir.LevelInfo, Code: CodeShortName, Path: path, Widget: name,
				Message: fmt.Sprintf("widget name %q is shorter than %d characters", name, MinNameLength),
			})
		}
	}
	return out
}

func checkGrid(idx *ir.Index) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, n := range idx.Nodes() {
		l := n.Widget.Layout
		if l == nil || l.Type != ir.LayoutGrid {
			continue
		}
		for i, it := range l.Items {
			if it.HasPosition() {
				continue
			}
			var missing []string
			if it.Row == nil {
				missing = append(missing, "row")
			}
			if it.Column == nil {
				missing = append(missing, "column")
			}
			out = append(out, ir.ValidationResult{
				Level: ir.LevelError, Code: CodeGridPositionMissing,
				Path:    fmt.Sprintf("%s/layout/items[%d]", idx.PathAt(n.ID), i),
				Widget:  it.Widget,
				Message: fmt.Sprintf("grid item %q is missing %s", it.Widget, strings.Join(missing, " and ")),
			})
		}
	}
	return out
}

// checkHandlers lints handler names only; whether a handler exists is not checked.
func checkHandlers(idx *ir.Index) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, n := range idx.Nodes() {
		w := n.Widget
		for i, ev := range w.Events {
			if handlerRe.MatchString(ev.Handler) {
				continue
			}
			out = append(out, ir.ValidationResult{
				Level: ir.LevelWarning, Code: CodeHandlerNaming,
				Path:    fmt.Sprintf("%s/events[%d]", idx.PathAt(n.ID), i),
				Widget:  w.Name,
				Message: fmt.Sprintf("handler %q for %s.%s should be snake_case starting with on_ or handle_", ev.Handler, w.Name, ev.Event),
			})
		}
	}
	return out
}

func checkSchema(m *ir.Model) []ir.ValidationResult {
	violations, err := serialize.ValidateModelSchema(m)
	if err != nil {
		return []ir.ValidationResult{{
			Level: ir.LevelError, Code: CodeSchemaViolation, Path: "$",
			Message: fmt.Sprintf("schema check could not run: %v", err),
		}}
	}
	out := make([]ir.ValidationResult, 0, len(violations))
	for _, sv := range violations {
		out = append(out, ir.ValidationResult{
			Level: ir.LevelError, Code: CodeSchemaViolation, Path: sv.Field,
			Message: sv.Description,
		})
	}
	return out
}
