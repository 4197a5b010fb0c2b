/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ir

import "fmt"

// Level is the severity of a validation result.
type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarning Level = "WARNING"
	LevelInfo    Level = "INFO"
)

// Validation codes produced by the model itself.
const (
	CodeDuplicateName    = "DUPLICATE_NAME"
	CodeMissingWidgetRef = "MISSING_WIDGET_REF"
	CodeEmptyName        = "EMPTY_NAME"
	CodeParentMismatch   = "PARENT_MISMATCH"
)

// ValidationResult is one finding. Results are data, never errors.
type ValidationResult struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Path    string `json:"path"`
	Widget  string `json:"widget"`
	Code    string `json:"code"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", r.Level, r.Code, r.Path, r.Message)
}

// Validate checks the whole tree. Pass one walks pre-order collecting names and
// reports every collision; pass two walks every layout's items and reports
// references to names absent from the full name set. Derived parent names that
// disagree with the tree are reported too.
func Validate(m *Model) []ValidationResult {
	if m == nil || m.Root == nil {
		return nil
	}
	idx := BuildIndex(m)
	var out []ValidationResult
	out = append(out, CheckNames(idx)...)
	out = append(out, CheckLayoutRefs(idx)...)
	out = append(out, CheckParents(idx)...)
	return out
}

// CheckNames reports empty and duplicate widget names.
func CheckNames(idx *Index) []ValidationResult {
	var out []ValidationResult
	seen := map[string]bool{}
	for _, n := range idx.Nodes() {
		w := n.Widget
		path := idx.pathOf(n.ID)
		if w.Name == "" {
			out = append(out, ValidationResult{
				Level: LevelError, Code: CodeEmptyName, Path: path,
				Message: fmt.Sprintf("widget of type %s has no name", w.Type),
			})
			continue
		}
		if seen[w.Name] {
			out = append(out, ValidationResult{
				Level: LevelError, Code: CodeDuplicateName, Path: path, Widget: w.Name,
				Message: fmt.Sprintf("duplicate widget name %q", w.Name),
			})
			continue
		}
		seen[w.Name] = true
	}
	return out
}

// CheckLayoutRefs reports layout items that name widgets missing from the tree.
func CheckLayoutRefs(idx *Index) []ValidationResult {
	var out []ValidationResult
	for _, n := range idx.Nodes() {
		w := n.Widget
		if w.Layout == nil {
			continue
		}
		for i, it := range w.Layout.Items {
			if idx.Has(it.Widget) {
				continue
			}
			out = append(out, ValidationResult{
				Level: LevelError, Code: CodeMissingWidgetRef,
				Path:    fmt.Sprintf("%s/layout/items[%d]", idx.pathOf(n.ID), i),
				Widget:  w.Name,
				Message: fmt.Sprintf("layout of %q references unknown widget %q", w.Name, it.Widget),
			})
		}
	}
	return out
}

// CheckParents reports widgets whose derived Parent disagrees with the tree.
// An empty Parent is treated as "not yet derived" and accepted.
func CheckParents(idx *Index) []ValidationResult {
	var out []ValidationResult
	for _, n := range idx.Nodes() {
		w := n.Widget
		if w.Parent == "" {
			continue
		}
		actual := ""
		if n.Parent != NoNode {
			actual = idx.nodes[n.Parent].Widget.Name
		}
		if w.Parent != actual {
			out = append(out, ValidationResult{
				Level: LevelError, Code: CodeParentMismatch, Path: idx.pathOf(n.ID), Widget: w.Name,
				Message: fmt.Sprintf("widget %q records parent %q but is placed under %q", w.Name, w.Parent, actual),
			})
		}
	}
	return out
}

// HasErrors reports whether any result is an ERROR.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == LevelError {
			return true
		}
	}
	return false
}

// WithCode filters results by code.
func WithCode(results []ValidationResult, code string) []ValidationResult {
	var out []ValidationResult
	for _, r := range results {
		if r.Code == code {
			out = append(out, r)
		}
	}
	return out
}
