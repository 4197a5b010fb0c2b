/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// printer writes command output, colored only on a terminal.
type printer struct {
	w     io.Writer
	color bool

	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
	key   lipgloss.Style
}

func newPrinter(w io.Writer, noColor bool) *printer {
	p := &printer{w: w, color: !noColor && isTerminal(w) && os.Getenv("NO_COLOR") == ""}
	p.title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	p.ok = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	p.warn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	p.fail = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	p.muted = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	p.key = lipgloss.NewStyle().Width(16)
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) Title(text string) { fmt.Fprintln(p.w, p.paint(p.title, text)) }
func (p *printer) OK(text string)    { fmt.Fprintln(p.w, p.paint(p.ok, "✓ ")+text) }
func (p *printer) Warn(text string)  { fmt.Fprintln(p.w, p.paint(p.warn, "! ")+text) }
func (p *printer) Fail(text string)  { fmt.Fprintln(p.w, p.paint(p.fail, "✗ ")+text) }
func (p *printer) Line(text string)  { fmt.Fprintln(p.w, text) }

// Field prints an aligned key/value row.
func (p *printer) Field(key string, value any) {
	label := fmt.Sprintf("%-16s", key+":")
	if p.color {
		label = p.key.Render(p.paint(p.muted, key+":"))
	}
	fmt.Fprintf(p.w, "  %s %v\n", label, value)
}
