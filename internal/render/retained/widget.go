/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package retained is an in-memory retained-mode toolkit. It keeps the object tree and layout
// placement in plain Go values, which makes it usable headless and as the reference backend in
// tests. Every kind maps to its own Go type so that reverse extraction can infer kinds.
package retained

import (
	"cellsorter/internal/ir"
	"cellsorter/internal/render"
)

// Widget is the state shared by every retained object.
type Widget struct {
	name        string
	customClass string
	parent      render.Object
	children    []render.Object
	geometry    *ir.Geometry
	minSize     *ir.Size
	maxSize     *ir.Size
	policy      *ir.SizePolicy
	visible     bool
	enabled     bool
	toolTip     string
	styleSheet  string
	layout      render.Layout
}

func newWidget(name, customClass string) Widget {
	return Widget{name: name, customClass: customClass, visible: true, enabled: true}
}

func (w *Widget) base() *Widget { return w }

func (w *Widget) Name() string                  { return w.name }
func (w *Widget) Children() []render.Object     { return w.children }
func (w *Widget) Parent() render.Object         { return w.parent }
func (w *Widget) CustomClass() string           { return w.customClass }
func (w *Widget) Layout() render.Layout         { return w.layout }
func (w *Widget) SetGeometry(g ir.Geometry)     { w.geometry = &g }
func (w *Widget) SetMinSize(s ir.Size)          { w.minSize = &s }
func (w *Widget) SetMaxSize(s ir.Size)          { w.maxSize = &s }
func (w *Widget) SetSizePolicy(p ir.SizePolicy) { w.policy = &p }
func (w *Widget) SetVisible(v bool)             { w.visible = v }
func (w *Widget) Visible() bool                 { return w.visible }
func (w *Widget) SetEnabled(v bool)             { w.enabled = v }
func (w *Widget) Enabled() bool                 { return w.enabled }
func (w *Widget) SetToolTip(s string)           { w.toolTip = s }
func (w *Widget) ToolTip() string               { return w.toolTip }
func (w *Widget) SetStyleSheet(s string)        { w.styleSheet = s }
func (w *Widget) StyleSheet() string            { return w.styleSheet }

func (w *Widget) Geometry() (ir.Geometry, bool) {
	if w.geometry == nil {
		return ir.Geometry{}, false
	}
	return *w.geometry, true
}

func (w *Widget) MinSize() (ir.Size, bool) {
	if w.minSize == nil {
		return ir.Size{}, false
	}
	return *w.minSize, true
}

func (w *Widget) MaxSize() (ir.Size, bool) {
	if w.maxSize == nil {
		return ir.Size{}, false
	}
	return *w.maxSize, true
}

func (w *Widget) SizePolicy() (ir.SizePolicy, bool) {
	if w.policy == nil {
		return ir.SizePolicy{}, false
	}
	return *w.policy, true
}

// LayoutType reports the installed layout for extraction.
func (w *Widget) LayoutType() (ir.LayoutType, bool) {
	if w.layout == nil {
		return "", false
	}
	return w.layout.Type(), true
}

// Capability mixins.

type textCap struct{ text string }

func (c *textCap) SetText(s string) { c.text = s }
func (c *textCap) Text() string     { return c.text }

type placeholderCap struct{ placeholder string }

func (c *placeholderCap) SetPlaceholder(s string) { c.placeholder = s }
func (c *placeholderCap) Placeholder() string     { return c.placeholder }

type checkCap struct{ checked bool }

func (c *checkCap) SetChecked(v bool) { c.checked = v }
func (c *checkCap) Checked() bool     { return c.checked }

type numericCap struct {
	value, min, max, step float64
}

// SetValue clamps into the range when one is set.
func (c *numericCap) SetValue(v float64) {
	if c.max > c.min {
		if v < c.min {
			v = c.min
		}
		if v > c.max {
			v = c.max
		}
	}
	c.value = v
}

func (c *numericCap) Value() float64 { return c.value }

func (c *numericCap) SetRange(lo, hi float64) {
	c.min, c.max = lo, hi
	c.SetValue(c.value)
}

func (c *numericCap) Range() (float64, float64) { return c.min, c.max }
func (c *numericCap) SetStep(s float64)         { c.step = s }
func (c *numericCap) Step() float64             { return c.step }

type itemsCap struct{ items []string }

func (c *itemsCap) SetItems(items []string) { c.items = append([]string(nil), items...) }
func (c *itemsCap) Items() []string         { return c.items }

type orientCap struct{ orientation string }

func (c *orientCap) SetOrientation(o string) { c.orientation = o }
func (c *orientCap) Orientation() string     { return c.orientation }

type readOnlyCap struct{ readOnly bool }

func (c *readOnlyCap) SetReadOnly(v bool) { c.readOnly = v }
func (c *readOnlyCap) ReadOnly() bool     { return c.readOnly }

type wrapCap struct{ wordWrap bool }

func (c *wrapCap) SetWordWrap(v bool) { c.wordWrap = v }
func (c *wrapCap) WordWrap() bool     { return c.wordWrap }

type selectionCap struct{ mode string }

func (c *selectionCap) SetSelectionMode(m string) { c.mode = m }
func (c *selectionCap) SelectionMode() string     { return c.mode }

// Concrete object types, one per kind.
type (
	Container struct{ Widget }
	Frame     struct{ Widget }
	GroupBox  struct {
		Widget
		textCap
	}
	ScrollArea struct{ Widget }
	TabWidget  struct{ Widget }
	Splitter   struct {
		Widget
		orientCap
	}
	Stack  struct{ Widget }
	Window struct {
		Widget
		textCap
	}
	Dialog struct {
		Widget
		textCap
	}
	MenuBar struct{ Widget }
	Menu    struct {
		Widget
		textCap
	}
	Action struct {
		Widget
		textCap
		checkCap
	}
	ToolBar struct {
		Widget
		orientCap
	}
	StatusBar struct {
		Widget
		textCap
	}
	Label struct {
		Widget
		textCap
		wrapCap
	}
	Button struct {
		Widget
		textCap
		checkCap
	}
	ToolButton struct {
		Widget
		textCap
		checkCap
	}
	CheckBox struct {
		Widget
		textCap
		checkCap
	}
	RadioButton struct {
		Widget
		textCap
		checkCap
	}
	LineEdit struct {
		Widget
		textCap
		placeholderCap
		readOnlyCap
	}
	TextEdit struct {
		Widget
		textCap
		placeholderCap
		readOnlyCap
		wrapCap
	}
	PlainTextEdit struct {
		Widget
		textCap
		placeholderCap
		readOnlyCap
		wrapCap
	}
	ComboBox struct {
		Widget
		itemsCap
	}
	SpinBox struct {
		Widget
		numericCap
		readOnlyCap
	}
	DoubleSpinBox struct {
		Widget
		numericCap
		readOnlyCap
	}
	Slider struct {
		Widget
		numericCap
		orientCap
	}
	ProgressBar struct {
		Widget
		numericCap
		orientCap
	}
	ListView struct {
		Widget
		itemsCap
		selectionCap
	}
	Table struct {
		Widget
		selectionCap
	}
	TreeView struct {
		Widget
		selectionCap
	}
	Separator struct {
		Widget
		orientCap
	}
	Image struct{ Widget }
)
