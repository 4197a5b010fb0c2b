/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render materialises UI models as live toolkit objects and extracts live trees back
// into models.
//
// Forward rendering is gated by the mode controller and walks the model pre-order, so a parent
// exists before its children. Each object receives its geometry and size constraints first,
// then every property for which it exposes a setter. It is finally attached to its parent's
// layout according to the layout type. The first failure aborts the render and no further
// siblings are created.
//
// Reverse extraction is best-effort. Kinds are inferred through a KindRegistry keyed by Go
// type, and unknown types become plain widgets. Layouts are reconstructed only as placeholders
// listing the direct children.
package render

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cellsorter/internal/ir"
	applog "cellsorter/internal/log"
)

// EnvTestHarness marks the process as running under a test harness.
const EnvTestHarness = "CELLSORTER_TEST_HARNESS"

// Gate reports whether GUI work is currently permitted. *mode.Controller satisfies it.
type Gate interface {
	RequiresGUI() bool
}

// Engine renders models with one toolkit.
type Engine struct {
	tk      Toolkit
	gate    Gate
	harness func() bool
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGate installs the mode gate. Without one, rendering is always permitted.
func WithGate(g Gate) Option { return func(e *Engine) { e.gate = g } }

// WithHarnessCheck replaces the test-harness detection.
func WithHarnessCheck(fn func() bool) Option { return func(e *Engine) { e.harness = fn } }

// NewEngine returns an engine for tk.
func NewEngine(tk Toolkit, opts ...Option) *Engine {
	e := &Engine{tk: tk, harness: DefaultHarnessCheck, log: applog.WithComponent("render")}
	for _, o := range opts {
		o(e)
	}
	return e
}

// DefaultHarnessCheck reports a test harness when CELLSORTER_TEST_HARNESS is truthy or the
// executable is a compiled Go test binary.
func DefaultHarnessCheck() bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvTestHarness))); err == nil {
		return v
	}
	exe := filepath.Base(os.Args[0])
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// Tree is the result of a render.
type Tree struct {
	Root Object
	// Objects maps names to objects. With duplicate names the first in pre-order wins.
	Objects map[string]Object
	// Order lists every object in creation order.
	Order []Object
	// Inert is set when a stand-in was returned instead of touching the toolkit.
	Inert bool
}

// Lookup returns the live object for a widget name.
func (t *Tree) Lookup(name string) (Object, bool) {
	o, ok := t.Objects[name]
	return o, ok
}

func (t *Tree) add(name string, obj Object) {
	if _, dup := t.Objects[name]; !dup {
		t.Objects[name] = obj
	}
	t.Order = append(t.Order, obj)
}

// inert stands in for a live root under a test harness.
type inert struct{ name string }

func (i inert) Name() string       { return i.name }
func (i inert) Children() []Object { return nil }

// Render materialises m.
func (e *Engine) Render(m *ir.Model) (*Tree, error) {
	if e.gate != nil && !e.gate.RequiresGUI() {
		return nil, &Error{Op: "render", Err: ErrGUIUnavailable}
	}
	if m == nil || m.Root == nil {
		return nil, &Error{Op: "render", Err: ErrNoRoot}
	}
	if e.harness != nil && e.harness() {
		e.log.Debug("test harness detected, returning inert tree", slog.String("root", m.Root.Name))
		obj := inert{name: m.Root.Name}
		return &Tree{Root: obj, Objects: map[string]Object{m.Root.Name: obj}, Order: []Object{obj}, Inert: true}, nil
	}
	if e.tk == nil {
		return nil, &Error{Op: "render", Err: errors.New("no toolkit configured")}
	}
	tree := &Tree{Objects: map[string]Object{}}
	root, err := e.renderNode(tree, m.Root, nil)
	if err != nil {
		e.log.Warn("render aborted", slog.String("toolkit", e.tk.Name()), slog.Any("err", err))
		return nil, err
	}
	tree.Root = root
	e.log.Debug("render complete", slog.String("toolkit", e.tk.Name()), slog.Int("objects", len(tree.Order)))
	return tree, nil
}

func (e *Engine) renderNode(tree *Tree, w *ir.Widget, parent Object) (Object, error) {
	obj, err := e.tk.Create(w.Type, w.Name, w.CustomClass)
	if err != nil {
		return nil, &Error{Op: "create", Widget: w.Name, Kind: w.Type, Err: err}
	}
	if obj == nil {
		return nil, &Error{Op: "create", Widget: w.Name, Kind: w.Type, Err: errors.New("toolkit returned no object")}
	}
	applyCommon(obj, w)
	if err := applyProperties(obj, w.Properties); err != nil {
		return nil, &Error{Op: "property", Widget: w.Name, Kind: w.Type, Err: err}
	}
	if parent != nil {
		if err := e.tk.AddChild(parent, obj); err != nil {
			return nil, &Error{Op: "create", Widget: w.Name, Kind: w.Type, Err: err}
		}
	}
	tree.add(w.Name, obj)

	var pl placer
	if w.Layout != nil {
		l, err := e.tk.NewLayout(obj, w.Layout.Type, w.Layout.Properties)
		if err == nil {
			pl, err = newPlacer(l, w.Layout)
		}
		if err != nil {
			return nil, &Error{Op: "layout", Widget: w.Name, Kind: w.Type, Err: err}
		}
	}
	for _, c := range w.Children {
		childObj, err := e.renderNode(tree, c, obj)
		if err != nil {
			return nil, err
		}
		if pl == nil {
			continue
		}
		if err := pl.place(c, childObj); err != nil {
			return nil, &Error{Op: "layout", Widget: c.Name, Kind: c.Type, Err: err}
		}
	}
	if pl != nil {
		if err := pl.finish(); err != nil {
			return nil, &Error{Op: "layout", Widget: w.Name, Kind: w.Type, Err: err}
		}
	}
	return obj, nil
}

// Extract rebuilds a model from a live tree. It never fails: unknown object types become
// ir.KindWidget and layouts are placeholders.
func (e *Engine) Extract(root Object) *ir.Model {
	m := ir.NewModel()
	if root == nil {
		return m
	}
	reg := NewKindRegistry()
	if e.tk != nil {
		reg = e.tk.Registry()
		m.Metadata["extracted_from"] = e.tk.Name()
	}
	m.Root = extractNode(reg, root, "")
	return m
}

func extractNode(reg *KindRegistry, obj Object, parent string) *ir.Widget {
	w := ir.NewWidget(obj.Name(), reg.KindOf(obj))
	w.Parent = parent
	if g, ok := obj.(GeometryGetter); ok {
		if geo, ok := g.Geometry(); ok {
			w.Geometry = &geo
		}
	}
	if g, ok := obj.(MinSizeGetter); ok {
		if s, ok := g.MinSize(); ok {
			w.MinSize = &s
		}
	}
	if g, ok := obj.(MaxSizeGetter); ok {
		if s, ok := g.MaxSize(); ok {
			w.MaxSize = &s
		}
	}
	if g, ok := obj.(SizePolicyGetter); ok {
		if p, ok := g.SizePolicy(); ok {
			w.SizePolicy = &p
		}
	}
	if g, ok := obj.(VisibleGetter); ok {
		w.Visible = g.Visible()
	}
	if g, ok := obj.(EnabledGetter); ok {
		w.Enabled = g.Enabled()
	}
	if g, ok := obj.(ToolTipGetter); ok {
		w.ToolTip = g.ToolTip()
	}
	if g, ok := obj.(StyleSheetGetter); ok {
		w.StyleSheet = g.StyleSheet()
	}
	w.Properties = extractProperties(obj)
	for _, c := range obj.Children() {
		w.Children = append(w.Children, extractNode(reg, c, w.Name))
	}
	if r, ok := obj.(LayoutReporter); ok {
		if t, ok := r.LayoutType(); ok {
			w.Layout = placeholderLayout(t, w.Children)
		}
	}
	return w
}

// placeholderLayout lists the children in order. Grid items get row-major cells so the result
// passes validation; spans, stretch and alignment are not recovered.
func placeholderLayout(t ir.LayoutType, children []*ir.Widget) *ir.Layout {
	l := &ir.Layout{Type: t}
	for i, c := range children {
		item := ir.LayoutItem{Widget: c.Name}
		if t == ir.LayoutGrid {
			row, col := i/ir.DefaultGridColumns, i%ir.DefaultGridColumns
			item.Row, item.Column = &row, &col
		}
		l.Items = append(l.Items, item)
	}
	return l
}
