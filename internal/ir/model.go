/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ir

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// NewWidget returns a visible, enabled widget with an empty property map.
func NewWidget(name string, kind Kind) *Widget {
	return &Widget{Name: name, Type: kind, Properties: map[string]any{}, Visible: true, Enabled: true}
}

// SetProperty stores a normalised property value and returns w for chaining.
func (w *Widget) SetProperty(key string, v any) *Widget {
	if w.Properties == nil {
		w.Properties = map[string]any{}
	}
	w.Properties[key] = NormalizeValue(v)
	return w
}

// AddChild appends child, records its parent name and returns child.
func (w *Widget) AddChild(child *Widget) *Widget {
	child.Parent = w.Name
	w.Children = append(w.Children, child)
	return child
}

// SetLayout installs a layout of the given type and returns it.
func (w *Widget) SetLayout(t LayoutType) *Layout {
	w.Layout = &Layout{Type: t}
	return w.Layout
}

// AddItem appends a layout item for widget name and returns the layout.
func (l *Layout) AddItem(item LayoutItem) *Layout {
	l.Items = append(l.Items, item)
	return l
}

// Bind appends an event binding.
func (w *Widget) Bind(event, handler string) *Widget {
	w.Events = append(w.Events, EventBinding{Event: event, Handler: handler, Connection: ConnectionAuto})
	return w
}

// Walk visits widgets pre-order. Returning false from fn skips that widget's children.
func (m *Model) Walk(fn func(w *Widget, depth int) bool) {
	if m == nil || m.Root == nil {
		return
	}
	walk(m.Root, 0, fn)
}

func walk(w *Widget, depth int, fn func(*Widget, int) bool) {
	if !fn(w, depth) {
		return
	}
	for _, c := range w.Children {
		walk(c, depth+1, fn)
	}
}

// Find returns the first widget named name in pre-order.
func (m *Model) Find(name string) *Widget {
	var found *Widget
	m.Walk(func(w *Widget, _ int) bool {
		if found != nil {
			return false
		}
		if w.Name == name {
			found = w
			return false
		}
		return true
	})
	return found
}

// Names returns all widget names in pre-order, duplicates included.
func (m *Model) Names() []string {
	var out []string
	m.Walk(func(w *Widget, _ int) bool {
		out = append(out, w.Name)
		return true
	})
	return out
}

// Count returns the number of widgets in the tree.
func (m *Model) Count() int {
	n := 0
	m.Walk(func(*Widget, int) bool { n++; return true })
	return n
}

// Reparent recomputes every widget's derived Parent name from its tree position.
func (m *Model) Reparent() {
	if m == nil || m.Root == nil {
		return
	}
	m.Root.Parent = ""
	var fix func(w *Widget)
	fix = func(w *Widget) {
		for _, c := range w.Children {
			c.Parent = w.Name
			fix(c)
		}
	}
	fix(m.Root)
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	out := &Model{
		Version:   m.Version,
		Metadata:  cloneMap(m.Metadata),
		Resources: cloneMap(m.Resources),
	}
	if m.Root != nil {
		out.Root = m.Root.Clone()
	}
	return out
}

// Clone returns a deep copy of the widget subtree.
func (w *Widget) Clone() *Widget {
	if w == nil {
		return nil
	}
	c := *w
	c.Properties = cloneMap(w.Properties)
	if w.Geometry != nil {
		g := *w.Geometry
		c.Geometry = &g
	}
	if w.MinSize != nil {
		s := *w.MinSize
		c.MinSize = &s
	}
	if w.MaxSize != nil {
		s := *w.MaxSize
		c.MaxSize = &s
	}
	if w.SizePolicy != nil {
		p := *w.SizePolicy
		c.SizePolicy = &p
	}
	c.Events = append([]EventBinding(nil), w.Events...)
	if w.Layout != nil {
		l := *w.Layout
		l.Items = make([]LayoutItem, len(w.Layout.Items))
		for i, it := range w.Layout.Items {
			l.Items[i] = it
			if it.Row != nil {
				r := *it.Row
				l.Items[i].Row = &r
			}
			if it.Column != nil {
				col := *it.Column
				l.Items[i].Column = &col
			}
		}
		if w.Layout.Properties.Spacing != nil {
			sp := *w.Layout.Properties.Spacing
			l.Properties.Spacing = &sp
		}
		if w.Layout.Properties.Margins != nil {
			mg := *w.Layout.Properties.Margins
			l.Properties.Margins = &mg
		}
		c.Layout = &l
	}
	c.Children = make([]*Widget, 0, len(w.Children))
	for _, ch := range w.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// NormalizeValue converts property values to the canonical set used by the
// codecs: int64, float64, bool, string, nil, []any and map[string]any.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		// unquoted YAML timestamps
		return t.UTC().Format(time.RFC3339)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = int64(n)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = NormalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = NormalizeValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if ks, ok := k.(string); ok {
				out[ks] = NormalizeValue(e)
			}
		}
		return out
	default:
		return v
	}
}

// NormalizeMap normalises every value of m in place and returns it.
func NormalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = NormalizeValue(v)
	}
	return m
}

// Equal reports whether two models are structurally equal: same version, names,
// kinds, properties, layouts, events and tree shape. Metadata keys listed in
// ignoreMeta are skipped. Numbers compare by value regardless of int/float.
func Equal(a, b *Model, ignoreMeta ...string) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Version != b.Version {
		return false
	}
	skip := map[string]bool{}
	for _, k := range ignoreMeta {
		skip[k] = true
	}
	if !mapsEqual(a.Metadata, b.Metadata, skip) || !mapsEqual(a.Resources, b.Resources, nil) {
		return false
	}
	return WidgetsEqual(a.Root, b.Root)
}

// WidgetsEqual compares two subtrees structurally.
func WidgetsEqual(a, b *Widget) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Type != b.Type || a.CustomClass != b.CustomClass ||
		a.Visible != b.Visible || a.Enabled != b.Enabled ||
		a.ToolTip != b.ToolTip || a.StyleSheet != b.StyleSheet {
		return false
	}
	if !mapsEqual(a.Properties, b.Properties, nil) {
		return false
	}
	if !ptrEqual(a.Geometry, b.Geometry) || !ptrEqual(a.MinSize, b.MinSize) ||
		!ptrEqual(a.MaxSize, b.MaxSize) || !ptrEqual(a.SizePolicy, b.SizePolicy) {
		return false
	}
	if len(a.Events) != len(b.Events) {
		return false
	}
	for i := range a.Events {
		if a.Events[i] != b.Events[i] {
			return false
		}
	}
	if !layoutsEqual(a.Layout, b.Layout) {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !WidgetsEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool { return ptrEqual(a, b) }

func layoutsEqual(a, b *Layout) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Properties.Columns != b.Properties.Columns ||
		!intPtrEqual(a.Properties.Spacing, b.Properties.Spacing) ||
		!ptrEqual(a.Properties.Margins, b.Properties.Margins) {
		return false
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		x, y := a.Items[i], b.Items[i]
		if x.Widget != y.Widget || x.Stretch != y.Stretch || x.Alignment != y.Alignment ||
			x.RowSpan != y.RowSpan || x.ColumnSpan != y.ColumnSpan ||
			!intPtrEqual(x.Row, y.Row) || !intPtrEqual(x.Column, y.Column) {
			return false
		}
	}
	return true
}

func mapsEqual(a, b map[string]any, skip map[string]bool) bool {
	keys := func(m map[string]any) []string {
		var out []string
		for k := range m {
			if !skip[k] {
				out = append(out, k)
			}
		}
		sort.Strings(out)
		return out
	}
	ka, kb := keys(a), keys(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] || !ValuesEqual(a[ka[i]], b[kb[i]]) {
			return false
		}
	}
	return true
}

// ValuesEqual compares two property values after normalisation.
func ValuesEqual(a, b any) bool {
	a, b = NormalizeValue(a), NormalizeValue(b)
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && (fa == fb || math.Abs(fa-fb) < 1e-12)
	}
	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !ValuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		return ok && mapsEqual(x, y, nil)
	default:
		return a == b
	}
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
