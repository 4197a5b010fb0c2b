/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package serialize

import (
	"cellsorter/internal/ir"
)

// widgetDoc is the nested widget shape of the readable format.
type widgetDoc struct {
	Name        string            `json:"name" yaml:"name"`
	Type        string            `json:"type" yaml:"type"`
	CustomClass string            `json:"custom_class,omitempty" yaml:"custom_class,omitempty"`
	Properties  map[string]any    `json:"properties,omitempty" yaml:"properties,omitempty"`
	Geometry    *ir.Geometry      `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	MinSize     *ir.Size          `json:"min_size,omitempty" yaml:"min_size,omitempty"`
	MaxSize     *ir.Size          `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	SizePolicy  *ir.SizePolicy    `json:"size_policy,omitempty" yaml:"size_policy,omitempty"`
	Visible     *bool             `json:"visible,omitempty" yaml:"visible,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ToolTip     string            `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	StyleSheet  string            `json:"style_sheet,omitempty" yaml:"style_sheet,omitempty"`
	Events      []ir.EventBinding `json:"events,omitempty" yaml:"events,omitempty"`
	Layout      *ir.Layout        `json:"layout,omitempty" yaml:"layout,omitempty"`
	Children    []*widgetDoc      `json:"children,omitempty" yaml:"children,omitempty"`
}

// readableDoc is the top-level readable document.
type readableDoc struct {
	Version    string         `json:"version" yaml:"version"`
	Metadata   map[string]any `json:"metadata" yaml:"metadata"`
	RootWidget *widgetDoc     `json:"root_widget" yaml:"root_widget"`
	Resources  map[string]any `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// flatWidget is one entry of the compact widgets[] array. IDs are pre-order
// arena positions, so models with duplicate names still round-trip.
type flatWidget struct {
	ID          int            `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Type        string         `json:"type" yaml:"type"`
	Parent      string         `json:"parent,omitempty" yaml:"parent,omitempty"`
	ParentID    *int           `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	CustomClass string         `json:"custom_class,omitempty" yaml:"custom_class,omitempty"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Geometry    *ir.Geometry   `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	MinSize     *ir.Size       `json:"min_size,omitempty" yaml:"min_size,omitempty"`
	MaxSize     *ir.Size       `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	SizePolicy  *ir.SizePolicy `json:"size_policy,omitempty" yaml:"size_policy,omitempty"`
	Visible     *bool          `json:"visible,omitempty" yaml:"visible,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ToolTip     string         `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	StyleSheet  string         `json:"style_sheet,omitempty" yaml:"style_sheet,omitempty"`
}

type flatLayout struct {
	WidgetID   int                 `json:"widget_id" yaml:"widget_id"`
	Widget     string              `json:"widget" yaml:"widget"`
	Type       string              `json:"type" yaml:"type"`
	Properties ir.LayoutProperties `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items      []ir.LayoutItem     `json:"items,omitempty" yaml:"items,omitempty"`
}

type flatEvent struct {
	WidgetID   int    `json:"widget_id" yaml:"widget_id"`
	Widget     string `json:"widget" yaml:"widget"`
	Event      string `json:"event" yaml:"event"`
	Handler    string `json:"handler" yaml:"handler"`
	Connection string `json:"connection,omitempty" yaml:"connection,omitempty"`
}

// compactDoc is the programmatic exchange format.
type compactDoc struct {
	Schema    string         `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Format    string         `json:"format" yaml:"format"`
	Version   string         `json:"version" yaml:"version"`
	Metadata  map[string]any `json:"metadata" yaml:"metadata"`
	Widgets   []flatWidget   `json:"widgets" yaml:"widgets"`
	Layouts   []flatLayout   `json:"layouts" yaml:"layouts"`
	Events    []flatEvent    `json:"events" yaml:"events"`
	Resources map[string]any `json:"resources,omitempty" yaml:"resources,omitempty"`
}

const compactFormatTag = "cellsorter-ui-compact"

func falsePtr(b bool) *bool {
	if b {
		return nil
	}
	f := false
	return &f
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func toWidgetDoc(w *ir.Widget) *widgetDoc {
	d := &widgetDoc{
		Name:        w.Name,
		Type:        string(w.Type),
		CustomClass: w.CustomClass,
		Geometry:    w.Geometry,
		MinSize:     w.MinSize,
		MaxSize:     w.MaxSize,
		SizePolicy:  w.SizePolicy,
		Visible:     falsePtr(w.Visible),
		Enabled:     falsePtr(w.Enabled),
		ToolTip:     w.ToolTip,
		StyleSheet:  w.StyleSheet,
		Events:      w.Events,
		Layout:      w.Layout,
	}
	if len(w.Properties) > 0 {
		d.Properties = w.Properties
	}
	for _, c := range w.Children {
		d.Children = append(d.Children, toWidgetDoc(c))
	}
	return d
}

func fromWidgetDoc(d *widgetDoc, parent string) *ir.Widget {
	w := &ir.Widget{
		Name:        d.Name,
		Type:        ir.Kind(d.Type),
		CustomClass: d.CustomClass,
		Properties:  ir.NormalizeMap(nonNil(d.Properties)),
		Geometry:    d.Geometry,
		MinSize:     d.MinSize,
		MaxSize:     d.MaxSize,
		SizePolicy:  d.SizePolicy,
		Visible:     boolOr(d.Visible, true),
		Enabled:     boolOr(d.Enabled, true),
		ToolTip:     d.ToolTip,
		StyleSheet:  d.StyleSheet,
		Events:      d.Events,
		Layout:      d.Layout,
		Parent:      parent,
	}
	for _, c := range d.Children {
		if c == nil {
			continue
		}
		w.Children = append(w.Children, fromWidgetDoc(c, w.Name))
	}
	return w
}

func toReadable(m *ir.Model, meta map[string]any) *readableDoc {
	d := &readableDoc{Version: m.Version, Metadata: meta}
	if len(m.Resources) > 0 {
		d.Resources = m.Resources
	}
	if m.Root != nil {
		d.RootWidget = toWidgetDoc(m.Root)
	}
	return d
}

func fromReadable(d *readableDoc) *ir.Model {
	m := &ir.Model{
		Version:   d.Version,
		Metadata:  ir.NormalizeMap(nonNil(d.Metadata)),
		Resources: ir.NormalizeMap(nonNil(d.Resources)),
	}
	if d.RootWidget != nil {
		m.Root = fromWidgetDoc(d.RootWidget, "")
	}
	return m
}

func toCompact(m *ir.Model, meta map[string]any) *compactDoc {
	d := &compactDoc{
		Format:   compactFormatTag,
		Version:  m.Version,
		Metadata: meta,
		Widgets:  []flatWidget{},
		Layouts:  []flatLayout{},
		Events:   []flatEvent{},
	}
	if len(m.Resources) > 0 {
		d.Resources = m.Resources
	}
	idx := ir.BuildIndex(m)
	for _, n := range idx.Nodes() {
		w := n.Widget
		fw := flatWidget{
			ID:          int(n.ID),
			Name:        w.Name,
			Type:        string(w.Type),
			CustomClass: w.CustomClass,
			Geometry:    w.Geometry,
			MinSize:     w.MinSize,
			MaxSize:     w.MaxSize,
			SizePolicy:  w.SizePolicy,
			Visible:     falsePtr(w.Visible),
			Enabled:     falsePtr(w.Enabled),
			ToolTip:     w.ToolTip,
			StyleSheet:  w.StyleSheet,
		}
		if len(w.Properties) > 0 {
			fw.Properties = w.Properties
		}
		if n.Parent != ir.NoNode {
			pid := int(n.Parent)
			fw.ParentID = &pid
			p, _ := idx.Node(n.Parent)
			fw.Parent = p.Widget.Name
		}
		d.Widgets = append(d.Widgets, fw)
		if w.Layout != nil {
			d.Layouts = append(d.Layouts, flatLayout{
				WidgetID:   int(n.ID),
				Widget:     w.Name,
				Type:       string(w.Layout.Type),
				Properties: w.Layout.Properties,
				Items:      w.Layout.Items,
			})
		}
		for _, ev := range w.Events {
			d.Events = append(d.Events, flatEvent{
				WidgetID:   int(n.ID),
				Widget:     w.Name,
				Event:      ev.Event,
				Handler:    ev.Handler,
				Connection: string(ev.Connection),
			})
		}
	}
	return d
}

func fromCompact(d *compactDoc) (*ir.Model, error) {
	m := &ir.Model{
		Version:   d.Version,
		Metadata:  ir.NormalizeMap(nonNil(d.Metadata)),
		Resources: ir.NormalizeMap(nonNil(d.Resources)),
	}
	byID := make(map[int]*ir.Widget, len(d.Widgets))
	for _, fw := range d.Widgets {
		if _, dup := byID[fw.ID]; dup {
			return nil, &formatError{msg: "duplicate widget id", id: fw.ID}
		}
		w := &ir.Widget{
			Name:        fw.Name,
			Type:        ir.Kind(fw.Type),
			CustomClass: fw.CustomClass,
			Properties:  ir.NormalizeMap(nonNil(fw.Properties)),
			Geometry:    fw.Geometry,
			MinSize:     fw.MinSize,
			MaxSize:     fw.MaxSize,
			SizePolicy:  fw.SizePolicy,
			Visible:     boolOr(fw.Visible, true),
			Enabled:     boolOr(fw.Enabled, true),
			ToolTip:     fw.ToolTip,
			StyleSheet:  fw.StyleSheet,
		}
		byID[fw.ID] = w
		if fw.ParentID == nil {
			if m.Root != nil {
				return nil, &formatError{msg: "more than one root widget", id: fw.ID}
			}
			m.Root = w
			continue
		}
		parent, ok := byID[*fw.ParentID]
		if !ok {
			return nil, &formatError{msg: "parent must precede child", id: fw.ID}
		}
		w.Parent = parent.Name
		parent.Children = append(parent.Children, w)
	}
	for _, fl := range d.Layouts {
		w, ok := byID[fl.WidgetID]
		if !ok {
			return nil, &formatError{msg: "layout owner not found", id: fl.WidgetID}
		}
		w.Layout = &ir.Layout{Type: ir.LayoutType(fl.Type), Properties: fl.Properties, Items: fl.Items}
	}
	for _, fe := range d.Events {
		w, ok := byID[fe.WidgetID]
		if !ok {
			return nil, &formatError{msg: "event owner not found", id: fe.WidgetID}
		}
		w.Events = append(w.Events, ir.EventBinding{Event: fe.Event, Handler: fe.Handler, Connection: ir.ConnectionMode(fe.Connection)})
	}
	return m, nil
}
