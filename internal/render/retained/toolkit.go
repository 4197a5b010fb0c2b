/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package retained

import (
	"errors"
	"fmt"

	"cellsorter/internal/ir"
	"cellsorter/internal/render"
)

type node interface {
	render.Object
	base() *Widget
}

type constructor func(b Widget) node

var constructors = map[ir.Kind]constructor{
	ir.KindWidget:        func(b Widget) node { return &Container{Widget: b} },
	ir.KindCustom:        func(b Widget) node { return &Container{Widget: b} },
	ir.KindFrame:         func(b Widget) node { return &Frame{Widget: b} },
	ir.KindGroupBox:      func(b Widget) node { return &GroupBox{Widget: b} },
	ir.KindScrollArea:    func(b Widget) node { return &ScrollArea{Widget: b} },
	ir.KindTabWidget:     func(b Widget) node { return &TabWidget{Widget: b} },
	ir.KindSplitter:      func(b Widget) node { return &Splitter{Widget: b, orientCap: orientCap{"horizontal"}} },
	ir.KindStackedWidget: func(b Widget) node { return &Stack{Widget: b} },
	ir.KindMainWindow:    func(b Widget) node { return &Window{Widget: b} },
	ir.KindDialog:        func(b Widget) node { return &Dialog{Widget: b} },
	ir.KindMenuBar:       func(b Widget) node { return &MenuBar{Widget: b} },
	ir.KindMenu:          func(b Widget) node { return &Menu{Widget: b} },
	ir.KindAction:        func(b Widget) node { return &Action{Widget: b} },
	ir.KindToolBar:       func(b Widget) node { return &ToolBar{Widget: b, orientCap: orientCap{"horizontal"}} },
	ir.KindStatusBar:     func(b Widget) node { return &StatusBar{Widget: b} },
	ir.KindLabel:         func(b Widget) node { return &Label{Widget: b} },
	ir.KindPushButton:    func(b Widget) node { return &Button{Widget: b} },
	ir.KindToolButton:    func(b Widget) node { return &ToolButton{Widget: b} },
	ir.KindCheckBox:      func(b Widget) node { return &CheckBox{Widget: b} },
	ir.KindRadioButton:   func(b Widget) node { return &RadioButton{Widget: b} },
	ir.KindLineEdit:      func(b Widget) node { return &LineEdit{Widget: b} },
	ir.KindTextEdit:      func(b Widget) node { return &TextEdit{Widget: b, wrapCap: wrapCap{true}} },
	ir.KindPlainTextEdit: func(b Widget) node { return &PlainTextEdit{Widget: b} },
	ir.KindComboBox:      func(b Widget) node { return &ComboBox{Widget: b} },
	ir.KindSpinBox:       func(b Widget) node { return &SpinBox{Widget: b, numericCap: numericCap{max: 99, step: 1}} },
	ir.KindDoubleSpinBox: func(b Widget) node { return &DoubleSpinBox{Widget: b, numericCap: numericCap{max: 99.99, step: 1}} },
	ir.KindSlider:        func(b Widget) node { return &Slider{Widget: b, numericCap: numericCap{max: 99, step: 1}, orientCap: orientCap{"horizontal"}} },
	ir.KindProgressBar:   func(b Widget) node { return &ProgressBar{Widget: b, numericCap: numericCap{max: 100}, orientCap: orientCap{"horizontal"}} },
	ir.KindListWidget:    func(b Widget) node { return &ListView{Widget: b, selectionCap: selectionCap{"single"}} },
	ir.KindTableWidget:   func(b Widget) node { return &Table{Widget: b, selectionCap: selectionCap{"single"}} },
	ir.KindTreeWidget:    func(b Widget) node { return &TreeView{Widget: b, selectionCap: selectionCap{"single"}} },
	ir.KindSeparator:     func(b Widget) node { return &Separator{Widget: b, orientCap: orientCap{"horizontal"}} },
	ir.KindImageView:     func(b Widget) node { return &Image{Widget: b} },
}

// Toolkit creates retained objects.
type Toolkit struct {
	reg      *render.KindRegistry
	failures map[string]error
	created  []string
}

// New returns a toolkit with every kind registered.
func New() *Toolkit {
	reg := render.NewKindRegistry()
	for kind, c := range constructors {
		if kind == ir.KindCustom {
			continue
		}
		reg.Register(c(Widget{}), kind)
	}
	return &Toolkit{reg: reg, failures: map[string]error{}}
}

// FailOn makes Create fail for the named widget. Used to exercise abort paths.
func (t *Toolkit) FailOn(name string, err error) { t.failures[name] = err }

// Created lists object names in creation order.
func (t *Toolkit) Created() []string { return append([]string(nil), t.created...) }

func (t *Toolkit) Name() string                   { return "retained" }
func (t *Toolkit) Registry() *render.KindRegistry { return t.reg }

// Create allocates the object for kind.
func (t *Toolkit) Create(kind ir.Kind, name, customClass string) (render.Object, error) {
	if err, ok := t.failures[name]; ok {
		return nil, err
	}
	c, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", render.ErrUnsupportedKind, kind)
	}
	obj := c(newWidget(name, customClass))
	t.created = append(t.created, name)
	return obj, nil
}

// AddChild links child under parent.
func (t *Toolkit) AddChild(parent, child render.Object) error {
	p, ok := parent.(node)
	if !ok {
		return fmt.Errorf("parent %T is not a retained object", parent)
	}
	c, ok := child.(node)
	if !ok {
		return fmt.Errorf("child %T is not a retained object", child)
	}
	if c.base().parent != nil {
		return fmt.Errorf("%q already has a parent", child.Name())
	}
	c.base().parent = parent
	p.base().children = append(p.base().children, child)
	return nil
}

// NewLayout installs a layout on owner.
func (t *Toolkit) NewLayout(owner render.Object, typ ir.LayoutType, props ir.LayoutProperties) (render.Layout, error) {
	o, ok := owner.(node)
	if !ok {
		return nil, fmt.Errorf("owner %T is not a retained object", owner)
	}
	var l render.Layout
	spacing := 0
	if props.Spacing != nil {
		spacing = *props.Spacing
	}
	switch typ {
	case ir.LayoutHBox, ir.LayoutVBox:
		l = &Box{typ: typ, Spacing: spacing}
	case ir.LayoutGrid:
		l = &Grid{Spacing: spacing, Columns: props.Columns}
	case ir.LayoutForm:
		l = &Form{}
	case ir.LayoutStacked:
		l = &Stacked{}
	default:
		return nil, fmt.Errorf("unknown layout type %q", typ)
	}
	o.base().layout = l
	return l, nil
}

// Box is an hbox or vbox.
type Box struct {
	typ     ir.LayoutType
	Spacing int
	Entries []BoxEntry
}

type BoxEntry struct {
	Object  render.Object
	Stretch int
}

func (b *Box) Type() ir.LayoutType { return b.typ }

func (b *Box) AddWidget(obj render.Object, stretch int) error {
	b.Entries = append(b.Entries, BoxEntry{Object: obj, Stretch: stretch})
	return nil
}

// Grid places objects in cells.
type Grid struct {
	Spacing int
	Columns int
	Cells   []GridCell
}

type GridCell struct {
	Object                        render.Object
	Row, Column, RowSpan, ColSpan int
}

func (g *Grid) Type() ir.LayoutType { return ir.LayoutGrid }

// AddAt fails when the cell is taken.
func (g *Grid) AddAt(obj render.Object, row, column, rowSpan, columnSpan int) error {
	if row < 0 || column < 0 {
		return fmt.Errorf("invalid cell (%d,%d)", row, column)
	}
	for r := row; r < row+max(rowSpan, 1); r++ {
		for c := column; c < column+max(columnSpan, 1); c++ {
			if o, ok := g.At(r, c); ok {
				return fmt.Errorf("cell (%d,%d) already holds %q", r, c, o.Name())
			}
		}
	}
	g.Cells = append(g.Cells, GridCell{Object: obj, Row: row, Column: column, RowSpan: rowSpan, ColSpan: columnSpan})
	return nil
}

// At returns the object whose cell (including spans) covers row, column.
func (g *Grid) At(row, column int) (render.Object, bool) {
	for _, c := range g.Cells {
		if row >= c.Row && row < c.Row+max(c.RowSpan, 1) && column >= c.Column && column < c.Column+max(c.ColSpan, 1) {
			return c.Object, true
		}
	}
	return nil, false
}

// Form holds label and field rows.
type Form struct {
	Rows []FormRow
}

type FormRow struct {
	Label render.Object
	Field render.Object
}

func (f *Form) Type() ir.LayoutType { return ir.LayoutForm }

func (f *Form) AddRow(label, field render.Object) error {
	if label == nil && field == nil {
		return errors.New("empty form row")
	}
	f.Rows = append(f.Rows, FormRow{Label: label, Field: field})
	return nil
}

// Stacked holds pages.
type Stacked struct {
	Pages   []render.Object
	Current int
}

func (s *Stacked) Type() ir.LayoutType { return ir.LayoutStacked }

func (s *Stacked) Insert(index int, obj render.Object) error {
	if index < 0 || index > len(s.Pages) {
		return fmt.Errorf("page index %d out of range [0,%d]", index, len(s.Pages))
	}
	s.Pages = append(s.Pages, nil)
	copy(s.Pages[index+1:], s.Pages[index:])
	s.Pages[index] = obj
	return nil
}
