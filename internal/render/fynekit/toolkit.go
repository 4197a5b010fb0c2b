//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fynekit backs the rendering engine with fyne widgets. Kinds fyne has no native
// widget for are approximated: spin boxes become sliders, tables and trees become plain
// containers. Tooltips and style sheets are kept on the wrapper only.
package fynekit

import (
	"fmt"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"cellsorter/internal/ir"
	"cellsorter/internal/render"
)

// Node is the state shared by every wrapper.
type Node struct {
	name       string
	obj        fyne.CanvasObject
	box        *fyne.Container
	children   []render.Object
	geometry   *ir.Geometry
	toolTip    string
	styleSheet string
	layout     render.Layout
}

func (n *Node) node() *Node { return n }

func (n *Node) Name() string                    { return n.name }
func (n *Node) Children() []render.Object       { return n.children }
func (n *Node) Native() any                     { return n.obj }
func (n *Node) CanvasObject() fyne.CanvasObject { return n.obj }
func (n *Node) SetToolTip(s string)             { n.toolTip = s }
func (n *Node) ToolTip() string                 { return n.toolTip }
func (n *Node) SetStyleSheet(s string)          { n.styleSheet = s }
func (n *Node) StyleSheet() string              { return n.styleSheet }
func (n *Node) Visible() bool                   { return n.obj.Visible() }

func (n *Node) SetGeometry(g ir.Geometry) {
	n.geometry = &g
	n.obj.Move(fyne.NewPos(float32(g.X), float32(g.Y)))
	n.obj.Resize(fyne.NewSize(float32(g.Width), float32(g.Height)))
}

func (n *Node) Geometry() (ir.Geometry, bool) {
	if n.geometry == nil {
		return ir.Geometry{}, false
	}
	p, s := n.obj.Position(), n.obj.Size()
	return ir.Geometry{X: int(p.X), Y: int(p.Y), Width: int(s.Width), Height: int(s.Height)}, true
}

func (n *Node) SetVisible(v bool) {
	if v {
		n.obj.Show()
	} else {
		n.obj.Hide()
	}
}

func (n *Node) SetEnabled(v bool) {
	d, ok := n.obj.(fyne.Disableable)
	if !ok {
		return
	}
	if v {
		d.Enable()
	} else {
		d.Disable()
	}
}

func (n *Node) Enabled() bool {
	if d, ok := n.obj.(fyne.Disableable); ok {
		return !d.Disabled()
	}
	return true
}

func (n *Node) LayoutType() (ir.LayoutType, bool) {
	if n.layout == nil {
		return "", false
	}
	return n.layout.Type(), true
}

type wrapper interface {
	render.Object
	node() *Node
}

// CanvasObject returns the fyne object behind a rendered object.
func CanvasObject(obj render.Object) (fyne.CanvasObject, bool) {
	w, ok := obj.(wrapper)
	if !ok {
		return nil, false
	}
	return w.node().obj, true
}

// Container wraps *fyne.Container for every container, top-level and menu kind.
type Container struct {
	*Node
	title string
}

func (c *Container) SetText(s string) { c.title = s }
func (c *Container) Text() string     { return c.title }

type Label struct {
	*Node
	w *widget.Label
}

func (l *Label) SetText(s string) { l.w.SetText(s) }
func (l *Label) Text() string     { return l.w.Text }
func (l *Label) WordWrap() bool   { return l.w.Wrapping == fyne.TextWrapWord }

func (l *Label) SetWordWrap(v bool) {
	l.w.Wrapping = fyne.TextWrapOff
	if v {
		l.w.Wrapping = fyne.TextWrapWord
	}
	l.w.Refresh()
}

type Button struct {
	*Node
	w *widget.Button
}

func (b *Button) SetText(s string) { b.w.SetText(s) }
func (b *Button) Text() string     { return b.w.Text }

type Check struct {
	*Node
	w *widget.Check
}

func (c *Check) SetText(s string)  { c.w.Text = s; c.w.Refresh() }
func (c *Check) Text() string      { return c.w.Text }
func (c *Check) SetChecked(v bool) { c.w.SetChecked(v) }
func (c *Check) Checked() bool     { return c.w.Checked }

type Entry struct {
	*Node
	w *widget.Entry
}

func (e *Entry) SetText(s string)        { e.w.SetText(s) }
func (e *Entry) Text() string            { return e.w.Text }
func (e *Entry) SetPlaceholder(s string) { e.w.SetPlaceHolder(s) }
func (e *Entry) Placeholder() string     { return e.w.PlaceHolder }
func (e *Entry) ReadOnly() bool          { return e.w.Disabled() }
func (e *Entry) WordWrap() bool          { return e.w.Wrapping == fyne.TextWrapWord }

// SetReadOnly maps to disabling the entry; fyne has no separate read-only state.
func (e *Entry) SetReadOnly(v bool) {
	if v {
		e.w.Disable()
	} else {
		e.w.Enable()
	}
}

func (e *Entry) SetWordWrap(v bool) {
	e.w.Wrapping = fyne.TextWrapOff
	if v {
		e.w.Wrapping = fyne.TextWrapWord
	}
	e.w.Refresh()
}

type Select struct {
	*Node
	w *widget.Select
}

func (s *Select) SetItems(items []string) { s.w.Options = append([]string(nil), items...); s.w.Refresh() }
func (s *Select) Items() []string         { return s.w.Options }

type Slider struct {
	*Node
	w *widget.Slider
}

func (s *Slider) SetValue(v float64)        { s.w.SetValue(v) }
func (s *Slider) Value() float64            { return s.w.Value }
func (s *Slider) Range() (float64, float64) { return s.w.Min, s.w.Max }
func (s *Slider) SetStep(v float64)         { s.w.Step = v; s.w.Refresh() }
func (s *Slider) Step() float64             { return s.w.Step }

func (s *Slider) SetRange(lo, hi float64) {
	s.w.Min, s.w.Max = lo, hi
	s.w.SetValue(s.w.Value)
}

func (s *Slider) SetOrientation(o string) {
	s.w.Orientation = widget.Horizontal
	if o == "vertical" {
		s.w.Orientation = widget.Vertical
	}
	s.w.Refresh()
}

func (s *Slider) Orientation() string {
	if s.w.Orientation == widget.Vertical {
		return "vertical"
	}
	return "horizontal"
}

type Progress struct {
	*Node
	w *widget.ProgressBar
}

func (p *Progress) SetValue(v float64)        { p.w.SetValue(v) }
func (p *Progress) Value() float64            { return p.w.Value }
func (p *Progress) SetRange(lo, hi float64)   { p.w.Min, p.w.Max = lo, hi; p.w.Refresh() }
func (p *Progress) Range() (float64, float64) { return p.w.Min, p.w.Max }

type List struct {
	*Node
	w     *widget.List
	items []string
	mode  string
}

func (l *List) SetItems(items []string)   { l.items = append([]string(nil), items...); l.w.Refresh() }
func (l *List) Items() []string           { return l.items }
func (l *List) SetSelectionMode(m string) { l.mode = m }
func (l *List) SelectionMode() string     { return l.mode }

// Toolkit creates fyne-backed objects.
type Toolkit struct {
	reg *render.KindRegistry
}

// New returns the fyne toolkit.
func New() *Toolkit {
	reg := render.NewKindRegistry()
	reg.Register((*widget.Label)(nil), ir.KindLabel)
	reg.Register((*widget.Button)(nil), ir.KindPushButton)
	reg.Register((*widget.Check)(nil), ir.KindCheckBox)
	reg.Register((*widget.Entry)(nil), ir.KindLineEdit)
	reg.Register((*widget.Select)(nil), ir.KindComboBox)
	reg.Register((*widget.Slider)(nil), ir.KindSlider)
	reg.Register((*widget.ProgressBar)(nil), ir.KindProgressBar)
	reg.Register((*widget.List)(nil), ir.KindListWidget)
	reg.Register((*widget.Separator)(nil), ir.KindSeparator)
	reg.Register((*widget.Icon)(nil), ir.KindImageView)
	reg.Register((*fyne.Container)(nil), ir.KindWidget)
	return &Toolkit{reg: reg}
}

func (t *Toolkit) Name() string                   { return "fyne" }
func (t *Toolkit) Registry() *render.KindRegistry { return t.reg }

// Create builds the fyne widget for kind.
func (t *Toolkit) Create(kind ir.Kind, name, _ string) (render.Object, error) {
	n := &Node{name: name}
	switch kind {
	case ir.KindLabel:
		w := widget.NewLabel("")
		n.obj = w
		return &Label{Node: n, w: w}, nil
	case ir.KindPushButton, ir.KindToolButton, ir.KindAction:
		w := widget.NewButton("", nil)
		n.obj = w
		return &Button{Node: n, w: w}, nil
	case ir.KindCheckBox, ir.KindRadioButton:
		w := widget.NewCheck("", nil)
		n.obj = w
		return &Check{Node: n, w: w}, nil
	case ir.KindLineEdit:
		w := widget.NewEntry()
		n.obj = w
		return &Entry{Node: n, w: w}, nil
	case ir.KindTextEdit, ir.KindPlainTextEdit:
		w := widget.NewMultiLineEntry()
		n.obj = w
		return &Entry{Node: n, w: w}, nil
	case ir.KindComboBox:
		w := widget.NewSelect(nil, nil)
		n.obj = w
		return &Select{Node: n, w: w}, nil
	case ir.KindSlider, ir.KindSpinBox, ir.KindDoubleSpinBox:
		w := widget.NewSlider(0, 99)
		n.obj = w
		return &Slider{Node: n, w: w}, nil
	case ir.KindProgressBar:
		w := widget.NewProgressBar()
		n.obj = w
		return &Progress{Node: n, w: w}, nil
	case ir.KindListWidget:
		l := &List{Node: n}
		l.w = widget.NewList(
			func() int { return len(l.items) },
			func() fyne.CanvasObject { return widget.NewLabel("") },
			func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(l.items[i]) },
		)
		n.obj = l.w
		return l, nil
	case ir.KindSeparator:
		n.obj = widget.NewSeparator()
		return n, nil
	case ir.KindImageView:
		n.obj = widget.NewIcon(nil)
		return n, nil
	}
	if kind.Known() {
		// vertical box until the model sets a layout; bars flow horizontally
		switch kind {
		case ir.KindToolBar, ir.KindMenuBar, ir.KindStatusBar:
			n.box = container.NewHBox()
		default:
			n.box = container.NewVBox()
		}
		n.obj = n.box
		return &Container{Node: n}, nil
	}
	return nil, fmt.Errorf("%w: %q", render.ErrUnsupportedKind, kind)
}

// AddChild links child under parent. Without a layout the canvas object is added right away;
// with one, the layout adds it during placement.
func (t *Toolkit) AddChild(parent, child render.Object) error {
	p, ok := parent.(wrapper)
	if !ok || p.node().box == nil {
		return fmt.Errorf("%q cannot hold children", parent.Name())
	}
	c, ok := child.(wrapper)
	if !ok {
		return fmt.Errorf("child %T is not a fyne object", child)
	}
	pn := p.node()
	pn.children = append(pn.children, child)
	if pn.layout == nil {
		pn.box.Add(c.node().obj)
	}
	return nil
}

// NewLayout sets the fyne layout of a container.
func (t *Toolkit) NewLayout(owner render.Object, typ ir.LayoutType, props ir.LayoutProperties) (render.Layout, error) {
	o, ok := owner.(wrapper)
	if !ok || o.node().box == nil {
		return nil, fmt.Errorf("%q cannot hold a layout", owner.Name())
	}
	n := o.node()
	var l render.Layout
	switch typ {
	case ir.LayoutHBox:
		n.box.Layout = layout.NewHBoxLayout()
		l = &boxLayout{n: n, typ: typ}
	case ir.LayoutVBox:
		n.box.Layout = layout.NewVBoxLayout()
		l = &boxLayout{n: n, typ: typ}
	case ir.LayoutGrid:
		cols := props.Columns
		if cols <= 0 {
			cols = ir.DefaultGridColumns
		}
		n.box.Layout = layout.NewGridLayoutWithColumns(cols)
		l = &gridLayout{n: n, columns: cols}
	case ir.LayoutForm:
		n.box.Layout = layout.NewFormLayout()
		l = &formLayout{n: n}
	case ir.LayoutStacked:
		n.box.Layout = layout.NewStackLayout()
		l = &stackLayout{n: n}
	default:
		return nil, fmt.Errorf("unknown layout type %q", typ)
	}
	n.layout = l
	return l, nil
}

func canvasOf(obj render.Object) (fyne.CanvasObject, error) {
	co, ok := CanvasObject(obj)
	if !ok {
		return nil, fmt.Errorf("%T is not a fyne object", obj)
	}
	return co, nil
}

// boxLayout appends; stretch > 0 adds a trailing spacer since fyne boxes have no stretch factors.
type boxLayout struct {
	n   *Node
	typ ir.LayoutType
}

func (b *boxLayout) Type() ir.LayoutType { return b.typ }

func (b *boxLayout) AddWidget(obj render.Object, stretch int) error {
	co, err := canvasOf(obj)
	if err != nil {
		return err
	}
	b.n.box.Add(co)
	if stretch > 0 {
		b.n.box.Add(layout.NewSpacer())
	}
	return nil
}

// gridLayout keeps Objects sorted by cell index; fyne fills grids row-major.
type gridLayout struct {
	n       *Node
	columns int
	cells   map[fyne.CanvasObject]int
}

func (g *gridLayout) Type() ir.LayoutType { return ir.LayoutGrid }

func (g *gridLayout) AddAt(obj render.Object, row, column, _, _ int) error {
	co, err := canvasOf(obj)
	if err != nil {
		return err
	}
	if column >= g.columns {
		return fmt.Errorf("column %d outside %d-column grid", column, g.columns)
	}
	idx := row*g.columns + column
	if g.cells == nil {
		g.cells = map[fyne.CanvasObject]int{}
	}
	for other, i := range g.cells {
		if i == idx {
			return fmt.Errorf("cell (%d,%d) already used by %T", row, column, other)
		}
	}
	g.cells[co] = idx
	objs := append(g.n.box.Objects, co)
	sort.SliceStable(objs, func(i, j int) bool { return g.cells[objs[i]] < g.cells[objs[j]] })
	g.n.box.Objects = objs
	g.n.box.Refresh()
	return nil
}

type formLayout struct{ n *Node }

func (f *formLayout) Type() ir.LayoutType { return ir.LayoutForm }

func (f *formLayout) AddRow(label, field render.Object) error {
	var lc, fc fyne.CanvasObject = widget.NewLabel(""), layout.NewSpacer()
	var err error
	if label != nil {
		if lc, err = canvasOf(label); err != nil {
			return err
		}
	}
	if field != nil {
		if fc, err = canvasOf(field); err != nil {
			return err
		}
	}
	f.n.box.Add(lc)
	f.n.box.Add(fc)
	return nil
}

type stackLayout struct{ n *Node }

func (s *stackLayout) Type() ir.LayoutType { return ir.LayoutStacked }

func (s *stackLayout) Insert(index int, obj render.Object) error {
	co, err := canvasOf(obj)
	if err != nil {
		return err
	}
	objs := s.n.box.Objects
	if index < 0 || index > len(objs) {
		return fmt.Errorf("page index %d out of range [0,%d]", index, len(objs))
	}
	objs = append(objs, nil)
	copy(objs[index+1:], objs[index:])
	objs[index] = co
	s.n.box.Objects = objs
	s.n.box.Refresh()
	return nil
}
