/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"

	"cellsorter/internal/ir"
)

// placer attaches the direct children of one widget to its live layout.
type placer interface {
	place(child *ir.Widget, obj Object) error
	finish() error
}

func newPlacer(l Layout, spec *ir.Layout) (placer, error) {
	switch spec.Type {
	case ir.LayoutHBox, ir.LayoutVBox:
		b, ok := l.(BoxLayout)
		if !ok {
			return nil, fmt.Errorf("toolkit layout %T does not support %s", l, spec.Type)
		}
		return &boxPlacer{l: b, spec: spec}, nil
	case ir.LayoutGrid:
		g, ok := l.(GridLayout)
		if !ok {
			return nil, fmt.Errorf("toolkit layout %T does not support grid", l)
		}
		cols := spec.Properties.Columns
		if cols <= 0 {
			cols = ir.DefaultGridColumns
		}
		return &gridPlacer{l: g, spec: spec, columns: cols, used: map[[2]int]bool{}}, nil
	case ir.LayoutForm:
		f, ok := l.(FormLayout)
		if !ok {
			return nil, fmt.Errorf("toolkit layout %T does not support form", l)
		}
		return &formPlacer{l: f}, nil
	case ir.LayoutStacked:
		s, ok := l.(StackedLayout)
		if !ok {
			return nil, fmt.Errorf("toolkit layout %T does not support stacked", l)
		}
		return &stackPlacer{l: s}, nil
	}
	return nil, fmt.Errorf("unknown layout type %q", spec.Type)
}

type boxPlacer struct {
	l    BoxLayout
	spec *ir.Layout
}

func (p *boxPlacer) place(child *ir.Widget, obj Object) error {
	item, _ := p.spec.Item(child.Name)
	return p.l.AddWidget(obj, item.Stretch)
}

func (p *boxPlacer) finish() error { return nil }

// gridPlacer uses the item's explicit cell, or the next free cell in row-major order.
type gridPlacer struct {
	l       GridLayout
	spec    *ir.Layout
	columns int
	cursor  int
	used    map[[2]int]bool
	pending []pendingCell
}

type pendingCell struct {
	obj              Object
	rowSpan, colSpan int
}

func (p *gridPlacer) place(child *ir.Widget, obj Object) error {
	item, _ := p.spec.Item(child.Name)
	rs, cs := span(item.RowSpan), span(item.ColumnSpan)
	if item.HasPosition() {
		p.mark(*item.Row, *item.Column, rs, cs)
		return p.l.AddAt(obj, *item.Row, *item.Column, rs, cs)
	}
	// Auto-placed cells go after explicit ones so they never collide.
	p.pending = append(p.pending, pendingCell{obj: obj, rowSpan: rs, colSpan: cs})
	return nil
}

func (p *gridPlacer) finish() error {
	for _, pc := range p.pending {
		for !p.free(p.cursor/p.columns, p.cursor%p.columns, pc.rowSpan, pc.colSpan) {
			p.cursor++
		}
		r, c := p.cursor/p.columns, p.cursor%p.columns
		p.mark(r, c, pc.rowSpan, pc.colSpan)
		p.cursor++
		if err := p.l.AddAt(pc.obj, r, c, pc.rowSpan, pc.colSpan); err != nil {
			return err
		}
	}
	return nil
}

// free reports whether the rs x cs block at (r, c) is unused and, where it can, stays within
// the column count. A block wider than the grid only has to start at column 0.
func (p *gridPlacer) free(r, c, rs, cs int) bool {
	if cs > p.columns {
		if c != 0 {
			return false
		}
	} else if c+cs > p.columns {
		return false
	}
	for i := r; i < r+rs; i++ {
		for j := c; j < c+cs; j++ {
			if p.used[[2]int{i, j}] {
				return false
			}
		}
	}
	return true
}

func (p *gridPlacer) mark(r, c, rs, cs int) {
	for i := r; i < r+rs; i++ {
		for j := c; j < c+cs; j++ {
			p.used[[2]int{i, j}] = true
		}
	}
}

func span(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// formPlacer pairs a label with the field that follows it. A field without a preceding label
// gets a row of its own, as does a trailing label.
type formPlacer struct {
	l     FormLayout
	label Object
}

func (p *formPlacer) place(child *ir.Widget, obj Object) error {
	if child.Type == ir.KindLabel && p.label == nil {
		p.label = obj
		return nil
	}
	label := p.label
	p.label = nil
	return p.l.AddRow(label, obj)
}

func (p *formPlacer) finish() error {
	if p.label == nil {
		return nil
	}
	label := p.label
	p.label = nil
	return p.l.AddRow(label, nil)
}

type stackPlacer struct {
	l     StackedLayout
	index int
}

func (p *stackPlacer) place(_ *ir.Widget, obj Object) error {
	err := p.l.Insert(p.index, obj)
	p.index++
	return err
}

func (p *stackPlacer) finish() error { return nil }
