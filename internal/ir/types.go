/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ir defines the platform-agnostic intermediate representation of a
// widget tree: widgets, layouts, layout items and event bindings.
//
// Widgets own their children and layout. The parent of a widget is never held
// as a pointer; it is a derived name that Reparent recomputes and an arena
// Index resolves.
package ir

// Kind is the widget type tag.
type Kind string

// Category groups kinds by role.
type Category string

const (
	CategoryBasic     Category = "basic"
	CategoryContainer Category = "container"
	CategoryTopLevel  Category = "top_level"
	CategoryMenu      Category = "menu"
	CategoryCustom    Category = "custom"
)

const (
	// basic
	KindLabel         Kind = "label"
	KindPushButton    Kind = "push_button"
	KindToolButton    Kind = "tool_button"
	KindLineEdit      Kind = "line_edit"
	KindTextEdit      Kind = "text_edit"
	KindPlainTextEdit Kind = "plain_text_edit"
	KindCheckBox      Kind = "check_box"
	KindRadioButton   Kind = "radio_button"
	KindComboBox      Kind = "combo_box"
	KindSpinBox       Kind = "spin_box"
	KindDoubleSpinBox Kind = "double_spin_box"
	KindSlider        Kind = "slider"
	KindProgressBar   Kind = "progress_bar"
	KindListWidget    Kind = "list_widget"
	KindTableWidget   Kind = "table_widget"
	KindTreeWidget    Kind = "tree_widget"
	KindSeparator     Kind = "separator"
	KindImageView     Kind = "image_view"

	// containers
	KindWidget        Kind = "widget"
	KindFrame         Kind = "frame"
	KindGroupBox      Kind = "group_box"
	KindScrollArea    Kind = "scroll_area"
	KindTabWidget     Kind = "tab_widget"
	KindSplitter      Kind = "splitter"
	KindStackedWidget Kind = "stacked_widget"

	// top level
	KindMainWindow Kind = "main_window"
	KindDialog     Kind = "dialog"

	// menus
	KindMenuBar   Kind = "menu_bar"
	KindMenu      Kind = "menu"
	KindAction    Kind = "action"
	KindToolBar   Kind = "tool_bar"
	KindStatusBar Kind = "status_bar"

	// custom widgets carry their class in Widget.CustomClass
	KindCustom Kind = "custom"
)

var kindCategories = map[Kind]Category{
	KindLabel: CategoryBasic, KindPushButton: CategoryBasic, KindToolButton: CategoryBasic,
	KindLineEdit: CategoryBasic, KindTextEdit: CategoryBasic, KindPlainTextEdit: CategoryBasic,
	KindCheckBox: CategoryBasic, KindRadioButton: CategoryBasic, KindComboBox: CategoryBasic,
	KindSpinBox: CategoryBasic, KindDoubleSpinBox: CategoryBasic, KindSlider: CategoryBasic,
	KindProgressBar: CategoryBasic, KindListWidget: CategoryBasic, KindTableWidget: CategoryBasic,
	KindTreeWidget: CategoryBasic, KindSeparator: CategoryBasic, KindImageView: CategoryBasic,

	KindWidget: CategoryContainer, KindFrame: CategoryContainer, KindGroupBox: CategoryContainer,
	KindScrollArea: CategoryContainer, KindTabWidget: CategoryContainer, KindSplitter: CategoryContainer,
	KindStackedWidget: CategoryContainer,

	KindMainWindow: CategoryTopLevel, KindDialog: CategoryTopLevel,

	KindMenuBar: CategoryMenu, KindMenu: CategoryMenu, KindAction: CategoryMenu,
	KindToolBar: CategoryMenu, KindStatusBar: CategoryMenu,

	KindCustom: CategoryCustom,
}

// Category returns the kind's category; unknown kinds are reported as custom.
func (k Kind) Category() Category {
	if c, ok := kindCategories[k]; ok {
		return c
	}
	return CategoryCustom
}

// Known reports whether k is one of the predefined kinds.
func (k Kind) Known() bool {
	_, ok := kindCategories[k]
	return ok
}

// CanHaveChildren reports whether widgets of this kind may own children.
func (k Kind) CanHaveChildren() bool {
	switch k.Category() {
	case CategoryContainer, CategoryTopLevel, CategoryMenu, CategoryCustom:
		return true
	}
	return false
}

// Kinds returns every predefined kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindCategories))
	for k := range kindCategories {
		out = append(out, k)
	}
	return out
}

// LayoutType is the layout manager variant.
type LayoutType string

const (
	LayoutHBox    LayoutType = "hbox"
	LayoutVBox    LayoutType = "vbox"
	LayoutGrid    LayoutType = "grid"
	LayoutForm    LayoutType = "form"
	LayoutStacked LayoutType = "stacked"
)

// DefaultGridColumns is the column count used to place grid items that carry no position.
const DefaultGridColumns = 2

// IsBox reports whether the layout is a horizontal or vertical box.
func (t LayoutType) IsBox() bool { return t == LayoutHBox || t == LayoutVBox }

// Valid reports whether t is a known layout type.
func (t LayoutType) Valid() bool {
	switch t {
	case LayoutHBox, LayoutVBox, LayoutGrid, LayoutForm, LayoutStacked:
		return true
	}
	return false
}

// ConnectionMode describes how an event binding is dispatched.
type ConnectionMode string

const (
	ConnectionAuto   ConnectionMode = "auto"
	ConnectionDirect ConnectionMode = "direct"
	ConnectionQueued ConnectionMode = "queued"
)

// Geometry is a widget's position and size in pixels.
type Geometry struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Size is a width/height pair used for constraints.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// SizePolicy mirrors the toolkit notion of how a widget grows.
type SizePolicy struct {
	Horizontal string `json:"horizontal" yaml:"horizontal"` // fixed|minimum|maximum|preferred|expanding|ignored
	Vertical   string `json:"vertical" yaml:"vertical"`
	HStretch   int    `json:"h_stretch,omitempty" yaml:"h_stretch,omitempty"`
	VStretch   int    `json:"v_stretch,omitempty" yaml:"v_stretch,omitempty"`
}

// Margins are layout content margins.
type Margins struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// LayoutProperties holds spacing and margins; nil means toolkit default.
type LayoutProperties struct {
	Spacing *int     `json:"spacing,omitempty" yaml:"spacing,omitempty"`
	Margins *Margins `json:"margins,omitempty" yaml:"margins,omitempty"`
	Columns int      `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// LayoutItem places one child widget, referenced by name, inside a layout.
type LayoutItem struct {
	Widget     string `json:"widget" yaml:"widget"`
	Stretch    int    `json:"stretch,omitempty" yaml:"stretch,omitempty"`
	Alignment  string `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	Row        *int   `json:"row,omitempty" yaml:"row,omitempty"`
	Column     *int   `json:"column,omitempty" yaml:"column,omitempty"`
	RowSpan    int    `json:"row_span,omitempty" yaml:"row_span,omitempty"`
	ColumnSpan int    `json:"column_span,omitempty" yaml:"column_span,omitempty"`
}

// HasPosition reports whether the item carries both row and column.
func (li LayoutItem) HasPosition() bool { return li.Row != nil && li.Column != nil }

// Layout is owned by exactly one widget.
type Layout struct {
	Type       LayoutType       `json:"type" yaml:"type"`
	Properties LayoutProperties `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items      []LayoutItem     `json:"items,omitempty" yaml:"items,omitempty"`
}

// Item returns the layout item referencing name.
func (l *Layout) Item(name string) (LayoutItem, bool) {
	if l == nil {
		return LayoutItem{}, false
	}
	for _, it := range l.Items {
		if it.Widget == name {
			return it, true
		}
	}
	return LayoutItem{}, false
}

// EventBinding connects a widget event to a named handler.
type EventBinding struct {
	Event      string         `json:"event" yaml:"event"`
	Handler    string         `json:"handler" yaml:"handler"`
	Connection ConnectionMode `json:"connection,omitempty" yaml:"connection,omitempty"`
}

// Widget is a node of the UI tree.
type Widget struct {
	Name        string
	Type        Kind
	CustomClass string
	Properties  map[string]any
	Geometry    *Geometry
	MinSize     *Size
	MaxSize     *Size
	SizePolicy  *SizePolicy
	Visible     bool
	Enabled     bool
	ToolTip     string
	StyleSheet  string
	Events      []EventBinding
	Layout      *Layout
	Children    []*Widget

	// Parent is derived from the tree position; see Model.Reparent.
	Parent string
}

// Property returns a property value.
func (w *Widget) Property(key string) (any, bool) {
	if w == nil || w.Properties == nil {
		return nil, false
	}
	v, ok := w.Properties[key]
	return v, ok
}

// Model is a complete UI definition.
type Model struct {
	Version   string
	Metadata  map[string]any
	Root      *Widget
	Resources map[string]any
}

// CurrentVersion is written into models built by this package.
const CurrentVersion = "1.0"

// NewModel returns an empty model with initialised maps.
func NewModel() *Model {
	return &Model{Version: CurrentVersion, Metadata: map[string]any{}, Resources: map[string]any{}}
}
