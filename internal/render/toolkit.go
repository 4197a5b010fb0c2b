/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import "cellsorter/internal/ir"

// Object is a live toolkit object. Everything beyond a name and direct children is optional and
// discovered through the capability interfaces below; a property is applied only when the
// object implements the matching setter.
type Object interface {
	Name() string
	Children() []Object
}

// Toolkit materialises objects and layouts for one GUI backend.
type Toolkit interface {
	// Name identifies the backend in logs.
	Name() string
	// Create allocates an object of the mapped kind. Unsupported kinds return ErrUnsupportedKind.
	Create(kind ir.Kind, name, customClass string) (Object, error)
	// AddChild records child as a direct child of parent.
	AddChild(parent, child Object) error
	// NewLayout installs a layout manager on owner.
	NewLayout(owner Object, t ir.LayoutType, props ir.LayoutProperties) (Layout, error)
	// Registry maps native types back to kinds for Extract.
	Registry() *KindRegistry
}

// Layout is a live layout manager. Concrete layouts implement one of the placement interfaces.
type Layout interface {
	Type() ir.LayoutType
}

// BoxLayout appends objects with a stretch factor.
type BoxLayout interface {
	Layout
	AddWidget(obj Object, stretch int) error
}

// GridLayout places objects at explicit cells.
type GridLayout interface {
	Layout
	AddAt(obj Object, row, column, rowSpan, columnSpan int) error
}

// FormLayout holds label and field rows. Either side may be nil.
type FormLayout interface {
	Layout
	AddRow(label, field Object) error
}

// StackedLayout holds pages addressed by index.
type StackedLayout interface {
	Layout
	Insert(index int, obj Object) error
}

// LayoutReporter exposes the layout type of a live object for best-effort extraction.
type LayoutReporter interface {
	LayoutType() (ir.LayoutType, bool)
}

// Native exposes the wrapped toolkit value. KindRegistry keys on its type when present.
type Native interface {
	Native() any
}

// Capability interfaces. Setters and getters are split so that write-only wrappers are possible.
type (
	GeometrySetter interface{ SetGeometry(ir.Geometry) }
	GeometryGetter interface{ Geometry() (ir.Geometry, bool) }

	MinSizeSetter interface{ SetMinSize(ir.Size) }
	MaxSizeSetter interface{ SetMaxSize(ir.Size) }
	MinSizeGetter interface{ MinSize() (ir.Size, bool) }
	MaxSizeGetter interface{ MaxSize() (ir.Size, bool) }

	SizePolicySetter interface{ SetSizePolicy(ir.SizePolicy) }
	SizePolicyGetter interface{ SizePolicy() (ir.SizePolicy, bool) }

	VisibleSetter interface{ SetVisible(bool) }
	VisibleGetter interface{ Visible() bool }
	EnabledSetter interface{ SetEnabled(bool) }
	EnabledGetter interface{ Enabled() bool }

	ToolTipSetter    interface{ SetToolTip(string) }
	ToolTipGetter    interface{ ToolTip() string }
	StyleSheetSetter interface{ SetStyleSheet(string) }
	StyleSheetGetter interface{ StyleSheet() string }

	TextSetter        interface{ SetText(string) }
	TextGetter        interface{ Text() string }
	PlaceholderSetter interface{ SetPlaceholder(string) }
	PlaceholderGetter interface{ Placeholder() string }
	CheckedSetter     interface{ SetChecked(bool) }
	CheckedGetter     interface{ Checked() bool }
	ValueSetter       interface{ SetValue(float64) }
	ValueGetter       interface{ Value() float64 }
	RangeSetter       interface{ SetRange(min, max float64) }
	RangeGetter       interface{ Range() (min, max float64) }
	StepSetter        interface{ SetStep(float64) }
	StepGetter        interface{ Step() float64 }
	ItemsSetter       interface{ SetItems([]string) }
	ItemsGetter       interface{ Items() []string }
	OrientationSetter interface{ SetOrientation(string) }
	OrientationGetter interface{ Orientation() string }
	ReadOnlySetter    interface{ SetReadOnly(bool) }
	ReadOnlyGetter    interface{ ReadOnly() bool }
	WordWrapSetter    interface{ SetWordWrap(bool) }
	WordWrapGetter    interface{ WordWrap() bool }

	SelectionModeSetter interface{ SetSelectionMode(string) }
	SelectionModeGetter interface{ SelectionMode() string }
)
