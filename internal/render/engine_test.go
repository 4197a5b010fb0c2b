/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsorter/internal/ir"
	"cellsorter/internal/render"
	"cellsorter/internal/render/retained"
)

type gate bool

func (g gate) RequiresGUI() bool { return bool(g) }

func intp(i int) *int { return &i }

func noHarness() bool { return false }

func newEngine(tk *retained.Toolkit, opts ...render.Option) *render.Engine {
	return render.NewEngine(tk, append([]render.Option{render.WithHarnessCheck(noHarness)}, opts...)...)
}

func formModel() *ir.Model {
	m := ir.NewModel()
	root := ir.NewWidget("main_window", ir.KindMainWindow)
	root.SetProperty("title", "Cell Sorter")
	root.Geometry = &ir.Geometry{X: 5, Y: 5, Width: 800, Height: 600}
	m.Root = root
	central := root.AddChild(ir.NewWidget("central_widget", ir.KindWidget))
	central.SetLayout(ir.LayoutVBox).
		AddItem(ir.LayoutItem{Widget: "name_edit", Stretch: 1}).
		AddItem(ir.LayoutItem{Widget: "zoom_slider", Stretch: 2})
	name := central.AddChild(ir.NewWidget("name_edit", ir.KindLineEdit))
	name.SetProperty("placeholder", "Sample name").SetProperty("read_only", true).SetProperty("text", "A1")
	name.ToolTip = "Sample"
	slider := central.AddChild(ir.NewWidget("zoom_slider", ir.KindSlider))
	slider.SetProperty("minimum", 10).SetProperty("maximum", 500).SetProperty("value", 100).SetProperty("step", 5)
	slider.SetProperty("orientation", "vertical")
	slider.Enabled = false
	central.AddChild(ir.NewWidget("mode_combo", ir.KindComboBox)).SetProperty("items", []string{"scatter", "hist"})
	central.AddChild(ir.NewWidget("hidden_label", ir.KindLabel)).SetProperty("word_wrap", true).Visible = false
	return m
}

func TestRenderAppliesPropertiesAndBoxLayout(t *testing.T) {
	tk := retained.New()
	tree, err := newEngine(tk).Render(formModel())
	require.NoError(t, err)
	assert.False(t, tree.Inert)
	assert.Equal(t, []string{"main_window", "central_widget", "name_edit", "zoom_slider", "mode_combo", "hidden_label"}, tk.Created())

	win := tree.Root.(*retained.Window)
	assert.Equal(t, "Cell Sorter", win.Text())
	geo, ok := win.Geometry()
	require.True(t, ok)
	assert.Equal(t, 800, geo.Width)

	obj, _ := tree.Lookup("name_edit")
	edit := obj.(*retained.LineEdit)
	assert.Equal(t, "A1", edit.Text())
	assert.Equal(t, "Sample name", edit.Placeholder())
	assert.True(t, edit.ReadOnly())
	assert.Equal(t, "Sample", edit.ToolTip())

	obj, _ = tree.Lookup("zoom_slider")
	sl := obj.(*retained.Slider)
	lo, hi := sl.Range()
	assert.Equal(t, 10.0, lo)
	assert.Equal(t, 500.0, hi)
	assert.Equal(t, 100.0, sl.Value(), "value applied after range")
	assert.Equal(t, 5.0, sl.Step())
	assert.Equal(t, "vertical", sl.Orientation())
	assert.False(t, sl.Enabled())

	obj, _ = tree.Lookup("mode_combo")
	assert.Equal(t, []string{"scatter", "hist"}, obj.(*retained.ComboBox).Items())
	obj, _ = tree.Lookup("hidden_label")
	assert.False(t, obj.(*retained.Label).Visible())
	assert.True(t, obj.(*retained.Label).WordWrap())

	central, _ := tree.Lookup("central_widget")
	box := central.(*retained.Container).Layout().(*retained.Box)
	require.Len(t, box.Entries, 4)
	assert.Equal(t, 1, box.Entries[0].Stretch)
	assert.Equal(t, 2, box.Entries[1].Stretch)
	assert.Equal(t, 0, box.Entries[2].Stretch)
	assert.Len(t, central.Children(), 4)
}

func TestRenderGridPlacement(t *testing.T) {
	m := ir.NewModel()
	m.Root = ir.NewWidget("grid_host", ir.KindWidget)
	lay := m.Root.SetLayout(ir.LayoutGrid)
	for _, n := range []string{"cell_a", "cell_b", "cell_c", "cell_d"} {
		m.Root.AddChild(ir.NewWidget(n, ir.KindLabel))
	}
	// cell_b is pinned to the first cell; the rest flow row-major around it.
	lay.AddItem(ir.LayoutItem{Widget: "cell_b", Row: intp(0), Column: intp(0)})

	tree, err := newEngine(retained.New()).Render(m)
	require.NoError(t, err)
	grid := tree.Root.(*retained.Container).Layout().(*retained.Grid)
	require.Len(t, grid.Cells, 4)
	pos := map[string][2]int{}
	for _, c := range grid.Cells {
		pos[c.Object.Name()] = [2]int{c.Row, c.Column}
	}
	assert.Equal(t, [2]int{0, 0}, pos["cell_b"])
	assert.Equal(t, [2]int{0, 1}, pos["cell_a"])
	assert.Equal(t, [2]int{1, 0}, pos["cell_c"])
	assert.Equal(t, [2]int{1, 1}, pos["cell_d"])
}

func TestRenderGridHonoursColumnCount(t *testing.T) {
	m := ir.NewModel()
	m.Root = ir.NewWidget("grid_host", ir.KindWidget)
	m.Root.SetLayout(ir.LayoutGrid).Properties.Columns = 3
	for _, n := range []string{"one", "two", "three", "four"} {
		m.Root.AddChild(ir.NewWidget(n, ir.KindLabel))
	}
	tree, err := newEngine(retained.New()).Render(m)
	require.NoError(t, err)
	grid := tree.Root.(*retained.Container).Layout().(*retained.Grid)
	last := grid.Cells[3]
	assert.Equal(t, "four", last.Object.Name())
	assert.Equal(t, 1, last.Row)
	assert.Equal(t, 0, last.Column)
}

func TestRenderGridAutoPlacementSkipsSpannedCells(t *testing.T) {
	m := ir.NewModel()
	m.Root = ir.NewWidget("grid_host", ir.KindWidget)
	lay := m.Root.SetLayout(ir.LayoutGrid)
	lay.Properties.Columns = 2
	for _, n := range []string{"banner", "tall", "side", "below"} {
		m.Root.AddChild(ir.NewWidget(n, ir.KindLabel))
	}
	lay.AddItem(ir.LayoutItem{Widget: "banner", ColumnSpan: 2})
	lay.AddItem(ir.LayoutItem{Widget: "tall", RowSpan: 2})

	tree, err := newEngine(retained.New()).Render(m)
	require.NoError(t, err)
	grid := tree.Root.(*retained.Container).Layout().(*retained.Grid)
	require.Len(t, grid.Cells, 4)
	pos := map[string][2]int{}
	for _, c := range grid.Cells {
		pos[c.Object.Name()] = [2]int{c.Row, c.Column}
	}
	assert.Equal(t, [2]int{0, 0}, pos["banner"])
	assert.Equal(t, [2]int{1, 0}, pos["tall"])
	assert.Equal(t, [2]int{1, 1}, pos["side"])
	assert.Equal(t, [2]int{2, 1}, pos["below"])
}

func TestRenderGridCollisionIsLayoutError(t *testing.T) {
	m := ir.NewModel()
	m.Root = ir.NewWidget("grid_host", ir.KindWidget)
	lay := m.Root.SetLayout(ir.LayoutGrid)
	m.Root.AddChild(ir.NewWidget("first", ir.KindLabel))
	m.Root.AddChild(ir.NewWidget("second", ir.KindLabel))
	lay.AddItem(ir.LayoutItem{Widget: "first", Row: intp(0), Column: intp(0)})
	lay.AddItem(ir.LayoutItem{Widget: "second", Row: intp(0), Column: intp(0)})

	_, err := newEngine(retained.New()).Render(m)
	var re *render.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "layout", re.Op)
	assert.Equal(t, "second", re.Widget)
}

func TestRenderFormPairsLabels(t *testing.T) {
	m := ir.NewModel()
	m.Root = ir.NewWidget("form_host", ir.KindWidget)
	m.Root.SetLayout(ir.LayoutForm)
	m.Root.AddChild(ir.NewWidget("name_label", ir.KindLabel))
	m.Root.AddChild(ir.NewWidget("name_edit", ir.KindLineEdit))
	m.Root.AddChild(ir.NewWidget("agree_box", ir.KindCheckBox))
	m.Root.AddChild(ir.NewWidget("trailing_label", ir.KindLabel))

	tree, err := newEngine(retained.New()).Render(m)
	require.NoError(t, err)
	form := tree.Root.(*retained.Container).Layout().(*retained.Form)
	require.Len(t, form.Rows, 3)
	assert.Equal(t, "name_label", form.Rows[0].Label.Name())
	assert.Equal(t, "name_edit", form.Rows[0].Field.Name())
	assert.Nil(t, form.Rows[1].Label)
	assert.Equal(t, "agree_box", form.Rows[1].Field.Name())
	assert.Equal(t, "trailing_label", form.Rows[2].Label.Name())
	assert.Nil(t, form.Rows[2].Field)
}

func TestRenderStackedByIndex(t *testing.T) {
	m := ir.NewModel()
	m.Root = ir.NewWidget("pages", ir.KindStackedWidget)
	m.Root.SetLayout(ir.LayoutStacked)
	m.Root.AddChild(ir.NewWidget("page_one", ir.KindWidget))
	m.Root.AddChild(ir.NewWidget("page_two", ir.KindWidget))
	tree, err := newEngine(retained.New()).Render(m)
	require.NoError(t, err)
	st := tree.Root.(*retained.Stack).Layout().(*retained.Stacked)
	require.Len(t, st.Pages, 2)
	assert.Equal(t, "page_two", st.Pages[1].Name())
}

func TestRenderRefusedWithoutGUI(t *testing.T) {
	tk := retained.New()
	_, err := newEngine(tk, render.WithGate(gate(false))).Render(formModel())
	assert.ErrorIs(t, err, render.ErrGUIUnavailable)
	assert.Empty(t, tk.Created())

	_, err = newEngine(tk, render.WithGate(gate(true))).Render(formModel())
	assert.NoError(t, err)
}

func TestRenderUnderHarnessIsInert(t *testing.T) {
	tk := retained.New()
	e := render.NewEngine(tk, render.WithHarnessCheck(func() bool { return true }))
	tree, err := e.Render(formModel())
	require.NoError(t, err)
	assert.True(t, tree.Inert)
	assert.Equal(t, "main_window", tree.Root.Name())
	assert.Empty(t, tk.Created(), "toolkit must not be touched")
}

func TestDefaultHarnessCheckHonoursEnv(t *testing.T) {
	t.Setenv(render.EnvTestHarness, "false")
	assert.False(t, render.DefaultHarnessCheck())
	t.Setenv(render.EnvTestHarness, "1")
	assert.True(t, render.DefaultHarnessCheck())
	t.Setenv(render.EnvTestHarness, "")
	// go test binaries end in .test
	assert.True(t, render.DefaultHarnessCheck())
}

func TestRenderAbortsOnFirstFailure(t *testing.T) {
	tk := retained.New()
	boom := errors.New("boom")
	tk.FailOn("zoom_slider", boom)
	tree, err := newEngine(tk).Render(formModel())
	assert.Nil(t, tree)
	var re *render.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "create", re.Op)
	assert.Equal(t, "zoom_slider", re.Widget)
	assert.Equal(t, ir.KindSlider, re.Kind)
	assert.ErrorIs(t, err, boom)
	// Siblings after the failing node are never created.
	assert.Equal(t, []string{"main_window", "central_widget", "name_edit"}, tk.Created())
}

func TestRenderPropertyTypeError(t *testing.T) {
	m := formModel()
	m.Find("name_edit").SetProperty("read_only", []any{1})
	_, err := newEngine(retained.New()).Render(m)
	var re *render.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "property", re.Op)
	assert.Contains(t, err.Error(), "read_only")
}

func TestRenderUnsupportedKindAndNoRoot(t *testing.T) {
	m := ir.NewModel()
	m.Root = ir.NewWidget("odd", ir.Kind("hologram"))
	_, err := newEngine(retained.New()).Render(m)
	assert.ErrorIs(t, err, render.ErrUnsupportedKind)

	_, err = newEngine(retained.New()).Render(ir.NewModel())
	assert.ErrorIs(t, err, render.ErrNoRoot)
}

func TestCapabilitiesOnlyWhereSupported(t *testing.T) {
	m := ir.NewModel()
	m.Root = ir.NewWidget("plain_frame", ir.KindFrame)
	// A frame has no text or value setter; these keys are skipped silently.
	m.Root.SetProperty("text", "ignored").SetProperty("value", 3).SetProperty("custom_key", "kept")
	_, err := newEngine(retained.New()).Render(m)
	assert.NoError(t, err)
}

func TestExtractRoundTrip(t *testing.T) {
	tk := retained.New()
	e := newEngine(tk)
	tree, err := e.Render(formModel())
	require.NoError(t, err)

	got := e.Extract(tree.Root)
	assert.Equal(t, "retained", got.Metadata["extracted_from"])
	require.NotNil(t, got.Root)
	assert.Equal(t, ir.KindMainWindow, got.Root.Type)
	assert.Equal(t, 800, got.Root.Geometry.Width)

	edit := got.Find("name_edit")
	require.NotNil(t, edit)
	assert.Equal(t, ir.KindLineEdit, edit.Type)
	assert.Equal(t, "central_widget", edit.Parent)
	assert.Equal(t, "A1", edit.Properties["text"])
	assert.Equal(t, true, edit.Properties["read_only"])
	assert.Equal(t, "Sample", edit.ToolTip)

	slider := got.Find("zoom_slider")
	assert.Equal(t, int64(100), slider.Properties["value"])
	assert.Equal(t, int64(500), slider.Properties["maximum"])
	assert.False(t, slider.Enabled)
	assert.False(t, got.Find("hidden_label").Visible)

	central := got.Find("central_widget")
	require.NotNil(t, central.Layout)
	assert.Equal(t, ir.LayoutVBox, central.Layout.Type)
	assert.Len(t, central.Layout.Items, 4)
	assert.Empty(t, ir.Validate(got))
}

type foreign struct{ name string }

func (f foreign) Name() string              { return f.name }
func (f foreign) Children() []render.Object { return nil }

func TestExtractUnknownTypeDegradesToWidget(t *testing.T) {
	e := newEngine(retained.New())
	got := e.Extract(foreign{name: "mystery"})
	assert.Equal(t, ir.KindWidget, got.Root.Type)
	assert.Equal(t, "mystery", got.Root.Name)
	assert.Nil(t, e.Extract(nil).Root)
}

func TestKindRegistry(t *testing.T) {
	reg := render.NewKindRegistry()
	assert.Equal(t, 0, reg.Len())
	reg.Register(foreign{}, ir.KindLabel)
	assert.Equal(t, ir.KindLabel, reg.KindOf(foreign{name: "x"}))
	assert.Equal(t, ir.KindWidget, reg.KindOf(nil))
	assert.Equal(t, len(ir.Kinds())-1, retained.New().Registry().Len(), "every kind but custom has its own type")
}
