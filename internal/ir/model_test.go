/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func sampleModel() *Model {
	m := NewModel()
	m.Metadata["title"] = "Cell Sorter"
	root := NewWidget("main_window", KindMainWindow)
	root.Geometry = &Geometry{X: 0, Y: 0, Width: 1200, Height: 800}
	m.Root = root
	central := root.AddChild(NewWidget("central_widget", KindWidget))
	lay := central.SetLayout(LayoutGrid)
	ok := central.AddChild(NewWidget("ok_button", KindPushButton))
	ok.SetProperty("text", "OK").Bind("clicked", "on_ok_clicked")
	name := central.AddChild(NewWidget("name_edit", KindLineEdit))
	name.SetProperty("placeholder", "Name")
	lay.AddItem(LayoutItem{Widget: "ok_button", Row: intp(0), Column: intp(0)})
	lay.AddItem(LayoutItem{Widget: "name_edit", Row: intp(0), Column: intp(1)})
	return m
}

func TestValidateCleanModel(t *testing.T) {
	assert.Empty(t, Validate(sampleModel()))
	assert.Empty(t, Validate(NewModel()))
}

func TestValidateDuplicateNameScenario(t *testing.T) {
	m := NewModel()
	m.Root = NewWidget("root", KindWidget)
	m.Root.AddChild(NewWidget("main_window", KindWidget))
	m.Root.AddChild(NewWidget("main_window", KindWidget))

	res := WithCode(Validate(m), CodeDuplicateName)
	require.Len(t, res, 1)
	assert.Equal(t, LevelError, res[0].Level)
	assert.Equal(t, "main_window", res[0].Widget)
	assert.Equal(t, "root/main_window", res[0].Path)
}

func TestValidateDuplicateAcrossDepths(t *testing.T) {
	m := sampleModel()
	deep := m.Find("central_widget").AddChild(NewWidget("inner", KindFrame))
	deep.AddChild(NewWidget("ok_button", KindLabel))
	assert.Len(t, WithCode(Validate(m), CodeDuplicateName), 1)
}

func TestValidateMissingWidgetRef(t *testing.T) {
	m := sampleModel()
	assert.Empty(t, WithCode(Validate(m), CodeMissingWidgetRef))

	m.Find("central_widget").Layout.AddItem(LayoutItem{Widget: "ghost"})
	res := WithCode(Validate(m), CodeMissingWidgetRef)
	require.Len(t, res, 1)
	assert.Contains(t, res[0].Message, "ghost")
	assert.Equal(t, "main_window/central_widget/layout/items[2]", res[0].Path)
}

func TestLayoutRefResolvesAnywhereInTree(t *testing.T) {
	m := sampleModel()
	// A reference to a widget elsewhere in the same tree resolves.
	m.Root.SetLayout(LayoutVBox).AddItem(LayoutItem{Widget: "name_edit"})
	assert.Empty(t, WithCode(Validate(m), CodeMissingWidgetRef))
}

func TestValidateEmptyNameAndParentMismatch(t *testing.T) {
	m := sampleModel()
	m.Root.AddChild(NewWidget("", KindLabel))
	m.Find("ok_button").Parent = "main_window"
	res := Validate(m)
	assert.Len(t, WithCode(res, CodeEmptyName), 1)
	mism := WithCode(res, CodeParentMismatch)
	require.Len(t, mism, 1)
	assert.Equal(t, "ok_button", mism[0].Widget)

	m.Reparent()
	assert.Empty(t, WithCode(Validate(m), CodeParentMismatch))
	assert.True(t, HasErrors(res))
}

func TestIndexArena(t *testing.T) {
	m := sampleModel()
	idx := BuildIndex(m)
	assert.Equal(t, 4, idx.Len())
	parent, ok := idx.ParentOf("ok_button")
	require.True(t, ok)
	assert.Equal(t, "central_widget", parent)
	_, ok = idx.ParentOf("main_window")
	assert.False(t, ok)
	assert.Equal(t, "main_window/central_widget/name_edit", idx.Path("name_edit"))

	id, ok := idx.Lookup("name_edit")
	require.True(t, ok)
	n, ok := idx.Node(id)
	require.True(t, ok)
	assert.Equal(t, 2, n.Depth)
	_, ok = idx.Node(NodeID(99))
	assert.False(t, ok)
}

func TestCloneAndEqual(t *testing.T) {
	m := sampleModel()
	c := m.Clone()
	assert.True(t, Equal(m, c))

	c.Find("ok_button").SetProperty("text", "Cancel")
	assert.False(t, Equal(m, c))
	assert.Equal(t, "OK", m.Find("ok_button").Properties["text"])

	c = m.Clone()
	*c.Find("central_widget").Layout.Items[0].Row = 5
	assert.False(t, Equal(m, c))
	assert.Equal(t, 0, *m.Find("central_widget").Layout.Items[0].Row)
}

func TestValuesEqualNumeric(t *testing.T) {
	assert.True(t, ValuesEqual(5, 5.0))
	assert.True(t, ValuesEqual([]string{"a", "b"}, []any{"a", "b"}))
	assert.True(t, ValuesEqual(map[string]any{"n": int32(3)}, map[string]any{"n": float64(3)}))
	assert.False(t, ValuesEqual("5", 5))
	assert.False(t, ValuesEqual([]any{1}, []any{1, 2}))
}

func TestEqualIgnoresMetadataKeys(t *testing.T) {
	a, b := sampleModel(), sampleModel()
	a.Metadata["serialized_at"] = "2025-01-01T00:00:00Z"
	assert.False(t, Equal(a, b))
	assert.True(t, Equal(a, b, "serialized_at"))
}

func TestKindCategories(t *testing.T) {
	assert.Equal(t, CategoryTopLevel, KindMainWindow.Category())
	assert.Equal(t, CategoryMenu, KindAction.Category())
	assert.Equal(t, CategoryCustom, Kind("graph_view").Category())
	assert.False(t, Kind("graph_view").Known())
	assert.True(t, KindGroupBox.CanHaveChildren())
	assert.False(t, KindLabel.CanHaveChildren())
	assert.True(t, LayoutHBox.IsBox())
	assert.False(t, LayoutType("flow").Valid())
	assert.NotEmpty(t, Kinds())
}

func TestWalkSkipsChildren(t *testing.T) {
	m := sampleModel()
	var seen []string
	m.Walk(func(w *Widget, depth int) bool {
		seen = append(seen, w.Name)
		return w.Name != "central_widget"
	})
	assert.Equal(t, []string{"main_window", "central_widget"}, seen)
	assert.Equal(t, 4, m.Count())
	assert.Nil(t, m.Find("nope"))
}
