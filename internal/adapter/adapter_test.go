/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package adapter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsorter/internal/ir"
	"cellsorter/internal/mode"
	"cellsorter/internal/undo"
)

type recordingWindow struct {
	applied []string
	fail    bool
}

func (w *recordingWindow) ApplyProperty(name string, _ any) error {
	w.applied = append(w.applied, name)
	if w.fail {
		return errors.New("window gone")
	}
	return nil
}

func newAdapter(opts ...Option) *Adapter {
	opts = append([]Option{WithHistory(undo.NewManager(undo.Config{}))}, opts...)
	return New(opts...)
}

func TestEveryDispatchedNameSucceedsOrReportsArgs(t *testing.T) {
	a := newAdapter()
	for _, name := range []string{"zoom_in", "zoom_out", "zoom_reset", "clear_selection", "get_state"} {
		res := a.ExecuteAction(name, nil)
		assert.True(t, res.Success, name)
		assert.Empty(t, res.Error, name)
	}
}

func TestUnknownAction(t *testing.T) {
	a := newAdapter()
	res := a.ExecuteAction("launch_rocket", Args{"x": 1})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Unknown action")
	assert.Equal(t, "Unknown action: launch_rocket", res.Error)
	assert.Equal(t, res.Error, a.State().StatusMessage)
}

func TestZoomInThreeTimes(t *testing.T) {
	a := newAdapter()
	for i := 0; i < 3; i++ {
		require.True(t, a.ExecuteAction("zoom_in", nil).Success)
	}
	z, _ := a.State().Get(PropZoomLevel)
	assert.InDelta(t, 1.728, z.(float64), 1e-9)

	for i := 0; i < 20; i++ {
		a.ExecuteAction("zoom_in", nil)
	}
	z, _ = a.State().Get(PropZoomLevel)
	assert.Equal(t, ZoomMax, z)

	for i := 0; i < 50; i++ {
		a.ExecuteAction("zoom_out", nil)
	}
	z, _ = a.State().Get(PropZoomLevel)
	assert.Equal(t, ZoomMin, z)

	res := a.ExecuteAction("set_zoom", Args{"level": 2.5})
	require.True(t, res.Success)
	assert.Equal(t, map[string]any{"zoom_level": 2.5}, res.Result)
	assert.False(t, a.ExecuteAction("set_zoom", Args{"level": -1}).Success)
	assert.False(t, a.ExecuteAction("set_zoom", nil).Success)
}

func TestTogglePanelFlipsOncePerCall(t *testing.T) {
	a := newAdapter()
	for i := 0; i < 4; i++ {
		before := a.State().ImagePanelVisible
		res := a.ExecuteAction("toggle_panel", Args{"panel": "image"})
		require.True(t, res.Success)
		after := a.State().ImagePanelVisible
		assert.Equal(t, !before, after)
		assert.Equal(t, after, res.Result.(map[string]any)["visible"])
	}
	res := a.ExecuteAction("toggle_panel", Args{"panel": "sidebar"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown panel")
}

func TestSetPropertyNotifies(t *testing.T) {
	s := NewState()
	var got []Change
	cancel := s.Subscribe(func(c Change) { got = append(got, c) })

	require.NoError(t, s.SetProperty(PropTheme, "dark"))
	require.NoError(t, s.SetProperty(PropTheme, "dark")) // unchanged: no event
	require.NoError(t, s.SetProperty(PropWindowWidth, float64(640)))
	require.Len(t, got, 2)
	assert.Equal(t, Change{Property: PropTheme, Old: "light", New: "dark"}, got[0])
	assert.Equal(t, 640, s.WindowWidth)

	cancel()
	require.NoError(t, s.SetProperty(PropTheme, "light"))
	assert.Len(t, got, 2)

	assert.Error(t, s.SetProperty("nope", 1))
	assert.Error(t, s.SetProperty(PropWindowWidth, 12.5))
	assert.Error(t, s.SetProperty(PropWindowMaximized, "yes"))
}

func TestStateMapRoundTrip(t *testing.T) {
	s := NewState()
	require.NoError(t, s.SetProperty(PropSelectedPoints, []any{float64(3), float64(7)}))
	require.NoError(t, s.SetProperty(PropCSVPath, "/data/cells.csv"))

	other := NewState()
	require.NoError(t, other.ApplyMap(s.ToMap()))
	assert.Equal(t, s.ToMap(), other.ToMap())
	assert.NoError(t, other.ApplyMap(map[string]any{"from_the_future": true}))
}

func TestHandlerErrorsAndPanicsAreContained(t *testing.T) {
	a := newAdapter()
	require.NoError(t, a.RegisterAction("broken", func(Args) (any, error) { return nil, errors.New("disk on fire") }))
	require.NoError(t, a.RegisterAction("explodes", func(Args) (any, error) { panic("boom") }))
	require.Error(t, a.RegisterAction("zoom_in", func(Args) (any, error) { return nil, nil }))

	res := a.ExecuteAction("broken", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "disk on fire", res.Error)
	assert.Equal(t, "disk on fire", a.State().StatusMessage)

	res = a.ExecuteAction("explodes", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "boom")
	assert.Contains(t, a.Actions(), "explodes")
}

func TestLoadForwardsToExternalHandler(t *testing.T) {
	a := newAdapter()
	csv := filepath.Join(t.TempDir(), "cells.csv")
	require.NoError(t, os.WriteFile(csv, []byte("x,y\n1,2\n"), 0o644))

	var seen Args
	require.NoError(t, a.RegisterAction(HandlerCSVLoad, func(args Args) (any, error) {
		seen = args
		return map[string]any{"rows": 1}, nil
	}))
	res := a.ExecuteAction("load_csv", Args{"path": csv})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, csv, seen["path"])
	assert.Equal(t, csv, a.State().CSVPath)
	assert.Equal(t, map[string]any{"rows": 1}, res.Result.(map[string]any)["result"])

	res = a.ExecuteAction("load_image", Args{"path": filepath.Join(t.TempDir(), "missing.png")})
	assert.False(t, res.Success)
	assert.Empty(t, a.State().ImagePath)
}

func TestUndoRedo(t *testing.T) {
	a := newAdapter()
	assert.False(t, a.ExecuteAction("undo", nil).Success)

	require.True(t, a.ExecuteAction("set_theme", Args{"theme": "dark"}).Success)
	require.True(t, a.ExecuteAction("zoom_in", nil).Success)
	require.True(t, a.ExecuteAction("get_state", nil).Success) // read-only: no history entry

	require.True(t, a.ExecuteAction("undo", nil).Success)
	assert.Equal(t, 1.0, a.State().ZoomLevel)
	assert.Equal(t, "dark", a.State().Theme)
	require.True(t, a.ExecuteAction("undo", nil).Success)
	assert.Equal(t, "light", a.State().Theme)

	require.True(t, a.ExecuteAction("redo", nil).Success)
	assert.Equal(t, "dark", a.State().Theme)
	require.True(t, a.ExecuteAction("redo", nil).Success)
	assert.InDelta(t, 1.2, a.State().ZoomLevel, 1e-9)
	assert.False(t, a.ExecuteAction("redo", nil).Success)
}

func TestLiveWindowSyncIsOneDirectional(t *testing.T) {
	w := &recordingWindow{}
	a := newAdapter(WithLiveWindow(w, mode.Dual))

	require.True(t, a.ExecuteAction("zoom_in", nil).Success)
	assert.Equal(t, []string{PropZoomLevel}, w.applied)

	// window -> state must not echo back
	require.NoError(t, a.HandleWindowEvent(PropWindowWidth, 900))
	assert.Equal(t, 900, a.State().WindowWidth)
	assert.Equal(t, []string{PropZoomLevel}, w.applied)
	assert.Error(t, a.HandleWindowEvent(PropWindowWidth, "wide"))

	// a failing window does not fail the action
	w.fail = true
	assert.True(t, a.ExecuteAction("zoom_out", nil).Success)

	headless := &recordingWindow{}
	b := newAdapter(WithLiveWindow(headless, mode.Headless))
	b.ExecuteAction("zoom_in", nil)
	assert.Empty(t, headless.applied)
}

func TestGetUIDefinitionIsPureAndOmitsHiddenPanels(t *testing.T) {
	a := newAdapter()
	before := a.State().ToMap()
	m := a.GetUIDefinition()
	assert.Equal(t, before, a.State().ToMap())
	assert.Empty(t, ir.Validate(m))
	require.NotNil(t, m.Find(WidgetPlotPanel))
	assert.Equal(t, "main_window", m.Root.Name)
	assert.Equal(t, 1200, m.Root.Geometry.Width)

	require.True(t, a.ExecuteAction("toggle_panel", Args{"panel": "plot"}).Success)
	m = a.GetUIDefinition()
	assert.Nil(t, m.Find(WidgetPlotPanel))
	assert.Nil(t, m.Find("plot_view"))
	assert.Empty(t, ir.Validate(m))
	central := m.Find(WidgetCentral)
	for _, it := range central.Layout.Items {
		assert.NotEqual(t, WidgetPlotPanel, it.Widget)
	}
	assert.NotSame(t, m, a.GetUIDefinition())
}
