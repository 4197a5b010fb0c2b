//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests drive the live window with fyne's test driver, so they need the fyne tag but
// neither cgo nor a display:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsorter/internal/adapter"
	"cellsorter/internal/mode"
	"cellsorter/internal/render"
	"cellsorter/internal/render/fynekit"
	"cellsorter/internal/undo"
)

type allowGUI struct{}

func (allowGUI) RequiresGUI() bool { return true }

func newTestWindow(t *testing.T) (*liveWindow, *adapter.Adapter) {
	t.Helper()
	test.NewApp()
	t.Cleanup(func() { test.NewApp() })
	w := test.NewWindow(nil)
	t.Cleanup(w.Close)
	a := adapter.New(adapter.WithHistory(undo.NewManager(undo.Config{})))
	e := render.NewEngine(fynekit.New(), render.WithGate(allowGUI{}), render.WithHarnessCheck(func() bool { return false }))
	lw := newLiveWindow(w, a, e)
	a.AttachLiveWindow(lw, mode.Dual)
	require.NoError(t, lw.refresh())
	return lw, a
}

func statusText(t *testing.T, lw *liveWindow) string {
	t.Helper()
	obj, ok := lw.tree.Lookup("status_label")
	require.True(t, ok)
	co, _ := fynekit.CanvasObject(obj)
	return co.(*widget.Label).Text
}

func TestActionsRerenderWindow(t *testing.T) {
	lw, a := newTestWindow(t)
	assert.Equal(t, "Zoom 100%", statusText(t, lw))

	require.True(t, a.ExecuteAction("zoom_in", nil).Success)
	assert.Equal(t, "Zoom 120%", statusText(t, lw))

	require.True(t, a.ExecuteAction("toggle_panel", adapter.Args{"panel": "plot"}).Success)
	_, ok := lw.tree.Lookup(adapter.WidgetPlotPanel)
	assert.False(t, ok)
}

func TestToolbarButtonsDispatch(t *testing.T) {
	lw, a := newTestWindow(t)
	obj, ok := lw.tree.Lookup("zoom_in_action")
	require.True(t, ok)
	co, _ := fynekit.CanvasObject(obj)
	test.Tap(co.(*widget.Button))
	assert.InDelta(t, 1.2, a.State().ZoomLevel, 1e-9)
}

func TestUserResizeUpdatesStateWithoutEcho(t *testing.T) {
	lw, a := newTestWindow(t)
	before := lw.tree

	lw.reportSize(fyne.NewSize(640, 480))
	assert.Equal(t, 640, a.State().WindowWidth)
	assert.Equal(t, 480, a.State().WindowHeight)
	assert.Same(t, before, lw.tree, "window events must not re-render")

	require.True(t, a.ExecuteAction("set_window_geometry", adapter.Args{"x": 0, "y": 0, "width": 800, "height": 600}).Success)
	assert.Equal(t, fyne.NewSize(800, 600), lw.size)
}
