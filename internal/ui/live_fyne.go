//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"cellsorter/internal/adapter"
	"cellsorter/internal/ir"
	applog "cellsorter/internal/log"
	"cellsorter/internal/render"
	"cellsorter/internal/render/fynekit"
)

type buttonAction struct {
	action string
	args   adapter.Args
}

// toolbar objects of the adapter definition and the actions they trigger
var buttonActions = map[string]buttonAction{
	"zoom_in_action":     {action: "zoom_in"},
	"zoom_out_action":    {action: "zoom_out"},
	"zoom_reset_action":  {action: "zoom_reset"},
	"select_tool_action": {action: "set_active_tool", args: adapter.Args{"tool": "select"}},
}

// liveWindow mirrors adapter state into a fyne window. It implements adapter.LiveWindow;
// size changes made by the user travel back through Adapter.HandleWindowEvent only.
type liveWindow struct {
	win     fyne.Window
	adapter *adapter.Adapter
	engine  *render.Engine
	tree    *render.Tree
	model   *ir.Model // fixed model shown instead of the adapter definition
	size    fyne.Size
	log     *slog.Logger
}

func newLiveWindow(win fyne.Window, a *adapter.Adapter, e *render.Engine) *liveWindow {
	return &liveWindow{win: win, adapter: a, engine: e, log: applog.WithComponent("ui")}
}

// ApplyProperty implements adapter.LiveWindow.
func (lw *liveWindow) ApplyProperty(name string, _ any) error {
	switch name {
	case adapter.PropWindowWidth, adapter.PropWindowHeight:
		st := lw.adapter.State()
		w, _ := st.Get(adapter.PropWindowWidth)
		h, _ := st.Get(adapter.PropWindowHeight)
		lw.size = fyne.NewSize(float32(w.(int)), float32(h.(int)))
		lw.win.Resize(lw.size)
		return nil
	case adapter.PropWindowX, adapter.PropWindowY, adapter.PropWindowMaximized:
		// fyne does not expose window placement
		return nil
	}
	if lw.model != nil {
		return nil
	}
	return lw.refresh()
}

// showModel renders a fixed UI definition instead of the adapter's.
func (lw *liveWindow) showModel(m *ir.Model) error {
	lw.model = m
	return lw.show(m)
}

// refresh re-renders the adapter definition.
func (lw *liveWindow) refresh() error {
	return lw.show(lw.adapter.GetUIDefinition())
}

func (lw *liveWindow) show(m *ir.Model) error {
	tree, err := lw.engine.Render(m)
	if err != nil {
		lw.log.Error("render failed", slog.String("error", err.Error()))
		return err
	}
	if tree.Inert {
		return nil
	}
	co, ok := fynekit.CanvasObject(tree.Root)
	if !ok {
		return fmt.Errorf("root %q is not a fyne object", tree.Root.Name())
	}
	lw.tree = tree
	lw.wireButtons(tree)
	lw.win.SetContent(container.New(&sizeReporter{inner: layout.NewStackLayout(), report: lw.reportSize}, co))
	return nil
}

func (lw *liveWindow) wireButtons(tree *render.Tree) {
	for name, ba := range buttonActions {
		obj, ok := tree.Lookup(name)
		if !ok {
			continue
		}
		co, _ := fynekit.CanvasObject(obj)
		if b, ok := co.(*widget.Button); ok {
			ba := ba
			b.OnTapped = func() { lw.run(ba.action, ba.args) }
		}
	}
}

// run executes an action; failures already land in status_message.
func (lw *liveWindow) run(action string, args adapter.Args) {
	if res := lw.adapter.ExecuteAction(action, args); !res.Success {
		lw.log.Warn("action failed", slog.String("action", action), slog.String("error", res.Error))
	}
}

// reportSize forwards a user resize to the adapter. Sizes we set ourselves are ignored.
func (lw *liveWindow) reportSize(s fyne.Size) {
	if s == lw.size || s.Width <= 0 || s.Height <= 0 {
		return
	}
	lw.size = s
	_ = lw.adapter.HandleWindowEvent(adapter.PropWindowWidth, int(s.Width))
	_ = lw.adapter.HandleWindowEvent(adapter.PropWindowHeight, int(s.Height))
}

// sizeReporter wraps a layout and reports the size it is given.
type sizeReporter struct {
	inner  fyne.Layout
	report func(fyne.Size)
}

func (r *sizeReporter) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	r.inner.Layout(objects, size)
	r.report(size)
}

func (r *sizeReporter) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return r.inner.MinSize(objects)
}
