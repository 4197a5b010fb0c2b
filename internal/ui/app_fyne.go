//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"cellsorter/internal/adapter"
	"cellsorter/internal/crash"
	"cellsorter/internal/display"
	applog "cellsorter/internal/log"
	"cellsorter/internal/mode"
	"cellsorter/internal/render"
	"cellsorter/internal/render/fynekit"
	"cellsorter/internal/serialize"
	"cellsorter/internal/session"
)

// Run opens the main window and blocks until it is closed.
func Run(opts Options) error {
	cfg := opts.Config
	applog.Init(cfg.LogOptions())
	l := applog.WithComponent("ui")

	ctrl := mode.NewController(display.NewDetector(), mode.WithConfigured(cfg.Display.Mode))
	m, err := ctrl.Resolve()
	if err != nil {
		return err
	}
	if !ctrl.RequiresGUI() {
		return fmt.Errorf("display mode %s does not allow a window; set CELLSORTER_MODE=gui or dual", m)
	}
	ctx := applog.ContextWithMode(context.Background(), m.String())
	l.InfoContext(ctx, "starting UI")

	sm, closeCatalog, err := session.Open(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer closeCatalog()
	defer crash.Recover(sm)

	fyneApp := app.NewWithID("io.cellsorter")
	w := fyneApp.NewWindow("CellSorter")

	a := adapter.New()
	if opts.SessionPath != "" {
		if err := sm.Load(opts.SessionPath); err != nil {
			l.Warn("session not restored", slog.String("error", err.Error()))
			sm.CreateSession("")
		} else {
			if _, err := sm.RestoreWindowState(a.State()); err != nil {
				l.Warn("window state not restored", slog.String("error", err.Error()))
			}
			_ = sm.AddRecentSession(opts.SessionPath)
		}
	} else {
		sm.CreateSession("")
	}

	ctx = applog.ContextWithSession(ctx, sm.SessionID())
	l.InfoContext(ctx, "session ready", slog.String("path", sm.CurrentPath()))

	lw := newLiveWindow(w, a, render.NewEngine(fynekit.New(), render.WithGate(ctrl)))
	a.AttachLiveWindow(lw, m)
	if opts.ModelPath != "" {
		model, err := serialize.LoadFile(opts.ModelPath)
		if err != nil {
			return err
		}
		if err := lw.showModel(model); err != nil {
			return err
		}
	} else if err := lw.refresh(); err != nil {
		return err
	}

	w.SetMainMenu(mainMenu(w, lw, sm))
	st := a.State()
	w.Resize(fyne.NewSize(float32(st.WindowWidth), float32(st.WindowHeight)))

	if sm.CurrentPath() != "" {
		if wt, err := sm.Watch(300 * time.Millisecond); err == nil {
			defer wt.Close()
			go func() {
				for range wt.Changes() {
					fyne.Do(func() { reloadExternal(lw, sm) })
				}
			}()
		}
	}

	w.SetCloseIntercept(func() {
		if err := persist(a, sm); err != nil {
			l.Error("session save on close failed", slog.String("error", err.Error()))
		}
		w.Close()
	})
	w.ShowAndRun()
	return nil
}

func persist(a *adapter.Adapter, sm *session.Manager) error {
	if err := sm.SaveUIModel(context.Background(), "main_window", a.GetUIDefinition()); err != nil {
		return err
	}
	if err := sm.SaveWindowState(a.State()); err != nil {
		return err
	}
	_, err := sm.Save("")
	return err
}

func reloadExternal(lw *liveWindow, sm *session.Manager) {
	changed, err := sm.ReloadExternal()
	if err != nil {
		_ = lw.adapter.State().SetProperty(adapter.PropStatusMessage, err.Error())
		return
	}
	if !changed {
		return
	}
	if _, err := sm.RestoreWindowState(lw.adapter.State()); err == nil && lw.model == nil {
		_ = lw.refresh()
	}
}

func mainMenu(w fyne.Window, lw *liveWindow, sm *session.Manager) *fyne.MainMenu {
	a := lw.adapter
	openItem := fyne.NewMenuItem("Open Session…", func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			if err := sm.Load(path); err != nil {
				dialog.ShowError(err, w)
				return
			}
			_ = sm.AddRecentSession(path)
			if _, err := sm.RestoreWindowState(a.State()); err != nil {
				dialog.ShowError(err, w)
			}
			if lw.model == nil {
				_ = lw.refresh()
			}
		}, w)
	})
	saveItem := fyne.NewMenuItem("Save Session", func() {
		if err := persist(a, sm); err != nil {
			dialog.ShowError(err, w)
			return
		}
		_ = a.State().SetProperty(adapter.PropStatusMessage, "Saved "+sm.CurrentPath())
		if lw.model == nil {
			_ = lw.refresh()
		}
	})
	fileMenu := fyne.NewMenu("File", openItem, saveItem)

	undoItem := fyne.NewMenuItem("Undo", func() { lw.run("undo", nil) })
	redoItem := fyne.NewMenuItem("Redo", func() { lw.run("redo", nil) })
	editMenu := fyne.NewMenu("Edit", undoItem, redoItem)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { lw.run("zoom_in", nil) }),
		fyne.NewMenuItem("Zoom Out", func() { lw.run("zoom_out", nil) }),
		fyne.NewMenuItem("Reset Zoom", func() { lw.run("zoom_reset", nil) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Image Panel", func() { lw.run("toggle_panel", adapter.Args{"panel": "image"}) }),
		fyne.NewMenuItem("Plot Panel", func() { lw.run("toggle_panel", adapter.Args{"panel": "plot"}) }),
		fyne.NewMenuItem("Template Panel", func() { lw.run("toggle_panel", adapter.Args{"panel": "template"}) }),
	)
	return fyne.NewMainMenu(fileMenu, editMenu, viewMenu)
}
