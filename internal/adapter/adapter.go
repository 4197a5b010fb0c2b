/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package adapter owns the main-window state and exposes it through a named-action contract.
// It derives UI definitions from that state on demand and, when a live window is attached,
// keeps the window in step without echoing window events back to it.
package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"

	applog "cellsorter/internal/log"
	"cellsorter/internal/mode"
	"cellsorter/internal/undo"
)

// Zoom limits and step applied by the zoom actions.
const (
	ZoomStep = 1.2
	ZoomMin  = 0.1
	ZoomMax  = 10.0
)

// HistoryScope is the undo scope used for state snapshots.
const HistoryScope = "main_window_state"

// External handler names the load actions forward to.
const (
	HandlerCSVLoad      = "csv.load"
	HandlerImageLoad    = "image.load"
	HandlerTemplateLoad = "template.load"
)

// Args are the keyword arguments of an action.
type Args map[string]any

// Handler implements one action.
type Handler func(args Args) (any, error)

// ActionResult is what ExecuteAction reports back; it never carries a Go error.
type ActionResult struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LiveWindow receives state changes while a real window is shown.
type LiveWindow interface {
	ApplyProperty(name string, value any) error
}

// Adapter is not safe for concurrent use; call it from the thread that owns the window loop.
type Adapter struct {
	state    *MainWindowState
	actions  map[string]Handler
	external map[string]Handler
	history  *undo.Manager
	live     LiveWindow
	mode     mode.Mode
	log      *slog.Logger
}

type Option func(*Adapter)

// WithState uses s instead of a fresh NewState.
func WithState(s *MainWindowState) Option { return func(a *Adapter) { a.state = s } }

// WithHistory replaces the default undo manager.
func WithHistory(h *undo.Manager) Option { return func(a *Adapter) { a.history = h } }

// WithLiveWindow attaches a window. State changes are forwarded to it in GUI and DUAL mode.
func WithLiveWindow(w LiveWindow, m mode.Mode) Option {
	return func(a *Adapter) { a.live, a.mode = w, m }
}

func New(opts ...Option) *Adapter {
	a := &Adapter{
		actions:  map[string]Handler{},
		external: map[string]Handler{},
		log:      applog.WithComponent("adapter"),
	}
	for _, o := range opts {
		o(a)
	}
	if a.state == nil {
		a.state = NewState()
	}
	if a.history == nil {
		a.history = undo.NewManager(undo.DefaultConfig())
	}
	a.registerBuiltins()
	return a
}

// State returns the owned state.
func (a *Adapter) State() *MainWindowState { return a.state }

// AttachLiveWindow connects or, with nil, disconnects a live window.
func (a *Adapter) AttachLiveWindow(w LiveWindow, m mode.Mode) { a.live, a.mode = w, m }

func (a *Adapter) syncing() bool {
	return a.live != nil && (a.mode == mode.Dual || a.mode == mode.GUI)
}

// RegisterAction adds an external handler. Names of built-in actions cannot be replaced.
func (a *Adapter) RegisterAction(name string, h Handler) error {
	if name == "" || h == nil {
		return errors.New("action name and handler are required")
	}
	if _, ok := a.actions[name]; ok {
		return fmt.Errorf("action %q is built in", name)
	}
	a.external[name] = h
	return nil
}

// Actions lists every dispatchable name, sorted.
func (a *Adapter) Actions() []string {
	out := make([]string, 0, len(a.actions)+len(a.external))
	for k := range a.actions {
		out = append(out, k)
	}
	for k := range a.external {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (a *Adapter) lookup(name string) (Handler, bool) {
	if h, ok := a.actions[name]; ok {
		return h, true
	}
	h, ok := a.external[name]
	return h, ok
}

// ExecuteAction dispatches name. Handler errors and panics become a failed result and the
// error text is mirrored into status_message.
func (a *Adapter) ExecuteAction(name string, args Args) (res ActionResult) {
	l := applog.WithOperation(a.log, "execute_action").With(slog.String("action", name))
	h, ok := a.lookup(name)
	if !ok {
		res = ActionResult{Error: "Unknown action: " + name}
		l.Warn("unknown action")
		a.setStatus(res.Error)
		return res
	}
	defer func() {
		if r := recover(); r != nil {
			res = ActionResult{Error: fmt.Sprintf("action %s panicked: %v", name, r)}
			l.Error("action panicked", slog.Any("panic", r))
			a.setStatus(res.Error)
		}
	}()
	if args == nil {
		args = Args{}
	}
	out, err := h(args)
	if err != nil {
		l.Warn("action failed", slog.String("error", err.Error()))
		a.setStatus(err.Error())
		return ActionResult{Error: err.Error()}
	}
	l.Debug("action done")
	return ActionResult{Success: true, Result: out}
}

// HandleWindowEvent records a change that originated in the live window. It is never
// forwarded back to the window.
func (a *Adapter) HandleWindowEvent(property string, value any) error {
	if err := a.state.SetProperty(property, value); err != nil {
		a.log.Warn("window event rejected", slog.String("property", property), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// set changes state and forwards the new value to the live window.
func (a *Adapter) set(name string, value any) error {
	if err := a.state.SetProperty(name, value); err != nil {
		return err
	}
	if a.syncing() {
		v, _ := a.state.Get(name)
		if err := a.live.ApplyProperty(name, v); err != nil {
			a.log.Warn("live window update failed", slog.String("property", name), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (a *Adapter) setStatus(msg string) {
	_ = a.set(PropStatusMessage, msg)
}

// historyBlob is the undoable part of the state; status_message is excluded.
func (a *Adapter) historyBlob() []byte {
	m := a.state.ToMap()
	delete(m, PropStatusMessage)
	b, _ := json.Marshal(m)
	return b
}

// mutating wraps h so the state before a successful change lands in the undo history.
func (a *Adapter) mutating(h Handler) Handler {
	return func(args Args) (any, error) {
		before := a.historyBlob()
		out, err := h(args)
		if err != nil {
			return nil, err
		}
		if string(before) != string(a.historyBlob()) {
			a.history.Record(undo.Snapshot{Scope: HistoryScope, Blob: before})
		}
		return out, nil
	}
}

func (a *Adapter) restore(blob []byte) error {
	var m map[string]any
	if err := json.Unmarshal(blob, &m); err != nil {
		return fmt.Errorf("decode history: %w", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := a.set(k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) registerBuiltins() {
	b := map[string]Handler{
		"zoom_in":             a.mutating(a.zoomBy(ZoomStep)),
		"zoom_out":            a.mutating(a.zoomBy(1 / ZoomStep)),
		"zoom_reset":          a.mutating(func(Args) (any, error) { return a.setZoom(1.0) }),
		"set_zoom":            a.mutating(a.actSetZoom),
		"toggle_panel":        a.mutating(a.actTogglePanel),
		"set_active_tool":     a.mutating(a.actSetActiveTool),
		"set_theme":           a.mutating(a.actSetTheme),
		"set_selection":       a.mutating(a.actSetSelection),
		"clear_selection":     a.mutating(a.actClearSelection),
		"set_window_geometry": a.mutating(a.actSetWindowGeometry),
		"load_csv":            a.mutating(a.loader(PropCSVPath, HandlerCSVLoad)),
		"load_image":          a.mutating(a.loader(PropImagePath, HandlerImageLoad)),
		"load_template":       a.mutating(a.loader(PropTemplatePath, HandlerTemplateLoad)),
		"get_state":           func(Args) (any, error) { return a.state.ToMap(), nil },
		"undo":                a.actUndo,
		"redo":                a.actRedo,
	}
	for k, h := range b {
		a.actions[k] = h
	}
}

func clampZoom(z float64) float64 { return math.Max(ZoomMin, math.Min(ZoomMax, z)) }

func (a *Adapter) setZoom(z float64) (any, error) {
	z = clampZoom(z)
	if err := a.set(PropZoomLevel, z); err != nil {
		return nil, err
	}
	return map[string]any{"zoom_level": z}, nil
}

func (a *Adapter) zoomBy(factor float64) Handler {
	return func(Args) (any, error) {
		z, _ := a.state.Get(PropZoomLevel)
		return a.setZoom(z.(float64) * factor)
	}
}

func (a *Adapter) actSetZoom(args Args) (any, error) {
	v, ok := args["level"]
	if !ok {
		return nil, errors.New("set_zoom: missing argument \"level\"")
	}
	z, err := toFloat(v)
	if err != nil {
		return nil, fmt.Errorf("set_zoom: %w", err)
	}
	if z <= 0 || math.IsNaN(z) {
		return nil, fmt.Errorf("set_zoom: level must be positive, got %v", z)
	}
	return a.setZoom(z)
}

var panelProps = map[string]string{
	"image":    PropImagePanelVisible,
	"plot":     PropPlotPanelVisible,
	"template": PropTemplatePanelVisible,
}

func (a *Adapter) actTogglePanel(args Args) (any, error) {
	panel, _ := args["panel"].(string)
	prop, ok := panelProps[panel]
	if !ok {
		return nil, fmt.Errorf("toggle_panel: unknown panel %q (want image, plot or template)", panel)
	}
	cur, _ := a.state.Get(prop)
	visible := !cur.(bool)
	if err := a.set(prop, visible); err != nil {
		return nil, err
	}
	return map[string]any{"panel": panel, "visible": visible}, nil
}

func stringArg(args Args, action, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s: missing argument %q", action, key)
	}
	return v, nil
}

func (a *Adapter) actSetActiveTool(args Args) (any, error) {
	tool, err := stringArg(args, "set_active_tool", "tool")
	if err != nil {
		return nil, err
	}
	return map[string]any{"active_tool": tool}, a.set(PropActiveTool, tool)
}

// Themes accepted by set_theme.
var Themes = []string{"light", "dark", "system"}

func (a *Adapter) actSetTheme(args Args) (any, error) {
	theme, err := stringArg(args, "set_theme", "theme")
	if err != nil {
		return nil, err
	}
	for _, t := range Themes {
		if t == theme {
			return map[string]any{"theme": theme}, a.set(PropTheme, theme)
		}
	}
	return nil, fmt.Errorf("set_theme: unknown theme %q", theme)
}

func (a *Adapter) actSetSelection(args Args) (any, error) {
	pts, err := toInts(args["points"])
	if err != nil {
		return nil, fmt.Errorf("set_selection: %w", err)
	}
	if err := a.set(PropSelectedPoints, pts); err != nil {
		return nil, err
	}
	return map[string]any{"count": len(pts)}, nil
}

func (a *Adapter) actClearSelection(Args) (any, error) {
	return map[string]any{"count": 0}, a.set(PropSelectedPoints, []int{})
}

func (a *Adapter) actSetWindowGeometry(args Args) (any, error) {
	vals := map[string]int{}
	for _, k := range []string{"x", "y", "width", "height"} {
		v, ok := args[k]
		if !ok {
			return nil, fmt.Errorf("set_window_geometry: missing argument %q", k)
		}
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("set_window_geometry: %s: %w", k, err)
		}
		vals[k] = n
	}
	if vals["width"] <= 0 || vals["height"] <= 0 {
		return nil, fmt.Errorf("set_window_geometry: size must be positive, got %dx%d", vals["width"], vals["height"])
	}
	for k, p := range map[string]string{"x": PropWindowX, "y": PropWindowY, "width": PropWindowWidth, "height": PropWindowHeight} {
		if err := a.set(p, vals[k]); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

// loader sets prop to args["path"] after the external handler, if registered, accepted it.
func (a *Adapter) loader(prop, external string) Handler {
	return func(args Args) (any, error) {
		path, err := stringArg(args, "load", "path")
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		out := map[string]any{"path": path}
		if h, ok := a.external[external]; ok {
			r, err := h(args)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", external, err)
			}
			out["result"] = r
		}
		if err := a.set(prop, path); err != nil {
			return nil, err
		}
		a.setStatus("Loaded " + path)
		return out, nil
	}
}

func (a *Adapter) actUndo(Args) (any, error) {
	s, ok := a.history.Undo(HistoryScope, a.historyBlob())
	if !ok {
		return nil, errors.New("nothing to undo")
	}
	return map[string]any{"restored": true}, a.restore(s.Blob)
}

func (a *Adapter) actRedo(Args) (any, error) {
	s, ok := a.history.Redo(HistoryScope, a.historyBlob())
	if !ok {
		return nil, errors.New("nothing to redo")
	}
	return map[string]any{"restored": true}, a.restore(s.Blob)
}
