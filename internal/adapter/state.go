/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package adapter

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"
)

// Property names of MainWindowState.
const (
	PropCSVPath              = "csv_path"
	PropImagePath            = "image_path"
	PropTemplatePath         = "template_path"
	PropWindowX              = "window_x"
	PropWindowY              = "window_y"
	PropWindowWidth          = "window_width"
	PropWindowHeight         = "window_height"
	PropWindowMaximized      = "window_maximized"
	PropZoomLevel            = "zoom_level"
	PropImagePanelVisible    = "image_panel_visible"
	PropPlotPanelVisible     = "plot_panel_visible"
	PropTemplatePanelVisible = "template_panel_visible"
	PropActiveTool           = "active_tool"
	PropTheme                = "theme"
	PropSelectedPoints       = "selected_points"
	PropStatusMessage        = "status_message"
)

// MainWindowState is the flat property bag behind the main window.
type MainWindowState struct {
	CSVPath              string  `json:"csv_path"`
	ImagePath            string  `json:"image_path"`
	TemplatePath         string  `json:"template_path"`
	WindowX              int     `json:"window_x"`
	WindowY              int     `json:"window_y"`
	WindowWidth          int     `json:"window_width"`
	WindowHeight         int     `json:"window_height"`
	WindowMaximized      bool    `json:"window_maximized"`
	ZoomLevel            float64 `json:"zoom_level"`
	ImagePanelVisible    bool    `json:"image_panel_visible"`
	PlotPanelVisible     bool    `json:"plot_panel_visible"`
	TemplatePanelVisible bool    `json:"template_panel_visible"`
	ActiveTool           string  `json:"active_tool"`
	Theme                string  `json:"theme"`
	SelectedPoints       []int   `json:"selected_points"`
	StatusMessage        string  `json:"status_message"`

	mu        sync.Mutex
	listeners map[int]func(Change)
	nextID    int
}

// Change is delivered to listeners after a property changed.
type Change struct {
	Property string
	Old      any
	New      any
}

// NewState returns the state of a freshly opened window.
func NewState() *MainWindowState {
	return &MainWindowState{
		WindowX:              100,
		WindowY:              100,
		WindowWidth:          1200,
		WindowHeight:         800,
		ZoomLevel:            1.0,
		ImagePanelVisible:    true,
		PlotPanelVisible:     true,
		TemplatePanelVisible: true,
		ActiveTool:           "select",
		Theme:                "light",
		SelectedPoints:       []int{},
	}
}

type property struct {
	get func(*MainWindowState) any
	set func(*MainWindowState, any) error
}

func stringProp(f func(*MainWindowState) *string) property {
	return property{
		get: func(s *MainWindowState) any { return *f(s) },
		set: func(s *MainWindowState, v any) error {
			str, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", v)
			}
			*f(s) = str
			return nil
		},
	}
}

func intProp(f func(*MainWindowState) *int) property {
	return property{
		get: func(s *MainWindowState) any { return *f(s) },
		set: func(s *MainWindowState, v any) error {
			n, err := toInt(v)
			if err != nil {
				return err
			}
			*f(s) = n
			return nil
		},
	}
}

func boolProp(f func(*MainWindowState) *bool) property {
	return property{
		get: func(s *MainWindowState) any { return *f(s) },
		set: func(s *MainWindowState, v any) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("expected bool, got %T", v)
			}
			*f(s) = b
			return nil
		},
	}
}

var properties = map[string]property{
	PropCSVPath:              stringProp(func(s *MainWindowState) *string { return &s.CSVPath }),
	PropImagePath:            stringProp(func(s *MainWindowState) *string { return &s.ImagePath }),
	PropTemplatePath:         stringProp(func(s *MainWindowState) *string { return &s.TemplatePath }),
	PropWindowX:              intProp(func(s *MainWindowState) *int { return &s.WindowX }),
	PropWindowY:              intProp(func(s *MainWindowState) *int { return &s.WindowY }),
	PropWindowWidth:          intProp(func(s *MainWindowState) *int { return &s.WindowWidth }),
	PropWindowHeight:         intProp(func(s *MainWindowState) *int { return &s.WindowHeight }),
	PropWindowMaximized:      boolProp(func(s *MainWindowState) *bool { return &s.WindowMaximized }),
	PropImagePanelVisible:    boolProp(func(s *MainWindowState) *bool { return &s.ImagePanelVisible }),
	PropPlotPanelVisible:     boolProp(func(s *MainWindowState) *bool { return &s.PlotPanelVisible }),
	PropTemplatePanelVisible: boolProp(func(s *MainWindowState) *bool { return &s.TemplatePanelVisible }),
	PropActiveTool:           stringProp(func(s *MainWindowState) *string { return &s.ActiveTool }),
	PropTheme:                stringProp(func(s *MainWindowState) *string { return &s.Theme }),
	PropStatusMessage:        stringProp(func(s *MainWindowState) *string { return &s.StatusMessage }),
	PropZoomLevel: {
		get: func(s *MainWindowState) any { return s.ZoomLevel },
		set: func(s *MainWindowState, v any) error {
			f, err := toFloat(v)
			if err != nil {
				return err
			}
			s.ZoomLevel = f
			return nil
		},
	},
	PropSelectedPoints: {
		get: func(s *MainWindowState) any { return append([]int{}, s.SelectedPoints...) },
		set: func(s *MainWindowState, v any) error {
			pts, err := toInts(v)
			if err != nil {
				return err
			}
			s.SelectedPoints = pts
			return nil
		},
	},
}

// PropertyNames lists every settable property, sorted.
func PropertyNames() []string {
	out := make([]string, 0, len(properties))
	for k := range properties {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the current value of a property.
func (s *MainWindowState) Get(name string) (any, bool) {
	p, ok := properties[name]
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.get(s), true
}

// SetProperty converts and stores value, then notifies listeners if the value changed.
func (s *MainWindowState) SetProperty(name string, value any) error {
	p, ok := properties[name]
	if !ok {
		return fmt.Errorf("unknown property %q", name)
	}
	s.mu.Lock()
	old := p.get(s)
	if err := p.set(s, value); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("property %s: %w", name, err)
	}
	cur := p.get(s)
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()
	if reflect.DeepEqual(old, cur) {
		return nil
	}
	for _, fn := range ls {
		fn(Change{Property: name, Old: old, New: cur})
	}
	return nil
}

// Subscribe registers fn for change notifications and returns a function removing it.
func (s *MainWindowState) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = map[int]func(Change){}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *MainWindowState) snapshotListenersLocked() []func(Change) {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

// ToMap returns every property keyed by name.
func (s *MainWindowState) ToMap() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(properties))
	for name, p := range properties {
		out[name] = p.get(s)
	}
	return out
}

// ApplyMap sets every known key of m, in sorted order. Unknown keys are ignored so older
// session files keep loading.
func (s *MainWindowState) ApplyMap(m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		if _, ok := properties[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.SetProperty(k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the state fields only.
func (s *MainWindowState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToMap())
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float32:
		return toInt(float64(n))
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func toInts(v any) ([]int, error) {
	switch xs := v.(type) {
	case nil:
		return []int{}, nil
	case []int:
		return append([]int{}, xs...), nil
	case []any:
		out := make([]int, 0, len(xs))
		for i, x := range xs {
			n, err := toInt(x)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list of integers, got %T", v)
}
