/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package adapter

import (
	"fmt"
	"path/filepath"

	"cellsorter/internal/ir"
)

// Names of the widgets GetUIDefinition emits.
const (
	WidgetMainWindow    = "main_window"
	WidgetCentral       = "central_widget"
	WidgetImagePanel    = "image_panel"
	WidgetPlotPanel     = "plot_panel"
	WidgetTemplatePanel = "template_panel"
	WidgetStatusBar     = "status_bar"
)

type toolAction struct {
	name, text, handler string
}

var toolbarActions = []toolAction{
	{"zoom_in_action", "Zoom In", "on_zoom_in"},
	{"zoom_out_action", "Zoom Out", "on_zoom_out"},
	{"zoom_reset_action", "Reset Zoom", "on_zoom_reset"},
	{"select_tool_action", "Select", "on_select_tool"},
}

// GetUIDefinition builds the IR of the main window from the current state. Hidden panels
// are left out together with their layout items. State is not modified.
func (a *Adapter) GetUIDefinition() *ir.Model {
	st := a.state.ToMap()
	str := func(k string) string { return st[k].(string) }
	num := func(k string) int { return st[k].(int) }
	flag := func(k string) bool { return st[k].(bool) }

	m := ir.NewModel()
	m.Metadata["title"] = "CellSorter"
	m.Metadata["theme"] = str(PropTheme)
	m.Metadata["generated_by"] = "adapter"

	win := ir.NewWidget(WidgetMainWindow, ir.KindMainWindow).SetProperty("title", "CellSorter")
	win.Geometry = &ir.Geometry{X: num(PropWindowX), Y: num(PropWindowY), Width: num(PropWindowWidth), Height: num(PropWindowHeight)}
	win.SetProperty("maximized", flag(PropWindowMaximized))
	m.Root = win

	bar := win.AddChild(ir.NewWidget("main_toolbar", ir.KindToolBar))
	for _, ta := range toolbarActions {
		bar.AddChild(ir.NewWidget(ta.name, ir.KindAction).SetProperty("text", ta.text)).Bind("triggered", ta.handler)
	}

	central := win.AddChild(ir.NewWidget(WidgetCentral, ir.KindWidget))
	lay := central.SetLayout(ir.LayoutHBox)

	if flag(PropImagePanelVisible) {
		p := central.AddChild(ir.NewWidget(WidgetImagePanel, ir.KindGroupBox).SetProperty("title", "Image"))
		p.SetLayout(ir.LayoutVBox).AddItem(ir.LayoutItem{Widget: "image_view"})
		p.AddChild(ir.NewWidget("image_view", ir.KindImageView).
			SetProperty("source", str(PropImagePath)).
			SetProperty("zoom_level", st[PropZoomLevel]))
		lay.AddItem(ir.LayoutItem{Widget: WidgetImagePanel, Stretch: 3})
	}
	if flag(PropPlotPanelVisible) {
		p := central.AddChild(ir.NewWidget(WidgetPlotPanel, ir.KindGroupBox).SetProperty("title", "Scatter Plot"))
		p.SetLayout(ir.LayoutVBox).AddItem(ir.LayoutItem{Widget: "plot_view"})
		p.AddChild(ir.NewWidget("plot_view", ir.KindWidget).
			SetProperty("source", str(PropCSVPath)).
			SetProperty("selected_points", st[PropSelectedPoints]).
			SetProperty("active_tool", str(PropActiveTool))).
			Bind("selection_changed", "on_selection_changed")
		lay.AddItem(ir.LayoutItem{Widget: WidgetPlotPanel, Stretch: 2})
	}
	if flag(PropTemplatePanelVisible) {
		p := central.AddChild(ir.NewWidget(WidgetTemplatePanel, ir.KindGroupBox).SetProperty("title", "Template"))
		p.SetLayout(ir.LayoutVBox).AddItem(ir.LayoutItem{Widget: "template_list"})
		var items []string
		if t := str(PropTemplatePath); t != "" {
			items = append(items, filepath.Base(t))
		}
		p.AddChild(ir.NewWidget("template_list", ir.KindListWidget).SetProperty("items", items))
		lay.AddItem(ir.LayoutItem{Widget: WidgetTemplatePanel, Stretch: 1})
	}

	status := win.AddChild(ir.NewWidget(WidgetStatusBar, ir.KindStatusBar))
	status.AddChild(ir.NewWidget("status_label", ir.KindLabel).SetProperty("text", statusText(st)))
	return m
}

func statusText(st map[string]any) string {
	if msg := st[PropStatusMessage].(string); msg != "" {
		return msg
	}
	return fmt.Sprintf("Zoom %.0f%%", st[PropZoomLevel].(float64)*100)
}
