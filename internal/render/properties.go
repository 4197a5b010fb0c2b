/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"strconv"

	"cellsorter/internal/ir"
)

// Property keys understood by the engine. Other keys in the free-form map are left to the
// application.
const (
	PropText          = "text"
	PropTitle         = "title"
	PropPlaceholder   = "placeholder"
	PropChecked       = "checked"
	PropValue         = "value"
	PropMinimum       = "minimum"
	PropMaximum       = "maximum"
	PropStep          = "step"
	PropItems         = "items"
	PropOrientation   = "orientation"
	PropReadOnly      = "read_only"
	PropWordWrap      = "word_wrap"
	PropSelectionMode = "selection_mode"
)

// applyCommon applies geometry, size constraints, policy, flags, tooltip and style.
func applyCommon(obj Object, w *ir.Widget) {
	if w.Geometry != nil {
		if s, ok := obj.(GeometrySetter); ok {
			s.SetGeometry(*w.Geometry)
		}
	}
	if w.MinSize != nil {
		if s, ok := obj.(MinSizeSetter); ok {
			s.SetMinSize(*w.MinSize)
		}
	}
	if w.MaxSize != nil {
		if s, ok := obj.(MaxSizeSetter); ok {
			s.SetMaxSize(*w.MaxSize)
		}
	}
	if w.SizePolicy != nil {
		if s, ok := obj.(SizePolicySetter); ok {
			s.SetSizePolicy(*w.SizePolicy)
		}
	}
	if s, ok := obj.(VisibleSetter); ok {
		s.SetVisible(w.Visible)
	}
	if s, ok := obj.(EnabledSetter); ok {
		s.SetEnabled(w.Enabled)
	}
	if w.ToolTip != "" {
		if s, ok := obj.(ToolTipSetter); ok {
			s.SetToolTip(w.ToolTip)
		}
	}
	if w.StyleSheet != "" {
		if s, ok := obj.(StyleSheetSetter); ok {
			s.SetStyleSheet(w.StyleSheet)
		}
	}
}

// applyProperties applies the capability-backed keys of the property map. A value of the wrong
// type is an error; a key the object has no setter for is skipped.
func applyProperties(obj Object, props map[string]any) error {
	if s, ok := obj.(TextSetter); ok {
		key := PropText
		if _, has := props[key]; !has {
			key = PropTitle
		}
		if v, has := props[key]; has {
			str, err := asString(key, v)
			if err != nil {
				return err
			}
			s.SetText(str)
		}
	}
	if v, has := props[PropPlaceholder]; has {
		if s, ok := obj.(PlaceholderSetter); ok {
			str, err := asString(PropPlaceholder, v)
			if err != nil {
				return err
			}
			s.SetPlaceholder(str)
		}
	}
	if v, has := props[PropChecked]; has {
		if s, ok := obj.(CheckedSetter); ok {
			b, err := asBool(PropChecked, v)
			if err != nil {
				return err
			}
			s.SetChecked(b)
		}
	}
	// Range before value so the value is not clamped against a stale range.
	if s, ok := obj.(RangeSetter); ok {
		lo, hasLo := props[PropMinimum]
		hi, hasHi := props[PropMaximum]
		if hasLo || hasHi {
			curLo, curHi := 0.0, 100.0
			if g, ok := obj.(RangeGetter); ok {
				curLo, curHi = g.Range()
			}
			var err error
			if hasLo {
				if curLo, err = asFloat(PropMinimum, lo); err != nil {
					return err
				}
			}
			if hasHi {
				if curHi, err = asFloat(PropMaximum, hi); err != nil {
					return err
				}
			}
			if curLo > curHi {
				return fmt.Errorf("%s %v exceeds %s %v", PropMinimum, curLo, PropMaximum, curHi)
			}
			s.SetRange(curLo, curHi)
		}
	}
	if v, has := props[PropStep]; has {
		if s, ok := obj.(StepSetter); ok {
			f, err := asFloat(PropStep, v)
			if err != nil {
				return err
			}
			s.SetStep(f)
		}
	}
	if v, has := props[PropValue]; has {
		if s, ok := obj.(ValueSetter); ok {
			f, err := asFloat(PropValue, v)
			if err != nil {
				return err
			}
			s.SetValue(f)
		}
	}
	if v, has := props[PropItems]; has {
		if s, ok := obj.(ItemsSetter); ok {
			items, err := asStrings(PropItems, v)
			if err != nil {
				return err
			}
			s.SetItems(items)
		}
	}
	if v, has := props[PropOrientation]; has {
		if s, ok := obj.(OrientationSetter); ok {
			str, err := asString(PropOrientation, v)
			if err != nil {
				return err
			}
			if str != "horizontal" && str != "vertical" {
				return fmt.Errorf("%s must be horizontal or vertical, got %q", PropOrientation, str)
			}
			s.SetOrientation(str)
		}
	}
	if v, has := props[PropReadOnly]; has {
		if s, ok := obj.(ReadOnlySetter); ok {
			b, err := asBool(PropReadOnly, v)
			if err != nil {
				return err
			}
			s.SetReadOnly(b)
		}
	}
	if v, has := props[PropWordWrap]; has {
		if s, ok := obj.(WordWrapSetter); ok {
			b, err := asBool(PropWordWrap, v)
			if err != nil {
				return err
			}
			s.SetWordWrap(b)
		}
	}
	if v, has := props[PropSelectionMode]; has {
		if s, ok := obj.(SelectionModeSetter); ok {
			str, err := asString(PropSelectionMode, v)
			if err != nil {
				return err
			}
			s.SetSelectionMode(str)
		}
	}
	return nil
}

// extractProperties is the reverse of applyProperties. Zero values are omitted.
func extractProperties(obj Object) map[string]any {
	props := map[string]any{}
	if g, ok := obj.(TextGetter); ok && g.Text() != "" {
		props[PropText] = g.Text()
	}
	if g, ok := obj.(PlaceholderGetter); ok && g.Placeholder() != "" {
		props[PropPlaceholder] = g.Placeholder()
	}
	if g, ok := obj.(CheckedGetter); ok && g.Checked() {
		props[PropChecked] = true
	}
	if g, ok := obj.(RangeGetter); ok {
		lo, hi := g.Range()
		props[PropMinimum] = ir.NormalizeValue(intIfWhole(lo))
		props[PropMaximum] = ir.NormalizeValue(intIfWhole(hi))
	}
	if g, ok := obj.(StepGetter); ok && g.Step() != 0 {
		props[PropStep] = ir.NormalizeValue(intIfWhole(g.Step()))
	}
	if g, ok := obj.(ValueGetter); ok && g.Value() != 0 {
		props[PropValue] = ir.NormalizeValue(intIfWhole(g.Value()))
	}
	if g, ok := obj.(ItemsGetter); ok && len(g.Items()) > 0 {
		props[PropItems] = ir.NormalizeValue(g.Items())
	}
	if g, ok := obj.(OrientationGetter); ok && g.Orientation() != "" {
		props[PropOrientation] = g.Orientation()
	}
	if g, ok := obj.(ReadOnlyGetter); ok && g.ReadOnly() {
		props[PropReadOnly] = true
	}
	if g, ok := obj.(WordWrapGetter); ok && g.WordWrap() {
		props[PropWordWrap] = true
	}
	if g, ok := obj.(SelectionModeGetter); ok && g.SelectionMode() != "" {
		props[PropSelectionMode] = g.SelectionMode()
	}
	return props
}

func intIfWhole(f float64) any {
	if f == float64(int64(f)) {
		return int64(f)
	}
	return f
}

func asString(key string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("property %s: expected string, got %T", key, v)
}

func asBool(key string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("property %s: %w", key, err)
		}
		return b, nil
	}
	return false, fmt.Errorf("property %s: expected bool, got %T", key, v)
}

func asFloat(key string, v any) (float64, error) {
	switch t := ir.NormalizeValue(v).(type) {
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("property %s: %w", key, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("property %s: expected number, got %T", key, v)
}

func asStrings(key string, v any) ([]string, error) {
	list, ok := ir.NormalizeValue(v).([]any)
	if !ok {
		return nil, fmt.Errorf("property %s: expected list, got %T", key, v)
	}
	out := make([]string, 0, len(list))
	for i, e := range list {
		s, err := asString(fmt.Sprintf("%s[%d]", key, i), e)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
