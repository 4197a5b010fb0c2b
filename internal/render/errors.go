/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"errors"
	"fmt"

	"cellsorter/internal/ir"
)

var (
	// ErrGUIUnavailable is returned when the mode controller does not permit a GUI.
	ErrGUIUnavailable = errors.New("GUI rendering not permitted in the current mode")
	// ErrUnsupportedKind is returned by toolkits that cannot create a kind.
	ErrUnsupportedKind = errors.New("unsupported widget kind")
	// ErrNoRoot is returned when the model has nothing to render.
	ErrNoRoot = errors.New("model has no root widget")
)

// Error describes a failure for one widget.
type Error struct {
	Op     string // create|property|layout|render
	Widget string
	Kind   ir.Kind
	Err    error
}

func (e *Error) Error() string {
	if e.Widget == "" {
		return fmt.Sprintf("render %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("render %s %q (%s): %v", e.Op, e.Widget, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
