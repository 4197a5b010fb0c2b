/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui hosts the desktop shell. The real window is only compiled with -tags fyne and cgo;
// other builds get a Run that explains how to obtain one.
package ui

import (
	"errors"

	"cellsorter/internal/config"
)

// Options selects what the shell opens.
type Options struct {
	// ModelPath is an optional UI definition file shown instead of the main window.
	ModelPath string
	// SessionPath is an optional session file restored on start.
	SessionPath string
	Config      config.AppConfig
}

// ErrNotBuilt is returned by Run when the binary carries no GUI toolkit.
var ErrNotBuilt = errors.New("UI not built in this binary")
