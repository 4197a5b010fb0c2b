/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// FormatVersion is written into every session file.
const FormatVersion = "1.0"

// Data is the persisted session document.
type Data struct {
	SessionID       string                     `json:"session_id"`
	CreatedAt       time.Time                  `json:"created_at"`
	LastModified    time.Time                  `json:"last_modified"`
	Version         string                     `json:"version"`
	MainWindowState map[string]any             `json:"main_window_state,omitempty"`
	UIModels        map[string]json.RawMessage `json:"ui_models"`
	RecentFiles     []string                   `json:"recent_files"`
	RecentSessions  []string                   `json:"recent_sessions"`
	UserPreferences map[string]any             `json:"user_preferences"`
	ProjectSettings map[string]any             `json:"project_settings"`
	AnalysisResults map[string]any             `json:"analysis_results"`
}

func newData(id string, now time.Time) *Data {
	d := &Data{SessionID: id, CreatedAt: now, LastModified: now, Version: FormatVersion}
	d.normalize()
	return d
}

// normalize replaces nil collections so the file always carries every field.
func (d *Data) normalize() {
	if d.UIModels == nil {
		d.UIModels = map[string]json.RawMessage{}
	}
	if d.RecentFiles == nil {
		d.RecentFiles = []string{}
	}
	if d.RecentSessions == nil {
		d.RecentSessions = []string{}
	}
	if d.UserPreferences == nil {
		d.UserPreferences = map[string]any{}
	}
	if d.ProjectSettings == nil {
		d.ProjectSettings = map[string]any{}
	}
	if d.AnalysisResults == nil {
		d.AnalysisResults = map[string]any{}
	}
	if d.Version == "" {
		d.Version = FormatVersion
	}
}

// ErrInvalidID is returned for session ids that cannot be used as a file name component.
var ErrInvalidID = errors.New("invalid session id")

// ValidateID checks that id stays inside the session directory when used in PathFor.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	case strings.ContainsAny(id, "/\\\x00") || strings.ContainsRune(id, os.PathSeparator):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidID, id)
	}
	return nil
}

// Clone returns a deep copy.
func (d *Data) Clone() (*Data, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("clone session: %w", err)
	}
	var out Data
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("clone session: %w", err)
	}
	out.normalize()
	return &out, nil
}

func encodeData(d *Data) ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func decodeData(b []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	if d.SessionID == "" {
		return nil, errors.New("session_id is missing")
	}
	if err := ValidateID(d.SessionID); err != nil {
		return nil, err
	}
	d.normalize()
	return &d, nil
}
