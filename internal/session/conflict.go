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
	"fmt"
	"strings"

	"cellsorter/internal/config"
)

// Policy decides how a session changed on disk by another process is combined with the
// in-memory one.
type Policy string

const (
	// LastModifiedWins keeps whichever copy has the later last_modified; ties keep local.
	LastModifiedWins Policy = config.PolicyLastModifiedWins
	// Merge unions both copies field by field. Local entries win on key collisions and
	// recent lists keep local order first.
	Merge Policy = config.PolicyMerge
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case LastModifiedWins, Merge:
		return p, nil
	case "":
		return LastModifiedWins, nil
	}
	return "", fmt.Errorf("unknown conflict policy %q", s)
}

// Resolve combines local and remote. Neither input is modified.
func Resolve(local, remote *Data, p Policy, maxRecent int) (*Data, error) {
	switch {
	case local == nil:
		return remote.Clone()
	case remote == nil:
		return local.Clone()
	}
	if p != Merge {
		if remote.LastModified.After(local.LastModified) {
			return remote.Clone()
		}
		return local.Clone()
	}
	out, err := local.Clone()
	if err != nil {
		return nil, err
	}
	if remote.CreatedAt.Before(out.CreatedAt) {
		out.CreatedAt = remote.CreatedAt
	}
	if remote.LastModified.After(out.LastModified) {
		out.LastModified = remote.LastModified
	}
	if out.MainWindowState == nil && remote.MainWindowState != nil {
		out.MainWindowState = cloneMap(remote.MainWindowState)
	}
	for k, v := range remote.UIModels {
		if _, ok := out.UIModels[k]; !ok {
			out.UIModels[k] = append(json.RawMessage(nil), v...)
		}
	}
	fillMissing(out.UserPreferences, remote.UserPreferences)
	fillMissing(out.ProjectSettings, remote.ProjectSettings)
	fillMissing(out.AnalysisResults, remote.AnalysisResults)
	out.RecentFiles = unionCapped(out.RecentFiles, remote.RecentFiles, maxRecent)
	out.RecentSessions = unionCapped(out.RecentSessions, remote.RecentSessions, maxRecent)
	return out, nil
}

func fillMissing(dst, src map[string]any) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

func unionCapped(first, second []string, max int) []string {
	seen := make(map[string]bool, len(first)+len(second))
	out := make([]string, 0, len(first)+len(second))
	for _, list := range [][]string{first, second} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
