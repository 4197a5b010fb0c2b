/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot is a reversible state blob for one scope (for example "window_state").
// Blob content is opaque to the manager; size is estimated as len(Blob).
type Snapshot struct {
	Scope string
	Blob  []byte
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap on undo history; oldest entries are pruned when exceeded.
	MaxBytes int
	// MaxPerScope limits the undo depth per scope (0 means unlimited).
	MaxPerScope int
	// MinInterval coalesces records for the same scope arriving closer together than this.
	// The earlier state wins so a burst of edits undoes in one step. 0 disables coalescing.
	MinInterval time.Duration
}

// DefaultConfig is used by the adapter.
func DefaultConfig() Config {
	return Config{MaxBytes: 4 * 1024 * 1024, MaxPerScope: 100, MinInterval: 250 * time.Millisecond}
}

// Manager keeps undo/redo stacks per scope. Record stores the state before a change;
// Undo and Redo swap the caller's current state with the top of the opposite stack.
// It is safe for concurrent use.
type Manager struct {
	cfg        Config
	mu         sync.Mutex
	undo       map[string][]Snapshot
	redo       map[string][]Snapshot
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Record pushes the pre-change state of a scope and clears its redo stack.
func (m *Manager) Record(s Snapshot) {
	if s.TS.IsZero() {
		s.TS = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[s.Scope] = nil
	stack := m.undo[s.Scope]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		// refresh the timestamp so a continuous burst stays coalesced
		stack[n-1].TS = s.TS
		return
	}
	m.undo[s.Scope] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.Scope)
}

// Undo returns the state to restore for scope and remembers current for Redo.
func (m *Manager) Undo(scope string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[scope]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[scope] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[scope] = append(m.redo[scope], Snapshot{Scope: scope, Blob: current, TS: time.Now()})
	return s, true
}

// Redo reverses the last Undo for scope.
func (m *Manager) Redo(scope string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[scope]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[scope] = r[:len(r)-1]
	// bypasses coalescing: a redo must always be undoable
	m.undo[scope] = append(m.undo[scope], Snapshot{Scope: scope, Blob: current, TS: time.Time{}})
	m.totalBytes += len(current)
	m.enforceCapsLocked(scope)
	return s, true
}

func (m *Manager) CanUndo(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[scope]) > 0
}

func (m *Manager) CanRedo(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[scope]) > 0
}

// Clear drops both stacks of a scope.
func (m *Manager) Clear(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[scope] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, scope)
	delete(m.redo, scope)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, scopes int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scopes = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, scopes, totalSnapshots
}

func (m *Manager) enforceCapsLocked(scope string) {
	if m.cfg.MaxPerScope > 0 {
		stack := m.undo[scope]
		if len(stack) > m.cfg.MaxPerScope {
			toDrop := len(stack) - m.cfg.MaxPerScope
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[scope] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune the oldest bottom entry across scopes. A redo entry has a
	// zero TS and therefore goes first.
	for m.totalBytes > m.cfg.MaxBytes {
		oldest := ""
		found := false
		var oldestTS time.Time
		for sc, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = sc, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldest] = stack[1:]
		if len(m.undo[oldest]) == 0 {
			delete(m.undo, oldest)
		}
	}
}
