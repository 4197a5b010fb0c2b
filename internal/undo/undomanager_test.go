/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestUndoRedoSwap(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerScope: 10})
	sc := "window_state"
	t0 := time.Now()
	m.Record(Snapshot{Scope: sc, Blob: []byte("a"), TS: t0})
	m.Record(Snapshot{Scope: sc, Blob: []byte("b"), TS: t0.Add(time.Second)})
	if _, scopes, total := m.Stats(); scopes != 1 || total != 2 {
		t.Fatalf("expected 1 scope and 2 snapshots, got scopes=%d total=%d", scopes, total)
	}
	// current state is "c"
	s, ok := m.Undo(sc, []byte("c"))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = m.Undo(sc, []byte("b"))
	if !ok || string(s.Blob) != "a" {
		t.Fatalf("undo expected 'a', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if _, ok := m.Undo(sc, []byte("a")); ok {
		t.Fatalf("undo past the start should fail")
	}
	s, ok = m.Redo(sc, []byte("a"))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("redo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = m.Redo(sc, []byte("b"))
	if !ok || string(s.Blob) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if m.CanRedo(sc) {
		t.Fatalf("redo stack should be empty")
	}
}

func TestRecordClearsRedo(t *testing.T) {
	m := NewManager(Config{})
	m.Record(Snapshot{Scope: "s", Blob: []byte("1")})
	m.Undo("s", []byte("2"))
	if !m.CanRedo("s") {
		t.Fatalf("expected redo after undo")
	}
	m.Record(Snapshot{Scope: "s", Blob: []byte("1")})
	if m.CanRedo("s") {
		t.Fatalf("new change must invalidate redo")
	}
}

func TestCoalesceKeepsEarliest(t *testing.T) {
	m := NewManager(Config{MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	m.Record(Snapshot{Scope: "z", Blob: []byte("1"), TS: t0})
	m.Record(Snapshot{Scope: "z", Blob: []byte("2"), TS: t0.Add(10 * time.Millisecond)})
	m.Record(Snapshot{Scope: "z", Blob: []byte("3"), TS: t0.Add(40 * time.Millisecond)})
	if _, _, total := m.Stats(); total != 1 {
		t.Fatalf("expected coalesced to 1 snapshot, got %d", total)
	}
	s, ok := m.Undo("z", []byte("4"))
	if !ok || string(s.Blob) != "1" {
		t.Fatalf("expected earliest snapshot '1', got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestScopesAreIndependent(t *testing.T) {
	m := NewManager(Config{})
	m.Record(Snapshot{Scope: "a", Blob: []byte("x")})
	if m.CanUndo("b") {
		t.Fatalf("scope b has no history")
	}
	m.Clear("a")
	if m.CanUndo("a") {
		t.Fatalf("clear should drop history")
	}
	if bytes, _, _ := m.Stats(); bytes != 0 {
		t.Fatalf("expected 0 bytes after clear, got %d", bytes)
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerScope: 2})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.Record(Snapshot{Scope: "p", Blob: []byte("xxxxx"), TS: t0.Add(time.Duration(i) * time.Millisecond)})
	}
	if _, _, total := m.Stats(); total > 2 {
		t.Fatalf("expected MaxPerScope cap to limit to 2, got %d", total)
	}

	m = NewManager(Config{MaxBytes: 10})
	for i, sc := range []string{"a", "b", "c"} {
		m.Record(Snapshot{Scope: sc, Blob: []byte("xxxxx"), TS: t0.Add(time.Duration(i) * time.Second)})
	}
	if bytes, _, _ := m.Stats(); bytes > 10 {
		t.Fatalf("expected MaxBytes cap, got %d bytes", bytes)
	}
	if m.CanUndo("a") {
		t.Fatalf("oldest scope entry should be pruned first")
	}
}
