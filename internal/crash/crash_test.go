/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cellsorter/internal/session"
	"cellsorter/internal/storage"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "CellSorter Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportCreatesFileInSessionBackups(t *testing.T) {
	dir := t.TempDir()
	sm := session.NewManager(dir, session.WithAutoSave(false))
	sm.CreateSession("crashy")

	path, err := writeReport(sm, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if !strings.HasPrefix(path, filepath.Join(dir, storage.BackupsDirName)) {
		t.Fatalf("expected crash report under backups dir, got %s", path)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Session: crashy") {
		t.Fatalf("session id missing from report: %s", b)
	}
}

// TestRecoverAutosavesSession ensures Recover handles a panic, writes a report, autosaves the
// session and does not terminate the test process due to the injected exitFn.
func TestRecoverAutosavesSession(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	sm := session.NewManager(dir, session.WithAutoSave(false))
	sm.CreateSession("boom-session")

	func() {
		defer Recover(sm)
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	ents, err := os.ReadDir(filepath.Join(dir, storage.BackupsDirName))
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	var report, autosave bool
	for _, e := range ents {
		switch {
		case strings.HasPrefix(e.Name(), "crash-autosave-boom-session-"):
			autosave = true
		case strings.HasPrefix(e.Name(), "crash-") && strings.HasSuffix(e.Name(), ".log"):
			report = true
		}
	}
	if !report || !autosave {
		t.Fatalf("expected report and autosave, got %v", ents)
	}
	if sm.CurrentPath() != "" {
		t.Fatalf("crash autosave must not change the session path")
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit must not be called without a panic")
	}
}
