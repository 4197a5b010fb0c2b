/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic at the process boundary into a report file plus a best-effort
// autosave of the open session.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "cellsorter/internal/log"
	"cellsorter/internal/session"
	"cellsorter/internal/storage"
	"cellsorter/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs it with the stack, writes a crash report and attempts a
// crash autosave of the current session (if sm is non-nil).
//
// Usage: defer crash.Recover(sm)
func Recover(sm *session.Manager) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(sm, r, stack)
		if sm != nil && sm.SessionID() != "" {
			if path, err := sm.SaveCrashSnapshot(); err != nil {
				l.Error("crash autosave failed", slog.Any("err", err))
			} else {
				l.Info("crash autosave written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

func writeReport(sm *session.Manager, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if sm != nil && sm.Dir() != "" {
		dir = filepath.Join(sm.Dir(), storage.BackupsDirName)
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "CellSorter Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if sm != nil {
		if id := sm.SessionID(); id != "" {
			_, _ = fmt.Fprintf(&buf, "Session: %s\n", id)
		}
		if p := sm.CurrentPath(); p != "" {
			_, _ = fmt.Fprintf(&buf, "SessionFile: %s\n", p)
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := storage.WriteAtomic(path, buf.Bytes(), storage.WriteOptions{}); err != nil {
		return path, err
	}
	return path, nil
}
