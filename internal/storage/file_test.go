/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteAtomicCreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "session.json")
	if err := WriteAtomic(path, []byte("one"), WriteOptions{}); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if err := WriteAtomic(path, []byte("two"), WriteOptions{}); err != nil {
		t.Fatalf("WriteAtomic replace: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "two" {
		t.Fatalf("read back %q err %v", string(b), err)
	}
	ents, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteAtomicBacksUpPreviousContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.json")
	bdir := filepath.Join(dir, BackupsDirName)
	opts := WriteOptions{BackupDir: bdir}
	if err := WriteAtomic(path, []byte("v1"), opts); err != nil {
		t.Fatal(err)
	}
	if list, _ := Backups(bdir, "s.json"); len(list) != 0 {
		t.Fatalf("first write must not create a backup, got %v", list)
	}
	if err := WriteAtomic(path, []byte("v2"), opts); err != nil {
		t.Fatal(err)
	}
	latest, err := LatestBackup(bdir, "s.json")
	if err != nil {
		t.Fatalf("LatestBackup: %v", err)
	}
	b, _ := os.ReadFile(latest)
	if string(b) != "v1" {
		t.Fatalf("backup content = %q, want v1", string(b))
	}
}

func TestPruneBackupsKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		name := BackupName("s.json", base.Add(time.Duration(i)*time.Second))
		if err := os.WriteFile(filepath.Join(dir, name), []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	n, err := PruneBackups(dir, "s.json", 2)
	if err != nil || n != 3 {
		t.Fatalf("PruneBackups n=%d err=%v", n, err)
	}
	list, _ := Backups(dir, "s.json")
	if len(list) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(list))
	}
	b, _ := os.ReadFile(list[1])
	if string(b) != "e" {
		t.Fatalf("newest backup should survive, got %q", string(b))
	}
}

func TestLatestBackupWithoutBackups(t *testing.T) {
	if _, err := LatestBackup(t.TempDir(), "x.json"); err == nil {
		t.Fatal("expected error when no backups exist")
	}
}

func TestWriteAtomicRejectsEmptyPath(t *testing.T) {
	if err := WriteAtomic("  ", nil, WriteOptions{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
