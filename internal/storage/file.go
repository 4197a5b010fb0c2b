/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BackupsDirName is the default backups folder placed next to written files.
const BackupsDirName = "backups"

// backupStamp is lexicographically sortable.
const backupStamp = "20060102-150405.000"

// WriteOptions controls WriteAtomic.
type WriteOptions struct {
	// BackupDir receives a timestamped copy of the previous file before it is replaced.
	// Empty disables backups.
	BackupDir string
	// KeepBackups caps the number of backups per file name; 0 keeps all.
	KeepBackups int
	// Perm is the mode of the written file; 0 means 0o644.
	Perm os.FileMode
}

// WriteAtomic writes data to path with transactional semantics: the bytes go to a temp file in
// the same directory which then replaces the target. Readers never observe a partial file.
func WriteAtomic(path string, data []byte, opts WriteOptions) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if opts.BackupDir != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := os.MkdirAll(opts.BackupDir, 0o755); err != nil {
				return fmt.Errorf("ensure backups dir: %w", err)
			}
			bpath := filepath.Join(opts.BackupDir, BackupName(filepath.Base(path), time.Now()))
			if err := CopyFile(path, bpath); err != nil {
				return fmt.Errorf("backup current file: %w", err)
			}
			if opts.KeepBackups > 0 {
				_, _ = PruneBackups(opts.BackupDir, filepath.Base(path), opts.KeepBackups)
			}
		}
	}
	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}
	base := filepath.Base(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data, perm); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		// Windows refuses to rename over an existing file.
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
			err = os.Rename(temp, path)
		}
		if err != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace %s: %w", base, err)
		}
	}
	return nil
}

// BackupName returns the backup file name for base taken at ts.
func BackupName(base string, ts time.Time) string {
	return fmt.Sprintf("%s.%s.bak", base, ts.Format(backupStamp))
}

// Backups lists the backups of base inside dir, oldest first.
func Backups(dir, base string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, base+".") || !strings.HasSuffix(name, ".bak") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// LatestBackup returns the newest backup of base inside dir.
func LatestBackup(dir, base string) (string, error) {
	list, err := Backups(dir, base)
	if err != nil {
		return "", fmt.Errorf("read backups dir: %w", err)
	}
	if len(list) == 0 {
		return "", errors.New("no backups found")
	}
	return list[len(list)-1], nil
}

// PruneBackups deletes all but the newest keep backups of base and reports how many went.
func PruneBackups(dir, base string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	list, err := Backups(dir, base)
	if err != nil {
		return 0, err
	}
	n := 0
	for len(list) > keep {
		if err := os.Remove(list[0]); err != nil {
			return n, err
		}
		list = list[1:]
		n++
	}
	return n, nil
}

func writeFileSync(path string, data []byte, perm os.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// CopyFile copies src to dst, overwriting dst.
func CopyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
