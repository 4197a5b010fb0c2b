/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "cellsorter/internal/log"
	"cellsorter/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	CatalogFileName = "catalog.sqlite"

	// schemaVersion tracks the catalog schema. Bump it together with a migration step.
	schemaVersion = 2
)

// CatalogPath returns the catalog location inside a session directory.
func CatalogPath(dir string) string {
	return filepath.Join(dir, CatalogFileName)
}

// Catalog is the embedded SQLite database listing sessions and UI model snapshots.
type Catalog struct {
	db   *sql.DB
	path string
}

// OpenCatalog creates or opens the catalog in dir, enables WAL mode and brings the schema up to
// date. Callers must Close it.
func OpenCatalog(ctx context.Context, dir string) (*Catalog, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "catalog_open").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("catalog dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create catalog dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	path := CatalogPath(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureCatalogSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure catalog schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("catalog ready", slog.String("path", path))
	return &Catalog{db: db, path: path}, nil
}

// Path returns the database file.
func (c *Catalog) Path() string { return c.path }

// SchemaVersion reports the schema version recorded in the database.
func (c *Catalog) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// Close releases the database.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database starts at version 1 and migrates forward.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureCatalogSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			path         TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			modified_at  TEXT NOT NULL,
			opened_at    TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_opened ON sessions(opened_at);`,
		`CREATE TABLE IF NOT EXISTS ui_snapshots (
			id          INTEGER PRIMARY KEY,
			session_id  TEXT NOT NULL,
			name        TEXT NOT NULL,
			ts          TEXT NOT NULL,
			blob        BLOB NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure catalog schema: %w", err)
		}
	}
	return nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Never downgrade.
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_ui_snapshots_session_name_ts ON ui_snapshots(session_id, name, ts);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// Healthy runs a quick integrity check.
func (c *Catalog) Healthy(ctx context.Context) bool {
	var chk string
	if err := c.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(chk), "ok")
}

// ResetCatalog moves a broken catalog aside into dir/backups and removes it, so the next
// OpenCatalog starts fresh.
func ResetCatalog(dir string) error {
	path := CatalogPath(dir)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	bak := filepath.Join(dir, BackupsDirName, BackupName(CatalogFileName, time.Now()))
	if err := CopyFile(path, bak); err != nil {
		applog.WithComponent("storage").Warn("catalog backup failed", slog.Any("err", err))
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	return nil
}
