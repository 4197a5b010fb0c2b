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
	"time"
)

// language=SQL
// dialect=SQLite
const upsertSessionSQL = `INSERT INTO sessions(id, path, created_at, modified_at, opened_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET path=excluded.path, modified_at=excluded.modified_at, opened_at=excluded.opened_at`

// language=SQL
// dialect=SQLite
const listSessionsSQL = `SELECT id, path, created_at, modified_at, opened_at FROM sessions ORDER BY opened_at DESC, id LIMIT ?`

// language=SQL
// dialect=SQLite
const selectSessionSQL = `SELECT id, path, created_at, modified_at, opened_at FROM sessions WHERE id = ?`

// language=SQL
// dialect=SQLite
const deleteSessionSQL = `DELETE FROM sessions WHERE id = ?`

// SessionRecord is one catalog row.
type SessionRecord struct {
	ID         string
	Path       string
	CreatedAt  time.Time
	ModifiedAt time.Time
	OpenedAt   time.Time
}

// tsLayout is fixed width so that text ordering in SQL matches time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTS(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTS(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// UpsertSession inserts or refreshes a session row. A zero OpenedAt means now.
func (c *Catalog) UpsertSession(ctx context.Context, rec SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session id is required")
	}
	if rec.OpenedAt.IsZero() {
		rec.OpenedAt = time.Now()
	}
	_, err := c.db.ExecContext(ctx, upsertSessionSQL, rec.ID, rec.Path, formatTS(rec.CreatedAt), formatTS(rec.ModifiedAt), formatTS(rec.OpenedAt))
	return err
}

// Session returns the row for id; ok is false when absent.
func (c *Catalog) Session(ctx context.Context, id string) (rec SessionRecord, ok bool, err error) {
	var created, modified, opened string
	err = c.db.QueryRowContext(ctx, selectSessionSQL, id).Scan(&rec.ID, &rec.Path, &created, &modified, &opened)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, false, nil
	}
	if err != nil {
		return SessionRecord{}, false, err
	}
	rec.CreatedAt, rec.ModifiedAt, rec.OpenedAt = parseTS(created), parseTS(modified), parseTS(opened)
	return rec, true, nil
}

// ListSessions returns up to limit sessions, most recently opened first.
func (c *Catalog) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx, listSessionsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var created, modified, opened string
		if err := rows.Scan(&rec.ID, &rec.Path, &created, &modified, &opened); err != nil {
			return nil, err
		}
		rec.CreatedAt, rec.ModifiedAt, rec.OpenedAt = parseTS(created), parseTS(modified), parseTS(opened)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RemoveSession deletes a session row and its snapshots.
func (c *Catalog) RemoveSession(ctx context.Context, id string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteSessionSQL, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteSessionSnapshotsSQL, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
