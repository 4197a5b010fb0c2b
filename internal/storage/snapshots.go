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
const insertSnapshotSQL = `INSERT INTO ui_snapshots(session_id, name, ts, blob) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, blob FROM ui_snapshots WHERE session_id = ? AND name = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, blob FROM ui_snapshots WHERE session_id = ? AND name = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM ui_snapshots WHERE session_id = ? AND name = ? AND id NOT IN (
	SELECT id FROM ui_snapshots WHERE session_id = ? AND name = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// language=SQL
// dialect=SQLite
const deleteSessionSnapshotsSQL = `DELETE FROM ui_snapshots WHERE session_id = ?`

// Snapshot is one stored UI model version.
type Snapshot struct {
	TS   time.Time
	Blob []byte
}

// SaveSnapshot stores a UI model blob for the session under name.
func (c *Catalog) SaveSnapshot(ctx context.Context, sessionID, name string, blob []byte, ts time.Time) error {
	if sessionID == "" || name == "" {
		return errors.New("session id and name are required")
	}
	_, err := c.db.ExecContext(ctx, insertSnapshotSQL, sessionID, name, formatTS(ts), blob)
	return err
}

// LatestSnapshot returns the newest snapshot, or nil if none exists.
func (c *Catalog) LatestSnapshot(ctx context.Context, sessionID, name string) (*Snapshot, error) {
	var ts string
	var blob []byte
	err := c.db.QueryRowContext(ctx, selectLatestSnapshotSQL, sessionID, name).Scan(&ts, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Snapshot{TS: parseTS(ts), Blob: blob}, nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (c *Catalog) ListSnapshots(ctx context.Context, sessionID, name string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx, listSnapshotsSQL, sessionID, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var ts string
		var blob []byte
		if err := rows.Scan(&ts, &blob); err != nil {
			return nil, err
		}
		out = append(out, Snapshot{TS: parseTS(ts), Blob: blob})
	}
	return out, rows.Err()
}

// PruneSnapshots keeps the newest keepLast snapshots for name and deletes the rest.
func (c *Catalog) PruneSnapshots(ctx context.Context, sessionID, name string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx, pruneOldSnapshotsSQL, sessionID, name, sessionID, name, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
