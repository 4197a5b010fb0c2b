/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session persists main-window state, named UI models and user bookkeeping
// (recent files, preferences) as JSON session files. An optional sqlite catalog keeps the list
// of known sessions and a history of UI-model snapshots.
//
// Two processes writing the same session file is not coordinated; the last writer wins.
// Watch plus ReloadExternal lets a running process notice such writes and apply the
// configured Policy.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"cellsorter/internal/ir"
	applog "cellsorter/internal/log"
	"cellsorter/internal/serialize"
	"cellsorter/internal/storage"
)

// DefaultMaxRecent caps recent file and session lists.
const DefaultMaxRecent = 10

// DefaultKeepSnapshots is the UI-model history kept per name in the catalog.
const DefaultKeepSnapshots = 20

var (
	ErrNoSession = errors.New("no active session")
	ErrNoCatalog = errors.New("session catalog is disabled")
)

// StateSource is implemented by the adapter's MainWindowState.
type StateSource interface {
	ToMap() map[string]any
}

// StateTarget receives restored window state.
type StateTarget interface {
	ApplyMap(m map[string]any) error
}

// Manager owns at most one current session. Like the adapter it expects to be driven from a
// single goroutine.
type Manager struct {
	dir       string
	autoSave  bool
	maxRecent int
	keepSnaps int
	policy    Policy
	catalog   *storage.Catalog
	now       func() time.Time
	log       *slog.Logger

	current *Data
	path    string
	diskMod time.Time // mtime of path after our last load or save
}

type Option func(*Manager)

func WithAutoSave(on bool) Option { return func(m *Manager) { m.autoSave = on } }

func WithMaxRecent(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRecent = n
		}
	}
}

func WithPolicy(p Policy) Option { return func(m *Manager) { m.policy = p } }

// WithCatalog records sessions and UI-model history in c. The caller closes c.
func WithCatalog(c *storage.Catalog) Option { return func(m *Manager) { m.catalog = c } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// NewManager stores sessions under dir.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:       dir,
		autoSave:  true,
		maxRecent: DefaultMaxRecent,
		keepSnaps: DefaultKeepSnapshots,
		policy:    LastModifiedWins,
		now:       func() time.Time { return time.Now().UTC() },
		log:       applog.WithComponent("session"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Dir() string { return m.dir }

// Current returns a copy of the current session, or nil.
func (m *Manager) Current() *Data {
	if m.current == nil {
		return nil
	}
	d, err := m.current.Clone()
	if err != nil {
		m.log.Error("copy session", slog.String("error", err.Error()))
		return nil
	}
	return d
}

// SessionID is the id of the current session, or "".
func (m *Manager) SessionID() string {
	if m.current == nil {
		return ""
	}
	return m.current.SessionID
}

// CurrentPath is the file the current session was last loaded from or saved to.
func (m *Manager) CurrentPath() string { return m.path }

// PathFor is where a session with id is saved by default.
func (m *Manager) PathFor(id string) string {
	return filepath.Join(m.dir, "session_"+id+".json")
}

// CreateSession starts a new session, replacing the current one. An empty id gets a UUID.
// Ids that would escape the session directory are rejected with ErrInvalidID.
func (m *Manager) CreateSession(id string) (*Data, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	m.start(id)
	return m.current.Clone()
}

func (m *Manager) start(id string) {
	m.current = newData(id, m.now())
	m.path = ""
	m.diskMod = time.Time{}
	applog.WithSession(m.log, id).Info("session created")
}

// Save writes the current session to path, or to the last-known path, or to PathFor(id).
// The previous file is kept as one timestamped backup in <dir>/backups.
func (m *Manager) Save(path string) (string, error) {
	if m.current == nil {
		return "", ErrNoSession
	}
	if path == "" {
		path = m.path
	}
	if path == "" {
		if err := ValidateID(m.current.SessionID); err != nil {
			return "", err
		}
		path = m.PathFor(m.current.SessionID)
	}
	l := applog.WithOperation(applog.WithSession(m.log, m.current.SessionID), "save")
	m.current.LastModified = m.now()
	data, err := encodeData(m.current)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	opts := storage.WriteOptions{BackupDir: filepath.Join(filepath.Dir(path), storage.BackupsDirName), KeepBackups: 1}
	if err := storage.WriteAtomic(path, data, opts); err != nil {
		l.Error("save failed", slog.String("path", path), slog.String("error", err.Error()))
		return "", fmt.Errorf("save session: %w", err)
	}
	m.path = path
	m.diskMod = modTime(path)
	m.recordInCatalog(false)
	l.Debug("session saved", slog.String("path", path), slog.Int("bytes", len(data)))
	return path, nil
}

// Load replaces the current session with the file at path. On any error the current
// session is left untouched.
func (m *Manager) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		m.log.Warn("session load failed", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Errorf("load session: %w", err)
	}
	d, err := decodeData(b)
	if err != nil {
		m.log.Warn("session load failed", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Errorf("load session %s: %w", path, err)
	}
	m.current = d
	m.path = path
	m.diskMod = modTime(path)
	m.recordInCatalog(true)
	applog.WithSession(m.log, d.SessionID).Info("session loaded", slog.String("path", path))
	return nil
}

// Clear forgets the current session without touching disk.
func (m *Manager) Clear() {
	m.current = nil
	m.path = ""
	m.diskMod = time.Time{}
}

// autoSaveNow persists after a mutating helper when enabled.
func (m *Manager) autoSaveNow() error {
	if !m.autoSave || m.current == nil {
		return nil
	}
	_, err := m.Save("")
	return err
}

// ensure returns the current session, creating one if needed.
func (m *Manager) ensure() *Data {
	if m.current == nil {
		m.start(uuid.NewString())
	}
	return m.current
}

// AddRecentFile moves path to the front of the recent-files list.
func (m *Manager) AddRecentFile(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	d := m.ensure()
	d.RecentFiles = pushFront(d.RecentFiles, path, m.maxRecent)
	return m.autoSaveNow()
}

// RecentFiles returns the list after dropping entries whose file no longer exists.
// A changed list is persisted.
func (m *Manager) RecentFiles() []string {
	if m.current == nil {
		return nil
	}
	kept := m.current.RecentFiles[:0:0]
	for _, p := range m.current.RecentFiles {
		if _, err := os.Stat(p); err == nil {
			kept = append(kept, p)
		}
	}
	if len(kept) != len(m.current.RecentFiles) {
		m.current.RecentFiles = kept
		if err := m.autoSaveNow(); err != nil {
			m.log.Warn("persist pruned recent files", slog.String("error", err.Error()))
		}
	}
	return append([]string(nil), kept...)
}

// AddRecentSession moves a session file path to the front of the recent-sessions list.
func (m *Manager) AddRecentSession(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	d := m.ensure()
	d.RecentSessions = pushFront(d.RecentSessions, path, m.maxRecent)
	return m.autoSaveNow()
}

func (m *Manager) RecentSessions() []string {
	if m.current == nil {
		return nil
	}
	return append([]string(nil), m.current.RecentSessions...)
}

func pushFront(list []string, v string, max int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, v)
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// setValue stores value under key in the map picked from the current session. Values that
// cannot be encoded as JSON are rejected before anything changes.
func (m *Manager) setValue(pick func(*Data) map[string]any, key string, value any) error {
	if _, err := json.Marshal(value); err != nil {
		return fmt.Errorf("session value %q: %w", key, err)
	}
	pick(m.ensure())[key] = value
	return m.autoSaveNow()
}

func (m *Manager) SetPreference(key string, value any) error {
	return m.setValue(func(d *Data) map[string]any { return d.UserPreferences }, key, value)
}

func (m *Manager) Preference(key string) (any, bool) {
	if m.current == nil {
		return nil, false
	}
	v, ok := m.current.UserPreferences[key]
	return v, ok
}

func (m *Manager) SetProjectSetting(key string, value any) error {
	return m.setValue(func(d *Data) map[string]any { return d.ProjectSettings }, key, value)
}

func (m *Manager) ProjectSetting(key string) (any, bool) {
	if m.current == nil {
		return nil, false
	}
	v, ok := m.current.ProjectSettings[key]
	return v, ok
}

func (m *Manager) SetAnalysisResult(key string, value any) error {
	return m.setValue(func(d *Data) map[string]any { return d.AnalysisResults }, key, value)
}

func (m *Manager) AnalysisResult(key string) (any, bool) {
	if m.current == nil {
		return nil, false
	}
	v, ok := m.current.AnalysisResults[key]
	return v, ok
}

// SaveWindowState stores the adapter state in the session.
func (m *Manager) SaveWindowState(src StateSource) error {
	state := src.ToMap()
	if _, err := json.Marshal(state); err != nil {
		return fmt.Errorf("window state: %w", err)
	}
	m.ensure().MainWindowState = state
	return m.autoSaveNow()
}

// RestoreWindowState applies the stored state to dst. It reports false when the session holds
// no window state.
func (m *Manager) RestoreWindowState(dst StateTarget) (bool, error) {
	if m.current == nil || m.current.MainWindowState == nil {
		return false, nil
	}
	if err := dst.ApplyMap(m.current.MainWindowState); err != nil {
		return false, fmt.Errorf("restore window state: %w", err)
	}
	return true, nil
}

// SaveUIModel stores model under name and appends it to the catalog history.
func (m *Manager) SaveUIModel(ctx context.Context, name string, model *ir.Model) error {
	if name == "" {
		return errors.New("ui model name is required")
	}
	doc, err := serialize.CompactDocument(model)
	if err != nil {
		return err
	}
	d := m.ensure()
	d.UIModels[name] = doc
	if m.catalog == nil {
		return nil
	}
	if err := m.catalog.SaveSnapshot(ctx, d.SessionID, name, doc, m.now()); err != nil {
		return fmt.Errorf("record ui model history: %w", err)
	}
	if _, err := m.catalog.PruneSnapshots(ctx, d.SessionID, name, m.keepSnaps); err != nil {
		m.log.Warn("prune ui model history", slog.String("error", err.Error()))
	}
	return nil
}

// UIModel decodes the model stored under name.
func (m *Manager) UIModel(name string) (*ir.Model, error) {
	if m.current == nil {
		return nil, ErrNoSession
	}
	raw, ok := m.current.UIModels[name]
	if !ok {
		return nil, fmt.Errorf("ui model %q not found", name)
	}
	return serialize.Decode(raw)
}

func (m *Manager) UIModelNames() []string {
	if m.current == nil {
		return nil
	}
	out := make([]string, 0, len(m.current.UIModels))
	for k := range m.current.UIModels {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// HistoryEntry is one past version of a UI model.
type HistoryEntry struct {
	SavedAt time.Time
	Model   *ir.Model
}

// History returns up to limit past versions of the named model, newest first.
func (m *Manager) History(ctx context.Context, name string, limit int) ([]HistoryEntry, error) {
	if m.catalog == nil {
		return nil, ErrNoCatalog
	}
	if m.current == nil {
		return nil, ErrNoSession
	}
	snaps, err := m.catalog.ListSnapshots(ctx, m.current.SessionID, name, limit)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(snaps))
	for _, s := range snaps {
		model, err := serialize.Decode(s.Blob)
		if err != nil {
			return nil, fmt.Errorf("decode history entry %s: %w", s.TS.Format(time.RFC3339), err)
		}
		out = append(out, HistoryEntry{SavedAt: s.TS, Model: model})
	}
	return out, nil
}

// KnownSessions lists sessions recorded in the catalog, most recently opened first.
func (m *Manager) KnownSessions(ctx context.Context, limit int) ([]storage.SessionRecord, error) {
	if m.catalog == nil {
		return nil, ErrNoCatalog
	}
	return m.catalog.ListSessions(ctx, limit)
}

func (m *Manager) recordInCatalog(opened bool) {
	if m.catalog == nil || m.current == nil {
		return
	}
	now := m.now()
	rec := storage.SessionRecord{
		ID:         m.current.SessionID,
		Path:       m.path,
		CreatedAt:  m.current.CreatedAt,
		ModifiedAt: m.current.LastModified,
		OpenedAt:   now,
	}
	if !opened {
		if prev, ok, err := m.catalog.Session(context.Background(), rec.ID); err == nil && ok {
			rec.OpenedAt = prev.OpenedAt
		}
	}
	if err := m.catalog.UpsertSession(context.Background(), rec); err != nil {
		m.log.Warn("catalog update failed", slog.String("error", err.Error()))
	}
}

// ExternallyModified reports whether the current file changed on disk since the last load
// or save by this manager.
func (m *Manager) ExternallyModified() bool {
	if m.path == "" {
		return false
	}
	mt := modTime(m.path)
	return !mt.IsZero() && !mt.Equal(m.diskMod)
}

// ReloadExternal folds an external change of the current file into memory using the
// configured Policy. With Merge and auto-save on, the merged result is written back.
func (m *Manager) ReloadExternal() (bool, error) {
	if m.current == nil || !m.ExternallyModified() {
		return false, nil
	}
	b, err := os.ReadFile(m.path)
	if err != nil {
		return false, fmt.Errorf("reload session: %w", err)
	}
	remote, err := decodeData(b)
	if err != nil {
		return false, fmt.Errorf("reload session %s: %w", m.path, err)
	}
	m.diskMod = modTime(m.path)
	resolved, err := Resolve(m.current, remote, m.policy, m.maxRecent)
	if err != nil {
		return false, fmt.Errorf("reload session: %w", err)
	}
	changed := !sameJSON(resolved, m.current)
	m.current = resolved
	m.log.Info("external session change", slog.String("policy", string(m.policy)), slog.Bool("changed", changed))
	if m.policy == Merge && !sameJSON(resolved, remote) {
		if err := m.autoSaveNow(); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// Watch starts a Watcher on the current session file.
func (m *Manager) Watch(debounce time.Duration) (*Watcher, error) {
	if m.path == "" {
		return nil, errors.New("session has not been saved yet")
	}
	return Watch(m.path, debounce)
}

func sameJSON(a, b *Data) bool {
	x, err1 := json.Marshal(a)
	y, err2 := json.Marshal(b)
	return err1 == nil && err2 == nil && string(x) == string(y)
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// SaveCrashSnapshot writes the current session into <dir>/backups under a crash-autosave name.
// CurrentPath is not changed.
func (m *Manager) SaveCrashSnapshot() (string, error) {
	if m.current == nil {
		return "", ErrNoSession
	}
	data, err := encodeData(m.current)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	name := fmt.Sprintf("crash-autosave-%s-%s.json", m.current.SessionID, time.Now().Format("20060102-150405"))
	path := filepath.Join(m.dir, storage.BackupsDirName, name)
	if err := storage.WriteAtomic(path, data, storage.WriteOptions{}); err != nil {
		return "", err
	}
	return path, nil
}
