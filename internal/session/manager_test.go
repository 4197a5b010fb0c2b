/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsorter/internal/adapter"
	"cellsorter/internal/ir"
	"cellsorter/internal/storage"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	base := []Option{WithClock(fixedClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))}
	return NewManager(t.TempDir(), append(base, opts...)...)
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := newManager(t, WithAutoSave(false))
	d, err := m.CreateSession("lab-42")
	require.NoError(t, err)
	assert.Equal(t, "lab-42", d.SessionID)
	require.NoError(t, m.SetPreference("theme", "dark"))
	require.NoError(t, m.SetProjectSetting("gate", "P3"))
	require.NoError(t, m.SetAnalysisResult("clusters", 4))

	path, err := m.Save("")
	require.NoError(t, err)
	assert.Equal(t, m.PathFor("lab-42"), path)
	assert.Equal(t, path, m.CurrentPath())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, k := range []string{"session_id", "created_at", "last_modified", "version", "ui_models",
		"recent_files", "recent_sessions", "user_preferences", "project_settings", "analysis_results"} {
		assert.Contains(t, fields, k)
	}
	assert.NotContains(t, fields, "main_window_state")

	other := NewManager(m.Dir())
	require.NoError(t, other.Load(path))
	got := other.Current()
	assert.Equal(t, "lab-42", got.SessionID)
	assert.Equal(t, FormatVersion, got.Version)
	v, ok := other.Preference("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
	v, _ = other.AnalysisResult("clusters")
	assert.Equal(t, float64(4), v)
}

func TestSecondSaveKeepsOneBackup(t *testing.T) {
	m := newManager(t, WithAutoSave(false))
	m.CreateSession("b")
	path, err := m.Save("")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.SetPreference("n", i))
		_, err = m.Save("")
		require.NoError(t, err)
	}
	backups, err := storage.Backups(filepath.Join(filepath.Dir(path), storage.BackupsDirName), filepath.Base(path))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestLoadFailureLeavesSessionUntouched(t *testing.T) {
	m := newManager(t, WithAutoSave(false))
	m.CreateSession("keep-me")
	require.NoError(t, m.SetPreference("k", "v"))

	assert.Error(t, m.Load(filepath.Join(m.Dir(), "nope.json")))
	bad := filepath.Join(m.Dir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	assert.Error(t, m.Load(bad))
	require.NoError(t, os.WriteFile(bad, []byte(`{"version":"1.0"}`), 0o644))
	assert.Error(t, m.Load(bad))

	assert.Equal(t, "keep-me", m.Current().SessionID)
	v, _ := m.Preference("k")
	assert.Equal(t, "v", v)
	assert.Empty(t, m.CurrentPath())
}

func TestAutoSave(t *testing.T) {
	m := newManager(t)
	m.CreateSession("auto")
	require.NoError(t, m.SetPreference("k", 1))
	_, err := os.Stat(m.PathFor("auto"))
	assert.NoError(t, err, "preference change should auto-save")

	off := newManager(t, WithAutoSave(false))
	off.CreateSession("manual")
	require.NoError(t, off.SetPreference("k", 1))
	_, err = os.Stat(off.PathFor("manual"))
	assert.True(t, os.IsNotExist(err))
}

func TestRecentFilesCapDedupeOrder(t *testing.T) {
	const limit = 4
	m := newManager(t, WithAutoSave(false), WithMaxRecent(limit))
	dir := t.TempDir()
	var paths []string
	for i := 0; i < limit+5; i++ {
		p := touch(t, dir, fmt.Sprintf("f%d.csv", i))
		paths = append(paths, p)
		require.NoError(t, m.AddRecentFile(p))
	}
	got := m.RecentFiles()
	require.Len(t, got, limit)
	assert.Equal(t, []string{paths[8], paths[7], paths[6], paths[5]}, got)

	require.NoError(t, m.AddRecentFile(paths[6]))
	assert.Equal(t, []string{paths[6], paths[8], paths[7], paths[5]}, m.RecentFiles())
}

func TestRecentFilesPrunesMissingAndPersists(t *testing.T) {
	m := newManager(t)
	m.CreateSession("prune")
	dir := t.TempDir()
	a := touch(t, dir, "a.csv")
	b := touch(t, dir, "b.csv")
	require.NoError(t, m.AddRecentFile(a))
	require.NoError(t, m.AddRecentFile(b))
	require.NoError(t, os.Remove(a))

	assert.Equal(t, []string{b}, m.RecentFiles())

	reloaded := NewManager(m.Dir())
	require.NoError(t, reloaded.Load(m.CurrentPath()))
	assert.Equal(t, []string{b}, reloaded.Current().RecentFiles)
}

func TestRecentSessions(t *testing.T) {
	m := newManager(t, WithAutoSave(false))
	require.NoError(t, m.AddRecentSession("one.json"))
	require.NoError(t, m.AddRecentSession("two.json"))
	require.NoError(t, m.AddRecentSession("one.json"))
	got := m.RecentSessions()
	require.Len(t, got, 2)
	assert.Equal(t, "one.json", filepath.Base(got[0]))
}

func TestWindowStateRoundTrip(t *testing.T) {
	m := newManager(t, WithAutoSave(false))
	m.CreateSession("win")
	st := adapter.NewState()
	require.NoError(t, st.SetProperty(adapter.PropZoomLevel, 2.0))
	require.NoError(t, st.SetProperty(adapter.PropSelectedPoints, []int{1, 2}))
	require.NoError(t, m.SaveWindowState(st))
	path, err := m.Save("")
	require.NoError(t, err)

	fresh := NewManager(m.Dir())
	target := adapter.NewState()
	ok, err := fresh.RestoreWindowState(target)
	require.NoError(t, err)
	assert.False(t, ok, "no session loaded yet")

	require.NoError(t, fresh.Load(path))
	ok, err = fresh.RestoreWindowState(target)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, st.ToMap(), target.ToMap())
}

func uiModel() *ir.Model {
	m := ir.NewModel()
	root := ir.NewWidget("main_window", ir.KindMainWindow).SetProperty("title", "Cells")
	root.SetLayout(ir.LayoutVBox).AddItem(ir.LayoutItem{Widget: "ok_button"})
	root.AddChild(ir.NewWidget("ok_button", ir.KindPushButton).SetProperty("text", "OK"))
	m.Root = root
	return m
}

func TestUIModelsAndHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cat, err := storage.OpenCatalog(ctx, dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	m := NewManager(dir, WithAutoSave(false), WithCatalog(cat), WithClock(fixedClock(time.Now().UTC())))
	m.CreateSession("hist")
	model := uiModel()
	require.NoError(t, m.SaveUIModel(ctx, "main", model))
	model.Find("ok_button").SetProperty("text", "Apply")
	require.NoError(t, m.SaveUIModel(ctx, "main", model))
	assert.Error(t, m.SaveUIModel(ctx, "", model))

	assert.Equal(t, []string{"main"}, m.UIModelNames())
	back, err := m.UIModel("main")
	require.NoError(t, err)
	assert.True(t, ir.Equal(model, back))
	_, err = m.UIModel("other")
	assert.Error(t, err)

	hist, err := m.History(ctx, "main", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	v, _ := hist[0].Model.Find("ok_button").Property("text")
	assert.Equal(t, "Apply", v)

	path, err := m.Save("")
	require.NoError(t, err)
	known, err := m.KnownSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, known, 1)
	assert.Equal(t, path, known[0].Path)

	_, err = NewManager(dir).History(ctx, "main", 1)
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestResolvePolicies(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	local := newData("s", t0)
	local.LastModified = t0.Add(time.Minute)
	local.UserPreferences["theme"] = "dark"
	local.RecentFiles = []string{"/a", "/b"}

	remote := newData("s", t0.Add(-time.Hour))
	remote.LastModified = t0.Add(2 * time.Minute)
	remote.UserPreferences["theme"] = "light"
	remote.UserPreferences["units"] = "um"
	remote.RecentFiles = []string{"/c", "/a"}
	remote.UIModels["plot"] = json.RawMessage(`{"format":"x"}`)

	lmw, err := Resolve(local, remote, LastModifiedWins, 10)
	require.NoError(t, err)
	assert.Equal(t, "light", lmw.UserPreferences["theme"])
	assert.Equal(t, []string{"/c", "/a"}, lmw.RecentFiles)

	merged, err := Resolve(local, remote, Merge, 3)
	require.NoError(t, err)
	assert.Equal(t, "dark", merged.UserPreferences["theme"])
	assert.Equal(t, "um", merged.UserPreferences["units"])
	assert.Equal(t, []string{"/a", "/b", "/c"}, merged.RecentFiles)
	assert.Contains(t, merged.UIModels, "plot")
	assert.True(t, merged.CreatedAt.Equal(remote.CreatedAt))
	assert.True(t, merged.LastModified.Equal(remote.LastModified))
	assert.Equal(t, "light", remote.UserPreferences["theme"], "inputs must not change")

	_, err = ParsePolicy("coin_flip")
	assert.Error(t, err)
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, LastModifiedWins, p)
}

// writeExternally replaces the session file as another process would and bumps its mtime.
func writeExternally(t *testing.T, path string, mutate func(d *Data)) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	d, err := decodeData(b)
	require.NoError(t, err)
	mutate(d)
	out, err := encodeData(d)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, out, 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
}

func TestReloadExternalMerge(t *testing.T) {
	m := newManager(t, WithPolicy(Merge))
	m.CreateSession("shared")
	require.NoError(t, m.SetPreference("theme", "dark"))
	path := m.CurrentPath()
	assert.False(t, m.ExternallyModified())

	writeExternally(t, path, func(d *Data) {
		d.UserPreferences["theme"] = "light"
		d.UserPreferences["units"] = "um"
	})
	assert.True(t, m.ExternallyModified())

	changed, err := m.ReloadExternal()
	require.NoError(t, err)
	assert.True(t, changed)
	v, _ := m.Preference("theme")
	assert.Equal(t, "dark", v)
	v, _ = m.Preference("units")
	assert.Equal(t, "um", v)
	assert.False(t, m.ExternallyModified(), "merged result was written back")

	changed, err = m.ReloadExternal()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestReloadExternalLastModifiedWins(t *testing.T) {
	m := newManager(t)
	m.CreateSession("lmw")
	require.NoError(t, m.SetPreference("theme", "dark"))
	writeExternally(t, m.CurrentPath(), func(d *Data) {
		d.UserPreferences["theme"] = "light"
		d.LastModified = d.LastModified.Add(time.Hour)
	})
	changed, err := m.ReloadExternal()
	require.NoError(t, err)
	assert.True(t, changed)
	v, _ := m.Preference("theme")
	assert.Equal(t, "light", v)
}

func TestWatcherReportsReplacement(t *testing.T) {
	m := newManager(t)
	m.CreateSession("watched")
	require.NoError(t, m.SetPreference("k", 1))

	w, err := m.Watch(20 * time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, storage.WriteAtomic(m.CurrentPath(), []byte(`{"session_id":"watched"}`), storage.WriteOptions{}))
	select {
	case <-w.Changes():
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	require.NoError(t, w.Close())
	_, open := <-w.Changes()
	assert.False(t, open)
}

func TestNoSession(t *testing.T) {
	m := newManager(t)
	_, err := m.Save("")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, m.Current())
	assert.Nil(t, m.RecentFiles())
	_, err = m.UIModel("x")
	assert.ErrorIs(t, err, ErrNoSession)
	m.CreateSession("")
	assert.Len(t, m.Current().SessionID, 36)
	assert.Equal(t, m.Current().SessionID, m.SessionID())
	m.Clear()
	assert.Nil(t, m.Current())
	assert.Empty(t, m.SessionID())
}

func TestUnencodableValueLeavesSessionIntact(t *testing.T) {
	m := newManager(t)
	_, err := m.CreateSession("nan")
	require.NoError(t, err)
	require.NoError(t, m.SetPreference("ratio", 0.5))

	assert.Error(t, m.SetPreference("ratio", math.NaN()))
	assert.Error(t, m.SetProjectSetting("gate", math.Inf(1)))
	assert.Error(t, m.SetAnalysisResult("fit", map[string]any{"f": func() {}}))
	assert.Error(t, m.SaveWindowState(stateMap{"scale": math.NaN()}))

	v, ok := m.Preference("ratio")
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)
	_, ok = m.ProjectSetting("gate")
	assert.False(t, ok)
	_, ok = m.AnalysisResult("fit")
	assert.False(t, ok)

	require.NoError(t, m.AddRecentFile(touch(t, t.TempDir(), "a.fcs")))
	cur := m.Current()
	require.NotNil(t, cur)
	assert.Nil(t, cur.MainWindowState)

	_, err = (&Data{SessionID: "x", UserPreferences: map[string]any{"bad": math.NaN()}}).Clone()
	assert.Error(t, err)
}

type stateMap map[string]any

func (s stateMap) ToMap() map[string]any { return s }

func TestSessionIDMustStayInDir(t *testing.T) {
	m := newManager(t)
	for _, id := range []string{"../escape", "a/b", `a\b`, "..", ".", " ", "nul\x00"} {
		_, err := m.CreateSession(id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
	assert.Nil(t, m.Current(), "rejected ids must not replace the session")

	for _, id := range []string{"lab-42", "run.2024", "a..b"} {
		_, err := m.CreateSession(id)
		assert.NoError(t, err, id)
	}

	path := filepath.Join(t.TempDir(), "evil.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session_id":"../../etc/x"}`), 0o644))
	assert.ErrorIs(t, m.Load(path), ErrInvalidID)
	assert.Equal(t, "a..b", m.SessionID())
}
