/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsorter/internal/ir"
	"cellsorter/internal/serialize"
	"cellsorter/internal/session"
	"cellsorter/internal/version"
)

// isolate points HOME and every CELLSORTER_* override at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AppData", home)
	for _, k := range []string{
		"CELLSORTER_SESSION_DIR", "CELLSORTER_AUTO_SAVE", "CELLSORTER_MAX_RECENT",
		"CELLSORTER_CONFLICT_POLICY", "CELLSORTER_STRICT_VALIDATION",
		"CELLSORTER_MODE", "CELLSORTER_DISPLAY_MODE", "CELLSORTER_DEV_MODE",
		"CELLSORTER_DUAL_MODE", "CELLSORTER_FORCE_HEADLESS", "CELLSORTER_LOG_FILE",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("CELLSORTER_LOG_LEVEL", "error")
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.String())
}

func TestSessionCreateLoadSave(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "sessions")

	out, err := run(t, "--dir", dir, "session", "create", "--id", "lab-a")
	require.NoError(t, err)
	assert.Contains(t, out, "Created session lab-a")
	src := filepath.Join(dir, "session_lab-a.json")
	require.FileExists(t, src)

	copyPath := filepath.Join(home, "copy.json")
	out, err = run(t, "--dir", dir, "session", "save", copyPath, "--from", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved session lab-a")

	out, err = run(t, "--dir", dir, "session", "load", copyPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Session lab-a")
	assert.Contains(t, out, "(none)")

	out, err = run(t, "--dir", dir, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "lab-a")
}

func TestSessionCreateRejectsPathLikeID(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "sessions")

	_, err := run(t, "--dir", dir, "session", "create", "--id", "../../outside")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrInvalidID)
	assert.NoFileExists(t, filepath.Join(dir, "outside.json"))
	assert.NoFileExists(t, filepath.Join(home, "outside.json"))
}

func TestSessionLoadMissingFile(t *testing.T) {
	home := isolate(t)
	_, err := run(t, "--dir", home, "session", "load", filepath.Join(home, "nope.json"))
	require.Error(t, err)
}

func TestSessionListWithCatalogDisabled(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("session:\n  catalog: false\n"), 0o600))

	_, err := run(t, "--config", cfgPath, "--dir", home, "session", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog is disabled")
}

func TestModelExportAndValidate(t *testing.T) {
	home := isolate(t)
	out := filepath.Join(home, "ui.json")

	stdout, err := run(t, "model", "export", out, "--schema")
	require.NoError(t, err)
	assert.Contains(t, stdout, "default main window")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "$schema")

	stdout, err = run(t, "model", "validate", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "validation passed")
}

func TestModelExportRejectsMinifiedReadable(t *testing.T) {
	home := isolate(t)
	_, err := run(t, "model", "export", filepath.Join(home, "ui.yaml"), "--format", "readable", "--minify")
	require.Error(t, err)
}

func TestModelImportIntoSessionThenExport(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "sessions")
	_, err := run(t, "--dir", dir, "session", "create", "--id", "lab-b")
	require.NoError(t, err)
	sessionPath := filepath.Join(dir, "session_lab-b.json")

	in := filepath.Join(home, "panel.yaml")
	m := ir.NewModel()
	m.Root = ir.NewWidget("side_panel", ir.KindWidget)
	m.Root.AddChild(ir.NewWidget("apply_button", ir.KindPushButton).SetProperty("text", "Apply"))
	require.NoError(t, serialize.SaveFile(in, m, nil))

	stdout, err := run(t, "--dir", dir, "model", "import", in, "--session", sessionPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, `Stored as "panel"`)

	stdout, err = run(t, "--dir", dir, "session", "load", sessionPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "panel")

	out := filepath.Join(home, "panel_out.json")
	stdout, err = run(t, "--dir", dir, "model", "export", out, "--session", sessionPath, "--name", "panel")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 2 widget(s)")

	got, err := serialize.LoadFile(out)
	require.NoError(t, err)
	require.NotNil(t, got.Find("apply_button"))

	stdout, err = run(t, "--dir", dir, "session", "history", sessionPath, "--name", "panel")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 version(s)")
}

func TestModelValidateStrictPromotesWarnings(t *testing.T) {
	home := isolate(t)
	in := filepath.Join(home, "odd.yaml")
	m := ir.NewModel()
	m.Root = ir.NewWidget("main_window", ir.KindMainWindow)
	m.Root.AddChild(ir.NewWidget("OkButton", ir.KindPushButton))
	require.NoError(t, serialize.SaveFile(in, m, nil))

	stdout, err := run(t, "model", "validate", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "snake_case")

	_, err = run(t, "model", "validate", in, "--strict")
	require.ErrorIs(t, err, errValidationFailed)
}

func TestModelValidateMissingReference(t *testing.T) {
	home := isolate(t)
	in := filepath.Join(home, "broken.yaml")
	m := ir.NewModel()
	m.Root = ir.NewWidget("main_window", ir.KindMainWindow)
	m.Root.AddChild(ir.NewWidget("status_label", ir.KindLabel))
	m.Root.SetLayout(ir.LayoutVBox).AddItem(ir.LayoutItem{Widget: "ghost_widget"})
	require.NoError(t, serialize.SaveFile(in, m, nil))

	stdout, err := run(t, "model", "validate", in)
	require.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, stdout, ir.CodeMissingWidgetRef)

	_, err = run(t, "model", "import", in)
	require.ErrorIs(t, err, errValidationFailed)
}

func TestModeInfoJSON(t *testing.T) {
	isolate(t)
	t.Setenv("CELLSORTER_MODE", "headless")

	stdout, err := run(t, "mode-info", "--json")
	require.NoError(t, err)
	var info modeInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "headless", info.Mode)
	assert.Equal(t, "mode_override", info.Source)
	assert.False(t, info.RequiresGUI)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("session:\n  conflict_policy: newest\n"), 0o600))

	_, err := run(t, "--config", cfgPath, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict_policy")
}

func TestPrinterPlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, false)
	p.Field("mode", "gui")
	assert.False(t, p.color)
	assert.Equal(t, "  mode:            gui\n", buf.String())
}

func TestModelRenderOffscreen(t *testing.T) {
	home := isolate(t)
	in := filepath.Join(home, "main.yaml")
	_, err := run(t, "model", "export", in)
	require.NoError(t, err)

	extracted := filepath.Join(home, "extracted.json")
	stdout, err := run(t, "model", "render", in, "--out", extracted)
	require.NoError(t, err)
	assert.Contains(t, stdout, "main_toolbar (tool_bar)")
	assert.Contains(t, stdout, "status_label (label)")

	got, err := serialize.LoadFile(extracted)
	require.NoError(t, err)
	assert.NotNil(t, got.Find("image_panel"))
}
