/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package display probes the operating system for a usable graphical display.
//
// A Detector caches its result and is owned by the mode controller; there is no
// process-wide detector state. Probing order per OS:
//   - linux (and other unix): DISPLAY / WAYLAND_DISPLAY, then running display-server processes
//   - darwin: SSH session disqualifies, then WindowServer liveness, default available
//   - windows: interactive session query, then SSH disqualification, default available
//
// CELLSORTER_HAS_DISPLAY short-circuits all probing.
package display

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/mitchellh/go-ps"

	applog "cellsorter/internal/log"
)

// EnvHasDisplay forces the probe result ("1"/"true" or "0"/"false").
const EnvHasDisplay = "CELLSORTER_HAS_DISPLAY"

// Process names that indicate a running display server or compositor on unix systems.
var unixDisplayServers = []string{
	"Xorg", "X", "Xwayland", "Xvfb", "Xvnc", "Xephyr",
	"gnome-shell", "kwin_wayland", "kwin_x11", "sway", "weston", "mutter", "Hyprland",
}

// ProcessLister returns the executable names of running processes.
type ProcessLister func() ([]string, error)

// Option customises a Detector. Tests use these to fake the environment.
type Option func(*Detector)

// WithGOOS overrides the operating system used to select the probe strategy.
func WithGOOS(goos string) Option { return func(d *Detector) { d.goos = goos } }

// WithEnv overrides environment lookups.
func WithEnv(lookup func(string) string) Option { return func(d *Detector) { d.getenv = lookup } }

// WithProcessLister overrides the running-process probe.
func WithProcessLister(pl ProcessLister) Option { return func(d *Detector) { d.processes = pl } }

// Detector probes for a display and caches the result until Refresh.
type Detector struct {
	goos      string
	getenv    func(string) string
	processes ProcessLister
	log       *slog.Logger

	mu     sync.Mutex
	cached *bool
}

// NewDetector returns a Detector for the current OS.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		goos:      runtime.GOOS,
		getenv:    os.Getenv,
		processes: listProcesses,
		log:       applog.WithComponent("display"),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Available reports whether a display is usable. The first call probes; later
// calls return the cached value.
func (d *Detector) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached != nil {
		return *d.cached
	}
	v := d.probe()
	d.cached = &v
	return v
}

// Refresh discards the cached result and probes again.
func (d *Detector) Refresh() bool {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
	return d.Available()
}

func (d *Detector) probe() bool {
	if v, ok := parseBool(d.getenv(EnvHasDisplay)); ok {
		d.log.Debug("display override", slog.Bool("available", v))
		return v
	}
	var v bool
	switch d.goos {
	case "darwin":
		v = d.probeDarwin()
	case "windows":
		v = d.probeWindows()
	default:
		v = d.probeUnix()
	}
	d.log.Debug("display probed", slog.String("os", d.goos), slog.Bool("available", v))
	return v
}

func (d *Detector) probeUnix() bool {
	if strings.TrimSpace(d.getenv("DISPLAY")) != "" || strings.TrimSpace(d.getenv("WAYLAND_DISPLAY")) != "" {
		return true
	}
	names, err := d.processes()
	if err != nil {
		d.log.Debug("process probe failed", slog.Any("err", err))
		return false
	}
	return anyProcess(names, unixDisplayServers...)
}

func (d *Detector) probeDarwin() bool {
	if d.SSHSession() {
		return false
	}
	names, err := d.processes()
	if err != nil {
		return true
	}
	if len(names) == 0 {
		return true
	}
	return anyProcess(names, "WindowServer")
}

func (d *Detector) probeWindows() bool {
	// SESSIONNAME is "Console" for the local desktop, "RDP-Tcp#N" for remote desktop and
	// empty for service sessions (session 0).
	session := strings.TrimSpace(d.getenv("SESSIONNAME"))
	switch {
	case strings.EqualFold(session, "Console"), strings.HasPrefix(strings.ToUpper(session), "RDP-"):
		return true
	case strings.EqualFold(session, "Services"):
		return false
	}
	if d.SSHSession() {
		return false
	}
	names, err := d.processes()
	if err != nil || len(names) == 0 {
		return true
	}
	return anyProcess(names, "explorer.exe", "dwm.exe")
}

// SSHSession reports whether the process appears to run inside an SSH session.
// Advisory only.
func (d *Detector) SSHSession() bool {
	for _, k := range []string{"SSH_CLIENT", "SSH_TTY", "SSH_CONNECTION"} {
		if strings.TrimSpace(d.getenv(k)) != "" {
			return true
		}
	}
	return false
}

// VirtualDisplay reports whether the display looks virtual (Xvfb/VNC style): a
// high display index or VNC markers in the environment. Advisory only.
func (d *Detector) VirtualDisplay() bool {
	if d.getenv("VNCDESKTOP") != "" || d.getenv("VNC_DISPLAY") != "" {
		return true
	}
	disp := strings.TrimSpace(d.getenv("DISPLAY"))
	if disp == "" {
		return false
	}
	return displayIndex(disp) >= 10
}

// displayIndex parses "host:N.screen" and returns N, or -1.
func displayIndex(disp string) int {
	i := strings.LastIndex(disp, ":")
	if i < 0 {
		return -1
	}
	num := disp[i+1:]
	if j := strings.Index(num, "."); j >= 0 {
		num = num[:j]
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return -1
	}
	return n
}

// Info is a snapshot of all probe outputs, used by the mode-info command.
type Info struct {
	OS             string `json:"os"`
	Available      bool   `json:"available"`
	SSHSession     bool   `json:"ssh_session"`
	VirtualDisplay bool   `json:"virtual_display"`
	Display        string `json:"display,omitempty"`
	Wayland        string `json:"wayland_display,omitempty"`
}

// Info returns the cached availability together with the advisory heuristics.
func (d *Detector) Info() Info {
	return Info{
		OS:             d.goos,
		Available:      d.Available(),
		SSHSession:     d.SSHSession(),
		VirtualDisplay: d.VirtualDisplay(),
		Display:        d.getenv("DISPLAY"),
		Wayland:        d.getenv("WAYLAND_DISPLAY"),
	}
}

func listProcesses() ([]string, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		names = append(names, p.Executable())
	}
	return names, nil
}

func anyProcess(names []string, want ...string) bool {
	for _, n := range names {
		base := filepath.Base(n)
		for _, w := range want {
			if strings.EqualFold(base, w) {
				return true
			}
		}
	}
	return false
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
