/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package mode resolves whether the process runs with a real display (GUI),
// without one (HEADLESS) or with both kept in sync (DUAL).
package mode

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	applog "cellsorter/internal/log"
)

// Mode is the resolved display mode.
type Mode int

const (
	Unset Mode = iota
	GUI
	Headless
	Dual
)

func (m Mode) String() string {
	switch m {
	case GUI:
		return "gui"
	case Headless:
		return "headless"
	case Dual:
		return "dual"
	default:
		return "unset"
	}
}

// Environment variables consulted during resolution, in priority order.
const (
	EnvDisplayMode   = "CELLSORTER_DISPLAY_MODE"   // gui|headless
	EnvMode          = "CELLSORTER_MODE"           // gui|production|dev|headless|dual|both|debug
	EnvDevMode       = "CELLSORTER_DEV_MODE"       // legacy boolean: true means headless
	EnvDualMode      = "CELLSORTER_DUAL_MODE"      // boolean
	EnvForceHeadless = "CELLSORTER_FORCE_HEADLESS" // boolean
)

// ciVars are standard CI indicators; any non-empty, non-false value forces HEADLESS.
var ciVars = []string{
	"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL",
	"TRAVIS", "CIRCLECI", "BUILDKITE", "TF_BUILD", "TEAMCITY_VERSION",
}

// ErrLocked is wrapped by ConfigError when a change is attempted on a locked controller.
var ErrLocked = errors.New("mode is locked")

// ConfigError reports an invalid override value or forced combination.
type ConfigError struct {
	Var    string
	Value  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Var != "" {
		return fmt.Sprintf("mode config: %s=%q: %s", e.Var, e.Value, e.Reason)
	}
	return "mode config: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DisplayProbe is the subset of the display detector the controller needs.
type DisplayProbe interface {
	Available() bool
}

// Source names the rule that produced the resolved mode.
type Source string

const (
	SourceDisplayOverride Source = "display_override"
	SourceModeOverride    Source = "mode_override"
	SourceConfig          Source = "config"
	SourceLegacyDev       Source = "legacy_dev_flag"
	SourceDualFlag        Source = "dual_flag"
	SourceForceHeadless   Source = "force_headless"
	SourceCI              Source = "ci"
	SourceDetector        Source = "detector"
	SourceDefault         Source = "default"
	SourceExplicit        Source = "explicit"
)

// Controller owns the resolved mode. The zero state is Unset; the first
// Resolve or Set moves it to GUI, HEADLESS or DUAL where it stays until
// Unlock or a forced Set.
type Controller struct {
	detector   DisplayProbe
	getenv     func(string) string
	configured string
	log        *slog.Logger

	mu     sync.Mutex
	mode   Mode
	source Source
	locked bool
}

// Option customises a Controller.
type Option func(*Controller)

// WithEnv overrides environment lookups.
func WithEnv(lookup func(string) string) Option { return func(c *Controller) { c.getenv = lookup } }

// WithConfigured supplies the mode from the config file. Every environment source,
// CI indicators included, outranks it; only the display detector ranks lower.
func WithConfigured(v string) Option { return func(c *Controller) { c.configured = v } }

// NewController returns an unresolved controller that consults detector as
// its last probe before the GUI default.
func NewController(detector DisplayProbe, opts ...Option) *Controller {
	c := &Controller{detector: detector, getenv: os.Getenv, log: applog.WithComponent("mode")}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Mode returns the current mode, resolving it on first use. Resolution errors
// degrade to HEADLESS so callers that only query never see a GUI by accident;
// call Resolve to observe the error.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	m := c.mode
	c.mu.Unlock()
	if m != Unset {
		return m
	}
	m, err := c.Resolve()
	if err != nil {
		c.log.Warn("mode resolution failed, falling back to headless", slog.Any("err", err))
		c.mu.Lock()
		if c.mode == Unset {
			c.mode, c.source = Headless, SourceDefault
		}
		m = c.mode
		c.mu.Unlock()
	}
	return m
}

// Source returns the rule that decided the current mode.
func (c *Controller) Source() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Resolve computes the mode from the environment and detector. A mode that is
// already resolved is returned unchanged.
func (c *Controller) Resolve() (Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Unset {
		return c.mode, nil
	}
	m, src, err := c.resolveLocked()
	if err != nil {
		return Unset, err
	}
	c.mode, c.source = m, src
	c.log.Info("mode resolved", slog.String("mode", m.String()), slog.String("source", string(src)))
	return m, nil
}

// Reresolve discards the current mode and resolves again. It honours the lock
// unless force is set.
func (c *Controller) Reresolve(force bool) (Mode, error) {
	c.mu.Lock()
	if c.locked && !force {
		c.mu.Unlock()
		return c.Mode(), &ConfigError{Reason: "cannot re-resolve", Err: ErrLocked}
	}
	c.mode = Unset
	c.mu.Unlock()
	return c.Resolve()
}

func (c *Controller) resolveLocked() (Mode, Source, error) {
	displayOverride := strings.ToLower(strings.TrimSpace(c.getenv(EnvDisplayMode)))
	if displayOverride != "" {
		var m Mode
		switch displayOverride {
		case "gui":
			m = GUI
		case "headless":
			m = Headless
		default:
			return Unset, "", &ConfigError{Var: EnvDisplayMode, Value: displayOverride, Reason: "expected gui or headless"}
		}
		if m == GUI && truthy(c.getenv(EnvForceHeadless)) {
			return Unset, "", &ConfigError{Var: EnvDisplayMode, Value: displayOverride, Reason: "conflicts with " + EnvForceHeadless}
		}
		return m, SourceDisplayOverride, nil
	}
	if v := strings.TrimSpace(c.getenv(EnvMode)); v != "" {
		m, err := Parse(v)
		if err != nil {
			return Unset, "", &ConfigError{Var: EnvMode, Value: v, Reason: err.Error()}
		}
		return m, SourceModeOverride, nil
	}
	if v := strings.TrimSpace(c.getenv(EnvDevMode)); v != "" {
		if truthy(v) {
			return Headless, SourceLegacyDev, nil
		}
		return GUI, SourceLegacyDev, nil
	}
	if truthy(c.getenv(EnvDualMode)) {
		return Dual, SourceDualFlag, nil
	}
	if truthy(c.getenv(EnvForceHeadless)) {
		return Headless, SourceForceHeadless, nil
	}
	if c.InCI() {
		return Headless, SourceCI, nil
	}
	if v := strings.TrimSpace(c.configured); v != "" {
		m, err := Parse(v)
		if err != nil {
			return Unset, "", &ConfigError{Var: "display.mode", Value: v, Reason: err.Error()}
		}
		return m, SourceConfig, nil
	}
	if c.detector != nil && !c.detector.Available() {
		return Headless, SourceDetector, nil
	}
	return GUI, SourceDefault, nil
}

// InCI reports whether any standard CI indicator variable is set.
func (c *Controller) InCI() bool {
	for _, k := range ciVars {
		v := strings.ToLower(strings.TrimSpace(c.getenv(k)))
		if v != "" && v != "0" && v != "false" && v != "no" {
			return true
		}
	}
	return false
}

// Set changes the mode explicitly. A locked controller rejects the change unless
// force is true. Requesting GUI or DUAL while the detector reports no display
// is an invalid combination unless forced.
func (c *Controller) Set(m Mode, force bool) error {
	if m == Unset {
		return &ConfigError{Reason: "cannot set mode to unset"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked && !force {
		return &ConfigError{Reason: fmt.Sprintf("cannot change mode to %s", m), Err: ErrLocked}
	}
	if !force && (m == GUI || m == Dual) && c.detector != nil && !c.detector.Available() {
		return &ConfigError{Reason: fmt.Sprintf("%s mode requested but no display is available", m)}
	}
	prev := c.mode
	c.mode, c.source = m, SourceExplicit
	c.log.Info("mode set", slog.String("from", prev.String()), slog.String("to", m.String()), slog.Bool("force", force))
	return nil
}

// Lock prevents further mode changes.
func (c *Controller) Lock() {
	c.mu.Lock()
	c.locked = true
	c.mu.Unlock()
}

// Unlock allows mode changes again.
func (c *Controller) Unlock() {
	c.mu.Lock()
	c.locked = false
	c.mu.Unlock()
}

// Locked reports whether the controller rejects unforced changes.
func (c *Controller) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// RequiresGUI reports whether a live window must be created (GUI or DUAL).
func (c *Controller) RequiresGUI() bool {
	m := c.Mode()
	return m == GUI || m == Dual
}

// RequiresHeadless reports whether the headless IR path is active (HEADLESS or DUAL).
func (c *Controller) RequiresHeadless() bool {
	m := c.Mode()
	return m == Headless || m == Dual
}

// Parse maps an override value to a Mode.
func Parse(v string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "gui", "production":
		return GUI, nil
	case "headless", "dev", "debug":
		return Headless, nil
	case "dual", "both":
		return Dual, nil
	}
	return Unset, fmt.Errorf("unknown mode %q (want gui|production|dev|headless|dual|both|debug)", v)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
