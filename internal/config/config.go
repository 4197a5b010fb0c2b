/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	applog "cellsorter/internal/log"
	"cellsorter/internal/mode"
	"cellsorter/internal/storage"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
}

type DisplayConfig struct {
	// Mode is used when no mode environment variable is set; empty means auto-detect.
	Mode string `yaml:"mode"`
}

// Conflict policies for sessions changed on disk by another process.
const (
	PolicyLastModifiedWins = "last_modified_wins"
	PolicyMerge            = "merge"
)

type SessionConfig struct {
	Dir            string `yaml:"dir"`
	AutoSave       bool   `yaml:"auto_save"`
	MaxRecentFiles int    `yaml:"max_recent_files"`
	ConflictPolicy string `yaml:"conflict_policy"`
	Catalog        bool   `yaml:"catalog"`
}

type ValidationConfig struct {
	Strict bool            `yaml:"strict"`
	Rules  map[string]bool `yaml:"rules"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int              `yaml:"config_version"`
	General       GeneralConfig    `yaml:"general"`
	Display       DisplayConfig    `yaml:"display"`
	Session       SessionConfig    `yaml:"session"`
	Validation    ValidationConfig `yaml:"validation"`
	Logging       LoggingConfig    `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Session:       SessionConfig{AutoSave: true, MaxRecentFiles: 10, ConflictPolicy: PolicyLastModifiedWins, Catalog: true},
		Validation:    ValidationConfig{Rules: map[string]bool{}},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvSessionDir       = "CELLSORTER_SESSION_DIR"
	EnvAutoSave         = "CELLSORTER_AUTO_SAVE"
	EnvMaxRecent        = "CELLSORTER_MAX_RECENT"
	EnvConflictPolicy   = "CELLSORTER_CONFLICT_POLICY"
	EnvStrictValidation = "CELLSORTER_STRICT_VALIDATION"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "CELLSORTER_LOG_LEVEL"
	EnvLogFormat = "CELLSORTER_LOG_FORMAT"
	EnvLogSource = "CELLSORTER_LOG_SOURCE"
	EnvLogFile   = "CELLSORTER_LOG_FILE"
)

func appDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CellSorter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CellSorter")
	default: // linux and others
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "cellsorter")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultSessionDir is used when session.dir is empty.
func DefaultSessionDir() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path, false)
}

// LoadFrom is Load with an explicit file. With required set a missing file is an error.
func LoadFrom(path string, required bool) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg, data)
	case required || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return storage.WriteAtomic(path, data, storage.WriteOptions{Perm: 0o600})
}

// Validate reports values the rest of the application would reject.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Display.Mode != "" {
		if _, err := mode.Parse(c.Display.Mode); err != nil {
			errs = append(errs, fmt.Errorf("display.mode: %w", err))
		}
	}
	switch c.Session.ConflictPolicy {
	case PolicyLastModifiedWins, PolicyMerge:
	default:
		errs = append(errs, fmt.Errorf("session.conflict_policy: unknown policy %q (want %s|%s)",
			c.Session.ConflictPolicy, PolicyLastModifiedWins, PolicyMerge))
	}
	if c.Session.MaxRecentFiles <= 0 {
		errs = append(errs, fmt.Errorf("session.max_recent_files must be positive, got %d", c.Session.MaxRecentFiles))
	}
	return errors.Join(errs...)
}

// LogOptions converts the logging section for applog.Init.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{Level: c.Logging.Level, Format: c.Logging.Format, AddSource: c.Logging.Source, File: c.Logging.File}
}

// SessionDir returns session.dir or the per-user default.
func (c AppConfig) SessionDir() (string, error) {
	if c.Session.Dir != "" {
		return c.Session.Dir, nil
	}
	return DefaultSessionDir()
}

// mergeInto copies file values over defaults. raw is consulted for booleans whose default is
// true, so an absent key keeps the default instead of turning into false.
func mergeInto(dst *AppConfig, src *AppConfig, raw []byte) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	if v := strings.TrimSpace(src.Display.Mode); v != "" {
		dst.Display.Mode = strings.ToLower(v)
	}
	// session
	if src.Session.Dir != "" {
		dst.Session.Dir = src.Session.Dir
	}
	if src.Session.MaxRecentFiles != 0 {
		dst.Session.MaxRecentFiles = src.Session.MaxRecentFiles
	}
	if v := strings.TrimSpace(src.Session.ConflictPolicy); v != "" {
		dst.Session.ConflictPolicy = strings.ToLower(v)
	}
	var present struct {
		Session map[string]any `yaml:"session"`
	}
	_ = yaml.Unmarshal(raw, &present)
	if _, ok := present.Session["auto_save"]; ok {
		dst.Session.AutoSave = src.Session.AutoSave
	}
	if _, ok := present.Session["catalog"]; ok {
		dst.Session.Catalog = src.Session.Catalog
	}
	// validation
	dst.Validation.Strict = src.Validation.Strict
	for k, v := range src.Validation.Rules {
		dst.Validation.Rules[strings.ToLower(strings.TrimSpace(k))] = v
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvSessionDir)); v != "" {
		cfg.Session.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutoSave)); v != "" {
		cfg.Session.AutoSave = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxRecent)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.MaxRecentFiles = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvConflictPolicy)); v != "" {
		cfg.Session.ConflictPolicy = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStrictValidation)); v != "" {
		cfg.Validation.Strict = truthy(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"session.dir":              EnvSessionDir,
	"session.auto_save":        EnvAutoSave,
	"session.max_recent_files": EnvMaxRecent,
	"session.conflict_policy":  EnvConflictPolicy,
	"validation.strict":        EnvStrictValidation,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
