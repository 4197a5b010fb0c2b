/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log is the slog setup shared by every cellsorter component. Records go to a
// console handler (or JSON) on stderr and, when a file is configured, to a rotating JSON
// file. Components take a child logger via WithComponent; the resolved display mode and the
// session id travel on the context.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"cellsorter/internal/version"
)

// Env var names read by FromEnv.
const (
	EnvLevel  = "CELLSORTER_LOG_LEVEL"
	EnvFormat = "CELLSORTER_LOG_FORMAT"
	EnvSource = "CELLSORTER_LOG_SOURCE"
	EnvFile   = "CELLSORTER_LOG_FILE"
)

// Rotation bounds the log file. Zero fields take the defaults below.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation keeps roughly 40 MB of history for four weeks.
var DefaultRotation = Rotation{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28, Compress: true}

// Options controls Init. Level is debug|info|warn|error, Format is console|json.
type Options struct {
	Level     string
	Format    string
	AddSource bool
	// File enables a rotating JSON log in addition to the console.
	File     string
	Rotation Rotation
	// Writer replaces stderr as the console destination.
	Writer io.Writer
	// NoColor disables level colors even on a terminal.
	NoColor bool
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	sink    *lj.Logger
)

// L returns the process logger, initialising it from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init replaces the process logger and slog.Default. A file sink from a previous Init is
// closed.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})
	} else {
		console = newConsoleHandler(out, lvl, opts.AddSource, !opts.NoColor && colorable(out))
	}
	handlers := []slog.Handler{withContextAttrs(console)}

	var file *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		file = rotatingFile(path, opts.Rotation)
		handlers = append(handlers, withContextAttrs(
			slog.NewJSONHandler(file, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})))
	}

	h := handlers[0]
	if len(handlers) > 1 {
		h = fanout(handlers)
	}
	logger := slog.New(h).With(
		slog.String("app", "cellsorter"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	prev := sink
	current, sink = logger, file
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(logger)
}

func rotatingFile(path string, r Rotation) *lj.Logger {
	d := DefaultRotation
	if r.MaxSizeMB > 0 {
		d.MaxSizeMB = r.MaxSizeMB
	}
	if r.MaxBackups > 0 {
		d.MaxBackups = r.MaxBackups
	}
	if r.MaxAgeDays > 0 {
		d.MaxAgeDays = r.MaxAgeDays
	}
	if r != (Rotation{}) {
		d.Compress = r.Compress
	}
	return &lj.Logger{Filename: path, MaxSize: d.MaxSizeMB, MaxBackups: d.MaxBackups, MaxAge: d.MaxAgeDays, Compress: d.Compress}
}

// Close flushes and closes the log file, if any. The console logger stays usable.
func Close() error {
	mu.Lock()
	f := sink
	sink = nil
	mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

// FromEnv reads the CELLSORTER_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     envOr(EnvLevel, "info"),
		Format:    envOr(EnvFormat, "console"),
		AddSource: truthy(os.Getenv(EnvSource)),
		File:      strings.TrimSpace(os.Getenv(EnvFile)),
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger tagged component=name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with op.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// WithSession tags l with the session id.
func WithSession(l *slog.Logger, id string) *slog.Logger { return l.With(slog.String("session", id)) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
