/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package serialize converts UI models to and from text. Two interchangeable
// codecs are provided: a readable YAML format with a guidance header meant
// for hand (or assistant) editing, and a compact JSON format for programmatic
// exchange. Each codec decodes the other's output.
package serialize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cellsorter/internal/ir"
)

// Format names a codec.
type Format string

const (
	FormatReadable Format = "readable"
	FormatCompact  Format = "compact"
)

// MetaSerializedAt is the metadata key holding the serialization timestamp.
// It is injected on encode and stripped on decode.
const MetaSerializedAt = "serialized_at"

// Codec serialises models.
type Codec interface {
	Format() Format
	Serialize(m *ir.Model) ([]byte, error)
	Deserialize(data []byte) (*ir.Model, error)
}

// Error wraps IO and parse failures with the operation and format.
type Error struct {
	Op     string // serialize|deserialize|read|write
	Format Format
	Path   string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Format != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Format))
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrUnknownFormat is returned when a document matches neither codec.
var ErrUnknownFormat = errors.New("unrecognised UI definition format")

type formatError struct {
	msg string
	id  int
}

func (e *formatError) Error() string { return fmt.Sprintf("%s (widget id %d)", e.msg, e.id) }

// Clock returns the serialization timestamp.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }

func stampedMetadata(m *ir.Model, clock Clock) map[string]any {
	meta := make(map[string]any, len(m.Metadata)+1)
	for k, v := range m.Metadata {
		meta[k] = v
	}
	if clock == nil {
		clock = defaultClock
	}
	meta[MetaSerializedAt] = clock().UTC().Format(time.RFC3339)
	return meta
}

func stripStamp(m *ir.Model) *ir.Model {
	delete(m.Metadata, MetaSerializedAt)
	return m
}

// ForFormat returns the codec for a format name. Compact output is pretty-printed.
func ForFormat(name string) (Codec, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatReadable, "yaml", "yml":
		return Readable(), nil
	case FormatCompact, "json":
		return Compact(CompactOptions{Pretty: true}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// DetectFormat inspects a document and reports which codec produced it.
func DetectFormat(data []byte) (Format, error) {
	var probe map[string]any
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", ErrUnknownFormat
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return "", err
		}
	} else if err := yaml.Unmarshal(trimmed, &probe); err != nil {
		return "", err
	}
	if _, ok := probe["widgets"]; ok {
		return FormatCompact, nil
	}
	if _, ok := probe["root_widget"]; ok {
		return FormatReadable, nil
	}
	if _, ok := probe["version"]; ok {
		// An empty readable model carries a null root.
		return FormatReadable, nil
	}
	return "", ErrUnknownFormat
}

// Decode deserialises a document produced by either codec.
func Decode(data []byte) (*ir.Model, error) {
	f, err := DetectFormat(data)
	if err != nil {
		return nil, &Error{Op: "deserialize", Err: err}
	}
	if f == FormatCompact {
		return decodeCompact(data)
	}
	return decodeReadable(data)
}

func isJSON(data []byte) bool {
	t := bytes.TrimSpace(data)
	return len(t) > 0 && t[0] == '{'
}
