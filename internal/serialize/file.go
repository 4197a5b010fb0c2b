/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package serialize

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cellsorter/internal/ir"
	applog "cellsorter/internal/log"
	"cellsorter/internal/storage"
)

// FormatForPath picks a codec from the file extension: .yaml/.yml readable, .json compact.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatReadable, nil
	case ".json":
		return FormatCompact, nil
	}
	return "", fmt.Errorf("%w: extension of %q", ErrUnknownFormat, path)
}

// SaveFile serialises m with codec (chosen from the extension when nil) and writes it atomically.
func SaveFile(path string, m *ir.Model, codec Codec) error {
	if codec == nil {
		f, err := FormatForPath(path)
		if err != nil {
			return &Error{Op: "write", Path: path, Err: err}
		}
		if codec, err = ForFormat(string(f)); err != nil {
			return &Error{Op: "write", Path: path, Err: err}
		}
	}
	data, err := codec.Serialize(m)
	if err != nil {
		return err
	}
	if err := storage.WriteAtomic(path, data, storage.WriteOptions{}); err != nil {
		return &Error{Op: "write", Format: codec.Format(), Path: path, Err: err}
	}
	applog.WithComponent("serialize").Debug("model saved",
		slog.String("path", path), slog.String("format", string(codec.Format())), slog.Int("bytes", len(data)))
	return nil
}

// LoadFile reads a UI definition in either format.
func LoadFile(path string) (*ir.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}
	m, err := Decode(data)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Path == "" {
			se.Path = path
		}
		return nil, err
	}
	return m, nil
}
