/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package serialize

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"cellsorter/internal/ir"
)

// CompactOptions controls compact output.
type CompactOptions struct {
	// Pretty indents with two spaces; otherwise output is minified.
	Pretty bool
	// IncludeSchema embeds a $schema reference to the compact JSON schema.
	IncludeSchema bool
	Clock         Clock
}

// CompactCodec writes the flat widgets/layouts/events JSON format.
type CompactCodec struct {
	opts CompactOptions
}

// Compact returns the programmatic codec.
func Compact(opts CompactOptions) *CompactCodec { return &CompactCodec{opts: opts} }

func (c *CompactCodec) Format() Format { return FormatCompact }

// Serialize renders m as compact JSON terminated by a newline.
func (c *CompactCodec) Serialize(m *ir.Model) ([]byte, error) {
	if m == nil {
		m = ir.NewModel()
	}
	doc := toCompact(m, stampedMetadata(m, c.opts.Clock))
	if c.opts.IncludeSchema {
		doc.Schema = SchemaID
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if c.opts.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return nil, &Error{Op: "serialize", Format: FormatCompact, Err: err}
	}
	return buf.Bytes(), nil
}

// Deserialize accepts compact documents and, transparently, readable ones.
func (c *CompactCodec) Deserialize(data []byte) (*ir.Model, error) {
	return Decode(data)
}

func decodeCompact(data []byte) (*ir.Model, error) {
	var doc compactDoc
	var err error
	if isJSON(data) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &Error{Op: "deserialize", Format: FormatCompact, Err: err}
	}
	m, err := fromCompact(&doc)
	if err != nil {
		return nil, &Error{Op: "deserialize", Format: FormatCompact, Err: err}
	}
	return stripStamp(m), nil
}

// CompactDocument returns the compact representation as a generic JSON value,
// without a timestamp. Used for embedding models in other documents and for
// schema checks.
func CompactDocument(m *ir.Model) (json.RawMessage, error) {
	meta := make(map[string]any, len(m.Metadata))
	for k, v := range m.Metadata {
		meta[k] = v
	}
	delete(meta, MetaSerializedAt)
	b, err := json.Marshal(toCompact(m, meta))
	if err != nil {
		return nil, &Error{Op: "serialize", Format: FormatCompact, Err: err}
	}
	return b, nil
}
