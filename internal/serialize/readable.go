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

// readableHeader precedes every readable document.
const readableHeader = `# cellsorter UI definition (readable format)
#
# This file is meant to be edited by hand or by an assistant.
#  - Widget names must be unique across the whole tree and should be
#    snake_case identifiers of at least three characters (e.g. ok_button).
#  - Every layout item must name a widget that exists in this file.
#  - Grid layout items need both row and column.
#  - Event handlers should be named on_<widget>_<event> or handle_<event>.
#  - Omitted visible/enabled flags default to true.
#
# Run "cellsorter model validate <file>" after editing.
`

// ReadableCodec writes YAML with a guidance header.
type ReadableCodec struct {
	Clock Clock
}

// Readable returns the hand-editable codec.
func Readable() *ReadableCodec { return &ReadableCodec{} }

func (c *ReadableCodec) Format() Format { return FormatReadable }

// Serialize renders m as YAML with two-space indentation.
func (c *ReadableCodec) Serialize(m *ir.Model) ([]byte, error) {
	if m == nil {
		m = ir.NewModel()
	}
	doc := toReadable(m, stampedMetadata(m, c.Clock))
	var buf bytes.Buffer
	buf.WriteString(readableHeader)
	buf.WriteString("\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, &Error{Op: "serialize", Format: FormatReadable, Err: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &Error{Op: "serialize", Format: FormatReadable, Err: err}
	}
	return buf.Bytes(), nil
}

// Deserialize accepts readable documents and, transparently, compact ones.
func (c *ReadableCodec) Deserialize(data []byte) (*ir.Model, error) {
	return Decode(data)
}

func decodeReadable(data []byte) (*ir.Model, error) {
	var doc readableDoc
	var err error
	if isJSON(data) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &Error{Op: "deserialize", Format: FormatReadable, Err: err}
	}
	return stripStamp(fromReadable(&doc)), nil
}
