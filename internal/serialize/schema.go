/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package serialize

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"cellsorter/internal/ir"
)

// SchemaID is the $schema reference embedded by the compact codec.
const SchemaID = "urn:cellsorter:schema:ui-compact:1.0"

//go:embed schema/ui-compact.schema.json
var compactSchema []byte

// CompactSchema returns the JSON schema for the compact format.
func CompactSchema() []byte { return append([]byte(nil), compactSchema...) }

// SchemaViolation is one schema error with its JSON field path.
type SchemaViolation struct {
	Field       string
	Description string
}

func (v SchemaViolation) String() string { return fmt.Sprintf("%s: %s", v.Field, v.Description) }

// ValidateCompactJSON checks a compact document against the schema.
func ValidateCompactJSON(data []byte) ([]SchemaViolation, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(compactSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &Error{Op: "validate", Format: FormatCompact, Err: err}
	}
	if res.Valid() {
		return nil, nil
	}
	out := make([]SchemaViolation, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, SchemaViolation{Field: e.Field(), Description: e.Description()})
	}
	return out, nil
}

// ValidateModelSchema encodes m in the compact form and checks it against the schema.
func ValidateModelSchema(m *ir.Model) ([]SchemaViolation, error) {
	doc, err := CompactDocument(m)
	if err != nil {
		return nil, err
	}
	return ValidateCompactJSON(doc)
}
