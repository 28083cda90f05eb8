/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"flowsketch/internal/domain"
)

//go:embed diagram.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Validate checks doc against the embedded schema and rejects duplicate node ids.
// Violations are reported wrapped in ErrInvalidDocument.
func Validate(doc domain.Document) error {
	return ValidateJSON(mustJSON(doc.Clone()))
}

// ValidateJSON validates raw document bytes, e.g. a file about to be imported.
func ValidateJSON(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	seen := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidDocument, n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}

// Sanitize drops connections that reference missing nodes and reports how many went.
func Sanitize(doc domain.Document) (domain.Document, int) {
	ids := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		ids[n.ID] = true
	}
	out := doc.Clone()
	out.Connections = out.Connections[:0]
	for _, c := range doc.Connections {
		if ids[c.From] && ids[c.To] {
			out.Connections = append(out.Connections, c)
		}
	}
	return out, len(doc.Connections) - len(out.Connections)
}

func mustJSON(doc domain.Document) []byte {
	b, err := json.Marshal(doc)
	if err != nil {
		// Document holds only strings and float64s; NaN/Inf are the only failure.
		return []byte(`{"nodes":"unencodable"}`)
	}
	return b
}
