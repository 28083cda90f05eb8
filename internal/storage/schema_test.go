/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"testing"

	"flowsketch/internal/domain"
)

func TestValidateAcceptsEmptyAndSample(t *testing.T) {
	if err := Validate(domain.Document{}); err != nil {
		t.Fatalf("empty document should be valid: %v", err)
	}
	if err := Validate(sampleDoc()); err != nil {
		t.Fatalf("sample should be valid: %v", err)
	}
}

func TestValidateJSONRejects(t *testing.T) {
	cases := map[string]string{
		"missing connections": `{"nodes":[]}`,
		"node without id":     `{"nodes":[{"type":"start","x":0,"y":0,"width":1,"height":1}],"connections":[]}`,
		"negative width":      `{"nodes":[{"id":"a","type":"start","x":0,"y":0,"width":-1,"height":1}],"connections":[]}`,
		"line too wide":       `{"nodes":[],"connections":[{"id":"c","from":"a","to":"b","lineWidth":11}]}`,
		"duplicate node ids":  `{"nodes":[{"id":"a","type":"start","x":0,"y":0,"width":1,"height":1},{"id":"a","type":"end","x":0,"y":0,"width":1,"height":1}],"connections":[]}`,
		"not json":            `{`,
	}
	for name, raw := range cases {
		if err := ValidateJSON([]byte(raw)); !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("%s: want ErrInvalidDocument, got %v", name, err)
		}
	}
}

func TestValidateAllowsUnknownKind(t *testing.T) {
	raw := `{"nodes":[{"id":"a","type":"blob","x":0,"y":0,"width":1,"height":1}],"connections":[]}`
	if err := ValidateJSON([]byte(raw)); err != nil {
		t.Fatalf("unknown kinds render as rectangles and must load: %v", err)
	}
}

func TestSanitize(t *testing.T) {
	doc := sampleDoc()
	doc.Connections = append(doc.Connections, domain.Connection{ID: "c2", From: "a", To: "zzz"})
	out, dropped := Sanitize(doc)
	if dropped != 1 || len(out.Connections) != 1 || out.Connections[0].ID != "c1" {
		t.Fatalf("Sanitize = %+v, dropped %d", out.Connections, dropped)
	}
	if len(doc.Connections) != 2 {
		t.Fatalf("input must not be modified")
	}
}
