/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package i18n

import (
	"testing"

	"flowsketch/internal/domain"
)

func TestEnglishKindLabels(t *testing.T) {
	l := New("en")
	if got := l.KindLabel(domain.KindText); got != "Text" {
		t.Fatalf("got %q want Text", got)
	}
	if got := l.KindLabel(domain.KindParallelogram); got != "Parallelogram" {
		t.Fatalf("got %q", got)
	}
}

func TestVietnameseLabels(t *testing.T) {
	l := New("vi")
	if got := l.KindLabel(domain.KindHexagon); got != "Lục giác" {
		t.Fatalf("got %q", got)
	}
	if got := l.ToolLabel("connect"); got != "Kết nối" {
		t.Fatalf("got %q", got)
	}
}

func TestFallbacks(t *testing.T) {
	if got := New("fr-CA").KindLabel(domain.KindCloud); got != "Cloud" {
		t.Fatalf("unknown locale should fall back to English, got %q", got)
	}
	if got := New("").KindLabel(domain.Kind("swimlane")); got != "swimlane" {
		t.Fatalf("unknown kind should fall back to raw name, got %q", got)
	}
	if len(Supported()) < 2 {
		t.Fatalf("expected en and vi, got %v", Supported())
	}
}
