/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowsketch/internal/domain"
)

// quiet swaps stderr and the report dir for the duration of a test.
func quiet(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldDir := reportDir
	reportDir = func() string { return dir }
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
		reportDir = oldDir
	})
	t.Setenv("FLOWSKETCH_TELEMETRY_OPT_IN", "")
	return dir
}

func findFile(t *testing.T, dir, prefix, suffix string) string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(dir, e.Name())
		}
	}
	t.Fatalf("no %s*%s in %s", prefix, suffix, dir)
	return ""
}

func TestRecoverWritesReportAndAutosave(t *testing.T) {
	dir := quiet(t)
	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	defer func() { exitFn = oldExit }()

	d := domain.Diagram{ID: "d1", UserID: "u", Name: "Flow", Data: domain.Document{
		Nodes: []domain.Node{{ID: "a", Kind: domain.KindStart, Width: 100, Height: 60}},
	}}
	func() {
		defer Recover(func() (domain.Diagram, bool) { return d, true })
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	b, err := os.ReadFile(findFile(t, dir, "crash-", ".log"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"flowsketch crash report", "Panic: boom", "Diagram: d1 (1 nodes, 0 connections)"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("report missing %q:\n%s", want, b)
		}
	}
	ab, err := os.ReadFile(findFile(t, dir, "autosave-d1-", ".json"))
	if err != nil {
		t.Fatalf("read autosave: %v", err)
	}
	var got domain.Diagram
	if err := json.Unmarshal(ab, &got); err != nil {
		t.Fatalf("autosave json: %v", err)
	}
	if got.Name != "Flow" || len(got.Data.Nodes) != 1 {
		t.Fatalf("unexpected autosave: %+v", got)
	}
}

func TestRecoverWithoutPanicDoesNothing(t *testing.T) {
	dir := quiet(t)
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit must not be called without a panic")
	}
	if ents, _ := os.ReadDir(dir); len(ents) != 0 {
		t.Fatalf("no files expected, got %d", len(ents))
	}
}

func TestRecoverSurvivesPanickingSnapshot(t *testing.T) {
	dir := quiet(t)
	oldExit := exitFn
	exitFn = func(int) {}
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(func() (domain.Diagram, bool) { panic("snapshot broke") })
		panic("boom")
	}()
	findFile(t, dir, "crash-", ".log")
	ents, _ := os.ReadDir(dir)
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), "autosave-") {
			t.Fatalf("no autosave expected when the snapshot panics")
		}
	}
}
