/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flowsketch/internal/config"
)

// isolate points every env override at nothing so the test only sees its own config.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{config.EnvUser, config.EnvLocale, config.EnvPalette, config.EnvStorageDriver, config.EnvStorageDir, config.EnvPgDSN, config.EnvLogFile} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml"), "--user", "ada"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

const sampleDoc = `{
  "nodes": [
    {"id": "a", "type": "start", "x": 10, "y": 10, "width": 100, "height": 60, "label": "Begin", "fillColor": "#0A0A0A", "borderColor": "#00FF99", "textColor": "#FFFFFF"},
    {"id": "b", "type": "process", "x": 200, "y": 10, "width": 100, "height": 60, "label": "Work", "fillColor": "#0A0A0A", "borderColor": "#00FF99", "textColor": "#FFFFFF"}
  ],
  "connections": [
    {"id": "c", "from": "a", "to": "b", "color": "#00FF99", "lineWidth": 2, "lineStyle": "solid"}
  ]
}`

func TestVersion(t *testing.T) {
	dir := isolate(t)
	if out := mustRun(t, dir, "version"); !strings.Contains(out, "flowsketch") {
		t.Fatalf("version output: %q", out)
	}
}

func TestDiagramLifecycle(t *testing.T) {
	dir := isolate(t)
	id := lastLine(mustRun(t, dir, "new", "Onboarding", "-d", "signup flow"))
	if id == "" {
		t.Fatal("no id printed")
	}
	if out := mustRun(t, dir, "list", "signup"); !strings.Contains(out, id) || !strings.Contains(out, "Onboarding") {
		t.Fatalf("list output missing diagram:\n%s", out)
	}
	if out := mustRun(t, dir, "list", "billing"); !strings.Contains(out, "No diagrams found") {
		t.Fatalf("filtered list should be empty:\n%s", out)
	}
	if out := mustRun(t, dir, "show", id); !strings.Contains(out, "Onboarding") || !strings.Contains(out, "signup flow") {
		t.Fatalf("show output:\n%s", out)
	}
	mustRun(t, dir, "delete", id)
	if _, err := run(t, dir, "show", id); err == nil {
		t.Fatal("expected show to fail after delete")
	}
}

func TestOtherUserCannotSeeDiagram(t *testing.T) {
	dir := isolate(t)
	id := lastLine(mustRun(t, dir, "new", "Private"))
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "config.yaml"), "--user", "eve", "show", id})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("foreign user loaded diagram:\n%s", out.String())
	}
}

func TestNewFromDocumentAndExport(t *testing.T) {
	dir := isolate(t)
	src := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(src, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	id := lastLine(mustRun(t, dir, "new", "Flow/1", "--from", src))
	if out := mustRun(t, dir, "show", id); !strings.Contains(out, "Begin") || !strings.Contains(out, "a") {
		t.Fatalf("show output:\n%s", out)
	}

	outDir := filepath.Join(dir, "out")
	mustRun(t, dir, "export", id, "--format", "web,pdf", "--out", outDir)
	for _, name := range []string{"Flow_1.png", "Flow_1.svg", "Flow_1.pdf"} {
		fi, err := os.Stat(filepath.Join(outDir, name))
		if err != nil || fi.Size() == 0 {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if _, err := run(t, dir, "export", id, "--format", "gif"); err == nil {
		t.Fatal("expected unknown format error")
	}
	if _, err := run(t, dir, "export", id, "--palette", "neon", "--out", outDir); err == nil {
		t.Fatal("expected unknown palette error")
	}
}

func TestReplaySavesOnlyWithFlag(t *testing.T) {
	dir := isolate(t)
	id := lastLine(mustRun(t, dir, "new", "Replay"))
	sc := filepath.Join(dir, "add.flow")
	if err := os.WriteFile(sc, []byte("# two nodes\nadd process\nadd decision\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if out := mustRun(t, dir, "replay", id, sc); !strings.Contains(out, "2 nodes") || !strings.Contains(out, "Dry run") {
		t.Fatalf("replay output:\n%s", out)
	}
	if out := mustRun(t, dir, "list", "--json"); !strings.Contains(out, `"Nodes": 0`) {
		t.Fatalf("dry run should not store:\n%s", out)
	}
	mustRun(t, dir, "replay", id, sc, "--save")
	if out := mustRun(t, dir, "list", "--json"); !strings.Contains(out, `"Nodes": 2`) {
		t.Fatalf("saved replay missing:\n%s", out)
	}

	bad := filepath.Join(dir, "bad.flow")
	if err := os.WriteFile(bad, []byte("add\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, dir, "replay", id, bad)
	if err == nil || !strings.Contains(out, "bad.flow:1:") {
		t.Fatalf("expected located parse error, got %v\n%s", err, out)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "config", "set", "storage.driver", "sqlite")
	mustRun(t, dir, "config", "set", "editor.palette", "paper")
	out := mustRun(t, dir, "config", "show")
	if !strings.Contains(out, "storage.driver=sqlite") || !strings.Contains(out, "editor.palette=paper") {
		t.Fatalf("config show:\n%s", out)
	}
	if _, err := run(t, dir, "config", "set", "storage.driver", "mongo"); err == nil {
		t.Fatal("expected invalid driver error")
	}

	// the sqlite store is now used end to end
	id := lastLine(mustRun(t, dir, "new", "In SQLite"))
	if out := mustRun(t, dir, "list"); !strings.Contains(out, id) {
		t.Fatalf("sqlite list:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "diagrams", "flowsketch.sqlite")); err != nil {
		t.Fatalf("sqlite file: %v", err)
	}
}

func TestPalettesIncludesUserFile(t *testing.T) {
	dir := isolate(t)
	yaml := "palettes:\n  - name: forest\n    background: \"#002200\"\n    fill: \"#004400\"\n    border: \"#88FF88\"\n    text: \"#FFFFFF\"\n    connection: \"#88FF88\"\n    lineWidth: 3\n    lineStyle: dotted\n"
	if err := os.WriteFile(filepath.Join(dir, "palettes.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, dir, "palettes")
	for _, want := range []string{"*terminal", "paper", "blueprint", "forest", "dotted"} {
		if !strings.Contains(out, want) {
			t.Fatalf("palettes output missing %q:\n%s", want, out)
		}
	}
}

func TestWatchFileDebounces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "d.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	calls := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() { done <- watchFile(ctx, p, 50*time.Millisecond, func() { calls <- struct{}{} }) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(p, []byte("{ }"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// unrelated files are ignored
	_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644)

	select {
	case <-calls:
	case <-ctx.Done():
		t.Fatal("watch callback never fired")
	}
	select {
	case <-calls:
		t.Fatal("burst of writes should fire once")
	case <-time.After(300 * time.Millisecond):
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watchFile: %v", err)
	}
}

func TestBundleAndImport(t *testing.T) {
	dir := isolate(t)
	src := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(src, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	id := lastLine(mustRun(t, dir, "new", "Shared", "--from", src))
	zipPath := filepath.Join(dir, "shared.zip")
	mustRun(t, dir, "bundle", id, zipPath, "--palette", "blueprint")

	other := isolate(t)
	out := mustRun(t, other, "import", zipPath, "--name", "Copy")
	newID := lastLine(out)
	if newID == id || !strings.Contains(out, "0 palette(s)") {
		t.Fatalf("import output:\n%s", out)
	}
	if out := mustRun(t, other, "show", newID); !strings.Contains(out, "Copy") || !strings.Contains(out, "Begin") {
		t.Fatalf("show imported:\n%s", out)
	}
}
