/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics in the CLI and UI entrypoints into a crash
// report plus an autosave of the open diagram.
package crash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"flowsketch/internal/config"
	"flowsketch/internal/domain"
	applog "flowsketch/internal/log"
	"flowsketch/internal/telemetry"
	"flowsketch/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// reportDir is <config dir>/crash, or the temp dir when the config dir is unusable.
var reportDir = func() string {
	if d, err := config.Dir(); err == nil {
		return filepath.Join(d, "crash")
	}
	return os.TempDir()
}

// Snapshot returns the diagram to autosave; ok is false when nothing is open.
type Snapshot func() (d domain.Diagram, ok bool)

// Recover captures a panic, logs an error with stacktrace, writes an error
// report file, autosaves the snapshot (when provided) and exits with code 2.
//
// Usage: defer crash.Recover(snapshot)
func Recover(snapshot Snapshot) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	dir := reportDir()
	var (
		d  domain.Diagram
		ok bool
	)
	if snapshot != nil {
		d, ok = safeSnapshot(snapshot)
	}
	report, reportPath, err := writeReport(dir, r, stack, d, ok)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if ok {
		if path, err := autosave(dir, d); err != nil {
			l.Error("autosave failed", slog.Any("err", err))
		} else {
			l.Info("autosave written", slog.String("path", path))
			_, _ = fmt.Fprintf(os.Stderr, "Your diagram was autosaved to: %s\n", path)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := telemetry.New(telemetry.FromEnv()).UploadCrash(ctx, report); err != nil {
		l.Warn("crash upload failed", slog.Any("err", err))
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\n", version.String())
	exitFn(2)
}

// safeSnapshot guards against the snapshot itself panicking on broken state.
func safeSnapshot(fn Snapshot) (d domain.Diagram, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return fn()
}

func writeReport(dir string, panicVal any, stack []byte, d domain.Diagram, hasDiagram bool) ([]byte, string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "flowsketch crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if hasDiagram {
		_, _ = fmt.Fprintf(&buf, "Diagram: %s (%d nodes, %d connections)\n", d.ID, len(d.Data.Nodes), len(d.Data.Connections))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return buf.Bytes(), path, fmt.Errorf("ensure crash dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return buf.Bytes(), path, fmt.Errorf("write crash report: %w", err)
	}
	return buf.Bytes(), path, nil
}

// autosave writes the diagram in its storage JSON form so it can be imported again.
func autosave(dir string, d domain.Diagram) (string, error) {
	id := d.ID
	if id == "" {
		id = "unsaved"
	}
	path := filepath.Join(dir, fmt.Sprintf("autosave-%s-%s.json", id, time.Now().Format("20060102-150405")))
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal autosave: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure crash dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	return path, nil
}
