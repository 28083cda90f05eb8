/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTrackAndUploadCrash(t *testing.T) {
	var mu sync.Mutex
	var events [][]byte
	var crashes [][]byte

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		events = append(events, b)
		mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		crashes = append(crashes, b)
		mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}
	c.Track("export", map[string]int{"nodes": 3})
	c.Close() // drains the queue

	mu.Lock()
	got := events
	mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected one event, got %d", len(got))
	}
	var ev Event
	if err := json.Unmarshal(got[0], &ev); err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	if ev.Name != "export" || ev.Counts["nodes"] != 3 || ev.TS == "" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	if err := c.UploadCrash(context.Background(), []byte("STACKTRACE")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(crashes) != 1 || string(crashes[0]) != "STACKTRACE" {
		t.Fatalf("unexpected crash uploads: %q", crashes)
	}
}

func TestDisabledSendsNothing(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL})
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	c.Track("ignored", nil)
	if err := c.UploadCrash(context.Background(), []byte("x")); err != nil {
		t.Fatalf("disabled upload should be a no-op: %v", err)
	}
	c.Close()

	c2 := New(Config{OptIn: true, EventsURL: srv.URL})
	c2.Track("", nil)
	c2.Close()
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
	var nilClient *Client
	nilClient.Track("x", nil)
}

func TestUploadCrashReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := New(Config{OptIn: true, CrashURL: srv.URL})
	defer c.Close()
	if err := c.UploadCrash(context.Background(), []byte("x")); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvOptIn, "yes")
	t.Setenv(EnvEventsURL, " http://127.0.0.1:9/events ")
	t.Setenv(EnvCrashURL, "")
	t.Setenv(EnvTimeoutMS, "100")
	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "http://127.0.0.1:9/events" || cfg.Timeout != 100*time.Millisecond {
		t.Fatalf("FromEnv did not parse correctly: %+v", cfg)
	}
}
