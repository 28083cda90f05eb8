/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous usage counts and crash reports.
// Nothing is sent unless FLOWSKETCH_TELEMETRY_OPT_IN is set and a URL is
// configured. Events carry only integer counters, never labels or names.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "flowsketch/internal/log"
	"flowsketch/internal/version"
)

const (
	EnvOptIn     = "FLOWSKETCH_TELEMETRY_OPT_IN"
	EnvEventsURL = "FLOWSKETCH_TELEMETRY_URL"
	EnvCrashURL  = "FLOWSKETCH_CRASH_UPLOAD_URL"
	EnvTimeoutMS = "FLOWSKETCH_TELEMETRY_TIMEOUT_MS"
)

// Config holds runtime configuration for telemetry and crash uploads.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
}

func FromEnv() Config {
	cfg := Config{
		OptIn:     parseBool(os.Getenv(EnvOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:  strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:   1500 * time.Millisecond,
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMS)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil && v > 0 {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Event is the JSON body posted for one usage event.
type Event struct {
	Name    string         `json:"name"`
	TS      string         `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Counts  map[string]int `json:"counts,omitempty"`
}

// Client is an async event sender with a bounded queue; it drops events on
// errors or when the queue is full so callers never block.
type Client struct {
	cfg  Config
	log  *slog.Logger
	cli  *http.Client
	q    chan Event
	wg   sync.WaitGroup
	once sync.Once
}

// New constructs a client and starts its sender.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	c := &Client{
		cfg: cfg,
		log: applog.WithComponent("telemetry"),
		cli: &http.Client{Timeout: cfg.Timeout},
		q:   make(chan Event, 64),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// Enabled reports whether events are sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Track queues an event such as "export" with counters like {"nodes": 12}.
func (c *Client) Track(name string, counts map[string]int) {
	if !c.Enabled() || name == "" {
		return
	}
	ev := Event{
		Name:    name,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.Version,
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		Counts:  counts,
	}
	select {
	case c.q <- ev:
	default:
		c.log.Debug("telemetry queue full, event dropped", slog.String("event", name))
	}
}

// Close stops accepting events and waits for queued ones to be sent.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.q) })
	c.wg.Wait()
}

func (c *Client) loop() {
	defer c.wg.Done()
	for ev := range c.q {
		buf, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := c.post(context.Background(), c.cfg.EventsURL, "application/json", buf); err != nil {
			c.log.Debug("telemetry send failed", slog.Any("err", err))
		}
	}
}

// UploadCrash posts a crash report synchronously. The process is usually
// about to exit, so there is no background queue here.
func (c *Client) UploadCrash(ctx context.Context, report []byte) error {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return nil
	}
	return c.post(ctx, c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

func (c *Client) post(ctx context.Context, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint returned %s", resp.Status)
	}
	return nil
}
