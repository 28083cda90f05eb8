/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package i18n provides localized names for node kinds, tools and editor
// actions. Message files are embedded; English is the fallback language.
package i18n

import (
	"embed"
	"log/slog"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"flowsketch/internal/domain"
	applog "flowsketch/internal/log"
)

//go:embed locales/*.yaml
var locales embed.FS

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
)

func loadBundle() *goi18n.Bundle {
	bundleOnce.Do(func() {
		l := applog.WithOperation(applog.WithComponent("i18n"), "load")
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
		for _, f := range []string{"locales/en.yaml", "locales/vi.yaml"} {
			if _, err := b.LoadMessageFileFS(locales, f); err != nil {
				l.Error("message file rejected", slog.String("file", f), slog.Any("err", err))
			}
		}
		bundle = b
	})
	return bundle
}

// Supported lists the embedded languages.
func Supported() []language.Tag { return loadBundle().LanguageTags() }

// Localizer resolves message ids for one preferred locale.
type Localizer struct {
	loc *goi18n.Localizer
}

// New returns a localizer for locale (e.g. "vi", "en-US"). Unknown or empty
// locales fall back to English.
func New(locale string) *Localizer {
	return &Localizer{loc: goi18n.NewLocalizer(loadBundle(), locale, language.English.String())}
}

// Text returns the message for id, or fallback when no language has it.
func (l *Localizer) Text(id, fallback string) string {
	s, err := l.loc.Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil || s == "" {
		return fallback
	}
	return s
}

// KindLabel is the default label for a new node of kind k.
func (l *Localizer) KindLabel(k domain.Kind) string { return l.Text("kind_"+string(k), string(k)) }

// ToolLabel names a pointer tool for toolbars and help output.
func (l *Localizer) ToolLabel(tool string) string { return l.Text("tool_"+tool, tool) }
