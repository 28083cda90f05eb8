/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	Locale string `yaml:"locale"` // "en", "vi", ...
	User   string `yaml:"user"`   // owner id for new and listed diagrams
}

type EditorConfig struct {
	Palette      string `yaml:"palette"`
	CanvasWidth  int    `yaml:"canvas_width"`
	CanvasHeight int    `yaml:"canvas_height"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "file" | "sqlite" | "postgres"
	Dir    string `yaml:"dir"`    // file store root or sqlite directory
	// DSN is the postgres connection string. The literal ${PASSWORD} is replaced
	// with the password kept in the OS keyring.
	DSN string `yaml:"dsn"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	passwordPlaceholder = "${PASSWORD}"
)

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Locale: "en", User: defaultUser()},
		Editor:        EditorConfig{Palette: "terminal", CanvasWidth: 2000, CanvasHeight: 2000},
		Storage:       StorageConfig{Driver: DriverFile},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

func defaultUser() string {
	for _, k := range []string{"USER", "USERNAME"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return "local"
}

// Env var names used as overrides.
const (
	EnvConfigDir     = "FLOWSKETCH_CONFIG_DIR"
	EnvUser          = "FLOWSKETCH_USER"
	EnvLocale        = "FLOWSKETCH_LOCALE"
	EnvPalette       = "FLOWSKETCH_PALETTE"
	EnvStorageDriver = "FLOWSKETCH_STORAGE_DRIVER"
	EnvStorageDir    = "FLOWSKETCH_STORAGE_DIR"
	EnvPgDSN         = "FLOWSKETCH_PG_DSN"

	EnvLogLevel  = "FLOWSKETCH_LOG_LEVEL"
	EnvLogFormat = "FLOWSKETCH_LOG_FORMAT"
	EnvLogSource = "FLOWSKETCH_LOG_SOURCE"
	EnvLogFile   = "FLOWSKETCH_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "flowsketch"
	keyringPassword = "db_password"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

// TokenStore is the secret storage used for the database password.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// Dir returns the per-user config directory. FLOWSKETCH_CONFIG_DIR wins when set.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Flowsketch")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Flowsketch")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "flowsketch")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "flowsketch")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// PalettesPath returns the optional user palette file next to the config.
func PalettesPath() (string, error) {
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "palettes.yaml"), nil
}

// Load reads the user config file (if present) from the default location.
// See LoadFrom.
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path (a missing file yields defaults), merges
// environment overrides and fills relative storage paths. The database
// password comes from the keyring and is returned separately.
func LoadFrom(path string) (AppConfig, string, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return cfg, "", err
	}
	applyEnvOverrides(&cfg)
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = filepath.Join(filepath.Dir(path), "diagrams")
	}
	pw, _ := tokenStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// ReadFile returns the defaults merged with the file at path, without
// environment overrides. `flowsketch config set` edits this view so env values
// never leak into the file.
func ReadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// Keys lists the settable keys in Describe order.
var Keys = []string{
	"general.user", "general.locale", "editor.palette", "editor.canvas_width", "editor.canvas_height",
	"storage.driver", "storage.dir", "storage.dsn",
	"logging.level", "logging.format", "logging.source", "logging.file",
}

// Set assigns one key, e.g. Set("storage.driver", "sqlite").
func (c *AppConfig) Set(key, value string) error {
	value = strings.TrimSpace(value)
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return n, nil
	}
	var err error
	switch key {
	case "general.user":
		c.General.User = value
	case "general.locale":
		c.General.Locale = value
	case "editor.palette":
		c.Editor.Palette = value
	case "editor.canvas_width":
		c.Editor.CanvasWidth, err = atoi()
	case "editor.canvas_height":
		c.Editor.CanvasHeight, err = atoi()
	case "storage.driver":
		switch v := strings.ToLower(value); v {
		case DriverFile, DriverSQLite, DriverPostgres:
			c.Storage.Driver = v
		default:
			err = fmt.Errorf("unknown storage driver %q", value)
		}
	case "storage.dir":
		c.Storage.Dir = value
	case "storage.dsn":
		c.Storage.DSN = value
	case "logging.level":
		c.Logging.Level = strings.ToLower(value)
	case "logging.format":
		c.Logging.Format = strings.ToLower(value)
	case "logging.source":
		c.Logging.Source = parseBool(value)
	case "logging.file":
		c.Logging.File = value
	default:
		err = fmt.Errorf("unknown config key %q", key)
	}
	return err
}

// Save writes the config YAML to path and persists the password into the OS keyring (if non-empty).
func Save(path string, cfg AppConfig, password string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringPassword, password); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
	}
	return nil
}

// ForgetPassword removes the database password from the keyring.
func ForgetPassword() error {
	err := tokenStore.Delete(keyringService, keyringPassword)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ResolvedDSN substitutes the keyring password into the DSN.
func (s StorageConfig) ResolvedDSN(password string) string {
	return strings.ReplaceAll(s.DSN, passwordPlaceholder, password)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.General.Locale); v != "" {
		dst.General.Locale = v
	}
	if v := strings.TrimSpace(src.General.User); v != "" {
		dst.General.User = v
	}
	if v := strings.TrimSpace(src.Editor.Palette); v != "" {
		dst.Editor.Palette = v
	}
	if src.Editor.CanvasWidth > 0 {
		dst.Editor.CanvasWidth = src.Editor.CanvasWidth
	}
	if src.Editor.CanvasHeight > 0 {
		dst.Editor.CanvasHeight = src.Editor.CanvasHeight
	}
	if v := strings.TrimSpace(src.Storage.Driver); v != "" {
		dst.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Storage.Dir); v != "" {
		dst.Storage.Dir = v
	}
	if v := strings.TrimSpace(src.Storage.DSN); v != "" {
		dst.Storage.DSN = v
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvUser)); v != "" {
		cfg.General.User = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLocale)); v != "" {
		cfg.General.Locale = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPalette)); v != "" {
		cfg.Editor.Palette = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDir)); v != "" {
		cfg.Storage.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPgDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
// Used by `flowsketch config` to annotate effective values.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"general.user":   EnvUser,
		"general.locale": EnvLocale,
		"editor.palette": EnvPalette,
		"storage.driver": EnvStorageDriver,
		"storage.dir":    EnvStorageDir,
		"storage.dsn":    EnvPgDSN,
		"logging.level":  EnvLogLevel,
		"logging.format": EnvLogFormat,
		"logging.source": EnvLogSource,
		"logging.file":   EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Validate reports configuration that cannot work.
func (c AppConfig) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return errors.New("storage.dir is required")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage.dsn is required for postgres (or set %s)", EnvPgDSN)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.General.User) == "" {
		return errors.New("general.user is required")
	}
	if c.Editor.CanvasWidth <= 0 || c.Editor.CanvasHeight <= 0 {
		return errors.New("editor canvas size must be positive")
	}
	return nil
}

// Describe lists effective values as key=value lines, noting env overrides.
func (c AppConfig) Describe() []string {
	rows := []struct{ k, v string }{
		{"general.user", c.General.User},
		{"general.locale", c.General.Locale},
		{"editor.palette", c.Editor.Palette},
		{"editor.canvas", strconv.Itoa(c.Editor.CanvasWidth) + "x" + strconv.Itoa(c.Editor.CanvasHeight)},
		{"storage.driver", c.Storage.Driver},
		{"storage.dir", c.Storage.Dir},
		{"storage.dsn", c.Storage.DSN},
		{"logging.level", c.Logging.Level},
		{"logging.format", c.Logging.Format},
		{"logging.file", c.Logging.File},
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		line := r.k + "=" + r.v
		if env, ok := EnvOverrideFor(r.k); ok {
			line += " (from " + env + ")"
		}
		out = append(out, line)
	}
	return out
}
