// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigrun-diffs/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete rigrun-diffs configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	Loader   LoaderConfig   `toml:"loader" json:"loader" yaml:"loader"`
	Renderer RendererConfig `toml:"renderer" json:"renderer" yaml:"renderer"`
	State    StateConfig    `toml:"state" json:"state" yaml:"state"`
	Server   ServerConfig   `toml:"server" json:"server" yaml:"server"`
	Watch    WatchConfig    `toml:"watch" json:"watch" yaml:"watch"`
}

// LoaderConfig controls file reads.
type LoaderConfig struct {
	// MaxConcurrency bounds parallel reads per batch.
	MaxConcurrency int `toml:"max_concurrency" json:"max_concurrency" yaml:"max_concurrency"`
	// CacheEntries is the number of files kept in the content cache. 0 disables it.
	CacheEntries int `toml:"cache_entries" json:"cache_entries" yaml:"cache_entries"`
	// CacheBytes is the content cache byte budget.
	CacheBytes int64 `toml:"cache_bytes" json:"cache_bytes" yaml:"cache_bytes"`
}

// RendererConfig holds the defaults sent to the renderer.
type RendererConfig struct {
	DiffStyle           string `toml:"diff_style" json:"diff_style" yaml:"diff_style"`
	Overflow            string `toml:"overflow" json:"overflow" yaml:"overflow"`
	ThemeDark           string `toml:"theme_dark" json:"theme_dark" yaml:"theme_dark"`
	ThemeLight          string `toml:"theme_light" json:"theme_light" yaml:"theme_light"`
	EnableLineSelection bool   `toml:"enable_line_selection" json:"enable_line_selection" yaml:"enable_line_selection"`
	// DetectLanguage fills the lang field from the static extension table.
	DetectLanguage bool `toml:"detect_language" json:"detect_language" yaml:"detect_language"`
}

// StateConfig controls the diff state cache.
type StateConfig struct {
	// MaxEntries bounds the number of cached messages. 0 is unbounded.
	MaxEntries int `toml:"max_entries" json:"max_entries" yaml:"max_entries"`
}

// ServerConfig controls the renderer host.
type ServerConfig struct {
	Host string `toml:"host" json:"host" yaml:"host"`
	Port int    `toml:"port" json:"port" yaml:"port"`
	// RateLimit is requests per second per client IP. 0 disables limiting.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `toml:"rate_burst" json:"rate_burst" yaml:"rate_burst"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// CurrentVersion is written into new configuration files.
const CurrentVersion = "1"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Loader: LoaderConfig{
			MaxConcurrency: 10,
			CacheEntries:   100,
			CacheBytes:     64 * 1024 * 1024,
		},
		Renderer: RendererConfig{
			DiffStyle:           string(model.StyleSplit),
			Overflow:            string(model.OverflowScroll),
			ThemeDark:           "pierre-dark",
			ThemeLight:          "pierre-light",
			EnableLineSelection: true,
		},
		State: StateConfig{
			MaxEntries: 500,
		},
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      7420,
			RateLimit: 20,
			RateBurst: 40,
		},
		Watch: WatchConfig{
			DebounceMS: 150,
		},
	}
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Loader.MaxConcurrency == 0 {
		c.Loader.MaxConcurrency = d.Loader.MaxConcurrency
	}
	if c.Loader.CacheBytes == 0 {
		c.Loader.CacheBytes = d.Loader.CacheBytes
	}
	if c.Renderer.DiffStyle == "" {
		c.Renderer.DiffStyle = d.Renderer.DiffStyle
	}
	if c.Renderer.Overflow == "" {
		c.Renderer.Overflow = d.Renderer.Overflow
	}
	if c.Renderer.ThemeDark == "" {
		c.Renderer.ThemeDark = d.Renderer.ThemeDark
	}
	if c.Renderer.ThemeLight == "" {
		c.Renderer.ThemeLight = d.Renderer.ThemeLight
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.RateBurst == 0 && c.Server.RateLimit > 0 {
		c.Server.RateBurst = int(c.Server.RateLimit * 2)
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = d.Watch.DebounceMS
	}
}

// Migrate normalizes values written by older versions.
func (c *Config) Migrate() error {
	// "side-by-side" was the original name of the split layout.
	switch strings.ToLower(c.Renderer.DiffStyle) {
	case "side-by-side", "sidebyside":
		c.Renderer.DiffStyle = string(model.StyleSplit)
	case "inline":
		c.Renderer.DiffStyle = string(model.StyleUnified)
	}
	c.Renderer.DiffStyle = strings.ToLower(c.Renderer.DiffStyle)
	c.Renderer.Overflow = strings.ToLower(c.Renderer.Overflow)
	return nil
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the configuration directory, ~/.rigrun-diffs.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigrun-diffs"), nil
}

// candidatePaths lists the files Load tries, in order.
func candidatePaths() []string {
	dir, err := Dir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the first configuration file found in Dir, or uses defaults
// when there is none. Environment overrides are applied last.
func Load() (*Config, error) {
	for _, path := range candidatePaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath loads one file. The format is chosen by extension; anything
// other than .json, .yaml or .yml is read as TOML.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := Default()
	if err := decode(cfg, data, formatOf(path)); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Format is a configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

func decode(cfg *Config, data []byte, format Format) error {
	switch format {
	case FormatJSON:
		return json.Unmarshal(data, cfg)
	case FormatYAML:
		return yaml.Unmarshal(data, cfg)
	default:
		_, err := toml.Decode(string(data), cfg)
		return err
	}
}

// =============================================================================
// WRITING
// =============================================================================

// Encode writes cfg to w in the given format.
func (c *Config) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(c)
	default:
		return toml.NewEncoder(w).Encode(c)
	}
}

// Save writes cfg to path, choosing the format by extension. The file is
// written owner-only.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	format := formatOf(path)
	if format == FormatTOML {
		buf.WriteString("# rigrun-diffs configuration\n\n")
	}
	if err := c.Encode(&buf, format); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid field.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Loader.MaxConcurrency < 1 || c.Loader.MaxConcurrency > 256 {
		add("loader.max_concurrency", "must be between 1 and 256, got %d", c.Loader.MaxConcurrency)
	}
	if c.Loader.CacheEntries < 0 {
		add("loader.cache_entries", "cannot be negative")
	}
	if c.Loader.CacheBytes < 0 {
		add("loader.cache_bytes", "cannot be negative")
	}

	if _, err := model.ParseDiffStyle(c.Renderer.DiffStyle); err != nil {
		add("renderer.diff_style", "%v", err)
	}
	if _, err := model.ParseOverflowMode(c.Renderer.Overflow); err != nil {
		add("renderer.overflow", "%v", err)
	}

	if c.State.MaxEntries < 0 {
		add("state.max_entries", "cannot be negative")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		add("server.rate_limit", "cannot be negative")
	}
	if c.Server.RateBurst < 0 {
		add("server.rate_burst", "cannot be negative")
	}

	if c.Watch.DebounceMS < 0 || c.Watch.DebounceMS > 60000 {
		add("watch.debounce_ms", "must be between 0 and 60000, got %d", c.Watch.DebounceMS)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DiffStyle returns the parsed default style.
func (c *Config) DiffStyle() model.DiffStyle {
	s, err := model.ParseDiffStyle(c.Renderer.DiffStyle)
	if err != nil {
		return model.StyleSplit
	}
	return s
}

// Overflow returns the parsed default overflow mode.
func (c *Config) Overflow() model.OverflowMode {
	m, err := model.ParseOverflowMode(c.Renderer.Overflow)
	if err != nil {
		return model.OverflowScroll
	}
	return m
}

// Addr returns host:port for the server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - RIGRUN_DIFFS_MAX_CONCURRENCY: loader.max_concurrency
//   - RIGRUN_DIFFS_STYLE: renderer.diff_style
//   - RIGRUN_DIFFS_OVERFLOW: renderer.overflow
//   - RIGRUN_DIFFS_DETECT_LANGUAGE: renderer.detect_language ("1" or "true")
//   - RIGRUN_DIFFS_STATE_MAX: state.max_entries
//   - RIGRUN_DIFFS_HOST: server.host
//   - RIGRUN_DIFFS_PORT: server.port
//   - RIGRUN_DIFFS_RATE_LIMIT: server.rate_limit
//   - RIGRUN_DIFFS_DEBOUNCE_MS: watch.debounce_ms
//
// Unparseable numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	envInt("RIGRUN_DIFFS_MAX_CONCURRENCY", &c.Loader.MaxConcurrency)
	if v := os.Getenv("RIGRUN_DIFFS_STYLE"); v != "" {
		c.Renderer.DiffStyle = v
	}
	if v := os.Getenv("RIGRUN_DIFFS_OVERFLOW"); v != "" {
		c.Renderer.Overflow = v
	}
	if v := os.Getenv("RIGRUN_DIFFS_DETECT_LANGUAGE"); v != "" {
		c.Renderer.DetectLanguage = v == "1" || strings.EqualFold(v, "true")
	}
	envInt("RIGRUN_DIFFS_STATE_MAX", &c.State.MaxEntries)
	if v := os.Getenv("RIGRUN_DIFFS_HOST"); v != "" {
		c.Server.Host = v
	}
	envInt("RIGRUN_DIFFS_PORT", &c.Server.Port)
	if v := os.Getenv("RIGRUN_DIFFS_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Server.RateLimit = f
		}
	}
	envInt("RIGRUN_DIFFS_DEBOUNCE_MS", &c.Watch.DebounceMS)
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
// Load errors fall back to defaults with a warning on stderr.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting forgets the process-wide configuration.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
