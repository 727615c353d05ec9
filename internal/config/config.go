// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/maitre-ia/sumy-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sumy configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Auth    AuthConfig    `toml:"auth" json:"auth"`
	History HistoryConfig `toml:"history" json:"history"`
	Session SessionConfig `toml:"session" json:"session"`
	Log     LogConfig     `toml:"log" json:"log"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// APIConfig configures the query service client.
type APIConfig struct {
	// BaseURL is the query service URL (default: http://127.0.0.1:8000)
	BaseURL string `toml:"base_url" json:"base_url"`

	// TimeoutSecs bounds each request at the transport (default: 60)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// RequestsPerSecond throttles outgoing requests (0 = unlimited)
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// Timeout returns TimeoutSecs as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// AuthConfig configures the identity provider.
type AuthConfig struct {
	// IdentityPath is the cached signed-in identity (default: ~/.sumy/user.json)
	IdentityPath string `toml:"identity_path" json:"identity_path"`

	// TokenSecret verifies identity tokens (HMAC)
	TokenSecret string `toml:"token_secret" json:"token_secret"`

	// TokenIssuer, when set, must match the token's "iss" claim
	TokenIssuer string `toml:"token_issuer" json:"token_issuer"`
}

// HistoryConfig configures conversation summary storage.
type HistoryConfig struct {
	// Backend is sqlite, redis, file or none (default: sqlite)
	Backend string `toml:"backend" json:"backend"`

	SQLitePath string `toml:"sqlite_path" json:"sqlite_path"`
	RedisURL   string `toml:"redis_url" json:"redis_url"`
	Dir        string `toml:"dir" json:"dir"`

	// MaxConversations is the per-user cap (default: 50)
	MaxConversations int `toml:"max_conversations" json:"max_conversations"`
}

// SessionConfig configures the chat session.
type SessionConfig struct {
	// SubmitPolicy is reject or cancel: what a submit does while a query
	// is in flight (default: reject)
	SubmitPolicy string `toml:"submit_policy" json:"submit_policy"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level      string `toml:"level" json:"level"`
	Format     string `toml:"format" json:"format"`
	OutputPath string `toml:"output_path" json:"output_path"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// Markdown renders inline emphasis in answers
	Markdown bool `toml:"markdown" json:"markdown"`

	// AltScreen runs the TUI in the alternate screen buffer
	AltScreen bool `toml:"alt_screen" json:"alt_screen"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://127.0.0.1:8000",
			TimeoutSecs: 60,
		},
		History: HistoryConfig{
			Backend:          "sqlite",
			MaxConversations: 50,
		},
		Session: SessionConfig{
			SubmitPolicy: "reject",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		UI: UIConfig{
			Markdown:  true,
			AltScreen: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the sumy configuration directory. SUMY_HOME overrides
// the default ~/.sumy.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SUMY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sumy"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads .env files, the config file when present, and the environment.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit config file. A missing file yields
// the defaults.
func LoadFromPath(path string) (*Config, error) {
	loadDotEnv(filepath.Dir(path))

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads ./.env and <configDir>/.env. Variables already set in the
// environment win, and missing files are ignored.
func loadDotEnv(configDir string) {
	for _, p := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// SetDefaults fills empty paths and zero values from the config directory.
func (c *Config) SetDefaults() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	def := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = def.API.TimeoutSecs
	}
	if c.Auth.IdentityPath == "" {
		c.Auth.IdentityPath = filepath.Join(dir, "user.json")
	}
	if c.History.Backend == "" {
		c.History.Backend = def.History.Backend
	}
	if c.History.SQLitePath == "" {
		c.History.SQLitePath = filepath.Join(dir, "history.db")
	}
	if c.History.Dir == "" {
		c.History.Dir = filepath.Join(dir, "history")
	}
	if c.History.MaxConversations == 0 {
		c.History.MaxConversations = def.History.MaxConversations
	}
	if c.Session.SubmitPolicy == "" {
		c.Session.SubmitPolicy = def.Session.SubmitPolicy
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Log.OutputPath == "" {
		c.Log.OutputPath = filepath.Join(dir, "logs", "sumy.log")
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path.
// SECURITY: the file holds the token secret, so it is written 0600.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# sumy configuration file\n")
	buf.WriteString("# Generated by sumy - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends  = map[string]bool{"sqlite": true, "redis": true, "file": true, "none": true}
	validPolicies  = map[string]bool{"reject": true, "cancel": true}
	validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats   = map[string]bool{"json": true, "console": true}
)

// Validate checks every section and returns all problems at once as
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", "invalid URL '%s', must be http(s)://host[:port]", c.API.BaseURL)
	}
	if c.API.TimeoutSecs < 0 || c.API.TimeoutSecs > 600 {
		add("api.timeout_secs", "must be between 0 and 600, got %d", c.API.TimeoutSecs)
	}
	if c.API.RequestsPerSecond < 0 {
		add("api.requests_per_second", "must not be negative, got %g", c.API.RequestsPerSecond)
	}

	backend := strings.ToLower(c.History.Backend)
	if !validBackends[backend] {
		add("history.backend", "invalid backend '%s', must be one of: sqlite, redis, file, none", c.History.Backend)
	}
	if backend == "redis" && c.History.RedisURL == "" {
		add("history.redis_url", "required when history.backend is redis")
	}
	if c.History.MaxConversations < 0 {
		add("history.max_conversations", "must not be negative, got %d", c.History.MaxConversations)
	}

	if !validPolicies[strings.ToLower(c.Session.SubmitPolicy)] {
		add("session.submit_policy", "invalid policy '%s', must be one of: reject, cancel", c.Session.SubmitPolicy)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		add("log.format", "invalid format '%s', must be one of: json, console", c.Log.Format)
	}
	if c.Log.OutputPath == "stdout" {
		add("log.output_path", "stdout is used by the terminal UI")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// envOverrides maps SUMY_* variables to dotted keys.
var envOverrides = []struct {
	env string
	key string
}{
	{"SUMY_API_URL", "api.base_url"},
	{"SUMY_API_TIMEOUT", "api.timeout_secs"},
	{"SUMY_API_RPS", "api.requests_per_second"},
	{"SUMY_IDENTITY_PATH", "auth.identity_path"},
	{"SUMY_TOKEN_SECRET", "auth.token_secret"},
	{"SUMY_TOKEN_ISSUER", "auth.token_issuer"},
	{"SUMY_HISTORY_BACKEND", "history.backend"},
	{"SUMY_SQLITE_PATH", "history.sqlite_path"},
	{"SUMY_REDIS_URL", "history.redis_url"},
	{"SUMY_SUBMIT_POLICY", "session.submit_policy"},
	{"SUMY_LOG_LEVEL", "log.level"},
	{"SUMY_LOG_FORMAT", "log.format"},
	{"SUMY_LOG_PATH", "log.output_path"},
}

// ApplyEnvOverrides applies SUMY_* environment variables. Values that do not
// parse for their field are ignored.
func (c *Config) ApplyEnvOverrides() {
	for _, o := range envOverrides {
		if v := os.Getenv(o.env); v != "" {
			_ = c.Set(o.key, v)
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// lookup returns the field named by a dotted key such as "api.base_url".
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// Get retrieves a configuration value using dot notation.
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// normalizeFieldName converts snake_case or kebab-case to a Go field name.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets field from value with string conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes")
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := section.Tag.Get("toml")
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	return key == "auth.token_secret" || key == "history.redis_url"
}

// String renders the configuration as TOML with secrets masked.
func (c *Config) String() string {
	masked := *c
	if masked.Auth.TokenSecret != "" {
		masked.Auth.TokenSecret = "********"
	}
	if u, err := url.Parse(masked.History.RedisURL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			masked.History.RedisURL = u.String()
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&masked); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
