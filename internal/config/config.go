package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".preflight.yaml"

// Config represents the preflight configuration.
type Config struct {
	Format      string        `yaml:"format"`
	HistoryFile string        `yaml:"historyFile"`
	AuditLog    string        `yaml:"auditLog"`
	RulesFile   string        `yaml:"rulesFile,omitempty"`
	Diff        DiffConfig    `yaml:"diff"`
	File        FileConfig    `yaml:"file"`
	Prompt      PromptConfig  `yaml:"prompt"`
	Rules       RulesConfig   `yaml:"rules"`
	Privacy     PrivacyConfig `yaml:"privacy"`
	Watch       WatchConfig   `yaml:"watch"`
}

// DiffConfig controls diff and tree audits.
type DiffConfig struct {
	MaxWarnings int      `yaml:"maxWarnings"`
	Exclude     []string `yaml:"exclude,omitempty"`
}

// FileConfig controls single-file audits.
type FileConfig struct {
	MaxWarnings int `yaml:"maxWarnings"`
}

// PromptConfig controls prompt audits.
type PromptConfig struct {
	DuplicateThreshold float64 `yaml:"duplicateThreshold"`
	DuplicateWindow    int     `yaml:"duplicateWindow"`
	ConflictWindow     int     `yaml:"conflictWindow"`
	AppendStandards    bool    `yaml:"appendStandards"`
	// Standards replaces the built-in coding-standards block when set.
	Standards string `yaml:"standards,omitempty"`
}

// RulesConfig tunes rule suppression.
type RulesConfig struct {
	EnvMarkers        []string `yaml:"envMarkers,omitempty"`
	SkipSQLExtensions []string `yaml:"skipSqlExtensions,omitempty"`
}

// PrivacyConfig controls snippet redaction.
type PrivacyConfig struct {
	RedactSnippets bool     `yaml:"redactSnippets"`
	RedactPaths    []string `yaml:"redactPaths,omitempty"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	DebounceMs int `yaml:"debounceMs"`
}

var validFormats = []string{"text", "json", "markdown", "sarif"}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:      "text",
		HistoryFile: filepath.Join(".ai-workflow", "context", "PROMPT_HISTORY.md"),
		AuditLog:    filepath.Join(".ai-workflow", "context", "audit.log"),
		Diff: DiffConfig{
			MaxWarnings: 10,
		},
		File: FileConfig{
			MaxWarnings: 5,
		},
		Prompt: PromptConfig{
			DuplicateThreshold: 0.6,
			DuplicateWindow:    10,
			ConflictWindow:     5,
			AppendStandards:    true,
		},
		Privacy: PrivacyConfig{
			RedactSnippets: true,
			RedactPaths:    []string{"**/.env", "**/*secrets*"},
		},
		Watch: WatchConfig{
			DebounceMs: 300,
		},
	}
}

// Path returns the project config file path: PREFLIGHT_CONFIG when set,
// otherwise .preflight.yaml in the working directory.
func Path() string {
	if p := os.Getenv("PREFLIGHT_CONFIG"); p != "" {
		return p
	}
	return FileName
}

// LoadFile decodes the file at path on top of the defaults. A missing file
// yields the defaults and nil error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags, keyed like SetField; empty values
// are ignored.
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile(Path())
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables to config keys.
var envKeys = []struct{ env, key string }{
	{"PREFLIGHT_FORMAT", "format"},
	{"PREFLIGHT_HISTORY_FILE", "historyFile"},
	{"PREFLIGHT_AUDIT_LOG", "auditLog"},
	{"PREFLIGHT_RULES_FILE", "rulesFile"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k, v := range overrides {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := SetField(cfg, k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if !contains(validFormats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %s", c.Format, strings.Join(validFormats, ", "))
	}
	if c.Prompt.DuplicateThreshold < 0 || c.Prompt.DuplicateThreshold > 1 {
		return fmt.Errorf("prompt.duplicateThreshold must be between 0 and 1, got %v", c.Prompt.DuplicateThreshold)
	}
	for name, n := range map[string]int{
		"diff.maxWarnings":       c.Diff.MaxWarnings,
		"file.maxWarnings":       c.File.MaxWarnings,
		"prompt.duplicateWindow": c.Prompt.DuplicateWindow,
		"prompt.conflictWindow":  c.Prompt.ConflictWindow,
		"watch.debounceMs":       c.Watch.DebounceMs,
	} {
		if n < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, n)
		}
	}
	return nil
}

// Keys lists every key accepted by SetField.
func Keys() []string {
	return []string{
		"format", "historyFile", "auditLog", "rulesFile",
		"diff.maxWarnings", "diff.exclude",
		"file.maxWarnings",
		"prompt.duplicateThreshold", "prompt.duplicateWindow", "prompt.conflictWindow",
		"prompt.appendStandards", "prompt.standards",
		"rules.envMarkers", "rules.skipSqlExtensions",
		"privacy.redactSnippets", "privacy.redactPaths",
		"watch.debounceMs",
	}
}

// SetField sets a single config field by key name. List values are
// comma-separated. Returns error if key is unknown or the value does not parse.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		if !contains(validFormats, value) {
			return fmt.Errorf("invalid format %q: must be one of %s", value, strings.Join(validFormats, ", "))
		}
		cfg.Format = value
	case "historyFile":
		cfg.HistoryFile = value
	case "auditLog":
		cfg.AuditLog = value
	case "rulesFile":
		cfg.RulesFile = value
	case "diff.maxWarnings":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		cfg.Diff.MaxWarnings = v
	case "diff.exclude":
		cfg.Diff.Exclude = splitList(value)
	case "file.maxWarnings":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		cfg.File.MaxWarnings = v
	case "prompt.duplicateThreshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		cfg.Prompt.DuplicateThreshold = f
	case "prompt.duplicateWindow":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		cfg.Prompt.DuplicateWindow = v
	case "prompt.conflictWindow":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		cfg.Prompt.ConflictWindow = v
	case "prompt.appendStandards":
		v, err := parseBool(key, value)
		if err != nil {
			return err
		}
		cfg.Prompt.AppendStandards = v
	case "prompt.standards":
		cfg.Prompt.Standards = value
	case "rules.envMarkers":
		cfg.Rules.EnvMarkers = splitList(value)
	case "rules.skipSqlExtensions":
		cfg.Rules.SkipSQLExtensions = splitList(value)
	case "privacy.redactSnippets":
		v, err := parseBool(key, value)
		if err != nil {
			return err
		}
		cfg.Privacy.RedactSnippets = v
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	case "watch.debounceMs":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		cfg.Watch.DebounceMs = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// SkipRequested reports whether SKIP_AUDITOR asks to bypass diff audits.
func SkipRequested(getenv func(string) string) bool {
	switch strings.ToLower(strings.TrimSpace(getenv("SKIP_AUDITOR"))) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
