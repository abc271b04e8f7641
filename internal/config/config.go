package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WarehouseDir string `toml:"warehouse_dir"`
	ReportDir    string `toml:"report_dir"`
	LogDir       string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Workflow contains execution tuning for a pipeline run.
type Workflow struct {
	WorkerCount    int `toml:"worker_count"`
	ExtractTimeout int `toml:"extract_timeout"`
	LoadTimeout    int `toml:"load_timeout"`
}

// Source describes one source adapter invocation.
type Source struct {
	Type           string `toml:"type"`
	Target         string `toml:"target"`
	MaxRecords     int    `toml:"max_records"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Required       bool   `toml:"required"`
}

// Rule configures one validation predicate. Min and Max are pointers so an
// absent bound is distinguishable from zero. Source restricts a rule to one
// source category; an empty Source applies the rule to every record.
type Rule struct {
	Kind    string   `toml:"kind"`
	Field   string   `toml:"field"`
	Source  string   `toml:"source"`
	Min     *float64 `toml:"min"`
	Max     *float64 `toml:"max"`
	Layout  string   `toml:"layout"`
	Allowed []string `toml:"allowed"`
}

// Validation contains the quality rule set and rejection policy.
type Validation struct {
	RejectionThreshold float64  `toml:"rejection_threshold"`
	DuplicateKeys      []string `toml:"duplicate_keys"`
	Rules              []Rule   `toml:"rules"`
}

// Transform contains schema standardization and derivation settings.
// Mapping is keyed by source type, then raw field name to canonical name.
type Transform struct {
	Tolerance float64                      `toml:"tolerance"`
	Mapping   map[string]map[string]string `toml:"mapping"`
	Types     map[string]string            `toml:"types"`
	Derive    []string                     `toml:"derive"`
}

// LoadSettings contains warehouse load settings.
type LoadSettings struct {
	Mode      string   `toml:"mode"`
	KeyFields []string `toml:"key_fields"`
	ChunkSize int      `toml:"chunk_size"`
}

// Config encapsulates all configuration values for hopper.
//
// Configuration sections by subsystem:
//   - Paths: warehouse, report, and log directories
//   - Logging: log format and level
//   - Workflow: worker counts and external-call timeouts
//   - Sources: one entry per source adapter to extract from
//   - Validation: quality rules, duplicate keys, rejection threshold
//   - Transform: field mapping, canonical types, derived features
//   - Load: warehouse load mode, natural key, chunk size
type Config struct {
	Paths      Paths        `toml:"paths"`
	Logging    Logging      `toml:"logging"`
	Workflow   Workflow     `toml:"workflow"`
	Sources    []Source     `toml:"sources"`
	Validation Validation   `toml:"validation"`
	Transform  Transform    `toml:"transform"`
	Load       LoadSettings `toml:"load"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hopper/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and defaults applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hopper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WarehouseDir, c.Paths.ReportDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
