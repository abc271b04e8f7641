package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, path, exists, err := Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for a missing file")
	}
	if path == "" {
		t.Fatal("expected a resolved path even when the file is missing")
	}
	if len(cfg.Sources) != 4 {
		t.Fatalf("expected 4 default sources, got %d", len(cfg.Sources))
	}
	if len(cfg.Validation.Rules) == 0 {
		t.Fatal("expected default validation rules")
	}
	if cfg.Load.Mode != "append" {
		t.Fatalf("expected default load mode append, got %q", cfg.Load.Mode)
	}
	if len(cfg.Load.KeyFields) != 1 || cfg.Load.KeyFields[0] != "record_key" {
		t.Fatalf("unexpected default key fields: %v", cfg.Load.KeyFields)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hopper.toml")
	content := `
[paths]
warehouse_dir = "` + filepath.Join(dir, "wh") + `"
report_dir = "` + filepath.Join(dir, "reports") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[workflow]
worker_count = 8

[[sources]]
type = "WEB"
target = "demo"
max_records = 25

[validation]
rejection_threshold = 0.75

[load]
mode = "Replace"
chunk_size = 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Workflow.WorkerCount != 8 {
		t.Fatalf("worker_count = %d", cfg.Workflow.WorkerCount)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Type != "web" {
		t.Fatalf("source type not lowercased: %+v", cfg.Sources)
	}
	if cfg.Sources[0].TimeoutSeconds != cfg.Workflow.ExtractTimeout {
		t.Fatalf("source timeout should default to workflow extract timeout, got %d", cfg.Sources[0].TimeoutSeconds)
	}
	if cfg.Validation.RejectionThreshold != 0.75 {
		t.Fatalf("rejection_threshold = %v", cfg.Validation.RejectionThreshold)
	}
	if cfg.Load.Mode != "replace" {
		t.Fatalf("load mode not lowercased: %q", cfg.Load.Mode)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Validation.RejectionThreshold = 1.5 },
			wantSub: "rejection_threshold",
		},
		{
			name:    "unknown source type",
			mutate:  func(c *Config) { c.Sources[0].Type = "ftp" },
			wantSub: "unknown source type",
		},
		{
			name:    "unknown rule kind",
			mutate:  func(c *Config) { c.Validation.Rules[0].Kind = "regex" },
			wantSub: "unknown rule kind",
		},
		{
			name: "range without bounds",
			mutate: func(c *Config) {
				c.Validation.Rules = []Rule{{Kind: "range", Field: "amount"}}
			},
			wantSub: "needs min or max",
		},
		{
			name: "min above max",
			mutate: func(c *Config) {
				c.Validation.Rules = []Rule{{Kind: "range", Field: "amount", Min: f(10), Max: f(1)}}
			},
			wantSub: "min must not exceed max",
		},
		{
			name: "lookup without allowed values",
			mutate: func(c *Config) {
				c.Validation.Rules = []Rule{{Kind: "lookup", Field: "category"}}
			},
			wantSub: "allowed",
		},
		{
			name:    "bad load mode",
			mutate:  func(c *Config) { c.Load.Mode = "merge" },
			wantSub: "load.mode",
		},
		{
			name: "append without key fields",
			mutate: func(c *Config) {
				c.Load.Mode = "append"
				c.Load.KeyFields = nil
			},
			wantSub: "key_fields",
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.Load.ChunkSize = 0 },
			wantSub: "chunk_size",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/data/warehouse")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	want := filepath.Join(home, "data", "warehouse")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	} else if !exists {
		t.Fatal("sample config file should exist")
	}
}
