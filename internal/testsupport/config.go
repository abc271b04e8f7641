package testsupport

import (
	"path/filepath"
	"testing"

	"hopper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	// Loading a nonexistent path yields fully normalized defaults,
	// including the built-in sources, rules, and field mappings.
	cfg, _, _, err := config.Load(filepath.Join(base, "missing.toml"))
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	cfg.Paths.WarehouseDir = filepath.Join(base, "warehouse")
	cfg.Paths.ReportDir = filepath.Join(base, "reports")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.WorkerCount = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     cfg,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithRejectionThreshold overrides the quality rejection threshold.
func WithRejectionThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Validation.RejectionThreshold = threshold
	}
}

// WithLoadMode overrides the warehouse load mode.
func WithLoadMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Load.Mode = mode
	}
}

// WithChunkSize overrides the warehouse load chunk size.
func WithChunkSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Load.ChunkSize = size
	}
}

// WithSources replaces the configured source list.
func WithSources(sources ...config.Source) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources = sources
	}
}

// WithMaxRecords caps every configured source at the given record count.
func WithMaxRecords(max int) ConfigOption {
	return func(b *configBuilder) {
		for i := range b.cfg.Sources {
			b.cfg.Sources[i].MaxRecords = max
		}
	}
}
