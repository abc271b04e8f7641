package config

import (
	"fmt"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeWorkflow()
	c.normalizeSources()
	c.normalizeValidation()
	c.normalizeTransform()
	c.normalizeLoad()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WarehouseDir, err = expandPath(c.Paths.WarehouseDir); err != nil {
		return fmt.Errorf("paths.warehouse_dir: %w", err)
	}
	if c.Paths.ReportDir, err = expandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.WorkerCount <= 0 {
		c.Workflow.WorkerCount = runtime.NumCPU()
	}
	if c.Workflow.ExtractTimeout <= 0 {
		c.Workflow.ExtractTimeout = defaultExtractTimeout
	}
	if c.Workflow.LoadTimeout <= 0 {
		c.Workflow.LoadTimeout = defaultLoadTimeout
	}
}

// normalizeSources fills the built-in four-source demo set when the user
// configured no sources at all, and applies per-source defaults otherwise.
func (c *Config) normalizeSources() {
	if len(c.Sources) == 0 {
		c.Sources = defaultSources()
	}
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Type = strings.ToLower(strings.TrimSpace(src.Type))
		src.Target = strings.TrimSpace(src.Target)
		if src.TimeoutSeconds <= 0 {
			src.TimeoutSeconds = c.Workflow.ExtractTimeout
		}
	}
}

func (c *Config) normalizeValidation() {
	if len(c.Validation.Rules) == 0 {
		c.Validation.Rules = defaultRules()
	}
	for i := range c.Validation.Rules {
		rule := &c.Validation.Rules[i]
		rule.Kind = strings.ToLower(strings.TrimSpace(rule.Kind))
		rule.Field = strings.TrimSpace(rule.Field)
		rule.Source = strings.ToLower(strings.TrimSpace(rule.Source))
	}
}

func (c *Config) normalizeTransform() {
	if c.Transform.Tolerance <= 0 {
		c.Transform.Tolerance = defaultCoerceTolerance
	}
	if len(c.Transform.Mapping) == 0 && len(c.Transform.Types) == 0 && len(c.Transform.Derive) == 0 {
		c.Transform.Mapping = defaultFieldMapping()
		c.Transform.Types = defaultCanonicalTypes()
		c.Transform.Derive = defaultDerivations()
	}
	normalized := make(map[string]map[string]string, len(c.Transform.Mapping))
	for sourceType, fields := range c.Transform.Mapping {
		normalized[strings.ToLower(strings.TrimSpace(sourceType))] = fields
	}
	c.Transform.Mapping = normalized
}

func (c *Config) normalizeLoad() {
	c.Load.Mode = strings.ToLower(strings.TrimSpace(c.Load.Mode))
	if c.Load.Mode == "" {
		c.Load.Mode = defaultLoadMode
	}
	if c.Load.ChunkSize <= 0 {
		c.Load.ChunkSize = defaultChunkSize
	}
	if len(c.Load.KeyFields) == 0 {
		c.Load.KeyFields = []string{"record_key"}
	}
}
