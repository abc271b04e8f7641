package config

import (
	"errors"
	"fmt"
	"time"
)

var validRuleKinds = map[string]struct{}{
	"required": {},
	"range":    {},
	"length":   {},
	"date":     {},
	"lookup":   {},
}

var validSourceTypes = map[string]struct{}{
	"web":    {},
	"api":    {},
	"db":     {},
	"stream": {},
}

var validLoadModes = map[string]struct{}{
	"replace": {},
	"append":  {},
}

// Validate ensures the configuration is usable. It runs before any
// extraction so a malformed rule set fails the invocation fast.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validateLoad(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.WorkerCount <= 0 {
		return errors.New("workflow.worker_count must be positive")
	}
	if c.Workflow.ExtractTimeout <= 0 {
		return errors.New("workflow.extract_timeout must be positive")
	}
	if c.Workflow.LoadTimeout <= 0 {
		return errors.New("workflow.load_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSources() error {
	if len(c.Sources) == 0 {
		return errors.New("at least one source must be configured")
	}
	for i, src := range c.Sources {
		if _, ok := validSourceTypes[src.Type]; !ok {
			return fmt.Errorf("sources[%d].type: unknown source type %q", i, src.Type)
		}
		if src.MaxRecords < 0 {
			return fmt.Errorf("sources[%d].max_records must not be negative", i)
		}
		if src.TimeoutSeconds <= 0 {
			return fmt.Errorf("sources[%d].timeout_seconds must be positive", i)
		}
	}
	return nil
}

func (c *Config) validateValidation() error {
	if c.Validation.RejectionThreshold < 0 || c.Validation.RejectionThreshold > 1 {
		return errors.New("validation.rejection_threshold must be between 0 and 1")
	}
	for i, rule := range c.Validation.Rules {
		prefix := fmt.Sprintf("validation.rules[%d]", i)
		if _, ok := validRuleKinds[rule.Kind]; !ok {
			return fmt.Errorf("%s.kind: unknown rule kind %q", prefix, rule.Kind)
		}
		if rule.Field == "" {
			return fmt.Errorf("%s.field must be set", prefix)
		}
		if rule.Source != "" {
			if _, ok := validSourceTypes[rule.Source]; !ok {
				return fmt.Errorf("%s.source: unknown source type %q", prefix, rule.Source)
			}
		}
		switch rule.Kind {
		case "range", "length":
			if rule.Min == nil && rule.Max == nil {
				return fmt.Errorf("%s: %s rule needs min or max", prefix, rule.Kind)
			}
			if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
				return fmt.Errorf("%s: min must not exceed max", prefix)
			}
		case "date":
			if rule.Layout == "" {
				return fmt.Errorf("%s.layout must be set for date rules", prefix)
			}
			reference := time.Now().UTC().Format(rule.Layout)
			if _, err := time.Parse(rule.Layout, reference); err != nil {
				return fmt.Errorf("%s.layout: not a valid time layout: %w", prefix, err)
			}
		case "lookup":
			if len(rule.Allowed) == 0 {
				return fmt.Errorf("%s.allowed must list at least one value", prefix)
			}
		}
	}
	for i, key := range c.Validation.DuplicateKeys {
		if key == "" {
			return fmt.Errorf("validation.duplicate_keys[%d] must not be empty", i)
		}
	}
	return nil
}

func (c *Config) validateTransform() error {
	for sourceType := range c.Transform.Mapping {
		if _, ok := validSourceTypes[sourceType]; !ok {
			return fmt.Errorf("transform.mapping: unknown source type %q", sourceType)
		}
	}
	for field, typeName := range c.Transform.Types {
		switch typeName {
		case "string", "int", "float", "time":
		default:
			return fmt.Errorf("transform.types[%s]: unknown canonical type %q", field, typeName)
		}
	}
	return nil
}

func (c *Config) validateLoad() error {
	if _, ok := validLoadModes[c.Load.Mode]; !ok {
		return fmt.Errorf("load.mode must be replace or append, got %q", c.Load.Mode)
	}
	if c.Load.ChunkSize <= 0 {
		return errors.New("load.chunk_size must be positive")
	}
	if c.Load.Mode == "append" && len(c.Load.KeyFields) == 0 {
		return errors.New("load.key_fields must be set for append mode")
	}
	return nil
}
