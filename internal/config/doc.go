// Package config loads, normalizes, and validates TOML configuration for the
// hopper pipeline. Validation failures here are startup-fatal: the pipeline
// refuses to extract anything when its rule set is malformed.
package config
