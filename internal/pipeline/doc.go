// Package pipeline sequences the ETL stages over one bounded batch:
// extraction, validation, transformation, load, and reporting. The runner
// owns per-stage timing, the per-source required/optional policy, and the
// decision between failing the run and continuing degraded.
package pipeline
