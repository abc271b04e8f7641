// Package record defines the unit of work that flows through the pipeline:
// a field map tagged with source provenance and quality annotations.
package record
