// Package source defines the adapter contract for record extraction and a
// registry so new source types plug in without touching the orchestrator.
// The built-in adapters produce deterministic demo data for the four source
// categories; real extractors register under the same types.
package source
