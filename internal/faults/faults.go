// Package faults defines the pipeline error taxonomy. Sentinel errors tag
// failures with a class the orchestrator uses to decide between absorbing a
// failure into metrics and terminating the run.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExtraction marks a source adapter that could not produce records.
	// Fatal only when the source is configured as required.
	ErrExtraction = errors.New("extraction error")
	// ErrRuleConfig marks malformed validation or transform configuration.
	// Always fatal, raised before any extraction happens.
	ErrRuleConfig = errors.New("rule configuration error")
	// ErrTransform marks a per-record coercion or derivation failure.
	// Never fatal; the record is routed to rejected.
	ErrTransform = errors.New("transform error")
	// ErrLoadChunk marks a single chunk that failed to commit. Never fatal;
	// the chunk's records are counted as failed and loading continues.
	ErrLoadChunk = errors.New("load chunk error")
	// ErrLoadFatal marks an unreachable warehouse. Always fatal.
	ErrLoadFatal = errors.New("load fatal error")
	// ErrCanceled marks a cooperative cancellation observed between stages.
	ErrCanceled = errors.New("run canceled")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExtraction
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error must terminate the run. Extraction errors
// are classified by the caller against the required-source set, so they are
// not fatal here by themselves.
func Fatal(err error) bool {
	switch {
	case errors.Is(err, ErrRuleConfig), errors.Is(err, ErrLoadFatal), errors.Is(err, ErrCanceled):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
