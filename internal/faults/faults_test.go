package faults

import (
	"errors"
	"testing"
)

func TestWrapPreservesMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrExtraction, "extract", "web", "required source failed", cause)

	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected error to match ErrExtraction, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected error to match wrapped cause, got %v", err)
	}
	want := "extraction error: extract: web: required source failed: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message: got %q want %q", err.Error(), want)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrLoadFatal, "load", "", "warehouse unreachable", nil)
	if !errors.Is(err, ErrLoadFatal) {
		t.Fatalf("expected error to match ErrLoadFatal, got %v", err)
	}
	if got := err.Error(); got != "load fatal error: load: warehouse unreachable" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected nil marker to default to ErrExtraction, got %v", err)
	}
	if got := err.Error(); got != "extraction error: pipeline failure" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"rule config", Wrap(ErrRuleConfig, "validate", "compile rules", "", nil), true},
		{"load fatal", Wrap(ErrLoadFatal, "load", "ping", "", nil), true},
		{"canceled", Wrap(ErrCanceled, "pipeline", "between stages", "", nil), true},
		{"extraction", Wrap(ErrExtraction, "extract", "api", "", nil), false},
		{"transform", Wrap(ErrTransform, "transform", "coerce", "", nil), false},
		{"load chunk", Wrap(ErrLoadChunk, "load", "chunk 2", "", nil), false},
		{"plain", errors.New("something else"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fatal(tc.err); got != tc.fatal {
				t.Fatalf("Fatal(%v) = %v, want %v", tc.err, got, tc.fatal)
			}
		})
	}
}
