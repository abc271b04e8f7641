package record

import (
	"testing"
	"time"
)

func TestQualityScore(t *testing.T) {
	cases := []struct {
		name       string
		violations int
		applicable int
		want       float64
	}{
		{name: "clean", violations: 0, applicable: 4, want: 1.0},
		{name: "half", violations: 2, applicable: 4, want: 0.5},
		{name: "all violated", violations: 4, applicable: 4, want: 0.0},
		{name: "no applicable rules", violations: 0, applicable: 0, want: 1.0},
		{name: "negative applicable", violations: 1, applicable: -1, want: 1.0},
		{name: "more violations than rules clamps to zero", violations: 5, applicable: 4, want: 0.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := QualityScore(tc.violations, tc.applicable)
			if got != tc.want {
				t.Fatalf("QualityScore(%d, %d) = %v, want %v", tc.violations, tc.applicable, got, tc.want)
			}
		})
	}
}

func TestViolationCode(t *testing.T) {
	if got := ViolationCode(CodeMissingField, "price"); got != "missing_field:price" {
		t.Fatalf("unexpected code %q", got)
	}
	if got := ViolationCode(CodeDuplicate, "record_key"); got != "duplicate:record_key" {
		t.Fatalf("unexpected code %q", got)
	}
}

func TestParseSourceID(t *testing.T) {
	for _, input := range []string{"web", "WEB", "Web"} {
		id, err := ParseSourceID(input)
		if err != nil {
			t.Fatalf("ParseSourceID(%q): %v", input, err)
		}
		if id != SourceWeb {
			t.Fatalf("ParseSourceID(%q) = %q, want %q", input, id, SourceWeb)
		}
	}
	if _, err := ParseSourceID("ftp"); err == nil {
		t.Fatal("expected error for unknown source type")
	}
}

func TestCloneIsolation(t *testing.T) {
	rec := New("REC_1", SourceDB, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	rec.SetField("amount", 10.0)
	rec.Flag("out_of_range:amount")

	clone := rec.Clone()
	clone.SetField("amount", 99.0)
	clone.Flag("missing_field:title")

	if got, _ := rec.Field("amount"); got != 10.0 {
		t.Fatalf("clone mutation leaked into original: amount = %v", got)
	}
	if len(rec.Flags) != 1 {
		t.Fatalf("clone flag leaked into original: %v", rec.Flags)
	}
}

func TestFlagDeduplicates(t *testing.T) {
	rec := New("REC_1", SourceWeb, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	rec.Flag("bad_format:occurred_at")
	rec.Flag("bad_format:occurred_at")
	if len(rec.Flags) != 1 {
		t.Fatalf("expected one flag, got %v", rec.Flags)
	}
}
