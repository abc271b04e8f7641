package record

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SourceID identifies the source category a record was extracted from.
type SourceID string

const (
	SourceWeb    SourceID = "WEB"
	SourceAPI    SourceID = "API"
	SourceDB     SourceID = "DB"
	SourceStream SourceID = "STREAM"
)

var allSources = []SourceID{SourceWeb, SourceAPI, SourceDB, SourceStream}

// ParseSourceID validates a source identifier from configuration.
func ParseSourceID(value string) (SourceID, error) {
	candidate := SourceID(strings.ToUpper(strings.TrimSpace(value)))
	for _, id := range allSources {
		if candidate == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown source id %q", value)
}

// AllSources returns the known source categories in fixed order.
func AllSources() []SourceID {
	out := make([]SourceID, len(allSources))
	copy(out, allSources)
	return out
}

// Record is a single unit of data moving through the pipeline. Fields hold
// the source-specific schema before transformation and the canonical schema
// after. Flags accumulate violation codes added by the validator and
// transformer; only those two components append to it.
type Record struct {
	ID         string
	Source     SourceID
	IngestedAt time.Time
	Fields     map[string]any

	Flags        []string
	Score        float64
	Rejected     bool
	RejectReason string
}

// New constructs a record with an empty field set.
func New(id string, source SourceID, ingestedAt time.Time) Record {
	return Record{
		ID:         id,
		Source:     source,
		IngestedAt: ingestedAt,
		Fields:     make(map[string]any),
	}
}

// Field returns the named field value and whether it is present.
func (r *Record) Field(name string) (any, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	return v, ok
}

// SetField stores a field value, allocating the field map when needed.
func (r *Record) SetField(name string, value any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = value
}

// Flag appends a violation code unless it is already present.
func (r *Record) Flag(code string) {
	for _, existing := range r.Flags {
		if existing == code {
			return
		}
	}
	r.Flags = append(r.Flags, code)
}

// SortedFlags returns violation codes in lexical order for stable reporting.
func (r *Record) SortedFlags() []string {
	out := make([]string, len(r.Flags))
	copy(out, r.Flags)
	sort.Strings(out)
	return out
}

// Clone returns a deep copy. Stages that rewrite the field set work on a
// clone so a failed rewrite leaves the input record intact.
func (r *Record) Clone() Record {
	clone := *r
	clone.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		clone.Fields[k] = v
	}
	clone.Flags = make([]string, len(r.Flags))
	copy(clone.Flags, r.Flags)
	return clone
}
