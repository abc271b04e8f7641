package validate

import (
	"fmt"
	"time"

	"hopper/internal/config"
	"hopper/internal/faults"
	"hopper/internal/record"
)

// compiledRule is one configured predicate bound to its violation code.
// Rules never mutate the record they inspect; the validator owns flag
// merging.
type compiledRule struct {
	kind   string
	field  string
	source record.SourceID // empty means every source

	min     *float64
	max     *float64
	layout  string
	allowed map[string]struct{}
}

func compileRules(rules []config.Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		cr := compiledRule{
			kind:   rule.Kind,
			field:  rule.Field,
			min:    rule.Min,
			max:    rule.Max,
			layout: rule.Layout,
		}
		if rule.Source != "" {
			id, err := record.ParseSourceID(rule.Source)
			if err != nil {
				return nil, faults.Wrap(faults.ErrRuleConfig, "validate", "compile rules",
					fmt.Sprintf("rule %d", i), err)
			}
			cr.source = id
		}
		switch rule.Kind {
		case "required", "range", "length", "date":
		case "lookup":
			cr.allowed = make(map[string]struct{}, len(rule.Allowed))
			for _, v := range rule.Allowed {
				cr.allowed[v] = struct{}{}
			}
		default:
			return nil, faults.Wrap(faults.ErrRuleConfig, "validate", "compile rules",
				fmt.Sprintf("rule %d: unknown kind %q", i, rule.Kind), nil)
		}
		compiled = append(compiled, cr)
	}
	return compiled, nil
}

// appliesTo reports whether the rule participates in the record's score.
// A required rule always applies to records of its source; typed rules only
// apply when the field is present.
func (r *compiledRule) appliesTo(rec *record.Record) bool {
	if r.source != "" && r.source != rec.Source {
		return false
	}
	if r.kind == "required" {
		return true
	}
	_, present := rec.Field(r.field)
	return present
}

// evaluate returns a violation code when the record fails the rule. The
// caller has already established applicability.
func (r *compiledRule) evaluate(rec *record.Record) (string, bool) {
	value, present := rec.Field(r.field)

	switch r.kind {
	case "required":
		if !present || value == nil {
			return record.ViolationCode(record.CodeMissingField, r.field), false
		}
		if s, ok := value.(string); ok && s == "" {
			return record.ViolationCode(record.CodeMissingField, r.field), false
		}
		return "", true

	case "range":
		number, ok := numericValue(value)
		if !ok {
			return record.ViolationCode(record.CodeBadFormat, r.field), false
		}
		if r.min != nil && number < *r.min {
			return record.ViolationCode(record.CodeOutOfRange, r.field), false
		}
		if r.max != nil && number > *r.max {
			return record.ViolationCode(record.CodeOutOfRange, r.field), false
		}
		return "", true

	case "length":
		s, ok := value.(string)
		if !ok {
			return record.ViolationCode(record.CodeBadFormat, r.field), false
		}
		length := float64(len(s))
		if r.min != nil && length < *r.min {
			return record.ViolationCode(record.CodeOutOfRange, r.field), false
		}
		if r.max != nil && length > *r.max {
			return record.ViolationCode(record.CodeOutOfRange, r.field), false
		}
		return "", true

	case "date":
		s, ok := value.(string)
		if !ok {
			return record.ViolationCode(record.CodeBadFormat, r.field), false
		}
		if _, err := time.Parse(r.layout, s); err != nil {
			return record.ViolationCode(record.CodeBadFormat, r.field), false
		}
		return "", true

	case "lookup":
		if _, ok := r.allowed[stringValue(value)]; !ok {
			return record.ViolationCode(record.CodeUnknownRef, r.field), false
		}
		return "", true
	}
	return "", true
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
