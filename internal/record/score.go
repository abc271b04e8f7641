package record

// Violation code prefixes shared by the validator and transformer. Codes are
// of the form "<prefix>:<field>" so reports stay greppable by field name.
const (
	CodeMissingField = "missing_field"
	CodeOutOfRange   = "out_of_range"
	CodeBadFormat    = "bad_format"
	CodeUnknownRef   = "unknown_ref"
	CodeDuplicate    = "duplicate"
	CodeCoerceFailed = "coerce_failed"
	CodeDeriveFailed = "derive_failed"
)

// ViolationCode builds a violation code from a prefix and subject field.
func ViolationCode(prefix, field string) string {
	if field == "" {
		return prefix
	}
	return prefix + ":" + field
}

// QualityScore computes 1 - violations/applicable, clamped to [0, 1].
// A record with zero applicable rules scores a perfect 1.0.
func QualityScore(violations, applicable int) float64 {
	if applicable <= 0 {
		return 1.0
	}
	score := 1.0 - float64(violations)/float64(applicable)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
