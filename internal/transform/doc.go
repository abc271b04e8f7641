// Package transform rewrites validated records into the canonical schema:
// field-name standardization, type coercion, and derived-feature
// computation, in that order. A record that cannot be coerced is routed back
// as rejected; it never aborts the batch.
package transform
