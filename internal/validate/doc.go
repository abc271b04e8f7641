// Package validate scores records against the configured rule set, flags
// violations, and marks records for rejection when their quality score falls
// below the configured threshold.
package validate
