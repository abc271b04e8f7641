// Package warehouse persists transformed records in SQLite. Loads run in
// fixed-size chunks, each committed in its own transaction, with
// upsert-by-key semantics in append mode so retrying a chunk never
// duplicates rows.
package warehouse
