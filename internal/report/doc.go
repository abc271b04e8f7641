// Package report defines the immutable run report model, persists it as a
// stable JSON artifact, and renders it for the console. Serialization is
// deterministic: the same report always produces identical bytes.
package report
