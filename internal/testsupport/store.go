package testsupport

import (
	"testing"
	"time"

	"hopper/internal/config"
	"hopper/internal/record"
	"hopper/internal/warehouse"
)

// MustOpenWarehouse opens a warehouse.Store for tests and registers cleanup.
func MustOpenWarehouse(t testing.TB, cfg *config.Config) *warehouse.Store {
	t.Helper()

	store, err := warehouse.Open(cfg)
	if err != nil {
		t.Fatalf("warehouse.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRecord builds a record ready for loading, keyed by record_key.
func NewRecord(t testing.TB, src record.SourceID, key string, fields map[string]any) record.Record {
	t.Helper()

	rec := record.New(key, src, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	rec.SetField("record_key", key)
	for name, value := range fields {
		rec.SetField(name, value)
	}
	rec.Score = 1.0
	return rec
}
