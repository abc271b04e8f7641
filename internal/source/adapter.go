package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hopper/internal/config"
	"hopper/internal/record"
)

// Adapter extracts a finite batch of records from one source category.
// Extract must honor ctx cancellation and return every record with Source
// and IngestedAt populated.
type Adapter interface {
	Name() string
	Extract(ctx context.Context, cfg config.Source) ([]record.Record, error)
}

// Factory constructs an adapter instance for one configured source.
type Factory func() Adapter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register associates a source type with an adapter factory. Registering a
// type twice replaces the earlier factory.
func Register(sourceType string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[sourceType] = factory
}

// New returns an adapter for the given source type.
func New(sourceType string) (Adapter, error) {
	registryMu.RLock()
	factory, ok := registry[sourceType]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no adapter registered for source type %q", sourceType)
	}
	return factory(), nil
}

// Types returns the registered source types in lexical order.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func init() {
	Register("web", func() Adapter { return &webAdapter{} })
	Register("api", func() Adapter { return &apiAdapter{} })
	Register("db", func() Adapter { return &dbAdapter{} })
	Register("stream", func() Adapter { return &streamAdapter{} })
}
