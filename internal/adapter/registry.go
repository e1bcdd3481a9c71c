package adapter

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a new instance of an adapter.
type Factory func() Adapter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes an adapter factory available under the given type name.
// Adapters register themselves in their init functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic(fmt.Sprintf("adapter: Register factory is nil for %q", name))
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("adapter: Register called twice for %q", name))
	}
	registry[name] = factory
}

// New creates a new adapter instance for the given database type.
func New(dbType string) (Adapter, error) {
	registryMu.RLock()
	factory, ok := registry[dbType]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown database type %q (supported: %v)", dbType, List())
	}
	return factory(), nil
}

// IsRegistered reports whether an adapter exists for the given type.
func IsRegistered(dbType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dbType]
	return ok
}

// List returns the sorted names of all registered adapter types.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
