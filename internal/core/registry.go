package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// LoadOrder is the fixed insertion order. Parents precede children so that
// foreign keys resolve; DSSTox carries its Identifier satellite.
var LoadOrder = []string{
	"document_dictionary",
	"chemical_dictionary",
	"list_presence_dictionary",
	"PUC_dictionary",
	"functional_use_dictionary",
	"DSSTox",
	"QSUR_data",
	"functional_use_data",
	"product_composition_data",
	"list_presence_data",
	"HHE_data",
}

// Register adds a table definition to the registry.
// Panics if a table with the same key is already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	if len(def.Columns) == 0 {
		panic(fmt.Sprintf("table has no columns: %s", def.Info.Key))
	}

	registry[def.Info.Key] = def
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered table definitions sorted by key.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// IsLoadable reports whether key names a table that is read from its own files.
func IsLoadable(key string) bool {
	for _, k := range LoadOrder {
		if k == key {
			return true
		}
	}
	return false
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
