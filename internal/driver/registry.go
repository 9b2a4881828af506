package driver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// registry holds all registered drivers, keyed by lowercase name and alias.
var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Driver)
)

// Register adds a driver to the global registry.
// This is typically called from a driver package's init() function.
//
// Panics if the name or an alias is already registered.
func Register(d Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()

	names := append([]string{d.Name()}, d.Aliases()...)
	for _, name := range names {
		key := strings.ToLower(name)
		if _, exists := drivers[key]; exists {
			panic(fmt.Sprintf("driver %q already registered", name))
		}
	}
	for _, name := range names {
		drivers[strings.ToLower(name)] = d
	}
}

// Get retrieves a driver by name or alias (case-insensitive).
func Get(nameOrAlias string) (Driver, error) {
	registryMu.RLock()
	d, exists := drivers[strings.ToLower(nameOrAlias)]
	registryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown database driver: %q (available: %v)", nameOrAlias, Available())
	}
	return d, nil
}

// Canonicalize returns the primary driver name for a name or alias.
// Returns the input unchanged if no driver matches.
func Canonicalize(nameOrAlias string) string {
	d, err := Get(nameOrAlias)
	if err != nil {
		return nameOrAlias
	}
	return d.Name()
}

// Available returns a sorted list of registered driver names.
// This includes only primary names, not aliases.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, d := range drivers {
		seen[d.Name()] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered returns true if a driver with the given name or alias exists (case-insensitive).
func IsRegistered(nameOrAlias string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, exists := drivers[strings.ToLower(nameOrAlias)]
	return exists
}
