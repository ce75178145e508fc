package papersources

import (
	"fmt"
	"sync"
)

// Chain holds sources in waterfall priority order. Registration order is
// preserved; the hunt coordinator walks Ordered() front to back and stops at
// the first source that yields full text.
type Chain struct {
	mu      sync.RWMutex
	ordered []Source
	byName  map[string]Source
}

// NewChain creates an empty source chain.
func NewChain() *Chain {
	return &Chain{
		byName: make(map[string]Source),
	}
}

// Register appends a source to the end of the chain. Registering a name that
// already exists is a programming error.
func (c *Chain) Register(source Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := source.Name()
	if _, exists := c.byName[name]; exists {
		return fmt.Errorf("source %q already registered", name)
	}
	c.byName[name] = source
	c.ordered = append(c.ordered, source)
	return nil
}

// Get returns a source by name, or nil if not registered.
func (c *Chain) Get(name string) Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byName[name]
}

// Ordered returns the enabled sources in priority order. The returned slice
// is a snapshot and safe to iterate while sources are registered.
func (c *Chain) Ordered() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sources := make([]Source, 0, len(c.ordered))
	for _, source := range c.ordered {
		if source.Enabled() {
			sources = append(sources, source)
		}
	}
	return sources
}

// Names returns the names of all registered sources in priority order,
// including disabled ones. Used for introspection endpoints.
func (c *Chain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.ordered))
	for _, source := range c.ordered {
		names = append(names, source.Name())
	}
	return names
}

// Len returns the number of registered sources.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ordered)
}
