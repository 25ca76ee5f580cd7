// Package derive computes read-only projections over the inventory:
// printability, spool consumption, and collection statistics. Results are
// pure functions of the repository state at one revision and are memoized
// against that revision.
package derive

import (
	"sync"

	"github.com/printforge/spooltrack/pkg/domain/repositories"
)

// Service derives projections from an inventory view.
type Service struct {
	view repositories.InventoryView
	memo memoCache
}

// NewService creates a derivation service over the given view.
func NewService(view repositories.InventoryView) *Service {
	return &Service{view: view}
}

// memoCache keeps derivation results keyed by name, valid for exactly one
// repository revision. Any mutation invalidates everything.
type memoCache struct {
	mu       sync.Mutex
	revision uint64
	entries  map[string]any
}

func (c *memoCache) get(revision uint64, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revision != revision || c.entries == nil {
		return nil, false
	}
	v, ok := c.entries[key]
	return v, ok
}

func (c *memoCache) put(revision uint64, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revision != revision || c.entries == nil {
		c.revision = revision
		c.entries = make(map[string]any)
	}
	c.entries[key] = value
}
