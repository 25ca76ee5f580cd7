// Package events keeps a bounded in-memory journal of inventory mutations
// for activity display and troubleshooting. The journal is an observer, never
// a source of truth; dropping entries loses nothing but display history.
package events

import (
	"sync"
	"time"
)

// Entry is one recorded mutation.
type Entry struct {
	Revision uint64    `json:"revision"`
	Action   string    `json:"action"` // e.g. "add", "update", "delete", "record", "import"
	Entity   string    `json:"entity"` // e.g. "filament", "model", "print", "snapshot"
	Name     string    `json:"name,omitempty"`
	Time     time.Time `json:"time"`
}

// Journal is a fixed-capacity mutation log. When full, the oldest entries
// fall off.
type Journal struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// DefaultCapacity bounds a journal created with capacity <= 0.
const DefaultCapacity = 256

// NewJournal creates a journal holding at most capacity entries.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{capacity: capacity}
}

// Record appends one entry, evicting the oldest when the journal is full.
func (j *Journal) Record(revision uint64, action, entity, name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, Entry{
		Revision: revision,
		Action:   action,
		Entity:   entity,
		Name:     name,
		Time:     time.Now(),
	})
	if len(j.entries) > j.capacity {
		j.entries = j.entries[len(j.entries)-j.capacity:]
	}
}

// Recent returns the newest n entries, newest first.
func (j *Journal) Recent(n int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(j.entries) - 1; i >= len(j.entries)-n; i-- {
		out = append(out, j.entries[i])
	}
	return out
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
