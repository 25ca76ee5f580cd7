// Package persistence abstracts the string key-value store the engine
// saves snapshots through. Namespacing keeps dev, prod and test data apart;
// a memory store stands in when the configured backend is absent or failing;
// legacy un-namespaced keys are adopted on first load.
package persistence

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// KVStore is the host-provided string key-value surface.
type KVStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Keys() ([]string, error)
}

// MemoryStore is a map-backed KVStore. It never fails, which makes it the
// fallback of last resort.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for a key and whether it was present.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores a value.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes a key; absent keys are not an error.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys returns all keys, sorted for deterministic iteration.
func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// namespacedStore prefixes every key so that multiple environments can share
// one backing store.
type namespacedStore struct {
	inner  KVStore
	prefix string
}

// Namespaced wraps a store under "spooltrack:<namespace>:".
func Namespaced(inner KVStore, namespace string) KVStore {
	return &namespacedStore{inner: inner, prefix: "spooltrack:" + namespace + ":"}
}

func (s *namespacedStore) Get(key string) (string, bool, error) {
	return s.inner.Get(s.prefix + key)
}

func (s *namespacedStore) Set(key, value string) error {
	return s.inner.Set(s.prefix+key, value)
}

func (s *namespacedStore) Delete(key string) error {
	return s.inner.Delete(s.prefix + key)
}

func (s *namespacedStore) Keys() ([]string, error) {
	all, err := s.inner.Keys()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range all {
		if strings.HasPrefix(k, s.prefix) {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
	}
	return keys, nil
}

// fallbackStore routes to the primary store and drops to an in-memory store
// when the primary fails, so a broken backend degrades to session-only
// persistence instead of taking the engine down.
type fallbackStore struct {
	mu       sync.Mutex
	primary  KVStore
	fallback *MemoryStore
	log      *zap.SugaredLogger
	degraded bool
}

// WithFallback wraps a store with in-memory degradation.
func WithFallback(primary KVStore, log *zap.SugaredLogger) KVStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &fallbackStore{primary: primary, fallback: NewMemoryStore(), log: log}
}

func (s *fallbackStore) degrade(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.degraded {
		s.log.Warnw("primary store failing, degrading to in-memory persistence", "op", op, "error", err)
		s.degraded = true
	}
}

func (s *fallbackStore) Get(key string) (string, bool, error) {
	v, ok, err := s.primary.Get(key)
	if err == nil {
		return v, ok, nil
	}
	s.degrade("get", err)
	return s.fallback.Get(key)
}

func (s *fallbackStore) Set(key, value string) error {
	if err := s.primary.Set(key, value); err != nil {
		s.degrade("set", err)
		return s.fallback.Set(key, value)
	}
	// Mirror into the fallback so reads stay coherent if the primary dies
	// between a write and the next read.
	_ = s.fallback.Set(key, value)
	return nil
}

func (s *fallbackStore) Delete(key string) error {
	_ = s.fallback.Delete(key)
	if err := s.primary.Delete(key); err != nil {
		s.degrade("delete", err)
	}
	return nil
}

func (s *fallbackStore) Keys() ([]string, error) {
	keys, err := s.primary.Keys()
	if err == nil {
		return keys, nil
	}
	s.degrade("keys", err)
	return s.fallback.Keys()
}
