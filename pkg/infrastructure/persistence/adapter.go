package persistence

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/printforge/spooltrack/pkg/domain/entities"
	"github.com/printforge/spooltrack/pkg/domain/repositories"
	"github.com/printforge/spooltrack/pkg/infrastructure/schema"
)

// Whole-snapshot key and the per-entity mirror keys written for older
// readers.
const (
	keySnapshot      = "snapshot"
	keyFilaments     = "filaments"
	keyModels        = "models"
	keyPrints        = "prints"
	keyMaterialTypes = "materialTypes"
	keyCategories    = "modelCategories"
)

// legacyKeys are the pre-namespacing key names rescued on first load.
var legacyKeys = []string{keyFilaments, keyModels, keyPrints, keyMaterialTypes, keyCategories}

// Adapter loads and saves snapshots through a namespaced key-value store,
// with in-memory degradation when the backend fails.
type Adapter struct {
	raw KVStore // un-namespaced view, used only for legacy-key rescue
	ns  KVStore
	log *zap.SugaredLogger
}

// Verify interface compliance
var _ repositories.SnapshotStore = (*Adapter)(nil)

// NewAdapter wraps a backing store under the given namespace.
func NewAdapter(store KVStore, namespace string, log *zap.SugaredLogger) *Adapter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	guarded := WithFallback(store, log)
	return &Adapter{
		raw: guarded,
		ns:  Namespaced(guarded, namespace),
		log: log,
	}
}

// Load reads the whole-snapshot key and migrates it. When the key is absent
// it attempts to reconstruct from legacy per-entity keys, adopting them into
// the namespace and removing the originals. A nil snapshot with nil error
// means a fresh install.
func (a *Adapter) Load() (*entities.Snapshot, error) {
	blob, ok, err := a.ns.Get(keySnapshot)
	if err != nil {
		return nil, &entities.PersistenceError{Op: "load", Key: keySnapshot, Err: err}
	}
	if ok {
		snap, report, err := schema.Migrate([]byte(blob))
		if err != nil {
			return nil, err
		}
		a.logWarnings(report)
		return snap, nil
	}
	return a.rescueLegacy()
}

func (a *Adapter) rescueLegacy() (*entities.Snapshot, error) {
	parts := make(map[string]json.RawMessage)
	for _, key := range legacyKeys {
		v, ok, err := a.raw.Get(key)
		if err != nil || !ok {
			continue
		}
		if json.Valid([]byte(v)) {
			parts[key] = json.RawMessage(v)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	composite, err := json.Marshal(parts)
	if err != nil {
		return nil, &entities.PersistenceError{Op: "rescue", Key: keySnapshot, Err: err}
	}
	snap, report, err := schema.Migrate(composite)
	if err != nil {
		return nil, err
	}
	a.logWarnings(report)
	a.log.Infow("adopted legacy keys into namespace", "keys", len(parts))

	if err := a.Save(snap); err != nil {
		return nil, err
	}
	for key := range parts {
		_ = a.raw.Delete(key)
	}
	return snap, nil
}

// Save writes the whole snapshot and, for backward compatibility with older
// readers, per-entity mirror keys. The caller's snapshot is not mutated; the
// stored copy gets a fresh savedAt stamp.
func (a *Adapter) Save(snap *entities.Snapshot) error {
	stamped := *snap
	stamped.SavedAt = time.Now()

	blob, err := json.Marshal(&stamped)
	if err != nil {
		return &entities.PersistenceError{Op: "save", Key: keySnapshot, Err: err}
	}
	if err := a.ns.Set(keySnapshot, string(blob)); err != nil {
		return &entities.PersistenceError{Op: "save", Key: keySnapshot, Err: err}
	}

	mirrors := map[string]any{
		keyFilaments:     stamped.Filaments,
		keyModels:        stamped.Models,
		keyPrints:        stamped.Prints,
		keyMaterialTypes: stamped.MaterialTypes,
		keyCategories:    stamped.Categories,
	}
	for key, value := range mirrors {
		encoded, err := json.Marshal(value)
		if err != nil {
			return &entities.PersistenceError{Op: "save", Key: key, Err: err}
		}
		if err := a.ns.Set(key, string(encoded)); err != nil {
			return &entities.PersistenceError{Op: "save", Key: key, Err: err}
		}
	}

	a.log.Debugw("snapshot saved",
		"bytes", len(blob),
		"filaments", len(stamped.Filaments),
		"models", len(stamped.Models),
		"prints", len(stamped.Prints))
	return nil
}

// Export serializes the snapshot into the interchange envelope.
func (a *Adapter) Export(snap *entities.Snapshot) (string, error) {
	blob, err := schema.Export(snap)
	if err != nil {
		return "", &entities.PersistenceError{Op: "export", Key: keySnapshot, Err: err}
	}
	return string(blob), nil
}

// ClearNamespace removes every key under the current namespace.
func (a *Adapter) ClearNamespace() error {
	keys, err := a.ns.Keys()
	if err != nil {
		return &entities.PersistenceError{Op: "clear", Key: "*", Err: err}
	}
	for _, key := range keys {
		if err := a.ns.Delete(key); err != nil {
			return &entities.PersistenceError{Op: "clear", Key: key, Err: err}
		}
	}
	return nil
}

// StoreStats reports the namespace footprint.
type StoreStats struct {
	KeyCount   int      `json:"keyCount"`
	TotalBytes int      `json:"totalBytes"`
	Keys       []string `json:"keys"`
}

// Stats sizes the current namespace.
func (a *Adapter) Stats() (*StoreStats, error) {
	keys, err := a.ns.Keys()
	if err != nil {
		return nil, &entities.PersistenceError{Op: "stats", Key: "*", Err: err}
	}
	stats := &StoreStats{Keys: keys, KeyCount: len(keys)}
	for _, key := range keys {
		v, ok, err := a.ns.Get(key)
		if err != nil || !ok {
			continue
		}
		stats.TotalBytes += len(v)
	}
	return stats, nil
}

func (a *Adapter) logWarnings(report *schema.Report) {
	for _, w := range report.Warnings {
		a.log.Warnw("migration", "warning", w)
	}
}
