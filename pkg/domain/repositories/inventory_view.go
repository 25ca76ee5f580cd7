package repositories

import "github.com/printforge/spooltrack/pkg/domain/entities"

// InventoryView is the read surface of the authoritative repository.
// Derivations and presenters consume it; they never mutate through it.
// Derivations observed at revision N reflect every mutation with revision
// <= N and none later.
type InventoryView interface {
	// Revision returns the monotonically increasing mutation counter.
	Revision() uint64

	Filaments() []*entities.Filament
	FilamentByID(id entities.ID) (*entities.Filament, bool)
	Models() []*entities.Model
	ModelByID(id entities.ID) (*entities.Model, bool)
	ModelByName(name string) (*entities.Model, bool)
	Prints() []*entities.Print
	PrintByID(id entities.ID) (*entities.Print, bool)
	MaterialTypes() []string
	Categories() []string

	// Snapshot materializes the full serializable aggregate.
	Snapshot() *entities.Snapshot
}

// SnapshotStore loads and saves whole snapshots. The persistence adapter
// implements it; the import pipeline and the CLI depend only on this.
type SnapshotStore interface {
	Load() (*entities.Snapshot, error)
	Save(snapshot *entities.Snapshot) error
}
