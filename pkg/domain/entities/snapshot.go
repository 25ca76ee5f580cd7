package entities

import (
	"strings"
	"time"
)

// SnapshotVersion is the current serialized snapshot shape.
const SnapshotVersion = "2.0"

// ApplicationName identifies exported documents.
const ApplicationName = "spooltrack"

// Snapshot is the serializable aggregate of all entities and dynamic sets.
type Snapshot struct {
	Version       string      `json:"version"`
	Filaments     []*Filament `json:"filaments"`
	Models        []*Model    `json:"models"`
	Prints        []*Print    `json:"prints"`
	MaterialTypes []string    `json:"materialTypes"`
	Categories    []string    `json:"categories"`
	SavedAt       time.Time   `json:"savedAt"`
}

// NewSnapshot creates an empty current-version snapshot with the default
// material types and categories.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:       SnapshotVersion,
		Filaments:     []*Filament{},
		Models:        []*Model{},
		Prints:        []*Print{},
		MaterialTypes: DefaultMaterialTypes(),
		Categories:    DefaultCategories(),
		SavedAt:       time.Now(),
	}
}

// FilamentByID returns the filament with the given identity, if present.
func (s *Snapshot) FilamentByID(id ID) (*Filament, bool) {
	for _, f := range s.Filaments {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// ModelByName returns the first model whose name matches, ignoring case.
func (s *Snapshot) ModelByName(name string) (*Model, bool) {
	for _, m := range s.Models {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return nil, false
}

// Brands returns the distinct filament brands in first-seen order.
func (s *Snapshot) Brands() []string {
	seen := make(map[string]bool)
	var brands []string
	for _, f := range s.Filaments {
		key := strings.ToLower(f.Brand)
		if !seen[key] {
			seen[key] = true
			brands = append(brands, f.Brand)
		}
	}
	return brands
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Version:       s.Version,
		Filaments:     make([]*Filament, 0, len(s.Filaments)),
		Models:        make([]*Model, 0, len(s.Models)),
		Prints:        make([]*Print, 0, len(s.Prints)),
		MaterialTypes: append([]string(nil), s.MaterialTypes...),
		Categories:    append([]string(nil), s.Categories...),
		SavedAt:       s.SavedAt,
	}
	for _, f := range s.Filaments {
		out.Filaments = append(out.Filaments, f.Clone())
	}
	for _, m := range s.Models {
		out.Models = append(out.Models, m.Clone())
	}
	for _, p := range s.Prints {
		out.Prints = append(out.Prints, p.Clone())
	}
	return out
}
