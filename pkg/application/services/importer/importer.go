// Package importer implements bulk data interchange: full-snapshot import in
// replace or merge mode, export to the interchange envelope, and CSV spool
// intake. Invalid entities are skipped and reported, never fatal.
package importer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/printforge/spooltrack/pkg/domain/entities"
	"github.com/printforge/spooltrack/pkg/domain/repositories"
	"github.com/printforge/spooltrack/pkg/domain/services"
	"github.com/printforge/spooltrack/pkg/infrastructure/schema"
)

// Mode selects how imported data combines with existing data.
type Mode string

const (
	// ModeReplace discards current state in favor of the import.
	ModeReplace Mode = "replace"
	// ModeAdd folds the import into current state.
	ModeAdd Mode = "add"
	// ModeMerge is an accepted alias for ModeAdd.
	ModeMerge Mode = "merge"
)

// Target is the mutable repository surface the importer installs into.
type Target interface {
	repositories.InventoryView
	LoadSnapshot(*entities.Snapshot)
}

// Result reports what an import did.
type Result struct {
	Mode           Mode                      `json:"mode"`
	SourceVersion  string                    `json:"sourceVersion"`
	Warnings       []string                  `json:"warnings,omitempty"`
	Rejected       []entities.RejectedEntity `json:"rejected,omitempty"`
	FilamentsAdded int                       `json:"filamentsAdded"`
	ModelsAdded    int                       `json:"modelsAdded"`
	ModelsSkipped  int                       `json:"modelsSkipped"`
	PrintsAdded    int                       `json:"printsAdded"`
}

// Importer runs the interchange pipeline against a repository, persisting
// through the snapshot store after a successful install.
type Importer struct {
	target Target
	store  repositories.SnapshotStore
	log    *zap.SugaredLogger
}

// NewImporter creates an importer. The store may be nil for dry runs.
func NewImporter(target Target, store repositories.SnapshotStore, log *zap.SugaredLogger) *Importer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Importer{target: target, store: store, log: log}
}

// Export serializes the current state into the interchange envelope.
func (im *Importer) Export() ([]byte, error) {
	return schema.Export(im.target.Snapshot())
}

// Import parses a blob in any supported shape, validates it, installs it per
// the mode and persists the outcome. Entity-level failures are reported in
// the result; only parse failures and unknown modes are errors.
func (im *Importer) Import(blob []byte, mode Mode) (*Result, error) {
	if mode == ModeMerge {
		mode = ModeAdd
	}
	if mode != ModeReplace && mode != ModeAdd {
		return nil, &entities.ImportError{Stage: "mode", Err: fmt.Errorf("unknown import mode %q", mode)}
	}

	incoming, report, err := schema.Migrate(blob)
	if err != nil {
		return nil, &entities.ImportError{Stage: "parse", Err: err}
	}

	result := &Result{
		Mode:          mode,
		SourceVersion: report.SourceVersion,
		Warnings:      append([]string(nil), report.Warnings...),
	}
	im.sanitize(incoming, result)

	var installed *entities.Snapshot
	switch mode {
	case ModeReplace:
		installed = incoming
		result.FilamentsAdded = len(incoming.Filaments)
		result.ModelsAdded = len(incoming.Models)
		result.PrintsAdded = len(incoming.Prints)
	case ModeAdd:
		installed = im.merge(im.target.Snapshot(), incoming, result)
	}

	im.resolveReferences(installed, result)
	im.target.LoadSnapshot(installed)

	if im.store != nil {
		if err := im.store.Save(im.target.Snapshot()); err != nil {
			return result, err
		}
	}

	im.log.Infow("import complete",
		"mode", mode,
		"filaments", result.FilamentsAdded,
		"models", result.ModelsAdded,
		"prints", result.PrintsAdded,
		"rejected", len(result.Rejected))
	return result, nil
}

// sanitize validates every incoming entity leniently and drops failures into
// the rejection list. References to dropped spools are left in place for
// resolveReferences to repair.
func (im *Importer) sanitize(snap *entities.Snapshot, result *Result) {
	kept := snap.Filaments[:0]
	for _, f := range snap.Filaments {
		if verr := services.ValidateFilament(f, services.ValidateOptions{Lenient: true}); verr != nil {
			result.Rejected = append(result.Rejected, entities.RejectedEntity{
				Kind: "filament", Name: f.ColorName, Reason: verr.Error(),
			})
			continue
		}
		kept = append(kept, f)
	}
	snap.Filaments = kept

	keptModels := snap.Models[:0]
	for _, m := range snap.Models {
		if verr := services.ValidateModel(m, services.ValidateOptions{Lenient: true}); verr != nil {
			result.Rejected = append(result.Rejected, entities.RejectedEntity{
				Kind: "model", Name: m.Name, Reason: verr.Error(),
			})
			continue
		}
		keptModels = append(keptModels, m)
	}
	snap.Models = keptModels

	keptPrints := snap.Prints[:0]
	for _, p := range snap.Prints {
		if verr := services.ValidatePrint(p); verr != nil {
			result.Rejected = append(result.Rejected, entities.RejectedEntity{
				Kind: "print", Name: p.ModelName, Reason: verr.Error(),
			})
			continue
		}
		keptPrints = append(keptPrints, p)
	}
	snap.Prints = keptPrints
}

// merge folds the incoming snapshot into the existing one. Spools are always
// appended, never collapsed; identity collisions get fresh ids and the
// incoming references follow. Models are skipped when a model of the same
// name already exists, ignoring case. Prints always append.
func (im *Importer) merge(existing, incoming *entities.Snapshot, result *Result) *entities.Snapshot {
	merged := existing.Clone()
	remap := make(map[entities.ID]entities.ID)

	taken := make(map[entities.ID]bool)
	for _, f := range merged.Filaments {
		taken[f.ID] = true
	}
	for _, f := range incoming.Filaments {
		if taken[f.ID] {
			fresh := entities.NewID()
			remap[f.ID] = fresh
			f.ID = fresh
		}
		taken[f.ID] = true
		merged.Filaments = append(merged.Filaments, f)
		result.FilamentsAdded++
	}

	modelIDs := make(map[entities.ID]bool)
	for _, m := range merged.Models {
		modelIDs[m.ID] = true
	}
	for _, m := range incoming.Models {
		if _, exists := merged.ModelByName(m.Name); exists {
			result.ModelsSkipped++
			continue
		}
		for i := range m.Requirements {
			if fresh, ok := remap[m.Requirements[i].FilamentRef]; ok {
				m.Requirements[i].FilamentRef = fresh
			}
		}
		if modelIDs[m.ID] {
			m.ID = entities.NewID()
		}
		modelIDs[m.ID] = true
		merged.Models = append(merged.Models, m)
		result.ModelsAdded++
	}

	printIDs := make(map[entities.ID]bool)
	for _, p := range merged.Prints {
		printIDs[p.ID] = true
	}
	for _, p := range incoming.Prints {
		for i := range p.FilamentUsages {
			if fresh, ok := remap[p.FilamentUsages[i].FilamentRef]; ok {
				p.FilamentUsages[i].FilamentRef = fresh
			}
		}
		if printIDs[p.ID] {
			p.ID = entities.NewID()
		}
		printIDs[p.ID] = true
		merged.Prints = append(merged.Prints, p)
		result.PrintsAdded++
	}

	materials := entities.NewStringSet(merged.MaterialTypes...)
	for _, mt := range incoming.MaterialTypes {
		materials.Add(mt)
	}
	merged.MaterialTypes = materials.Values()

	categories := entities.NewStringSet(merged.Categories...)
	for _, c := range incoming.Categories {
		categories.Add(c)
	}
	merged.Categories = categories.Values()

	return merged
}

// resolveReferences repairs requirement and usage references that resolve to
// no spool in the final state. Both carry color and material snapshots, so a
// dangling reference is rebound to the spool matching them when one exists.
// A requirement with no match keeps its stale reference for derivations to
// flag; a usage with no match is cleared, matching by snapshot from then on.
func (im *Importer) resolveReferences(snap *entities.Snapshot, result *Result) {
	present := make(map[entities.ID]bool)
	for _, f := range snap.Filaments {
		present[f.ID] = true
	}
	for _, m := range snap.Models {
		for i := range m.Requirements {
			req := &m.Requirements[i]
			if req.FilamentRef.IsZero() || present[req.FilamentRef] {
				continue
			}
			if match := spoolMatching(snap.Filaments, req.ColorName, req.MaterialType); match != nil {
				req.FilamentRef = match.ID
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("model %q: requirement %d rebound to spool %q by color and material", m.Name, i+1, match.ColorName))
				continue
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("model %q: requirement %d references no spool", m.Name, i+1))
		}
	}
	for _, p := range snap.Prints {
		for i := range p.FilamentUsages {
			u := &p.FilamentUsages[i]
			if u.FilamentRef.IsZero() || present[u.FilamentRef] {
				continue
			}
			if match := spoolMatching(snap.Filaments, u.ColorName, u.MaterialType); match != nil {
				u.FilamentRef = match.ID
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("print %q: usage %d rebound to spool %q by color and material", p.ModelName, i+1, match.ColorName))
				continue
			}
			u.FilamentRef = ""
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("print %q: usage %d references no spool, left unbound", p.ModelName, i+1))
		}
	}
}

func spoolMatching(filaments []*entities.Filament, colorName, materialType string) *entities.Filament {
	if colorName == "" || materialType == "" {
		return nil
	}
	for _, f := range filaments {
		if strings.EqualFold(f.ColorName, colorName) && strings.EqualFold(f.MaterialType, materialType) {
			return f
		}
	}
	return nil
}
