// Package memory provides the in-memory authoritative repository. All reads
// and mutations go through it; persistence only sees the snapshots it
// produces.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/printforge/spooltrack/pkg/domain/entities"
	"github.com/printforge/spooltrack/pkg/domain/repositories"
	"github.com/printforge/spooltrack/pkg/domain/services"
)

// DuplicateDisposition tells AddFilament what to do when an equivalent spool
// already exists.
type DuplicateDisposition int

const (
	// DispositionAsk reports the candidate without mutating anything.
	DispositionAsk DuplicateDisposition = iota
	// DispositionMerge folds the new spool's weights into the existing one.
	DispositionMerge
	// DispositionSeparate stores the new spool as its own entry.
	DispositionSeparate
)

// AddFilamentResult reports the outcome of an add. When Duplicate is set and
// Filament is nil, nothing was stored; the caller should re-submit with a
// merge or separate disposition.
type AddFilamentResult struct {
	Filament  *entities.Filament
	Duplicate *entities.Filament
	Merged    bool
}

// RecordPrintResult carries the stored print plus any clamp warnings from an
// allow-negative debit.
type RecordPrintResult struct {
	Print    *entities.Print
	Warnings []string
}

// Repository is the single authoritative holder of inventory state. It is
// safe for concurrent use; every successful mutation bumps a monotonic
// revision counter and notifies registered observers.
type Repository struct {
	mu            sync.RWMutex
	filaments     []*entities.Filament
	models        []*entities.Model
	prints        []*entities.Print
	materialTypes *entities.StringSet
	categories    *entities.StringSet
	revision      uint64
	subscribers   []func(uint64)
}

// NewRepository creates an empty repository seeded with the default material
// types and categories.
func NewRepository() *Repository {
	return &Repository{
		materialTypes: entities.NewStringSet(entities.DefaultMaterialTypes()...),
		categories:    entities.NewStringSet(entities.DefaultCategories()...),
	}
}

// Verify interface compliance
var _ repositories.InventoryView = (*Repository)(nil)

// OnRevisionChange registers an observer called after every successful
// mutation, outside the repository lock.
func (r *Repository) OnRevisionChange(fn func(revision uint64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// LoadSnapshot replaces the whole state with the snapshot's contents. Used at
// startup and by replace-mode imports.
func (r *Repository) LoadSnapshot(snap *entities.Snapshot) {
	clone := snap.Clone()

	r.mu.Lock()
	r.filaments = clone.Filaments
	r.models = clone.Models
	r.prints = clone.Prints
	r.materialTypes = entities.NewStringSet(clone.MaterialTypes...)
	r.categories = entities.NewStringSet(clone.Categories...)
	if !r.categories.Contains(entities.CategoryOther) {
		r.categories.Add(entities.CategoryOther)
	}
	r.finish()
}

// bumpLocked advances the revision and snapshots the observer list. Callers
// hold the write lock.
func (r *Repository) bumpLocked() (uint64, []func(uint64)) {
	r.revision++
	return r.revision, append([]func(uint64){}, r.subscribers...)
}

// finish bumps the revision, releases the write lock and notifies observers.
func (r *Repository) finish() {
	rev, subs := r.bumpLocked()
	r.mu.Unlock()
	for _, fn := range subs {
		fn(rev)
	}
}

// --- Filaments ---

// AddFilament stores a new spool. An equivalent spool (same brand, material
// and color hex, ignoring case) triggers duplicate handling per the
// disposition.
func (r *Repository) AddFilament(f *entities.Filament, disposition DuplicateDisposition) (*AddFilamentResult, error) {
	clone := f.Clone()
	if clone.ID.IsZero() {
		clone.ID = entities.NewID()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	clone.UpdatedAt = time.Now()

	if verr := services.ValidateFilament(clone, services.ValidateOptions{}); verr != nil {
		return nil, verr
	}

	r.mu.Lock()
	if dup := r.findDuplicateLocked(clone); dup != nil {
		switch disposition {
		case DispositionMerge:
			dup.NominalWeight = dup.NominalWeight.Add(clone.NominalWeight)
			dup.RemainingWeight = dup.RemainingWeight.Add(clone.RemainingWeight)
			dup.InStock = true
			if clone.Notes != "" && !strings.Contains(dup.Notes, clone.Notes) {
				if dup.Notes != "" {
					dup.Notes += "\n"
				}
				dup.Notes += clone.Notes
			}
			dup.Touch()
			r.finish()
			return &AddFilamentResult{Filament: dup, Duplicate: dup, Merged: true}, nil
		case DispositionSeparate:
			// fall through to a plain insert
		default:
			r.mu.Unlock()
			return &AddFilamentResult{Duplicate: dup}, nil
		}
	}

	r.materialTypes.Add(clone.MaterialType)
	r.filaments = append(r.filaments, clone)
	r.finish()
	return &AddFilamentResult{Filament: clone}, nil
}

// UpdateFilament applies an edit to a copy of the spool, re-validates it and
// installs it. The identity is immutable.
func (r *Repository) UpdateFilament(id entities.ID, apply func(*entities.Filament)) (*entities.Filament, error) {
	r.mu.Lock()

	idx := r.filamentIndexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("filament not found: %s", id)
	}
	current := r.filaments[idx]

	clone := current.Clone()
	apply(clone)
	clone.ID = id

	// Spools imported with the retired 3.00 mm diameter stay editable as long
	// as the diameter itself is untouched.
	lenient := current.Diameter == entities.LegacyDiameter && clone.Diameter == current.Diameter
	if verr := services.ValidateFilament(clone, services.ValidateOptions{Lenient: lenient}); verr != nil {
		r.mu.Unlock()
		return nil, verr
	}

	r.materialTypes.Add(clone.MaterialType)
	clone.Touch()
	r.filaments[idx] = clone
	r.finish()
	return clone, nil
}

// DeleteFilament removes a spool. A spool still referenced by model
// requirements or print usages cannot be hard-deleted; with softRetire the
// spool is instead marked out of stock and kept for history.
func (r *Repository) DeleteFilament(id entities.ID, softRetire bool) error {
	r.mu.Lock()

	idx := r.filamentIndexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("filament not found: %s", id)
	}
	f := r.filaments[idx]
	blockers := r.filamentBlockersLocked(id)

	if softRetire {
		f.InStock = false
		f.DeletionBlocked = len(blockers) > 0
		f.Touch()
		r.finish()
		return nil
	}
	if len(blockers) > 0 {
		r.mu.Unlock()
		return &entities.ReferentialIntegrityError{
			Subject:  fmt.Sprintf("filament %q", f.ColorName),
			Blockers: blockers,
		}
	}

	r.filaments = append(r.filaments[:idx], r.filaments[idx+1:]...)
	r.finish()
	return nil
}

func (r *Repository) findDuplicateLocked(f *entities.Filament) *entities.Filament {
	key := f.DuplicateKey()
	for _, existing := range r.filaments {
		if existing.ID != f.ID && existing.DuplicateKey() == key {
			return existing
		}
	}
	return nil
}

func (r *Repository) filamentIndexLocked(id entities.ID) int {
	for i, f := range r.filaments {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) filamentBlockersLocked(id entities.ID) []entities.Blocker {
	var blockers []entities.Blocker
	for _, m := range r.models {
		for _, req := range m.Requirements {
			if req.FilamentRef == id {
				blockers = append(blockers, entities.Blocker{Kind: "model", ID: m.ID, Name: m.Name})
				break
			}
		}
	}
	for _, p := range r.prints {
		for _, u := range p.FilamentUsages {
			if u.FilamentRef == id {
				blockers = append(blockers, entities.Blocker{Kind: "print", ID: p.ID, Name: p.ModelName})
				break
			}
		}
	}
	return blockers
}

// --- Models ---

// AddModel stores a new model. Every requirement must reference an existing
// spool and the name must be unique, ignoring case.
func (r *Repository) AddModel(m *entities.Model) (*entities.Model, error) {
	clone := m.Clone()
	if clone.ID.IsZero() {
		clone.ID = entities.NewID()
	}
	if clone.AddedDate.IsZero() {
		clone.AddedDate = time.Now()
	}
	clone.UpdatedAt = time.Now()
	clone.RefreshTags()

	if verr := services.ValidateModel(clone, services.ValidateOptions{}); verr != nil {
		return nil, verr
	}

	r.mu.Lock()
	if verr := r.checkModelReferencesLocked(clone, entities.ID("")); verr != nil {
		r.mu.Unlock()
		return nil, verr
	}

	r.categories.Add(clone.Category)
	r.models = append(r.models, clone)
	r.finish()
	return clone, nil
}

// UpdateModel applies an edit to a copy of the model, re-validates it and
// installs it.
func (r *Repository) UpdateModel(id entities.ID, apply func(*entities.Model)) (*entities.Model, error) {
	r.mu.Lock()

	idx := r.modelIndexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("model not found: %s", id)
	}

	clone := r.models[idx].Clone()
	apply(clone)
	clone.ID = id
	clone.RefreshTags()

	if verr := services.ValidateModel(clone, services.ValidateOptions{}); verr != nil {
		r.mu.Unlock()
		return nil, verr
	}
	if verr := r.checkModelReferencesLocked(clone, id); verr != nil {
		r.mu.Unlock()
		return nil, verr
	}

	r.categories.Add(clone.Category)
	clone.Touch()
	r.models[idx] = clone
	r.finish()
	return clone, nil
}

// DeleteModel removes a model. Prints that referenced it keep their recorded
// model name.
func (r *Repository) DeleteModel(id entities.ID) error {
	r.mu.Lock()

	idx := r.modelIndexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("model not found: %s", id)
	}
	r.models = append(r.models[:idx], r.models[idx+1:]...)
	r.finish()
	return nil
}

// checkModelReferencesLocked enforces name uniqueness and resolvable
// requirement references. The self id is excluded from the name check on
// updates.
func (r *Repository) checkModelReferencesLocked(m *entities.Model, self entities.ID) *entities.ValidationError {
	fields := make(map[string]string)
	for _, existing := range r.models {
		if existing.ID != self && strings.EqualFold(existing.Name, m.Name) {
			fields["name"] = fmt.Sprintf("a model named %q already exists", existing.Name)
			break
		}
	}
	for i, req := range m.Requirements {
		if req.FilamentRef.IsZero() {
			continue
		}
		if r.filamentIndexLocked(req.FilamentRef) < 0 {
			fields[fmt.Sprintf("requirements[%d].filamentRef", i)] = "references an unknown filament"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &entities.ValidationError{Entity: "model", Fields: fields}
}

func (r *Repository) modelIndexLocked(id entities.ID) int {
	for i, m := range r.models {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// --- Prints ---

// RecordPrint validates a print, checks every referenced spool can cover its
// debit, then commits the debits and the history entry atomically. With
// allowNegative the stock check is skipped and over-debited spools clamp at
// zero, reported as warnings. Usages referencing no spool are recorded
// without touching stock.
func (r *Repository) RecordPrint(p *entities.Print, allowNegative bool) (*RecordPrintResult, error) {
	clone := p.Clone()
	if clone.ID.IsZero() {
		clone.ID = entities.NewID()
	}
	if clone.Quality == "" {
		clone.Quality = entities.QualityUnset
	}
	if clone.PrintDate.IsZero() {
		clone.PrintDate = time.Now()
	}
	if clone.Timestamp.IsZero() {
		clone.Timestamp = time.Now()
	}
	clone.RecomputeTotal()

	if verr := services.ValidatePrint(clone); verr != nil {
		return nil, verr
	}

	r.mu.Lock()

	// Phase one: resolve references and project every debit before touching
	// anything, so a failure leaves no partial debits behind.
	debits := make(map[entities.ID]entities.Grams)
	for i, u := range clone.FilamentUsages {
		if u.FilamentRef.IsZero() {
			continue
		}
		if r.filamentIndexLocked(u.FilamentRef) < 0 {
			r.mu.Unlock()
			return nil, &entities.ValidationError{
				Entity: "print",
				Fields: map[string]string{
					fmt.Sprintf("filamentUsages[%d].filamentRef", i): "references an unknown filament",
				},
			}
		}
		debits[u.FilamentRef] = debits[u.FilamentRef].Add(u.ActualWeight)
	}

	var deficits []entities.StockDeficit
	for _, f := range r.filaments {
		debit, ok := debits[f.ID]
		if !ok {
			continue
		}
		if f.RemainingWeight < debit {
			deficits = append(deficits, entities.StockDeficit{
				FilamentID: f.ID,
				ColorName:  f.ColorName,
				Requested:  debit,
				Available:  f.RemainingWeight,
				Deficit:    debit.Sub(f.RemainingWeight),
			})
		}
	}
	if len(deficits) > 0 && !allowNegative {
		r.mu.Unlock()
		return nil, &entities.InsufficientStockError{Deficits: deficits}
	}

	// Phase two: commit.
	result := &RecordPrintResult{Print: clone}
	for _, f := range r.filaments {
		debit, ok := debits[f.ID]
		if !ok {
			continue
		}
		remaining := f.RemainingWeight.Sub(debit)
		if remaining < 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("spool %q over-debited by %.2f g, clamped at zero", f.ColorName, float64(-remaining)))
			remaining = 0
		}
		f.RemainingWeight = remaining
		f.Touch()
	}

	for i := range clone.FilamentUsages {
		u := &clone.FilamentUsages[i]
		if u.FilamentRef.IsZero() {
			continue
		}
		if idx := r.filamentIndexLocked(u.FilamentRef); idx >= 0 {
			f := r.filaments[idx]
			if u.MaterialType == "" {
				u.MaterialType = f.MaterialType
			}
			if u.ColorName == "" {
				u.ColorName = f.ColorName
			}
			if u.ColorHex == "" {
				u.ColorHex = f.ColorHex
			}
		}
	}

	if m, ok := r.modelByNameLocked(clone.ModelName); ok {
		var expected entities.Grams
		for _, req := range m.Requirements {
			expected = expected.Add(req.ExpectedWeight.MulInt(req.RequiredCount))
		}
		clone.Variance = entities.ComputeVariance(expected, clone.TotalWeight)
	}

	r.prints = append(r.prints, clone)
	r.finish()
	return result, nil
}

// UpdatePrint edits a history entry. Stock is never touched; corrections to
// consumed weights adjust the record, not the spools.
func (r *Repository) UpdatePrint(id entities.ID, apply func(*entities.Print)) (*entities.Print, error) {
	r.mu.Lock()

	idx := r.printIndexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("print not found: %s", id)
	}

	clone := r.prints[idx].Clone()
	apply(clone)
	clone.ID = id
	clone.RecomputeTotal()

	if verr := services.ValidatePrint(clone); verr != nil {
		r.mu.Unlock()
		return nil, verr
	}

	if m, ok := r.modelByNameLocked(clone.ModelName); ok {
		var expected entities.Grams
		for _, req := range m.Requirements {
			expected = expected.Add(req.ExpectedWeight.MulInt(req.RequiredCount))
		}
		clone.Variance = entities.ComputeVariance(expected, clone.TotalWeight)
	}

	r.prints[idx] = clone
	r.finish()
	return clone, nil
}

// DeletePrint removes a history entry. Deleting history never credits stock
// back.
func (r *Repository) DeletePrint(id entities.ID) error {
	r.mu.Lock()

	idx := r.printIndexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("print not found: %s", id)
	}
	r.prints = append(r.prints[:idx], r.prints[idx+1:]...)
	r.finish()
	return nil
}

func (r *Repository) printIndexLocked(id entities.ID) int {
	for i, p := range r.prints {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) modelByNameLocked(name string) (*entities.Model, bool) {
	for _, m := range r.models {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return nil, false
}

// --- Material types and categories ---

// AddMaterialType adds a label to the dynamic material-type set.
func (r *Repository) AddMaterialType(name string) error {
	r.mu.Lock()
	if !r.materialTypes.Add(name) {
		r.mu.Unlock()
		return fmt.Errorf("material type %q already exists or is blank", name)
	}
	r.finish()
	return nil
}

// RemoveMaterialType deletes a label. Removal is refused while any spool
// still uses the material.
func (r *Repository) RemoveMaterialType(name string) error {
	r.mu.Lock()

	var blockers []entities.Blocker
	for _, f := range r.filaments {
		if strings.EqualFold(f.MaterialType, name) {
			blockers = append(blockers, entities.Blocker{Kind: "filament", ID: f.ID, Name: f.ColorName})
		}
	}
	if len(blockers) > 0 {
		r.mu.Unlock()
		return &entities.ReferentialIntegrityError{
			Subject:  fmt.Sprintf("material type %q", name),
			Blockers: blockers,
		}
	}
	if !r.materialTypes.Remove(name) {
		r.mu.Unlock()
		return fmt.Errorf("material type not found: %s", name)
	}
	r.finish()
	return nil
}

// AddCategory adds a label to the dynamic category set.
func (r *Repository) AddCategory(name string) error {
	r.mu.Lock()
	if !r.categories.Add(name) {
		r.mu.Unlock()
		return fmt.Errorf("category %q already exists or is blank", name)
	}
	r.finish()
	return nil
}

// RenameCategory renames a label and cascades the new spelling onto every
// model in the category.
func (r *Repository) RenameCategory(old, updated string) error {
	r.mu.Lock()

	if !r.categories.Rename(old, updated) {
		r.mu.Unlock()
		return fmt.Errorf("cannot rename category %q to %q", old, updated)
	}
	for _, m := range r.models {
		if strings.EqualFold(m.Category, old) {
			m.Category = updated
			m.Touch()
		}
	}
	r.finish()
	return nil
}

// DeleteCategory removes a label and reassigns its models to the catch-all
// category. The catch-all itself cannot be deleted.
func (r *Repository) DeleteCategory(name string) error {
	r.mu.Lock()

	if strings.EqualFold(name, entities.CategoryOther) {
		r.mu.Unlock()
		return fmt.Errorf("the %s category cannot be deleted", entities.CategoryOther)
	}
	if !r.categories.Remove(name) {
		r.mu.Unlock()
		return fmt.Errorf("category not found: %s", name)
	}
	for _, m := range r.models {
		if strings.EqualFold(m.Category, name) {
			m.Category = entities.CategoryOther
			m.Touch()
		}
	}
	r.finish()
	return nil
}

// --- Read surface ---

// Revision returns the monotonically increasing mutation counter.
func (r *Repository) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// Filaments returns all spools in insertion order. Callers must treat the
// returned entities as read-only.
func (r *Repository) Filaments() []*entities.Filament {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entities.Filament(nil), r.filaments...)
}

// FilamentByID returns the spool with the given identity, if present.
func (r *Repository) FilamentByID(id entities.ID) (*entities.Filament, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.filamentIndexLocked(id); idx >= 0 {
		return r.filaments[idx], true
	}
	return nil, false
}

// Models returns all models in insertion order.
func (r *Repository) Models() []*entities.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entities.Model(nil), r.models...)
}

// ModelByID returns the model with the given identity, if present.
func (r *Repository) ModelByID(id entities.ID) (*entities.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.modelIndexLocked(id); idx >= 0 {
		return r.models[idx], true
	}
	return nil, false
}

// ModelByName returns the first model whose name matches, ignoring case.
func (r *Repository) ModelByName(name string) (*entities.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modelByNameLocked(name)
}

// Prints returns all history entries in insertion order.
func (r *Repository) Prints() []*entities.Print {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entities.Print(nil), r.prints...)
}

// PrintByID returns the history entry with the given identity, if present.
func (r *Repository) PrintByID(id entities.ID) (*entities.Print, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.printIndexLocked(id); idx >= 0 {
		return r.prints[idx], true
	}
	return nil, false
}

// MaterialTypes returns the dynamic material-type labels in insertion order.
func (r *Repository) MaterialTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.materialTypes.Values()
}

// Categories returns the dynamic category labels in insertion order.
func (r *Repository) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.categories.Values()
}

// Snapshot materializes the full serializable aggregate as a deep copy.
func (r *Repository) Snapshot() *entities.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := entities.NewSnapshot()
	snap.Filaments = make([]*entities.Filament, 0, len(r.filaments))
	for _, f := range r.filaments {
		snap.Filaments = append(snap.Filaments, f.Clone())
	}
	snap.Models = make([]*entities.Model, 0, len(r.models))
	for _, m := range r.models {
		snap.Models = append(snap.Models, m.Clone())
	}
	snap.Prints = make([]*entities.Print, 0, len(r.prints))
	for _, p := range r.prints {
		snap.Prints = append(snap.Prints, p.Clone())
	}
	snap.MaterialTypes = r.materialTypes.Values()
	snap.Categories = r.categories.Values()
	return snap
}
