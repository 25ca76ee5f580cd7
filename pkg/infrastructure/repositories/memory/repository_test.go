package memory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

func mustFilament(t *testing.T, brand, material, color, hex string, nominal, remaining entities.Grams) *entities.Filament {
	t.Helper()
	f, err := entities.NewFilament(brand, material, color, hex, 1.75, nominal, remaining)
	if err != nil {
		t.Fatalf("fixture filament: %v", err)
	}
	return f
}

func addFilament(t *testing.T, r *Repository, f *entities.Filament) *entities.Filament {
	t.Helper()
	result, err := r.AddFilament(f, DispositionSeparate)
	if err != nil {
		t.Fatalf("AddFilament failed: %v", err)
	}
	return result.Filament
}

func addModel(t *testing.T, r *Repository, name string, reqs []entities.Requirement) *entities.Model {
	t.Helper()
	m, err := entities.NewModel(name, "Functional", entities.DifficultyMedium, reqs)
	if err != nil {
		t.Fatalf("fixture model: %v", err)
	}
	stored, err := r.AddModel(m)
	if err != nil {
		t.Fatalf("AddModel failed: %v", err)
	}
	return stored
}

func TestRepository_RecordPrintDebitsStockAndComputesVariance(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Galaxy Black", "#112233", 1000, 500))

	req, _ := entities.NewRequirement(f.ID, 20, 10, 1)
	addModel(t, r, "Benchy", []entities.Requirement{*req})

	p, _ := entities.NewPrint("Benchy", time.Now(), []entities.FilamentUsage{
		{FilamentRef: f.ID, ActualWeight: 22},
	})
	result, err := r.RecordPrint(p, false)
	if err != nil {
		t.Fatalf("RecordPrint failed: %v", err)
	}

	updated, _ := r.FilamentByID(f.ID)
	if updated.RemainingWeight != 478 {
		t.Errorf("Expected remaining weight 478, got %v", updated.RemainingWeight)
	}

	v := result.Print.Variance
	if v == nil {
		t.Fatal("Expected a usage variance against the model plan")
	}
	if v.ExpectedTotal != 20 || v.ActualTotal != 22 {
		t.Errorf("Expected 20/22 totals, got %v/%v", v.ExpectedTotal, v.ActualTotal)
	}
	if v.VariancePercent != 10 {
		t.Errorf("Expected +10%% variance, got %v", v.VariancePercent)
	}

	// Usage snapshots are filled from the spool.
	u := result.Print.FilamentUsages[0]
	if u.MaterialType != "PLA" || u.ColorName != "Galaxy Black" || u.ColorHex != "#112233" {
		t.Errorf("Expected usage snapshot from the spool, got %+v", u)
	}
}

func TestRepository_RecordPrintInsufficientStock(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Polymaker", "PETG", "Teal", "#008080", 1000, 10))

	p, _ := entities.NewPrint("Vase", time.Now(), []entities.FilamentUsage{
		{FilamentRef: f.ID, ActualWeight: 15},
	})

	_, err := r.RecordPrint(p, false)
	var stockErr *entities.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if len(stockErr.Deficits) != 1 {
		t.Fatalf("Expected 1 deficit, got %d", len(stockErr.Deficits))
	}
	d := stockErr.Deficits[0]
	if d.Requested != 15 || d.Available != 10 || d.Deficit != 5 {
		t.Errorf("Expected 15/10/5 deficit, got %v/%v/%v", d.Requested, d.Available, d.Deficit)
	}

	// The refusal must leave stock untouched.
	after, _ := r.FilamentByID(f.ID)
	if after.RemainingWeight != 10 {
		t.Errorf("Expected remaining weight unchanged at 10, got %v", after.RemainingWeight)
	}

	// Allow-negative clamps at zero and warns instead.
	result, err := r.RecordPrint(p, true)
	if err != nil {
		t.Fatalf("Expected allow-negative record to succeed, got %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "clamped at zero") {
		t.Errorf("Expected a clamp warning, got %v", result.Warnings)
	}
	after, _ = r.FilamentByID(f.ID)
	if after.RemainingWeight != 0 {
		t.Errorf("Expected remaining weight clamped at 0, got %v", after.RemainingWeight)
	}
}

func TestRepository_RecordPrintAtomicAcrossSpools(t *testing.T) {
	r := NewRepository()
	plenty := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "White", "#ffffff", 1000, 500))
	scarce := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Black", "#000000", 1000, 5))

	p, _ := entities.NewPrint("Two Tone", time.Now(), []entities.FilamentUsage{
		{FilamentRef: plenty.ID, ActualWeight: 50},
		{FilamentRef: scarce.ID, ActualWeight: 50},
	})
	if _, err := r.RecordPrint(p, false); err == nil {
		t.Fatal("Expected the record to be refused")
	}

	// Neither spool may have been debited.
	a, _ := r.FilamentByID(plenty.ID)
	b, _ := r.FilamentByID(scarce.ID)
	if a.RemainingWeight != 500 || b.RemainingWeight != 5 {
		t.Errorf("Expected 500/5 after refusal, got %v/%v", a.RemainingWeight, b.RemainingWeight)
	}
	if len(r.Prints()) != 0 {
		t.Error("Expected no history entry after refusal")
	}
}

func TestRepository_DeleteFilamentBlockedAndSoftRetire(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Orange", "#ff8800", 1000, 800))
	req, _ := entities.NewRequirement(f.ID, 30, 10, 1)
	m := addModel(t, r, "Bracket", []entities.Requirement{*req})

	err := r.DeleteFilament(f.ID, false)
	var refErr *entities.ReferentialIntegrityError
	if !errors.As(err, &refErr) {
		t.Fatalf("Expected ReferentialIntegrityError, got %v", err)
	}
	if len(refErr.Blockers) != 1 || refErr.Blockers[0].Kind != "model" || refErr.Blockers[0].Name != m.Name {
		t.Errorf("Expected the model as blocker, got %+v", refErr.Blockers)
	}

	if err := r.DeleteFilament(f.ID, true); err != nil {
		t.Fatalf("Expected soft retire to succeed, got %v", err)
	}
	retired, ok := r.FilamentByID(f.ID)
	if !ok {
		t.Fatal("Expected retired spool to stay present")
	}
	if retired.InStock || !retired.DeletionBlocked {
		t.Errorf("Expected inStock=false deletionBlocked=true, got %v/%v", retired.InStock, retired.DeletionBlocked)
	}
}

func TestRepository_DeleteFilamentUnreferenced(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "eSun", "ABS", "Gray", "#888888", 1000, 1000))
	if err := r.DeleteFilament(f.ID, false); err != nil {
		t.Fatalf("Expected hard delete of unreferenced spool, got %v", err)
	}
	if _, ok := r.FilamentByID(f.ID); ok {
		t.Error("Expected the spool to be gone")
	}
}

func TestRepository_DuplicateDetection(t *testing.T) {
	r := NewRepository()
	first := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Galaxy Black", "#112233", 1000, 600))

	// Same brand/material/hex in different case is the same spool identity.
	dup := mustFilament(t, "PRUSAMENT", "pla", "Galactic Black", "#112233", 1000, 1000)

	result, err := r.AddFilament(dup, DispositionAsk)
	if err != nil {
		t.Fatalf("AddFilament failed: %v", err)
	}
	if result.Filament != nil || result.Duplicate == nil || result.Duplicate.ID != first.ID {
		t.Fatalf("Expected a duplicate candidate and no mutation, got %+v", result)
	}
	if len(r.Filaments()) != 1 {
		t.Error("Expected no new spool while the disposition is pending")
	}

	merged, err := r.AddFilament(dup, DispositionMerge)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !merged.Merged || merged.Filament.ID != first.ID {
		t.Fatalf("Expected a merge into the existing spool, got %+v", merged)
	}
	if merged.Filament.RemainingWeight != 1600 || merged.Filament.NominalWeight != 2000 {
		t.Errorf("Expected 1600/2000 after merge, got %v/%v",
			merged.Filament.RemainingWeight, merged.Filament.NominalWeight)
	}

	separate, err := r.AddFilament(mustFilament(t, "Prusament", "PLA", "Another Black", "#112233", 1000, 1000), DispositionSeparate)
	if err != nil {
		t.Fatalf("Separate add failed: %v", err)
	}
	if separate.Filament == nil || len(r.Filaments()) != 2 {
		t.Error("Expected a second independent spool")
	}
}

func TestRepository_ModelReferentialChecks(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Red", "#ff0000", 1000, 1000))

	req, _ := entities.NewRequirement(f.ID, 20, 10, 1)
	addModel(t, r, "Benchy", []entities.Requirement{*req})

	// Duplicate name, ignoring case.
	clash, _ := entities.NewModel("BENCHY", "Functional", entities.DifficultyEasy, []entities.Requirement{*req})
	if _, err := r.AddModel(clash); err == nil {
		t.Error("Expected a duplicate-name rejection")
	}

	// Dangling filament reference.
	ghost, _ := entities.NewRequirement(entities.NewID(), 20, 10, 1)
	dangling, _ := entities.NewModel("Ghost", "Functional", entities.DifficultyEasy, []entities.Requirement{*ghost})
	_, err := r.AddModel(dangling)
	var verr *entities.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Fields["requirements[0].filamentRef"] == "" {
		t.Errorf("Expected a dangling-reference field error, got %v", verr.Fields)
	}
}

func TestRepository_DeleteModelPreservesPrints(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Red", "#ff0000", 1000, 1000))
	req, _ := entities.NewRequirement(f.ID, 20, 10, 1)
	m := addModel(t, r, "Benchy", []entities.Requirement{*req})

	p, _ := entities.NewPrint("Benchy", time.Now(), []entities.FilamentUsage{
		{FilamentRef: f.ID, ActualWeight: 20},
	})
	if _, err := r.RecordPrint(p, false); err != nil {
		t.Fatalf("RecordPrint failed: %v", err)
	}

	if err := r.DeleteModel(m.ID); err != nil {
		t.Fatalf("DeleteModel failed: %v", err)
	}
	prints := r.Prints()
	if len(prints) != 1 || prints[0].ModelName != "Benchy" {
		t.Error("Expected the print to keep its recorded model name after the model is deleted")
	}
}

func TestRepository_DeletePrintNeverCreditsStock(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Red", "#ff0000", 1000, 500))

	p, _ := entities.NewPrint("Benchy", time.Now(), []entities.FilamentUsage{
		{FilamentRef: f.ID, ActualWeight: 100},
	})
	result, err := r.RecordPrint(p, false)
	if err != nil {
		t.Fatalf("RecordPrint failed: %v", err)
	}
	if err := r.DeletePrint(result.Print.ID); err != nil {
		t.Fatalf("DeletePrint failed: %v", err)
	}

	after, _ := r.FilamentByID(f.ID)
	if after.RemainingWeight != 400 {
		t.Errorf("Expected remaining weight to stay 400 after history removal, got %v", after.RemainingWeight)
	}
}

func TestRepository_MaterialTypeRemovalRefusedWhileInUse(t *testing.T) {
	r := NewRepository()
	addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Red", "#ff0000", 1000, 1000))

	err := r.RemoveMaterialType("PLA")
	var refErr *entities.ReferentialIntegrityError
	if !errors.As(err, &refErr) {
		t.Fatalf("Expected ReferentialIntegrityError, got %v", err)
	}

	if err := r.RemoveMaterialType("TPU"); err != nil {
		t.Errorf("Expected unused material type removal to succeed, got %v", err)
	}
	for _, mt := range r.MaterialTypes() {
		if mt == "TPU" {
			t.Error("Expected TPU to be gone")
		}
	}
}

func TestRepository_CategoryRenameAndDeleteCascade(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Red", "#ff0000", 1000, 1000))
	req, _ := entities.NewRequirement(f.ID, 20, 10, 1)

	m, _ := entities.NewModel("Hook", "Tools", entities.DifficultyEasy, []entities.Requirement{*req})
	stored, err := r.AddModel(m)
	if err != nil {
		t.Fatalf("AddModel failed: %v", err)
	}

	if err := r.RenameCategory("Tools", "Workshop"); err != nil {
		t.Fatalf("RenameCategory failed: %v", err)
	}
	renamed, _ := r.ModelByID(stored.ID)
	if renamed.Category != "Workshop" {
		t.Errorf("Expected rename to cascade, got %q", renamed.Category)
	}

	if err := r.DeleteCategory("Workshop"); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	reassigned, _ := r.ModelByID(stored.ID)
	if reassigned.Category != entities.CategoryOther {
		t.Errorf("Expected model reassigned to %s, got %q", entities.CategoryOther, reassigned.Category)
	}

	if err := r.DeleteCategory("Other"); err == nil {
		t.Error("Expected the catch-all category to refuse deletion")
	}
}

func TestRepository_RevisionAndObservers(t *testing.T) {
	r := NewRepository()

	var seen []uint64
	var second []uint64
	r.OnRevisionChange(func(rev uint64) { seen = append(seen, rev) })
	r.OnRevisionChange(func(rev uint64) { second = append(second, rev) })

	start := r.Revision()
	addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Red", "#ff0000", 1000, 1000))
	if r.Revision() != start+1 {
		t.Errorf("Expected revision %d, got %d", start+1, r.Revision())
	}
	if len(seen) != 1 || seen[0] != start+1 {
		t.Errorf("Expected one notification at revision %d, got %v", start+1, seen)
	}
	if len(second) != 1 || second[0] != start+1 {
		t.Errorf("Expected every registered observer notified, got %v", second)
	}

	// Failed mutations must not bump the revision.
	if _, err := r.AddFilament(&entities.Filament{}, DispositionSeparate); err == nil {
		t.Fatal("Expected an invalid add to fail")
	}
	if r.Revision() != start+1 {
		t.Error("Expected no revision bump on a failed mutation")
	}
}

func TestRepository_SnapshotRoundTrip(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Red", "#ff0000", 1000, 700))
	req, _ := entities.NewRequirement(f.ID, 20, 10, 1)
	addModel(t, r, "Benchy", []entities.Requirement{*req})

	snap := r.Snapshot()

	// Snapshots are detached copies.
	snap.Filaments[0].RemainingWeight = 1
	current, _ := r.FilamentByID(f.ID)
	if current.RemainingWeight != 700 {
		t.Error("Expected snapshot mutation to leave the repository untouched")
	}

	other := NewRepository()
	other.LoadSnapshot(r.Snapshot())
	if len(other.Filaments()) != 1 || len(other.Models()) != 1 {
		t.Errorf("Expected 1 filament and 1 model after reload, got %d/%d",
			len(other.Filaments()), len(other.Models()))
	}
	restored, ok := other.FilamentByID(f.ID)
	if !ok || restored.RemainingWeight != 700 {
		t.Error("Expected identity and stock preserved through the snapshot")
	}
}

func TestRepository_UpdateFilamentKeepsIdentity(t *testing.T) {
	r := NewRepository()
	f := addFilament(t, r, mustFilament(t, "Prusament", "PLA", "Red", "#ff0000", 1000, 700))

	updated, err := r.UpdateFilament(f.ID, func(x *entities.Filament) {
		x.ID = entities.NewID() // must be ignored
		x.Location = "Shelf B"
	})
	if err != nil {
		t.Fatalf("UpdateFilament failed: %v", err)
	}
	if updated.ID != f.ID {
		t.Error("Expected the identity to be immutable")
	}
	if updated.Location != "Shelf B" {
		t.Errorf("Expected the edit applied, got %q", updated.Location)
	}

	_, err = r.UpdateFilament(f.ID, func(x *entities.Filament) {
		x.RemainingWeight = x.NominalWeight + 1
	})
	var verr *entities.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}
