package entities

import (
	"testing"
	"time"
)

func TestNewPrint_Validation(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	usages := []FilamentUsage{
		{FilamentRef: "f1", MaterialType: "PLA", ColorName: "Red", ActualWeight: 22},
		{FilamentRef: "f2", MaterialType: "PETG", ColorName: "Blue", ActualWeight: 8.5},
	}

	p, err := NewPrint("Cube", date, usages)
	if err != nil {
		t.Fatalf("Expected valid print creation to succeed: %v", err)
	}
	if p.TotalWeight != 30.5 {
		t.Errorf("Expected total weight 30.5, got %v", p.TotalWeight)
	}
	if p.Quality != QualityUnset {
		t.Errorf("Expected default quality unset, got %q", p.Quality)
	}
	if p.PrintDate != date {
		t.Errorf("Expected print date preserved, got %v", p.PrintDate)
	}

	testCases := []struct {
		name        string
		modelName   string
		usages      []FilamentUsage
		expectError string
	}{
		{"empty model name", "", usages, "print model name cannot be empty"},
		{"no usages", "Cube", nil, "print must have at least one filament usage"},
		{
			"zero weight usage",
			"Cube",
			[]FilamentUsage{{FilamentRef: "f1", ActualWeight: 0}},
			"usage 1: actual weight must be positive, got 0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPrint(tc.modelName, date, tc.usages)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestPrint_TotalMatchesUsagesAfterEdit(t *testing.T) {
	p, err := NewPrint("Cube", time.Now(), []FilamentUsage{
		{FilamentRef: "f1", MaterialType: "PLA", ColorName: "Red", ActualWeight: 10},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	p.FilamentUsages = append(p.FilamentUsages, FilamentUsage{
		FilamentRef: "f2", MaterialType: "PLA", ColorName: "Blue", ActualWeight: 5.25,
	})
	p.RecomputeTotal()

	if !p.TotalWeight.ApproxEqual(15.25) {
		t.Errorf("Expected total 15.25, got %v", p.TotalWeight)
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	f, _ := NewFilament("X", "PLA", "Red", "#112233", 1.75, 1000, 500)
	req, _ := NewRequirement(f.ID, 20, 10, 1)
	m, _ := NewModel("Cube", "Tools", DifficultyEasy, []Requirement{*req})
	p, _ := NewPrint("Cube", time.Now(), []FilamentUsage{
		{FilamentRef: f.ID, MaterialType: "PLA", ColorName: "Red", ActualWeight: 22},
	})

	snap := NewSnapshot()
	snap.Filaments = append(snap.Filaments, f)
	snap.Models = append(snap.Models, m)
	snap.Prints = append(snap.Prints, p)

	clone := snap.Clone()
	clone.Filaments[0].RemainingWeight = 0
	clone.Models[0].Requirements[0].ExpectedWeight = 99
	clone.MaterialTypes[0] = "changed"

	if f.RemainingWeight != 500 {
		t.Error("Expected clone filament mutation not to touch the original")
	}
	if m.Requirements[0].ExpectedWeight != 20 {
		t.Error("Expected clone requirement mutation not to touch the original")
	}
	if snap.MaterialTypes[0] == "changed" {
		t.Error("Expected clone set mutation not to touch the original")
	}

	if _, ok := snap.FilamentByID(f.ID); !ok {
		t.Error("Expected FilamentByID to find the spool")
	}
	if _, ok := snap.ModelByName("cube"); !ok {
		t.Error("Expected ModelByName to match case-insensitively")
	}
}
