package services

import (
	"strings"
	"testing"
	"time"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

func validSpool() *entities.Filament {
	f, err := entities.NewFilament("Prusament", "PLA", "Galaxy Black", "#112233", 1.75, 1000, 800)
	if err != nil {
		panic(err)
	}
	return f
}

func TestValidateFilament_Passes(t *testing.T) {
	opts := ValidateOptions{MaterialTypes: entities.DefaultMaterialTypes()}
	if err := ValidateFilament(validSpool(), opts); err != nil {
		t.Fatalf("Expected valid spool to pass, got %v", err)
	}
}

func TestValidateFilament_FieldRules(t *testing.T) {
	opts := ValidateOptions{MaterialTypes: entities.DefaultMaterialTypes()}

	testCases := []struct {
		name    string
		mutate  func(f *entities.Filament)
		field   string
		message string
	}{
		{"brand too short", func(f *entities.Filament) { f.Brand = "X" }, "brand", "must be 2-100 characters"},
		{"brand too long", func(f *entities.Filament) { f.Brand = strings.Repeat("a", 101) }, "brand", "must be 2-100 characters"},
		{"brand bad characters", func(f *entities.Filament) { f.Brand = "Bad#Brand!" }, "brand", "may only contain letters, digits, spaces and -&.,"},
		{"material sentinel", func(f *entities.Filament) { f.MaterialType = "Other" }, "materialType", "choose a custom material name in place of Other"},
		{"material unknown", func(f *entities.Filament) { f.MaterialType = "Unobtanium" }, "materialType", `unknown material type "Unobtanium"`},
		{"color name short", func(f *entities.Filament) { f.ColorName = "R" }, "colorName", "must be 2-50 characters"},
		{"hex missing hash", func(f *entities.Filament) { f.ColorHex = "abcdef" }, "colorHex", "must match #RRGGBB"},
		{"hex too short", func(f *entities.Filament) { f.ColorHex = "#abcd" }, "colorHex", "must match #RRGGBB"},
		{"hex bad digits", func(f *entities.Filament) { f.ColorHex = "#gggggg" }, "colorHex", "must match #RRGGBB"},
		{"legacy diameter strict", func(f *entities.Filament) { f.Diameter = 3.00 }, "diameter", "must be 1.75 or 2.85"},
		{"weight too small", func(f *entities.Filament) { f.NominalWeight = 0.05 }, "nominalWeight", "must be between 0.1 and 10000 grams"},
		{"weight too large", func(f *entities.Filament) { f.NominalWeight = 10001; f.RemainingWeight = 10001 }, "nominalWeight", "must be between 0.1 and 10000 grams"},
		{"remaining negative", func(f *entities.Filament) { f.RemainingWeight = -1 }, "remainingWeight", "cannot be negative"},
		{"remaining above nominal", func(f *entities.Filament) { f.RemainingWeight = 1200 }, "remainingWeight", "cannot exceed nominal weight"},
		{"price too high", func(f *entities.Filament) { p := entities.Money(1001); f.PurchasePrice = &p }, "purchasePrice", "must be between 0 and 1000"},
		{"price negative", func(f *entities.Filament) { p := entities.Money(-1); f.PurchasePrice = &p }, "purchasePrice", "must be between 0 and 1000"},
		{"location too long", func(f *entities.Filament) { f.Location = strings.Repeat("x", 201) }, "location", "must be at most 200 characters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := validSpool()
			tc.mutate(f)
			err := ValidateFilament(f, opts)
			if err == nil {
				t.Fatalf("Expected a validation error for %s", tc.name)
			}
			if got := err.Fields[tc.field]; got != tc.message {
				t.Errorf("Expected field %q message %q, got %q (all: %v)", tc.field, tc.message, got, err.Fields)
			}
		})
	}
}

func TestValidateFilament_Temperatures(t *testing.T) {
	opts := ValidateOptions{MaterialTypes: entities.DefaultMaterialTypes()}
	temp := func(v int) *int { return &v }

	testCases := []struct {
		name    string
		min     *int
		max     *int
		field   string
		wantErr bool
	}{
		{"none set", nil, nil, "", false},
		{"narrow band accepted", temp(200), temp(201), "", false},
		{"inverted", temp(201), temp(200), "maxTemp", true},
		{"min below floor", temp(149), temp(210), "minTemp", true},
		{"max above ceiling", temp(200), temp(351), "maxTemp", true},
		{"only one bound", temp(200), nil, "temperature", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := validSpool()
			f.MinTemp, f.MaxTemp = tc.min, tc.max
			err := ValidateFilament(f, opts)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Expected a validation error")
				}
				if _, ok := err.Fields[tc.field]; !ok {
					t.Errorf("Expected failure on field %q, got %v", tc.field, err.Fields)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateFilament_LenientAcceptsLegacyDiameter(t *testing.T) {
	f := validSpool()
	f.Diameter = 3.00
	if err := ValidateFilament(f, ValidateOptions{Lenient: true}); err != nil {
		t.Errorf("Expected lenient validation to accept 3.00 diameter, got %v", err)
	}
}

func TestValidateModel_RequirementBounds(t *testing.T) {
	req, _ := entities.NewRequirement("f1", 20, 10, 1)
	base, _ := entities.NewModel("Cube", "Tools", entities.DifficultyEasy, []entities.Requirement{*req})

	testCases := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"count zero rejected", 0, true},
		{"count one accepted", 1, false},
		{"count hundred accepted", 100, false},
		{"count above hundred rejected", 101, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := base.Clone()
			m.Requirements[0].RequiredCount = tc.count
			err := ValidateModel(m, ValidateOptions{})
			if tc.wantErr && err == nil {
				t.Error("Expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}

	m := base.Clone()
	m.Requirements = nil
	err := ValidateModel(m, ValidateOptions{})
	if err == nil || err.Fields["requirements"] != "at least one requirement is required" {
		t.Errorf("Expected missing-requirements failure, got %v", err)
	}
}

func TestValidatePrint_Rules(t *testing.T) {
	p, _ := entities.NewPrint("Cube", time.Now(), []entities.FilamentUsage{
		{FilamentRef: "f1", MaterialType: "PLA", ColorName: "Red", ActualWeight: 22},
	})
	if err := ValidatePrint(p); err != nil {
		t.Fatalf("Expected valid print to pass, got %v", err)
	}

	long := p.Clone()
	long.Notes = strings.Repeat("n", 501)
	if err := ValidatePrint(long); err == nil || err.Fields["printNotes"] == "" {
		t.Errorf("Expected notes length failure, got %v", err)
	}

	dur := p.Clone()
	h := 169.0
	dur.DurationHours = &h
	if err := ValidatePrint(dur); err == nil || err.Fields["durationHours"] == "" {
		t.Errorf("Expected duration failure, got %v", err)
	}

	bad := p.Clone()
	bad.Quality = "amazing"
	if err := ValidatePrint(bad); err == nil || err.Fields["qualityRating"] == "" {
		t.Errorf("Expected quality failure, got %v", err)
	}

	drift := p.Clone()
	drift.TotalWeight = 30
	if err := ValidatePrint(drift); err == nil || err.Fields["totalWeight"] != "does not match the sum of usages" {
		t.Errorf("Expected total-weight failure, got %v", err)
	}
}
