package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

const legacyFlatBlob = `{
	"filaments": [{ "id": 1, "material": "PLA", "color": "Red", "weight": 1000 }],
	"models": [{ "id": 2, "name": "X", "requirements": [{ "material": "PLA", "color": "Red" }] }],
	"prints": [{ "id": 3, "modelName": "X", "color": "Red", "weight": 15 }]
}`

func TestDetectVersion(t *testing.T) {
	testCases := []struct {
		name   string
		blob   string
		expect string
	}{
		{"current snapshot", `{"version":"2.0","filaments":[]}`, "2.0"},
		{"export document", `{"version":"2.0","application":"spooltrack","data":{"filaments":[]}}`, "2.0"},
		{"legacy flat", legacyFlatBlob, VersionLegacyFlat},
		{"legacy prints only", `{"prints":[]}`, VersionLegacyFlat},
		{"unrelated object", `{"foo":1}`, VersionUnknown},
		{"not json", `garbage`, VersionUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectVersion([]byte(tc.blob)); got != tc.expect {
				t.Errorf("Expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestMigrate_LegacyFlatSnapshot(t *testing.T) {
	snap, report, err := Migrate([]byte(legacyFlatBlob))
	if err != nil {
		t.Fatalf("Expected migration to succeed: %v", err)
	}
	if snap.Version != entities.SnapshotVersion {
		t.Errorf("Expected version stamp %q, got %q", entities.SnapshotVersion, snap.Version)
	}

	if len(snap.Filaments) != 1 {
		t.Fatalf("Expected 1 filament, got %d", len(snap.Filaments))
	}
	f := snap.Filaments[0]
	if f.ID != "1" {
		t.Errorf("Expected legacy numeric id to survive as %q, got %q", "1", f.ID)
	}
	if f.MaterialType != "PLA" {
		t.Errorf("Expected material rename to materialType=PLA, got %q", f.MaterialType)
	}
	if f.Brand != "Unknown" {
		t.Errorf("Expected backfilled brand Unknown, got %q", f.Brand)
	}
	if f.ColorHex != "#cccccc" {
		t.Errorf("Expected backfilled colorHex #cccccc, got %q", f.ColorHex)
	}
	if f.Diameter != 1.75 {
		t.Errorf("Expected backfilled diameter 1.75, got %v", f.Diameter)
	}
	if !f.InStock {
		t.Error("Expected backfilled inStock=true")
	}
	if f.NominalWeight != 1000 || f.RemainingWeight != 1000 {
		t.Errorf("Expected weights 1000/1000, got %v/%v", f.NominalWeight, f.RemainingWeight)
	}

	if len(snap.Models) != 1 {
		t.Fatalf("Expected 1 model, got %d", len(snap.Models))
	}
	m := snap.Models[0]
	if m.Category != entities.CategoryOther {
		t.Errorf("Expected backfilled category Other, got %q", m.Category)
	}
	if m.Difficulty != entities.DifficultyMedium {
		t.Errorf("Expected backfilled difficulty Medium, got %q", m.Difficulty)
	}
	if m.AddedDate.IsZero() {
		t.Error("Expected backfilled added date")
	}
	if len(m.Requirements) != 1 {
		t.Fatalf("Expected 1 requirement, got %d", len(m.Requirements))
	}
	req := m.Requirements[0]
	if req.ExpectedWeight != 20 || req.Tolerance != 10 || req.RequiredCount != 1 {
		t.Errorf("Expected requirement defaults 20/10/1, got %v/%v/%d", req.ExpectedWeight, req.Tolerance, req.RequiredCount)
	}
	if req.FilamentRef != f.ID {
		t.Errorf("Expected requirement bound to filament %s by (color, material), got %q", f.ID, req.FilamentRef)
	}
	if req.MaterialType != "PLA" || req.ColorName != "Red" {
		t.Errorf("Expected requirement to carry snapshots PLA/Red, got %s/%s", req.MaterialType, req.ColorName)
	}

	if len(snap.Prints) != 1 {
		t.Fatalf("Expected 1 print, got %d", len(snap.Prints))
	}
	p := snap.Prints[0]
	if len(p.FilamentUsages) != 1 {
		t.Fatalf("Expected synthesized single usage, got %d", len(p.FilamentUsages))
	}
	u := p.FilamentUsages[0]
	if u.ColorName != "Red" || u.MaterialType != "PLA" || u.ActualWeight != 15 {
		t.Errorf("Expected usage snapshot Red/PLA/15, got %s/%s/%v", u.ColorName, u.MaterialType, u.ActualWeight)
	}
	if u.FilamentRef != f.ID {
		t.Errorf("Expected usage bound to filament %s, got %q", f.ID, u.FilamentRef)
	}
	if p.TotalWeight != 15 {
		t.Errorf("Expected total weight 15, got %v", p.TotalWeight)
	}
	if p.Variance == nil {
		t.Fatal("Expected variance computed against the model")
	}
	if p.Variance.ExpectedTotal != 20 || p.Variance.ActualTotal != 15 || p.Variance.VariancePercent != -25 {
		t.Errorf("Expected variance 20/15/-25, got %+v", p.Variance)
	}
	if p.Timestamp.IsZero() {
		t.Error("Expected backfilled timestamp")
	}

	// The expected-weight default comes with a warning.
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "assumed 20 g") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an assumed-20g warning, got %v", report.Warnings)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	first, _, err := Migrate([]byte(legacyFlatBlob))
	if err != nil {
		t.Fatalf("First migration failed: %v", err)
	}
	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, report, err := Migrate(encoded)
	if err != nil {
		t.Fatalf("Second migration failed: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("Expected migrate(migrate(x)) == migrate(x)\nfirst:  %s\nsecond: %s", a, b)
	}
	for _, w := range report.Warnings {
		if strings.Contains(w, "assumed") || strings.Contains(w, "reissued") {
			t.Errorf("Expected no backfill warnings on second pass, got %q", w)
		}
	}
}

func TestMigrate_ReissuesDuplicateIDs(t *testing.T) {
	blob := `{"filaments":[
		{"id":"f1","brand":"AA","materialType":"PLA","colorName":"Red","colorHex":"#112233","diameter":1.75,"nominalWeight":1000},
		{"id":"f1","brand":"BB","materialType":"PETG","colorName":"Blue","colorHex":"#445566","diameter":1.75,"nominalWeight":1000}
	]}`
	snap, report, err := Migrate([]byte(blob))
	if err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	if snap.Filaments[0].ID == snap.Filaments[1].ID {
		t.Error("Expected colliding ids to be reissued")
	}
	if len(report.Warnings) == 0 {
		t.Error("Expected a reissue warning")
	}
}

func TestMigrate_UnknownShapes(t *testing.T) {
	var schemaErr *entities.SchemaError

	_, _, err := Migrate([]byte(`not json at all`))
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError for unparseable input, got %v", err)
	}

	_, _, err = Migrate([]byte(`{"totally":"unrelated"}`))
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError for unrecognized shape, got %v", err)
	}
}

func TestMigrate_EpochMillisecondTimestamps(t *testing.T) {
	blob := `{"prints":[{"id":"p1","modelName":"X","timestamp":1756000000000,
		"filamentUsages":[{"colorName":"Red","materialType":"PLA","actualWeight":5}]}]}`
	snap, _, err := Migrate([]byte(blob))
	if err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	ts := snap.Prints[0].Timestamp
	if ts.Year() != 2025 {
		t.Errorf("Expected millisecond epoch to land in 2025, got %v", ts)
	}
}

func TestMigrate_AdoptsMaterialsAndCategories(t *testing.T) {
	blob := `{
		"filaments":[{"id":"f1","brand":"AA","materialType":"ASA","colorName":"Gray","colorHex":"#112233","diameter":1.75,"nominalWeight":500}],
		"models":[{"id":"m1","name":"Mount","category":"Photography","requirements":[{"filamentRef":"f1","expectedWeight":12}]}]
	}`
	snap, _, err := Migrate([]byte(blob))
	if err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	if !containsLabel(snap.MaterialTypes, "ASA") {
		t.Errorf("Expected ASA adopted into material types, got %v", snap.MaterialTypes)
	}
	if !containsLabel(snap.Categories, "Photography") {
		t.Errorf("Expected Photography adopted into categories, got %v", snap.Categories)
	}
	if !containsLabel(snap.Categories, entities.CategoryOther) {
		t.Errorf("Expected Other category present, got %v", snap.Categories)
	}
}

func containsLabel(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
