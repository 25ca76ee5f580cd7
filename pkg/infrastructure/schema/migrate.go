// Package schema upgrades any previously shipped snapshot shape to the
// current one. Transforms are ordered and idempotent: migrating an already
// migrated snapshot is a no-op. Anything recoverable becomes a warning in
// the report; only an unrecognizable blob is fatal.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// Version tags returned by DetectVersion beyond explicit snapshot versions.
const (
	VersionLegacyFlat = "legacy-flat"
	VersionUnknown    = "unknown"
)

// DetectVersion classifies a serialized blob: a versioned snapshot returns
// its version tag, the wrapperless legacy shape returns "legacy-flat",
// anything else "unknown".
func DetectVersion(blob []byte) string {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(blob, &probe); err != nil {
		return VersionUnknown
	}
	if raw, ok := probe["version"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err == nil && v != "" {
			return v
		}
	}
	for _, key := range []string{"filaments", "models", "prints"} {
		if _, ok := probe[key]; ok {
			return VersionLegacyFlat
		}
	}
	return VersionUnknown
}

// Report collects the human-readable warnings produced while migrating.
// Warnings are never fatal.
type Report struct {
	SourceVersion string
	Warnings      []string
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Migrate upgrades a deserialized blob of any supported shape to a
// current-version snapshot. It fails with SchemaError only when the blob
// cannot be parsed or recognized.
func Migrate(blob []byte) (*entities.Snapshot, *Report, error) {
	version := DetectVersion(blob)
	if version == VersionUnknown {
		var probe any
		if err := json.Unmarshal(blob, &probe); err != nil {
			return nil, nil, &entities.SchemaError{Reason: "not valid JSON", Err: err}
		}
		return nil, nil, &entities.SchemaError{Reason: "no recognizable snapshot shape"}
	}

	var doc rawDocument
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, nil, &entities.SchemaError{Reason: "snapshot does not decode", Err: err}
	}
	body := doc.body()
	report := &Report{SourceVersion: version}

	snap := &entities.Snapshot{
		Version:   entities.SnapshotVersion,
		Filaments: []*entities.Filament{},
		Models:    []*entities.Model{},
		Prints:    []*entities.Print{},
		SavedAt:   body.SavedAt.Time,
	}

	migrateFilaments(snap, body, report)
	migrateModels(snap, body, report)
	migratePrints(snap, body, report)
	migrateSets(snap, body, report)

	return snap, report, nil
}

func migrateFilaments(snap *entities.Snapshot, body *rawBody, report *Report) {
	seen := make(map[entities.ID]bool)
	for i, rf := range body.Filaments {
		f := &entities.Filament{
			ID:              rf.ID,
			Brand:           rf.Brand,
			MaterialType:    firstNonEmpty(rf.MaterialType, rf.Material),
			ColorName:       firstNonEmpty(rf.ColorName, rf.Color),
			ColorHex:        rf.ColorHex,
			Diameter:        rf.Diameter,
			NominalWeight:   rf.NominalWeight,
			PurchasePrice:   rf.PurchasePrice,
			Location:        rf.Location,
			MinTemp:         rf.MinTemp,
			MaxTemp:         rf.MaxTemp,
			InStock:         true,
			DeletionBlocked: rf.DeletionBlocked,
			Notes:           rf.Notes,
			CreatedAt:       rf.CreatedAt.Time,
			UpdatedAt:       rf.UpdatedAt.Time,
		}
		if rf.InStock != nil {
			f.InStock = *rf.InStock
		}

		if f.Brand == "" {
			f.Brand = "Unknown"
		}
		if f.MaterialType == "" {
			f.MaterialType = "PLA"
			report.warnf("filament %d: missing material type, assumed PLA", i+1)
		}
		if !entities.ColorHexPattern.MatchString(f.ColorHex) {
			f.ColorHex = "#cccccc"
		}
		switch f.Diameter {
		case 1.75, 2.85, entities.LegacyDiameter:
		default:
			f.Diameter = 1.75
		}

		if f.NominalWeight <= 0 && rf.Weight > 0 {
			f.NominalWeight = rf.Weight
		}
		if f.NominalWeight <= 0 {
			f.NominalWeight = 1000
			report.warnf("filament %d (%s): missing spool weight, assumed 1000 g", i+1, f.ColorName)
		}
		if rf.RemainingWeight != nil {
			f.RemainingWeight = *rf.RemainingWeight
		} else {
			f.RemainingWeight = f.NominalWeight
		}
		if f.RemainingWeight < 0 {
			report.warnf("filament %d (%s): negative remaining weight clamped to 0", i+1, f.ColorName)
			f.RemainingWeight = 0
		}
		if f.RemainingWeight > f.NominalWeight {
			report.warnf("filament %d (%s): remaining weight above spool weight, clamped", i+1, f.ColorName)
			f.RemainingWeight = f.NominalWeight
		}

		if f.ID.IsZero() {
			f.ID = entities.NewID()
			report.warnf("filament %d (%s): missing id, issued a new one", i+1, f.ColorName)
		} else if seen[f.ID] {
			report.warnf("filament %d (%s): duplicate id %s, reissued", i+1, f.ColorName, f.ID)
			f.ID = entities.NewID()
		}
		seen[f.ID] = true

		now := time.Now()
		if f.CreatedAt.IsZero() {
			f.CreatedAt = now
		}
		if f.UpdatedAt.IsZero() {
			f.UpdatedAt = f.CreatedAt
		}

		snap.Filaments = append(snap.Filaments, f)
	}
}

func migrateModels(snap *entities.Snapshot, body *rawBody, report *Report) {
	seen := make(map[entities.ID]bool)
	for i, rm := range body.Models {
		m := &entities.Model{
			ID:               rm.ID,
			Name:             rm.Name,
			ExternalLink:     firstNonEmpty(rm.ExternalLink, rm.Link),
			Category:         rm.Category,
			Difficulty:       rm.Difficulty,
			PrintTimeMinutes: rm.PrintTimeMinutes,
			LayerHeightMM:    rm.LayerHeightMM,
			InfillPercent:    rm.InfillPercent,
			SupportsRequired: rm.SupportsRequired,
			Notes:            rm.Notes,
			AddedDate:        rm.AddedDate.Time,
			UpdatedAt:        rm.UpdatedAt.Time,
		}

		if m.Name == "" {
			m.Name = fmt.Sprintf("Untitled Model %d", i+1)
			report.warnf("model %d: missing name, renamed to %q", i+1, m.Name)
		}
		if m.Category == "" {
			m.Category = entities.CategoryOther
		}
		if !m.Difficulty.Valid() {
			m.Difficulty = entities.DifficultyMedium
		}
		if m.AddedDate.IsZero() {
			m.AddedDate = time.Now()
		}
		if m.UpdatedAt.IsZero() {
			m.UpdatedAt = m.AddedDate
		}
		m.RefreshTags()

		for j, rr := range rm.Requirements {
			req := entities.Requirement{
				FilamentRef:    rr.FilamentRef,
				Tolerance:      10,
				RequiredCount:  1,
				ExpectedWeight: 20,
				MaterialType:   firstNonEmpty(rr.MaterialType, rr.Material),
				ColorName:      firstNonEmpty(rr.ColorName, rr.Color),
			}
			if rr.ExpectedWeight != nil && *rr.ExpectedWeight > 0 {
				req.ExpectedWeight = *rr.ExpectedWeight
			} else {
				report.warnf("model %q requirement %d: missing expected weight, assumed 20 g", m.Name, j+1)
			}
			if rr.Tolerance != nil && *rr.Tolerance >= 0 && *rr.Tolerance <= 100 {
				req.Tolerance = *rr.Tolerance
			}
			if rr.RequiredCount != nil && *rr.RequiredCount >= 1 {
				req.RequiredCount = *rr.RequiredCount
			}

			if req.FilamentRef.IsZero() {
				if bound, ok := findFilament(snap, req.ColorName, req.MaterialType); ok {
					req.FilamentRef = bound.ID
					if req.MaterialType == "" {
						req.MaterialType = bound.MaterialType
					}
				} else if req.ColorName != "" || req.MaterialType != "" {
					report.warnf("model %q requirement %d: no spool matches (%s, %s), left unbound", m.Name, j+1, req.ColorName, req.MaterialType)
				} else {
					report.warnf("model %q requirement %d: no filament reference, left unbound", m.Name, j+1)
				}
			}

			m.Requirements = append(m.Requirements, req)
		}
		if len(m.Requirements) == 0 {
			report.warnf("model %q has no requirements", m.Name)
		}

		if m.ID.IsZero() {
			m.ID = entities.NewID()
			report.warnf("model %q: missing id, issued a new one", m.Name)
		} else if seen[m.ID] {
			report.warnf("model %q: duplicate id %s, reissued", m.Name, m.ID)
			m.ID = entities.NewID()
		}
		seen[m.ID] = true

		snap.Models = append(snap.Models, m)
	}
}

func migratePrints(snap *entities.Snapshot, body *rawBody, report *Report) {
	seen := make(map[entities.ID]bool)
	for i, rp := range body.Prints {
		p := &entities.Print{
			ID:            rp.ID,
			ModelName:     rp.ModelName,
			PrintDate:     rp.PrintDate.Time,
			Quality:       rp.Quality,
			Notes:         rp.Notes,
			DurationHours: rp.DurationHours,
			Variance:      rp.Variance,
			Timestamp:     rp.Timestamp.Time,
		}

		if p.ModelName == "" {
			p.ModelName = "Unknown Model"
			report.warnf("print %d: missing model name", i+1)
		}
		if p.Quality == "" {
			p.Quality = entities.QualityUnset
		}
		if !p.Quality.Valid() {
			report.warnf("print %d (%s): unknown quality rating %q, reset to unset", i+1, p.ModelName, p.Quality)
			p.Quality = entities.QualityUnset
		}

		for _, ru := range rp.FilamentUsages {
			usage := entities.FilamentUsage{
				FilamentRef:  ru.FilamentRef,
				MaterialType: firstNonEmpty(ru.MaterialType, ru.Material),
				ColorName:    firstNonEmpty(ru.ColorName, ru.Color),
				ColorHex:     ru.ColorHex,
				ActualWeight: ru.ActualWeight,
			}
			if usage.ActualWeight <= 0 {
				usage.ActualWeight = ru.Weight
			}
			p.FilamentUsages = append(p.FilamentUsages, usage)
		}
		// Legacy single-color prints carried color/material/weight at the
		// top level; synthesize a one-element usage list.
		if len(p.FilamentUsages) == 0 && (rp.Color != "" || rp.Weight > 0) {
			p.FilamentUsages = []entities.FilamentUsage{{
				ColorName:    rp.Color,
				MaterialType: rp.Material,
				ActualWeight: rp.Weight,
			}}
		}

		for j := range p.FilamentUsages {
			u := &p.FilamentUsages[j]
			if !u.FilamentRef.IsZero() {
				continue
			}
			if bound, ok := findFilament(snap, u.ColorName, u.MaterialType); ok {
				u.FilamentRef = bound.ID
				if u.MaterialType == "" {
					u.MaterialType = bound.MaterialType
				}
				if u.ColorHex == "" {
					u.ColorHex = bound.ColorHex
				}
			}
		}
		p.RecomputeTotal()

		if p.Variance == nil {
			if model, ok := snap.ModelByName(p.ModelName); ok && len(model.Requirements) > 0 {
				var expected entities.Grams
				for _, r := range model.Requirements {
					expected = expected.Add(r.ExpectedWeight.MulInt(r.RequiredCount))
				}
				p.Variance = entities.ComputeVariance(expected, p.TotalWeight)
			}
		}

		if p.Timestamp.IsZero() {
			if !p.PrintDate.IsZero() {
				d := p.PrintDate
				p.Timestamp = time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, d.Location())
			} else {
				p.Timestamp = time.Now()
			}
		}
		if p.PrintDate.IsZero() {
			p.PrintDate = p.Timestamp
		}

		if p.ID.IsZero() {
			p.ID = entities.NewID()
			report.warnf("print %d (%s): missing id, issued a new one", i+1, p.ModelName)
		} else if seen[p.ID] {
			report.warnf("print %d (%s): duplicate id %s, reissued", i+1, p.ModelName, p.ID)
			p.ID = entities.NewID()
		}
		seen[p.ID] = true

		snap.Prints = append(snap.Prints, p)
	}
}

func migrateSets(snap *entities.Snapshot, body *rawBody, report *Report) {
	materials := entities.NewStringSet(body.MaterialTypes...)
	if materials.Len() == 0 {
		materials = entities.NewStringSet(entities.DefaultMaterialTypes()...)
	}
	for _, f := range snap.Filaments {
		if materials.Add(f.MaterialType) {
			report.warnf("material type %q adopted from filament data", f.MaterialType)
		}
	}
	snap.MaterialTypes = materials.Values()

	seed := body.Categories
	if len(seed) == 0 {
		seed = body.ModelCategories
	}
	categories := entities.NewStringSet(seed...)
	if categories.Len() == 0 {
		categories = entities.NewStringSet(entities.DefaultCategories()...)
	}
	categories.Add(entities.CategoryOther)
	for _, m := range snap.Models {
		if categories.Add(m.Category) {
			report.warnf("category %q adopted from model data", m.Category)
		}
	}
	snap.Categories = categories.Values()
}

func findFilament(snap *entities.Snapshot, colorName, materialType string) (*entities.Filament, bool) {
	if colorName == "" {
		return nil, false
	}
	for _, f := range snap.Filaments {
		if strings.EqualFold(f.ColorName, colorName) &&
			(materialType == "" || strings.EqualFold(f.MaterialType, materialType)) {
			return f, true
		}
	}
	return nil, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
