// Package services holds the field and entity validation rules shared by the
// interactive input path and the bulk import path. Each field runs a fixed
// pipeline — range, length, pattern, allowed-set, cross-field — and keeps
// only the first failure, so a presenter shows one message per input.
package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// Authoritative bounds. Implementations of forms and importers must agree
// with these numbers.
const (
	BrandMinLen    = 2
	BrandMaxLen    = 100
	ColorNameMin   = 2
	ColorNameMax   = 50
	WeightMin      = entities.Grams(0.1)
	WeightMax      = entities.Grams(10000)
	PriceMax       = entities.Money(1000)
	LocationMaxLen = 200
	TempMin        = 150
	TempMax        = 350
	PrintTimeMax   = 1440
	LayerHeightMin = 0.05
	LayerHeightMax = 1.0
	InfillMax      = 100
	ToleranceMax   = 100
	CountMax       = 100
	DurationMax    = 168.0
	NotesMaxLen    = 500
)

var brandPattern = regexp.MustCompile(`^[A-Za-z0-9 \-&.,]+$`)

// ValidateOptions selects rule variants shared between paths.
type ValidateOptions struct {
	// Lenient enables the import/migration carve-outs, currently the legacy
	// 3.00 mm diameter.
	Lenient bool
	// MaterialTypes is the current dynamic set. Empty skips the allowed-set
	// rule (imports carry their own set).
	MaterialTypes []string
}

type fieldErrors map[string]string

// set records the first failure per field; later rules in the pipeline are
// short-circuited.
func (fe fieldErrors) set(field, msg string) {
	if _, seen := fe[field]; !seen {
		fe[field] = msg
	}
}

func (fe fieldErrors) toError(entity string) *entities.ValidationError {
	if len(fe) == 0 {
		return nil
	}
	return &entities.ValidationError{Entity: entity, Fields: fe}
}

// ValidateFilament applies the full spool rule table. A nil return means the
// filament passed.
func ValidateFilament(f *entities.Filament, opts ValidateOptions) *entities.ValidationError {
	fe := fieldErrors{}

	brand := strings.TrimSpace(f.Brand)
	if n := len(brand); n < BrandMinLen || n > BrandMaxLen {
		fe.set("brand", fmt.Sprintf("must be %d-%d characters", BrandMinLen, BrandMaxLen))
	} else if !brandPattern.MatchString(brand) {
		fe.set("brand", "may only contain letters, digits, spaces and -&.,")
	}

	material := strings.TrimSpace(f.MaterialType)
	if material == "" {
		fe.set("materialType", "is required")
	} else if strings.EqualFold(material, entities.MaterialTypeOther) {
		// "Other" is a sentinel; a custom name must replace it.
		fe.set("materialType", "choose a custom material name in place of Other")
	} else if len(opts.MaterialTypes) > 0 && !opts.Lenient && !containsFold(opts.MaterialTypes, material) {
		fe.set("materialType", fmt.Sprintf("unknown material type %q", material))
	}

	if n := len(strings.TrimSpace(f.ColorName)); n < ColorNameMin || n > ColorNameMax {
		fe.set("colorName", fmt.Sprintf("must be %d-%d characters", ColorNameMin, ColorNameMax))
	}
	if !entities.ColorHexPattern.MatchString(f.ColorHex) {
		fe.set("colorHex", "must match #RRGGBB")
	}

	switch f.Diameter {
	case 1.75, 2.85:
	case entities.LegacyDiameter:
		if !opts.Lenient {
			fe.set("diameter", "must be 1.75 or 2.85")
		}
	default:
		fe.set("diameter", "must be 1.75 or 2.85")
	}

	if f.NominalWeight < WeightMin || f.NominalWeight > WeightMax {
		fe.set("nominalWeight", fmt.Sprintf("must be between %v and %v grams", WeightMin, WeightMax))
	}
	if f.RemainingWeight < 0 {
		fe.set("remainingWeight", "cannot be negative")
	} else if f.RemainingWeight > f.NominalWeight {
		fe.set("remainingWeight", "cannot exceed nominal weight")
	}

	if f.PurchasePrice != nil && (*f.PurchasePrice < 0 || *f.PurchasePrice > PriceMax) {
		fe.set("purchasePrice", fmt.Sprintf("must be between 0 and %v", PriceMax))
	}
	if len(f.Location) > LocationMaxLen {
		fe.set("location", fmt.Sprintf("must be at most %d characters", LocationMaxLen))
	}

	validateTemps(fe, f.MinTemp, f.MaxTemp)

	return fe.toError("filament")
}

func validateTemps(fe fieldErrors, minTemp, maxTemp *int) {
	if minTemp == nil && maxTemp == nil {
		return
	}
	if minTemp == nil || maxTemp == nil {
		fe.set("temperature", "both minimum and maximum are required")
		return
	}
	if *minTemp < TempMin || *minTemp > TempMax {
		fe.set("minTemp", fmt.Sprintf("must be between %d and %d", TempMin, TempMax))
		return
	}
	if *maxTemp < TempMin || *maxTemp > TempMax {
		fe.set("maxTemp", fmt.Sprintf("must be between %d and %d", TempMin, TempMax))
		return
	}
	if *maxTemp <= *minTemp {
		fe.set("maxTemp", "must be greater than minimum temperature")
	}
}

// ValidateModel applies the model and requirement rule table.
func ValidateModel(m *entities.Model, opts ValidateOptions) *entities.ValidationError {
	fe := fieldErrors{}

	if strings.TrimSpace(m.Name) == "" {
		fe.set("name", "is required")
	}
	if m.Category == "" {
		fe.set("category", "is required")
	}
	if !m.Difficulty.Valid() {
		fe.set("difficulty", "must be Easy, Medium or Hard")
	}
	if m.PrintTimeMinutes != nil && (*m.PrintTimeMinutes < 0 || *m.PrintTimeMinutes > PrintTimeMax) {
		fe.set("estimatedPrintTimeMinutes", fmt.Sprintf("must be between 0 and %d minutes", PrintTimeMax))
	}
	if m.LayerHeightMM != nil && (*m.LayerHeightMM < LayerHeightMin || *m.LayerHeightMM > LayerHeightMax) {
		fe.set("layerHeightMm", fmt.Sprintf("must be between %v and %v mm", LayerHeightMin, LayerHeightMax))
	}
	if m.InfillPercent != nil && (*m.InfillPercent < 0 || *m.InfillPercent > InfillMax) {
		fe.set("infillPercent", fmt.Sprintf("must be between 0 and %d", InfillMax))
	}

	if len(m.Requirements) == 0 {
		fe.set("requirements", "at least one requirement is required")
	}
	for i, r := range m.Requirements {
		prefix := fmt.Sprintf("requirements[%d].", i)
		if r.FilamentRef.IsZero() && !opts.Lenient {
			fe.set(prefix+"filamentRef", "is required")
		}
		if r.ExpectedWeight <= 0 {
			fe.set(prefix+"expectedWeight", "must be positive")
		}
		if r.Tolerance < 0 || r.Tolerance > ToleranceMax {
			fe.set(prefix+"tolerancePercent", fmt.Sprintf("must be between 0 and %d", ToleranceMax))
		}
		if r.RequiredCount < 1 || r.RequiredCount > CountMax {
			fe.set(prefix+"requiredCount", fmt.Sprintf("must be between 1 and %d", CountMax))
		}
	}

	return fe.toError("model")
}

// ValidatePrint applies the print rule table, including the total-weight
// accounting cross-check.
func ValidatePrint(p *entities.Print) *entities.ValidationError {
	fe := fieldErrors{}

	if strings.TrimSpace(p.ModelName) == "" {
		fe.set("modelName", "is required")
	}
	if !p.Quality.Valid() {
		fe.set("qualityRating", "must be excellent, good, fair, poor or unset")
	}
	if len(p.Notes) > NotesMaxLen {
		fe.set("printNotes", fmt.Sprintf("must be at most %d characters", NotesMaxLen))
	}
	if p.DurationHours != nil && (*p.DurationHours < 0 || *p.DurationHours > DurationMax) {
		fe.set("durationHours", fmt.Sprintf("must be between 0 and %v hours", DurationMax))
	}

	if len(p.FilamentUsages) == 0 {
		fe.set("filamentUsages", "at least one usage is required")
	}
	var total entities.Grams
	for i, u := range p.FilamentUsages {
		if u.ActualWeight <= 0 {
			fe.set(fmt.Sprintf("filamentUsages[%d].actualWeight", i), "must be positive")
		}
		total = total.Add(u.ActualWeight)
	}
	if len(p.FilamentUsages) > 0 && !p.TotalWeight.ApproxEqual(total) {
		fe.set("totalWeight", "does not match the sum of usages")
	}

	return fe.toError("print")
}

func containsFold(values []string, v string) bool {
	for _, existing := range values {
		if strings.EqualFold(existing, v) {
			return true
		}
	}
	return false
}
