package entities

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ColorHexPattern is the accepted spool color form: #RRGGBB, either case.
var ColorHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// SpoolDiameters are the diameters accepted for interactively created
// spools. 3.00 mm additionally appears in legacy imports.
var SpoolDiameters = []float64{1.75, 2.85}

// LegacyDiameter is accepted on the import and migration paths only.
const LegacyDiameter = 3.00

// Filament represents a physical spool of printable material.
type Filament struct {
	ID              ID        `json:"id"`
	Brand           string    `json:"brand"`
	MaterialType    string    `json:"materialType"`
	ColorName       string    `json:"colorName"`
	ColorHex        string    `json:"colorHex"`
	Diameter        float64   `json:"diameter"`
	NominalWeight   Grams     `json:"nominalWeight"`
	RemainingWeight Grams     `json:"remainingWeight"`
	PurchasePrice   *Money    `json:"purchasePrice,omitempty"`
	Location        string    `json:"location,omitempty"`
	MinTemp         *int      `json:"minTemp,omitempty"`
	MaxTemp         *int      `json:"maxTemp,omitempty"`
	InStock         bool      `json:"inStock"`
	DeletionBlocked bool      `json:"deletionBlocked,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewFilament creates a validated Filament with a fresh identity. The full
// field rule table lives in the validation service; the constructor holds the
// structural invariants that must never be violated.
func NewFilament(brand, materialType, colorName, colorHex string, diameter float64, nominal, remaining Grams) (*Filament, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, fmt.Errorf("brand cannot be empty")
	}
	if strings.TrimSpace(materialType) == "" {
		return nil, fmt.Errorf("material type cannot be empty")
	}
	if !ColorHexPattern.MatchString(colorHex) {
		return nil, fmt.Errorf("color hex must match #RRGGBB, got %q", colorHex)
	}
	if !validDiameter(diameter) {
		return nil, fmt.Errorf("diameter must be one of 1.75, 2.85 or 3.00, got %v", diameter)
	}
	if nominal <= 0 {
		return nil, fmt.Errorf("nominal weight must be positive, got %v", nominal)
	}
	if remaining < 0 {
		return nil, fmt.Errorf("remaining weight cannot be negative, got %v", remaining)
	}
	if remaining > nominal {
		return nil, fmt.Errorf("remaining weight %v exceeds nominal weight %v", remaining, nominal)
	}

	now := time.Now()
	return &Filament{
		ID:              NewID(),
		Brand:           brand,
		MaterialType:    materialType,
		ColorName:       colorName,
		ColorHex:        colorHex,
		Diameter:        diameter,
		NominalWeight:   nominal,
		RemainingWeight: remaining,
		InStock:         true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func validDiameter(d float64) bool {
	for _, known := range SpoolDiameters {
		if d == known {
			return true
		}
	}
	return d == LegacyDiameter
}

// DuplicateKey returns the case-insensitive identity used for duplicate
// spool detection: brand, material type, and color hex.
func (f *Filament) DuplicateKey() string {
	return strings.ToLower(f.Brand) + "|" + strings.ToLower(f.MaterialType) + "|" + strings.ToLower(f.ColorHex)
}

// DisplayHex returns the color normalized to upper case for presentation.
func (f *Filament) DisplayHex() string {
	return strings.ToUpper(f.ColorHex)
}

// Touch stamps the modification time.
func (f *Filament) Touch() {
	f.UpdatedAt = time.Now()
}

// Clone returns a deep copy.
func (f *Filament) Clone() *Filament {
	out := *f
	if f.PurchasePrice != nil {
		price := *f.PurchasePrice
		out.PurchasePrice = &price
	}
	if f.MinTemp != nil {
		v := *f.MinTemp
		out.MinTemp = &v
	}
	if f.MaxTemp != nil {
		v := *f.MaxTemp
		out.MaxTemp = &v
	}
	return &out
}
