package schema

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// flexTime tolerates the timestamp spellings found in the wild: RFC 3339
// strings, epoch milliseconds, epoch seconds, and nothing at all. A value it
// cannot read stays zero instead of failing the whole migration.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, raw); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	// Heuristic: values past the year 2300 in seconds are milliseconds.
	if n > 1e12 {
		t.Time = time.UnixMilli(int64(n))
	} else {
		t.Time = time.Unix(int64(n), 0)
	}
	return nil
}

// rawFilament reads both the canonical and the legacy spool shapes.
type rawFilament struct {
	ID              entities.ID     `json:"id"`
	Brand           string          `json:"brand"`
	MaterialType    string          `json:"materialType"`
	Material        string          `json:"material"` // legacy name
	ColorName       string          `json:"colorName"`
	Color           string          `json:"color"` // legacy name
	ColorHex        string          `json:"colorHex"`
	Diameter        float64         `json:"diameter"`
	NominalWeight   entities.Grams  `json:"nominalWeight"`
	Weight          entities.Grams  `json:"weight"` // legacy nominal weight
	RemainingWeight *entities.Grams `json:"remainingWeight"`
	PurchasePrice   *entities.Money `json:"purchasePrice"`
	Location        string          `json:"location"`
	MinTemp         *int            `json:"minTemp"`
	MaxTemp         *int            `json:"maxTemp"`
	InStock         *bool           `json:"inStock"`
	DeletionBlocked bool            `json:"deletionBlocked"`
	Notes           string          `json:"notes"`
	CreatedAt       flexTime        `json:"createdAt"`
	UpdatedAt       flexTime        `json:"updatedAt"`
}

type rawRequirement struct {
	FilamentRef    entities.ID     `json:"filamentRef"`
	ExpectedWeight *entities.Grams `json:"expectedWeight"`
	Tolerance      *float64        `json:"tolerancePercent"`
	RequiredCount  *int            `json:"requiredCount"`
	MaterialType   string          `json:"materialType"`
	Material       string          `json:"material"` // legacy name
	ColorName      string          `json:"colorName"`
	Color          string          `json:"color"` // legacy name
}

type rawModel struct {
	ID               entities.ID         `json:"id"`
	Name             string              `json:"name"`
	ExternalLink     string              `json:"externalLink"`
	Link             string              `json:"link"` // legacy name
	Category         string              `json:"category"`
	Difficulty       entities.Difficulty `json:"difficulty"`
	PrintTimeMinutes *int                `json:"estimatedPrintTimeMinutes"`
	LayerHeightMM    *float64            `json:"layerHeightMm"`
	InfillPercent    *int                `json:"infillPercent"`
	SupportsRequired bool                `json:"supportsRequired"`
	Notes            string              `json:"notes"`
	AddedDate        flexTime            `json:"addedDate"`
	Requirements     []rawRequirement    `json:"requirements"`
	UpdatedAt        flexTime            `json:"updatedAt"`
}

type rawUsage struct {
	FilamentRef  entities.ID    `json:"filamentRef"`
	MaterialType string         `json:"materialType"`
	Material     string         `json:"material"` // legacy name
	ColorName    string         `json:"colorName"`
	Color        string         `json:"color"` // legacy name
	ColorHex     string         `json:"colorHex"`
	ActualWeight entities.Grams `json:"actualWeight"`
	Weight       entities.Grams `json:"weight"` // legacy name
}

type rawPrint struct {
	ID             entities.ID             `json:"id"`
	ModelName      string                  `json:"modelName"`
	PrintDate      flexTime                `json:"printDate"`
	Quality        entities.QualityRating  `json:"qualityRating"`
	Notes          string                  `json:"printNotes"`
	DurationHours  *float64                `json:"durationHours"`
	FilamentUsages []rawUsage              `json:"filamentUsages"`
	TotalWeight    *entities.Grams         `json:"totalWeight"`
	Variance       *entities.UsageVariance `json:"usageVariance"`
	Timestamp      flexTime                `json:"timestamp"`

	// Legacy single-color shape: color/material/weight at the top level.
	Color    string         `json:"color"`
	Material string         `json:"material"`
	Weight   entities.Grams `json:"weight"`
}

// rawDocument reads every supported wrapper: the version-2 export document
// (entities under "data"), a bare version-2 snapshot, and the legacy flat
// shape with top-level entity arrays.
type rawDocument struct {
	Version     string   `json:"version"`
	Application string   `json:"application"`
	ExportDate  flexTime `json:"exportDate"`
	Data        *rawBody `json:"data"`
	rawBody
}

type rawBody struct {
	Filaments       []rawFilament `json:"filaments"`
	Models          []rawModel    `json:"models"`
	Prints          []rawPrint    `json:"prints"`
	MaterialTypes   []string      `json:"materialTypes"`
	Categories      []string      `json:"categories"`
	ModelCategories []string      `json:"modelCategories"` // legacy key name
	SavedAt         flexTime      `json:"savedAt"`
}

// body returns the entity container regardless of wrapper shape.
func (d *rawDocument) body() *rawBody {
	if d.Data != nil {
		return d.Data
	}
	return &d.rawBody
}
