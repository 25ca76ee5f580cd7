package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QualityRating grades a finished print.
type QualityRating string

const (
	QualityExcellent QualityRating = "excellent"
	QualityGood      QualityRating = "good"
	QualityFair      QualityRating = "fair"
	QualityPoor      QualityRating = "poor"
	QualityUnset     QualityRating = "unset"
)

// Valid reports whether the rating is one of the known grades.
func (q QualityRating) Valid() bool {
	switch q {
	case QualityExcellent, QualityGood, QualityFair, QualityPoor, QualityUnset:
		return true
	}
	return false
}

// FilamentUsage records material consumed by one print. Material type, color
// name and color hex are snapshots taken at record time so that history stays
// readable after the referenced spool is edited or removed. FilamentRef may
// be empty for legacy data that could not be bound to a spool.
type FilamentUsage struct {
	FilamentRef  ID     `json:"filamentRef,omitempty"`
	MaterialType string `json:"materialType"`
	ColorName    string `json:"colorName"`
	ColorHex     string `json:"colorHex,omitempty"`
	ActualWeight Grams  `json:"actualWeight"`
}

// UsageVariance compares what a print consumed against what its model
// planned.
type UsageVariance struct {
	ExpectedTotal   Grams   `json:"expectedTotal"`
	ActualTotal     Grams   `json:"actualTotal"`
	VariancePercent float64 `json:"variancePercent"`
}

// Print represents a completed print event. The model name is retained
// verbatim even if the model is later renamed or deleted.
type Print struct {
	ID             ID              `json:"id"`
	ModelName      string          `json:"modelName"`
	PrintDate      time.Time       `json:"printDate"`
	Quality        QualityRating   `json:"qualityRating"`
	Notes          string          `json:"printNotes,omitempty"`
	DurationHours  *float64        `json:"durationHours,omitempty"`
	FilamentUsages []FilamentUsage `json:"filamentUsages"`
	TotalWeight    Grams           `json:"totalWeight"`
	Variance       *UsageVariance  `json:"usageVariance,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewPrint creates a validated Print with a fresh identity. The total weight
// is computed from the usages.
func NewPrint(modelName string, printDate time.Time, usages []FilamentUsage) (*Print, error) {
	if modelName == "" {
		return nil, fmt.Errorf("print model name cannot be empty")
	}
	if len(usages) == 0 {
		return nil, fmt.Errorf("print must have at least one filament usage")
	}
	for i, u := range usages {
		if u.ActualWeight <= 0 {
			return nil, fmt.Errorf("usage %d: actual weight must be positive, got %v", i+1, u.ActualWeight)
		}
	}
	if printDate.IsZero() {
		printDate = time.Now()
	}

	p := &Print{
		ID:             NewID(),
		ModelName:      modelName,
		PrintDate:      printDate,
		Quality:        QualityUnset,
		FilamentUsages: usages,
		Timestamp:      time.Now(),
	}
	p.RecomputeTotal()
	return p, nil
}

// ComputeVariance builds the expected-vs-actual comparison for a print. The
// percentage is undefined when nothing was expected, so expected <= 0 yields
// nil.
func ComputeVariance(expected, actual Grams) *UsageVariance {
	if expected <= 0 {
		return nil
	}
	percent := actual.dec().Sub(expected.dec()).
		Div(expected.dec()).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	return &UsageVariance{
		ExpectedTotal:   expected,
		ActualTotal:     actual,
		VariancePercent: percent.InexactFloat64(),
	}
}

// RecomputeTotal re-derives the total weight from the usages.
func (p *Print) RecomputeTotal() {
	var total Grams
	for _, u := range p.FilamentUsages {
		total = total.Add(u.ActualWeight)
	}
	p.TotalWeight = total
}

// Clone returns a deep copy.
func (p *Print) Clone() *Print {
	out := *p
	if p.DurationHours != nil {
		v := *p.DurationHours
		out.DurationHours = &v
	}
	if p.Variance != nil {
		v := *p.Variance
		out.Variance = &v
	}
	out.FilamentUsages = append([]FilamentUsage(nil), p.FilamentUsages...)
	return &out
}
