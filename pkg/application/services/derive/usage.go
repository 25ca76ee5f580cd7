package derive

import (
	"fmt"
	"strings"
	"time"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// SpoolConsumption totals what the print history took from one spool.
type SpoolConsumption struct {
	FilamentID    entities.ID     `json:"filamentId"`
	ColorName     string          `json:"colorName"`
	MaterialType  string          `json:"materialType"`
	TotalConsumed entities.Grams  `json:"totalConsumed"`
	PrintCount    int             `json:"printCount"`
	LastUsed      time.Time       `json:"lastUsed,omitempty"`
	EstimatedCost *entities.Money `json:"estimatedCost,omitempty"`
}

// SpoolConsumption derives the consumption history of one spool. Usages are
// matched by reference first; legacy usages with no reference match by color
// name and material type, ignoring case.
func (s *Service) SpoolConsumption(filamentID entities.ID) (*SpoolConsumption, error) {
	revision := s.view.Revision()
	key := "consumption:" + string(filamentID)
	if cached, ok := s.memo.get(revision, key); ok {
		return cached.(*SpoolConsumption), nil
	}

	f, ok := s.view.FilamentByID(filamentID)
	if !ok {
		return nil, fmt.Errorf("filament not found: %s", filamentID)
	}

	result := &SpoolConsumption{
		FilamentID:   f.ID,
		ColorName:    f.ColorName,
		MaterialType: f.MaterialType,
	}
	for _, p := range s.view.Prints() {
		matched := false
		for _, u := range p.FilamentUsages {
			if !usageMatchesSpool(u, f) {
				continue
			}
			result.TotalConsumed = result.TotalConsumed.Add(u.ActualWeight)
			matched = true
		}
		if matched {
			result.PrintCount++
			if p.PrintDate.After(result.LastUsed) {
				result.LastUsed = p.PrintDate
			}
		}
	}

	if f.PurchasePrice != nil {
		cost := f.PurchasePrice.CostOf(result.TotalConsumed, f.NominalWeight)
		result.EstimatedCost = &cost
	}

	s.memo.put(revision, key, result)
	return result, nil
}

func usageMatchesSpool(u entities.FilamentUsage, f *entities.Filament) bool {
	if !u.FilamentRef.IsZero() {
		return u.FilamentRef == f.ID
	}
	return strings.EqualFold(u.ColorName, f.ColorName) &&
		strings.EqualFold(u.MaterialType, f.MaterialType)
}

// LowStockSpool flags a spool running low relative to its nominal weight.
type LowStockSpool struct {
	FilamentID entities.ID    `json:"filamentId"`
	ColorName  string         `json:"colorName"`
	Remaining  entities.Grams `json:"remaining"`
	Nominal    entities.Grams `json:"nominal"`
}

// LowStockThreshold is the remaining-to-nominal ratio under which an in-stock
// spool counts as running low.
const LowStockThreshold = 0.1

// LowStock lists in-stock spools whose remaining weight has dropped below the
// threshold share of their nominal weight.
func (s *Service) LowStock() []LowStockSpool {
	var low []LowStockSpool
	for _, f := range s.view.Filaments() {
		if !f.InStock || f.NominalWeight <= 0 {
			continue
		}
		if float64(f.RemainingWeight) < float64(f.NominalWeight)*LowStockThreshold {
			low = append(low, LowStockSpool{
				FilamentID: f.ID,
				ColorName:  f.ColorName,
				Remaining:  f.RemainingWeight,
				Nominal:    f.NominalWeight,
			})
		}
	}
	return low
}
