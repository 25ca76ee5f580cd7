package derive

import (
	"fmt"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// MissingRequirement explains why one requirement of a model cannot be
// satisfied from current stock.
type MissingRequirement struct {
	FilamentRef  entities.ID    `json:"filamentRef,omitempty"`
	ColorName    string         `json:"colorName,omitempty"`
	MaterialType string         `json:"materialType,omitempty"`
	Needed       entities.Grams `json:"needed"`
	Available    entities.Grams `json:"available"`
	Reason       string         `json:"reason"`
}

// Printability reports whether a model can be printed right now and how many
// whole units current stock covers. A model is printable exactly when every
// requirement resolves to an in-stock spool; a weight shortage is not a
// missing requirement, it floors the count at zero.
type Printability struct {
	ModelID   entities.ID `json:"modelId"`
	ModelName string      `json:"modelName"`
	CanPrint  bool        `json:"canPrint"`
	// CanPrintCount is the bottleneck unit count across all weighted
	// requirements. Unbounded marks a model none of whose requirements
	// state an expected weight; such a model counts as one printable unit.
	CanPrintCount int                  `json:"canPrintCount"`
	Unbounded     bool                 `json:"unbounded,omitempty"`
	Missing       []MissingRequirement `json:"missingRequirements,omitempty"`
}

// CanPrintModel derives the printability of one model. A requirement with no
// stated expected weight only demands that its spool exists and is in stock;
// it never bounds the unit count.
func (s *Service) CanPrintModel(modelID entities.ID) (*Printability, error) {
	revision := s.view.Revision()
	key := "printability:" + string(modelID)
	if cached, ok := s.memo.get(revision, key); ok {
		return cached.(*Printability), nil
	}

	m, ok := s.view.ModelByID(modelID)
	if !ok {
		return nil, fmt.Errorf("model not found: %s", modelID)
	}

	result := &Printability{ModelID: modelID, ModelName: m.Name, CanPrint: true}
	bounded := false
	minCount := 0

	for _, req := range m.Requirements {
		needed := req.ExpectedWeight.MulInt(req.RequiredCount)

		f, found := s.view.FilamentByID(req.FilamentRef)
		if req.FilamentRef.IsZero() || !found {
			result.CanPrint = false
			result.Missing = append(result.Missing, MissingRequirement{
				FilamentRef:  req.FilamentRef,
				ColorName:    req.ColorName,
				MaterialType: req.MaterialType,
				Needed:       needed,
				Reason:       "no matching spool",
			})
			continue
		}
		if !f.InStock {
			result.CanPrint = false
			result.Missing = append(result.Missing, MissingRequirement{
				FilamentRef:  f.ID,
				ColorName:    f.ColorName,
				MaterialType: f.MaterialType,
				Needed:       needed,
				Available:    f.RemainingWeight,
				Reason:       "spool is out of stock",
			})
			continue
		}
		if req.ExpectedWeight <= 0 {
			continue
		}

		count := f.RemainingWeight.WholeUnits(req.ExpectedWeight, req.RequiredCount)
		if !bounded || count < minCount {
			minCount = count
		}
		bounded = true
	}

	switch {
	case !result.CanPrint:
		result.CanPrintCount = 0
	case bounded:
		result.CanPrintCount = minCount
	default:
		// Only zero-expected legacy requirements; in-stock spools cover one
		// print.
		result.CanPrintCount = 1
		result.Unbounded = true
	}

	s.memo.put(revision, key, result)
	return result, nil
}

// Printable derives printability for every model, in repository order.
func (s *Service) Printable() []*Printability {
	models := s.view.Models()
	results := make([]*Printability, 0, len(models))
	for _, m := range models {
		p, err := s.CanPrintModel(m.ID)
		if err != nil {
			continue
		}
		results = append(results, p)
	}
	return results
}
