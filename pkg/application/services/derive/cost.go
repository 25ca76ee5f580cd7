package derive

import (
	"fmt"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// TotalExpectedUsage sums the planned material across a model's requirements.
func (s *Service) TotalExpectedUsage(modelID entities.ID) (entities.Grams, error) {
	m, ok := s.view.ModelByID(modelID)
	if !ok {
		return 0, fmt.Errorf("model not found: %s", modelID)
	}
	var total entities.Grams
	for _, req := range m.Requirements {
		total = total.Add(req.ExpectedWeight.MulInt(req.RequiredCount))
	}
	return total, nil
}

// ModelCost estimates the material cost of one print of a model.
type ModelCost struct {
	ModelID   entities.ID    `json:"modelId"`
	ModelName string         `json:"modelName"`
	Cost      entities.Money `json:"cost"`
	// Partial marks an estimate that skipped requirements: a spool with no
	// purchase price, or a reference that does not resolve.
	Partial bool `json:"partial,omitempty"`
}

// EstimatedModelCost prices one print of a model from the purchase prices of
// the spools its requirements reference, prorated by planned weight.
func (s *Service) EstimatedModelCost(modelID entities.ID) (*ModelCost, error) {
	revision := s.view.Revision()
	key := "modelcost:" + string(modelID)
	if cached, ok := s.memo.get(revision, key); ok {
		return cached.(*ModelCost), nil
	}

	m, ok := s.view.ModelByID(modelID)
	if !ok {
		return nil, fmt.Errorf("model not found: %s", modelID)
	}

	result := &ModelCost{ModelID: m.ID, ModelName: m.Name}
	for _, req := range m.Requirements {
		f, found := s.view.FilamentByID(req.FilamentRef)
		if !found || f.PurchasePrice == nil || f.NominalWeight <= 0 {
			result.Partial = true
			continue
		}
		needed := req.ExpectedWeight.MulInt(req.RequiredCount)
		result.Cost = result.Cost.Add(f.PurchasePrice.CostOf(needed, f.NominalWeight))
	}

	s.memo.put(revision, key, result)
	return result, nil
}

// VarianceForPrint returns the stored plan variance of a print, recomputing it
// against the current catalog for migrated prints that predate variance
// tracking. The variance is nil when no model matches the print's name.
func (s *Service) VarianceForPrint(printID entities.ID) (*entities.UsageVariance, error) {
	p, ok := s.view.PrintByID(printID)
	if !ok {
		return nil, fmt.Errorf("print not found: %s", printID)
	}
	if p.Variance != nil {
		return p.Variance, nil
	}
	m, ok := s.view.ModelByName(p.ModelName)
	if !ok {
		return nil, nil
	}
	expected, err := s.TotalExpectedUsage(m.ID)
	if err != nil {
		return nil, err
	}
	return entities.ComputeVariance(expected, p.TotalWeight), nil
}
