package derive

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// ColorUsage totals consumption for one color and material combination.
type ColorUsage struct {
	ColorName    string         `json:"colorName"`
	MaterialType string         `json:"materialType"`
	TotalWeight  entities.Grams `json:"totalWeight"`
	PrintCount   int            `json:"printCount"`
}

// ModelUsage totals the history for one model name.
type ModelUsage struct {
	ModelName   string         `json:"modelName"`
	PrintCount  int            `json:"printCount"`
	TotalWeight entities.Grams `json:"totalWeight"`
}

// QualityBucket is one slice of the quality distribution.
type QualityBucket struct {
	Rating  entities.QualityRating `json:"rating"`
	Count   int                    `json:"count"`
	Percent float64                `json:"percent"`
}

// MaterialConsumption totals consumption per material type.
type MaterialConsumption struct {
	MaterialType    string         `json:"materialType"`
	TotalWeight     entities.Grams `json:"totalWeight"`
	PrintCount      int            `json:"printCount"`
	AveragePerPrint entities.Grams `json:"averagePerPrint"`
}

// Statistics aggregates the whole print history.
type Statistics struct {
	TotalPrints            int                   `json:"totalPrints"`
	TotalWeight            entities.Grams        `json:"totalWeight"`
	UsageByColor           []ColorUsage          `json:"usageByColor"`
	TopModels              []ModelUsage          `json:"topModels"`
	QualityDistribution    []QualityBucket       `json:"qualityDistribution"`
	AverageVariancePercent *float64              `json:"averageVariancePercent,omitempty"`
	ConsumptionByMaterial  []MaterialConsumption `json:"consumptionByMaterial"`
}

// Statistics derives the history aggregate. topModels limits the model
// ranking; zero keeps every model.
func (s *Service) Statistics(topModels int) *Statistics {
	revision := s.view.Revision()
	key := fmt.Sprintf("statistics:%d", topModels)
	if cached, ok := s.memo.get(revision, key); ok {
		return cached.(*Statistics)
	}

	stats := &Statistics{}
	colors := make(map[string]*ColorUsage)
	models := make(map[string]*ModelUsage)
	materials := make(map[string]*MaterialConsumption)
	quality := make(map[entities.QualityRating]int)
	var varianceSum float64
	var varianceCount int

	for _, p := range s.view.Prints() {
		stats.TotalPrints++
		stats.TotalWeight = stats.TotalWeight.Add(p.TotalWeight)
		quality[p.Quality]++

		if p.Variance != nil {
			varianceSum += p.Variance.VariancePercent
			varianceCount++
		}

		mk := strings.ToLower(p.ModelName)
		mu, ok := models[mk]
		if !ok {
			mu = &ModelUsage{ModelName: p.ModelName}
			models[mk] = mu
		}
		mu.PrintCount++
		mu.TotalWeight = mu.TotalWeight.Add(p.TotalWeight)

		seenColors := make(map[string]bool)
		seenMaterials := make(map[string]bool)
		for _, u := range p.FilamentUsages {
			ck := strings.ToLower(u.ColorName) + "|" + strings.ToLower(u.MaterialType)
			cu, ok := colors[ck]
			if !ok {
				cu = &ColorUsage{ColorName: u.ColorName, MaterialType: u.MaterialType}
				colors[ck] = cu
			}
			cu.TotalWeight = cu.TotalWeight.Add(u.ActualWeight)
			if !seenColors[ck] {
				seenColors[ck] = true
				cu.PrintCount++
			}

			matKey := strings.ToLower(u.MaterialType)
			mat, ok := materials[matKey]
			if !ok {
				mat = &MaterialConsumption{MaterialType: u.MaterialType}
				materials[matKey] = mat
			}
			mat.TotalWeight = mat.TotalWeight.Add(u.ActualWeight)
			if !seenMaterials[matKey] {
				seenMaterials[matKey] = true
				mat.PrintCount++
			}
		}
	}

	for _, cu := range colors {
		stats.UsageByColor = append(stats.UsageByColor, *cu)
	}
	sort.Slice(stats.UsageByColor, func(i, j int) bool {
		if stats.UsageByColor[i].TotalWeight != stats.UsageByColor[j].TotalWeight {
			return stats.UsageByColor[i].TotalWeight > stats.UsageByColor[j].TotalWeight
		}
		return stats.UsageByColor[i].ColorName < stats.UsageByColor[j].ColorName
	})

	for _, mu := range models {
		stats.TopModels = append(stats.TopModels, *mu)
	}
	sort.Slice(stats.TopModels, func(i, j int) bool {
		if stats.TopModels[i].PrintCount != stats.TopModels[j].PrintCount {
			return stats.TopModels[i].PrintCount > stats.TopModels[j].PrintCount
		}
		return stats.TopModels[i].ModelName < stats.TopModels[j].ModelName
	})
	if topModels > 0 && len(stats.TopModels) > topModels {
		stats.TopModels = stats.TopModels[:topModels]
	}

	for _, mat := range materials {
		mat.AveragePerPrint = mat.TotalWeight.DivInt(mat.PrintCount)
		stats.ConsumptionByMaterial = append(stats.ConsumptionByMaterial, *mat)
	}
	sort.Slice(stats.ConsumptionByMaterial, func(i, j int) bool {
		return stats.ConsumptionByMaterial[i].TotalWeight > stats.ConsumptionByMaterial[j].TotalWeight
	})

	for _, rating := range []entities.QualityRating{
		entities.QualityExcellent, entities.QualityGood,
		entities.QualityFair, entities.QualityPoor, entities.QualityUnset,
	} {
		count := quality[rating]
		if count == 0 {
			continue
		}
		percent := 0.0
		if stats.TotalPrints > 0 {
			percent = math.Round(float64(count)/float64(stats.TotalPrints)*1000) / 10
		}
		stats.QualityDistribution = append(stats.QualityDistribution, QualityBucket{
			Rating: rating, Count: count, Percent: percent,
		})
	}

	if varianceCount > 0 {
		avg := math.Round(varianceSum/float64(varianceCount)*100) / 100
		stats.AverageVariancePercent = &avg
	}

	s.memo.put(revision, key, stats)
	return stats
}

// InventorySummary sizes the spool collection.
type InventorySummary struct {
	TotalSpools    int             `json:"totalSpools"`
	InStock        int             `json:"inStock"`
	TotalRemaining entities.Grams  `json:"totalRemaining"`
	TotalValue     *entities.Money `json:"totalValue,omitempty"`
	LowStock       []LowStockSpool `json:"lowStock,omitempty"`
}

// InventorySummary derives the collection overview. The total value only
// counts spools with a known purchase price, prorated by remaining weight.
func (s *Service) InventorySummary() *InventorySummary {
	summary := &InventorySummary{}
	var value entities.Money
	priced := false
	for _, f := range s.view.Filaments() {
		summary.TotalSpools++
		if f.InStock {
			summary.InStock++
		}
		summary.TotalRemaining = summary.TotalRemaining.Add(f.RemainingWeight)
		if f.PurchasePrice != nil {
			value = value.Add(f.PurchasePrice.CostOf(f.RemainingWeight, f.NominalWeight))
			priced = true
		}
	}
	if priced {
		summary.TotalValue = &value
	}
	summary.LowStock = s.LowStock()
	return summary
}
