package main

import (
	"fmt"
	"time"

	"github.com/printforge/spooltrack/pkg/application/services/derive"
	"github.com/printforge/spooltrack/pkg/application/services/importer"
	"github.com/printforge/spooltrack/pkg/domain/entities"
	"github.com/printforge/spooltrack/pkg/infrastructure/repositories/memory"
)

func main() {
	repo := memory.NewRepository()
	derived := derive.NewService(repo)

	// Stock two spools.
	black, err := entities.NewFilament("Prusament", "PLA", "Galaxy Black", "#112233", 1.75, 1000, 500)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	price := entities.Money(29.99)
	black.PurchasePrice = &price

	white, _ := entities.NewFilament("Overture", "PETG", "White", "#ffffff", 1.75, 1000, 1000)

	blackAdded, _ := repo.AddFilament(black, memory.DispositionSeparate)
	whiteAdded, _ := repo.AddFilament(white, memory.DispositionSeparate)
	fmt.Printf("🧵 Stocked %s and %s\n", blackAdded.Filament.ColorName, whiteAdded.Filament.ColorName)

	// Catalog a model that plans 20 g of the black spool per print.
	req, _ := entities.NewRequirement(blackAdded.Filament.ID, 20, 10, 1)
	model, _ := entities.NewModel("Benchy", "Toys & Games", entities.DifficultyEasy, []entities.Requirement{*req})
	if _, err := repo.AddModel(model); err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}

	p, _ := derived.CanPrintModel(model.ID)
	fmt.Printf("🎯 %s: stock covers %d prints\n", p.ModelName, p.CanPrintCount)

	// Record a print that used a little more than planned.
	job, _ := entities.NewPrint("Benchy", time.Now(), []entities.FilamentUsage{
		{FilamentRef: blackAdded.Filament.ID, ActualWeight: 22},
	})
	job.Quality = entities.QualityGood

	result, err := repo.RecordPrint(job, false)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	fmt.Printf("🖨️  Recorded %s, %v g used\n", result.Print.ModelName, result.Print.TotalWeight)
	if v := result.Print.Variance; v != nil {
		fmt.Printf("   Planned %v g, actual %v g (%+.1f%%)\n", v.ExpectedTotal, v.ActualTotal, v.VariancePercent)
	}

	remaining, _ := repo.FilamentByID(blackAdded.Filament.ID)
	fmt.Printf("🧮 %s now at %v g\n", remaining.ColorName, remaining.RemainingWeight)

	consumption, _ := derived.SpoolConsumption(blackAdded.Filament.ID)
	if consumption.EstimatedCost != nil {
		fmt.Printf("💰 Material cost so far: %.2f\n", float64(*consumption.EstimatedCost))
	}

	// The whole inventory round-trips through the interchange format.
	blob, _ := importer.NewImporter(repo, nil, nil).Export()
	fmt.Printf("📦 Export is %d bytes\n", len(blob))
}
