// Package output renders engine state and derivations for the terminal, in
// fixed-width text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/printforge/spooltrack/pkg/application/services/derive"
	"github.com/printforge/spooltrack/pkg/domain/entities"
	"github.com/printforge/spooltrack/pkg/infrastructure/events"
)

// Render writes the value in the given format: "json" marshals it, anything
// else runs the text renderer.
func Render[T any](format string, value T, text func(T)) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	text(value)
	return nil
}

// SpoolTable prints the spool inventory.
func SpoolTable(spools []*entities.Filament) {
	fmt.Printf("🧵 Spools (%d)\n", len(spools))
	fmt.Printf("%-36s %-14s %-8s %-18s %-9s %-11s %-8s\n",
		"ID", "Brand", "Mat.", "Color", "Hex", "Remaining", "Stock")
	for _, f := range spools {
		stock := "yes"
		if !f.InStock {
			stock = "no"
		}
		fmt.Printf("%-36s %-14s %-8s %-18s %-9s %8.1f g  %-8s\n",
			f.ID, f.Brand, f.MaterialType, f.ColorName, f.DisplayHex(),
			float64(f.RemainingWeight), stock)
	}
}

// ModelTable prints the model catalog.
func ModelTable(models []*entities.Model) {
	fmt.Printf("📐 Models (%d)\n", len(models))
	fmt.Printf("%-36s %-24s %-14s %-8s %-5s\n", "ID", "Name", "Category", "Diff.", "Reqs")
	for _, m := range models {
		fmt.Printf("%-36s %-24s %-14s %-8s %-5d\n",
			m.ID, m.Name, m.Category, m.Difficulty, len(m.Requirements))
	}
}

// PrintTable prints the print history.
func PrintTable(prints []*entities.Print) {
	fmt.Printf("🖨️  Prints (%d)\n", len(prints))
	fmt.Printf("%-36s %-24s %-12s %-10s %-10s\n", "ID", "Model", "Date", "Quality", "Weight")
	for _, p := range prints {
		fmt.Printf("%-36s %-24s %-12s %-10s %7.1f g\n",
			p.ID, p.ModelName, p.PrintDate.Format("2006-01-02"), p.Quality,
			float64(p.TotalWeight))
	}
}

// Summary prints the collection overview.
func Summary(s *derive.InventorySummary) {
	fmt.Println("📊 Inventory Summary")
	fmt.Println("====================")
	fmt.Printf("Spools: %d (%d in stock)\n", s.TotalSpools, s.InStock)
	fmt.Printf("Remaining material: %.1f g\n", float64(s.TotalRemaining))
	if s.TotalValue != nil {
		fmt.Printf("Estimated value: %.2f\n", float64(*s.TotalValue))
	}
	if len(s.LowStock) > 0 {
		fmt.Println("\n⚠️  Running low:")
		for _, low := range s.LowStock {
			fmt.Printf("  %s: %.1f of %.1f g left\n",
				low.ColorName, float64(low.Remaining), float64(low.Nominal))
		}
	}
}

// Stats prints the history aggregate.
func Stats(st *derive.Statistics) {
	fmt.Println("📈 Print Statistics")
	fmt.Println("===================")
	fmt.Printf("Total prints: %d\n", st.TotalPrints)
	fmt.Printf("Total material used: %.1f g\n", float64(st.TotalWeight))
	if st.AverageVariancePercent != nil {
		fmt.Printf("Average plan variance: %+.2f%%\n", *st.AverageVariancePercent)
	}

	if len(st.TopModels) > 0 {
		fmt.Println("\nMost printed:")
		for _, m := range st.TopModels {
			fmt.Printf("  %-24s %3d prints  %8.1f g\n", m.ModelName, m.PrintCount, float64(m.TotalWeight))
		}
	}
	if len(st.UsageByColor) > 0 {
		fmt.Println("\nBy color:")
		for _, c := range st.UsageByColor {
			fmt.Printf("  %-18s %-8s %8.1f g in %d prints\n",
				c.ColorName, c.MaterialType, float64(c.TotalWeight), c.PrintCount)
		}
	}
	if len(st.ConsumptionByMaterial) > 0 {
		fmt.Println("\nBy material:")
		for _, m := range st.ConsumptionByMaterial {
			fmt.Printf("  %-8s %8.1f g in %d prints (avg %.1f g)\n",
				m.MaterialType, float64(m.TotalWeight), m.PrintCount, float64(m.AveragePerPrint))
		}
	}
	if len(st.QualityDistribution) > 0 {
		fmt.Println("\nQuality:")
		for _, q := range st.QualityDistribution {
			fmt.Printf("  %-10s %3d (%.1f%%)\n", q.Rating, q.Count, q.Percent)
		}
	}
}

// PrintableTable prints per-model printability.
func PrintableTable(results []*derive.Printability) {
	fmt.Printf("🎯 Printability (%d models)\n", len(results))
	for _, p := range results {
		switch {
		case !p.CanPrint:
			fmt.Printf("❌ %s\n", p.ModelName)
			for _, m := range p.Missing {
				fmt.Printf("     %s (%s): %s\n", m.ColorName, m.MaterialType, m.Reason)
			}
		case p.Unbounded:
			fmt.Printf("✅ %s\n", p.ModelName)
		default:
			fmt.Printf("✅ %s (stock covers %d)\n", p.ModelName, p.CanPrintCount)
		}
	}
}

// Activity prints the mutation journal, newest first.
func Activity(entries []events.Entry) {
	fmt.Printf("🕘 Recent activity (%d)\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  r%-5d %-8s %-9s %-24s %s\n",
			e.Revision, e.Action, e.Entity, e.Name, e.Time.Format("2006-01-02 15:04:05"))
	}
}
