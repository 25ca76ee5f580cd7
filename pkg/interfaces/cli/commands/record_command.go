package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// RecordConfig holds configuration for the record command.
type RecordConfig struct {
	ModelName string
	Date      string // YYYY-MM-DD, empty for now
	Quality   string
	Notes     string
	// Usages is a comma-separated list of filamentID=grams pairs.
	Usages        string
	AllowNegative bool
}

// RecordCommand records a completed print and debits the consumed spools.
type RecordCommand struct {
	engine *Engine
	config RecordConfig
}

// NewRecordCommand creates a record command.
func NewRecordCommand(engine *Engine, config RecordConfig) *RecordCommand {
	return &RecordCommand{engine: engine, config: config}
}

// Execute runs the record command.
func (c *RecordCommand) Execute(ctx context.Context) error {
	usages, err := parseUsages(c.config.Usages)
	if err != nil {
		return err
	}

	printDate := time.Now()
	if c.config.Date != "" {
		printDate, err = time.Parse("2006-01-02", c.config.Date)
		if err != nil {
			return fmt.Errorf("invalid -date format: %s (expected YYYY-MM-DD)", c.config.Date)
		}
	}

	p, err := entities.NewPrint(c.config.ModelName, printDate, usages)
	if err != nil {
		return err
	}
	if c.config.Quality != "" {
		p.Quality = entities.QualityRating(c.config.Quality)
	}
	p.Notes = c.config.Notes

	result, err := c.engine.Repo.RecordPrint(p, c.config.AllowNegative)
	if err != nil {
		if stockErr, ok := err.(*entities.InsufficientStockError); ok {
			fmt.Println("⚠️  Not enough stock:")
			for _, d := range stockErr.Deficits {
				fmt.Printf("  %s: need %v g, have %v g (short %v g)\n",
					d.ColorName, d.Requested, d.Available, d.Deficit)
			}
			fmt.Println("Re-run with -allow-negative to record anyway.")
			return nil
		}
		return err
	}

	c.engine.Note("record", "print", result.Print.ModelName)
	fmt.Printf("✅ Recorded print of %s (%v g total)\n", result.Print.ModelName, result.Print.TotalWeight)
	if v := result.Print.Variance; v != nil {
		fmt.Printf("   Planned %v g, used %v g (%+.1f%%)\n", v.ExpectedTotal, v.ActualTotal, v.VariancePercent)
	}
	for _, w := range result.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	return nil
}

func parseUsages(s string) ([]entities.FilamentUsage, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("at least one -usage pair is required (filamentID=grams)")
	}
	var usages []entities.FilamentUsage
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid usage pair %q (expected filamentID=grams)", pair)
		}
		grams, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in usage pair %q", pair)
		}
		usages = append(usages, entities.FilamentUsage{
			FilamentRef:  entities.ID(parts[0]),
			ActualWeight: entities.Grams(grams),
		})
	}
	return usages, nil
}
