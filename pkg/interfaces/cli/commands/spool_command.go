package commands

import (
	"context"
	"fmt"

	"github.com/printforge/spooltrack/pkg/application/services/importer"
	"github.com/printforge/spooltrack/pkg/domain/entities"
	"github.com/printforge/spooltrack/pkg/infrastructure/repositories/memory"
)

// SpoolConfig holds configuration for the add-spool command.
type SpoolConfig struct {
	Brand       string
	Material    string
	ColorName   string
	ColorHex    string
	Diameter    float64
	Nominal     float64
	Remaining   float64
	Price       float64
	Location    string
	OnDuplicate string // ask, merge, separate
	CSVFile     string
}

// SpoolCommand adds spools interactively or from a CSV file.
type SpoolCommand struct {
	engine *Engine
	config SpoolConfig
}

// NewSpoolCommand creates an add-spool command.
func NewSpoolCommand(engine *Engine, config SpoolConfig) *SpoolCommand {
	return &SpoolCommand{engine: engine, config: config}
}

// Execute runs the add-spool command.
func (c *SpoolCommand) Execute(ctx context.Context) error {
	if c.config.CSVFile != "" {
		return c.importCSV()
	}
	return c.addOne()
}

func (c *SpoolCommand) addOne() error {
	remaining := c.config.Remaining
	if remaining == 0 {
		remaining = c.config.Nominal
	}

	f, err := entities.NewFilament(
		c.config.Brand, c.config.Material, c.config.ColorName, c.config.ColorHex,
		c.config.Diameter, entities.Grams(c.config.Nominal), entities.Grams(remaining))
	if err != nil {
		return err
	}
	if c.config.Price > 0 {
		price := entities.Money(c.config.Price)
		f.PurchasePrice = &price
	}
	f.Location = c.config.Location

	disposition, err := parseDisposition(c.config.OnDuplicate)
	if err != nil {
		return err
	}

	result, err := c.engine.Repo.AddFilament(f, disposition)
	if err != nil {
		return err
	}
	if result.Filament == nil {
		fmt.Printf("⚠️  A matching spool already exists: %s %s %s (%s)\n",
			result.Duplicate.Brand, result.Duplicate.MaterialType,
			result.Duplicate.ColorName, result.Duplicate.DisplayHex())
		fmt.Println("Re-run with -on-duplicate merge or -on-duplicate separate.")
		return nil
	}

	c.engine.Note("add", "filament", result.Filament.ColorName)
	if result.Merged {
		fmt.Printf("✅ Merged into existing spool %s (%v g remaining)\n",
			result.Filament.ColorName, result.Filament.RemainingWeight)
	} else {
		fmt.Printf("✅ Added spool %s %s %s (%v g)\n",
			result.Filament.Brand, result.Filament.MaterialType,
			result.Filament.ColorName, result.Filament.RemainingWeight)
	}
	return nil
}

func (c *SpoolCommand) importCSV() error {
	spools, err := importer.LoadSpoolsCSV(c.config.CSVFile)
	if err != nil {
		return err
	}

	added := 0
	for _, f := range spools {
		result, err := c.engine.Repo.AddFilament(f, memory.DispositionSeparate)
		if err != nil {
			fmt.Printf("⚠️  Skipping %s: %v\n", f.ColorName, err)
			continue
		}
		c.engine.Note("add", "filament", result.Filament.ColorName)
		added++
	}
	fmt.Printf("✅ Imported %d of %d spools from %s\n", added, len(spools), c.config.CSVFile)
	return nil
}

func parseDisposition(s string) (memory.DuplicateDisposition, error) {
	switch s {
	case "", "ask":
		return memory.DispositionAsk, nil
	case "merge":
		return memory.DispositionMerge, nil
	case "separate":
		return memory.DispositionSeparate, nil
	default:
		return memory.DispositionAsk, fmt.Errorf("invalid -on-duplicate value %q (expected ask, merge, or separate)", s)
	}
}
