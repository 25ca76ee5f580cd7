package commands

import (
	"context"
	"fmt"

	"github.com/printforge/spooltrack/pkg/interfaces/cli/output"
)

// InventoryConfig holds configuration for the show command.
type InventoryConfig struct {
	Section string // spools, models, prints, summary, stats, printable, activity
	Format  string // text, json
	TopN    int
}

// InventoryCommand renders the current state and its derivations.
type InventoryCommand struct {
	engine *Engine
	config InventoryConfig
}

// NewInventoryCommand creates a show command.
func NewInventoryCommand(engine *Engine, config InventoryConfig) *InventoryCommand {
	return &InventoryCommand{engine: engine, config: config}
}

// Execute runs the show command.
func (c *InventoryCommand) Execute(ctx context.Context) error {
	e := c.engine
	switch c.config.Section {
	case "spools":
		return output.Render(c.config.Format, e.Repo.Filaments(), output.SpoolTable)
	case "models":
		return output.Render(c.config.Format, e.Repo.Models(), output.ModelTable)
	case "prints":
		return output.Render(c.config.Format, e.Repo.Prints(), output.PrintTable)
	case "summary", "":
		return output.Render(c.config.Format, e.Derive.InventorySummary(), output.Summary)
	case "stats":
		return output.Render(c.config.Format, e.Derive.Statistics(c.config.TopN), output.Stats)
	case "printable":
		return output.Render(c.config.Format, e.Derive.Printable(), output.PrintableTable)
	case "activity":
		return output.Render(c.config.Format, e.Journal.Recent(c.config.TopN), output.Activity)
	default:
		return fmt.Errorf("unknown section %q (expected spools, models, prints, summary, stats, printable, or activity)", c.config.Section)
	}
}
