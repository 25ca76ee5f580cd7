package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/printforge/spooltrack/pkg/application/services/importer"
)

// TransferConfig holds configuration for the import and export commands.
type TransferConfig struct {
	File string
	Mode string // add or replace, import only
}

// ExportCommand writes the whole inventory to an interchange file.
type ExportCommand struct {
	engine *Engine
	config TransferConfig
}

// NewExportCommand creates an export command.
func NewExportCommand(engine *Engine, config TransferConfig) *ExportCommand {
	return &ExportCommand{engine: engine, config: config}
}

// Execute runs the export command.
func (c *ExportCommand) Execute(ctx context.Context) error {
	blob, err := c.engine.Import.Export()
	if err != nil {
		return err
	}
	if c.config.File == "" || c.config.File == "-" {
		fmt.Println(string(blob))
		return nil
	}
	if err := os.WriteFile(c.config.File, blob, 0o644); err != nil {
		return fmt.Errorf("failed to write export file %s: %w", c.config.File, err)
	}
	fmt.Printf("✅ Exported %d spools, %d models, %d prints to %s\n",
		len(c.engine.Repo.Filaments()), len(c.engine.Repo.Models()),
		len(c.engine.Repo.Prints()), c.config.File)
	return nil
}

// ImportCommand loads an interchange file into the inventory.
type ImportCommand struct {
	engine *Engine
	config TransferConfig
}

// NewImportCommand creates an import command.
func NewImportCommand(engine *Engine, config TransferConfig) *ImportCommand {
	return &ImportCommand{engine: engine, config: config}
}

// Execute runs the import command.
func (c *ImportCommand) Execute(ctx context.Context) error {
	blob, err := os.ReadFile(c.config.File)
	if err != nil {
		return fmt.Errorf("failed to read import file %s: %w", c.config.File, err)
	}

	mode := importer.Mode(c.config.Mode)
	if c.config.Mode == "" {
		mode = importer.ModeAdd
	}

	result, err := c.engine.Import.Import(blob, mode)
	if err != nil {
		return err
	}

	c.engine.Note("import", "snapshot", c.config.File)
	fmt.Printf("✅ Import complete (%s, source %s)\n", result.Mode, result.SourceVersion)
	fmt.Printf("   Spools added: %d  Models added: %d  Models skipped: %d  Prints added: %d\n",
		result.FilamentsAdded, result.ModelsAdded, result.ModelsSkipped, result.PrintsAdded)
	for _, rej := range result.Rejected {
		fmt.Printf("⚠️  Rejected %s %q: %s\n", rej.Kind, rej.Name, rej.Reason)
	}
	for _, w := range result.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	return nil
}
