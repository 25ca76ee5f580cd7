package commands

import (
	"context"
	"fmt"
)

// ClearConfig holds configuration for the clear command.
type ClearConfig struct {
	Confirm bool
}

// ClearCommand removes every persisted key under the configured namespace.
type ClearCommand struct {
	engine *Engine
	config ClearConfig
}

// NewClearCommand creates a clear command.
func NewClearCommand(engine *Engine, config ClearConfig) *ClearCommand {
	return &ClearCommand{engine: engine, config: config}
}

// Execute runs the clear command. Without -confirm it only reports what would
// be removed.
func (c *ClearCommand) Execute(ctx context.Context) error {
	stats, err := c.engine.Store.Stats()
	if err != nil {
		return err
	}

	if !c.config.Confirm {
		fmt.Printf("Namespace %q holds %d keys (%d bytes):\n",
			c.engine.Config.Namespace, stats.KeyCount, stats.TotalBytes)
		for _, key := range stats.Keys {
			fmt.Printf("  %s\n", key)
		}
		fmt.Println("Re-run with -confirm to remove them.")
		return nil
	}

	if err := c.engine.Store.ClearNamespace(); err != nil {
		return err
	}
	c.engine.Note("clear", "snapshot", c.engine.Config.Namespace)
	fmt.Printf("✅ Cleared %d keys from namespace %q\n", stats.KeyCount, c.engine.Config.Namespace)
	return nil
}
