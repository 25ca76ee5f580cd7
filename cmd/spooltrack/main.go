package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/printforge/spooltrack/pkg/interfaces/cli/commands"
)

type command interface {
	Execute(ctx context.Context) error
}

func main() {
	if len(os.Args) < 2 {
		showHelp()
		os.Exit(1)
	}

	sub := os.Args[1]
	args := os.Args[2:]
	if sub == "help" || sub == "-help" || sub == "--help" {
		showHelp()
		return
	}

	cmd, err := buildCommand(sub, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildCommand(sub string, args []string) (command, error) {
	fs := flag.NewFlagSet(sub, flag.ExitOnError)
	configPath := fs.String("config", "spooltrack.yaml", "Path to config file")

	switch sub {
	case "show":
		var cfg commands.InventoryConfig
		fs.StringVar(&cfg.Section, "section", "summary",
			"Section: spools, models, prints, summary, stats, printable, activity")
		fs.StringVar(&cfg.Format, "format", "text", "Output format: text, json")
		fs.IntVar(&cfg.TopN, "top", 10, "Row limit for ranked sections")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		engine, err := commands.NewEngine(*configPath)
		if err != nil {
			return nil, err
		}
		return commands.NewInventoryCommand(engine, cfg), nil

	case "add-spool":
		var cfg commands.SpoolConfig
		fs.StringVar(&cfg.Brand, "brand", "", "Spool brand")
		fs.StringVar(&cfg.Material, "material", "", "Material type (PLA, PETG, ...)")
		fs.StringVar(&cfg.ColorName, "color", "", "Color name")
		fs.StringVar(&cfg.ColorHex, "hex", "", "Color hex (#RRGGBB)")
		fs.Float64Var(&cfg.Diameter, "diameter", 1.75, "Diameter in mm: 1.75 or 2.85")
		fs.Float64Var(&cfg.Nominal, "nominal", 1000, "Nominal weight in grams")
		fs.Float64Var(&cfg.Remaining, "remaining", 0, "Remaining weight in grams (default: full)")
		fs.Float64Var(&cfg.Price, "price", 0, "Purchase price (optional)")
		fs.StringVar(&cfg.Location, "location", "", "Storage location (optional)")
		fs.StringVar(&cfg.OnDuplicate, "on-duplicate", "ask", "Duplicate handling: ask, merge, separate")
		fs.StringVar(&cfg.CSVFile, "csv", "", "Bulk import spools from a CSV file instead")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		engine, err := commands.NewEngine(*configPath)
		if err != nil {
			return nil, err
		}
		return commands.NewSpoolCommand(engine, cfg), nil

	case "record":
		var cfg commands.RecordConfig
		fs.StringVar(&cfg.ModelName, "model", "", "Model name")
		fs.StringVar(&cfg.Date, "date", "", "Print date YYYY-MM-DD (default: today)")
		fs.StringVar(&cfg.Quality, "quality", "", "Quality: excellent, good, fair, poor")
		fs.StringVar(&cfg.Notes, "notes", "", "Print notes (optional)")
		fs.StringVar(&cfg.Usages, "usage", "", "Consumed material as filamentID=grams[,filamentID=grams...]")
		fs.BoolVar(&cfg.AllowNegative, "allow-negative", false, "Record even when stock runs short")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		engine, err := commands.NewEngine(*configPath)
		if err != nil {
			return nil, err
		}
		return commands.NewRecordCommand(engine, cfg), nil

	case "export":
		var cfg commands.TransferConfig
		fs.StringVar(&cfg.File, "file", "-", "Output file, - for stdout")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		engine, err := commands.NewEngine(*configPath)
		if err != nil {
			return nil, err
		}
		return commands.NewExportCommand(engine, cfg), nil

	case "import":
		var cfg commands.TransferConfig
		fs.StringVar(&cfg.File, "file", "", "Input file")
		fs.StringVar(&cfg.Mode, "mode", "add", "Import mode: add (alias merge) or replace")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		engine, err := commands.NewEngine(*configPath)
		if err != nil {
			return nil, err
		}
		return commands.NewImportCommand(engine, cfg), nil

	case "clear":
		var cfg commands.ClearConfig
		fs.BoolVar(&cfg.Confirm, "confirm", false, "Actually remove the persisted data")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		engine, err := commands.NewEngine(*configPath)
		if err != nil {
			return nil, err
		}
		return commands.NewClearCommand(engine, cfg), nil

	default:
		return nil, fmt.Errorf("unknown command %q, run 'spooltrack help'", sub)
	}
}

func showHelp() {
	fmt.Print(`spooltrack - filament inventory for 3D printing

USAGE:
    spooltrack <command> [options]

COMMANDS:
    show         Display inventory, history, statistics or printability
    add-spool    Add a spool, or bulk import spools from CSV
    record       Record a completed print and debit the spools it used
    export       Write the whole inventory to an interchange file
    import       Load an interchange file (merge or replace)
    clear        Remove the persisted data for the configured namespace
    help         Show this message

COMMON OPTIONS:
    -config <file>   Path to config file (default: spooltrack.yaml)

EXAMPLES:
    spooltrack show -section spools
    spooltrack show -section stats -format json
    spooltrack add-spool -brand Prusament -material PLA -color "Galaxy Black" -hex "#112233"
    spooltrack add-spool -csv spools.csv
    spooltrack record -model Benchy -usage <spool-id>=22 -quality good
    spooltrack export -file backup.json
    spooltrack import -file backup.json -mode add
`)
}
