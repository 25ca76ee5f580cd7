// Package commands wires the engine together and implements the CLI
// commands.
package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/printforge/spooltrack/pkg/application/services/derive"
	"github.com/printforge/spooltrack/pkg/application/services/importer"
	"github.com/printforge/spooltrack/pkg/infrastructure/config"
	"github.com/printforge/spooltrack/pkg/infrastructure/events"
	"github.com/printforge/spooltrack/pkg/infrastructure/logging"
	"github.com/printforge/spooltrack/pkg/infrastructure/persistence"
	"github.com/printforge/spooltrack/pkg/infrastructure/repositories/memory"
)

// Engine bundles the configured application stack for the CLI commands.
type Engine struct {
	Config  *config.Config
	Log     *zap.SugaredLogger
	Repo    *memory.Repository
	Store   *persistence.Adapter
	Derive  *derive.Service
	Import  *importer.Importer
	Journal *events.Journal
}

// NewEngine builds the stack from a config file, loads the persisted
// snapshot and arranges autosave on every mutation.
func NewEngine(configPath string) (*Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	var kv persistence.KVStore
	switch cfg.Backend {
	case config.BackendSQLite:
		sqlite, err := persistence.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			// The adapter degrades to memory on store failures; an unopenable
			// database degrades the same way, up front.
			log.Warnw("sqlite unavailable, running with in-memory persistence",
				"path", cfg.SQLitePath, "error", err)
			kv = persistence.NewMemoryStore()
		} else {
			kv = sqlite
		}
	default:
		kv = persistence.NewMemoryStore()
	}

	adapter := persistence.NewAdapter(kv, cfg.Namespace, log)
	repo := memory.NewRepository()

	snap, err := adapter.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	if snap != nil {
		repo.LoadSnapshot(snap)
	}

	// Every committed mutation is written through; in-memory state stays the
	// source of truth if a save fails.
	repo.OnRevisionChange(func(revision uint64) {
		if err := adapter.Save(repo.Snapshot()); err != nil {
			log.Errorw("autosave failed", "revision", revision, "error", err)
		}
	})

	return &Engine{
		Config:  cfg,
		Log:     log,
		Repo:    repo,
		Store:   adapter,
		Derive:  derive.NewService(repo),
		Import:  importer.NewImporter(repo, nil, log),
		Journal: events.NewJournal(cfg.JournalSize),
	}, nil
}

// Note records a mutation in the activity journal at the current revision.
func (e *Engine) Note(action, entity, name string) {
	e.Journal.Record(e.Repo.Revision(), action, entity, name)
}
