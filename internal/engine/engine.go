// Package engine orchestrates warehouse builds: it reads the staged
// inputs once, derives the dimension and fact tables, and materializes
// them into the target database in dependency order, recording run
// history in the state store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/datamaghreb/bankdw/internal/adapter"
	"github.com/datamaghreb/bankdw/internal/dag"
	"github.com/datamaghreb/bankdw/internal/state"
	"github.com/datamaghreb/bankdw/internal/warehouse"
)

// Engine coordinates warehouse builds.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	logger      *slog.Logger
	store       *state.Store
	schema      string
	seedsDir    string
	environment string
	matcher     *warehouse.CityMatcher
	graph       *dag.Graph
	now         func() time.Time
}

// Config holds engine configuration.
type Config struct {
	// Target describes the warehouse database to build into.
	Target adapter.Config
	// Schema is the warehouse schema name (default "warehouse").
	Schema string
	// SeedsDir is the directory holding cleaned CSV exports (optional).
	SeedsDir string
	// StatePath is the path to the SQLite run-history database.
	StatePath string
	// Environment is the current environment (dev, staging, prod).
	Environment string
	// CityRulesPath points to a YAML city-rule file; empty uses the
	// built-in rules.
	CityRulesPath string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
	// Now supplies the build clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// New creates a new engine with a lazy database connection. The target
// database is only connected when Run or LoadSeeds is called.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if !adapter.IsRegistered(cfg.Target.Type) {
		return nil, fmt.Errorf("unknown target type %q (supported: %v)", cfg.Target.Type, adapter.List())
	}

	schema := cfg.Schema
	if schema == "" {
		schema = "warehouse"
	}
	env := cfg.Environment
	if env == "" {
		env = "dev"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger.Debug("initializing engine",
		"target", cfg.Target.Type, "schema", schema, "environment", env)

	statePath := cfg.StatePath
	if statePath == "" {
		statePath = ":memory:"
	}
	store, err := state.Open(statePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	rules := warehouse.DefaultCityRules()
	if cfg.CityRulesPath != "" {
		rules, err = warehouse.LoadCityRules(cfg.CityRulesPath)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to load city rules: %w", err)
		}
	}

	e := &Engine{
		dbConfig:    cfg.Target,
		logger:      logger,
		store:       store,
		schema:      schema,
		seedsDir:    cfg.SeedsDir,
		environment: env,
		matcher:     warehouse.NewCityMatcher(rules),
		now:         now,
	}
	e.graph = e.buildGraph()
	return e, nil
}

// Graph returns the table dependency graph.
func (e *Engine) Graph() *dag.Graph {
	return e.graph
}

// Store returns the run-history store.
func (e *Engine) Store() *state.Store {
	return e.store
}

func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type)

	db, err := adapter.New(e.dbConfig.Type)
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}
	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	e.db = db
	e.dbConnected = true
	e.logger.Debug("database connected", "dialect", db.DialectName())
	return nil
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing engine: %v", errs)
	}
	return nil
}

// table returns the schema-qualified logical name of a warehouse table.
func (e *Engine) table(name string) string {
	return e.schema + "." + name
}
