package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/datamaghreb/bankdw/internal/staging"
	"github.com/datamaghreb/bankdw/internal/state"
)

// Run executes a full-refresh warehouse build. The staged inputs are read
// once up front; dimensions build concurrently, then the fact and
// quarantine tables build once every dimension has committed. A failed
// table fails the run and skips everything downstream of it.
func (e *Engine) Run(ctx context.Context) (*state.Run, error) {
	e.logger.Info("starting build", "environment", e.environment, "schema", e.schema)

	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	if err := e.db.EnsureSchema(ctx, e.schema); err != nil {
		return nil, fmt.Errorf("failed to ensure warehouse schema: %w", err)
	}

	// An input read failure aborts before any table is touched.
	snapshot, err := staging.ReadSnapshot(ctx, e.db)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("read staging snapshot",
		"branches", len(snapshot.Branches), "reviews", len(snapshot.Reviews),
		"sentiments", len(snapshot.Sentiments), "topics", len(snapshot.Topics))

	run, err := e.store.CreateRun(e.environment)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	e.logger.Debug("created run", "run_id", run.ID)

	levels, err := e.graph.ExecutionLevels()
	if err != nil {
		_ = e.store.CompleteRun(run.ID, state.RunStatusFailed, fmt.Sprintf("dependency sort failed: %v", err))
		return run, err
	}

	bs := &buildState{snapshot: snapshot}
	builders := e.builders(bs)

	var runErr error
	for _, level := range levels {
		if runErr != nil {
			for _, table := range level {
				_ = e.store.SkipTableRun(run.ID, table, "upstream build failed")
			}
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, table := range level {
			builder := builders[table]
			g.Go(func() error {
				return e.runTable(gctx, run.ID, table, builder)
			})
		}
		if err := g.Wait(); err != nil {
			runErr = err
		}
	}

	if runErr != nil {
		e.logger.Error("build failed", "run_id", run.ID, "error", runErr.Error())
		_ = e.store.CompleteRun(run.ID, state.RunStatusFailed, runErr.Error())
	} else {
		e.logger.Info("build completed", "run_id", run.ID)
		_ = e.store.CompleteRun(run.ID, state.RunStatusCompleted, "")

		if report, err := e.Verify(ctx); err != nil {
			e.logger.Warn("post-build verification failed", "error", err.Error())
		} else {
			for _, c := range report.Counts {
				e.logger.Info("verified table", "table", c.Table, "rows", c.Rows)
			}
			if report.OrphanFacts > 0 {
				e.logger.Error("fact rows reference missing dimensions", "orphans", report.OrphanFacts)
			}
		}
	}

	run, _ = e.store.GetRun(run.ID)
	return run, runErr
}

func (e *Engine) runTable(ctx context.Context, runID, table string, builder tableBuilder) error {
	tr, err := e.store.StartTableRun(runID, table)
	if err != nil {
		return fmt.Errorf("failed to record table run for %s: %w", table, err)
	}

	e.logger.Info("building table", "table", table)
	rows, err := builder(ctx)
	if err != nil {
		_ = e.store.FinishTableRun(tr.ID, state.TableRunStatusFailed, 0, err.Error())
		return fmt.Errorf("failed to build %s: %w", table, err)
	}

	if err := e.store.FinishTableRun(tr.ID, state.TableRunStatusSuccess, rows, ""); err != nil {
		return fmt.Errorf("failed to record result for %s: %w", table, err)
	}
	e.logger.Info("built table", "table", table, "rows", rows)
	return nil
}
