package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"retention-dgp/internal/config"
	"retention-dgp/internal/database"
	"retention-dgp/internal/dgp"
	"retention-dgp/internal/export"
	"retention-dgp/internal/loader"
	"retention-dgp/internal/report"
)

type Result struct {
	RunID        string                    `json:"run_id"`
	Options      dgp.Options               `json:"options"`
	GenerateTime time.Duration             `json:"generate_time"`
	Summary      *report.Summary           `json:"summary"`
	Files        []string                  `json:"files,omitempty"`
	Sinks        map[string]*loader.Result `json:"sinks,omitempty"`
}

// Runner wires configuration to generation and output. Connect opens a sink
// by name and DSN; it defaults to database.New followed by Connect.
type Runner struct {
	Config  *config.Config
	Paths   config.Paths
	Logger  *zap.Logger
	Connect func(name, dsn string) (database.DatabaseDriver, error)
}

func connect(name, dsn string) (database.DatabaseDriver, error) {
	db, err := database.New(name)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(dsn); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", name, err)
	}
	return db, nil
}

// Run generates one dataset and sends it everywhere the configuration asks.
// Generation is synchronous; the Parquet export and each sink load run
// concurrently afterwards, and the first failure cancels the rest.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := r.Config
	if cfg == nil {
		cfg = config.Default()
	}
	connectFn := r.Connect
	if connectFn == nil {
		connectFn = connect
	}

	// resolve every DSN before spending time on generation; a sink listed
	// twice is loaded once
	var sinks []string
	dsns := make(map[string]string, len(cfg.Output.Sinks))
	for _, sink := range cfg.Output.Sinks {
		if _, ok := dsns[sink]; ok {
			continue
		}
		dsn, err := cfg.DSN(sink)
		if err != nil {
			return nil, err
		}
		dsns[sink] = dsn
		sinks = append(sinks, sink)
	}

	opts := cfg.Options()
	runID := uuid.New().String()
	log = log.With(zap.String("run_id", runID))
	log.Info("generating dataset",
		zap.Int64("seed", opts.Seed),
		zap.Int("n_users", opts.NUsers),
		zap.Int("n_weeks", opts.NWeeks),
		zap.Int("t0_week", opts.T0Week),
		zap.Int("retention_week", opts.RetentionWeek),
	)

	start := time.Now()
	ds, err := dgp.Generate(opts)
	if err != nil {
		return nil, err
	}
	result := &Result{RunID: runID, Options: opts, GenerateTime: time.Since(start)}
	log.Info("dataset generated",
		zap.Int("users", ds.Users.Len()),
		zap.Int("user_weeks", ds.UserWeeks.Len()),
		zap.Duration("elapsed", result.GenerateTime),
	)

	if result.Summary, err = report.Summarize(ds); err != nil {
		return nil, err
	}

	sinkResults := make([]*loader.Result, len(sinks))
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Output.Parquet {
		dir := cfg.Output.Dir
		if dir == "" {
			dir = filepath.Join(r.Paths.DataDir, runID)
		}
		if err := config.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("parquet export: %w", err)
		}
		g.Go(func() error {
			files, err := export.WriteParquet(gctx, dir, ds)
			if err != nil {
				return fmt.Errorf("parquet export: %w", err)
			}
			result.Files = files
			log.Info("parquet written", zap.Strings("files", files))
			return nil
		})
	}

	for i, sink := range sinks {
		g.Go(func() error {
			db, err := connectFn(sink, dsns[sink])
			if err != nil {
				return err
			}
			defer db.Close()

			l := &loader.Loader{Logger: log}
			if cfg.Output.Reset {
				if err := l.Teardown(gctx, db); err != nil {
					return fmt.Errorf("reset %s: %w", sink, err)
				}
			}
			res, err := l.Load(gctx, db, ds, runID)
			if err != nil {
				return fmt.Errorf("load %s: %w", sink, err)
			}
			sinkResults[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(sinkResults) > 0 {
		result.Sinks = make(map[string]*loader.Result, len(sinkResults))
		for i, sink := range sinks {
			result.Sinks[sink] = sinkResults[i]
		}
	}
	return result, nil
}
