// Package loader runs the configuration-loading protocol against one engine
// client: force-reload, test configuration, global constants, test bench
// configuration, and the final run state.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/seantiz/benchd/internal/engine"
	"github.com/seantiz/benchd/internal/model"
)

// Loader executes configuration loads against a single engine client. All
// engine calls within one load are strictly sequential: each step depends on
// the engine state left behind by the previous one.
type Loader struct {
	client *engine.Client
	logger *slog.Logger
}

// New creates a loader around the given client.
func New(client *engine.Client, logger *slog.Logger) *Loader {
	return &Loader{client: client, logger: logger}
}

// Load runs the full loading sequence and always returns a LoadResult, never
// an error: any remote-call failure mid-sequence aborts the remainder, is
// logged, and yields Loaded=false.
func (l *Loader) Load(ctx context.Context, cfg model.TestRunConfig) model.LoadResult {
	start := time.Now().UTC()
	res := model.LoadResult{
		ID:        model.NewID(),
		RunState:  model.RunStateStopped,
		StartedAt: start,
	}

	logger := l.logger.With("run_id", res.ID)
	logger.Info("loading configurations",
		"tbc", configName(cfg.TbcPath),
		"tcf", configName(cfg.TcfPath),
		"force_reload", cfg.ForceReload,
		"load_only", cfg.LoadOnly,
	)

	if err := l.run(ctx, logger, cfg, &res); err != nil {
		logger.Error("configuration load aborted", "error", err)
		res.Loaded = false
		res.RunState = model.RunStateStopped
		res.Error = err.Error()
	}

	now := time.Now().UTC()
	dur := int(now.Sub(start).Milliseconds())
	res.FinishedAt = &now
	res.DurationMS = &dur

	logger.Info("configuration load finished",
		"loaded", res.Loaded,
		"run_state", res.RunState,
		"duration_ms", dur,
	)
	return res
}

// run executes the state sequence. Returned errors are remote/timeout/exec
// failures that abort the sequence; negative open results are recorded on
// res and do not abort.
func (l *Loader) run(ctx context.Context, logger *slog.Logger, cfg model.TestRunConfig, res *model.LoadResult) error {
	tbcName := configName(cfg.TbcPath)
	tcfName := configName(cfg.TcfPath)

	if cfg.ForceReload {
		logger.Info("forcing reload of configurations")
		// Best effort: a failed stop must not abort the load.
		if err := l.client.Stop(ctx); err != nil {
			logger.Warn("stop before reload failed", "error", err)
		}
	}

	ok, err := l.client.OpenTestConfiguration(ctx, cfg.TcfPath)
	if err != nil {
		return err
	}
	if ok {
		if cfg.TcfPath != "" && len(cfg.Constants) > 0 {
			logger.Info("applying global constants", "count", len(cfg.Constants))
			if err := l.applyConstants(ctx, cfg.Constants); err != nil {
				return err
			}
		}
		res.TestStatus = "test configuration loaded successfully"
		logger.Info("test configuration loaded", "tcf", tcfName)
	} else {
		res.TestStatus = fmt.Sprintf("loading TCF=%s failed", tcfName)
		logger.Error("loading test configuration failed", "tcf", tcfName)
	}

	ok, err = l.client.OpenTestBenchConfiguration(ctx, cfg.TbcPath)
	if err != nil {
		return err
	}
	if ok {
		res.Loaded = true
		res.BenchStatus = "test bench configuration loaded successfully"
		logger.Info("test bench configuration loaded", "tbc", tbcName)
	} else {
		res.BenchStatus = fmt.Sprintf("loading TBC=%s failed", tbcName)
		logger.Error("loading test bench configuration failed", "tbc", tbcName)
	}

	if !res.Loaded {
		return nil
	}

	if cfg.LoadOnly {
		res.RunState = model.RunStateSkipped
		logger.Info("starting configurations skipped")
		return nil
	}

	if err := l.client.Start(ctx); err != nil {
		return err
	}
	res.RunState = model.RunStateRunning
	logger.Info("configurations started")
	return nil
}

// applyConstants writes the constants in caller-supplied order. The engine
// only accepts constant mutation while running, but must not be left running
// here because the bench configuration has not loaded yet, so the sequence
// is start, set each constant, stop.
func (l *Loader) applyConstants(ctx context.Context, constants []model.GlobalConstant) error {
	if err := l.client.Start(ctx); err != nil {
		return err
	}

	cfg, err := l.client.CurrentConfiguration(ctx)
	if err != nil {
		return err
	}
	defer cfg.Close()

	for _, gc := range constants {
		if err := cfg.SetGlobalConstant(ctx, gc.Name, gc.Value); err != nil {
			return err
		}
	}

	return l.client.Stop(ctx)
}

// configName renders a document path for logs: its base name, or "None" when
// no document was given.
func configName(path string) string {
	if path == "" {
		return "None"
	}
	return filepath.Base(path)
}
