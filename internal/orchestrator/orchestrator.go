package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/iambrandonn/dailyorch/internal/account"
	"github.com/iambrandonn/dailyorch/internal/catalog"
	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/iambrandonn/dailyorch/internal/gateway"
	"github.com/iambrandonn/dailyorch/internal/logsink"
)

// ErrAccountFetch marks a failed initial role fetch, the only error that
// aborts a daily run.
var ErrAccountFetch = errors.New("account info fetch failed")

// SnapshotProvider reads role state (account.Provider)
type SnapshotProvider interface {
	Fetch(ctx context.Context) (*account.Snapshot, error)
	Refresh(ctx context.Context, timeout time.Duration) error
}

// TaskResult is the outcome of one catalog entry
type TaskResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Summary describes one catalog run
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TaskResult
	// Cancelled is set when ctx ended before every entry ran
	Cancelled bool
}

// Attempted returns how many entries ran
func (s Summary) Attempted() int { return len(s.Results) }

// Failed returns how many entries returned an error
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Runner executes a catalog one entry at a time
type Runner struct {
	provider SnapshotProvider
	settings config.Resolved
	deps     catalog.Deps
	sink     logsink.Sink
	logger   *slog.Logger

	InterTaskDelay    time.Duration
	FinalRefreshDelay time.Duration
	RefreshTimeout    time.Duration
	Sleep             gateway.SleepFunc

	onTask func(TaskResult)
}

// NewRunner creates a runner for one account
func NewRunner(provider SnapshotProvider, settings config.Resolved, deps catalog.Deps, sink logsink.Sink, logger *slog.Logger, pacing config.Pacing) *Runner {
	if sink == nil {
		sink = logsink.Discard
	}
	if deps.Sink == nil {
		deps.Sink = sink
	}
	return &Runner{
		provider:          provider,
		settings:          settings,
		deps:              deps,
		sink:              sink,
		logger:            logger,
		InterTaskDelay:    pacing.InterTaskDelay,
		FinalRefreshDelay: pacing.FinalRefreshDelay,
		RefreshTimeout:    pacing.DefaultTimeout,
		Sleep:             gateway.Sleep,
	}
}

// SetTaskHandler sets a callback invoked after every entry
func (r *Runner) SetTaskHandler(handler func(TaskResult)) {
	r.onTask = handler
}

// Plan fetches the role and builds the catalog without running it
func (r *Runner) Plan(ctx context.Context) (*account.Snapshot, []catalog.Task, error) {
	logsink.Info(r.sink, "fetching role info")
	snap, err := r.provider.Fetch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrAccountFetch, err)
	}

	tasks, err := catalog.Build(snap, r.settings, r.deps)
	if err != nil {
		return snap, nil, fmt.Errorf("build catalog: %w", err)
	}
	return snap, tasks, nil
}

// RunDaily fetches the role, builds the catalog, runs it, and refreshes the
// role at the end. Only a failed initial fetch or catalog build is returned
// before any entry runs.
func (r *Runner) RunDaily(ctx context.Context) (Summary, error) {
	snap, tasks, err := r.Plan(ctx)
	if err != nil {
		logsink.Error(r.sink, "daily run failed: %v", err)
		return Summary{}, err
	}

	logsink.Info(r.sink, "daily point progress: %d/100", snap.DailyPoint)
	logsink.Info(r.sink, "starting daily catch-up")
	logsink.Info(r.sink, "%d tasks to run", len(tasks))

	summary := r.RunAll(ctx, tasks)
	if summary.Cancelled {
		return summary, ctx.Err()
	}

	logsink.Success(r.sink, "all tasks done")

	if err := r.Sleep(ctx, r.FinalRefreshDelay); err != nil {
		return summary, err
	}
	logsink.Info(r.sink, "refreshing role info")
	if err := r.provider.Refresh(ctx, r.RefreshTimeout); err != nil {
		logsink.Error(r.sink, "daily run failed: %v", err)
		return summary, fmt.Errorf("final role refresh: %w", err)
	}
	logsink.Success(r.sink, "role info refreshed")

	return summary, nil
}

// RunAll runs tasks in order. A failing entry is logged and the next one
// still runs; only ctx ending stops the loop early.
func (r *Runner) RunAll(ctx context.Context, tasks []catalog.Task) Summary {
	summary := Summary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	r.logger.Info("catalog run starting", "run_id", summary.RunID, "tasks", len(tasks))

	for i, task := range tasks {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		start := time.Now()
		err := task.Run(ctx)
		result := TaskResult{Name: task.Name, Err: err, Duration: time.Since(start)}
		summary.Results = append(summary.Results, result)

		if err != nil {
			logsink.Error(r.sink, "task failed: %s - %v", task.Name, err)
			r.logger.Warn("task failed", "run_id", summary.RunID, "index", i, "task", task.Name, "error", err)
		} else {
			r.logger.Debug("task done", "run_id", summary.RunID, "index", i, "task", task.Name, "elapsed", result.Duration)
		}

		if r.onTask != nil {
			r.onTask(result)
		}

		if err == nil {
			if serr := r.Sleep(ctx, r.InterTaskDelay); serr != nil && i < len(tasks)-1 {
				summary.Cancelled = true
				break
			}
		}
	}

	summary.FinishedAt = time.Now().UTC()
	r.logger.Info("catalog run finished",
		"run_id", summary.RunID,
		"attempted", summary.Attempted(),
		"failed", summary.Failed(),
		"cancelled", summary.Cancelled)

	return summary
}
