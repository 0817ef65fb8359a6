package cli

import (
	"errors"
	"fmt"

	"github.com/iambrandonn/dailyorch/internal/account"
	"github.com/iambrandonn/dailyorch/internal/catalog"
	"github.com/iambrandonn/dailyorch/internal/formation"
	"github.com/iambrandonn/dailyorch/internal/orchestrator"
	"github.com/iambrandonn/dailyorch/internal/runstate"
	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the daily catch-up",
	Long: `Fetch the role, build the daily catalog from its completion state and
the configured settings, and run every entry in order. A failing entry is
logged and the run continues with the next one.`,
	RunE: runDaily,
}

func init() {
	dailyCmd.Flags().Bool("dry-run", false, "Print the catalog without running it")
}

func runDaily(cmd *cobra.Command, args []string) error {
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	s, err := openSession(cmd, runstate.KindDaily)
	if err != nil {
		return err
	}
	defer s.close()

	deps := catalog.Deps{
		Gateway:         s.gateway,
		Formation:       formation.NewSwitcher(s.gateway, s.bridge.Cache(), s.sink, s.logger),
		Sink:            s.sink,
		ArenaRoundDelay: s.pacing.ArenaRoundDelay,
	}
	runner := orchestrator.NewRunner(account.NewProvider(s.gateway), s.settings, deps, s.sink, s.logger, s.pacing)

	if dryRun {
		snap, tasks, err := runner.Plan(cmd.Context())
		if err != nil {
			s.finish(err)
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "daily point progress: %d/100\n", snap.DailyPoint)
		fmt.Fprintf(out, "%d tasks planned:\n", len(tasks))
		for i, name := range catalog.Names(tasks) {
			fmt.Fprintf(out, "  %2d. %s\n", i+1, name)
		}
		s.finish(nil)
		return nil
	}

	summary, err := runner.RunDaily(cmd.Context())
	s.state.Set(runstate.CountAttempted, summary.Attempted())
	s.state.Set(runstate.CountFailed, summary.Failed())

	if summary.Cancelled {
		s.state.MarkAborted()
		s.save()
		return fmt.Errorf("daily run cancelled after %d entries: %w", summary.Attempted(), err)
	}
	s.finish(err)

	if errors.Is(err, orchestrator.ErrAccountFetch) {
		return fmt.Errorf("daily run aborted: %w", err)
	}
	return err
}
