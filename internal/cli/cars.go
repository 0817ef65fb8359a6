package cli

import (
	"fmt"

	"github.com/iambrandonn/dailyorch/internal/account"
	"github.com/iambrandonn/dailyorch/internal/runstate"
	"github.com/iambrandonn/dailyorch/internal/vehicle"
	"github.com/spf13/cobra"
)

var carsCmd = &cobra.Command{
	Use:   "cars",
	Short: "Dispatch and claim racing vehicles",
}

var carsSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Refresh and dispatch vehicles worth sending",
	Long: `Decide for each idle vehicle whether to send it now or spend a refresh
on it, based on its color, its rewards and the racing tickets on hand.
Dispatching is only open Monday to Wednesday before 20:00.`,
	Args: cobra.NoArgs,
	RunE: runCarsSend,
}

var carsClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim every vehicle that has been out at least four hours",
	Args:  cobra.NoArgs,
	RunE:  runCarsClaim,
}

func init() {
	carsCmd.AddCommand(carsSendCmd)
	carsCmd.AddCommand(carsClaimCmd)

	carsSendCmd.Flags().Int("max-refreshes", vehicle.DefaultMaxRefreshes, "Refresh limit per vehicle")
}

func runCarsSend(cmd *cobra.Command, args []string) error {
	maxRefreshes, err := cmd.Flags().GetInt("max-refreshes")
	if err != nil {
		return err
	}
	if maxRefreshes < 1 {
		return fmt.Errorf("--max-refreshes must be at least 1, got %d", maxRefreshes)
	}

	s, err := openSession(cmd, runstate.KindCarsSend)
	if err != nil {
		return err
	}
	defer s.close()

	planner := vehicle.NewDispatchPlanner(s.gateway, account.NewProvider(s.gateway), s.sink, s.logger, s.pacing)
	planner.MaxRefreshes = maxRefreshes

	res, err := planner.Run(cmd.Context())
	recordVehicles(s.state, res)
	s.finish(err)
	return err
}

func runCarsClaim(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, runstate.KindCarsClaim)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := vehicle.NewClaimPlanner(s.gateway, s.sink, s.logger, s.pacing).Run(cmd.Context())
	recordVehicles(s.state, res)
	s.finish(err)
	return err
}

func recordVehicles(state *runstate.RunState, res vehicle.Result) {
	state.Set(runstate.CountFound, res.Found)
	state.Set(runstate.CountSent, res.Sent)
	state.Set(runstate.CountRefreshed, res.Refreshed)
	state.Set(runstate.CountClaimed, res.Claimed)
	state.Set(runstate.CountFailed, res.Failed)
}
