package cli

import (
	"context"

	"github.com/iambrandonn/dailyorch/internal/routines"
	"github.com/iambrandonn/dailyorch/internal/runstate"
	"github.com/spf13/cobra"
)

var bottleCmd = &cobra.Command{
	Use:   "bottle",
	Short: "Helper bottle actions",
}

var bottleRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop and restart the helper bottle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoutine(cmd, runstate.KindBottle, (*routines.Routines).RestartBottle)
	},
}

var hangUpCmd = &cobra.Command{
	Use:   "hangup",
	Short: "Hang-up reward actions",
}

var hangUpExtendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Claim the hang-up reward and extend the hang-up timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoutine(cmd, runstate.KindHangUp, (*routines.Routines).ExtendHangUp)
	},
}

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Start the weekly study quiz and wait for it to finish",
	Long: `Start the weekly study quiz unless it is already done this week or in
progress, then wait up to 45 seconds for the session to report it finished.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoutine(cmd, runstate.KindStudy, (*routines.Routines).StudyAnswer)
	},
}

func init() {
	bottleCmd.AddCommand(bottleRestartCmd)
	hangUpCmd.AddCommand(hangUpExtendCmd)
}

func runRoutine(cmd *cobra.Command, kind runstate.Kind, fn func(*routines.Routines, context.Context) error) error {
	s, err := openSession(cmd, kind)
	if err != nil {
		return err
	}
	defer s.close()

	r := routines.New(s.gateway, s.bridge.Cache(), s.sink, s.logger)
	err = fn(r, cmd.Context())
	s.finish(err)
	return err
}
