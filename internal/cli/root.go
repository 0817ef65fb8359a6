package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dailyorch",
	Short: "Daily task catch-up for a game account",
	Long: `dailyorch talks to a game session through a session bridge process and
runs the account's daily routine: rewards, purchases, arena and boss fights,
task-point claims, vehicle dispatch and the weekly study quiz.

Running 'dailyorch' without a subcommand is equivalent to 'dailyorch daily'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dailyCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(carsCmd)
	rootCmd.AddCommand(bottleCmd)
	rootCmd.AddCommand(hangUpCmd)
	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to dailyorch.json or .yaml (default: search up directory tree)")
	rootCmd.PersistentFlags().String("log-level", "info", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("dry-run", false, "Print the catalog without running it")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the run; a daily
// run stops before its next entry.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
