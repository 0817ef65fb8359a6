package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/iambrandonn/dailyorch/internal/ledger"
	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/internal/runstate"
	"github.com/iambrandonn/dailyorch/internal/transcript"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <event-log>",
	Short: "Summarize a run's event log",
	Long: `Read an NDJSON event log written by a previous run and print the calls
per command, the failures, the calls that never got an answer and the
transcript line counts per level.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest run of every kind",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	reportCmd.Flags().Bool("details", false, "Also list failed responses and requests that got no response")
}

func runReport(cmd *cobra.Command, args []string) error {
	details, err := cmd.Flags().GetBool("details")
	if err != nil {
		return err
	}

	l, err := ledger.ReadLedger(args[0])
	if err != nil {
		return err
	}

	sum := l.Summarize()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%d requests, %d failed, %d unanswered\n\n", sum.Requests, sum.Errors, sum.Unanswered)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tCALLS\tERRORS\tUNANSWERED")
	for _, c := range sum.Commands {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", c.Cmd, c.Calls, c.Errors, c.Unanswered)
	}
	tw.Flush()

	fmt.Fprintln(out)
	for _, level := range []protocol.LogLevel{protocol.LogLevelInfo, protocol.LogLevelSuccess, protocol.LogLevelWarn, protocol.LogLevelError} {
		fmt.Fprintf(out, "%-8s %d\n", level, sum.Levels[level])
	}

	if details {
		formatter := transcript.NewFormatter()
		fmt.Fprintln(out)
		for _, resp := range l.Responses {
			if resp.Error != "" {
				fmt.Fprintln(out, formatter.FormatResponse(resp))
			}
		}
		for _, req := range l.Unanswered() {
			fmt.Fprintln(out, "no response: "+formatter.FormatRequest(req))
		}
	}

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if configPath == "" {
		if configPath, err = findConfigInTree(); err != nil {
			return err
		}
	}
	if configPath == "" {
		return fmt.Errorf("no dailyorch config found; run 'dailyorch init' first")
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}
	logger.Debug("loaded configuration", "path", configPath)

	stateDir := cfg.StateDir
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(filepath.Dir(configPath), stateDir)
	}

	states, err := runstate.LoadLatest(stateDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(states) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSTATUS\tSTARTED\tRUN\tERROR")
	for _, st := range states {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", st.Kind, st.Status, st.StartedAt.Local().Format("2006-01-02 15:04"), st.RunID, st.Error)
	}
	return tw.Flush()
}
