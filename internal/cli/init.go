package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Long: `Write a default dailyorch config to path (default: dailyorch.json in the
current directory). A .yaml or .yml path writes YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	initCmd.Flags().String("session", "", "Session id to put in the config")
	initCmd.Flags().StringSlice("bridge", nil, "Session bridge command and arguments")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configNames[0]
	if len(args) == 1 {
		path = args[0]
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}

	cfg := config.GenerateDefault()
	if session, _ := cmd.Flags().GetString("session"); session != "" {
		cfg.SessionID = session
	}
	if bridgeCmd, _ := cmd.Flags().GetStringSlice("bridge"); len(bridgeCmd) > 0 {
		cfg.Bridge.Cmd = bridgeCmd
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	abs, _ := filepath.Abs(path)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", abs)
	return nil
}
