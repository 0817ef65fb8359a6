package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/iambrandonn/dailyorch/internal/bridge"
	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/iambrandonn/dailyorch/internal/eventlog"
	"github.com/iambrandonn/dailyorch/internal/gateway"
	"github.com/iambrandonn/dailyorch/internal/logsink"
	"github.com/iambrandonn/dailyorch/internal/runstate"
	"github.com/spf13/cobra"
)

// configNames are searched, in order, in each directory up the tree
var configNames = []string{"dailyorch.json", "dailyorch.yaml", "dailyorch.yml"}

// connect starts the session bridge. Tests swap it for an in-process fake.
var connect = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*bridge.Bridge, error) {
	b := bridge.New(cfg.Bridge.Cmd, cfg.Bridge.Env, logger)
	if err := b.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session bridge: %w", err)
	}
	return b, nil
}

// session is everything one command needs to talk to the game: the bridge,
// the gateway over it, the console sink and the run's records on disk.
type session struct {
	cfg      *config.Config
	root     string
	settings config.Resolved
	pacing   config.Pacing
	logger   *slog.Logger

	bridge  *bridge.Bridge
	events  *eventlog.EventLog
	sink    *logsink.Console
	gateway *gateway.Gateway

	state     *runstate.RunState
	statePath string
}

// openSession loads config, starts the bridge and opens the event log for a
// run of the given kind. The caller must close the session.
func openSession(cmd *cobra.Command, kind runstate.Kind) (*session, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, cfgPath, err := loadOrCreateConfig(configPath, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded configuration", "path", cfgPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pacing, err := config.LoadPacing()
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:      cfg,
		root:     filepath.Dir(cfgPath),
		settings: cfg.Settings.ApplyDefaults(),
		pacing:   pacing,
		logger:   logger,
	}

	runID := fmt.Sprintf("%s-%s-%s", kind, time.Now().UTC().Format("20060102-150405"), uuid.New().String()[:8])

	s.state = runstate.NewRunState(runID, kind, cfg.SessionID)
	s.statePath = runstate.GetRunStatePath(s.resolve(cfg.StateDir), kind)

	eventLogPath := filepath.Join(s.resolve(cfg.LogDir), runID+".ndjson")
	s.events, err = eventlog.NewEventLog(eventLogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}
	s.state.EventLog = eventLogPath

	s.sink = logsink.NewConsole(cmd.OutOrStdout(), logger)
	s.sink.SetEventWriter(s.events)

	s.bridge, err = connect(cmd.Context(), cfg, logger)
	if err != nil {
		s.events.Close()
		return nil, err
	}
	s.bridge.SetEventLogger(s.events)

	s.gateway = gateway.New(s.bridge, cfg.SessionID, s.sink, logger, pacing)

	if err := runstate.SaveRunState(s.state, s.statePath); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to save run state: %w", err)
	}

	logger.Info("run initialized", "run_id", runID, "session_id", cfg.SessionID)
	return s, nil
}

// finish records the outcome of the run
func (s *session) finish(err error) {
	s.state.Finish(err)
	s.save()
}

func (s *session) save() {
	if err := runstate.SaveRunState(s.state, s.statePath); err != nil {
		s.logger.Warn("failed to save final run state", "error", err)
	}
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.bridge.Stop(ctx); err != nil {
		s.logger.Warn("session bridge stop failed", "error", err)
	}
	s.events.Close()
}

// resolve makes dir relative to the config file's directory
func (s *session) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.root, dir)
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: use debug, info, warn or error", levelName)
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

// loadOrCreateConfig finds an existing config or creates a default one in
// the current directory
func loadOrCreateConfig(configPath string, logger *slog.Logger) (*config.Config, string, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, configPath, nil
	}

	foundPath, err := findConfigInTree()
	if err != nil {
		return nil, "", err
	}

	if foundPath != "" {
		logger.Info("found existing config", "path", foundPath)
		cfg, err := config.LoadFromFile(foundPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, foundPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	defaultPath := filepath.Join(cwd, configNames[0])
	logger.Info("no config found, creating default", "path", defaultPath)

	cfg := config.GenerateDefault()
	if err := cfg.SaveToFile(defaultPath); err != nil {
		return nil, "", fmt.Errorf("failed to save default config: %w", err)
	}

	return cfg, defaultPath, nil
}

// findConfigInTree searches up the directory tree for a config file
func findConfigInTree() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}
