package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iambrandonn/dailyorch/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Config represents the dailyorch.json (or .yaml) configuration file
type Config struct {
	Version   string   `json:"version" yaml:"version"`
	SessionID string   `json:"session_id" yaml:"session_id"`
	Bridge    Bridge   `json:"bridge" yaml:"bridge"`
	LogDir    string   `json:"log_dir" yaml:"log_dir"`
	StateDir  string   `json:"state_dir" yaml:"state_dir"`
	Settings  Settings `json:"settings" yaml:"settings"`
}

// Bridge describes how to launch the session bridge process
type Bridge struct {
	Cmd []string          `json:"cmd" yaml:"cmd"`
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// GenerateDefault creates a new Config with default values
func GenerateDefault() *Config {
	return &Config{
		Version:   "1.0",
		SessionID: "default",
		Bridge: Bridge{
			Cmd: []string{"dailyorch-bridge"},
			Env: map[string]string{
				"LOG_LEVEL": "info",
			},
		},
		LogDir:   "events",
		StateDir: "state",
		Settings: Settings{},
	}
}

// Validate checks the configuration for errors and returns user-friendly error messages
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("configuration error: missing required field 'version'\n\nHint: Add a version field like:\n  \"version\": \"1.0\"")
	}

	if c.SessionID == "" {
		return fmt.Errorf("configuration error: missing required field 'session_id'\n\nHint: Name the game session the bridge should use:\n  \"session_id\": \"main-account\"")
	}

	if len(c.Bridge.Cmd) == 0 {
		return fmt.Errorf("configuration error: 'bridge' has empty 'cmd' field\n\nHint: Specify the command that starts the session bridge:\n  \"bridge\": {\n    \"cmd\": [\"dailyorch-bridge\"]\n  }")
	}

	return c.Settings.Validate()
}

// LoadFromFile loads a configuration from a JSON or YAML file, chosen by extension
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	return &cfg, nil
}

// SaveToFile writes the configuration with 0600 permissions, as YAML when
// the path says so and JSON otherwise
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fsutil.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}
