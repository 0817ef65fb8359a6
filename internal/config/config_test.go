package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDefault(t *testing.T) {
	cfg := GenerateDefault()

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "default", cfg.SessionID)
	assert.Equal(t, []string{"dailyorch-bridge"}, cfg.Bridge.Cmd)
	assert.Equal(t, "events", cfg.LogDir)
	assert.Equal(t, "state", cfg.StateDir)
	assert.Equal(t, Settings{}, cfg.Settings)
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GenerateDefault()
	assert.NoError(t, cfg.Validate(), "Default config should be valid")
}

func TestValidate_MissingVersion(t *testing.T) {
	cfg := GenerateDefault()
	cfg.Version = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestValidate_MissingSession(t *testing.T) {
	cfg := GenerateDefault()
	cfg.SessionID = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "session_id")
}

func TestValidate_EmptyBridgeCmd(t *testing.T) {
	cfg := GenerateDefault()
	cfg.Bridge.Cmd = []string{}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cmd")
}

func TestValidate_NegativeBossTimes(t *testing.T) {
	cfg := GenerateDefault()
	cfg.Settings.BossTimes = Int(-1)
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bossTimes")
}

func TestValidate_FormationZero(t *testing.T) {
	cfg := GenerateDefault()
	cfg.Settings.ArenaFormation = Int(0)
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "arenaFormation")
}

func TestApplyDefaults(t *testing.T) {
	resolved := Settings{}.ApplyDefaults()

	assert.Equal(t, Resolved{
		ArenaFormation:      1,
		BossFormation:       1,
		BossTimes:           2,
		ClaimBottle:         true,
		PayRecruit:          true,
		OpenBox:             true,
		ArenaEnable:         true,
		ClaimHangUp:         true,
		ClaimEmail:          true,
		BlackMarketPurchase: true,
	}, resolved)
}

func TestApplyDefaultsKeepsOverrides(t *testing.T) {
	resolved := Settings{
		ArenaFormation: Int(3),
		BossTimes:      Int(0),
		PayRecruit:     Bool(false),
		ClaimEmail:     Bool(false),
	}.ApplyDefaults()

	assert.Equal(t, 3, resolved.ArenaFormation)
	assert.Equal(t, 1, resolved.BossFormation)
	assert.Equal(t, 0, resolved.BossTimes)
	assert.False(t, resolved.PayRecruit)
	assert.False(t, resolved.ClaimEmail)
	assert.True(t, resolved.OpenBox)
}

func TestLoadFromFile_JSONIgnoresUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dailyorch.json")
	content := `{
  "version": "1.0",
  "session_id": "acct-1",
  "bridge": {"cmd": ["node", "bridge.js"]},
  "settings": {"bossTimes": 0, "openBox": false, "fishing": true}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "acct-1", cfg.SessionID)
	assert.Equal(t, []string{"node", "bridge.js"}, cfg.Bridge.Cmd)
	require.NotNil(t, cfg.Settings.BossTimes)
	assert.Equal(t, 0, *cfg.Settings.BossTimes)
	require.NotNil(t, cfg.Settings.OpenBox)
	assert.False(t, *cfg.Settings.OpenBox)
	assert.Nil(t, cfg.Settings.ClaimBottle)
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dailyorch.yaml")
	content := `version: "1.0"
session_id: acct-2
bridge:
  cmd: [dailyorch-bridge, --token-file, token.txt]
settings:
  arenaFormation: 2
  claimHangUp: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "acct-2", cfg.SessionID)
	assert.Len(t, cfg.Bridge.Cmd, 3)

	resolved := cfg.Settings.ApplyDefaults()
	assert.Equal(t, 2, resolved.ArenaFormation)
	assert.False(t, resolved.ClaimHangUp)
	assert.True(t, resolved.ClaimEmail)
}

func TestLoadFromFile_NonExistent(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadFromFile_InvalidJSON(t *testing.T) {
	invalidFile := filepath.Join(t.TempDir(), "invalid.json")
	require.NoError(t, os.WriteFile(invalidFile, []byte("{invalid json"), 0600))

	cfg, err := LoadFromFile(invalidFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestSaveToFile(t *testing.T) {
	for _, name := range []string{"dailyorch.json", "dailyorch.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := GenerateDefault()
			cfg.Settings.BossTimes = Int(1)
			configPath := filepath.Join(t.TempDir(), name)

			require.NoError(t, cfg.SaveToFile(configPath))

			loaded, err := LoadFromFile(configPath)
			require.NoError(t, err)
			assert.Equal(t, cfg.Version, loaded.Version)
			assert.Equal(t, cfg.Bridge.Cmd, loaded.Bridge.Cmd)
			require.NotNil(t, loaded.Settings.BossTimes)
			assert.Equal(t, 1, *loaded.Settings.BossTimes)

			info, err := os.Stat(configPath)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
		})
	}
}

func TestLoadPacingDefaults(t *testing.T) {
	pacing, err := LoadPacing()
	require.NoError(t, err)
	assert.Equal(t, DefaultPacing(), pacing)
}

func TestLoadPacingEnvOverride(t *testing.T) {
	t.Setenv("DAILYORCH_INTER_TASK_DELAY", "1s")
	t.Setenv("DAILYORCH_SETTLE_DELAY", "0s")

	pacing, err := LoadPacing()
	require.NoError(t, err)
	assert.Equal(t, time.Second, pacing.InterTaskDelay)
	assert.Equal(t, time.Duration(0), pacing.SettleDelay)
	assert.Equal(t, 8*time.Second, pacing.DefaultTimeout)
}

func TestLoadPacingInvalid(t *testing.T) {
	t.Setenv("DAILYORCH_CLAIM_DELAY", "soon")

	_, err := LoadPacing()
	assert.Error(t, err)
}
