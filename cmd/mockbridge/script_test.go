package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/pkg/testharness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlScript = `
responses:
  role_getroleinfo:
    body:
      role:
        dailyTask:
          dailyPoint: 30
  car_refresh:
    sequence:
      - car: {color: 2}
      - car: {color: 5}
  car_send:
    error: helper busy
pushes:
  - session_id: acct-1
    key: presetTeam
    body:
      presetTeamInfo: {useTeamId: 2}
`

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadScriptYAML(t *testing.T) {
	script, err := loadScript(writeScript(t, "script.yaml", yamlScript))
	require.NoError(t, err)

	game := testharness.NewFakeGame()
	script.install(game)
	ctx := context.Background()

	role, err := game.Request(ctx, "acct-1", protocol.CmdRoleInfo, nil)
	require.NoError(t, err)
	assert.Contains(t, role, "role")

	first, _ := game.Request(ctx, "acct-1", protocol.CmdCarRefresh, nil)
	second, _ := game.Request(ctx, "acct-1", protocol.CmdCarRefresh, nil)
	third, _ := game.Request(ctx, "acct-1", protocol.CmdCarRefresh, nil)
	assert.Equal(t, map[string]any{"color": 2}, first["car"])
	assert.Equal(t, map[string]any{"color": 5}, second["car"])
	assert.Equal(t, second, third, "last sequence entry repeats")

	_, err = game.Request(ctx, "acct-1", protocol.CmdCarSend, nil)
	assert.EqualError(t, err, "helper busy")

	unscripted, err := game.Request(ctx, "acct-1", protocol.CmdBottleStart, nil)
	require.NoError(t, err)
	assert.Empty(t, unscripted)

	require.Len(t, script.Pushes, 1)
	assert.Equal(t, protocol.PushPresetTeam, script.Pushes[0].Key)
}

func TestLoadScriptJSON(t *testing.T) {
	script, err := loadScript(writeScript(t, "script.json",
		`{"responses": {"car_claim": {"error": "already claimed"}, "arena_getareatarget": {"hang": true}}}`))
	require.NoError(t, err)

	assert.Equal(t, "already claimed", script.Responses[protocol.CmdCarClaim].Error)
	assert.True(t, script.Responses[protocol.CmdArenaTarget].Hang)
	assert.Nil(t, script.Responses[protocol.CmdArenaTarget].handler())
}

func TestLoadScriptErrors(t *testing.T) {
	_, err := loadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadScript(writeScript(t, "bad.yaml", "responses: [unclosed"))
	assert.Error(t, err)
}
