package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/iambrandonn/dailyorch/internal/account"
	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/iambrandonn/dailyorch/internal/gateway"
	"github.com/iambrandonn/dailyorch/internal/logsink"
	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/pkg/testharness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-10-21 is a Wednesday
var wednesday10 = time.Date(2026, 10, 21, 10, 0, 0, 0, time.Local)

type switchCall struct {
	target int
	label  string
}

type fakeSwitcher struct {
	calls []switchCall
	err   error
}

func (f *fakeSwitcher) SwitchTo(ctx context.Context, target int, label string) (bool, error) {
	f.calls = append(f.calls, switchCall{target, label})
	return f.err == nil, f.err
}

type fixture struct {
	game     *testharness.FakeGame
	switcher *fakeSwitcher
	sink     *logsink.Recorder
	sleeps   []time.Duration
	deps     Deps
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		game:     testharness.NewFakeGame(),
		switcher: &fakeSwitcher{},
		sink:     &logsink.Recorder{},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.New(f.game, "acct", f.sink, logger, config.DefaultPacing())
	gw.Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	f.deps = Deps{
		Gateway:   gw,
		Formation: f.switcher,
		Sink:      f.sink,
		Now:       func() time.Time { return now },
		Sleep: func(ctx context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			return nil
		},
		ArenaRoundDelay: time.Second,
	}
	return f
}

func snapshot(complete map[int]int, stats map[string]any) *account.Snapshot {
	if stats == nil {
		stats = map[string]any{}
	}
	return &account.Snapshot{Complete: complete, StatisticsTime: stats}
}

func runAll(t *testing.T, tasks []Task) {
	t.Helper()
	for _, task := range tasks {
		require.NoError(t, task.Run(context.Background()), task.Name)
	}
}

func TestBuildDailyScenario(t *testing.T) {
	f := newFixture(wednesday10)
	snap := snapshot(map[int]int{2: -1, 3: 0, 4: -1, 5: 0, 6: 0, 7: -1, 13: -1, 14: -1}, nil)
	settings := config.Settings{BossTimes: config.Int(0)}.ApplyDefaults()

	tasks, err := Build(snap, settings, f.deps)
	require.NoError(t, err)

	want := []string{
		"gift friends gold",
		"free gold buy 1/3", "free gold buy 2/3", "free gold buy 3/3",
		"claim hang-up reward",
		"extend hang-up 1/4", "extend hang-up 2/4", "extend hang-up 3/4", "extend hang-up 4/4",
		"daily boss formation check",
		"daily boss 1/3", "daily boss 2/3", "daily boss 3/3",
		"sign-in reward", "club sign-in", "daily discount pack", "daily free collection",
		"free card pack", "permanent card pack", "claim mail attachments",
		"free lottery 1/3", "free lottery 2/3", "free lottery 3/3",
		"Wei genie free sweep", "Shu genie free sweep", "Wu genie free sweep", "Qun genie free sweep",
		"claim free sweep voucher 1/3", "claim free sweep voucher 2/3", "claim free sweep voucher 3/3",
		"buy bronze chest", "black market purchase",
		"claim task reward 1", "claim task reward 2", "claim task reward 3", "claim task reward 4",
		"claim task reward 5", "claim task reward 6", "claim task reward 7", "claim task reward 8",
		"claim task reward 9", "claim task reward 10",
		"claim daily task reward", "claim weekly task reward",
	}
	assert.Equal(t, want, Names(tasks))
	assert.Empty(t, f.game.Calls(), "building issues no commands")

	runAll(t, tasks)

	bosses := f.game.CallsTo(protocol.CmdDailyBoss)
	require.Len(t, bosses, 3)
	for _, c := range bosses {
		assert.Equal(t, 9902, c.Params["bossId"])
	}
	assert.Equal(t, []switchCall{{1, "boss formation"}}, f.switcher.calls)
	assert.Zero(t, f.game.Count(protocol.CmdLegionBoss))
	assert.Zero(t, f.game.Count(protocol.CmdHeroRecruit))
	assert.Zero(t, f.game.Count(protocol.CmdOpenBox))
	assert.Zero(t, f.game.Count(protocol.CmdBottleClaim))
	assert.Zero(t, f.game.Count(protocol.CmdArenaStart))
	assert.Equal(t, 4, f.game.Count(protocol.CmdShareCallback), "share is done, only the four extends use it")
}

func TestBuildToggles(t *testing.T) {
	f := newFixture(wednesday10)
	snap := snapshot(map[int]int{}, nil)
	settings := config.Settings{
		PayRecruit:          config.Bool(false),
		ClaimHangUp:         config.Bool(false),
		OpenBox:             config.Bool(false),
		ClaimBottle:         config.Bool(false),
		ArenaEnable:         config.Bool(false),
		ClaimEmail:          config.Bool(false),
		BlackMarketPurchase: config.Bool(false),
	}.ApplyDefaults()

	tasks, err := Build(snap, settings, f.deps)
	require.NoError(t, err)

	names := Names(tasks)
	assert.Contains(t, names, "share game")
	assert.Contains(t, names, "free recruit")
	for _, excluded := range []string{
		"paid recruit", "claim hang-up reward", "open wooden box x10", "claim bottle reward",
		"arena battle", "claim mail attachments", "buy bronze chest",
	} {
		assert.NotContains(t, names, excluded)
	}
}

func TestBuildOncePerDayGates(t *testing.T) {
	f := newFixture(wednesday10)
	today := wednesday10.Add(-time.Hour).UnixMilli()
	yesterday := wednesday10.Add(-24 * time.Hour).UnixMilli()

	snap := snapshot(map[int]int{}, map[string]any{
		"buy:gold":                     float64(today),
		"legion:boss":                  float64(yesterday),
		"artifact:normal:lottery:time": float64(today),
		"genie:daily:free:2":           float64(today),
		"genie:daily:free:3":           float64(yesterday),
	})

	tasks, err := Build(snap, config.Settings{}.ApplyDefaults(), f.deps)
	require.NoError(t, err)

	names := Names(tasks)
	assert.NotContains(t, names, "free gold buy 1/3")
	assert.NotContains(t, names, "free lottery 1/3")
	assert.NotContains(t, names, "Shu genie free sweep")
	assert.Contains(t, names, "Wei genie free sweep")
	assert.Contains(t, names, "Wu genie free sweep")

	assert.Contains(t, names, "legion boss formation check")
	assert.Contains(t, names, "legion boss 1/2")
	assert.Contains(t, names, "legion boss 2/2")
	assert.NotContains(t, names, "daily boss formation check", "legion check covers the formation")
	assert.Contains(t, names, "daily boss 3/3")
}

func TestBuildLegionAlreadyFoughtToday(t *testing.T) {
	f := newFixture(wednesday10)
	snap := snapshot(map[int]int{}, map[string]any{
		"legion:boss": float64(wednesday10.Add(-time.Hour).Unix()),
	})

	tasks, err := Build(snap, config.Settings{BossTimes: config.Int(3)}.ApplyDefaults(), f.deps)
	require.NoError(t, err)

	names := Names(tasks)
	assert.NotContains(t, names, "legion boss formation check")
	assert.NotContains(t, names, "legion boss 1/3")
	assert.Contains(t, names, "daily boss 1/3")
}

func TestBuildRequiresDeps(t *testing.T) {
	_, err := Build(snapshot(nil, nil), config.Settings{}.ApplyDefaults(), Deps{})
	assert.Error(t, err)

	_, err = Build(nil, config.Settings{}.ApplyDefaults(), newFixture(wednesday10).deps)
	assert.Error(t, err)
}

func arenaTask(t *testing.T, f *fixture) Task {
	t.Helper()
	tasks, err := Build(snapshot(map[int]int{}, nil), config.Settings{ArenaFormation: config.Int(3)}.ApplyDefaults(), f.deps)
	require.NoError(t, err)
	for _, task := range tasks {
		if task.Name == "arena battle" {
			return task
		}
	}
	t.Fatal("arena entry missing")
	return Task{}
}

func TestArenaOutsideHoursIsSoftSkip(t *testing.T) {
	for _, hour := range []int{0, 7, 23} {
		f := newFixture(time.Date(2026, 10, 21, hour, 30, 0, 0, time.Local))
		task := arenaTask(t, f)

		require.NoError(t, task.Run(context.Background()), "hour %d", hour)
		assert.Empty(t, f.game.Calls(), "hour %d", hour)
		assert.Empty(t, f.switcher.calls)
		assert.Equal(t, 1, f.sink.Count(logsink.LevelWarning))
	}
}

func TestArenaFightsThreeRounds(t *testing.T) {
	f := newFixture(time.Date(2026, 10, 21, 22, 15, 0, 0, time.Local))
	f.game.Sequence(protocol.CmdArenaTarget,
		protocol.Body{"rankList": []any{map[string]any{"roleId": float64(71)}}},
		protocol.Body{},
		protocol.Body{"targets": []any{map[string]any{"id": float64(73)}}},
	)

	require.NoError(t, arenaTask(t, f).Run(context.Background()))

	assert.Equal(t, []switchCall{{3, "arena formation"}}, f.switcher.calls)
	assert.Equal(t, 1, f.game.Count(protocol.CmdArenaStart))
	assert.Equal(t, 3, f.game.Count(protocol.CmdArenaTarget))

	fights := f.game.CallsTo(protocol.CmdArenaFight)
	require.Len(t, fights, 2)
	assert.Equal(t, int64(71), fights[0].Params["targetId"])
	assert.Equal(t, int64(73), fights[1].Params["targetId"])

	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, f.sleeps)
	assert.Equal(t, 1, f.sink.Count(logsink.LevelWarning), "round 2 had no target")
}

func TestArenaTargetFailureEndsRounds(t *testing.T) {
	f := newFixture(wednesday10)
	calls := 0
	f.game.Handle(protocol.CmdArenaTarget, func(protocol.Body) (protocol.Body, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("arena closed")
		}
		return protocol.Body{"list": []any{map[string]any{"roleId": float64(5)}}}, nil
	})

	require.NoError(t, arenaTask(t, f).Run(context.Background()), "a failed fetch does not fail the entry")
	assert.Equal(t, 2, f.game.Count(protocol.CmdArenaTarget))
	assert.Equal(t, 1, f.game.Count(protocol.CmdArenaFight))
}

func TestArenaFightFailureFailsEntry(t *testing.T) {
	f := newFixture(wednesday10)
	f.game.Respond(protocol.CmdArenaTarget, protocol.Body{"roleId": float64(5)})
	f.game.Fail(protocol.CmdArenaFight, errors.New("busy"))

	err := arenaTask(t, f).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, f.game.Count(protocol.CmdArenaFight))
}

func TestArenaFormationFailureFailsEntry(t *testing.T) {
	f := newFixture(wednesday10)
	f.switcher.err = errors.New("forced switch failed")

	err := arenaTask(t, f).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, f.game.Count(protocol.CmdArenaStart))
}

func TestCompileGate(t *testing.T) {
	_, err := CompileGate(`!Complete(6) && TodayAvailable("buy:gold") && Settings.OpenBox`)
	assert.NoError(t, err)

	_, err = CompileGate(`Settings.Unknown`)
	assert.Error(t, err)

	_, err = CompileGate(`Settings.BossTimes`)
	assert.Error(t, err, "gates must be boolean")
}
