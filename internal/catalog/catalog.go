package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iambrandonn/dailyorch/internal/account"
	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/iambrandonn/dailyorch/internal/gateway"
	"github.com/iambrandonn/dailyorch/internal/logsink"
	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/internal/rules"
)

// Arena opening hours, local time. Hours outside [open, close] are skipped.
const (
	ArenaOpenHour  = 8
	ArenaCloseHour = 22
	ArenaRounds    = 3
)

// Task is one named, deferred catalog entry
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Invoker is the gateway surface catalog entries call through
type Invoker interface {
	Invoke(ctx context.Context, cmd string, params protocol.Body, description string, timeout time.Duration) (protocol.Body, error)
}

// FormationSwitcher activates a formation before combat
type FormationSwitcher interface {
	SwitchTo(ctx context.Context, target int, label string) (bool, error)
}

// Deps are the collaborators entries use when they run
type Deps struct {
	Gateway   Invoker
	Formation FormationSwitcher
	Sink      logsink.Sink

	// Now is read once at build time for date gates and again when the
	// arena entry runs. Defaults to time.Now.
	Now   func() time.Time
	Sleep gateway.SleepFunc

	ArenaRoundDelay time.Duration
}

type builder struct {
	settings config.Resolved
	deps     Deps
	bossID   int
}

// Build returns the ordered daily catalog for snap under settings. It does
// not issue any command; entries run only when their Run is called.
func Build(snap *account.Snapshot, settings config.Resolved, deps Deps) ([]Task, error) {
	if snap == nil {
		return nil, errors.New("catalog: snapshot is required")
	}
	if deps.Gateway == nil || deps.Formation == nil {
		return nil, errors.New("catalog: gateway and formation switcher are required")
	}
	if deps.Sink == nil {
		deps.Sink = logsink.Discard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sleep == nil {
		deps.Sleep = gateway.Sleep
	}

	compiled, err := compileFeatures()
	if err != nil {
		return nil, err
	}

	now := deps.Now()
	env := GateEnv{Settings: settings, snap: snap, now: now}
	b := &builder{settings: settings, deps: deps, bossID: rules.TodayBossID(now)}

	var tasks []Task
	for _, f := range compiled {
		ok, err := f.included(env)
		if err != nil {
			return nil, err
		}
		if ok {
			tasks = append(tasks, f.emit(b)...)
		}
	}
	return tasks, nil
}

// Names lists task names in order
func Names(tasks []Task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return names
}

func (b *builder) call(name, cmd string, params protocol.Body, timeout time.Duration) Task {
	return Task{
		Name: name,
		Run: func(ctx context.Context) error {
			_, err := b.deps.Gateway.Invoke(ctx, cmd, params, name, timeout)
			return err
		},
	}
}

// repeat emits n identical calls named "label i/n" and described "label i"
func (b *builder) repeat(n int, label, cmd string, params protocol.Body, timeout time.Duration) []Task {
	tasks := make([]Task, 0, n)
	for i := 1; i <= n; i++ {
		description := fmt.Sprintf("%s %d", label, i)
		tasks = append(tasks, Task{
			Name: fmt.Sprintf("%s %d/%d", label, i, n),
			Run: func(ctx context.Context) error {
				_, err := b.deps.Gateway.Invoke(ctx, cmd, params, description, timeout)
				return err
			},
		})
	}
	return tasks
}

func (b *builder) formationCheck(name string, target int, label string) Task {
	return Task{
		Name: name,
		Run: func(ctx context.Context) error {
			_, err := b.deps.Formation.SwitchTo(ctx, target, label)
			return err
		},
	}
}

// arena is a composite entry: hour window, formation, then up to three
// target-and-fight rounds. A failed target fetch ends the rounds without
// failing the entry.
func (b *builder) arena() Task {
	return Task{
		Name: "arena battle",
		Run: func(ctx context.Context) error {
			gw, sink := b.deps.Gateway, b.deps.Sink
			logsink.Info(sink, "starting arena")

			hour := b.deps.Now().Hour()
			if hour < ArenaOpenHour {
				logsink.Warn(sink, "before %02d:00, skipping arena", ArenaOpenHour)
				return nil
			}
			if hour > ArenaCloseHour {
				logsink.Warn(sink, "past %02d:00, skipping arena", ArenaCloseHour)
				return nil
			}

			if _, err := b.deps.Formation.SwitchTo(ctx, b.settings.ArenaFormation, "arena formation"); err != nil {
				return err
			}
			if _, err := gw.Invoke(ctx, protocol.CmdArenaStart, nil, "start arena", 0); err != nil {
				return err
			}

			for i := 1; i <= ArenaRounds; i++ {
				logsink.Info(sink, "arena battle %d/%d", i, ArenaRounds)

				targets, err := gw.Invoke(ctx, protocol.CmdArenaTarget, nil, fmt.Sprintf("get arena target %d", i), 0)
				if err != nil {
					logsink.Error(sink, "arena battle %d - fetching opponent failed: %v", i, err)
					break
				}

				if targetID, ok := rules.PickTargetID(targets); ok {
					params := protocol.Body{"targetId": targetID}
					if _, err := gw.Invoke(ctx, protocol.CmdArenaFight, params, fmt.Sprintf("arena battle %d", i), ArenaFightTimeout); err != nil {
						return err
					}
				} else {
					logsink.Warn(sink, "arena battle %d - no target found", i)
				}

				if err := b.deps.Sleep(ctx, b.deps.ArenaRoundDelay); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
