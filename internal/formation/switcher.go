package formation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iambrandonn/dailyorch/internal/logsink"
	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/internal/rules"
)

// Invoker is the gateway surface the switcher needs
type Invoker interface {
	Invoke(ctx context.Context, cmd string, params protocol.Body, description string, timeout time.Duration) (protocol.Body, error)
	SessionID() string
}

// StateStore holds session state pushed by the game (bridge.Cache). The
// switcher writes the active formation back after every save.
type StateStore interface {
	Get(sessionID, key string) (protocol.Body, bool)
	Set(sessionID, key string, body protocol.Body)
}

// Switcher makes sure a formation is active before a combat action
type Switcher struct {
	gw     Invoker
	state  StateStore
	sink   logsink.Sink
	logger *slog.Logger
}

// NewSwitcher creates a switcher. state may be nil, in which case the
// current formation is always read from the server.
func NewSwitcher(gw Invoker, state StateStore, sink logsink.Sink, logger *slog.Logger) *Switcher {
	if sink == nil {
		sink = logsink.Discard
	}
	return &Switcher{gw: gw, state: state, sink: sink, logger: logger}
}

// SwitchTo activates target, labelled for log lines. It reports whether a
// switch command was sent. When the current formation cannot be determined
// the switch is sent unconditionally; only a failure of that forced switch
// is returned.
func (s *Switcher) SwitchTo(ctx context.Context, target int, label string) (bool, error) {
	current, err := s.current(ctx)
	if err != nil {
		logsink.Warn(s.sink, "formation check failed, switching directly: %v", err)
		if _, err := s.save(ctx, target, fmt.Sprintf("force switch to %s %d", label, target)); err != nil {
			logsink.Error(s.sink, "forced switch failed: %v", err)
			return false, err
		}
		return true, nil
	}

	if current == target {
		logsink.Success(s.sink, "already on %s %d, no switch needed", label, target)
		return false, nil
	}

	logsink.Info(s.sink, "current formation %d, target %d, switching", current, target)
	if _, err := s.save(ctx, target, fmt.Sprintf("switch to %s %d", label, target)); err != nil {
		return false, err
	}
	logsink.Success(s.sink, "switched to %s %d", label, target)
	return true, nil
}

// current resolves the active formation id, 0 when the server does not say
func (s *Switcher) current(ctx context.Context) (int, error) {
	if s.state != nil {
		if cached, ok := s.state.Get(s.gw.SessionID(), protocol.PushPresetTeam); ok {
			if id := teamID(cached); id != 0 {
				logsink.Info(s.sink, "current formation from cache: %d", id)
				return id, nil
			}
		}
	}

	logsink.Info(s.sink, "no cached formation, fetching from server")
	body, err := s.gw.Invoke(ctx, protocol.CmdTeamInfo, nil, "get formation info", 0)
	if err != nil {
		return 0, err
	}

	id := teamID(body)
	if s.logger != nil {
		s.logger.Debug("formation resolved from server", "formation", id)
	}
	logsink.Info(s.sink, "current formation from server: %d", id)
	return id, nil
}

func (s *Switcher) save(ctx context.Context, target int, description string) (protocol.Body, error) {
	body, err := s.gw.Invoke(ctx, protocol.CmdTeamSave, protocol.Body{"teamId": target}, description, 0)
	if err != nil {
		return nil, err
	}
	if s.state != nil {
		s.state.Set(s.gw.SessionID(), protocol.PushPresetTeam, protocol.Body{
			"presetTeamInfo": map[string]any{"useTeamId": target},
		})
	}
	return body, nil
}

func teamID(body protocol.Body) int {
	v, ok := rules.Path(body, "presetTeamInfo", "useTeamId")
	if !ok {
		return 0
	}
	return rules.Int(v, 0)
}
