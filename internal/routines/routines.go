// Package routines holds the one-shot account actions that run outside the
// daily catalog: restarting the helper bottle, extending the hang-up timer
// and the weekly study quiz.
package routines

import (
	"context"
	"log/slog"
	"time"

	"github.com/iambrandonn/dailyorch/internal/bridge"
	"github.com/iambrandonn/dailyorch/internal/gateway"
	"github.com/iambrandonn/dailyorch/internal/logsink"
	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/internal/rules"
)

// Pauses between routine steps
const (
	BottleRestartPause = 500 * time.Millisecond
	HangUpClaimPause   = 200 * time.Millisecond
	HangUpExtendStep   = 300 * time.Millisecond
	HangUpSettle       = 1500 * time.Millisecond
	HangUpExtends      = 4

	StudyPollInterval = time.Second
	StudyMaxPolls     = 45
)

// Study states reported by the game. "idel" is the game's own spelling.
const (
	StudyIdle      = "idel"
	StudyStarting  = "starting"
	StudyCompleted = "completed"
)

// Invoker is the gateway surface routines call through
type Invoker interface {
	Invoke(ctx context.Context, cmd string, params protocol.Body, description string, timeout time.Duration) (protocol.Body, error)
	SessionID() string
}

// StateStore is the per-session pushed state (bridge.Cache)
type StateStore interface {
	Get(sessionID, key string) (protocol.Body, bool)
	Set(sessionID, key string, body protocol.Body)
}

// Routines runs one-shot actions for one session
type Routines struct {
	gw     Invoker
	state  StateStore
	sink   logsink.Sink
	logger *slog.Logger

	Sleep gateway.SleepFunc
}

// New creates the routines for the gateway's session. A nil state uses a
// private cache that only this process writes.
func New(gw Invoker, state StateStore, sink logsink.Sink, logger *slog.Logger) *Routines {
	if sink == nil {
		sink = logsink.Discard
	}
	if state == nil {
		state = bridge.NewCache()
	}
	return &Routines{gw: gw, state: state, sink: sink, logger: logger, Sleep: gateway.Sleep}
}

// RestartBottle stops and restarts the helper bottle, then refreshes the role
func (r *Routines) RestartBottle(ctx context.Context) error {
	logsink.Info(r.sink, "restarting bottle")

	err := r.steps(ctx,
		r.callStep(protocol.CmdBottleStop, nil),
		r.pauseStep(BottleRestartPause),
		r.callStep(protocol.CmdBottleStart, nil),
		r.callStep(protocol.CmdRoleInfo, nil),
	)
	if err != nil {
		logsink.Error(r.sink, "bottle restart failed: %v", err)
		return err
	}

	logsink.Success(r.sink, "bottle restarted")
	return nil
}

// ExtendHangUp claims the hang-up reward and then extends the timer
func (r *Routines) ExtendHangUp(ctx context.Context) error {
	logsink.Info(r.sink, "claiming hang-up reward")

	steps := []step{
		r.callStep(protocol.CmdClaimHangUp, nil),
		r.pauseStep(HangUpClaimPause),
		func(context.Context) error {
			logsink.Info(r.sink, "extending hang-up")
			return nil
		},
	}
	for i := range HangUpExtends {
		steps = append(steps,
			r.callStep(protocol.CmdShareCallback, protocol.Body{"isSkipShareCard": true, "type": 2}),
			r.pauseStep(time.Duration(i)*HangUpExtendStep),
		)
	}
	steps = append(steps,
		r.pauseStep(HangUpSettle),
		r.callStep(protocol.CmdRoleInfo, nil),
	)

	if err := r.steps(ctx, steps...); err != nil {
		logsink.Error(r.sink, "hang-up extend failed: %v", err)
		return err
	}

	logsink.Success(r.sink, "hang-up extended")
	return nil
}

// StudyAnswer starts the weekly quiz and waits for the game to report it
// finished. A quiz already done or in progress is skipped with a warning,
// and running out of time is a warning too.
func (r *Routines) StudyAnswer(ctx context.Context) error {
	session := r.gw.SessionID()
	status, _ := r.state.Get(session, protocol.PushStudyStatus)

	if _, done := rules.FirstValue(status, "thisWeek"); done {
		logsink.Warn(r.sink, "study already done this week, skipping")
		return nil
	}
	if s, _ := status["status"].(string); s != "" && s != StudyIdle {
		logsink.Warn(r.sink, "study in progress, skipping")
		return nil
	}

	logsink.Info(r.sink, "starting study game")
	started := protocol.Body{}
	for k, v := range status {
		started[k] = v
	}
	started["isAnswering"] = true
	started["questionCount"] = 0
	started["answeredCount"] = 0
	started["status"] = StudyStarting
	started["timestamp"] = time.Now().UnixMilli()
	r.state.Set(session, protocol.PushStudyStatus, started)

	if _, err := r.gw.Invoke(ctx, protocol.CmdStudyStart, nil, "", 0); err != nil {
		logsink.Error(r.sink, "study failed: %v", err)
		return err
	}

	for range StudyMaxPolls {
		current, _ := r.state.Get(session, protocol.PushStudyStatus)
		if studyFinished(current) {
			logsink.Success(r.sink, "study complete")
			return nil
		}
		if err := r.Sleep(ctx, StudyPollInterval); err != nil {
			return err
		}
	}

	logsink.Warn(r.sink, "study timed out")
	r.logger.Warn("study did not finish", "session_id", session, "waited", StudyMaxPolls*StudyPollInterval)
	return nil
}

func studyFinished(status protocol.Body) bool {
	if s, _ := status["status"].(string); s == StudyCompleted {
		return true
	}
	answering, ok := status["isAnswering"].(bool)
	return ok && !answering
}

type step func(ctx context.Context) error

func (r *Routines) steps(ctx context.Context, steps ...step) error {
	for _, s := range steps {
		if err := s(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Routines) callStep(cmd string, params protocol.Body) step {
	return func(ctx context.Context) error {
		_, err := r.gw.Invoke(ctx, cmd, params, "", 0)
		return err
	}
}

func (r *Routines) pauseStep(d time.Duration) step {
	return func(ctx context.Context) error {
		return r.Sleep(ctx, d)
	}
}
