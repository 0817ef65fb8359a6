package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/iambrandonn/dailyorch/internal/logsink"
	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// ErrTimeout marks a call whose response did not arrive in time
var ErrTimeout = errors.New("command timed out")

// Caller delivers one command over a session and waits for its response.
// bridge.Bridge is the production implementation.
type Caller interface {
	Request(ctx context.Context, sessionID, cmd string, params protocol.Body) (protocol.Body, error)
}

// CommandError wraps a failed invoke
type CommandError struct {
	Cmd         string
	Description string
	Err         error
}

func (e *CommandError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %v", e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// SleepFunc pauses for d or until ctx ends
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Gateway issues game commands for one session with a timeout, a settle
// delay and sink logging. It never retries.
type Gateway struct {
	caller    Caller
	sessionID string
	sink      logsink.Sink
	logger    *slog.Logger

	SettleDelay    time.Duration
	DefaultTimeout time.Duration
	Sleep          SleepFunc
}

// New creates a gateway bound to sessionID
func New(caller Caller, sessionID string, sink logsink.Sink, logger *slog.Logger, pacing config.Pacing) *Gateway {
	if sink == nil {
		sink = logsink.Discard
	}
	return &Gateway{
		caller:         caller,
		sessionID:      sessionID,
		sink:           sink,
		logger:         logger,
		SettleDelay:    pacing.SettleDelay,
		DefaultTimeout: pacing.DefaultTimeout,
		Sleep:          Sleep,
	}
}

// SessionID returns the session this gateway talks to
func (g *Gateway) SessionID() string {
	return g.sessionID
}

// Sink returns the log sink calls report to
func (g *Gateway) Sink() logsink.Sink {
	return g.sink
}

// Invoke sends cmd and waits up to timeout for the response, then waits the
// settle delay. A zero timeout uses DefaultTimeout. Sink lines are emitted
// only when description is set; slog sees every call.
func (g *Gateway) Invoke(ctx context.Context, cmd string, params protocol.Body, description string, timeout time.Duration) (protocol.Body, error) {
	if timeout <= 0 {
		timeout = g.DefaultTimeout
	}
	if params == nil {
		params = protocol.Body{}
	}

	if description != "" {
		logsink.Info(g.sink, "running: %s", description)
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	body, err := g.caller.Request(callCtx, g.sessionID, cmd, params)
	cancel()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		g.logger.Warn("command failed", "session_id", g.sessionID, "cmd", cmd, "error", err, "elapsed", time.Since(start))
		if description != "" {
			logsink.Error(g.sink, "%s - failed: %v", description, err)
		}
		return nil, &CommandError{Cmd: cmd, Description: description, Err: err}
	}

	g.logger.Debug("command ok", "session_id", g.sessionID, "cmd", cmd, "elapsed", time.Since(start))

	if err := g.Sleep(ctx, g.SettleDelay); err != nil {
		return nil, &CommandError{Cmd: cmd, Description: description, Err: err}
	}

	if description != "" {
		logsink.Success(g.sink, "%s - done", description)
	}
	return body, nil
}

// Call is Invoke with the default timeout
func (g *Gateway) Call(ctx context.Context, cmd string, params protocol.Body, description string) (protocol.Body, error) {
	return g.Invoke(ctx, cmd, params, description, 0)
}
