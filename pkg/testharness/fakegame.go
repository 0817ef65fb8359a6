package testharness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/iambrandonn/dailyorch/internal/ndjson"
	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// Handler produces the response for one command
type Handler func(params protocol.Body) (protocol.Body, error)

// Call records one command the fake game received
type Call struct {
	SessionID string
	Cmd       string
	Params    protocol.Body
}

// FakeGame is an in-process game session for tests. It satisfies
// gateway.Caller directly and can also serve the NDJSON bridge protocol.
// Commands without a handler succeed with an empty body.
type FakeGame struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	pushes   []protocol.Push
}

// NewFakeGame creates an empty fake game
func NewFakeGame() *FakeGame {
	return &FakeGame{handlers: make(map[string]Handler)}
}

// Handle installs a handler for cmd
func (g *FakeGame) Handle(cmd string, h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[cmd] = h
}

// Respond makes cmd always return body
func (g *FakeGame) Respond(cmd string, body protocol.Body) {
	g.Handle(cmd, func(protocol.Body) (protocol.Body, error) { return body, nil })
}

// Fail makes cmd always return err
func (g *FakeGame) Fail(cmd string, err error) {
	g.Handle(cmd, func(protocol.Body) (protocol.Body, error) { return nil, err })
}

// Block makes cmd wait until the caller gives up, simulating a lost response
func (g *FakeGame) Block(cmd string) {
	g.Handle(cmd, nil)
}

// Sequence returns bodies in order, repeating the last one
func (g *FakeGame) Sequence(cmd string, bodies ...protocol.Body) {
	var mu sync.Mutex
	i := 0
	g.Handle(cmd, func(protocol.Body) (protocol.Body, error) {
		mu.Lock()
		defer mu.Unlock()
		body := bodies[min(i, len(bodies)-1)]
		i++
		return body, nil
	})
}

// QueuePush schedules a push frame to be sent when Serve starts
func (g *FakeGame) QueuePush(sessionID, key string, body protocol.Body) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushes = append(g.pushes, protocol.Push{
		Kind:      protocol.MessageKindPush,
		SessionID: sessionID,
		Key:       key,
		Body:      body,
	})
}

// Request implements gateway.Caller
func (g *FakeGame) Request(ctx context.Context, sessionID, cmd string, params protocol.Body) (protocol.Body, error) {
	g.mu.Lock()
	g.calls = append(g.calls, Call{SessionID: sessionID, Cmd: cmd, Params: params})
	h, ok := g.handlers[cmd]
	g.mu.Unlock()

	if !ok {
		return protocol.Body{}, nil
	}
	if h == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return h(params)
}

// Calls returns every recorded call in order
func (g *FakeGame) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// CallsTo returns the recorded calls for cmd
func (g *FakeGame) CallsTo(cmd string) []Call {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []Call
	for _, c := range g.calls {
		if c.Cmd == cmd {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times cmd was called
func (g *FakeGame) Count(cmd string) int {
	return len(g.CallsTo(cmd))
}

// Commands returns the command names in call order
func (g *FakeGame) Commands() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, len(g.calls))
	for i, c := range g.calls {
		out[i] = c.Cmd
	}
	return out
}

// Serve answers bridge protocol requests read from r until EOF or ctx ends.
// Requests are handled one at a time in arrival order.
func (g *FakeGame) Serve(ctx context.Context, r io.Reader, w io.Writer, logger *slog.Logger) error {
	encoder := ndjson.NewEncoder(w, logger)
	decoder := ndjson.NewDecoder(r, logger)

	g.mu.Lock()
	pushes := append([]protocol.Push(nil), g.pushes...)
	g.mu.Unlock()

	for i := range pushes {
		if err := encoder.Encode(&pushes[i]); err != nil {
			return fmt.Errorf("failed to send push: %w", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var req protocol.Request
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		resp, ok := g.answer(ctx, &req)
		if !ok {
			logger.Debug("request expired, not answering", "cmd", req.Cmd)
			continue
		}

		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to send response: %w", err)
		}
	}
}

func (g *FakeGame) answer(ctx context.Context, req *protocol.Request) (*protocol.Response, bool) {
	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	resp := &protocol.Response{
		Kind:    protocol.MessageKindResponse,
		ReplyTo: req.MessageID,
		Cmd:     req.Cmd,
	}

	body, err := g.Request(ctx, req.SessionID, req.Cmd, req.Params)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nil, false
	case err != nil:
		resp.Error = err.Error()
	default:
		resp.Body = body
	}
	return resp, true
}
