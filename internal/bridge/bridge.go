package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iambrandonn/dailyorch/internal/ndjson"
	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// ErrClosed is returned for requests that cannot complete because the
// bridge connection is gone.
var ErrClosed = errors.New("bridge: connection closed")

// RemoteError carries an error string the game server returned for a command.
type RemoteError struct {
	Cmd     string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Cmd, e.Message)
}

// EventLogger writes bridge traffic to persistent storage
type EventLogger interface {
	WriteRequest(*protocol.Request) error
	WriteResponse(*protocol.Response) error
}

// Bridge talks to a session bridge process over NDJSON. Requests are
// correlated to responses by message id; push frames land in the cache.
type Bridge struct {
	cmd    []string
	env    map[string]string
	logger *slog.Logger
	cache  *Cache

	eventLog EventLogger

	mu       sync.Mutex
	process  *exec.Cmd
	encoder  *ndjson.Encoder
	stdin    io.WriteCloser
	running  bool
	pending  map[string]chan *protocol.Response
	done     chan struct{}
	exitChan chan error
}

// New creates a bridge that will launch cmd on Start
func New(cmd []string, env map[string]string, logger *slog.Logger) *Bridge {
	return &Bridge{
		cmd:     cmd,
		env:     env,
		logger:  logger,
		cache:   NewCache(),
		pending: make(map[string]chan *protocol.Response),
	}
}

// SetEventLogger sets the event logger for persistence
func (b *Bridge) SetEventLogger(logger EventLogger) {
	b.eventLog = logger
}

// Start launches the bridge subprocess
func (b *Bridge) Start(ctx context.Context) error {
	if len(b.cmd) == 0 {
		return fmt.Errorf("bridge command is empty")
	}

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bridge already running")
	}
	b.mu.Unlock()

	b.logger.Info("starting session bridge", "cmd", b.cmd)

	proc := exec.CommandContext(ctx, b.cmd[0], b.cmd[1:]...)

	proc.Env = os.Environ()
	for k, v := range b.env {
		proc.Env = append(proc.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := proc.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := proc.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := proc.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := proc.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("failed to start process: %w", err)
	}

	b.mu.Lock()
	b.process = proc
	b.exitChan = make(chan error, 1)
	b.mu.Unlock()

	b.logger.Info("session bridge started", "pid", proc.Process.Pid)

	b.Attach(ctx, stdout, stdin)
	go b.readStderr(stderr)
	go b.waitForExit()

	return nil
}

// Attach wires the bridge to an already-open stream pair. Start uses it for
// the subprocess pipes; tests use it with io.Pipe.
func (b *Bridge) Attach(ctx context.Context, r io.Reader, w io.WriteCloser) {
	b.mu.Lock()
	b.stdin = w
	b.encoder = ndjson.NewEncoder(w, b.logger)
	b.running = true
	b.done = make(chan struct{})
	done := b.done
	b.mu.Unlock()

	go b.readLoop(ctx, ndjson.NewDecoder(r, b.logger), done)
}

// Stop closes the request stream and waits for the subprocess, if any
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	proc := b.process
	stdin := b.stdin
	exitChan := b.exitChan
	b.mu.Unlock()

	b.logger.Info("stopping session bridge")

	if stdin != nil {
		stdin.Close()
	}

	if proc == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		if proc.Process != nil {
			proc.Process.Kill()
		}
		return ctx.Err()
	case err := <-exitChan:
		if err != nil {
			b.logger.Warn("session bridge exited with error", "error", err)
		} else {
			b.logger.Info("session bridge stopped")
		}
		return err
	case <-time.After(5 * time.Second):
		b.logger.Warn("session bridge did not stop gracefully, killing")
		if proc.Process != nil {
			proc.Process.Kill()
		}
		return fmt.Errorf("bridge stop timeout")
	}
}

// Request sends cmd for sessionID and blocks until the correlated response
// arrives, ctx ends, or the connection closes. The ctx deadline, when set,
// travels with the request so the bridge can drop stale work.
func (b *Bridge) Request(ctx context.Context, sessionID, cmd string, params protocol.Body) (protocol.Body, error) {
	if params == nil {
		params = protocol.Body{}
	}

	req := &protocol.Request{
		Kind:      protocol.MessageKindRequest,
		MessageID: uuid.New().String(),
		SessionID: sessionID,
		Cmd:       cmd,
		Params:    params,
	}
	if deadline, ok := ctx.Deadline(); ok {
		req.Deadline = deadline.UTC()
	}

	if b.eventLog != nil {
		if err := b.eventLog.WriteRequest(req); err != nil {
			b.logger.Warn("failed to log request", "error", err)
		}
	}

	replies := make(chan *protocol.Response, 1)

	b.mu.Lock()
	if !b.running || b.encoder == nil {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	done := b.done
	b.pending[req.MessageID] = replies
	err := b.encoder.Encode(req)
	b.mu.Unlock()

	defer b.release(req.MessageID)

	if err != nil {
		return nil, fmt.Errorf("send %s: %w", cmd, err)
	}

	b.logger.Debug("request sent", "cmd", cmd, "message_id", req.MessageID)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
		return nil, ErrClosed
	case resp := <-replies:
		if resp.Error != "" {
			return nil, &RemoteError{Cmd: cmd, Message: resp.Error}
		}
		if resp.Body == nil {
			return protocol.Body{}, nil
		}
		return resp.Body, nil
	}
}

// Cache returns the push-state cache filled from the bridge stream
func (b *Bridge) Cache() *Cache {
	return b.cache
}

// IsRunning returns true while the bridge stream is open
func (b *Bridge) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *Bridge) release(messageID string) {
	b.mu.Lock()
	delete(b.pending, messageID)
	b.mu.Unlock()
}

func (b *Bridge) deliver(resp *protocol.Response) {
	if b.eventLog != nil {
		if err := b.eventLog.WriteResponse(resp); err != nil {
			b.logger.Warn("failed to log response", "error", err)
		}
	}

	b.mu.Lock()
	replies, ok := b.pending[resp.ReplyTo]
	b.mu.Unlock()

	if !ok {
		b.logger.Debug("dropping uncorrelated response", "reply_to", resp.ReplyTo, "cmd", resp.Cmd)
		return
	}

	select {
	case replies <- resp:
	default:
		b.logger.Warn("duplicate response for request", "reply_to", resp.ReplyTo)
	}
}

func (b *Bridge) readLoop(ctx context.Context, decoder *ndjson.Decoder, done chan struct{}) {
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := decoder.DecodeEnvelope()
		if err == io.EOF {
			b.logger.Info("session bridge stream closed")
			return
		}
		if err != nil {
			if errors.Is(err, ndjson.ErrStream) {
				b.logger.Error("session bridge stream failed", "error", err)
				return
			}
			b.logger.Error("failed to decode message from bridge", "error", err)
			continue
		}

		switch v := msg.(type) {
		case *protocol.Response:
			b.deliver(v)

		case *protocol.Push:
			b.cache.Set(v.SessionID, v.Key, v.Body)
			b.logger.Debug("session state pushed", "session_id", v.SessionID, "key", v.Key)

		case *protocol.Log:
			b.logger.Log(ctx, bridgeLevel(v.Level), v.Message, "source", "bridge")

		default:
			b.logger.Warn("unexpected message type from bridge",
				"msg_type", fmt.Sprintf("%T", msg))
		}
	}
}

func bridgeLevel(level protocol.LogLevel) slog.Level {
	switch level {
	case protocol.LogLevelError:
		return slog.LevelError
	case protocol.LogLevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func (b *Bridge) readStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 4096), 1024*1024)

	for scanner.Scan() {
		b.logger.Debug("bridge stderr", "line", scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		b.logger.Error("error reading bridge stderr", "error", err)
	}
}

func (b *Bridge) waitForExit() {
	b.mu.Lock()
	proc := b.process
	exitChan := b.exitChan
	b.mu.Unlock()

	if proc == nil {
		return
	}

	err := proc.Wait()

	b.mu.Lock()
	b.running = false
	b.mu.Unlock()

	if exitChan != nil {
		exitChan <- err
	}

	if err != nil {
		b.logger.Warn("session bridge process exited", "error", err)
	} else {
		b.logger.Info("session bridge process exited cleanly")
	}
}
