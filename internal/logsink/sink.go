package logsink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/internal/transcript"
)

// Level is the severity of a sink line
type Level = protocol.LogLevel

const (
	LevelInfo    = protocol.LogLevelInfo
	LevelSuccess = protocol.LogLevelSuccess
	LevelWarning = protocol.LogLevelWarn
	LevelError   = protocol.LogLevelError
)

// Sink receives user-facing progress lines. Implementations must not block
// on slow consumers; callers never inspect a result.
type Sink interface {
	Log(level Level, msg string)
}

// Func adapts a plain function to Sink
type Func func(level Level, msg string)

func (f Func) Log(level Level, msg string) { f(level, msg) }

// Discard drops every line
var Discard Sink = Func(func(Level, string) {})

func Info(s Sink, format string, args ...any)    { s.Log(LevelInfo, fmt.Sprintf(format, args...)) }
func Success(s Sink, format string, args ...any) { s.Log(LevelSuccess, fmt.Sprintf(format, args...)) }
func Warn(s Sink, format string, args ...any)    { s.Log(LevelWarning, fmt.Sprintf(format, args...)) }
func Error(s Sink, format string, args ...any)   { s.Log(LevelError, fmt.Sprintf(format, args...)) }

// EventWriter persists sink lines (implemented by eventlog.EventLog)
type EventWriter interface {
	WriteLog(*protocol.Log) error
}

// Console writes transcript lines to w, mirrors them to slog, and optionally
// appends them to an event log.
type Console struct {
	mu        sync.Mutex
	w         io.Writer
	logger    *slog.Logger
	formatter *transcript.Formatter
	events    EventWriter
	now       func() time.Time
}

// NewConsole creates a console sink
func NewConsole(w io.Writer, logger *slog.Logger) *Console {
	return &Console{
		w:         w,
		logger:    logger,
		formatter: &transcript.Formatter{Timestamps: true},
		now:       time.Now,
	}
}

// SetEventWriter sets where lines are persisted
func (c *Console) SetEventWriter(events EventWriter) {
	c.mu.Lock()
	c.events = events
	c.mu.Unlock()
}

// Log implements Sink
func (c *Console) Log(level Level, msg string) {
	line := &protocol.Log{
		Kind:      protocol.MessageKindLog,
		Level:     level,
		Message:   msg,
		Timestamp: c.now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w != nil {
		fmt.Fprintln(c.w, c.formatter.FormatLog(line))
	}

	if c.logger != nil {
		c.logger.Log(context.Background(), slogLevel(level), msg, "severity", string(level))
	}

	if c.events != nil {
		if err := c.events.WriteLog(line); err != nil && c.logger != nil {
			c.logger.Warn("failed to persist log line", "error", err)
		}
	}
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelError:
		return slog.LevelError
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Line is one captured sink call
type Line struct {
	Level   Level
	Message string
}

// Recorder keeps every line in memory
type Recorder struct {
	mu    sync.Mutex
	lines []Line
}

// Log implements Sink
func (r *Recorder) Log(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, Line{Level: level, Message: msg})
}

// Lines returns a copy of the captured lines
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...)
}

// Count returns how many lines were logged at level
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, l := range r.lines {
		if l.Level == level {
			n++
		}
	}
	return n
}
