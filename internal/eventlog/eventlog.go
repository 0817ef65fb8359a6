package eventlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/iambrandonn/dailyorch/internal/ndjson"
	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// EventLog writes bridge traffic and sink lines to an NDJSON file
type EventLog struct {
	file    *os.File
	encoder *ndjson.Encoder
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewEventLog creates a new event log
func NewEventLog(logPath string, logger *slog.Logger) (*EventLog, error) {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &EventLog{
		file:    file,
		encoder: ndjson.NewEncoder(file, logger),
		logger:  logger,
	}, nil
}

// WriteRequest writes an outgoing request to the log
func (l *EventLog) WriteRequest(req *protocol.Request) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.encoder.Encode(req)
}

// WriteResponse writes a received response to the log
func (l *EventLog) WriteResponse(resp *protocol.Response) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.encoder.Encode(resp)
}

// WriteLog writes a sink line to the log
func (l *EventLog) WriteLog(log *protocol.Log) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.encoder.Encode(log)
}

// Close closes the event log file
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
