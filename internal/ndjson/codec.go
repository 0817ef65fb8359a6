package ndjson

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// MaxMessageSize is the maximum NDJSON message size (256 KiB)
const MaxMessageSize = 256 * 1024

// ErrStream marks a failure of the underlying stream. Unlike a malformed
// line, the decoder cannot make progress after it.
var ErrStream = errors.New("ndjson: stream failed")

// Encoder writes NDJSON messages to an output stream
type Encoder struct {
	writer *bufio.Writer
	logger *slog.Logger
}

// NewEncoder creates a new NDJSON encoder
func NewEncoder(w io.Writer, logger *slog.Logger) *Encoder {
	return &Encoder{
		writer: bufio.NewWriter(w),
		logger: logger,
	}
}

// Encode writes a message as a single JSON line
func (e *Encoder) Encode(v any) error {
	// Marshal to JSON
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// Check size limit
	if len(data) > MaxMessageSize {
		e.logger.Error("message exceeds size limit",
			"size", len(data),
			"limit", MaxMessageSize,
			"overflow", len(data)-MaxMessageSize)
		return fmt.Errorf("message size %d exceeds limit %d", len(data), MaxMessageSize)
	}

	// Write JSON + newline
	if _, err := e.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := e.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	// Flush immediately for real-time communication
	if err := e.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	return nil
}

// Decoder reads NDJSON messages from an input stream
type Decoder struct {
	scanner *bufio.Scanner
	logger  *slog.Logger
	lineNum int
}

// NewDecoder creates a new NDJSON decoder
func NewDecoder(r io.Reader, logger *slog.Logger) *Decoder {
	scanner := bufio.NewScanner(r)

	// Set custom buffer with max size enforcement
	buf := make([]byte, MaxMessageSize)
	scanner.Buffer(buf, MaxMessageSize)

	return &Decoder{
		scanner: scanner,
		logger:  logger,
		lineNum: 0,
	}
}

// Decode reads the next NDJSON message
func (d *Decoder) Decode(v any) error {
	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return fmt.Errorf("scanner error at line %d: %w: %w", d.lineNum, ErrStream, err)
		}
		return io.EOF
	}

	d.lineNum++
	data := d.scanner.Bytes()

	// Check size (should be caught by scanner buffer, but double-check)
	if len(data) > MaxMessageSize {
		d.logger.Error("line exceeds size limit",
			"line", d.lineNum,
			"size", len(data),
			"limit", MaxMessageSize)
		return fmt.Errorf("line %d size %d exceeds limit %d", d.lineNum, len(data), MaxMessageSize)
	}

	// Skip empty lines
	if len(data) == 0 {
		return d.Decode(v)
	}

	// Unmarshal JSON
	if err := json.Unmarshal(data, v); err != nil {
		d.logger.Error("failed to unmarshal JSON",
			"line", d.lineNum,
			"error", err,
			"data", string(data[:min(100, len(data))]))
		return fmt.Errorf("failed to unmarshal line %d: %w", d.lineNum, err)
	}

	return nil
}

// DecodeEnvelope reads the next line and returns the typed frame for its kind
func (d *Decoder) DecodeEnvelope() (any, error) {
	var raw json.RawMessage
	if err := d.Decode(&raw); err != nil {
		return nil, err
	}

	var envelope struct {
		Kind protocol.MessageKind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("line %d: failed to read envelope: %w", d.lineNum, err)
	}
	if envelope.Kind == "" {
		return nil, fmt.Errorf("line %d: missing or invalid 'kind' field", d.lineNum)
	}

	var msg any
	switch envelope.Kind {
	case protocol.MessageKindRequest:
		msg = &protocol.Request{}
	case protocol.MessageKindResponse:
		msg = &protocol.Response{}
	case protocol.MessageKindPush:
		msg = &protocol.Push{}
	case protocol.MessageKindLog:
		msg = &protocol.Log{}
	default:
		d.logger.Warn("unknown message kind",
			"line", d.lineNum,
			"kind", envelope.Kind)
		return nil, fmt.Errorf("line %d: unknown message kind: %s", d.lineNum, envelope.Kind)
	}

	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("line %d: failed to decode %s: %w", d.lineNum, envelope.Kind, err)
	}
	return msg, nil
}
