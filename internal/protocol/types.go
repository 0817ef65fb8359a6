package protocol

import (
	"time"
)

// MessageKind represents the envelope type
type MessageKind string

const (
	MessageKindRequest  MessageKind = "request"
	MessageKindResponse MessageKind = "response"
	MessageKindPush     MessageKind = "push"
	MessageKindLog      MessageKind = "log"
)

// Body is a decoded game payload. Shapes vary per command and per server
// version, so callers read it through the rules resolver helpers.
type Body = map[string]any

// Request is sent from dailyorch to the session bridge
type Request struct {
	Kind      MessageKind `json:"kind"`
	MessageID string      `json:"message_id"`
	SessionID string      `json:"session_id"`
	Cmd       string      `json:"cmd"`
	Params    Body        `json:"params"`
	Deadline  time.Time   `json:"deadline"`
}

// Response answers exactly one Request, matched by ReplyTo
type Response struct {
	Kind    MessageKind `json:"kind"`
	ReplyTo string      `json:"reply_to"`
	Cmd     string      `json:"cmd,omitempty"`
	Body    Body        `json:"body,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Push carries unsolicited session state (team presets, study progress)
// that the bridge observed on the game connection.
type Push struct {
	Kind      MessageKind `json:"kind"`
	SessionID string      `json:"session_id"`
	Key       string      `json:"key"`
	Body      Body        `json:"body"`
}

// LogLevel represents log severity
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelSuccess LogLevel = "success"
	LogLevelWarn    LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// Log is a diagnostic message. The bridge emits these for its own
// diagnostics; dailyorch writes them to the event log for every sink line.
type Log struct {
	Kind      MessageKind    `json:"kind"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Push keys the bridge is expected to publish.
const (
	PushPresetTeam  = "presetTeam"
	PushStudyStatus = "studyStatus"
)
