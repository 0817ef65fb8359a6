package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/pkg/testharness"
	"gopkg.in/yaml.v3"
)

// Script contains pre-programmed game responses. YAML is read with the
// YAML decoder, which also accepts JSON.
type Script struct {
	// Maps game command to response template
	Responses map[string]ResponseTemplate `yaml:"responses"`
	// Pushes are sent once, before the first request is read
	Pushes []PushTemplate `yaml:"pushes"`
}

// ResponseTemplate defines how to answer one command
type ResponseTemplate struct {
	Body map[string]any `yaml:"body,omitempty"`
	// Sequence answers successive calls in order, repeating the last entry
	Sequence []map[string]any `yaml:"sequence,omitempty"`
	// Error fails the command with this message
	Error string `yaml:"error,omitempty"`
	// Hang never answers, so the caller times out
	Hang    bool `yaml:"hang,omitempty"`
	DelayMs int  `yaml:"delay_ms,omitempty"`
}

// PushTemplate defines a session state push
type PushTemplate struct {
	SessionID string         `yaml:"session_id"`
	Key       string         `yaml:"key"`
	Body      map[string]any `yaml:"body"`
}

func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return &script, nil
}

// install programs game with the script
func (s *Script) install(game *testharness.FakeGame) {
	for cmd, tmpl := range s.Responses {
		game.Handle(cmd, tmpl.handler())
	}
	for _, p := range s.Pushes {
		game.QueuePush(p.SessionID, p.Key, p.Body)
	}
}

func (t ResponseTemplate) handler() testharness.Handler {
	if t.Hang {
		return nil
	}

	delay := time.Duration(t.DelayMs) * time.Millisecond
	calls := 0
	return func(protocol.Body) (protocol.Body, error) {
		if delay > 0 {
			time.Sleep(delay)
		}
		if t.Error != "" {
			return nil, errors.New(t.Error)
		}
		if len(t.Sequence) > 0 {
			body := t.Sequence[min(calls, len(t.Sequence)-1)]
			calls++
			return body, nil
		}
		if t.Body == nil {
			return protocol.Body{}, nil
		}
		return t.Body, nil
	}
}
