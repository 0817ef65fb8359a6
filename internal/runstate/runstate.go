package runstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iambrandonn/dailyorch/internal/fsutil"
)

// Status represents the overall state of a run
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
)

// Kind names the command that produced a run
type Kind string

const (
	KindDaily     Kind = "daily"
	KindCarsSend  Kind = "cars-send"
	KindCarsClaim Kind = "cars-claim"
	KindBottle    Kind = "bottle"
	KindHangUp    Kind = "hangup"
	KindStudy     Kind = "study"
)

// Count keys used by the commands
const (
	CountAttempted = "attempted"
	CountFailed    = "failed"
	CountFound     = "found"
	CountSent      = "sent"
	CountRefreshed = "refreshed"
	CountClaimed   = "claimed"
)

// RunState is the persisted record of one run
type RunState struct {
	RunID       string         `json:"run_id"`
	Kind        Kind           `json:"kind"`
	SessionID   string         `json:"session_id"`
	Status      Status         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	EventLog    string         `json:"event_log,omitempty"`
	Counts      map[string]int `json:"counts,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewRunState creates a new run state
func NewRunState(runID string, kind Kind, sessionID string) *RunState {
	return &RunState{
		RunID:     runID,
		Kind:      kind,
		SessionID: sessionID,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		Counts:    make(map[string]int),
	}
}

// SaveRunState writes run state to disk atomically
func SaveRunState(state *RunState, path string) error {
	return fsutil.AtomicWriteJSON(path, state)
}

// LoadRunState reads run state from disk
func LoadRunState(path string) (*RunState, error) {
	var state RunState
	if err := fsutil.ReadJSON(path, &state); err != nil {
		return nil, fmt.Errorf("failed to load run state: %w", err)
	}

	if state.Counts == nil {
		state.Counts = make(map[string]int)
	}

	return &state, nil
}

// GetRunStatePath returns the path of the latest record for a kind
func GetRunStatePath(stateDir string, kind Kind) string {
	return filepath.Join(stateDir, "last-"+string(kind)+".json")
}

// LoadLatest returns the latest record of every kind that has one, in
// declaration order of the kinds
func LoadLatest(stateDir string) ([]*RunState, error) {
	var states []*RunState
	for _, kind := range []Kind{KindDaily, KindCarsSend, KindCarsClaim, KindBottle, KindHangUp, KindStudy} {
		state, err := LoadRunState(GetRunStatePath(stateDir, kind))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

// Set records a counter
func (s *RunState) Set(key string, n int) {
	if s.Counts == nil {
		s.Counts = make(map[string]int)
	}
	s.Counts[key] = n
}

// Finish marks the run completed, or failed when err is non-nil
func (s *RunState) Finish(err error) {
	if err != nil {
		s.MarkFailed(err)
		return
	}
	s.MarkCompleted()
}

// MarkCompleted marks the run as completed
func (s *RunState) MarkCompleted() {
	s.Status = StatusCompleted
	s.stamp()
}

// MarkFailed marks the run as failed
func (s *RunState) MarkFailed(err error) {
	s.Status = StatusFailed
	if err != nil {
		s.Error = err.Error()
	}
	s.stamp()
}

// MarkAborted marks the run as aborted
func (s *RunState) MarkAborted() {
	s.Status = StatusAborted
	s.stamp()
}

func (s *RunState) stamp() {
	now := time.Now().UTC()
	s.CompletedAt = &now
}
