package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/iambrandonn/dailyorch/internal/ndjson"
	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// Ledger represents a parsed event log with all frames categorized
type Ledger struct {
	Requests  []*protocol.Request
	Responses []*protocol.Response
	Pushes    []*protocol.Push
	Logs      []*protocol.Log
}

// ReadLedger reads and parses an NDJSON event log
func ReadLedger(path string) (*Ledger, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer file.Close()

	ledger := &Ledger{}

	scanner := bufio.NewScanner(file)
	// Default scanner buffer is 64 KiB, game payloads can be larger
	buf := make([]byte, ndjson.MaxMessageSize)
	scanner.Buffer(buf, ndjson.MaxMessageSize)

	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var envelope struct {
			Kind protocol.MessageKind `json:"kind"`
		}
		if err := json.Unmarshal(line, &envelope); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse envelope: %w", lineNum, err)
		}

		switch envelope.Kind {
		case protocol.MessageKindRequest:
			var req protocol.Request
			if err := json.Unmarshal(line, &req); err != nil {
				return nil, fmt.Errorf("line %d: failed to parse request: %w", lineNum, err)
			}
			ledger.Requests = append(ledger.Requests, &req)

		case protocol.MessageKindResponse:
			var resp protocol.Response
			if err := json.Unmarshal(line, &resp); err != nil {
				return nil, fmt.Errorf("line %d: failed to parse response: %w", lineNum, err)
			}
			ledger.Responses = append(ledger.Responses, &resp)

		case protocol.MessageKindPush:
			var push protocol.Push
			if err := json.Unmarshal(line, &push); err != nil {
				return nil, fmt.Errorf("line %d: failed to parse push: %w", lineNum, err)
			}
			ledger.Pushes = append(ledger.Pushes, &push)

		case protocol.MessageKindLog:
			var log protocol.Log
			if err := json.Unmarshal(line, &log); err != nil {
				return nil, fmt.Errorf("line %d: failed to parse log: %w", lineNum, err)
			}
			ledger.Logs = append(ledger.Logs, &log)

		default:
			return nil, fmt.Errorf("line %d: unknown message kind: %s", lineNum, envelope.Kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ledger: %w", err)
	}

	return ledger, nil
}

// ResponsesByRequest returns request message_id → response
func (l *Ledger) ResponsesByRequest() map[string]*protocol.Response {
	byID := make(map[string]*protocol.Response, len(l.Responses))
	for _, resp := range l.Responses {
		byID[resp.ReplyTo] = resp
	}
	return byID
}

// Unanswered returns requests that never got a response. These are the
// calls that timed out or were cut off when the run stopped.
func (l *Ledger) Unanswered() []*protocol.Request {
	answered := l.ResponsesByRequest()
	pending := make([]*protocol.Request, 0)

	for _, req := range l.Requests {
		if _, ok := answered[req.MessageID]; !ok {
			pending = append(pending, req)
		}
	}

	return pending
}

// CmdStats counts the traffic for one command
type CmdStats struct {
	Cmd        string
	Calls      int
	Errors     int
	Unanswered int
}

// Summary is the per-run digest printed by the report command
type Summary struct {
	Requests   int
	Errors     int
	Unanswered int
	Commands   []CmdStats
	Levels     map[protocol.LogLevel]int
}

// Summarize digests the ledger, commands sorted by call count then name
func (l *Ledger) Summarize() Summary {
	answered := l.ResponsesByRequest()
	byCmd := make(map[string]*CmdStats)
	sum := Summary{Requests: len(l.Requests), Levels: make(map[protocol.LogLevel]int)}

	for _, req := range l.Requests {
		stats, ok := byCmd[req.Cmd]
		if !ok {
			stats = &CmdStats{Cmd: req.Cmd}
			byCmd[req.Cmd] = stats
		}
		stats.Calls++

		resp, ok := answered[req.MessageID]
		switch {
		case !ok:
			stats.Unanswered++
			sum.Unanswered++
		case resp.Error != "":
			stats.Errors++
			sum.Errors++
		}
	}

	for _, log := range l.Logs {
		sum.Levels[log.Level]++
	}

	for _, stats := range byCmd {
		sum.Commands = append(sum.Commands, *stats)
	}
	sort.Slice(sum.Commands, func(i, j int) bool {
		if sum.Commands[i].Calls != sum.Commands[j].Calls {
			return sum.Commands[i].Calls > sum.Commands[j].Calls
		}
		return sum.Commands[i].Cmd < sum.Commands[j].Cmd
	})

	return sum
}
