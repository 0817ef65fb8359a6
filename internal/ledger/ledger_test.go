package ledger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iambrandonn/dailyorch/internal/eventlog"
	"github.com/iambrandonn/dailyorch/internal/protocol"
)

func writeTestLedger(t *testing.T, reqs []*protocol.Request, resps []*protocol.Response, logs []*protocol.Log) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events", "run-001.ndjson")
	el, err := eventlog.NewEventLog(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEventLog() error = %v", err)
	}
	defer el.Close()

	for _, r := range reqs {
		if err := el.WriteRequest(r); err != nil {
			t.Fatalf("WriteRequest() error = %v", err)
		}
	}
	for _, r := range resps {
		if err := el.WriteResponse(r); err != nil {
			t.Fatalf("WriteResponse() error = %v", err)
		}
	}
	for _, l := range logs {
		if err := el.WriteLog(l); err != nil {
			t.Fatalf("WriteLog() error = %v", err)
		}
	}
	return path
}

func request(id, cmd string) *protocol.Request {
	return &protocol.Request{
		Kind:      protocol.MessageKindRequest,
		MessageID: id,
		SessionID: "acct-1",
		Cmd:       cmd,
		Params:    protocol.Body{},
		Deadline:  time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
	}
}

func response(replyTo, errMsg string) *protocol.Response {
	return &protocol.Response{Kind: protocol.MessageKindResponse, ReplyTo: replyTo, Error: errMsg}
}

func logLine(level protocol.LogLevel, msg string) *protocol.Log {
	return &protocol.Log{Kind: protocol.MessageKindLog, Level: level, Message: msg, Timestamp: time.Now().UTC()}
}

func TestReadLedger(t *testing.T) {
	path := writeTestLedger(t,
		[]*protocol.Request{request("m-1", protocol.CmdRoleInfo), request("m-2", protocol.CmdCarList)},
		[]*protocol.Response{response("m-1", "")},
		[]*protocol.Log{logLine(protocol.LogLevelInfo, "starting daily catch-up")},
	)

	ledger, err := ReadLedger(path)
	if err != nil {
		t.Fatalf("ReadLedger() error = %v", err)
	}

	if len(ledger.Requests) != 2 {
		t.Errorf("Requests count = %d, want 2", len(ledger.Requests))
	}
	if len(ledger.Responses) != 1 {
		t.Errorf("Responses count = %d, want 1", len(ledger.Responses))
	}
	if len(ledger.Logs) != 1 {
		t.Errorf("Logs count = %d, want 1", len(ledger.Logs))
	}
	if ledger.Requests[1].Cmd != protocol.CmdCarList {
		t.Errorf("Requests[1].Cmd = %q, want %q", ledger.Requests[1].Cmd, protocol.CmdCarList)
	}
}

func TestUnanswered(t *testing.T) {
	ledger := &Ledger{
		Requests: []*protocol.Request{
			request("m-1", protocol.CmdRoleInfo),
			request("m-2", protocol.CmdTeamInfo),
			request("m-3", protocol.CmdCarSend),
		},
		Responses: []*protocol.Response{response("m-1", ""), response("m-3", "helper busy")},
	}

	pending := ledger.Unanswered()
	if len(pending) != 1 {
		t.Fatalf("Unanswered() returned %d, want 1", len(pending))
	}
	if pending[0].MessageID != "m-2" {
		t.Errorf("pending = %s, want m-2", pending[0].MessageID)
	}
}

func TestSummarize(t *testing.T) {
	ledger := &Ledger{
		Requests: []*protocol.Request{
			request("m-1", protocol.CmdRoleInfo),
			request("m-2", protocol.CmdCarSend),
			request("m-3", protocol.CmdCarSend),
			request("m-4", protocol.CmdCarSend),
			request("m-5", protocol.CmdRoleInfo),
		},
		Responses: []*protocol.Response{
			response("m-1", ""),
			response("m-2", ""),
			response("m-3", "helper busy"),
			response("m-5", ""),
		},
		Logs: []*protocol.Log{
			logLine(protocol.LogLevelInfo, "a"),
			logLine(protocol.LogLevelInfo, "b"),
			logLine(protocol.LogLevelError, "c"),
		},
	}

	sum := ledger.Summarize()

	if sum.Requests != 5 || sum.Errors != 1 || sum.Unanswered != 1 {
		t.Errorf("totals = %d/%d/%d, want 5/1/1", sum.Requests, sum.Errors, sum.Unanswered)
	}
	if len(sum.Commands) != 2 {
		t.Fatalf("Commands count = %d, want 2", len(sum.Commands))
	}

	want := CmdStats{Cmd: protocol.CmdCarSend, Calls: 3, Errors: 1, Unanswered: 1}
	if sum.Commands[0] != want {
		t.Errorf("Commands[0] = %+v, want %+v", sum.Commands[0], want)
	}
	if sum.Commands[1].Cmd != protocol.CmdRoleInfo || sum.Commands[1].Calls != 2 {
		t.Errorf("Commands[1] = %+v", sum.Commands[1])
	}
	if sum.Levels[protocol.LogLevelInfo] != 2 || sum.Levels[protocol.LogLevelError] != 1 {
		t.Errorf("Levels = %v", sum.Levels)
	}
}

func TestEmptyLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ndjson")
	if err := os.WriteFile(path, []byte("\n\n"), 0600); err != nil {
		t.Fatal(err)
	}

	ledger, err := ReadLedger(path)
	if err != nil {
		t.Fatalf("ReadLedger() error = %v", err)
	}
	if len(ledger.Requests) != 0 || len(ledger.Unanswered()) != 0 {
		t.Errorf("expected empty ledger, got %+v", ledger)
	}
}

func TestUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ndjson")
	if err := os.WriteFile(path, []byte(`{"kind":"heartbeat"}`+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := ReadLedger(path)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("ReadLedger() error = %v, want line 1 unknown kind", err)
	}
}

func TestLargeMessageHandling(t *testing.T) {
	req := request("m-1", protocol.CmdRoleInfo)
	req.Params = protocol.Body{"blob": strings.Repeat("x", 100*1024)}

	path := writeTestLedger(t, []*protocol.Request{req}, nil, nil)

	ledger, err := ReadLedger(path)
	if err != nil {
		t.Fatalf("ReadLedger() error = %v", err)
	}
	if got := len(ledger.Requests[0].Params["blob"].(string)); got != 100*1024 {
		t.Errorf("blob length = %d, want %d", got, 100*1024)
	}
}
