package transcript

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// Formatter formats sink lines and bridge traffic for console output
type Formatter struct {
	// Timestamps prefixes lines with the local wall clock (HH:MM:SS)
	Timestamps bool
}

// NewFormatter creates a new transcript formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatLog formats a sink line for console display
func (f *Formatter) FormatLog(log *protocol.Log) string {
	level := log.Level
	if level == "" {
		level = protocol.LogLevelInfo
	}
	line := fmt.Sprintf("[%s] %s", strings.ToUpper(string(level)), log.Message)
	if f.Timestamps && !log.Timestamp.IsZero() {
		line = log.Timestamp.Local().Format(time.TimeOnly) + " " + line
	}
	return line
}

// FormatRequest formats an outgoing game command for console display
func (f *Formatter) FormatRequest(req *protocol.Request) string {
	if len(req.Params) == 0 {
		return fmt.Sprintf("[dailyorch→%s] %s", req.SessionID, req.Cmd)
	}
	return fmt.Sprintf("[dailyorch→%s] %s %s", req.SessionID, req.Cmd, formatParams(req.Params))
}

// FormatResponse formats a game response for console display
func (f *Formatter) FormatResponse(resp *protocol.Response) string {
	if resp.Error != "" {
		return fmt.Sprintf("[%s] error: %s", resp.Cmd, resp.Error)
	}
	return fmt.Sprintf("[%s] ok (%d fields)", resp.Cmd, len(resp.Body))
}

// formatParams renders params as key=value pairs in a stable order
func formatParams(params protocol.Body) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, " ")
}
