package vehicle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/iambrandonn/dailyorch/internal/gateway"
	"github.com/iambrandonn/dailyorch/internal/logsink"
	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/internal/rules"
)

// Call timeouts for vehicle commands
const (
	ListTimeout    = 10 * time.Second
	RefreshTimeout = 10 * time.Second
	SendTimeout    = 10 * time.Second
	ClaimTimeout   = 10 * time.Second

	initialTicketTimeout = 10 * time.Second
	ticketTimeout        = 8 * time.Second
)

// Dispatch window: Monday through Wednesday, before 20:00 local time
const (
	DispatchFirstDay  = time.Monday
	DispatchLastDay   = time.Wednesday
	DispatchCloseHour = 20
)

// DefaultMaxRefreshes bounds the refresh loop for one vehicle
const DefaultMaxRefreshes = 50

// Invoker is the gateway surface the planners need
type Invoker interface {
	Invoke(ctx context.Context, cmd string, params protocol.Body, description string, timeout time.Duration) (protocol.Body, error)
}

// TicketReader re-reads the refresh-ticket count; failures read as zero
// (account.Provider).
type TicketReader interface {
	Tickets(ctx context.Context, timeout time.Duration) int
}

// Result reports what a planner run did
type Result struct {
	Found     int
	Sent      int
	Refreshed int
	Claimed   int
	Failed    int
	// Skipped holds the reason when the run was a soft no-op
	Skipped string
}

// DispatchPlanner sends every available vehicle, refreshing the ones not
// worth sending yet while refreshing is affordable.
type DispatchPlanner struct {
	gw      Invoker
	tickets TicketReader
	sink    logsink.Sink
	logger  *slog.Logger

	Prizes []Prize
	// MaxRefreshes caps refreshes per vehicle; 0 leaves the loop unbounded
	MaxRefreshes  int
	DispatchDelay time.Duration
	Now           func() time.Time
	Sleep         gateway.SleepFunc
}

// NewDispatchPlanner creates a dispatch planner with the default prize table
func NewDispatchPlanner(gw Invoker, tickets TicketReader, sink logsink.Sink, logger *slog.Logger, pacing config.Pacing) *DispatchPlanner {
	if sink == nil {
		sink = logsink.Discard
	}
	return &DispatchPlanner{
		gw:            gw,
		tickets:       tickets,
		sink:          sink,
		logger:        logger,
		Prizes:        DefaultPrizes,
		MaxRefreshes:  DefaultMaxRefreshes,
		DispatchDelay: pacing.DispatchDelay,
		Now:           time.Now,
		Sleep:         gateway.Sleep,
	}
}

// Open reports whether vehicles may be dispatched at now, with the reason
// when they may not.
func Open(now time.Time) (bool, string) {
	if wd := now.Weekday(); wd < DispatchFirstDay || wd > DispatchLastDay {
		return false, "dispatch is only open Monday to Wednesday"
	}
	if now.Hour() >= DispatchCloseHour {
		return false, fmt.Sprintf("past %02d:00, dispatch is closed", DispatchCloseHour)
	}
	return true, ""
}

// Run dispatches available vehicles. Outside the dispatch window it logs a
// warning and returns without error. Failures of single vehicles are logged
// and counted; only a failed vehicle list fetch is returned.
func (p *DispatchPlanner) Run(ctx context.Context) (Result, error) {
	var res Result

	if ok, reason := Open(p.Now()); !ok {
		logsink.Warn(p.sink, "%s", reason)
		res.Skipped = reason
		return res, nil
	}

	logsink.Info(p.sink, "fetching vehicles")
	vehicles, err := fetch(ctx, p.gw)
	if err != nil {
		logsink.Error(p.sink, "smart dispatch failed: %v", err)
		return res, err
	}
	tickets := p.tickets.Tickets(ctx, initialTicketTimeout)

	res.Found = len(vehicles)
	logsink.Info(p.sink, "found %d vehicles", len(vehicles))
	p.logger.Info("dispatch starting", "vehicles", len(vehicles), "tickets", tickets)

	for i := range vehicles {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		v := &vehicles[i]
		if v.Dispatched() {
			continue
		}
		tickets = p.dispatchOne(ctx, v, tickets, &res)
	}

	logsink.Success(p.sink, "smart dispatch done, sent %d vehicles", res.Sent)
	return res, nil
}

// dispatchOne settles one available vehicle and returns the ticket count
// after any refreshes.
func (p *DispatchPlanner) dispatchOne(ctx context.Context, v *Vehicle, tickets int, res *Result) int {
	if ShouldSend(*v, tickets, p.Prizes) || !RefreshWorthwhile(*v, tickets) {
		p.send(ctx, v, res)
		return tickets
	}

	for n := 0; ; n++ {
		if p.MaxRefreshes > 0 && n >= p.MaxRefreshes {
			p.logger.Warn("refresh limit reached, sending as-is", "vehicle", v.ID, "refreshes", n)
			p.send(ctx, v, res)
			return tickets
		}

		if err := p.refresh(ctx, v); err != nil {
			logsink.Error(p.sink, "refresh vehicle %s failed: %v", v.ID, err)
			res.Failed++
			return tickets
		}
		res.Refreshed++
		tickets = p.tickets.Tickets(ctx, ticketTimeout)

		p.logger.Debug("vehicle refreshed", "vehicle", v.ID, "color", v.Color, "refresh_count", v.RefreshCount, "tickets", tickets)

		if ShouldSend(*v, tickets, p.Prizes) || !RefreshWorthwhile(*v, tickets) {
			p.send(ctx, v, res)
			return tickets
		}
	}
}

func (p *DispatchPlanner) refresh(ctx context.Context, v *Vehicle) error {
	body, err := p.gw.Invoke(ctx, protocol.CmdCarRefresh, protocol.Body{"carId": v.ID}, "", RefreshTimeout)
	if err != nil {
		return err
	}

	patch, ok := rules.FirstValue(body, "car")
	if !ok {
		patch, ok = rules.Path(body, "body", "car")
	}
	if !ok {
		patch = body
	}
	if m, ok := rules.Map(patch); ok {
		v.Merge(pick(m, "color", "refreshCount"))
	}
	return nil
}

func (p *DispatchPlanner) send(ctx context.Context, v *Vehicle, res *Result) {
	params := protocol.Body{
		"carId":     v.ID,
		"helperId":  v.HelperID,
		"text":      "",
		"isUpgrade": false,
	}

	body, err := p.gw.Invoke(ctx, protocol.CmdCarSend, params, "", SendTimeout)
	if err != nil {
		logsink.Error(p.sink, "vehicle %s dispatch failed: %v", v.ID, err)
		res.Failed++
		return
	}

	if updated, ok := sentState(body, v.ID); ok {
		v.Merge(pick(updated, "sendAt", "color", "refreshCount"))
	}
	res.Sent++
	p.logger.Info("vehicle dispatched", "vehicle", v.ID, "color", v.Color)

	if err := p.Sleep(ctx, p.DispatchDelay); err != nil {
		p.logger.Debug("dispatch pause interrupted", "error", err)
	}
}

// sentState finds the updated entry for id in a send response
func sentState(body protocol.Body, id string) (map[string]any, bool) {
	payload := any(body)
	if inner, ok := rules.Map(body["body"]); ok {
		payload = inner
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	carMap, ok := carDataMap(m)
	if !ok {
		return nil, false
	}
	return rules.Map(carMap[id])
}

func pick(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}

func fetch(ctx context.Context, gw Invoker) ([]Vehicle, error) {
	body, err := gw.Invoke(ctx, protocol.CmdCarList, nil, "", ListTimeout)
	if err != nil {
		return nil, err
	}
	return Normalize(body), nil
}
