package vehicle

import (
	"context"
	"log/slog"
	"time"

	"github.com/iambrandonn/dailyorch/internal/config"
	"github.com/iambrandonn/dailyorch/internal/gateway"
	"github.com/iambrandonn/dailyorch/internal/logsink"
	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// ClaimPlanner claims every dispatched vehicle that has matured
type ClaimPlanner struct {
	gw     Invoker
	sink   logsink.Sink
	logger *slog.Logger

	ClaimDelay time.Duration
	Now        func() time.Time
	Sleep      gateway.SleepFunc
}

// NewClaimPlanner creates a claim planner
func NewClaimPlanner(gw Invoker, sink logsink.Sink, logger *slog.Logger, pacing config.Pacing) *ClaimPlanner {
	if sink == nil {
		sink = logsink.Discard
	}
	return &ClaimPlanner{
		gw:         gw,
		sink:       sink,
		logger:     logger,
		ClaimDelay: pacing.ClaimDelay,
		Now:        time.Now,
		Sleep:      gateway.Sleep,
	}
}

// Run claims matured vehicles one at a time
func (p *ClaimPlanner) Run(ctx context.Context) (Result, error) {
	var res Result

	logsink.Info(p.sink, "fetching vehicles")
	vehicles, err := fetch(ctx, p.gw)
	if err != nil {
		logsink.Error(p.sink, "claim all failed: %v", err)
		return res, err
	}
	res.Found = len(vehicles)
	logsink.Info(p.sink, "found %d vehicles", len(vehicles))

	now := p.Now()
	var ready []Vehicle
	for _, v := range vehicles {
		if CanClaim(v, now) {
			ready = append(ready, v)
		}
	}
	logsink.Info(p.sink, "%d vehicles ready to claim", len(ready))

	for _, v := range ready {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		if _, err := p.gw.Invoke(ctx, protocol.CmdCarClaim, protocol.Body{"carId": v.ID}, "", ClaimTimeout); err != nil {
			logsink.Error(p.sink, "vehicle %s claim failed: %v", v.ID, err)
			res.Failed++
			continue
		}
		res.Claimed++
		p.logger.Info("vehicle claimed", "vehicle", v.ID)

		if err := p.Sleep(ctx, p.ClaimDelay); err != nil {
			p.logger.Debug("claim pause interrupted", "error", err)
		}
	}

	logsink.Success(p.sink, "claim all done, claimed %d vehicles", res.Claimed)
	return res, nil
}
