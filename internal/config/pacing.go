package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Pacing collects the fixed delays that shape load on the game server.
// Each has an environment override so the policy can be tuned without
// touching task logic.
type Pacing struct {
	// SettleDelay follows every gateway call so reward grants land before
	// the next dependent read.
	SettleDelay time.Duration `env:"DAILYORCH_SETTLE_DELAY" envDefault:"500ms"`
	// InterTaskDelay separates catalog entries.
	InterTaskDelay time.Duration `env:"DAILYORCH_INTER_TASK_DELAY" envDefault:"200ms"`
	// ArenaRoundDelay separates arena fights.
	ArenaRoundDelay time.Duration `env:"DAILYORCH_ARENA_ROUND_DELAY" envDefault:"1s"`
	// FinalRefreshDelay precedes the closing account refresh.
	FinalRefreshDelay time.Duration `env:"DAILYORCH_FINAL_REFRESH_DELAY" envDefault:"2s"`
	// DispatchDelay follows each vehicle send.
	DispatchDelay time.Duration `env:"DAILYORCH_DISPATCH_DELAY" envDefault:"500ms"`
	// ClaimDelay follows each vehicle claim.
	ClaimDelay time.Duration `env:"DAILYORCH_CLAIM_DELAY" envDefault:"300ms"`
	// DefaultTimeout applies to calls that do not name their own.
	DefaultTimeout time.Duration `env:"DAILYORCH_DEFAULT_TIMEOUT" envDefault:"8s"`
}

// DefaultPacing returns the built-in pacing
func DefaultPacing() Pacing {
	return Pacing{
		SettleDelay:       500 * time.Millisecond,
		InterTaskDelay:    200 * time.Millisecond,
		ArenaRoundDelay:   time.Second,
		FinalRefreshDelay: 2 * time.Second,
		DispatchDelay:     500 * time.Millisecond,
		ClaimDelay:        300 * time.Millisecond,
		DefaultTimeout:    8 * time.Second,
	}
}

// LoadPacing reads pacing from the environment, falling back to defaults
func LoadPacing() (Pacing, error) {
	var p Pacing
	if err := env.Parse(&p); err != nil {
		return DefaultPacing(), fmt.Errorf("parse pacing env: %w", err)
	}
	if p.DefaultTimeout <= 0 {
		return DefaultPacing(), fmt.Errorf("configuration error: DAILYORCH_DEFAULT_TIMEOUT must be positive")
	}
	return p, nil
}
