package config

import "fmt"

// Settings holds the per-account task options. Every field is optional;
// nil means "use the default". Unknown keys in a settings file are ignored.
type Settings struct {
	ArenaFormation      *int  `json:"arenaFormation,omitempty" yaml:"arenaFormation,omitempty"`
	BossFormation       *int  `json:"bossFormation,omitempty" yaml:"bossFormation,omitempty"`
	BossTimes           *int  `json:"bossTimes,omitempty" yaml:"bossTimes,omitempty"`
	ClaimBottle         *bool `json:"claimBottle,omitempty" yaml:"claimBottle,omitempty"`
	PayRecruit          *bool `json:"payRecruit,omitempty" yaml:"payRecruit,omitempty"`
	OpenBox             *bool `json:"openBox,omitempty" yaml:"openBox,omitempty"`
	ArenaEnable         *bool `json:"arenaEnable,omitempty" yaml:"arenaEnable,omitempty"`
	ClaimHangUp         *bool `json:"claimHangUp,omitempty" yaml:"claimHangUp,omitempty"`
	ClaimEmail          *bool `json:"claimEmail,omitempty" yaml:"claimEmail,omitempty"`
	BlackMarketPurchase *bool `json:"blackMarketPurchase,omitempty" yaml:"blackMarketPurchase,omitempty"`
}

// Resolved is Settings with every default applied. It is immutable for
// the duration of a run.
type Resolved struct {
	ArenaFormation      int
	BossFormation       int
	BossTimes           int
	ClaimBottle         bool
	PayRecruit          bool
	OpenBox             bool
	ArenaEnable         bool
	ClaimHangUp         bool
	ClaimEmail          bool
	BlackMarketPurchase bool
}

// Defaults used when a setting is unset
const (
	DefaultArenaFormation = 1
	DefaultBossFormation  = 1
	DefaultBossTimes      = 2
)

// ApplyDefaults returns the resolved settings
func (s Settings) ApplyDefaults() Resolved {
	return Resolved{
		ArenaFormation:      intOr(s.ArenaFormation, DefaultArenaFormation),
		BossFormation:       intOr(s.BossFormation, DefaultBossFormation),
		BossTimes:           max(intOr(s.BossTimes, DefaultBossTimes), 0),
		ClaimBottle:         boolOr(s.ClaimBottle, true),
		PayRecruit:          boolOr(s.PayRecruit, true),
		OpenBox:             boolOr(s.OpenBox, true),
		ArenaEnable:         boolOr(s.ArenaEnable, true),
		ClaimHangUp:         boolOr(s.ClaimHangUp, true),
		ClaimEmail:          boolOr(s.ClaimEmail, true),
		BlackMarketPurchase: boolOr(s.BlackMarketPurchase, true),
	}
}

// Validate rejects values the game cannot accept
func (s Settings) Validate() error {
	if s.BossTimes != nil && *s.BossTimes < 0 {
		return fmt.Errorf("configuration error: 'settings.bossTimes' must be >= 0, got %d", *s.BossTimes)
	}
	if s.ArenaFormation != nil && *s.ArenaFormation < 1 {
		return fmt.Errorf("configuration error: 'settings.arenaFormation' must be a formation id >= 1, got %d", *s.ArenaFormation)
	}
	if s.BossFormation != nil && *s.BossFormation < 1 {
		return fmt.Errorf("configuration error: 'settings.bossFormation' must be a formation id >= 1, got %d", *s.BossFormation)
	}
	return nil
}

// Int returns a pointer to v, for building Settings literals
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for building Settings literals
func Bool(v bool) *bool { return &v }

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
