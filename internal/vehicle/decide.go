package vehicle

import (
	"time"

	"github.com/iambrandonn/dailyorch/internal/rules"
)

// Thresholds of the dispatch heuristic
const (
	// AbundantTickets is the ticket count at which refreshing stops being
	// scarce and the bar for sending rises.
	AbundantTickets = 6

	RacingTicketItemID = 35002
	racingTicketType   = 3

	// MaturationPeriod is how long a dispatched vehicle takes to return
	MaturationPeriod = 4 * time.Hour
)

// Prize is a reward signature that makes a vehicle worth sending as-is:
// a reward of Type and ItemID with at least MinValue.
type Prize struct {
	Type     int
	ItemID   int
	MinValue int
}

// DefaultPrizes is the big-prize table used when a planner has none
var DefaultPrizes = []Prize{
	{Type: 3, ItemID: 3201, MinValue: 10},
	{Type: 3, ItemID: 1001, MinValue: 10},
	{Type: 3, ItemID: 1022, MinValue: 2000},
	{Type: 2, ItemID: 0, MinValue: 2000},
	{Type: 3, ItemID: 1023, MinValue: 5},
	{Type: 3, ItemID: 1022, MinValue: 2500},
	{Type: 3, ItemID: 1001, MinValue: 12},
}

// HasBigPrize reports whether any reward matches a prize signature
func HasBigPrize(v Vehicle, prizes []Prize) bool {
	for _, p := range prizes {
		for _, r := range v.Rewards {
			if r.Type == p.Type && r.ItemID == p.ItemID && r.Value >= p.MinValue {
				return true
			}
		}
	}
	return false
}

// RacingTickets sums the racing-ticket rewards the vehicle carries
func RacingTickets(v Vehicle) int {
	total := 0
	for _, r := range v.Rewards {
		if r.Type == racingTicketType && r.ItemID == RacingTicketItemID {
			total += r.Value
		}
	}
	return total
}

// ShouldSend reports whether v is good enough to dispatch without another
// refresh, given the refresh tickets on hand.
func ShouldSend(v Vehicle, tickets int, prizes []Prize) bool {
	if HasBigPrize(v, prizes) {
		return true
	}
	racing := RacingTickets(v)
	if tickets >= AbundantTickets {
		return v.Color >= 5 || racing >= 4
	}
	return v.Color >= 4 || racing >= 2
}

// RefreshWorthwhile reports whether one more refresh is worth spending:
// always while tickets are abundant, otherwise only while the vehicle's
// free refresh is unused.
func RefreshWorthwhile(v Vehicle, tickets int) bool {
	return tickets >= AbundantTickets || v.RefreshCount == 0
}

// CanClaim reports whether a dispatched vehicle has matured. SendAt may be
// in seconds or milliseconds.
func CanClaim(v Vehicle, now time.Time) bool {
	if v.SendAt <= 0 {
		return false
	}
	return now.Sub(rules.EpochTime(v.SendAt)) >= MaturationPeriod
}
