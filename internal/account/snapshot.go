package account

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/iambrandonn/dailyorch/internal/protocol"
	"github.com/iambrandonn/dailyorch/internal/rules"
)

// CompleteSentinel marks a daily task as fully claimed
const CompleteSentinel = -1

// TicketItemID is the refresh-ticket item in the role inventory
const TicketItemID = 35002

// ErrNoRole is returned when a role info response carries no role object
var ErrNoRole = errors.New("role info response has no role")

// Snapshot is the role state one daily run is built from. It is read-only
// once parsed.
type Snapshot struct {
	// Complete maps daily task id to its completion value
	Complete map[int]int
	// StatisticsTime maps feature keys to their last occurrence
	StatisticsTime map[string]any
	DailyPoint     int
	Items          map[string]any
}

// ParseSnapshot extracts the snapshot from a role info response
func ParseSnapshot(body protocol.Body) (*Snapshot, error) {
	role, ok := rules.Map(body["role"])
	if !ok {
		return nil, ErrNoRole
	}

	snap := &Snapshot{
		Complete:       make(map[int]int),
		StatisticsTime: objectOrEmpty(role["statisticsTime"]),
		Items:          objectOrEmpty(role["items"]),
	}

	if daily, ok := rules.Map(role["dailyTask"]); ok {
		snap.DailyPoint = rules.Int(daily["dailyPoint"], 0)
		if complete, ok := rules.Map(daily["complete"]); ok {
			for k, v := range complete {
				id, err := strconv.Atoi(k)
				if err != nil {
					continue
				}
				if n, ok := rules.Int64(v); ok {
					snap.Complete[id] = int(n)
				}
			}
		}
	}

	return snap, nil
}

// IsComplete reports whether daily task id holds the completion sentinel
func (s *Snapshot) IsComplete(id int) bool {
	v, ok := s.Complete[id]
	return ok && v == CompleteSentinel
}

// TodayAvailable reports whether the once-per-day feature key can run today
func (s *Snapshot) TodayAvailable(now time.Time, key string) bool {
	return rules.IsTodayAvailable(now, s.StatisticsTime[key])
}

// Tickets returns the refresh-ticket quantity held in the inventory
func (s *Snapshot) Tickets() int {
	return TicketsFrom(s.Items)
}

// TicketsFrom reads the refresh-ticket quantity from an items object
func TicketsFrom(items map[string]any) int {
	v, ok := rules.Path(items, strconv.Itoa(TicketItemID), "quantity")
	if !ok {
		return 0
	}
	return max(rules.Int(v, 0), 0)
}

func objectOrEmpty(v any) map[string]any {
	if m, ok := rules.Map(v); ok {
		return m
	}
	return map[string]any{}
}

// Invoker is the gateway surface the provider needs
type Invoker interface {
	Invoke(ctx context.Context, cmd string, params protocol.Body, description string, timeout time.Duration) (protocol.Body, error)
}

// Provider fetches snapshots over the gateway
type Provider struct {
	gw Invoker
}

// NewProvider creates a snapshot provider
func NewProvider(gw Invoker) *Provider {
	return &Provider{gw: gw}
}

// Fetch reads the role and parses it into a snapshot
func (p *Provider) Fetch(ctx context.Context) (*Snapshot, error) {
	body, err := p.gw.Invoke(ctx, protocol.CmdRoleInfo, nil, "", 0)
	if err != nil {
		return nil, err
	}
	return ParseSnapshot(body)
}

// Refresh re-reads the role for its server side effect and discards it
func (p *Provider) Refresh(ctx context.Context, timeout time.Duration) error {
	_, err := p.gw.Invoke(ctx, protocol.CmdRoleInfo, nil, "", timeout)
	return err
}

// Tickets re-reads the role and returns its refresh-ticket count. Any
// failure counts as zero tickets.
func (p *Provider) Tickets(ctx context.Context, timeout time.Duration) int {
	body, err := p.gw.Invoke(ctx, protocol.CmdRoleInfo, nil, "", timeout)
	if err != nil {
		return 0
	}
	items, _ := rules.Path(body, "role", "items")
	m, _ := rules.Map(items)
	return TicketsFrom(m)
}
