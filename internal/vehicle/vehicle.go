package vehicle

import (
	"cmp"
	"maps"
	"slices"
	"strconv"

	"github.com/iambrandonn/dailyorch/internal/rules"
)

// Reward is one prize a vehicle brings back
type Reward struct {
	Type   int
	ItemID int
	Value  int
}

// Vehicle is the local view of one dispatchable vehicle. SendAt is zero
// while the vehicle is available and the dispatch time once it is out.
type Vehicle struct {
	ID           string
	Color        int
	Rewards      []Reward
	SendAt       int64
	RefreshCount int
	HelperID     int
}

// Dispatched reports whether the vehicle is out maturing
func (v *Vehicle) Dispatched() bool {
	return v.SendAt != 0
}

// Merge overwrites the fields present in patch and leaves the rest alone
func (v *Vehicle) Merge(patch map[string]any) {
	if patch == nil {
		return
	}
	if x, ok := present(patch, "color"); ok {
		v.Color = rules.Int(x, v.Color)
	}
	if x, ok := present(patch, "refreshCount"); ok {
		v.RefreshCount = rules.Int(x, v.RefreshCount)
	}
	if x, ok := present(patch, "sendAt"); ok {
		if n, ok := rules.Int64(x); ok {
			v.SendAt = n
		}
	}
	if x, ok := present(patch, "helperId"); ok {
		v.HelperID = rules.Int(x, v.HelperID)
	}
	if x, ok := present(patch, "rewards"); ok {
		if list, ok := x.([]any); ok {
			v.Rewards = parseRewards(list)
		}
	}
}

func present(m map[string]any, key string) (any, bool) {
	x, ok := m[key]
	return x, ok && x != nil
}

// Normalize extracts vehicles from a vehicle list response. The game
// returns either a role-car map keyed by vehicle id or a plain list under
// one of several names; both shapes may be wrapped in "body".
func Normalize(payload any) []Vehicle {
	body, ok := rules.Map(payload)
	if !ok {
		return nil
	}
	if inner, ok := rules.Map(body["body"]); ok {
		body = inner
	}

	if carMap, ok := carDataMap(body); ok {
		out := make([]Vehicle, 0, len(carMap))
		for _, id := range sortedKeys(carMap) {
			info, _ := rules.Map(carMap[id])
			v := Vehicle{ID: id}
			v.Merge(info)
			out = append(out, v)
		}
		return out
	}

	raw, ok := rules.FirstValue(body, "cars", "list", "data", "carList")
	if !ok {
		return nil
	}

	var items []any
	switch x := raw.(type) {
	case []any:
		items = x
	case map[string]any:
		for _, k := range sortedKeys(x) {
			items = append(items, x[k])
		}
	}

	out := make([]Vehicle, 0, len(items))
	for _, it := range items {
		m, ok := rules.Map(it)
		if !ok {
			continue
		}
		v := Vehicle{ID: idString(m["id"])}
		v.Merge(m)
		out = append(out, v)
	}
	return out
}

// carDataMap finds roleCar.carDataMap, tolerating lower-case spellings
func carDataMap(body map[string]any) (map[string]any, bool) {
	roleCar, ok := rules.FirstValue(body, "roleCar", "rolecar")
	if !ok {
		return nil, false
	}
	m, ok := rules.FirstValue(roleCar, "carDataMap", "cardatamap")
	if !ok {
		return nil, false
	}
	return rules.Map(m)
}

func parseRewards(list []any) []Reward {
	out := make([]Reward, 0, len(list))
	for _, it := range list {
		m, ok := rules.Map(it)
		if !ok {
			continue
		}
		out = append(out, Reward{
			Type:   rules.Int(m["type"], 0),
			ItemID: rules.Int(m["itemId"], 0),
			Value:  rules.Int(m["value"], 0),
		})
	}
	return out
}

func idString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := rules.Int64(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return ""
}

// sortedKeys orders numeric ids numerically, then the rest lexically
func sortedKeys(m map[string]any) []string {
	return slices.SortedFunc(maps.Keys(m), func(a, b string) int {
		na, errA := strconv.ParseInt(a, 10, 64)
		nb, errB := strconv.ParseInt(b, 10, 64)
		switch {
		case errA == nil && errB == nil:
			return cmp.Compare(na, nb)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return cmp.Compare(a, b)
	})
}
