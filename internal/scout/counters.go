package scout

import "sort"

// Counter is the displayed press count for one action.
type Counter struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Counters holds press counts keyed by action identifier.
type Counters map[string]int

// Add increments the count for action by amount. Non-positive amounts are
// ignored.
func (c Counters) Add(action string, amount int) {
	if amount > 0 {
		c[action] += amount
	}
}

// Get returns the count for action, zero when absent.
func (c Counters) Get(action string) int {
	return c[action]
}

// Copy creates a deep copy of the counters.
func (c Counters) Copy() Counters {
	out := make(Counters, len(c))
	for action, count := range c {
		out[action] = count
	}
	return out
}

// List returns the counters sorted by action.
func (c Counters) List() []Counter {
	out := make([]Counter, 0, len(c))
	for action, count := range c {
		out = append(out, Counter{Action: action, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}
