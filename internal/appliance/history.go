package appliance

import (
	"time"

	"codeberg.org/mutker/daikinctl/internal/errors"
)

// MaxHistoryAge is how far back energy snapshots are retained. One snapshot
// older than this is always kept as the lower bound for window queries.
const MaxHistoryAge = 3 * time.Hour

// Category is an energy accounting bucket.
type Category string

const (
	Total Category = "total"
	Cool  Category = "cool"
	Heat  Category = "heat"
)

// Categories lists every tracked category in recording order.
var Categories = []Category{Total, Cool, Heat}

// Scale returns the number of raw counter units per kWh.
func (c Category) Scale() float64 {
	if c == Total {
		return 1000
	}
	return 10
}

func (c Category) String() string {
	return string(c)
}

// EnergySnapshot is one observation of a category's cumulative counters, in
// raw device units.
type EnergySnapshot struct {
	Timestamp time.Time
	Today     int64
	Yesterday int64
}

// AnomalyData is attached to consistency anomaly errors.
type AnomalyData struct {
	Newer EnergySnapshot
	Older EnergySnapshot
}

// History holds energy snapshots of a single category, newest first.
type History struct {
	entries []EnergySnapshot
}

// Add records s unless its counters equal the newest entry, then drops
// entries older than maxAge before s.Timestamp except the first of them.
func (h *History) Add(s EnergySnapshot, maxAge time.Duration) (bool, error) {
	if len(h.entries) > 0 {
		newest := h.entries[0]
		if s.Timestamp.Before(newest.Timestamp) {
			return false, errors.New().WithData(ErrOutOfOrderSample, AnomalyData{Newer: newest, Older: s})
		}
		if newest.Today == s.Today && newest.Yesterday == s.Yesterday {
			return false, nil
		}
	}

	h.entries = append(h.entries, EnergySnapshot{})
	copy(h.entries[1:], h.entries)
	h.entries[0] = s

	cutoff := s.Timestamp.Add(-maxAge)
	for i, e := range h.entries {
		if e.Timestamp.Before(cutoff) {
			clear(h.entries[i+1:])
			h.entries = h.entries[:i+1]
			break
		}
	}

	return true, nil
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	return len(h.entries)
}

// Newest returns the most recent snapshot.
func (h *History) Newest() (EnergySnapshot, bool) {
	if len(h.entries) == 0 {
		return EnergySnapshot{}, false
	}
	return h.entries[0], true
}

// Snapshots returns a copy of the retained snapshots, newest first.
func (h *History) Snapshots() []EnergySnapshot {
	out := make([]EnergySnapshot, len(h.entries))
	copy(out, h.entries)
	return out
}

// Delta returns the raw energy accrued between consecutive snapshots whose
// newer side lies within window before now. A day rollover is recognised by
// the newer yesterday counter having caught up with the older today counter.
// Any other backwards step makes the whole result untrustworthy and yields
// zero with an ErrConsistencyAnomaly error.
//
// With earlyBreak only the newest pair is considered.
func (h *History) Delta(now time.Time, window time.Duration, earlyBreak bool) (int64, error) {
	start := now.Add(-window)

	var energy int64
	for i := 0; i+1 < len(h.entries); i++ {
		newer, older := h.entries[i], h.entries[i+1]
		if !newer.Timestamp.After(start) {
			break
		}

		switch {
		case newer.Today > older.Today:
			energy += newer.Today - older.Today
		case newer.Yesterday >= older.Today:
			energy += newer.Yesterday - older.Today
			energy += newer.Today
		default:
			return 0, errors.New().WithData(ErrConsistencyAnomaly, AnomalyData{Newer: newer, Older: older})
		}

		if earlyBreak {
			break
		}
	}

	return energy, nil
}
