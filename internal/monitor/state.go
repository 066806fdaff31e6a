package monitor

import "time"

// State is the rolling-window state of the miss monitor.
//
// Fields:
//   - Baseline: counter value at the start of the current observation window.
//   - WindowStart: when the current window began; pushed forward while misses
//     keep accruing, reset once they stop for a full tolerance period.
//   - LastSampled: counter value seen on the previous tick.
//   - LastAlert: when the last alert went out; zero means never.
type State struct {
	Baseline    int64     `json:"baseline"`
	WindowStart time.Time `json:"window_start"`
	LastSampled int64     `json:"last_sampled"`
	LastAlert   time.Time `json:"last_alert,omitempty"`
}

// Seed builds the initial state from the first successful sample.
func Seed(count int64, now time.Time) State {
	return State{
		Baseline:    count,
		WindowStart: now,
		LastSampled: count,
	}
}

// Decision is what a single tick concluded.
type Decision struct {
	// Alert is set when an alert must be delivered this tick.
	Alert bool
	// Suppressed is set when the tolerance was reached but the last alert
	// is still inside the cooldown.
	Suppressed bool
	// MissDifference is measured against the baseline in effect before the
	// tick. It is meaningful on every tick, not only when alerting.
	MissDifference int64
	Refreshed      bool
	Reset          bool
}
