// Package monitor holds the miss-detection state machine. It does no I/O;
// the scheduler feeds it samples and acts on its decisions.
package monitor

import (
	"errors"
	"time"
)

// Policy is the immutable tuning of the monitor.
type Policy struct {
	Tolerance       int64         `json:"miss_tolerance"`
	TolerancePeriod time.Duration `json:"miss_tolerance_period"`
	Cooldown        time.Duration `json:"alert_cooldown"`
}

func (p Policy) Validate() error {
	if p.Tolerance < 0 {
		return errors.New("miss tolerance must be >= 0")
	}
	if p.TolerancePeriod <= 0 {
		return errors.New("miss tolerance period must be > 0")
	}
	if p.Cooldown <= 0 {
		return errors.New("alert cooldown must be > 0")
	}
	return nil
}

// Sample applies one counter reading to st and returns the new state.
//
// The alert is evaluated first, against the baseline in effect before this
// tick; window refresh and expiry run afterwards on the possibly advanced
// baseline. A counter that went backwards is tolerated: the difference goes
// negative and the refresh does not fire.
func (p Policy) Sample(st State, count int64, now time.Time) (State, Decision) {
	d := Decision{MissDifference: count - st.Baseline}

	if d.MissDifference >= p.Tolerance {
		if st.LastAlert.IsZero() || now.Sub(st.LastAlert) > p.Cooldown {
			d.Alert = true
			st.LastAlert = now
			st.Baseline = count
		} else {
			d.Suppressed = true
		}
	}

	if count > st.LastSampled {
		st.WindowStart = now
		d.Refreshed = true
	}

	if now.Sub(st.WindowStart) > p.TolerancePeriod {
		st.Baseline = count
		st.WindowStart = now
		d.Reset = true
	}

	st.LastSampled = count
	return st, d
}
