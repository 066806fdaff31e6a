package domain

import (
	"time"

	"github.com/hamed0406/oraclemonitor/internal/monitor"
)

// Snapshot is a read-only copy of the monitor published after each tick.
type Snapshot struct {
	Validator    string        `json:"validator"`
	Seeded       bool          `json:"seeded"`
	State        monitor.State `json:"state"`
	LastCount    int64         `json:"last_count"`
	LastSampleAt time.Time     `json:"last_sample_at,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	Ticks        int64         `json:"ticks"`
	Alerts       int64         `json:"alerts"`
	Suppressed   int64         `json:"suppressed"`
	FetchErrors  int64         `json:"fetch_errors"`
}

// Healthy reports whether the monitor is seeded and its latest tick succeeded.
func (s Snapshot) Healthy() bool {
	return s.Seeded && s.LastError == ""
}

// AlertEvent records one alert delivery attempt.
type AlertEvent struct {
	MissDifference int64     `json:"miss_difference"`
	Count          int64     `json:"count"`
	SentAt         time.Time `json:"sent_at"`
	Delivered      bool      `json:"delivered"`
	Error          string    `json:"error,omitempty"`
}
