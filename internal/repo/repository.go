package repo

import (
	"context"

	"github.com/hamed0406/oraclemonitor/internal/domain"
)

// StatusWriter is fed by the monitor loop.
type StatusWriter interface {
	Publish(ctx context.Context, s domain.Snapshot) error
	RecordAlert(ctx context.Context, e domain.AlertEvent) error
}

// StatusReader backs the status API.
type StatusReader interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	// Alerts returns up to limit events, newest first.
	Alerts(ctx context.Context, limit int) ([]domain.AlertEvent, error)
}
